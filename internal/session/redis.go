package session

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const redisKeyPrefix = "tombers:session:"

// RedisConfig holds the connection settings for a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps sessions in Redis so they survive restarts and can be
// shared by several API processes.
type RedisStore struct {
	client *redis.Client
}

// DialRedis connects to Redis and checks the connection with PING.
func DialRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Put(ctx context.Context, s Session, ttl time.Duration) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "encode session")
	}
	return errors.Wrap(r.client.Set(ctx, redisKeyPrefix+s.ID, data, ttl).Err(), "redis set")
}

func (r *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "redis get")
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, errors.Wrap(err, "decode session")
	}
	return s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return errors.Wrap(r.client.Del(ctx, redisKeyPrefix+id).Err(), "redis del")
}
