// Package db opens the PostgreSQL pool used by the postgres storage driver
// and applies its schema migrations.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Options describes the PostgreSQL connection.
type Options struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns int
	MaxIdleConns int
}

func (o Options) sslMode() string {
	if o.SSLMode == "" {
		return "disable"
	}
	return o.SSLMode
}

// DSN returns a lib/pq keyword/value connection string.
func (o Options) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s dbname=%s user=%s password=%s sslmode=%s",
		o.Host, o.Port, o.Name, o.User, o.Password, o.sslMode(),
	)
}

// URL returns the postgres:// form golang-migrate expects.
func (o Options) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(o.User, o.Password),
		Host:     o.Host + ":" + o.Port,
		Path:     "/" + o.Name,
		RawQuery: "sslmode=" + o.sslMode(),
	}
	return u.String()
}

func Connect(ctx context.Context, o Options) (*sql.DB, error) {
	db, err := sql.Open("postgres", o.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}

	if o.MaxOpenConns > 0 {
		db.SetMaxOpenConns(o.MaxOpenConns)
	}
	if o.MaxIdleConns > 0 {
		db.SetMaxIdleConns(o.MaxIdleConns)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping postgres")
	}

	return db, nil
}
