package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tombers/tombers/internal/config"
	"github.com/tombers/tombers/internal/db"
	"github.com/tombers/tombers/internal/logging"
	"github.com/tombers/tombers/internal/password"
	"github.com/tombers/tombers/internal/repo"
	"github.com/tombers/tombers/internal/scheduler"
	"github.com/tombers/tombers/internal/session"
)

// app holds everything the router needs.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	users    repo.UserRepository
	projects repo.ProjectRepository
	sessions *session.Manager
	hasher   *password.Hasher

	// memSessions is set when sessions live in process memory.
	memSessions *session.MemoryStore
}

const sessionSweepSpec = "@every 10m"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log, err := logging.New(cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		os.Stderr.WriteString("logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{cfg: cfg, log: log, hasher: password.New()}

	closeStorage, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage()

	closeSessions, err := a.openSessions(ctx)
	if err != nil {
		return err
	}
	defer closeSessions()

	sched := scheduler.New(log.Named("scheduler"))
	if err := a.scheduleJobs(sched); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		sched.Stop(stopCtx)
	}()

	handler, err := newRouter(a)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.StorageDriver),
			zap.String("sessions", cfg.SessionStore),
			zap.Bool("tls", cfg.TLSEnabled()),
		)
		if cfg.TLSEnabled() {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStorage wires the repositories for the configured driver. The JSON
// stores are created on first run; a corrupt file aborts startup.
func (a *app) openStorage(ctx context.Context) (func(), error) {
	switch a.cfg.StorageDriver {
	case "postgres":
		opts := db.Options{
			Host:         a.cfg.DBHost,
			Port:         a.cfg.DBPort,
			Name:         a.cfg.DBName,
			User:         a.cfg.DBUser,
			Password:     a.cfg.DBPass,
			SSLMode:      a.cfg.DBSSLMode,
			MaxOpenConns: a.cfg.DBMaxOpenConns,
			MaxIdleConns: a.cfg.DBMaxIdleConns,
		}
		database, err := db.Connect(ctx, opts)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(opts.URL()); err != nil {
			database.Close()
			return nil, err
		}
		a.users = repo.NewUserRepo(database)
		a.projects = repo.NewProjectRepo(database)
		a.log.Info("connected to postgres", zap.String("host", opts.Host), zap.String("db", opts.Name))
		return closer(database), nil

	default:
		users := repo.NewJSONUserRepo(a.cfg.UsersPath())
		if err := users.Init(); err != nil {
			return nil, errors.Wrap(err, "users store")
		}
		projects := repo.NewJSONProjectRepo(a.cfg.ProjectsPath())
		if err := projects.Init(); err != nil {
			return nil, errors.Wrap(err, "projects store")
		}
		a.users = users
		a.projects = projects
		a.log.Info("using json stores", zap.String("data_dir", a.cfg.DataDir))
		return func() {}, nil
	}
}

func closer(database *sql.DB) func() {
	return func() { database.Close() }
}

func (a *app) openSessions(ctx context.Context) (func(), error) {
	var store session.Store
	cleanup := func() {}

	switch a.cfg.SessionStore {
	case "redis":
		client, err := session.DialRedis(ctx, session.RedisConfig{
			Addr:     a.cfg.RedisAddr,
			Password: a.cfg.RedisPassword,
			DB:       a.cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		store = session.NewRedisStore(client)
		cleanup = func() { closeRedis(a.log, client) }
	default:
		a.memSessions = session.NewMemoryStore()
		store = a.memSessions
	}

	a.sessions = session.NewManager(store, []byte(a.cfg.SessionSecret), a.cfg.SessionTTL)
	return cleanup, nil
}

func closeRedis(log *zap.Logger, client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Warn("close redis", zap.Error(err))
	}
}

func (a *app) scheduleJobs(s *scheduler.Scheduler) error {
	if a.memSessions == nil {
		return nil
	}
	return s.Add(scheduler.Job{
		Name: "session-sweep",
		Spec: sessionSweepSpec,
		Run: func(ctx context.Context) error {
			if n := a.memSessions.Sweep(ctx); n > 0 {
				a.log.Info("swept expired sessions", zap.Int("removed", n))
			}
			return nil
		},
	})
}
