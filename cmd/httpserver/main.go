package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moviedb/auth"
	"moviedb/dynamodb"
	"moviedb/httpserver"
	"moviedb/movie"
	"moviedb/person"
	"moviedb/pkg/config"
	"moviedb/pkg/jwt"
	"moviedb/pkg/logger"
	"moviedb/pkg/password"
	"moviedb/pkg/sentry"
	"moviedb/postgres"
	"moviedb/redis"
	"moviedb/user"

	sentrygo "github.com/getsentry/sentry-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

// userStore is what both the user and auth usecases need from storage.
type userStore interface {
	user.Repository
	auth.UserRepository
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot init logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	err = sentrygo.Init(sentrygo.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.AppEnv,
		AttachStacktrace: true,
	})
	if err != nil {
		log.Fatalw("cannot init sentry", zap.Error(err))
	}
	defer sentrygo.Flush(sentry.FlushTime)

	if err := run(cfg, log); err != nil {
		log.Errorw("server stopped with error", zap.Error(err))
		sentry.Fatal(err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewConnection(postgres.Options{
		DBName:     cfg.DB.Name,
		DBUser:     cfg.DB.User,
		Password:   cfg.DB.Pass,
		Host:       cfg.DB.Host,
		Port:       fmt.Sprintf("%d", cfg.DB.Port),
		SSLMode:    cfg.DB.EnableSSL,
		LogQueries: cfg.AppEnv == "local",
	})
	if err != nil {
		return fmt.Errorf("open postgres connection: %w", err)
	}

	users, attempts, err := newUserStores(ctx, cfg, db)
	if err != nil {
		return err
	}

	movies := movie.NewUsecase(postgres.NewMovieRepository(db))
	people := person.NewUsecase(postgres.NewPersonRepository(db))
	if cfg.Redis.URL != "" {
		cache, err := redis.New(ctx, cfg.Redis.URL, time.Duration(cfg.Redis.CacheTTL)*time.Second, log)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer cache.Close()
		movies.WithCache(cache)
		people.WithCache(cache)
		log.Infow("read cache enabled", "ttl_seconds", cfg.Redis.CacheTTL)
	}

	hasher := password.NewBcrypt()
	tokens := jwt.NewJWTProvider(cfg.Auth.JWTSecret)
	authCfg := auth.Config{
		BearerTTL:        time.Duration(cfg.Auth.BearerTTL) * time.Second,
		RefreshTTL:       time.Duration(cfg.Auth.RefreshTTL) * time.Second,
		LongTTL:          time.Duration(cfg.Auth.LongTTL) * time.Second,
		MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
		LockDuration:     time.Duration(cfg.Auth.LockMinutes) * time.Minute,
	}

	server, err := httpserver.New(
		httpserver.WithConfig(cfg),
		httpserver.WithLogger(log),
		httpserver.WithTokenVerifier(tokens),
		httpserver.WithMovieService(movies),
		httpserver.WithPersonService(people),
		httpserver.WithUserService(user.NewUsecase(users, hasher)),
		httpserver.WithAuthService(auth.NewUsecase(users, attempts, hasher, tokens, authCfg)),
	)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("server started", "addr", server.Addr, "user_store", cfg.DB.Driver)
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newUserStores picks where accounts, sessions and login attempts live.
func newUserStores(ctx context.Context, cfg *config.Config, db *gorm.DB) (userStore, auth.LoginAttemptRepository, error) {
	switch cfg.DB.Driver {
	case "", "postgres":
		return postgres.NewUserRepository(db), postgres.NewLoginAttemptRepository(db), nil
	case "dynamodb":
		client, err := dynamodb.NewClient(ctx, dynamodb.Options{
			Region:       cfg.DynamoDB.Region,
			Endpoint:     cfg.DynamoDB.Endpoint,
			AccessKey:    cfg.DynamoDB.AccessKey,
			SecretKey:    cfg.DynamoDB.SecretKey,
			SessionToken: cfg.DynamoDB.SessionToken,
		})
		if err != nil {
			return nil, nil, err
		}
		return dynamodb.NewUserRepository(client, cfg.DynamoDB.UsersTable),
			dynamodb.NewLoginAttemptRepository(client, cfg.DynamoDB.LoginAttemptsTable),
			nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DB.Driver)
	}
}
