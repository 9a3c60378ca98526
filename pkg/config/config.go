package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var Empty = new(Config)

type Config struct {
	AppEnv       string `envconfig:"APP_ENV"`
	Port         int    `envconfig:"PORT" default:"3000"`
	SentryDSN    string `envconfig:"SENTRY_DSN"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS"`

	DB struct {
		// Driver selects the user/session store: postgres or dynamodb.
		// Movies and people are always read from postgres.
		Driver    string `envconfig:"DB_DRIVER" default:"postgres"`
		Name      string `envconfig:"DB_NAME"`
		Host      string `envconfig:"DB_HOST"`
		Port      int    `envconfig:"DB_PORT"`
		User      string `envconfig:"DB_USER"`
		Pass      string `envconfig:"DB_PASS"`
		EnableSSL bool   `envconfig:"ENABLE_SSL"`
	}
	DynamoDB struct {
		Region             string `envconfig:"DDB_REGION"`
		Endpoint           string `envconfig:"DDB_ENDPOINT"`
		AccessKey          string `envconfig:"DDB_ACCESS_KEY"`
		SecretKey          string `envconfig:"DDB_SECRET_KEY"`
		SessionToken       string `envconfig:"DDB_SESSION_TOKEN"`
		UsersTable         string `envconfig:"DDB_USERS_TABLE" default:"users"`
		LoginAttemptsTable string `envconfig:"DDB_LOGIN_ATTEMPTS_TABLE" default:"login_attempts"`
	}
	Redis struct {
		URL string `envconfig:"REDIS_URL"`
		// CacheTTL is in seconds; 0 keeps entries until evicted.
		CacheTTL int `envconfig:"CACHE_TTL_SECONDS" default:"3600"`
	}
	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
		// TTLs are in seconds.
		BearerTTL        int `envconfig:"AUTH_BEARER_TTL" default:"600"`
		RefreshTTL       int `envconfig:"AUTH_REFRESH_TTL" default:"86400"`
		LongTTL          int `envconfig:"AUTH_LONG_TTL" default:"31536000"`
		MaxLoginAttempts int `envconfig:"AUTH_MAX_LOGIN_ATTEMPTS" default:"5"`
		LockMinutes      int `envconfig:"AUTH_LOCK_MINUTES" default:"15"`
	}
}

func LoadConfig() (*Config, error) {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	cfg := new(Config)
	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("load config error: %v", err)
	}

	return cfg, nil
}
