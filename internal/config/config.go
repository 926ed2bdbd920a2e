// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/osse101/playerledger/internal/logger"
)

// Config holds the ledger server configuration
type Config struct {
	Port        int    `env:"PORT" envDefault:"8080" validate:"gt=0,lte=65535"`
	Environment string `env:"ENVIRONMENT" envDefault:"dev"`
	Backend     string `env:"LEDGER_BACKEND" envDefault:"postgres" validate:"oneof=postgres memory"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	LogFile   string `env:"LOG_FILE"`

	DBUser         string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword     string        `env:"DB_PASSWORD" envDefault:"postgres"`
	DBHost         string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort         string        `env:"DB_PORT" envDefault:"5432"`
	DBName         string        `env:"DB_NAME" envDefault:"ledger"`
	DBMaxConns     int           `env:"DB_MAX_CONNS" envDefault:"20" validate:"gt=0"`
	DBMaxIdleTime  time.Duration `env:"DB_MAX_IDLE_TIME" envDefault:"5m"`
	DBMaxLifetime  time.Duration `env:"DB_MAX_LIFETIME" envDefault:"30m"`
	RetryAttempts  int           `env:"LEDGER_RETRY_ATTEMPTS" envDefault:"5" validate:"gte=1"`
	CatalogPath    string        `env:"LEDGER_CATALOG"`
	TimeZone       string        `env:"LEDGER_TIMEZONE" envDefault:"UTC"`
	APIKey         string        `env:"API_KEY"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"2h"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","`
	AccountRate    float64       `env:"RPC_ACCOUNT_RATE" envDefault:"20" validate:"gt=0"`
	AccountBurst   int           `env:"RPC_ACCOUNT_BURST" envDefault:"40" validate:"gt=0"`
	MaxBodyBytes   int64         `env:"RPC_MAX_BODY_BYTES" envDefault:"1048576" validate:"gt=0"`
}

// ClientConfig holds the game client configuration
type ClientConfig struct {
	ServerURL string `env:"LEDGER_SERVER_URL" envDefault:"http://localhost:8080" validate:"url"`
	APIKey    string `env:"API_KEY" validate:"required_without=NakamaServerKey"`
	AccountID string `env:"LEDGER_ACCOUNT_ID" validate:"required"`
	// NakamaServerKey switches to Nakama custom authentication with AccountID as the custom id.
	NakamaServerKey string        `env:"NAKAMA_SERVER_KEY"`
	LocalDBPath     string        `env:"LEDGER_LOCAL_DB" envDefault:"ledger.db"`
	CatalogPath     string        `env:"LEDGER_CATALOG"`
	TimeZone        string        `env:"LEDGER_TIMEZONE" envDefault:"UTC"`
	Timeout         time.Duration `env:"LEDGER_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Load loads the server configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgParseEnv, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadClient loads the client configuration from environment variables
func LoadClient() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[ClientConfig]()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgParseEnv, err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidConfig, err)
	}
	if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidTimeZone, err)
	}
	return &cfg, nil
}

// Validate checks field constraints and the security-relevant settings.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgInvalidConfig, err)
	}
	if c.APIKey == "" {
		return errors.New(ErrMsgAPIKeyRequired)
	}
	if len(c.SessionSecret) < 16 {
		return errors.New(ErrMsgSecretTooShort)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the time zone civil days are counted in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidTimeZone, err)
	}
	return loc, nil
}

// Location returns the time zone the client counts civil days in.
func (c *ClientConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgInvalidTimeZone, err)
	}
	return loc, nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// Logger returns the logger configuration for this environment.
func (c *Config) Logger() logger.Config {
	lc := logger.DevelopmentConfig()
	if c.Environment == logger.EnvironmentProduction {
		lc = logger.ProductionConfig()
	}
	lc.Level = c.LogLevel
	lc.Format = c.LogFormat
	lc.Environment = c.Environment
	lc.File = c.LogFile
	return lc
}
