package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	StoreDriver     string        `envconfig:"STORE_DRIVER"     default:"postgres"`
	DatabaseURL     string        `envconfig:"DATABASE_URL"`
	SQLitePath      string        `envconfig:"SQLITE_PATH"      default:"bluestorage.db"`
	HTTPPort        string        `envconfig:"HTTP_PORT"        default:":8081"`
	LogLevel        string        `envconfig:"LOG_LEVEL"        default:"info"`
	MinAmount       int           `envconfig:"MIN_AMOUNT"       default:"5"`
	MaxPerPage      int           `envconfig:"MAX_PER_PAGE"     default:"100"`
	StoreTimeout    time.Duration `envconfig:"STORE_TIMEOUT"    default:"5s"`
	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	CachePrefix     string        `envconfig:"CACHE_PREFIX"     default:"bluestorage:"`
	CacheTTL        time.Duration `envconfig:"CACHE_TTL"        default:"1m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

var (
	config Config
	once   sync.Once
)

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH must not be empty when STORE_DRIVER is sqlite")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be one of %s, %s, got %q", DriverPostgres, DriverSQLite, c.StoreDriver)
	}
	if c.MinAmount < 0 {
		return fmt.Errorf("MIN_AMOUNT must be non-negative, got %d", c.MinAmount)
	}
	if c.MaxPerPage < 0 {
		return fmt.Errorf("MAX_PER_PAGE must be non-negative, got %d", c.MaxPerPage)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// LoadConfig loads the configuration once and exits the process on error.
func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		cfg, err := Load()
		if err != nil {
			logger.Fatalf("Failed to load configuration: %v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: StoreDriver=%s, HTTP Port=%s, LogLevel=%s, MinAmount=%d, MaxPerPage=%d",
			config.StoreDriver, config.HTTPPort, config.LogLevel, config.MinAmount, config.MaxPerPage)
		if config.RedisAddr != "" {
			logger.Infof("Configuration loaded: search cache at %s", config.RedisAddr)
		} else {
			logger.Info("Configuration loaded: search cache disabled")
		}
	})
	return &config
}
