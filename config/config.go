package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPPort string `envconfig:"HTTP_PORT" default:":8081"`
	GrpcPort string `envconfig:"GRPC_PORT" default:":50051"` // gRPC health port
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE"`

	StoreDriver  string        `envconfig:"STORE_DRIVER"  default:"bolt"`
	DatabaseURL  string        `envconfig:"DATABASE_URL"`
	RedisURL     string        `envconfig:"REDIS_URL"`
	BoltPath     string        `envconfig:"BOLT_PATH"     default:"products.db"`
	StoreTimeout time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`

	SaveRedirectDelay time.Duration `envconfig:"SAVE_REDIRECT_DELAY" default:"1500ms"`
	SaveRedirectPath  string        `envconfig:"SAVE_REDIRECT_PATH"  default:"/dashboard/view-product"`

	SessionIdleTimeout   time.Duration `envconfig:"SESSION_IDLE_TIMEOUT"   default:"30m"`
	SessionSweepSchedule string        `envconfig:"SESSION_SWEEP_SCHEDULE" default:"@every 1m"`
}

var (
	config Config
	once   sync.Once
)

// Load reads the configuration from the environment without caching it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration from environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the selected store driver depends on.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("configuration error: DATABASE_URL is required for store driver %q", c.StoreDriver)
		}
	case DriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("configuration error: REDIS_URL is required for store driver %q", c.StoreDriver)
		}
	case DriverBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("configuration error: BOLT_PATH is required for store driver %q", c.StoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("configuration error: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.SaveRedirectDelay < 0 {
		return fmt.Errorf("configuration error: SAVE_REDIRECT_DELAY must not be negative")
	}
	return nil
}

func LoadConfig(logger *logrus.Logger) *Config {
	once.Do(func() {
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			logger.Warnf("Error loading .env file (but continuing): %v", err)
		} else if err == nil {
			logger.Info("Loaded configuration from .env file")
		}

		cfg, err := Load()
		if err != nil {
			logger.Fatalf("%v", err)
		}
		config = *cfg

		logger.Infof("Configuration loaded: HTTP Port=%s, GRPC Port=%s, LogLevel=%s, StoreDriver=%s",
			config.HTTPPort, config.GrpcPort, config.LogLevel, config.StoreDriver)
	})
	return &config
}
