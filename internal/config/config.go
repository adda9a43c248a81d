package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN           string `env:"DATABASE_DSN,required=true"`
	RedisURL              string `env:"REDIS_URL,required=true"`
	RabbitMQURL           string `env:"RABBITMQ_URL"`
	EventsExchange        string `env:"EVENTS_EXCHANGE,default=crm.opportunities"`
	InsertRateLimitPerSec int    `env:"INSERT_RATE_LIMIT_PER_SEC,default=20"`
	MaxBatchSize          int    `env:"MAX_BATCH_SIZE,default=50"`
	APIPort               int    `env:"API_PORT,default=8080"`
	LogLevel              string `env:"LOG_LEVEL,default=info"`
	ShutdownTimeoutSec    int    `env:"SHUTDOWN_TIMEOUT_SEC,default=10"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// EventsEnabled reports whether opportunity events go to a broker.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSec) * time.Second
}

func (c *Config) validate() error {
	if c.InsertRateLimitPerSec <= 0 {
		return fmt.Errorf("INSERT_RATE_LIMIT_PER_SEC must be positive, got %d", c.InsertRateLimitPerSec)
	}
	if c.MaxBatchSize <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", c.MaxBatchSize)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API_PORT must be a valid port, got %d", c.APIPort)
	}
	if c.ShutdownTimeoutSec <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SEC must be positive, got %d", c.ShutdownTimeoutSec)
	}
	return nil
}
