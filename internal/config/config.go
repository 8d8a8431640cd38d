package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN         string `env:"DATABASE_DSN,required=true"`
	RedisURL            string `env:"REDIS_URL,required=true"`
	DeliveryWebhookURL  string `env:"DELIVERY_WEBHOOK_URL"`
	Users               string `env:"USERS"`
	APIPort             int    `env:"API_PORT,default=8080"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
	TickIntervalSec     int    `env:"TICK_INTERVAL_SEC,default=60"`
	ResponseWindowSec   int    `env:"RESPONSE_WINDOW_SEC,default=30"`
	DispatchRatePerSec  int    `env:"DISPATCH_RATE_PER_SEC,default=100"`
	SnapshotIntervalSec int    `env:"SNAPSHOT_INTERVAL_SEC,default=300"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
