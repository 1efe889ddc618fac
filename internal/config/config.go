// Package config содержит логику чтения конфигурации сервиса оформления заказа.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultLogLevel   = "info"
	defaultSessionTTL = 24 * time.Hour
	defaultCitiesTTL  = time.Hour
	defaultReceiptTTL = time.Hour
)

// Config содержит параметры конфигурации сервиса оформления заказа.
type Config struct {
	RunAddress        string        `env:"RUN_ADDRESS"`
	DatabaseURI       string        `env:"DATABASE_URI"`
	StorefrontAddress string        `env:"STOREFRONT_ADDRESS"`
	RedisAddress      string        `env:"REDIS_ADDRESS"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	LogLevel          string        `env:"LOG_LEVEL"`
	SessionTTL        time.Duration `env:"SESSION_TTL"`
	CitiesCacheTTL    time.Duration `env:"CITIES_CACHE_TTL"`
	ReceiptTTL        time.Duration `env:"RECEIPT_TTL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	envCfg := Config{}
	if err := env.Parse(&envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StorefrontAddress, "s", "", "storefront API address")
	flag.StringVar(&cfg.RedisAddress, "c", "", "redis address for the cities cache")
	flag.StringVar(&cfg.SessionSecret, "k", "", "session cookie signing key")
	flag.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
	flag.DurationVar(&cfg.SessionTTL, "t", defaultSessionTTL, "session lifetime")
	flag.DurationVar(&cfg.CitiesCacheTTL, "ct", defaultCitiesTTL, "cities cache lifetime")
	flag.DurationVar(&cfg.ReceiptTTL, "rt", defaultReceiptTTL, "lifetime of a receipt that was not downloaded")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.StorefrontAddress != "" {
		cfg.StorefrontAddress = envCfg.StorefrontAddress
	}
	if envCfg.RedisAddress != "" {
		cfg.RedisAddress = envCfg.RedisAddress
	}
	if envCfg.SessionSecret != "" {
		cfg.SessionSecret = envCfg.SessionSecret
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}
	if envCfg.SessionTTL > 0 {
		cfg.SessionTTL = envCfg.SessionTTL
	}
	if envCfg.CitiesCacheTTL > 0 {
		cfg.CitiesCacheTTL = envCfg.CitiesCacheTTL
	}
	if envCfg.ReceiptTTL > 0 {
		cfg.ReceiptTTL = envCfg.ReceiptTTL
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.ReceiptTTL <= 0 {
		cfg.ReceiptTTL = defaultReceiptTTL
	}

	return cfg, nil
}
