// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment
type Config struct {
	Env     string `env:"ENV" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`
	BaseURL string `env:"BASE_URL"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBHost      string `env:"DB_HOST"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	CartStore      string        `env:"CART_STORE" envDefault:"sqlite"`
	CartSQLitePath string        `env:"CART_SQLITE_PATH" envDefault:"data/carts.db"`
	CartIdleTime   time.Duration `env:"CART_IDLE_TIMEOUT" envDefault:"30m"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE" envDefault:"orders"`

	AdminEmail    string        `env:"ADMIN_EMAIL" envDefault:"admin@boulangerie.com"`
	AdminPassword string        `env:"ADMIN_PASSWORD" envDefault:"admin123"`
	JWTSecret     string        `env:"JWT_SECRET"`
	TokenTTL      time.Duration `env:"ADMIN_TOKEN_TTL" envDefault:"12h"`

	NotifyInterval time.Duration `env:"NOTIFY_INTERVAL" envDefault:"30s"`
	ImageCacheDir  string        `env:"IMAGE_CACHE_DIR" envDefault:"cache/images"`
	ChromePath     string        `env:"CHROME_PATH"`
}

// LoadDotEnv loads .env in non-production environments. Values in .env
// override the process environment. A missing file is not an error.
func LoadDotEnv(path string) (bool, error) {
	if os.Getenv("ENV") == "production" {
		return false, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := godotenv.Overload(path); err != nil {
		return false, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return true, nil
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Port = strings.TrimPrefix(cfg.Port, ":")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that have no safe default
func (c *Config) Validate() error {
	switch c.CartStore {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("CART_STORE must be memory or sqlite, got %q", c.CartStore)
	}
	if c.Env == "production" && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.NotifyInterval <= 0 {
		return fmt.Errorf("NOTIFY_INTERVAL must be positive")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, built from the DB_* parts
// when DATABASE_URL is not set.
func (c *Config) DSN() (string, error) {
	if c.DatabaseURL != "" {
		return c.DatabaseURL, nil
	}
	if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
		return "", fmt.Errorf("database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME")
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode), nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}
