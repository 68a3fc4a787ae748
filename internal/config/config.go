package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPAddr     string   `envconfig:"HTTP_ADDR" default:":8080"`
	MySQLDSN     string   `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/shop?parseTime=true"`
	RedisAddr    string   `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"order.placed"`
	ServiceName  string   `envconfig:"SERVICE_NAME" default:"shop-backend"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}
