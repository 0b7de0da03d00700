package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Backend types selectable for the order book
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Kafka producer clients selectable for trade publication
const (
	ProducerSarama  = "sarama"
	ProducerSegment = "segment"
)

// Config represents the engine daemon configuration
type Config struct {
	Symbol  string
	Backend string

	LogLevel  string
	LogFormat string

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Kafka struct {
		Brokers     string
		OrdersTopic string
		TradesTopic string
		GroupID     string
		Producer    string
	}

	Otel struct {
		Endpoint string
		Enabled  bool
	}
}

// LoadConfig loads configuration from environment variables, with an
// optional YAML file pointed at by MATCHCORE_CONFIG.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("MATCHCORE_SYMBOL", "BTC-USDT")
	v.SetDefault("MATCHCORE_BACKEND", BackendMemory)
	v.SetDefault("MATCHCORE_LOG_LEVEL", "info")
	v.SetDefault("MATCHCORE_LOG_FORMAT", "json")
	v.SetDefault("MATCHCORE_REDIS_ADDR", "localhost:6379")
	v.SetDefault("MATCHCORE_REDIS_PASSWORD", "")
	v.SetDefault("MATCHCORE_REDIS_DB", 0)
	v.SetDefault("MATCHCORE_KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("MATCHCORE_KAFKA_ORDERS_TOPIC", "orders-in")
	v.SetDefault("MATCHCORE_KAFKA_TRADES_TOPIC", "match-results")
	v.SetDefault("MATCHCORE_KAFKA_GROUP_ID", "matchcore-engine")
	v.SetDefault("MATCHCORE_KAFKA_PRODUCER", ProducerSarama)
	v.SetDefault("MATCHCORE_OTEL_ENDPOINT", "localhost:4317")
	v.SetDefault("MATCHCORE_OTEL_ENABLED", false)

	v.AutomaticEnv()

	if file := v.GetString("MATCHCORE_CONFIG"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		Symbol:    v.GetString("MATCHCORE_SYMBOL"),
		Backend:   v.GetString("MATCHCORE_BACKEND"),
		LogLevel:  v.GetString("MATCHCORE_LOG_LEVEL"),
		LogFormat: v.GetString("MATCHCORE_LOG_FORMAT"),
	}
	cfg.Redis.Addr = v.GetString("MATCHCORE_REDIS_ADDR")
	cfg.Redis.Password = v.GetString("MATCHCORE_REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("MATCHCORE_REDIS_DB")
	cfg.Kafka.Brokers = v.GetString("MATCHCORE_KAFKA_BROKERS")
	cfg.Kafka.OrdersTopic = v.GetString("MATCHCORE_KAFKA_ORDERS_TOPIC")
	cfg.Kafka.TradesTopic = v.GetString("MATCHCORE_KAFKA_TRADES_TOPIC")
	cfg.Kafka.GroupID = v.GetString("MATCHCORE_KAFKA_GROUP_ID")
	cfg.Kafka.Producer = v.GetString("MATCHCORE_KAFKA_PRODUCER")
	cfg.Otel.Endpoint = v.GetString("MATCHCORE_OTEL_ENDPOINT")
	cfg.Otel.Enabled = v.GetBool("MATCHCORE_OTEL_ENABLED")

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Symbol == "" {
		return fmt.Errorf("MATCHCORE_SYMBOL must not be empty")
	}
	if cfg.Backend != BackendMemory && cfg.Backend != BackendRedis {
		return fmt.Errorf("MATCHCORE_BACKEND must be %q or %q", BackendMemory, BackendRedis)
	}
	if cfg.Kafka.Brokers == "" {
		return fmt.Errorf("MATCHCORE_KAFKA_BROKERS must not be empty")
	}
	if cfg.Kafka.Producer != ProducerSarama && cfg.Kafka.Producer != ProducerSegment {
		return fmt.Errorf("MATCHCORE_KAFKA_PRODUCER must be %q or %q", ProducerSarama, ProducerSegment)
	}
	return nil
}
