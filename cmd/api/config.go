package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/wms-platform/fulfillment-service/internal/application"
	"github.com/wms-platform/fulfillment-service/internal/infrastructure/redis"
	"github.com/wms-platform/fulfillment-service/pkg/kafka"
	"github.com/wms-platform/fulfillment-service/pkg/mongodb"
)

// Storage drivers
const (
	StorageMongo  = "mongodb"
	StorageMemory = "memory"
)

// Config holds application configuration
type Config struct {
	ServerAddr    string
	StorageDriver string
	MongoDB       *mongodb.Config
	Kafka         *kafka.Config
	// Redis is nil when REDIS_ADDR is unset; manifest locks are then local
	Redis       *redis.Config
	LockTTL     time.Duration
	UnitPenalty decimal.Decimal
}

// loadConfig reads the environment, after merging a .env file when present
func loadConfig() (*Config, error) {
	_ = godotenv.Load()

	lockTTL, err := time.ParseDuration(getEnv("LOCK_TTL", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCK_TTL: %w", err)
	}
	penalty := application.DefaultUnitPenalty
	if raw := os.Getenv("EXCEPTION_UNIT_PENALTY"); raw != "" {
		if penalty, err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("invalid EXCEPTION_UNIT_PENALTY: %w", err)
		}
		if penalty.IsNegative() {
			return nil, fmt.Errorf("invalid EXCEPTION_UNIT_PENALTY: %s is negative", raw)
		}
	}

	driver := strings.ToLower(getEnv("STORAGE_DRIVER", StorageMongo))
	if driver != StorageMongo && driver != StorageMemory {
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q", driver)
	}

	mongoCfg := mongodb.DefaultConfig()
	mongoCfg.URI = getEnv("MONGODB_URI", mongoCfg.URI)
	mongoCfg.Database = getEnv("MONGODB_DATABASE", "fulfillment_db")

	kafkaCfg := kafka.DefaultConfig()
	kafkaCfg.Brokers = strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	kafkaCfg.ClientID = serviceName

	cfg := &Config{
		ServerAddr:    getEnv("SERVER_ADDR", ":8080"),
		StorageDriver: driver,
		MongoDB:       mongoCfg,
		Kafka:         kafkaCfg,
		LockTTL:       lockTTL,
		UnitPenalty:   penalty,
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.Redis = &redis.Config{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       db,
		}
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
