package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	// App environment: local, dev or prod
	Env string

	// Server
	HTTPPort string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers       []string
	KafkaTopic         string
	KafkaConsumerGroup string
	KafkaBatchSize     int
	KafkaBatchTimeout  int // milliseconds

	// ClickHouse
	ClickhouseUsername string
	ClickhousePassword string
	ClickhouseAddr     string
	ClickhouseTimeout  int

	// Document store
	DataDir string

	// Upstream message filter: only messages from this bot in this channel
	// are inspected for donations. Empty disables the filter.
	SourceBotID     string
	SourceChannelID string

	// Ledger settings
	SweepIntervalMinutes int
	EventBufferSize      int
	Debug                bool
}

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	// Load .env file if present; environment variables win otherwise
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := &Config{
		Env: getEnv("APP_ENV", "local"),

		// Server
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Kafka. No brokers means no Kafka: events flow through the
		// in-process channel instead.
		KafkaBrokers:       getEnvAsSlice("KAFKA_BROKERS", nil, ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "chat-events"),
		KafkaConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "celestialsword-group"),
		KafkaBatchSize:     getEnvAsInt("KAFKA_BATCH_SIZE", 500),
		KafkaBatchTimeout:  getEnvAsInt("KAFKA_BATCH_TIMEOUT", 3000),

		// ClickHouse
		ClickhouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickhousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickhouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickhouseTimeout:  getEnvAsInt("CLICKHOUSE_TIMEOUT", 10),

		// Document store
		DataDir: getEnv("DATA_DIR", "data"),

		// Upstream filter
		SourceBotID:     getEnv("SOURCE_BOT_ID", ""),
		SourceChannelID: getEnv("SOURCE_CHANNEL_ID", ""),

		// Ledger settings
		SweepIntervalMinutes: getEnvAsInt("SWEEP_INTERVAL_MINUTES", 60),
		EventBufferSize:      getEnvAsInt("EVENT_BUFFER_SIZE", 10000),
		Debug:                getEnvAsBool("DEBUG", false),
	}

	return cfg
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}
