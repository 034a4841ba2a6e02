package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string

	MySQLDSN  string
	RedisAddr string

	KafkaBrokers     []string
	KafkaTopicStock  string
	KafkaTopicAlerts string
	KafkaRetries     int

	SweepInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	brokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		MySQLDSN:  getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/medstock?parseTime=true"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		KafkaBrokers:     brokers,
		KafkaTopicStock:  getEnv("KAFKA_TOPIC_STOCK", "medstock.stock"),
		KafkaTopicAlerts: getEnv("KAFKA_TOPIC_ALERTS", "medstock.alerts"),
		KafkaRetries:     getEnvAsInt("KAFKA_RETRIES", 3),

		SweepInterval: getEnvAsDuration("SWEEP_INTERVAL", 5*time.Minute),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return result
}
