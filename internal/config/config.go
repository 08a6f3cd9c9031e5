package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	JWTSecret  string

	// Reservation holds last this long after the latest cart mutation.
	ReservationTTL time.Duration
	RequestTimeout time.Duration

	RedisAddr      string
	IdempotencyTTL time.Duration

	KafkaBrokers   []string
	OrderTopic     string
	OutboxInterval time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		AppPort:    getEnv("APP_PORT", "8080"),
		AppEnv:     getEnv("APP_ENV", "development"),
		JWTSecret:  os.Getenv("JWT_SECRET"),

		ReservationTTL: getDuration("RESERVATION_TTL", 15*time.Minute),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 5*time.Second),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: getDuration("IDEMPOTENCY_TTL", 24*time.Hour),

		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:     getEnv("ORDER_TOPIC", "storefront.orders"),
		OutboxInterval: getDuration("OUTBOX_INTERVAL", time.Second),

		RateLimitPerSecond: getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 20),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %g", key, v, fallback)
		return fallback
	}
	return f
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
