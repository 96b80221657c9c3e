package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Port                string
	JWTSecret           string
	JWTAccessExpiration time.Duration
	FrontendURL         string
	MongoDBURI          string
	MongoDBDatabase     string
	MongoDBTransactions bool
	RedisURL            string
	BoardLockTTL        time.Duration
	BoardLockWait       time.Duration
	AuditTimeout        time.Duration
	AuditTicketAlias    bool
	RateLimitRPS        float64
	RateLimitBurst      int
	LogLevel            string
}

func Load() *Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	return &Config{
		Port:                getEnv("PORT", "8080"),
		JWTSecret:           getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiration: getDuration("JWT_ACCESS_EXPIRATION", 15*time.Minute),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		MongoDBURI:          getEnv("MONGODB_URI", ""),
		MongoDBDatabase:     getEnv("MONGODB_DATABASE", "taskboard"),
		MongoDBTransactions: getBool("MONGODB_TRANSACTIONS", true),
		RedisURL:            getEnv("REDIS_URL", ""),
		BoardLockTTL:        getDuration("BOARD_LOCK_TTL", 10*time.Second),
		BoardLockWait:       getDuration("BOARD_LOCK_WAIT", 3*time.Second),
		AuditTimeout:        getDuration("AUDIT_TIMEOUT", 2*time.Second),
		AuditTicketAlias:    getBool("AUDIT_TICKET_ALIAS", false),
		RateLimitRPS:        getFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:      getInt("RATE_LIMIT_BURST", 40),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

func getBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}

func getInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}

func getFloat(key string, defaultValue float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || f <= 0 {
		return defaultValue
	}
	return f
}
