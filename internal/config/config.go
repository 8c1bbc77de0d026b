package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort  string
	AppEnv      string
	LogLevel    string
	DBDriver    string
	DBDSN       string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	JWTSecret   string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	SwaggerHost string

	// ResetDB drops every table before migrating.
	ResetDB bool
	// SeedOnStart loads the fixture catalog when the categories table is empty.
	SeedOnStart bool
	// StrictStatusTransitions enforces the order lifecycle on admin status updates.
	StrictStatusTransitions bool
}

const defaultMySQLDSN = "user:password@tcp(localhost:3306)/storefront?charset=utf8mb4&parseTime=True&loc=Local"

// Load builds Config from environment with sensible defaults.
func Load() *Config {
	return &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		AppEnv:                  getEnv("APP_ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DBDriver:                getEnv("DB_DRIVER", "mysql"),
		DBDSN:                   getEnv("DB_DSN", getEnv("MYSQL_DSN", defaultMySQLDSN)),
		RedisAddr:               getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		RedisPass:               os.Getenv("REDIS_PASSWORD"),
		JWTSecret:               getEnv("JWT_SECRET", "change-me"),
		AccessTTL:               getEnvDuration("JWT_ACCESS_TTL", 24*time.Hour),
		RefreshTTL:              getEnvDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
		SwaggerHost:             os.Getenv("SWAGGER_HOST"),
		ResetDB:                 getEnvBool("RESET_DB", false),
		SeedOnStart:             getEnvBool("SEED_ON_START", false),
		StrictStatusTransitions: getEnvBool("ORDER_STRICT_TRANSITIONS", true),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return def
}
