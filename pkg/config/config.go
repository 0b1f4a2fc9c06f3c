package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/yourorg/todoapi/internal/security/auth"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// AuthSecret signs auth tokens; AuthTokenTTLSeconds is the absolute
	// expiry window encoded into each token.
	AuthSecret          string
	AuthTokenTTLSeconds int
	HashParams          auth.HashParams

	RateLimitPerMinute int

	// SeedDefaultUser registers SeedUsername/SeedPassword on startup,
	// ignoring the duplicate-user error when the account already exists.
	SeedDefaultUser bool
	SeedUsername    string
	SeedPassword    string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	tokenTTL, err := strconv.Atoi(getEnv("AUTH_TOKEN_TTL_SECONDS", "3600"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_TOKEN_TTL_SECONDS: %w", err)
	}

	hashMemory, err := strconv.Atoi(getEnv("HASH_MEMORY_KIB", "65536"))
	if err != nil {
		return nil, fmt.Errorf("invalid HASH_MEMORY_KIB: %w", err)
	}

	hashIterations, err := strconv.Atoi(getEnv("HASH_ITERATIONS", "1"))
	if err != nil {
		return nil, fmt.Errorf("invalid HASH_ITERATIONS: %w", err)
	}

	hashParallelism, err := strconv.Atoi(getEnv("HASH_PARALLELISM", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid HASH_PARALLELISM: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	environment := getEnv("ENVIRONMENT", "development")

	return &Config{
		Environment: environment,
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "todoapi"),
		DBPassword: getEnv("DB_PASSWORD", "dev"),
		DBName:     getEnv("DB_NAME", "todoapi"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthSecret:          getEnv("AUTH_SECRET", "change-me-in-production"),
		AuthTokenTTLSeconds: tokenTTL,
		HashParams: auth.HashParams{
			Memory:      uint32(hashMemory),
			Iterations:  uint32(hashIterations),
			Parallelism: uint8(hashParallelism),
			SaltLength:  16,
			KeyLength:   32,
		},

		RateLimitPerMinute: rateLimit,

		SeedDefaultUser: getEnv("SEED_DEFAULT_USER", boolDefault(environment)) == "true",
		SeedUsername:    getEnv("SEED_USERNAME", "username"),
		SeedPassword:    getEnv("SEED_PASSWORD", "password"),
	}, nil
}

// Seeding is on by default outside production.
func boolDefault(environment string) string {
	if environment == "production" {
		return "false"
	}
	return "true"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
