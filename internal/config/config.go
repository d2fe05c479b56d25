package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL             string
	DatabasePath          string
	RedisURL              string
	ServerPort            string
	SecureStorePath       string
	SecureStorePassphrase string
	SyncMaxAttempts       int
	SyncBaseDelay         time.Duration
	CacheTTL              time.Duration
}

func Load() *Config {
	// Load .env file if exists
	godotenv.Load()

	return &Config{
		ServerURL:             getEnv("SERVER_URL", "http://localhost:5000"),
		DatabasePath:          getEnv("DATABASE_PATH", "pos_app.db"),
		RedisURL:              getEnv("REDIS_URL", ""),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		SecureStorePath:       getEnv("SECURE_STORE_PATH", "pos_secure.bin"),
		SecureStorePassphrase: getEnv("SECURE_STORE_PASSPHRASE", "pos_sync_device_key"),
		SyncMaxAttempts:       getEnvAsInt("SYNC_MAX_ATTEMPTS", 3),
		SyncBaseDelay:         time.Duration(getEnvAsInt("SYNC_BASE_DELAY_MS", 1000)) * time.Millisecond,
		CacheTTL:              time.Duration(getEnvAsInt("CACHE_TTL", 1800)) * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
