// Package config provides centralized default values for Pressroom
package config

import (
	"bufio"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var envLoaded sync.Once

func loadEnvFile() {
	envLoaded.Do(func() {
		file, err := os.Open(".env")
		if err != nil {
			return
		}
		defer file.Close()

		log.Println("Loading configuration overrides from .env file...")
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())

			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}

			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])

			if os.Getenv(key) == "" {
				os.Setenv(key, value)
			}
		}
	})
}

func getEnvInt(key string, defaultValue int) int {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.Atoi(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%d (default: %d)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvString(key string, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		if val != defaultValue {
			log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
		}
		return val
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := strconv.ParseFloat(valStr, 64); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%f (default: %f)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if valStr := os.Getenv(key); valStr != "" {
		if val, err := time.ParseDuration(valStr); err == nil {
			if val != defaultValue {
				log.Printf("Config override: %s=%s (default: %s)", key, val, defaultValue)
			}
			return val
		}
	}
	return defaultValue
}

var (
	// Server Configuration
	Port               string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration

	// Database Configuration
	DBDriver string
	DBPath   string

	// Database Pool
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeMinutes int

	// TTL Configuration
	DefaultCacheTTL  time.Duration
	PostsPublicTTL   time.Duration
	PostsPreviewTTL  time.Duration
	AdPositionTTL    time.Duration
	FlagCacheTTL     time.Duration
	AnalyticsLiveTTL time.Duration
	AnalyticsPastTTL time.Duration

	// Ad Placement Configuration
	InternalAdProbability float64
	MaxAdsPerPage         int

	// Admin Authentication
	AdminPasswordHash string
	JWTSecret         string
	AdminTokenTTL     time.Duration

	// Feature Flags
	FlagsFilePath string

	// Media
	CreativesBasePath string

	// Observability
	SlowQueryThreshold time.Duration
)

func init() {
	loadEnvFile()

	// Server Configuration
	Port = getEnvString("PORT", "8080")
	ServerReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	ServerWriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	ServerIdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	// Database Configuration
	DBDriver = getEnvString("DB_DRIVER", "sqlite3")
	DBPath = getEnvString("DB_PATH", "pressroom.db")

	// Database Pool
	DBMaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 10)
	DBMaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 3)
	DBConnMaxLifetimeMinutes = getEnvInt("DB_CONN_MAX_LIFETIME_MINUTES", 30)

	// TTL Configuration
	DefaultCacheTTL = getEnvDuration("DEFAULT_CACHE_TTL", time.Hour)
	PostsPublicTTL = getEnvDuration("POSTS_PUBLIC_TTL", time.Hour)
	PostsPreviewTTL = getEnvDuration("POSTS_PREVIEW_TTL", 0)
	AdPositionTTL = getEnvDuration("AD_POSITION_TTL", time.Hour)
	FlagCacheTTL = getEnvDuration("FLAG_CACHE_TTL", 60*time.Second)
	AnalyticsLiveTTL = getEnvDuration("ANALYTICS_LIVE_TTL", 30*time.Minute)
	AnalyticsPastTTL = getEnvDuration("ANALYTICS_PAST_TTL", 4*time.Hour)

	// Ad Placement
	InternalAdProbability = getEnvFloat("INTERNAL_AD_PROBABILITY", 0.7)
	MaxAdsPerPage = getEnvInt("MAX_ADS_PER_PAGE", 3)

	// Admin Authentication
	AdminPasswordHash = getEnvString("ADMIN_PASSWORD_HASH", "")
	JWTSecret = getEnvString("JWT_SECRET", "")
	AdminTokenTTL = getEnvDuration("ADMIN_TOKEN_TTL", 24*time.Hour)

	// Feature Flags
	FlagsFilePath = getEnvString("FLAGS_FILE_PATH", "")

	// Media
	CreativesBasePath = getEnvString("CREATIVES_BASE_PATH", "media/creatives")

	// Observability
	SlowQueryThreshold = getEnvDuration("SLOW_QUERY_THRESHOLD", 100*time.Millisecond)
}
