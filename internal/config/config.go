package config

import (
	"os"
	"strconv"
	"time"

	"cinebook/internal/cache"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/messaging"
)

// Config holds the application configuration
type Config struct {
	Port      string
	GinMode   string
	LogLevel  string
	LogFormat string

	Database database.Config
	NATS     messaging.Config
	Redis    cache.Config
	Payment  external.PaymentConfig
	Notify   external.NotifyConfig
	Catalog  external.CatalogConfig

	Booking BookingPolicy
}

// BookingPolicy carries the policy values of the booking engine. Holds are
// authoritative server-side: the TTL here wins over any client countdown.
type BookingPolicy struct {
	HoldTTL          time.Duration
	SweepInterval    time.Duration
	CancelCutoff     time.Duration
	FullRefundWindow time.Duration
	PartialRefundPct int
	FeePerSeat       int64
	SeatMapCacheTTL  time.Duration
	IdempotencyTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8081"),
		GinMode:   getEnv("GIN_MODE", "debug"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "cinebook"),
			Password:           getEnv("DB_PASSWORD", "cinebook123"),
			DBName:             getEnv("DB_NAME", "cinebook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "cinebook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "cinebook-api"),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Payment: external.PaymentConfig{
			BaseURL:     getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090/payment"),
			MerchantID:  getEnv("PAYMENT_MERCHANT_ID", ""),
			Password:    getEnv("PAYMENT_PASSWORD", ""),
			Timeout:     time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
			Currency:    getEnv("PAYMENT_CURRENCY", "USD"),
			Description: getEnv("PAYMENT_DESCRIPTION", "Cinema tickets"),
		},

		Notify: external.NotifyConfig{
			BaseURL: getEnv("NOTIFY_SERVICE_URL", "http://localhost:9091/notify"),
			Timeout: time.Duration(getEnvInt("NOTIFY_TIMEOUT_SEC", 10)) * time.Second,
		},

		Catalog: external.CatalogConfig{
			BaseURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:9092/catalog"),
			Timeout: time.Duration(getEnvInt("CATALOG_TIMEOUT_SEC", 30)) * time.Second,
		},

		Booking: BookingPolicy{
			HoldTTL:          time.Duration(getEnvInt("HOLD_TTL_MIN", 10)) * time.Minute,
			SweepInterval:    time.Duration(getEnvInt("HOLD_SWEEP_INTERVAL_SEC", 30)) * time.Second,
			CancelCutoff:     time.Duration(getEnvInt("CANCEL_CUTOFF_HOURS", 2)) * time.Hour,
			FullRefundWindow: time.Duration(getEnvInt("FULL_REFUND_WINDOW_HOURS", 24)) * time.Hour,
			PartialRefundPct: getEnvInt("PARTIAL_REFUND_PERCENT", 50),
			FeePerSeat:       int64(getEnvInt("CONVENIENCE_FEE_PER_SEAT", 50)),
			SeatMapCacheTTL:  time.Duration(getEnvInt("SEATMAP_CACHE_TTL_SEC", 5)) * time.Second,
			IdempotencyTTL:   time.Duration(getEnvInt("IDEMPOTENCY_TTL_MIN", 60)) * time.Minute,
		},
	}
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
