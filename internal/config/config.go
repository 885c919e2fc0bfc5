package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Booking      BookingConfig
	OTP          OTPConfig
	Jobs         JobsConfig
	Notification NotificationConfig
	CORS         CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// RedisConfig holds the expiring-key store configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BookingConfig holds the allocation engine's tunables. HoldWindow drives
// both the booking expiry timestamp and the seat lock TTL; keeping them the
// same duration is what lets the expiry sweeper reconcile the two.
type BookingConfig struct {
	HoldWindow        time.Duration // how long a PENDING booking keeps its seat
	MaxRetry          int           // bounded seat-selection retries per request
	TripDurationHours int           // vehicle reservation length
	MinPassengers     int           // confirm threshold at finalize time
	PreTripNotice     time.Duration // how far before departure trips are finalized
	MaxVehicles       int           // fleet size cap; allocation past it fails with NO_VEHICLE
}

// OTPConfig holds the one-time-code gate configuration
type OTPConfig struct {
	TTL time.Duration
}

// JobsConfig holds the sweep schedules (cron specs with seconds precision)
type JobsConfig struct {
	ExpirySweepSpec   string
	FinalizeSweepSpec string
}

// NotificationConfig holds the outbound notification gateway configuration
type NotificationConfig struct {
	Mode   string // "dev" logs instead of sending, "production" calls the gateway
	APIURL string
	APIKey string
	Sender string
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Booking: BookingConfig{
			HoldWindow:        time.Duration(getEnvAsInt("BOOKING_HOLD_SECONDS", 300)) * time.Second,
			MaxRetry:          getEnvAsInt("BOOKING_MAX_RETRY", 3),
			TripDurationHours: getEnvAsInt("TRIP_DURATION_HOURS", 5),
			MinPassengers:     getEnvAsInt("TRIP_MIN_PASSENGERS", 4),
			PreTripNotice:     time.Duration(getEnvAsInt("TRIP_PRE_NOTICE_HOURS", 3)) * time.Hour,
			MaxVehicles:       getEnvAsInt("BOOKING_MAX_VEHICLES", 10),
		},
		OTP: OTPConfig{
			TTL: time.Duration(getEnvAsInt("OTP_TTL_SECONDS", 300)) * time.Second,
		},
		Jobs: JobsConfig{
			ExpirySweepSpec:   getEnv("EXPIRY_SWEEP_SPEC", "0 * * * * *"),
			FinalizeSweepSpec: getEnv("FINALIZE_SWEEP_SPEC", "0 */15 * * * *"),
		},
		Notification: NotificationConfig{
			Mode:   getEnv("NOTIFY_MODE", "dev"),
			APIURL: getEnv("NOTIFY_API_URL", ""),
			APIKey: getEnv("NOTIFY_API_KEY", ""),
			Sender: getEnv("NOTIFY_SENDER", "LimoBooking"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Booking.MaxRetry < 1 {
		return fmt.Errorf("BOOKING_MAX_RETRY must be at least 1")
	}
	if c.Booking.HoldWindow <= 0 {
		return fmt.Errorf("BOOKING_HOLD_SECONDS must be positive")
	}
	if c.Notification.Mode == "production" && c.Notification.APIURL == "" {
		return fmt.Errorf("NOTIFY_API_URL is required in production notification mode")
	}
	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
