package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./identity.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	VerificationTTL time.Duration // Optional: verification token lifetime (default: 24h)
	ResetTTL        time.Duration // Optional: reset token lifetime (default: 1h)

	ReaperInterval  time.Duration // Optional: sweep interval for the unverified account reaper (default: 1h)
	ReaperRetention time.Duration // Optional: how long unverified accounts survive (default: 48h)

	VerifySuccessURL string // Browser destination after successful email verification
	VerifyFailureURL string // Browser destination when verification fails (gets a reason param)
	MailBaseURL      string // Base URL used in emailed links

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile: getEnvOrDefault("IDENTITY_DATABASE_FILE", "identity.db"),
		PepperFile:   getEnvOrDefault("IDENTITY_PEPPER_FILE", "pepper"),

		VerificationTTL: getEnvDurationOrDefault("IDENTITY_VERIFICATION_TTL", 24*time.Hour),
		ResetTTL:        getEnvDurationOrDefault("IDENTITY_RESET_TTL", time.Hour),

		ReaperInterval:  getEnvDurationOrDefault("IDENTITY_REAPER_INTERVAL", time.Hour),
		ReaperRetention: getEnvDurationOrDefault("IDENTITY_REAPER_RETENTION", 48*time.Hour),

		VerifySuccessURL: getEnvOrDefault("IDENTITY_VERIFY_SUCCESS_URL", "/verified"),
		VerifyFailureURL: getEnvOrDefault("IDENTITY_VERIFY_FAILURE_URL", "/verify-failed"),
		MailBaseURL:      getEnvOrDefault("IDENTITY_MAIL_BASE_URL", "http://localhost:8080"),

		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
