// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds the server deployment settings. Every field can
// be overridden via a STELLAR_* environment variable; unset variables fall
// back to defaults suitable for local development.
type EnvironmentConfig struct {
	ServerAddr      string
	ServerPort      int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	DatabasePath string
	JWTSecret    string

	// Deadline sweep and persistence cadence.
	SchedulerInterval time.Duration

	// Per-IP request limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Circuit breaker protecting game persistence.
	CircuitBreakerMaxRequests         uint32
	CircuitBreakerInterval            time.Duration
	CircuitBreakerTimeout             time.Duration
	CircuitBreakerMaxConsecutiveFails uint32
}

// LoadConfigFromEnv builds an EnvironmentConfig from STELLAR_* environment
// variables, applying defaults for anything unset.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	config := &EnvironmentConfig{
		ServerAddr:   getEnvString("STELLAR_SERVER_ADDR", "localhost"),
		DatabasePath: getEnvString("STELLAR_DB_PATH", "stellar.db"),
		JWTSecret:    getEnvString("STELLAR_JWT_SECRET", ""),
	}

	var err error
	if config.ServerPort, err = getEnvInt("STELLAR_SERVER_PORT", 4566); err != nil {
		return nil, err
	}
	if config.ReadTimeout, err = getEnvDuration("STELLAR_READ_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.WriteTimeout, err = getEnvDuration("STELLAR_WRITE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.ShutdownTimeout, err = getEnvDuration("STELLAR_SHUTDOWN_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.SchedulerInterval, err = getEnvDuration("STELLAR_SCHEDULER_INTERVAL", time.Minute); err != nil {
		return nil, err
	}
	if config.RateLimitPerSecond, err = getEnvFloat("STELLAR_RATE_LIMIT_PER_SECOND", 10); err != nil {
		return nil, err
	}
	if config.RateLimitBurst, err = getEnvInt("STELLAR_RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if config.CircuitBreakerMaxRequests, err = getEnvUint32("STELLAR_CB_MAX_REQUESTS", 3); err != nil {
		return nil, err
	}
	if config.CircuitBreakerInterval, err = getEnvDuration("STELLAR_CB_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if config.CircuitBreakerTimeout, err = getEnvDuration("STELLAR_CB_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if config.CircuitBreakerMaxConsecutiveFails, err = getEnvUint32("STELLAR_CB_MAX_CONSECUTIVE_FAILS", 5); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the environment configuration for values the server
// cannot run with.
func (c *EnvironmentConfig) Validate() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.ServerPort)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.SchedulerInterval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %v", c.SchedulerInterval)
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive, got %f", c.RateLimitPerSecond)
	}
	if c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit burst must be at least 1, got %d", c.RateLimitBurst)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
	}
	return parsed, nil
}

func getEnvUint32(key string, defaultValue uint32) (uint32, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid unsigned integer value for %s: %q", key, value)
	}
	return uint32(parsed), nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %q", key, value)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %q", key, value)
	}
	return parsed, nil
}
