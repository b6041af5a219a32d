package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Record store
	DBPath string

	// Change bus
	AMQPURL            string // empty disables the broker path
	AMQPExchange       string
	MarkerPollInterval time.Duration

	// Settings cache
	SettingsCacheSize int
	SettingsCacheTTL  time.Duration

	// Default profile for callers that do not pass one
	Profile string
}

func Load() *Config {
	return &Config{
		DBPath: getEnv("PFOS_DB_PATH", "./data/pfos.db"),

		AMQPURL:            getEnv("PFOS_AMQP_URL", ""),
		AMQPExchange:       getEnv("PFOS_AMQP_EXCHANGE", "pfos.changes"),
		MarkerPollInterval: getEnvDuration("PFOS_MARKER_POLL_INTERVAL", 2*time.Second),

		SettingsCacheSize: getEnvInt("PFOS_SETTINGS_CACHE_SIZE", 16),
		SettingsCacheTTL:  getEnvDuration("PFOS_SETTINGS_CACHE_TTL", 30*time.Second),

		Profile: getEnv("PFOS_PROFILE", "default"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	} else {
		dir := filepath.Dir(c.DBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MarkerPollInterval < 50*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid marker poll interval %v: must be at least 50ms", c.MarkerPollInterval))
	} else if c.MarkerPollInterval > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid marker poll interval %v: must be at most 1 minute", c.MarkerPollInterval))
	}

	if c.SettingsCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid settings cache size %d: must be at least 1", c.SettingsCacheSize))
	}
	if c.SettingsCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid settings cache TTL %v: must be at least 1 second", c.SettingsCacheTTL))
	}

	if c.Profile == "" {
		errors = append(errors, "profile cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
