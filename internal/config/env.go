package config

import (
	"os"
	"strconv"
	"time"
)

// getString returns the environment variable value or def if not set or empty
func getString(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// getInt returns the environment variable as int, or def if not set or invalid
func getInt(key string, def int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return def
}

// getBool returns the environment variable as bool, or def if not set or invalid
func getBool(key string, def bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return def
}

// getDuration returns the environment variable as duration, or def if not set or invalid
func getDuration(key string, def time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return def
}
