// Package env reads configuration from environment variables, with
// fallbacks to _FILE indirection and /run/secrets for containerized
// deployments.
package env

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Get reads an environment variable. If the variable is unset it tries
// the _FILE variant (a path to a file holding the value), then
// /run/secrets/{key}, then the default.
func Get(key string, defaultValue ...string) string {
	defaultVal := ""
	if len(defaultValue) > 0 {
		defaultVal = defaultValue[0]
	}

	if value := os.Getenv(key); len(value) != 0 {
		return value
	}

	if filePath := os.Getenv(key + "_FILE"); len(filePath) != 0 {
		if value := readTrimmed(filePath); len(value) != 0 {
			return value
		}
	}

	if secretsPath := filepath.Join("/run/secrets", key); fileExists(secretsPath) {
		if value := readTrimmed(secretsPath); len(value) != 0 {
			return value
		}
	}

	return defaultVal
}

// GetInt reads an integer variable with the same fallback chain as Get.
func GetInt(key string, defaultValue ...int) int {
	if valueStr := Get(key); len(valueStr) != 0 {
		if parsed, err := strconv.Atoi(valueStr); err == nil {
			return parsed
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return 0
}

// GetFloat64 reads a float variable with the same fallback chain as Get.
func GetFloat64(key string, defaultValue ...float64) float64 {
	if valueStr := Get(key); len(valueStr) != 0 {
		if parsed, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return parsed
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return 0
}

// GetDuration reads a duration variable ("500ms", "10s", "2h") with the
// same fallback chain as Get.
func GetDuration(key string, defaultValue ...time.Duration) time.Duration {
	if valueStr := Get(key); len(valueStr) != 0 {
		if parsed, err := time.ParseDuration(valueStr); err == nil {
			return parsed
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return 0
}

// GetBool reads a boolean variable with the same fallback chain as Get.
func GetBool(key string, defaultValue ...bool) bool {
	if valueStr := Get(key); len(valueStr) != 0 {
		if parsed, err := strconv.ParseBool(valueStr); err == nil {
			return parsed
		}
	}

	if len(defaultValue) > 0 {
		return defaultValue[0]
	}

	return false
}

func readTrimmed(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(content))
}

// fileExists checks if a file exists and is not a directory.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
