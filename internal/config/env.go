package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEnvFileNotFound is returned when the .env file is not found
	ErrEnvFileNotFound = errors.New(".env file not found")

	// loadOnce ensures .env is loaded only once
	loadOnce sync.Once
)

// LoadEnv loads environment variables from the .env file in the working
// directory. Variables already set in the environment win.
func LoadEnv() error {
	var err error
	loadOnce.Do(func() {
		err = LoadEnvFile(".env")
	})
	return err
}

// LoadEnvFile reads KEY=VALUE lines from filename and sets the ones that are
// not already present in the environment.
func LoadEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrEnvFileNotFound
		}
		return fmt.Errorf("error opening .env file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue // Skip malformed lines
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present
		if len(value) > 1 && (value[0] == '"' && value[len(value)-1] == '"' ||
			value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading .env file: %w", err)
	}

	return nil
}

// Get retrieves an environment variable with a fallback value
func Get(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// GetInt retrieves an integer environment variable with a fallback value
func GetInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return result
		}
	}
	return fallback
}

// GetFloat retrieves a float environment variable with a fallback value
func GetFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if result, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return result
		}
	}
	return fallback
}

// GetBool retrieves a boolean environment variable with a fallback value
func GetBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		value = strings.ToLower(value)
		if value == "true" || value == "1" || value == "yes" || value == "y" {
			return true
		}
		if value == "false" || value == "0" || value == "no" || value == "n" {
			return false
		}
	}
	return fallback
}

// GetDuration retrieves a duration such as "30s" or a bare number of seconds.
func GetDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
