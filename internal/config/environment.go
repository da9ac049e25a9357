package config

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the variable, or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// GetEnvAsBool parses the variable with strconv.ParseBool; unparsable values yield fallback.
func GetEnvAsBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(GetEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		return fallback
	}
	return b
}

// GetEnvAsDuration parses values such as "30s" or "2m".
func GetEnvAsDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return d
}
