package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host           string
	Port           string
	BackendURL     string
	BackendTimeout time.Duration
	StorageDir     string
	SaveRecordings bool
	// MaxUploadBytes caps the inbound audio body. Audio duration limits are
	// enforced by the backend, not here.
	MaxUploadBytes int64
	PublicBaseURL  string
	LogLevel       string
	LogFormat      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Host:           getEnv("HOST", "0.0.0.0"),
		Port:           getEnv("PORT", "8080"),
		BackendURL:     getEnv("BACKEND_URL", "http://localhost:8000"),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 5*time.Minute),
		StorageDir:     getEnv("STORAGE_DIR", "./recordings"),
		SaveRecordings: getEnvBool("SAVE_RECORDINGS", true),
		MaxUploadBytes: getEnvInt64("MAX_UPLOAD_BYTES", 100<<20),
		PublicBaseURL:  os.Getenv("PUBLIC_BASE_URL"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "text"),
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port: %q", c.Port)
	}

	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL is required")
	}

	if c.SaveRecordings && c.StorageDir == "" {
		return fmt.Errorf("STORAGE_DIR is required when SAVE_RECORDINGS is enabled")
	}

	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}

	return nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// ResolvedBaseURL returns the base URL used to build public resource links.
// The 0.0.0.0 bind address is substituted with localhost for display.
func (c *Config) ResolvedBaseURL() string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/")
	}
	host := c.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return "http://" + host + ":" + c.Port
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
