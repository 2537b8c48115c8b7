package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	CORS        CORSConfig
	Log         LogConfig
	Projection  ProjectionConfig
	Scheduler   SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "human" or "json"
}

// ProjectionConfig holds the projection engine connection. An empty URL disables previews.
type ProjectionConfig struct {
	URL     string
	Timeout time.Duration
}

// SchedulerConfig holds background job schedules. An empty schedule disables the job.
type SchedulerConfig struct {
	ExpirySchedule string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	timeout, err := time.ParseDuration(getEnv("PROJECTION_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROJECTION_TIMEOUT: %w", err)
	}

	config := &Config{
		Environment: getEnv("APP_ENV", "production"),
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/portfolio_planner.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
		Projection: ProjectionConfig{
			URL:     os.Getenv("PROJECTION_URL"),
			Timeout: timeout,
		},
		Scheduler: SchedulerConfig{
			ExpirySchedule: getEnvAllowEmpty("EXPIRY_SCHEDULE", "0 3 * * *"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	return config, nil
}

// IsDevelopment reports whether the application runs in development mode, which
// turns internal consistency checks into panics and defaults to human readable logs.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

// HumanLogs reports whether logs should be written for humans instead of as JSON.
func (c *Config) HumanLogs() bool {
	if c.Log.Format != "" {
		return strings.EqualFold(c.Log.Format, "human")
	}
	return c.IsDevelopment()
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAllowEmpty is getEnv, except that a variable set to an empty string stays empty.
func getEnvAllowEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
