// Package config loads the server and CLI configuration.
//
// Sources, later wins:
//  1. `default` struct tags
//  2. an optional YAML file
//  3. environment variables named by `env` tags (a `.env` file can seed them,
//     see LoadDotEnv)
//
// Everything is validated on load so a bad setting fails at startup.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Upload  UploadConfig  `yaml:"upload"`
	Logging LoggingConfig `yaml:"logging"`
	Review  ReviewConfig  `yaml:"review"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port int    `yaml:"port" env:"SERVER_PORT" default:"8080"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// AllowedOrigins feeds CORS. Empty allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
}

// StoreConfig selects where review runs are kept.
type StoreConfig struct {
	// Driver is memory, sqlite or postgres.
	Driver string `yaml:"driver" env:"STORE_DRIVER" default:"sqlite"`

	// DSN is a file path for sqlite and a connection URL for postgres.
	DSN string `yaml:"dsn" env:"STORE_DSN" envAlt:"DATABASE_URL" default:"./data/review.db"`

	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig bounds workbook uploads.
type UploadConfig struct {
	// MaxFileSize is in bytes (default: 32MB).
	MaxFileSize int64 `yaml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"33554432"`

	MaxConcurrent int           `yaml:"max_concurrent" env:"UPLOAD_MAX_CONCURRENT" default:"4"`
	MaxWaitTime   time.Duration `yaml:"max_wait_time" env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is json or console.
	Format string `yaml:"format" env:"LOG_FORMAT" default:"json"`
}

// ReviewConfig holds the defaults applied when a request carries no
// review configuration of its own.
type ReviewConfig struct {
	Preset        string  `yaml:"preset" env:"REVIEW_PRESET" default:"statutory_flat"`
	DayCount      string  `yaml:"day_count" env:"REVIEW_DAY_COUNT"`
	MinimumSalary float64 `yaml:"minimum_salary" env:"REVIEW_MINIMUM_SALARY"`
	Workers       int     `yaml:"workers" env:"REVIEW_WORKERS"`
	ListLimit     int     `yaml:"list_limit" env:"REVIEW_LIST_LIMIT" default:"50"`
}

// NotifyConfig enables review-completed events. No brokers disables them.
type NotifyConfig struct {
	Brokers  []string `yaml:"brokers" env:"KAFKA_BROKERS"`
	Topic    string   `yaml:"topic" env:"KAFKA_TOPIC" default:"register-review.runs"`
	ClientID string   `yaml:"client_id" env:"KAFKA_CLIENT_ID" default:"register-review"`
}

// Enabled reports whether events should be published.
func (c NotifyConfig) Enabled() bool { return len(c.Brokers) > 0 }

// Addr returns the server listen address in host:port format.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String returns a representation safe for logging. The DSN is masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Store: {Driver: %q, DSN: [MASKED], MaxConns: %d}, ", c.Store.Driver, c.Store.MaxConns)
	fmt.Fprintf(&b, "Upload: {MaxFileSize: %d, MaxConcurrent: %d}, ", c.Upload.MaxFileSize, c.Upload.MaxConcurrent)
	fmt.Fprintf(&b, "Review: {Preset: %q, DayCount: %q}, ", c.Review.Preset, c.Review.DayCount)
	fmt.Fprintf(&b, "Notify: {Brokers: %d, Topic: %q}, ", len(c.Notify.Brokers), c.Notify.Topic)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
