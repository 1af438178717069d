// Package container provides dependency injection and lifecycle management
// for the docflow console and CLI.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database     DatabaseConfig
	API          APIConfig
	Session      SessionConfig
	Notification NotificationConfig
	Lark         LarkConfig
	Storage      StorageConfig

	// DisableWorkers skips starting background workers (one-shot CLI runs)
	DisableWorkers bool
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded schema when set
	MigrationsDir string
}

// APIConfig locates the validation-workflow backend.
type APIConfig struct {
	BaseURL  string
	BasePath string
	Timeout  time.Duration
}

// SessionConfig holds the fallback bearer token.
type SessionConfig struct {
	Token     string
	TokenFile string
}

// NotificationConfig holds notification center settings.
type NotificationConfig struct {
	PollInterval time.Duration
	PollEnabled  bool
	HistoryLimit int
}

// LarkConfig holds Lark push settings. Push is disabled unless AppID,
// AppSecret and ReceiveID are all set.
type LarkConfig struct {
	AppID         string
	AppSecret     string
	ReceiveIDType string
	ReceiveID     string
	MinLevel      string
}

// Enabled reports whether Lark push is configured
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ReceiveID != ""
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// ExportDir archives generated workbooks; empty disables archiving
	ExportDir string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/docflow.db",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		API: APIConfig{
			BaseURL:  "http://localhost:8000",
			BasePath: "/api/validation-workflow",
			Timeout:  30 * time.Second,
		},
		Notification: NotificationConfig{
			PollInterval: 30 * time.Second,
			PollEnabled:  true,
			HistoryLimit: 50,
		},
		Lark: LarkConfig{
			ReceiveIDType: "chat_id",
			MinLevel:      "warning",
		},
		Storage: StorageConfig{
			ExportDir: "exports",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.Notification.PollEnabled && c.Notification.PollInterval <= 0 {
		return fmt.Errorf("notification.poll_interval must be positive")
	}
	return nil
}
