package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/docflow/internal/domain/entity"
	"github.com/garyjia/docflow/pkg/utils"
)

// EnvPrefix prefixes every environment override, e.g. DOCFLOW_API_BASE_URL
const EnvPrefix = "DOCFLOW"

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	API          APIConfig          `mapstructure:"api"`
	Session      SessionConfig      `mapstructure:"session"`
	Notification NotificationConfig `mapstructure:"notification"`
	Lark         LarkConfig         `mapstructure:"lark"`
	Export       ExportConfig       `mapstructure:"export"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds console HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the local notification store configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"` // empty uses the embedded schema
}

// APIConfig locates the document-management backend
type APIConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	BasePath string        `mapstructure:"base_path"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds the bearer token used when a caller supplies none
type SessionConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token_file"`
}

// NotificationConfig holds notification center configuration
type NotificationConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollEnabled  bool          `mapstructure:"poll_enabled"`
	HistoryLimit int           `mapstructure:"history_limit"`
}

// LarkConfig holds the optional Lark push configuration
type LarkConfig struct {
	AppID         string `mapstructure:"app_id"`
	AppSecret     string `mapstructure:"app_secret"`
	ReceiveIDType string `mapstructure:"receive_id_type"`
	ReceiveID     string `mapstructure:"receive_id"`
	MinLevel      string `mapstructure:"min_level"`
}

// Enabled reports whether Lark push is configured
func (c LarkConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ReceiveID != ""
}

// ExportConfig holds the statistics export archive configuration
type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"` // empty disables archiving
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file, a .env file in the
// working directory and DOCFLOW_* environment variables, in increasing order
// of precedence. An empty configPath skips the YAML file.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.path", "data/docflow.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.migrations_dir", "")

	v.SetDefault("api.base_url", "http://localhost:8000")
	v.SetDefault("api.base_path", "/api/validation-workflow")
	v.SetDefault("api.timeout", 30*time.Second)

	v.SetDefault("session.token", "")
	v.SetDefault("session.token_file", "")

	v.SetDefault("notification.poll_interval", 30*time.Second)
	v.SetDefault("notification.poll_enabled", true)
	v.SetDefault("notification.history_limit", 50)

	v.SetDefault("lark.app_id", "")
	v.SetDefault("lark.app_secret", "")
	v.SetDefault("lark.receive_id_type", "chat_id")
	v.SetDefault("lark.receive_id", "")
	v.SetDefault("lark.min_level", "warning")

	v.SetDefault("export.output_dir", "exports")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the unprefixed names shared with other tools
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"session.token":   {EnvPrefix + "_SESSION_TOKEN", EnvPrefix + "_TOKEN"},
		"lark.app_id":     {EnvPrefix + "_LARK_APP_ID", "LARK_APP_ID"},
		"lark.app_secret": {EnvPrefix + "_LARK_APP_SECRET", "LARK_APP_SECRET"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return err
		}
	}
	return nil
}

var receiveIDTypes = map[string]bool{
	"chat_id":  true,
	"open_id":  true,
	"user_id":  true,
	"union_id": true,
	"email":    true,
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := utils.ValidateBaseURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if !strings.HasPrefix(c.API.BasePath, "/") {
		return fmt.Errorf("api.base_path must start with /")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Notification.PollEnabled && c.Notification.PollInterval < time.Second {
		return fmt.Errorf("notification.poll_interval must be at least 1s")
	}
	if c.Notification.HistoryLimit <= 0 {
		return fmt.Errorf("notification.history_limit must be positive")
	}

	if c.Lark.Enabled() {
		if !receiveIDTypes[c.Lark.ReceiveIDType] {
			return fmt.Errorf("lark.receive_id_type %q is not supported", c.Lark.ReceiveIDType)
		}
		if c.Lark.ReceiveIDType == "email" {
			if err := utils.ValidateEmail(c.Lark.ReceiveID); err != nil {
				return fmt.Errorf("lark.receive_id: %w", err)
			}
		}
	}
	if c.Lark.MinLevel != "" && string(entity.ParseNotificationLevel(c.Lark.MinLevel)) != strings.ToLower(strings.TrimSpace(c.Lark.MinLevel)) {
		return fmt.Errorf("lark.min_level %q is not a notification level", c.Lark.MinLevel)
	}

	return nil
}

// Addr returns the console listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
