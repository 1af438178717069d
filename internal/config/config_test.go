package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8090, cfg.Server.Port)
	assert.Equal(t, "/api/validation-workflow", cfg.API.BasePath)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Notification.PollInterval)
	assert.True(t, cfg.Notification.PollEnabled)
	assert.Equal(t, 50, cfg.Notification.HistoryLimit)
	assert.Equal(t, "warning", cfg.Lark.MinLevel)
	assert.False(t, cfg.Lark.Enabled())
	assert.Equal(t, "127.0.0.1:8090", cfg.Server.Addr())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
api:
  base_url: https://ged.example.com
  timeout: 5s
notification:
  poll_interval: 1m
  history_limit: 20
lark:
  app_id: cli_a
  app_secret: secret
  receive_id_type: email
  receive_id: team@example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://ged.example.com", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, time.Minute, cfg.Notification.PollInterval)
	assert.Equal(t, 20, cfg.Notification.HistoryLimit)
	assert.True(t, cfg.Lark.Enabled())
	assert.Equal(t, "/api/validation-workflow", cfg.API.BasePath)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: https://ged.example.com\n")

	t.Setenv("DOCFLOW_API_BASE_URL", "https://staging.example.com")
	t.Setenv("DOCFLOW_NOTIFICATION_POLL_ENABLED", "false")
	t.Setenv("DOCFLOW_TOKEN", "abc123")
	t.Setenv("LARK_APP_ID", "cli_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://staging.example.com", cfg.API.BaseURL)
	assert.False(t, cfg.Notification.PollEnabled)
	assert.Equal(t, "abc123", cfg.Session.Token)
	assert.Equal(t, "cli_env", cfg.Lark.AppID)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"relative base url", func(c *Config) { c.API.BaseURL = "ged.example.com" }, "api.base_url"},
		{"base url with query", func(c *Config) { c.API.BaseURL = "https://ged.example.com?x=1" }, "api.base_url"},
		{"base path without slash", func(c *Config) { c.API.BasePath = "api" }, "api.base_path"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"empty database path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"poll too fast", func(c *Config) { c.Notification.PollInterval = 10 * time.Millisecond }, "poll_interval"},
		{"poll too fast but disabled", func(c *Config) {
			c.Notification.PollEnabled = false
			c.Notification.PollInterval = 0
		}, ""},
		{"unknown min level", func(c *Config) { c.Lark.MinLevel = "critical" }, "lark.min_level"},
		{"bad receive id type", func(c *Config) {
			c.Lark = LarkConfig{AppID: "a", AppSecret: "s", ReceiveID: "x", ReceiveIDType: "phone"}
		}, "receive_id_type"},
		{"bad receive email", func(c *Config) {
			c.Lark = LarkConfig{AppID: "a", AppSecret: "s", ReceiveID: "not-an-email", ReceiveIDType: "email"}
		}, "lark.receive_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Export.OutputDir = "/tmp/exports"
	cfg.Session.TokenFile = "/run/secrets/token"

	cc := cfg.ToContainerConfig()

	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.Equal(t, cfg.API.BaseURL, cc.API.BaseURL)
	assert.Equal(t, cfg.API.BasePath, cc.API.BasePath)
	assert.Equal(t, "/run/secrets/token", cc.Session.TokenFile)
	assert.Equal(t, cfg.Notification.PollInterval, cc.Notification.PollInterval)
	assert.Equal(t, "/tmp/exports", cc.Storage.ExportDir)
	assert.False(t, cc.DisableWorkers)
	require.NoError(t, cc.Validate())
}
