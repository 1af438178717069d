package config

import (
	"github.com/garyjia/docflow/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		API: container.APIConfig{
			BaseURL:  c.API.BaseURL,
			BasePath: c.API.BasePath,
			Timeout:  c.API.Timeout,
		},
		Session: container.SessionConfig{
			Token:     c.Session.Token,
			TokenFile: c.Session.TokenFile,
		},
		Notification: container.NotificationConfig{
			PollInterval: c.Notification.PollInterval,
			PollEnabled:  c.Notification.PollEnabled,
			HistoryLimit: c.Notification.HistoryLimit,
		},
		Lark: container.LarkConfig{
			AppID:         c.Lark.AppID,
			AppSecret:     c.Lark.AppSecret,
			ReceiveIDType: c.Lark.ReceiveIDType,
			ReceiveID:     c.Lark.ReceiveID,
			MinLevel:      c.Lark.MinLevel,
		},
		Storage: container.StorageConfig{
			ExportDir: c.Export.OutputDir,
		},
	}
}
