package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/flow"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/docflow/internal/infrastructure/worker"
	"github.com/garyjia/docflow/internal/infrastructure/workflowapi"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/internal/report"
	"github.com/garyjia/docflow/internal/session"
	"github.com/garyjia/docflow/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	clients *ClientBundle

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	dispatcher    dispatcher.Dispatcher
	notifications *NotificationBundle
	reports       *report.Service

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components in dependency order:
// 1. Database and repositories
// 2. Session provider and workflow API client
// 3. Event dispatcher and notification center
// 4. Report service and storage
// 5. Workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initClients(); err != nil {
		return fmt.Errorf("failed to initialize clients: %w", err)
	}
	c.logger.Info("Workflow API client initialized", zap.String("base_url", c.config.API.BaseURL))

	if err := c.initNotifications(); err != nil {
		return fmt.Errorf("failed to initialize notifications: %w", err)
	}
	c.logger.Info("Notification center initialized")

	if err := c.initReports(); err != nil {
		return fmt.Errorf("failed to initialize reports: %w", err)
	}
	c.logger.Info("Report service initialized")

	if err := c.initWorkers(); err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		}
	}

	// waits for in-flight async handlers such as Lark pushes
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	if c.database != nil {
		if err := c.database.HealthCheck(ctx); err != nil {
			set("database", ComponentHealth{Healthy: false, Message: err.Error()})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	} else {
		set("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.workers != nil {
		running := c.workers.IsRunning() || c.config.DisableWorkers
		set("workers", ComponentHealth{
			Healthy: running,
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		})
	} else {
		set("workers", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// the unread poller reports the backend as seen by the background session
	if c.notifications != nil && c.notifications.Poller != nil {
		last := c.notifications.Poller.LastPoll()
		switch {
		case last.IsZero():
			status.Components["workflow_api"] = ComponentHealth{Healthy: true, Message: "not polled yet"}
		case time.Since(last) > 3*c.config.Notification.PollInterval:
			status.Components["workflow_api"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("last successful poll %s ago", time.Since(last).Round(time.Second)),
			}
		default:
			status.Components["workflow_api"] = ComponentHealth{Healthy: true}
		}
	}

	return status
}

func (c *Container) initDatabase() error {
	bundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}
	c.database = bundle.DB
	c.db = bundle.TransactionMgr

	repos, err := ProvideRepositories(c.db, c.logger)
	if err != nil {
		c.database.Close()
		return err
	}
	c.repositories = repos
	return nil
}

func (c *Container) initClients() error {
	clients, err := ProvideClients(&c.config.API, &c.config.Session, c.logger)
	if err != nil {
		return err
	}
	c.clients = clients
	return nil
}

func (c *Container) initNotifications() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	bundle, err := ProvideNotifications(&NotificationDeps{
		Config:     &c.config.Notification,
		Lark:       &c.config.Lark,
		Repo:       c.repositories.Notification,
		Counter:    c.clients.API,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.notifications = bundle
	return nil
}

func (c *Container) initReports() error {
	reports, fileStorage, err := ProvideReports(&c.config.Storage, c.clients.API, c.db, c.repositories, c.logger)
	if err != nil {
		return err
	}
	c.reports = reports
	c.fileStorage = fileStorage
	return nil
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(c.notifications, c.logger)
	if err != nil {
		return err
	}
	c.workers = workers

	if c.config.DisableWorkers {
		return nil
	}
	return c.workers.StartAll(c.ctx)
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// API returns the workflow API client.
func (c *Container) API() *workflowapi.Client {
	return c.clients.API
}

// Session returns the session provider.
func (c *Container) Session() *session.Provider {
	return c.clients.Session
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Notifications returns the notification center.
func (c *Container) Notifications() *notification.Center {
	return c.notifications.Center
}

// UnreadPoller returns the unread-count poller, or nil when polling is disabled.
func (c *Container) UnreadPoller() *notification.UnreadPoller {
	return c.notifications.Poller
}

// Reports returns the statistics export service.
func (c *Container) Reports() *report.Service {
	return c.reports
}

// FileStorage returns the export archive storage, or nil when archiving is disabled.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// FlowLogger returns the logger handed to the view models.
func (c *Container) FlowLogger() flow.Logger {
	return &zapLoggerAdapter{logger: c.logger.Named("flow")}
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces of
// the flow and dispatcher packages.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, ok := keysAndValues[i+1].(error); ok {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

var (
	_ flow.Logger       = (*zapLoggerAdapter)(nil)
	_ dispatcher.Logger = (*zapLoggerAdapter)(nil)
)
