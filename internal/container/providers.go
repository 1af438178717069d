package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/docflow/internal/application/dispatcher"
	"github.com/garyjia/docflow/internal/application/port"
	"github.com/garyjia/docflow/internal/domain/entity"
	infraLark "github.com/garyjia/docflow/internal/infrastructure/external/lark"
	"github.com/garyjia/docflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/docflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/docflow/internal/infrastructure/storage"
	"github.com/garyjia/docflow/internal/infrastructure/worker"
	"github.com/garyjia/docflow/internal/infrastructure/workflowapi"
	"github.com/garyjia/docflow/internal/notification"
	"github.com/garyjia/docflow/internal/report"
	"github.com/garyjia/docflow/internal/session"
	"github.com/garyjia/docflow/migrations"
	"github.com/garyjia/docflow/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Notification port.NotificationRepository
	Export       port.ExportRepository
}

// ClientBundle holds the backend-facing clients.
type ClientBundle struct {
	Session *session.Provider
	API     *workflowapi.Client
}

// NotificationBundle holds the notification center and its subscribers.
type NotificationBundle struct {
	Center *notification.Center
	Pusher *notification.LarkPusher
	Poller *notification.UnreadPoller
}

// ProvideDatabase opens the local database and applies pending migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if cfg.MigrationsDir != "" {
		err = migrator.RunMigrations(cfg.MigrationsDir)
	} else {
		err = migrator.RunMigrationsFS(migrations.FS)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories on the transaction manager.
func ProvideRepositories(db *sqlite.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Notification: repository.NewNotificationRepository(db, logger),
		Export:       repository.NewExportRepository(db, logger),
	}, nil
}

// ProvideClients creates the session provider and the workflow API client.
func ProvideClients(apiCfg *APIConfig, sessionCfg *SessionConfig, logger *zap.Logger) (*ClientBundle, error) {
	if apiCfg == nil || sessionCfg == nil {
		return nil, fmt.Errorf("api and session config are required")
	}

	provider := session.NewProvider(session.Config{
		Token:     sessionCfg.Token,
		TokenFile: sessionCfg.TokenFile,
	})

	api := workflowapi.NewClient(workflowapi.Config{
		BaseURL:  apiCfg.BaseURL,
		BasePath: apiCfg.BasePath,
		Timeout:  apiCfg.Timeout,
	}, provider, logger.Named("workflowapi"))

	return &ClientBundle{
		Session: provider,
		API:     api,
	}, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger.Named("dispatcher")})), nil
}

// NotificationDeps holds dependencies for the notification center.
type NotificationDeps struct {
	Config     *NotificationConfig
	Lark       *LarkConfig
	Repo       port.NotificationRepository
	Counter    port.UnreadCounter
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideNotifications creates the notification center, registers the Lark
// pusher when configured and the unread poller when enabled.
func ProvideNotifications(deps *NotificationDeps) (*NotificationBundle, error) {
	if deps == nil || deps.Config == nil || deps.Lark == nil {
		return nil, fmt.Errorf("notification dependencies are required")
	}
	logger := deps.Logger.Named("notification")

	bundle := &NotificationBundle{
		Center: notification.NewCenter(deps.Repo, deps.Dispatcher, logger),
	}

	if deps.Lark.Enabled() {
		messenger := infraLark.NewMessenger(infraLark.Config{
			AppID:     deps.Lark.AppID,
			AppSecret: deps.Lark.AppSecret,
		}, logger)
		bundle.Pusher = notification.NewLarkPusher(messenger, notification.LarkPusherConfig{
			ReceiveIDType: deps.Lark.ReceiveIDType,
			ReceiveID:     deps.Lark.ReceiveID,
			MinLevel:      entity.ParseNotificationLevel(deps.Lark.MinLevel),
		}, logger)
		bundle.Pusher.Register(deps.Dispatcher)
		logger.Info("Lark push enabled",
			zap.String("receive_id_type", deps.Lark.ReceiveIDType),
			zap.String("min_level", deps.Lark.MinLevel))
	}

	if deps.Config.PollEnabled && deps.Counter != nil {
		bundle.Poller = notification.NewUnreadPoller(deps.Counter, deps.Dispatcher, logger, deps.Config.PollInterval)
		bundle.Poller.Register(deps.Dispatcher)
	}

	return bundle, nil
}

// ProvideReports creates the statistics export service. Archiving is skipped
// when no export directory is configured; archived exports are journaled in
// the notification center within one transaction.
func ProvideReports(cfg *StorageConfig, api port.WorkflowAPI, tx port.TransactionManager, repos *RepositoryBundle, logger *zap.Logger) (*report.Service, port.FileStorage, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("storage config is required")
	}

	exporter := report.NewExporter(logger.Named("report"))
	if cfg.ExportDir == "" {
		return report.NewService(api, exporter, nil, nil, logger), nil, nil
	}

	if repos == nil {
		return nil, nil, fmt.Errorf("repositories are required")
	}

	fileStorage := storage.NewLocalFileStorage(cfg.ExportDir, logger)
	svc := report.NewService(api, exporter, fileStorage, repos.Export, logger).
		WithJournal(tx, repos.Notification)
	return svc, fileStorage, nil
}

// ProvideWorkers creates the worker manager with the background workers.
func ProvideWorkers(bundle *NotificationBundle, logger *zap.Logger) (*worker.WorkerManager, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(logger.Named("worker"))
	if bundle != nil && bundle.Poller != nil {
		manager.Register(bundle.Poller)
	}
	return manager, nil
}
