// Package container provides dependency injection and lifecycle management
// for the request approval system.
package container

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/approver"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/dispatcher"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/port"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/service"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/application/workflow"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/config"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/directory"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/notify"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/persistence/repository"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/internal/infrastructure/storage"
	"github.com/Din-Rasin/Systems-Ministry-testing-sub000/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Conn           *database.Conn
	TransactionMgr *sqlite.DB
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Request      port.RequestRepository
	Template     port.TemplateRepository
	Ledger       port.LedgerRepository
	Notification port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Request      service.RequestService
	Template     service.TemplateService
	Notification service.NotificationService
}

// ProvideDatabase opens the database, runs pending migrations and wraps the
// connection in the transaction manager.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	conn, err := database.Open(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MigrationsDir != "" {
		migrator := database.NewMigrator(conn, logger)
		if err := migrator.Run(cfg.MigrationsDir); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return &DatabaseBundle{
		Conn:           conn,
		TransactionMgr: sqlite.NewDB(conn.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Request:      repository.NewRequestRepository(sqlDB, logger),
		Template:     repository.NewTemplateRepository(sqlDB, logger),
		Ledger:       repository.NewLedgerRepository(sqlDB, logger),
		Notification: repository.NewNotificationRepository(sqlDB, logger),
	}, nil
}

// ProvideDirectory creates the user/role directory backed by the same database.
func ProvideDirectory(sqlDB *sql.DB, logger *zap.Logger) (port.DirectoryService, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return directory.NewSQLiteDirectory(sqlDB, logger), nil
}

// ProvideDocumentStore creates the supporting-document store.
func ProvideDocumentStore(cfg *config.StorageConfig, logger *zap.Logger) (port.DocumentStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	return storage.NewLocalDocumentStore(cfg.DocumentDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	), nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	Resolver   *approver.Resolver
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.Engine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Resolver == nil {
		return nil, fmt.Errorf("approver resolver is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}

	engine := workflow.NewEngine(
		deps.Repos.Request,
		deps.Repos.Template,
		deps.Repos.Ledger,
		deps.Resolver,
		deps.TxManager,
		&zapLoggerAdapter{logger: deps.Logger},
		workflow.WithDispatcher(deps.Dispatcher),
	)

	return engine, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	Engine     workflow.Engine
	Resolver   *approver.Resolver
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Documents  port.DocumentStore
	Sink       port.NotificationSink
	Logger     *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification service to workflow events.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("workflow engine is required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	notification := service.NewNotificationService(
		deps.Repos.Notification,
		deps.Sink,
		serviceLogger,
	)
	if deps.Dispatcher != nil {
		notification.RegisterHandlers(deps.Dispatcher)
	}

	return &ServiceBundle{
		Request: service.NewRequestService(
			deps.Engine,
			deps.Repos.Request,
			deps.Repos.Ledger,
			deps.Resolver,
			deps.Documents,
			serviceLogger,
		),
		Template: service.NewTemplateService(
			deps.Repos.Template,
			deps.TxManager,
			serviceLogger,
		),
		Notification: notification,
	}, nil
}

// ProvideNotificationSink creates the notification delivery boundary.
func ProvideNotificationSink(logger *zap.Logger) (port.NotificationSink, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return notify.NewLogSink(logger), nil
}
