// Package container wires the application together: database, repositories,
// external clients, services and the HTTP server, with ordered initialization
// and reverse-order teardown.
package container

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/sbkim/settlement-flow/internal/application/port"
	"github.com/sbkim/settlement-flow/internal/application/service"
	"github.com/sbkim/settlement-flow/internal/config"
	"github.com/sbkim/settlement-flow/internal/infrastructure/external/identity"
	"github.com/sbkim/settlement-flow/internal/infrastructure/persistence/repository"
	"github.com/sbkim/settlement-flow/internal/infrastructure/persistence/sqlite"
	"github.com/sbkim/settlement-flow/internal/infrastructure/storage"
	httpapi "github.com/sbkim/settlement-flow/internal/interfaces/http"
	"github.com/sbkim/settlement-flow/pkg/database"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Settlement   port.SettlementRepository
	User         port.UserRepository
	Notification port.NotificationRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Settlement   service.SettlementService
	Notification service.NotificationService
	Directory    service.DirectoryService
}

// Container manages all application dependencies.
type Container struct {
	config *config.Config
	logger *zap.Logger

	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle
	services     *ServiceBundle
	server       *httpapi.Server
}

// New builds the full dependency graph from configuration. The database is
// opened and migrated before anything depends on it.
func New(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db := sqlite.NewDB(sqlDB, logger)
	repos := &RepositoryBundle{
		Settlement:   repository.NewSettlementRepository(db, logger),
		User:         repository.NewUserRepository(db, logger),
		Notification: repository.NewNotificationRepository(db, logger),
	}

	verifier := identity.NewVerifier(identity.Config{
		SigningKey: cfg.Auth.SigningKey,
		Issuer:     cfg.Auth.Issuer,
	}, logger)

	attachmentStore := storage.NewLocalAttachmentStore(storage.Config{
		BaseDir:  cfg.Storage.UploadDir,
		BaseURL:  cfg.Storage.BaseURL,
		MaxBytes: cfg.Storage.MaxSizeBytes,
	}, logger)

	serviceLogger := &zapLoggerAdapter{logger: logger}
	notifier := service.NewNotificationService(repos.Notification, repos.User, serviceLogger)
	services := &ServiceBundle{
		Settlement:   service.NewSettlementService(repos.Settlement, notifier, db, serviceLogger),
		Notification: notifier,
		Directory:    service.NewDirectoryService(verifier, repos.User, serviceLogger),
	}

	server := httpapi.NewServer(
		httpapi.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			FilesDir:     cfg.Storage.UploadDir,
		},
		services.Settlement,
		services.Notification,
		services.Directory,
		attachmentStore,
		serviceLogger,
	)

	return &Container{
		config:       cfg,
		logger:       logger,
		sqlDB:        sqlDB,
		db:           db,
		repositories: repos,
		services:     services,
		server:       server,
	}, nil
}

// Server returns the HTTP server.
func (c *Container) Server() *httpapi.Server {
	return c.server
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Services returns the service bundle.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Close releases resources in reverse initialization order.
func (c *Container) Close() error {
	if c.server != nil {
		if err := c.server.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
		}
	}
	if c.sqlDB != nil {
		if err := c.sqlDB.Close(); err != nil {
			return fmt.Errorf("close database: %w", err)
		}
	}
	return nil
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
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
			key = fmt.Sprintf("%v", keysAndValues[i])
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
