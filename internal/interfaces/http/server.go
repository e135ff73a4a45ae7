// Package http provides the HTTP binding of the lifecycle engine. This is a
// thin adapter layer that translates requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sbkim/settlement-flow/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// FilesDir, when set, is served under /files for attachment retrieval.
	FilesDir string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config      ServerConfig
	httpServer  *http.Server
	router      *gin.Engine
	settlements service.SettlementService
	notifier    service.NotificationService
	directory   service.DirectoryService
	logger      Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	settlements service.SettlementService,
	notifier service.NotificationService,
	directory service.DirectoryService,
	uploader Uploader,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:      config,
		router:      gin.New(),
		settlements: settlements,
		notifier:    notifier,
		directory:   directory,
		logger:      logger,
	}

	server.setupMiddleware()
	server.setupRoutes(uploader)
	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes(uploader Uploader) {
	handlers := NewHandlers(s.settlements, s.notifier, s.directory, uploader, s.logger)
	auth := AuthMiddleware(s.directory, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.config.FilesDir != "" {
		s.router.Static("/files", s.config.FilesDir)
	}

	api := s.router.Group("/api", auth)
	{
		api.GET("/auth/me", handlers.Me)

		api.POST("/settlements", handlers.CreateSettlement)
		api.GET("/settlements", handlers.ListSettlements)
		api.GET("/settlements/:id", handlers.GetSettlement)
		api.POST("/settlements/:id/decision", handlers.DecideSettlement)
		api.POST("/settlements/:id/payment", handlers.PaySettlement)

		api.GET("/payments", handlers.ListPaymentQueue)

		api.GET("/notifications", handlers.ListNotifications)
		api.PATCH("/notifications/:id/read", handlers.MarkNotificationRead)

		api.POST("/uploads", handlers.UploadAttachment)

		api.GET("/users", handlers.ListUsers)
		api.PATCH("/users/:id/role", handlers.UpdateUserRole)
	}
}

// Start starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
