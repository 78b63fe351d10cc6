// File: internal/app/server.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"identity_sync_backend/internal/common"
	"identity_sync_backend/internal/config"
	"identity_sync_backend/internal/jobs"
	"identity_sync_backend/internal/middleware"
	"identity_sync_backend/internal/platform/metrics"
	"identity_sync_backend/internal/webhook"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Server holds the HTTP server and the background jobs it owns.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	// Exposed for the retry-role-sync command.
	RoleSyncRetryJob *jobs.RoleSyncRetryJob
	AppLogger        *zap.Logger
}

// NewServer wires middleware and routes.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	prom *metrics.Prom,
	webhookHandler *webhook.Handler,
	roleSyncRetryJob *jobs.RoleSyncRetryJob,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// --- Global Middleware ---
	router.Use(middleware.ZapLogger(logger, cfg))
	router.Use(prom.GinHandleMiddleware())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))

	// --- Setup Routes ---
	router.GET("/health", healthHandler(db))
	router.GET("/metrics", prom.Handler())
	webhookHandler.RegisterRoutes(router)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{
		httpServer:       httpServer,
		router:           router,
		cfg:              cfg,
		logger:           logger,
		RoleSyncRetryJob: roleSyncRetryJob,
		AppLogger:        logger,
	}, nil
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.CORSAllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowedOrigins
		c.AllowCredentials = true
	}
	c.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader,
		webhook.HeaderSvixID, webhook.HeaderSvixTimestamp, webhook.HeaderSvixSignature}
	c.ExposeHeaders = []string{"Content-Length", middleware.RequestIDHeader}
	return c
}

// healthHandler reports 503 when the database cannot be reached.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			sqlDB, err := db.DB()
			if err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
				err = sqlDB.PingContext(ctx)
				cancel()
			}
			if err != nil {
				common.RespondWithError(c, errDatabaseDown)
				return
			}
		}
		common.RespondOK(c, "Identity sync service is healthy!", gin.H{"status": "UP"})
	}
}

var errDatabaseDown = common.NewAPIError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Database is unreachable.")

func (s *Server) Start() error {
	if s.RoleSyncRetryJob != nil {
		if err := s.RoleSyncRetryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to setup and start role sync retry job", zap.Error(err))
		}
	} else {
		s.logger.Info("Role sync retry job is not configured, skipping start.")
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
		zap.String("webhook_path", s.cfg.WebhookPath),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.RoleSyncRetryJob != nil {
		s.RoleSyncRetryJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
