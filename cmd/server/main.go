package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/cache"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/dao"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/events"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/router"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/service"
)

// Version information (set by build script)
var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Set Gin to release mode by default (can be overridden by GIN_MODE env var)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	logger.WithFields(logrus.Fields{
		"version":    version,
		"build_date": buildDate,
	}).Info("Starting Quarantine Protocol Server...")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Set log level from config
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logger.SetLevel(level)
	}

	logger.WithFields(logrus.Fields{
		"config_path": configPath,
		"log_level":   logger.GetLevel().String(),
		"fail_mode":   cfg.Protocol.FailMode,
	}).Info("Configuration loaded successfully")

	// Initialize database
	db, err := database.Initialize(&cfg.Database.Protocol, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}

	// Verify database connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		logger.WithError(err).Fatal("Database health check failed")
	}

	logger.Info("Database connection established successfully")

	// Initialize DAOs
	statusDAO := dao.NewProtocolStatusDAO(db)
	quarantineDAO := dao.NewQuarantineDAO(db)
	auditDAO := dao.NewAuditDAO(db)

	logger.Info("DAOs initialized successfully")

	// Initialize cache and event hub
	statusCache := cache.NewStatusCache(&cfg.Cache, logger)
	hub := events.NewHub(logger)

	// Initialize services
	protocolService := service.NewProtocolService(
		statusDAO,
		auditDAO,
		statusCache,
		db,
		hub,
		&cfg.Protocol,
		logger,
	)

	interceptorService := service.NewInterceptorService(
		protocolService,
		quarantineDAO,
		auditDAO,
		db,
		hub,
		&cfg.Protocol,
		logger,
	)

	quarantineService := service.NewQuarantineService(
		quarantineDAO,
		auditDAO,
		protocolService,
		db,
		hub,
		&cfg.Protocol,
		logger,
	)

	statsService := service.NewStatsService(statusDAO, quarantineDAO, auditDAO, logger)

	logger.Info("Services initialized successfully")

	// Start the retention sweeper
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	quarantineService.StartSweeper(sweepCtx)

	// Setup router
	ginRouter := router.SetupRouter(
		protocolService,
		interceptorService,
		quarantineService,
		statsService,
		hub,
		db,
	)

	// Configure HTTP server
	serverAddr := cfg.Server.GetServerAddress()
	server := &http.Server{
		Addr:           serverAddr,
		Handler:        ginRouter,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	// Start server in a goroutine
	go func() {
		logger.WithFields(logrus.Fields{
			"hostname": cfg.Server.Hostname,
			"port":     cfg.Server.Port,
			"addr":     serverAddr,
		}).Info("Starting HTTP server...")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	logger.WithField("address", serverAddr).Info("✓ Server is running")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	stopSweeper()
	hub.Close()

	// Graceful shutdown with timeout
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	if err := db.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}

	logger.Info("Server exited gracefully")
}
