package router

import (
	"github.com/gin-gonic/gin"

	"github.com/RobeHGC/proyecto-nadia-sub001/internal/config"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/database"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/events"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/handlers"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/middleware"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/service"
	"github.com/RobeHGC/proyecto-nadia-sub001/internal/utils"
)

// SetupRouter configures all API routes
func SetupRouter(
	protocolService *service.ProtocolService,
	interceptorService *service.InterceptorService,
	quarantineService *service.QuarantineService,
	statsService *service.StatsService,
	hub *events.Hub,
	db *database.DB,
) *gin.Engine {
	router := gin.Default()

	if cfg := config.Get(); cfg != nil && cfg.CORS.Enabled {
		router.Use(middleware.CORSMiddleware(&cfg.CORS))
	}

	// Global middleware to extract the operator identity supplied by the
	// caller. Authentication itself happens upstream.
	router.Use(func(c *gin.Context) {
		actorID := c.GetHeader("actor-id")
		if actorID != "" {
			utils.SetContextValue(c, "actorID", actorID)
		}
		c.Next()
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// Create handlers
	protocolHandler := handlers.NewProtocolHandler(protocolService, statsService)
	quarantineHandler := handlers.NewQuarantineHandler(quarantineService, statsService)
	admitHandler := handlers.NewAdmitHandler(interceptorService)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Message admission (ingestion path)
		v1.POST("/messages/admit", admitHandler.Admit)

		// Protocol state routes
		users := v1.Group("/users")
		{
			users.GET("/protocol/active", protocolHandler.ListActiveProtocols)
			users.POST("/:userId/protocol", protocolHandler.SetProtocol)
			users.GET("/:userId/protocol", protocolHandler.GetProtocol)
			users.GET("/:userId/protocol-stats", protocolHandler.GetProtocolStats)
		}

		// Quarantine queue routes
		quarantine := v1.Group("/quarantine")
		{
			quarantine.GET("/messages", quarantineHandler.ListMessages)
			quarantine.GET("/messages/:id", quarantineHandler.GetMessage)
			quarantine.POST("/:id/process", quarantineHandler.ProcessMessage)
			quarantine.POST("/batch-process", quarantineHandler.BatchProcess)
			quarantine.GET("/stats", quarantineHandler.GetStats)
			quarantine.GET("/audit-log", quarantineHandler.GetAuditLog)
		}

		// Dashboard event stream
		v1.GET("/ws/events", func(c *gin.Context) {
			hub.Subscribe(c.Writer, c.Request)
		})
	}

	return router
}
