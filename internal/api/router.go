package api

import (
	"context"
	"net/http"
	"time"

	"github.com/fame-api/internal/config"
	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// HealthChecker is a dependency reported by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Options carries the optional infrastructure the router uses
type Options struct {
	// Hub serves /ws. Without it the route answers 503.
	Hub *realtime.Hub
	// Redis backs rate limiting. nil disables it.
	Redis *redis.Client
	// Database is pinged by /health when set
	Database HealthChecker
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, opts Options, log zerolog.Logger) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Middleware
	router.Use(requestIDMiddleware())
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))
	router.Use(sessionMiddleware(services.Auth))

	// Handlers
	authHandler := NewAuthHandler(services, cfg, log)
	eventHandler := NewEventHandler(services, log)
	showHandler := NewShowHandler(services, log)
	mediaHandler := NewMediaHandler(services, cfg, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	limited := func(scope string) gin.HandlerFunc {
		return rateLimit(opts.Redis, scope, cfg.Redis.RateLimit, cfg.Redis.RateLimitWindow, log)
	}
	artistUp := requireRole(models.RoleArtist)
	djUp := requireRole(models.RoleDJ)
	staff := requireRole(models.RoleStageManager)
	admin := requireRole(models.RoleSuperAdmin)

	// Health check
	router.GET("/health", healthCheck(opts.Database))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", websocketHandler(opts.Hub, log))

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", limited("login"), authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/session", artistUp, authHandler.Session)
			authGroup.POST("/register/stage-manager", limited("register"), authHandler.RegisterStageManager)
		}

		adminGroup := api.Group("/admin", admin)
		{
			adminGroup.GET("/registrations", authHandler.ListRegistrations)
			adminGroup.POST("/registrations/:id/approve", authHandler.ApproveRegistration)
			adminGroup.POST("/registrations/:id/reject", authHandler.RejectRegistration)
			adminGroup.POST("/users", authHandler.CreateUser)
		}

		api.GET("/events", eventHandler.ListEvents)
		api.POST("/events", staff, eventHandler.CreateEvent)

		events := api.Group("/events/:eventId")
		{
			events.GET("", eventHandler.GetEvent)
			events.PATCH("", staff, eventHandler.UpdateEvent)
			events.DELETE("", admin, eventHandler.DeleteEvent)

			events.GET("/artists", djUp, eventHandler.ListArtists)
			events.POST("/artists", limited("artist_registration"), eventHandler.RegisterArtist)
			events.GET("/artists/:artistId", artistUp, eventHandler.GetArtist)
			events.PATCH("/artists/:artistId", artistUp, eventHandler.UpdateArtist)
			events.DELETE("/artists/:artistId", staff, eventHandler.DeleteArtist)
			events.PATCH("/artists/:artistId/assign", staff, eventHandler.AssignArtist)
			events.PATCH("/artists/:artistId/status", djUp, showHandler.UpdateArtistStatus)

			events.GET("/cues", djUp, eventHandler.ListCues)
			events.POST("/cues", staff, eventHandler.CreateCue)
			events.PATCH("/cues/:cueId", staff, eventHandler.UpdateCue)
			events.DELETE("/cues/:cueId", staff, eventHandler.DeleteCue)
			events.PATCH("/cues/:cueId/status", djUp, showHandler.UpdateCueStatus)

			events.GET("/show-order", djUp, showHandler.GetShowOrder)
			events.PUT("/show-order", staff, showHandler.ReorderShow)
			events.GET("/live-board", showHandler.LiveBoard)

			events.GET("/emergency", showHandler.GetEmergency)
			events.POST("/emergency", staff, showHandler.BroadcastEmergency)
			events.DELETE("/emergency", staff, showHandler.ClearEmergency)

			events.GET("/export", staff, exportHandler.StreamLineup)
			events.POST("/imports", staff, importHandler.CreateImport)
		}

		imports := api.Group("/imports", staff)
		{
			imports.GET("/:job_id", importHandler.GetImportStatus)
			imports.GET("/:job_id/errors", importHandler.GetImportErrors)
		}

		api.POST("/gcs/upload", artistUp, mediaHandler.Upload)
		api.GET("/media/*path", mediaHandler.Serve)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := http.StatusOK
		body := gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   "fame-api",
		}
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body["database"] = err.Error()
			} else {
				body["database"] = "ok"
			}
		}
		c.JSON(status, body)
	}
}

// websocketHandler joins a dashboard to the room of ?event_id=
func websocketHandler(hub *realtime.Hub, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub == nil {
			respondMessage(c, http.StatusServiceUnavailable, "realtime updates are disabled")
			return
		}
		eventID := c.Query("event_id")
		if eventID == "" {
			respondMessage(c, http.StatusBadRequest, "event_id is required")
			return
		}
		if err := hub.ServeWS(c.Writer, c.Request, eventID); err != nil {
			// The upgrader has already written the HTTP error
			log.Warn().Err(err).Str("event_id", eventID).Msg("WebSocket upgrade failed")
		}
	}
}
