package router

import (
	"github.com/gin-gonic/gin"
	"github.com/novatix/novatix-backend/internal/di"
	"github.com/novatix/novatix-backend/pkg/config"
	"github.com/novatix/novatix-backend/pkg/middleware"
)

// New builds the gin engine with the full middleware chain and all routes
func New(cfg *config.Config, c *di.Container, audit *middleware.AuditLogger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	// Probes stay outside auth
	r.GET("/health", c.HealthHandler.Health)
	r.GET("/ready", c.HealthHandler.Ready)

	api := r.Group("/api/v1")
	api.Use(middleware.JWTMiddleware(&middleware.JWTConfig{Secret: cfg.JWT.Secret}))
	if audit != nil {
		api.Use(middleware.AuditMiddleware(audit))
	}

	events := api.Group("/events/:id")
	{
		events.GET("/co-organizers", c.CollabHandler.List)
		events.POST("/co-organizers", c.CollabHandler.Invite)
		events.POST("/co-organizers/:orgId/respond", c.CollabHandler.Respond)
		events.PATCH("/co-organizers/:orgId", c.CollabHandler.Amend)
		events.DELETE("/co-organizers/:orgId", c.CollabHandler.Remove)
		events.GET("/revenue-split", c.CollabHandler.RevenueSplit)
	}

	ai := api.Group("/ai")
	if cfg.AI.RateLimitPerMinute > 0 {
		rps := cfg.AI.RateLimitPerMinute / 60
		if rps == 0 {
			rps = 1
		}
		// Per-user limit; generation calls are expensive upstream
		ai.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: rps,
			BurstSize:         cfg.AI.RateLimitPerMinute,
			UseRedis:          c.Redis != nil,
			RedisClient:       c.Redis,
			KeyPrefix:         "ratelimit:ai:",
		}))
	}
	{
		ai.POST("/generate", c.GenerationHandler.Generate)
		ai.GET("/operations", c.GenerationHandler.ListOperations)
		ai.GET("/credits", c.GenerationHandler.Credits)

		admin := ai.Group("")
		admin.Use(middleware.RequireRole("admin"))
		admin.POST("/credits/topup", c.GenerationHandler.TopUp)
		admin.POST("/credits/reset", c.GenerationHandler.Reset)
	}

	return r
}
