package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"membership-platform/backend/internal/api"
	"membership-platform/backend/pkg/config"
	"membership-platform/backend/pkg/di"
	"membership-platform/backend/pkg/errors"
	"membership-platform/backend/pkg/logger"
	"membership-platform/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	ctx       context.Context
}

// New creates a new router with the given container.
// Background work started by middleware stops when ctx is done.
func New(ctx context.Context, container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler(cfg.IsProduction()))
	engine.Use(errors.RecoveryWithLogger(cfg.IsProduction()))
	engine.Use(corsMiddleware(cfg.Security.AllowedOrigins))

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		ctx:       ctx,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	cfg := r.Config

	requireAuth := middleware.RequireIdentity(r.Container.IdentityResolver, cfg.JWT.CookieName)

	rateLimiter := middleware.NewRateLimiter(r.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        middleware.CredentialKey(cfg.JWT.CookieName, r.Container.JWTService),
	})
	limit := rateLimiter.Middleware(r.ctx)

	authHandler := api.NewAuthHandler(r.Container.UserService, cfg.JWT.CookieName, cfg.JWT.ExpiryHours, cfg.IsProduction())
	chatHandler := api.NewChatHandler(r.Container.ChatService, cfg.JWT.CookieName, cfg.Security.MaxBodySize)
	healthHandler := api.NewHealthHandler(r.Container.Health, cfg.Server.Env)

	r.Engine.GET("/health", healthHandler.Live)
	if r.Container.MetricsHandler != nil {
		r.Engine.GET("/metrics", gin.WrapH(r.Container.MetricsHandler))
	}

	// Unversioned routes are what the dashboard calls; /api/v1 mirrors them.
	for _, prefix := range []string{"/api", "/api/v1"} {
		group := r.Engine.Group(prefix)
		group.GET("/health", healthHandler.Components)
		authHandler.RegisterRoutes(group, requireAuth)
		chatHandler.RegisterRoutes(group, limit)
	}
}

func corsMiddleware(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	origins := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			if _, ok := origins[origin]; ok {
				// Credentialed requests need the exact origin echoed back.
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				c.Writer.Header().Add("Vary", "Origin")
			} else if allowAll {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			}
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Authorization, Origin, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
