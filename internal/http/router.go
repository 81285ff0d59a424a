package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	intconfig "github.com/aw226929-cmd/iturnin-backend/internal/config"
	h "github.com/aw226929-cmd/iturnin-backend/internal/http/handlers"
	"github.com/aw226929-cmd/iturnin-backend/internal/http/middleware"
	"github.com/aw226929-cmd/iturnin-backend/internal/services"
)

// Services are the collaborators the routes dispatch to.
type Services struct {
	Bookings services.BookingService
	Webhooks services.WebhookService
	Docs     services.DocsService
}

func NewRouter(env intconfig.Env, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.Server.CORSAllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		zap.L().Warn("failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	system := h.SystemHandler{Origin: env.Maps.OriginAddress, Router: r}
	bookings := h.BookingHandler{Bookings: svc.Bookings}
	docs := h.DocsHandler{Docs: svc.Docs}
	webhooks := h.WebhookHandler{Webhooks: svc.Webhooks}
	auth := h.AuthHandler{
		JWTSecret:    env.Admin.JWTSecret,
		PasswordHash: env.Admin.PasswordHash,
		TokenTTL:     env.Admin.TokenTTL,
	}

	adminSecret := ""
	if env.Admin.Enabled() {
		adminSecret = env.Admin.JWTSecret
	}
	limiter := middleware.NewIPRateLimiter(env.Server.RateLimitPerMinute)

	r.GET("/health", system.Health)

	api := r.Group("/api")
	{
		if env.Server.GinMode != gin.ReleaseMode {
			api.GET("/routes", system.Routes)
		}

		b := api.Group("/bookings")
		b.GET("", middleware.RequireAdmin(adminSecret), bookings.List)
		b.GET("/:id", bookings.Get)
		b.GET("/:id/receipt", docs.Receipt)
		b.POST("", limiter.Middleware(), bookings.Create)

		api.POST("/quote", limiter.Middleware(), bookings.Quote)

		// Stripe
		api.POST("/stripe/webhook", webhooks.Stripe)

		// Admin
		api.POST("/admin/login", auth.Login)
	}

	return r
}
