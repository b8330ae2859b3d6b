package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/heartcheck/internal/domain/auth"
	"github.com/yanqian/heartcheck/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler, authHandler *AuthHandler, authSvc auth.Service) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestLogger(handler.logger),
		corsMiddleware(nil),
		errorHandlingMiddleware(handler.logger),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		// Assessments compute for everyone; a valid token additionally
		// persists the record.
		api.POST("/assessments", optionalAuthMiddleware(authSvc), handler.Assess)
		api.POST("/assessments/whatif", handler.WhatIf)
		api.POST("/assessments/explain", handler.Explain)

		api.POST("/reports", handler.RenderReport)
		api.POST("/reports/export", handler.ExportReport)
		api.POST("/reports/share", handler.ShareReport)
		api.GET("/reports/shared/:token", handler.SharedReport)

		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.GET("/google/login", authHandler.GoogleLogin)
			authGroup.GET("/google/callback", authHandler.GoogleCallback)
			authGroup.GET("/profile", authMiddleware(authSvc), authHandler.Profile)
			authGroup.POST("/logout", authMiddleware(authSvc), authHandler.Logout)
		}

		history := api.Group("/history", authMiddleware(authSvc))
		{
			history.GET("", handler.History)
			history.GET("/:id/similar", handler.SimilarProfiles)
		}
	}

	server := &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        withRetry(router, cfg.HTTP.Retry, handler.logger),
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	return server
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "latency_ms", latency.Milliseconds())
	}
}
