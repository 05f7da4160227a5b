package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/inboxpilot/mailsync/api/handlers"
	"github.com/inboxpilot/mailsync/api/middleware"
	"github.com/inboxpilot/mailsync/internal/repository"
	"github.com/inboxpilot/mailsync/internal/tracing"
	"github.com/inboxpilot/mailsync/services"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(ctx context.Context, r *gin.Engine, s *services.Services, repos *repository.Repositories, apiKey string) {
	if s == nil {
		panic("Services cannot be nil")
	}
	if repos == nil {
		panic("Repositories cannot be nil")
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	r.GET("/health", handlers.HealthCheck)

	apiKeyMiddleware := middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  "X-MAILSYNC-API-KEY",
		ValidAPIKey: apiKey,
	})

	v1 := r.Group("/v1")
	v1.Use(tracing.TracingEnhancer(ctx, "/v1"))
	v1.Use(apiKeyMiddleware)
	{
		emails := v1.Group("/emails")
		{
			emails.POST("/send", handlers.SendEmail(s.EmailSender, repos.CredentialRepository))
			emails.GET("/:id", handlers.GetEmail(repos.EmailLogRepository))
		}

		threads := v1.Group("/threads")
		{
			threads.GET("/:id", handlers.GetThread(repos.EmailLogRepository))
		}
	}
}
