// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pressroomhq/pressroom-go/internal/application/container"
	"github.com/pressroomhq/pressroom-go/internal/presentation/http/handlers"
	"github.com/pressroomhq/pressroom-go/internal/presentation/http/middleware"
	"github.com/pressroomhq/pressroom-go/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Processed ad creatives are served straight off disk.
	r.Static("/media/creatives", config.CreativesBasePath)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	viewHandlers := handlers.NewViewHandlers(container.ViewService, container.AnalyticsService, container.Logger)
	adHandlers := handlers.NewAdHandlers(container.AdService, container.Logger)
	postHandlers := handlers.NewPostHandlers(container.PostService, container.Logger)
	flagHandlers := handlers.NewFlagHandlers(container.FlagService)
	authHandlers := handlers.NewAuthHandlers(container.AuthService)
	liveHandlers := handlers.NewLiveHandlers(container.Broadcaster, container.Logger)
	adminHandlers := handlers.NewAdminHandlers(
		container.AdminService,
		container.AnalyticsService,
		container.PostService,
		container.AdService,
		container.FlagService,
		container.Cache,
		container.Logger,
	)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandlers.Login)

		api.POST("/views", viewHandlers.RecordView)
		api.GET("/views/:subjectId", viewHandlers.GetSubjectStats)

		api.POST("/ads/select", adHandlers.SelectPlacements)

		api.GET("/posts", postHandlers.GetPublicPosts)
		api.GET("/flags/:key", flagHandlers.GetFlag)

		admin := api.Group("/admin")
		// The live feed authenticates its own handshake via query token.
		admin.GET("/live", liveHandlers.Stream)
		admin.Use(middleware.AdminAuthMiddleware())
		{
			admin.GET("/posts", postHandlers.GetPreviewPosts)

			admin.GET("/ads", adminHandlers.ListPlacements)
			admin.POST("/ads", adminHandlers.CreatePlacement)
			admin.GET("/ads/:id", adminHandlers.GetPlacement)
			admin.PUT("/ads/:id", adminHandlers.UpdatePlacement)
			admin.DELETE("/ads/:id", adminHandlers.DeletePlacement)

			admin.GET("/flags", adminHandlers.ListFlags)
			admin.PUT("/flags/:key", adminHandlers.UpsertFlag)
			admin.DELETE("/flags/:key", adminHandlers.DeleteFlag)

			admin.GET("/analytics", adminHandlers.GetAnalytics)

			admin.POST("/cache/invalidate", adminHandlers.InvalidateCache)
			admin.GET("/cache/debug", adminHandlers.DebugCache)
		}
	}

	return r
}
