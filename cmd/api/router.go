package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bloggy-backend/internal/shared/middleware"
	"bloggy-backend/pkg/container"
)

func setupRouter(c *container.Container) *gin.Engine {
	if c.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())

	auth := middleware.AuthMiddleware(c.JWTManager)
	optionalAuth := middleware.OptionalAuth(c.JWTManager)

	router.GET("/health", func(ctx *gin.Context) {
		if err := c.DB.HealthCheck(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": c.Config.App.Version,
		})
	})

	v1 := router.Group("/api/v1")
	{
		// ==================== Auth ====================
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", c.UserHandler.Register)
			authGroup.POST("/login", c.UserHandler.Login)
			authGroup.POST("/refresh", c.UserHandler.Refresh)
		}

		// ==================== Users ====================
		users := v1.Group("/users")
		{
			users.GET("/me", auth, c.UserHandler.GetMe)
			users.GET("/:username", c.UserHandler.GetProfile)
			users.GET("/:username/entries", optionalAuth, c.EntryHandler.ListByUser)
		}

		// ==================== Feed ====================
		v1.GET("/feed", optionalAuth, c.FeedHandler.Get)

		// ==================== Entries ====================
		entries := v1.Group("/entries")
		{
			entries.GET("/:id", optionalAuth, c.EntryHandler.Get)
			entries.GET("/:id/thread", optionalAuth, c.EntryHandler.GetThread)
			entries.POST("", auth, c.EntryHandler.Create)
			entries.PUT("/:id", auth, c.EntryHandler.Update)
			entries.DELETE("/:id", auth, c.EntryHandler.Delete)
			entries.POST("/:id/vote", auth, c.EntryHandler.Vote)
		}

		// ==================== Tags ====================
		tags := v1.Group("/tags")
		{
			tags.GET("", optionalAuth, c.TagHandler.List)
			tags.GET("/:name", optionalAuth, c.TagHandler.Get)
			tags.POST("/:name/observe", auth, c.TagHandler.ToggleObserve)
			tags.POST("/:name/blacklist", auth, c.TagHandler.ToggleBlacklist)
		}

		// ==================== Notifications ====================
		notifications := v1.Group("/notifications", auth)
		{
			notifications.GET("", c.NotificationHandler.List)
			notifications.GET("/unread-count", c.NotificationHandler.UnreadCount)
			notifications.POST("/:id/read", c.NotificationHandler.MarkRead)
			notifications.POST("/read-all", c.NotificationHandler.MarkAllRead)
		}

		// ==================== Private messages ====================
		messages := v1.Group("/messages", auth)
		{
			messages.POST("", c.MessageHandler.Send)
			messages.GET("", c.MessageHandler.Inbox)
			messages.GET("/sent", c.MessageHandler.Sent)
			messages.GET("/unread-count", c.MessageHandler.UnreadCount)
			messages.POST("/:id/read", c.MessageHandler.MarkRead)
			messages.POST("/read-all", c.MessageHandler.MarkAllRead)
		}
	}

	return router
}
