package main

import (
	"net/http"

	"deliveryops-backend/internal/shared/middleware"
	"deliveryops-backend/pkg/container"

	"github.com/gin-gonic/gin"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		imports := v1.Group("/imports")
		{
			imports.GET("/template", c.ImportHandler.Template)
			imports.POST("", c.ImportHandler.Upload)
			imports.GET("/:id", c.ImportHandler.Get)
			imports.PATCH("/:id/rows/:index", c.ImportHandler.EditRow)
			imports.POST("/:id/submit", c.ImportHandler.Submit)
			imports.POST("/:id/confirm", c.ImportHandler.Confirm)
			imports.DELETE("/:id", c.ImportHandler.Close)
		}

		v1.POST("/locations/refresh", c.LocationHandler.Refresh)
	}

	return router
}

func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": c.Config.App.Name,
		}
		if err := c.Cache.Ping(ctx.Request.Context()); err != nil {
			status["cache"] = "unreachable"
		} else {
			status["cache"] = "ok"
		}
		ctx.JSON(http.StatusOK, status)
	}
}
