package router

import (
	"github.com/gin-gonic/gin"

	"textmill/internal/handler"
	"textmill/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	extractH *handler.ExtractHandler,
	adminH *handler.AdminHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	extract := v1.Group("/extract")
	extract.POST("/upload", extractH.Upload)
	extract.POST("/url", extractH.FromURL)

	v1.GET("/download/*ref", extractH.Download)
	v1.POST("/cleanup", adminH.Cleanup)

	return r
}
