package routes

import (
	"fleetops/internal/handlers"
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupUploadRoutes sets up the standalone upload endpoints
func SetupUploadRoutes(r *gin.RouterGroup, uploadHandler *handlers.UploadHandler, jwtSecret string) {
	uploads := r.Group("/uploads")
	uploads.Use(middleware.AuthRequired(jwtSecret))
	{
		uploads.POST("/grants", uploadHandler.RequestGrant)
		uploads.POST("/relay", uploadHandler.RelayUpload)
	}
}
