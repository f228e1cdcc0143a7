package routes

import (
	"fleetops/internal/handlers"
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupMovementRoutes sets up routes for the movement workflow
func SetupMovementRoutes(r *gin.RouterGroup, movementHandler *handlers.MovementHandler, jwtSecret string) {
	movements := r.Group("/movements")
	movements.Use(middleware.AuthRequired(jwtSecret))
	{
		// Reads
		movements.GET("/search", movementHandler.SearchMovements)
		movements.GET("/:id", movementHandler.GetMovement)
		movements.GET("/:id/route", movementHandler.GetRoute)

		// Workflow transitions
		movements.PUT("/:id/prepare", movementHandler.PrepareMovement)
		movements.PUT("/:id/start", movementHandler.StartMovement)
		movements.PUT("/:id/complete", movementHandler.CompleteMovement)

		// Photo evidence
		movements.POST("/:id/photos", movementHandler.UploadPhotos)

		// Transit telemetry
		movements.POST("/:id/positions", movementHandler.ReportPosition)
	}

	// Operator-only operations
	managed := r.Group("/movements")
	managed.Use(middleware.AuthRequired(jwtSecret), middleware.ManagerRequired())
	{
		managed.POST("/", movementHandler.CreateMovement)
		managed.PUT("/:id/assign", movementHandler.AssignDriver)
		managed.DELETE("/:id", movementHandler.DeleteMovement)
	}

	admin := r.Group("/movements")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.AdminRequired())
	{
		admin.PUT("/:id/cancel", movementHandler.CancelMovement)
	}
}
