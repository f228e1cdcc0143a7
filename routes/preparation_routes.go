package routes

import (
	"fleetops/internal/handlers"
	"fleetops/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupPreparationRoutes sets up routes for the preparation workflow
func SetupPreparationRoutes(r *gin.RouterGroup, preparationHandler *handlers.PreparationHandler, jwtSecret string) {
	preparations := r.Group("/preparations")
	preparations.Use(middleware.AuthRequired(jwtSecret))
	{
		preparations.GET("/search", preparationHandler.SearchPreparations)
		preparations.GET("/:id", preparationHandler.GetPreparation)
	}

	// Task execution requires the preparator role
	tasks := r.Group("/preparations")
	tasks.Use(middleware.AuthRequired(jwtSecret), middleware.PreparatorRequired())
	{
		tasks.PUT("/:id/tasks/:task/start", preparationHandler.StartTask)
		tasks.PUT("/:id/tasks/:task/complete", preparationHandler.CompleteTask)
		tasks.POST("/:id/tasks/:task/photos", preparationHandler.AddTaskPhoto)
		tasks.PUT("/:id/complete", preparationHandler.CompletePreparation)
	}

	managed := r.Group("/preparations")
	managed.Use(middleware.AuthRequired(jwtSecret), middleware.ManagerRequired())
	{
		managed.POST("/", preparationHandler.CreatePreparation)
	}
}
