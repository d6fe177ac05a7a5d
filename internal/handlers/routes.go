package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/company-task-api/internal/errors"
	"github.com/yukikurage/company-task-api/internal/middleware"
)

// Routes bundles the handlers mounted under /api.
type Routes struct {
	Auth        *AuthHandler
	Tasks       *TaskHandler
	Company     *CompanyHandler
	Analytics   *AnalyticsHandler
	RequireAuth gin.HandlerFunc
}

// Register mounts the health check and every API route on r.
func (rt Routes) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Company Task API is running",
		})
	})

	r.NoRoute(func(c *gin.Context) {
		apierrors.NotFound(c, "")
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rt.Auth.Register)
			auth.POST("/login", rt.Auth.Login)
			auth.POST("/logout", rt.Auth.Logout)
			auth.POST("/complete-registration", rt.RequireAuth, rt.Auth.CompleteRegistration)
			auth.GET("/me", rt.RequireAuth, rt.Auth.GetCurrentUser)
		}

		admin := api.Group("/admin")
		{
			admin.POST("/login", rt.Auth.AdminLogin)
			admin.GET("/employees", rt.RequireAuth, middleware.RequireAdmin(), rt.Company.ListEmployees)
			admin.POST("/tasks", rt.RequireAuth, middleware.RequireAdmin(), rt.Tasks.CreateAssignedTask)
		}

		company := api.Group("/company")
		company.Use(rt.RequireAuth)
		{
			company.GET("", rt.Company.GetCompany)
			company.GET("/employees", rt.Company.ListEmployees)
		}

		api.GET("/stats", rt.RequireAuth, rt.Analytics.Stats)
		api.GET("/analytics/tasks", rt.RequireAuth, rt.Analytics.TaskAnalytics)

		tasks := api.Group("/tasks")
		tasks.Use(rt.RequireAuth)
		{
			tasks.GET("", rt.Tasks.ListActive)
			tasks.GET("/completed", rt.Tasks.ListCompleted)
			tasks.GET("/search", rt.Tasks.Search)
			tasks.POST("", rt.Tasks.CreateTask)
			tasks.POST("/generate", middleware.RequireAdmin(), rt.Tasks.GenerateTasks)
			tasks.GET("/:id", middleware.RequireTaskID(), rt.Tasks.GetTask)
			tasks.PATCH("/:id", middleware.RequireTaskID(), rt.Tasks.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireTaskID(), rt.Tasks.DeleteTask)
			tasks.POST("/:id/assign", middleware.RequireTaskID(), rt.Tasks.AssignTask)
			tasks.POST("/:id/complete", middleware.RequireTaskID(), rt.Tasks.CompleteTask)
			tasks.POST("/:id/comments", middleware.RequireTaskID(), rt.Tasks.AddComment)
		}
	}
}
