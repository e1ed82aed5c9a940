package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vnkhanh/topic-slides-backend/controllers"
	"github.com/vnkhanh/topic-slides-backend/middleware"
	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/ws"
	"gorm.io/gorm"
)

func SetupRouter(r *gin.Engine, db *gorm.DB) *gin.Engine {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", middleware.DBMiddleware(db), controllers.HealthCheck)

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.Use(middleware.DBMiddleware(db))
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.POST("/logingoogle", controllers.GoogleLogin)
		auth.GET("/me", middleware.AuthMiddleware(), controllers.Me)
		auth.PUT("/change-password", middleware.AuthMiddleware(), controllers.ChangePassword)
	}

	admin := api.Group("/admin")
	{
		admin.Use(middleware.DBMiddleware(db), middleware.AuthMiddleware(),
			middleware.RequireRoles(string(models.RoleAdmin), string(models.RoleLecturer)))

		admin.POST("/lecturers", controllers.AdminCreateLecturer)
		admin.GET("/stats", controllers.GetDashboardStats)

		//Quản lý chủ đề
		admin.POST("/topics", controllers.CreateTopic)
		admin.GET("/topics", controllers.GetTopics)
		admin.GET("/topics/:id", controllers.GetTopicDetail)
		admin.PUT("/topics/:id", controllers.UpdateTopic)
		admin.DELETE("/topics/:id", controllers.DeleteTopic)
		admin.PUT("/topics/:id/tags", controllers.SetTopicTags)
		admin.POST("/topics/:id/thumbnail", controllers.UploadTopicThumbnail)
		admin.POST("/topics/:id/slide-images", controllers.UploadSlideImage)
		admin.GET("/topics/:id/progress", controllers.GetTopicProgress)

		//Quản lý thẻ
		admin.GET("/tags", controllers.GetTags)
		admin.POST("/tags", controllers.CreateTag)
		admin.PUT("/tags/:id", controllers.UpdateTag)
		admin.DELETE("/tags/:id", controllers.DeleteTag)

		//Quản lý slide
		admin.GET("/topics/:id/slides", controllers.GetSlides)
		admin.POST("/topics/:id/slides", controllers.CreateSlide)
		admin.POST("/topics/:id/slides/reorder", controllers.ReorderSlides)
		admin.PUT("/slides/:id", controllers.UpdateSlide)
		admin.DELETE("/slides/:id", controllers.DeleteSlide)
		admin.POST("/slides/:id/duplicate", controllers.DuplicateSlide)
		admin.POST("/slides/:id/apply-template", controllers.ApplySlideTemplate)

		//Mẫu slide
		admin.GET("/slide-templates", controllers.GetSlideTemplates)
		admin.POST("/slide-templates", controllers.CreateSlideTemplate)
		admin.DELETE("/slide-templates/:id", controllers.DeleteSlideTemplate)
	}

	// WebSocket
	r.GET("/ws/topics/:id", middleware.DBMiddleware(db), ws.HandleTopicWebSocket)
	r.GET("/ws/status", middleware.DBMiddleware(db), ws.HandleGlobalWebSocket)

	return r
}
