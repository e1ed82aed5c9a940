package main

import (
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/topic-slides-backend/config"
	"github.com/vnkhanh/topic-slides-backend/routes"
	"github.com/vnkhanh/topic-slides-backend/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("Không tìm thấy file .env")
	}

	config.InitDB()

	// Dọn slide/tiến độ học không còn topic mỗi 6 giờ
	stopCleanup := utils.StartCleanupJob(config.DB, 6*time.Hour)
	defer stopCleanup()

	r := gin.Default()

	//Bật CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     config.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	r = routes.SetupRouter(r, config.DB)

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Topic slides admin server is running")
	})

	port := config.GetEnv("PORT", "8080")
	log.Println("Server running at Port:" + port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
