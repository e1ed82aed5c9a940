package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/vnkhanh/topic-slides-backend/config"
	"github.com/vnkhanh/topic-slides-backend/middleware"
	"github.com/vnkhanh/topic-slides-backend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(config.Models()...))

	prev := config.DB
	config.DB = db
	t.Cleanup(func() {
		config.DB = prev
		sqlDB.Close()
	})
	return db
}

// newTestRouter đăng ký các handler quản trị, không kèm xác thực
func newTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.DBMiddleware(db))

	r.GET("/health", HealthCheck)
	r.GET("/stats", GetDashboardStats)

	r.POST("/topics", CreateTopic)
	r.GET("/topics", GetTopics)
	r.GET("/topics/:id", GetTopicDetail)
	r.PUT("/topics/:id", UpdateTopic)
	r.DELETE("/topics/:id", DeleteTopic)
	r.PUT("/topics/:id/tags", SetTopicTags)
	r.POST("/topics/:id/thumbnail", UploadTopicThumbnail)
	r.POST("/topics/:id/slide-images", UploadSlideImage)
	r.GET("/topics/:id/progress", GetTopicProgress)

	r.GET("/tags", GetTags)
	r.POST("/tags", CreateTag)
	r.PUT("/tags/:id", UpdateTag)
	r.DELETE("/tags/:id", DeleteTag)

	r.GET("/topics/:id/slides", GetSlides)
	r.POST("/topics/:id/slides", CreateSlide)
	r.POST("/topics/:id/slides/reorder", ReorderSlides)
	r.PUT("/slides/:id", UpdateSlide)
	r.DELETE("/slides/:id", DeleteSlide)
	r.POST("/slides/:id/duplicate", DuplicateSlide)
	r.POST("/slides/:id/apply-template", ApplySlideTemplate)

	r.GET("/slide-templates", GetSlideTemplates)
	r.POST("/slide-templates", CreateSlideTemplate)
	r.DELETE("/slide-templates/:id", DeleteSlideTemplate)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func seedTopic(t *testing.T, db *gorm.DB, title string) models.Topic {
	t.Helper()
	topic := models.Topic{Title: title, Difficulty: models.DifficultyBeginner, EstimatedTime: 1}
	require.NoError(t, db.Create(&topic).Error)
	return topic
}
