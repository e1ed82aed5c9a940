package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// DBMiddleware gắn *gorm.DB vào context dưới key "db"
func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db.WithContext(c.Request.Context()))
		c.Next()
	}
}

// GetDB lấy *gorm.DB đã gắn bởi DBMiddleware, nếu không có thì dùng fallback
func GetDB(c *gin.Context, fallback *gorm.DB) *gorm.DB {
	if v, ok := c.Get("db"); ok {
		if db, ok := v.(*gorm.DB); ok {
			return db
		}
	}
	return fallback
}
