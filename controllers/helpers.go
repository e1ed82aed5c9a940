package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/config"
	"github.com/vnkhanh/topic-slides-backend/middleware"
)

// db ưu tiên *gorm.DB gắn bởi DBMiddleware, không có thì dùng config.DB
func db(c *gin.Context) *gorm.DB {
	return middleware.GetDB(c, config.DB)
}

// parseIDParam đọc :name dạng UUID, trả 400 nếu sai định dạng
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID không hợp lệ"})
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID lấy user_id do AuthMiddleware gắn vào context (nếu có)
func currentUserID(c *gin.Context) *uuid.UUID {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		return nil
	}
	parsed, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil
	}
	return &parsed
}

// pagination đọc ?page=&limit= với mặc định 1 và 10
func pagination(c *gin.Context) (page, limit, offset int) {
	page, limit = 1, 10
	if p := c.Query("page"); p != "" {
		fmt.Sscanf(p, "%d", &page)
	}
	if l := c.Query("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}
