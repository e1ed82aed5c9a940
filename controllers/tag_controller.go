package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/topic-slides-backend/models"
)

type tagInput struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
}

func (in *tagInput) normalize() string {
	in.Name = strings.TrimSpace(in.Name)
	in.Category = strings.TrimSpace(in.Category)
	if in.Name == "" || in.Category == "" {
		return "Tên và nhóm của thẻ bắt buộc"
	}
	return ""
}

// tagNameTaken kiểm tra trùng tên (không phân biệt hoa thường), bỏ qua excludeID
func tagNameTaken(c *gin.Context, name, excludeID string) bool {
	var count int64
	query := db(c).Model(&models.Tag{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	query.Count(&count)
	return count > 0
}

func GetTags(c *gin.Context) {
	var tags []models.Tag
	query := db(c).Model(&models.Tag{})

	// Nếu có query name thì lọc theo LIKE
	if name := c.Query("name"); name != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+name+"%")
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Order("category asc, name asc").Find(&tags).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách thẻ"})
		return
	}

	c.JSON(http.StatusOK, tags)
}

func CreateTag(c *gin.Context) {
	var input tagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := input.normalize(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if tagNameTaken(c, input.Name, "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tên thẻ đã tồn tại"})
		return
	}

	tag := models.Tag{Name: input.Name, Category: input.Category}
	if err := db(c).Create(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo thẻ"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo thẻ thành công",
		"tag":     tag,
	})
}

func UpdateTag(c *gin.Context) {
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var tag models.Tag
	if err := db(c).First(&tag, "id = ?", tagID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy thẻ"})
		return
	}

	var input tagInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := input.normalize(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if tagNameTaken(c, input.Name, tagID.String()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tên thẻ đã tồn tại"})
		return
	}

	if err := db(c).Model(&tag).Updates(map[string]interface{}{
		"name":     input.Name,
		"category": input.Category,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật thẻ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật thẻ thành công",
		"tag":     tag,
	})
}

// Xóa thẻ và các liên kết topic_tags
func DeleteTag(c *gin.Context) {
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var tag models.Tag
	if err := db(c).First(&tag, "id = ?", tagID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy thẻ"})
		return
	}

	if err := db(c).Model(&tag).Association("Topics").Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể gỡ thẻ khỏi topic"})
		return
	}
	if err := db(c).Delete(&tag).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa thẻ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa thẻ thành công"})
}
