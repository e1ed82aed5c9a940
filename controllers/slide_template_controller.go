package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/services"
	"github.com/vnkhanh/topic-slides-backend/ws"
)

// GET /slide-templates?content_type=
func GetSlideTemplates(c *gin.Context) {
	var templates []models.SlideTemplate
	query := db(c).Model(&models.SlideTemplate{})

	if ct := c.Query("content_type"); ct != "" {
		query = query.Where("content_type = ?", ct)
	}

	if err := query.Order("created_at desc").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách template"})
		return
	}

	c.JSON(http.StatusOK, templates)
}

// POST /slide-templates — lưu nội dung slide hiện tại thành template
func CreateSlideTemplate(c *gin.Context) {
	var input struct {
		Name        string          `json:"name" binding:"required"`
		ContentType string          `json:"content_type" binding:"required"`
		Content     json.RawMessage `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tên template bắt buộc"})
		return
	}
	ct := models.ContentType(input.ContentType)
	if !ct.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Loại slide không hợp lệ"})
		return
	}
	content, err := services.NormalizeSlideContent(ct, input.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nội dung template không hợp lệ", "detail": err.Error()})
		return
	}

	template := models.SlideTemplate{
		Name:        name,
		ContentType: ct,
		Content:     content,
		CreatedBy:   currentUserID(c),
	}
	if err := db(c).Create(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu template"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Lưu template thành công",
		"template": template,
	})
}

// DELETE /slide-templates/:id
func DeleteSlideTemplate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	res := db(c).Delete(&models.SlideTemplate{}, "id = ?", id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa template"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xóa template thành công"})
}

// POST /slides/:id/apply-template — chỉ áp dụng khi cùng loại slide
func ApplySlideTemplate(c *gin.Context) {
	slideID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		TemplateID string `json:"template_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var slide models.Slide
	if err := db(c).First(&slide, "id = ?", slideID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy slide"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy slide"})
		return
	}

	var template models.SlideTemplate
	if err := db(c).First(&template, "id = ?", input.TemplateID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy template"})
		return
	}

	if template.ContentType != slide.ContentType {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Template khác loại với slide"})
		return
	}

	if err := db(c).Model(&slide).Update("content", services.CloneContent(template.Content)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể áp dụng template"})
		return
	}
	slide.Content = services.CloneContent(template.Content)

	ws.BroadcastSlidesChanged(slide.TopicID.String(), "updated", "")
	c.JSON(http.StatusOK, gin.H{
		"message": "Áp dụng template thành công",
		"slide":   slide,
	})
}
