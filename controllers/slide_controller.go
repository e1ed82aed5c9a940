package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/services"
	"github.com/vnkhanh/topic-slides-backend/ws"
)

// slideErrorStatus ánh xạ lỗi của sequencer sang HTTP status
func slideErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrStateInconsistency):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func selectedID(seq *services.SlideSequencer) *uuid.UUID {
	if id, ok := seq.SelectedSlideID(); ok {
		return &id
	}
	return nil
}

func selectedIDString(seq *services.SlideSequencer) string {
	if id, ok := seq.SelectedSlideID(); ok {
		return id.String()
	}
	return ""
}

// respondSlides luôn trả kèm danh sách slide hiện tại để client đồng bộ lại
func respondSlides(c *gin.Context, status int, seq *services.SlideSequencer, extra gin.H) {
	body := gin.H{
		"topic_id":          seq.TopicID(),
		"slides":            seq.Slides(),
		"selected_slide_id": selectedID(seq),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

func respondSlideError(c *gin.Context, seq *services.SlideSequencer, err error, msg string) {
	respondSlides(c, slideErrorStatus(err), seq, gin.H{"error": msg, "detail": err.Error()})
}

// openSequencer kiểm tra topic tồn tại rồi nạp danh sách slide
func openSequencer(c *gin.Context, topicID uuid.UUID) (*services.SlideSequencer, bool) {
	var count int64
	if err := db(c).Model(&models.Topic{}).Where("id = ?", topicID).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể kiểm tra topic"})
		return nil, false
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return nil, false
	}

	seq := services.NewSlideSequencer(services.NewGormSlideGateway(db(c)), topicID)
	if err := seq.Refresh(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách slide"})
		return nil, false
	}

	// Slide đang chọn phía client (nếu còn tồn tại)
	if raw := c.Query("selected_slide_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			_ = seq.SelectSlide(id)
		}
	}
	return seq, true
}

// openSequencerForSlide tìm topic của slide rồi mở sequencer cho topic đó
func openSequencerForSlide(c *gin.Context) (*services.SlideSequencer, uuid.UUID, bool) {
	slideID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, uuid.Nil, false
	}
	slide, err := services.NewGormSlideGateway(db(c)).GetSlide(c.Request.Context(), slideID)
	if errors.Is(err, services.ErrSlideNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy slide"})
		return nil, uuid.Nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy slide"})
		return nil, uuid.Nil, false
	}
	seq, ok := openSequencer(c, slide.TopicID)
	return seq, slideID, ok
}

// GET /topics/:id/slides
func GetSlides(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	seq, ok := openSequencer(c, topicID)
	if !ok {
		return
	}
	respondSlides(c, http.StatusOK, seq, nil)
}

// POST /topics/:id/slides
func CreateSlide(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		ContentType string `json:"content_type"`
		Name        string `json:"name"`
	}
	// body rỗng được chấp nhận: tạo slide content với tên ngẫu nhiên
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	seq, ok := openSequencer(c, topicID)
	if !ok {
		return
	}

	slide, err := seq.CreateSlide(c.Request.Context(), topicID,
		models.ContentType(strings.TrimSpace(input.ContentType)), strings.TrimSpace(input.Name))
	if err != nil {
		respondSlideError(c, seq, err, "Không thể tạo slide mới")
		return
	}

	ws.BroadcastSlidesChanged(topicID.String(), "created", selectedIDString(seq))
	respondSlides(c, http.StatusCreated, seq, gin.H{
		"message": "Tạo slide thành công",
		"slide":   slide,
	})
}

// POST /slides/:id/duplicate
func DuplicateSlide(c *gin.Context) {
	seq, slideID, ok := openSequencerForSlide(c)
	if !ok {
		return
	}

	dup, err := seq.DuplicateSlide(c.Request.Context(), slideID)
	if err != nil {
		respondSlideError(c, seq, err, "Không thể nhân bản slide")
		return
	}

	ws.BroadcastSlidesChanged(seq.TopicID().String(), "duplicated", selectedIDString(seq))
	respondSlides(c, http.StatusCreated, seq, gin.H{
		"message": "Nhân bản slide thành công",
		"slide":   dup,
	})
}

type reorderInput struct {
	MovedID  uuid.UUID   `json:"moved_id" binding:"required"`
	TargetID uuid.UUID   `json:"target_id" binding:"required"`
	SlideIDs []uuid.UUID `json:"slide_ids"`
}

// POST /topics/:id/slides/reorder
func ReorderSlides(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input reorderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seq, ok := openSequencer(c, topicID)
	if !ok {
		return
	}

	if err := seq.ReorderSlide(c.Request.Context(), input.MovedID, input.TargetID, input.SlideIDs); err != nil {
		respondSlideError(c, seq, err, "Không thể sắp xếp lại slide")
		return
	}

	if input.MovedID != input.TargetID {
		ws.BroadcastSlidesChanged(topicID.String(), "reordered", "")
	}
	respondSlides(c, http.StatusOK, seq, gin.H{"message": "Sắp xếp slide thành công"})
}

// DELETE /slides/:id?selected_slide_id=
func DeleteSlide(c *gin.Context) {
	seq, slideID, ok := openSequencerForSlide(c)
	if !ok {
		return
	}

	if err := seq.DeleteSlide(c.Request.Context(), slideID); err != nil {
		respondSlideError(c, seq, err, "Không thể xóa slide")
		return
	}

	ws.BroadcastSlidesChanged(seq.TopicID().String(), "deleted", "")
	respondSlides(c, http.StatusOK, seq, gin.H{"message": "Xóa slide thành công"})
}

// PUT /slides/:id — lưu từ trình soạn thảo
func UpdateSlide(c *gin.Context) {
	slideID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		Name        *string         `json:"name"`
		ContentType *string         `json:"content_type"`
		Content     json.RawMessage `json:"content"`
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

	contentType := slide.ContentType
	if input.ContentType != nil {
		contentType = models.ContentType(strings.TrimSpace(*input.ContentType))
		if !contentType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Loại slide không hợp lệ"})
			return
		}
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}

	switch {
	case len(input.Content) > 0:
		content, err := services.NormalizeSlideContent(contentType, input.Content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Nội dung slide không hợp lệ", "detail": err.Error()})
			return
		}
		updates["content"] = content
	case contentType != slide.ContentType:
		// đổi loại slide mà không gửi nội dung: dùng nội dung rỗng của loại mới
		updates["content"] = services.DefaultSlideContent(contentType)
	}
	if contentType != slide.ContentType {
		updates["content_type"] = contentType
	}

	if len(updates) > 0 {
		if err := db(c).Model(&slide).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu slide"})
			return
		}
	}

	if err := db(c).First(&slide, "id = ?", slideID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tải lại slide"})
		return
	}

	ws.BroadcastSlidesChanged(slide.TopicID.String(), "updated", "")
	c.JSON(http.StatusOK, gin.H{
		"message": "Lưu slide thành công",
		"slide":   slide,
	})
}
