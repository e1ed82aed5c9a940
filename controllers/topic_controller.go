package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/vnkhanh/topic-slides-backend/models"
	"github.com/vnkhanh/topic-slides-backend/utils"
	"github.com/vnkhanh/topic-slides-backend/ws"
)

type topicInput struct {
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Difficulty    string   `json:"difficulty"`
	EstimatedTime *int     `json:"estimated_time"`
	ThumbnailURL  *string  `json:"thumbnail_url"`
	TagIDs        []string `json:"tag_ids"`
}

// validate chuẩn hóa input, trả về thông báo lỗi nếu không hợp lệ
func (in *topicInput) validate() string {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return "Tiêu đề topic bắt buộc"
	}
	in.Description = strings.TrimSpace(in.Description)
	if in.Difficulty == "" {
		in.Difficulty = string(models.DifficultyBeginner)
	}
	if !models.Difficulty(in.Difficulty).Valid() {
		return "Độ khó phải là beginner, intermediate hoặc advanced"
	}
	if in.EstimatedTime != nil && *in.EstimatedTime < 1 {
		return "Thời gian ước tính phải lớn hơn 0"
	}
	return ""
}

// loadTags trả về các tag theo danh sách ID, lỗi nếu có ID không tồn tại
func loadTags(tx *gorm.DB, ids []string) ([]models.Tag, error) {
	tags := []models.Tag{}
	if len(ids) == 0 {
		return tags, nil
	}
	uuids := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("tag_id không hợp lệ: " + raw)
		}
		uuids = append(uuids, id)
	}
	if err := tx.Where("id IN ?", uuids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(uuids) {
		return nil, errors.New("có tag không tồn tại")
	}
	return tags, nil
}

// Create Topic
func CreateTopic(c *gin.Context) {
	var input topicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := input.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	tags, err := loadTags(db(c), input.TagIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	topic := models.Topic{
		Title:         input.Title,
		Description:   input.Description,
		Difficulty:    models.Difficulty(input.Difficulty),
		EstimatedTime: 1,
		ThumbnailURL:  input.ThumbnailURL,
		Slug:          slug.Make(input.Title),
		CreatedBy:     currentUserID(c),
		Tags:          tags,
	}
	if input.EstimatedTime != nil {
		topic.EstimatedTime = *input.EstimatedTime
	}

	if err := db(c).Create(&topic).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo topic"})
		return
	}

	ws.BroadcastTopicListChanged()
	c.JSON(http.StatusCreated, gin.H{
		"message": "Tạo topic thành công",
		"topic":   topic,
	})
}

// Get All Topics (có search, filter, pagination)
func GetTopics(c *gin.Context) {
	var topics []models.Topic
	query := db(c).Model(&models.Topic{})

	// --- Tìm kiếm theo tiêu đề ---
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(title) LIKE LOWER(?)", "%"+search+"%")
	}

	// --- Lọc theo độ khó ---
	if difficulty := c.Query("difficulty"); difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}

	// --- Lọc theo tag ---
	if tagID := c.Query("tag_id"); tagID != "" {
		query = query.Where("id IN (?)",
			db(c).Table("topic_tags").Select("topic_id").Where("tag_id = ?", tagID))
	}

	page, limit, offset := pagination(c)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm topic"})
		return
	}

	if err := query.Preload("Tags").Limit(limit).Offset(offset).Order("created_at desc").Find(&topics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy danh sách topic"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       topics,
		"page":       page,
		"limit":      limit,
		"total":      total,
		"totalPages": (total + int64(limit) - 1) / int64(limit),
	})
}

// Chi tiết topic kèm tags và số slide
func GetTopicDetail(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var topic models.Topic
	if err := db(c).Preload("Tags").First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	var slideCount int64
	if err := db(c).Model(&models.Slide{}).Where("topic_id = ?", topicID).Count(&slideCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đếm slide"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topic":       topic,
		"slide_count": slideCount,
	})
}

// Update Topic
func UpdateTopic(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var topic models.Topic
	if err := db(c).First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	var input topicInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if msg := input.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	topic.Title = input.Title
	topic.Slug = slug.Make(input.Title)
	topic.Description = input.Description
	topic.Difficulty = models.Difficulty(input.Difficulty)
	if input.EstimatedTime != nil {
		topic.EstimatedTime = *input.EstimatedTime
	}
	if input.ThumbnailURL != nil {
		topic.ThumbnailURL = input.ThumbnailURL
	}
	topic.UpdatedBy = currentUserID(c)

	// tag_ids không gửi lên thì giữ nguyên tag cũ
	var tags []models.Tag
	if input.TagIDs != nil {
		loaded, err := loadTags(db(c), input.TagIDs)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tags = loaded
	}

	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags").Save(&topic).Error; err != nil {
			return err
		}
		if input.TagIDs == nil {
			return nil
		}
		return tx.Model(&topic).Association("Tags").Replace(tags)
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật topic"})
		return
	}

	db(c).Preload("Tags").First(&topic, "id = ?", topicID)
	ws.BroadcastTopicListChanged()
	c.JSON(http.StatusOK, topic)
}

// PUT /topics/:id/tags — thay toàn bộ tag của topic
func SetTopicTags(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input struct {
		TagIDs []string `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var topic models.Topic
	if err := db(c).First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	tags, err := loadTags(db(c), input.TagIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db(c).Model(&topic).Association("Tags").Replace(tags); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật tag của topic"})
		return
	}

	ws.BroadcastTopicListChanged()
	c.JSON(http.StatusOK, gin.H{
		"message": "Cập nhật tag thành công",
		"tags":    tags,
	})
}

// POST /topics/:id/thumbnail (multipart, field "file")
func UploadTopicThumbnail(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var topic models.Topic
	if err := db(c).First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu file ảnh"})
		return
	}
	if !utils.IsImageUpload(fileHeader) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chỉ chấp nhận file ảnh"})
		return
	}

	publicURL, err := utils.UploadImageToSupabase(fileHeader, uuid.New().String())
	if err != nil {
		log.Printf("Upload thumbnail thất bại: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload ảnh"})
		return
	}

	old := topic.ThumbnailURL
	if err := db(c).Model(&topic).Update("thumbnail_url", publicURL).Error; err != nil {
		if derr := utils.DeleteFileFromSupabase(publicURL); derr != nil {
			log.Printf("Không thể xóa ảnh vừa upload %s: %v", publicURL, derr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lưu ảnh cho topic"})
		return
	}
	if old != nil && *old != "" {
		if err := utils.DeleteFileFromSupabase(*old); err != nil {
			log.Printf("Không thể xóa ảnh cũ %s: %v", *old, err)
		}
	}

	ws.BroadcastTopicListChanged()
	c.JSON(http.StatusOK, gin.H{
		"message":       "Upload ảnh thành công",
		"thumbnail_url": publicURL,
	})
}

// POST /topics/:id/slide-images (multipart, field "file") — ảnh chèn vào nội dung slide
func UploadSlideImage(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var topic models.Topic
	if err := db(c).Select("id").First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Thiếu file ảnh"})
		return
	}
	if !utils.IsImageUpload(fileHeader) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Chỉ chấp nhận file ảnh"})
		return
	}

	publicURL, err := utils.UploadSlideImage(fileHeader, topic.ID.String(), uuid.New().String())
	if err != nil {
		log.Printf("Upload ảnh slide thất bại: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể upload ảnh"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": publicURL})
}

// Delete Topic: xóa slide, liên kết tag, tiến độ học và ảnh bìa
func DeleteTopic(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var topic models.Topic
	if err := db(c).First(&topic, "id = ?", topicID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy topic"})
		return
	}

	err := db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("topic_id = ?", topicID).Delete(&models.Slide{}).Error; err != nil {
			return err
		}
		if err := tx.Where("topic_id = ?", topicID).Delete(&models.UserProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&topic).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&topic).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa topic"})
		return
	}

	if topic.ThumbnailURL != nil && *topic.ThumbnailURL != "" {
		if err := utils.DeleteFileFromSupabase(*topic.ThumbnailURL); err != nil {
			log.Printf("Không thể xóa ảnh bìa %s: %v", *topic.ThumbnailURL, err)
		}
	}

	ws.BroadcastTopicListChanged()
	c.JSON(http.StatusOK, gin.H{"message": "Xóa thành công"})
}

// GET /topics/:id/progress — tiến độ học của người dùng trong topic
func GetTopicProgress(c *gin.Context) {
	topicID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var progress []models.UserProgress
	if err := db(c).Where("topic_id = ?", topicID).Order("last_accessed desc").Find(&progress).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy tiến độ học"})
		return
	}

	c.JSON(http.StatusOK, progress)
}
