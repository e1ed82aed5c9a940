package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/topic-slides-backend/models"
)

type (
	DashboardStats struct {
		Topics            int64 `json:"topics"`
		Tags              int64 `json:"tags"`
		Slides            int64 `json:"slides"`
		QuizSlides        int64 `json:"quiz_slides"`
		Learners          int64 `json:"learners"`
		CompletedProgress int64 `json:"completed_progress"`
	}

	DifficultyStat struct {
		Difficulty string `json:"difficulty"`
		Count      int64  `json:"count"`
	}
)

// GET /stats — số liệu cho trang tổng quan
func GetDashboardStats(c *gin.Context) {
	var stats DashboardStats
	counts := []struct {
		dst   *int64
		model interface{}
		where string
		args  []interface{}
	}{
		{&stats.Topics, &models.Topic{}, "", nil},
		{&stats.Tags, &models.Tag{}, "", nil},
		{&stats.Slides, &models.Slide{}, "", nil},
		{&stats.QuizSlides, &models.Slide{}, "content_type = ?", []interface{}{models.ContentTypeQuiz}},
		{&stats.CompletedProgress, &models.UserProgress{}, "completed = ?", []interface{}{true}},
	}

	for _, q := range counts {
		query := db(c).Model(q.model)
		if q.where != "" {
			query = query.Where(q.where, q.args...)
		}
		if err := query.Count(q.dst).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy số liệu thống kê"})
			return
		}
	}

	if err := db(c).Model(&models.UserProgress{}).Distinct("user_id").Count(&stats.Learners).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy số liệu thống kê"})
		return
	}

	var byDifficulty []DifficultyStat
	if err := db(c).Model(&models.Topic{}).
		Select("difficulty, COUNT(*) AS count").
		Group("difficulty").
		Order("difficulty").
		Scan(&byDifficulty).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể lấy số liệu thống kê"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totals":        stats,
		"by_difficulty": byDifficulty,
	})
}
