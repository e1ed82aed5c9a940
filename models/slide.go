package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ContentType string

const (
	ContentTypeContent ContentType = "content"
	ContentTypeQuiz    ContentType = "quiz"
)

func (c ContentType) Valid() bool {
	return c == ContentTypeContent || c == ContentTypeQuiz
}

// Slide là một trang nội dung hoặc câu hỏi quiz trong topic.
// Order chỉ cần duy nhất trong topic, không cần liên tục.
type Slide struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TopicID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"topic_id"`
	Order       int            `gorm:"column:order;not null" json:"order"`
	ContentType ContentType    `gorm:"size:20;not null;default:'content'" json:"content_type"`
	Content     datatypes.JSON `gorm:"type:jsonb;not null" json:"content"`
	Name        string         `gorm:"size:255;not null;default:''" json:"name"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// Nội dung slide loại content
type ContentBody struct {
	Text string `json:"text"`
}

type QuizOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Nội dung slide loại quiz
type QuizBody struct {
	Question string       `json:"question"`
	Options  []QuizOption `json:"options"`
}
