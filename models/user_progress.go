package models

import (
	"time"

	"github.com/google/uuid"
)

// Tiến độ học của người dùng theo topic
type UserProgress struct {
	UserID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	TopicID      uuid.UUID  `gorm:"type:uuid;primaryKey;index" json:"topic_id"`
	CurrentSlide int        `gorm:"not null;default:0" json:"current_slide"`
	Completed    bool       `gorm:"not null;default:false" json:"completed"`
	LastAccessed *time.Time `json:"last_accessed"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}
