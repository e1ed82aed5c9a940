package models

import (
	"time"

	"github.com/google/uuid"
)

type Achievement struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	StreakDays      int       `gorm:"not null;default:0" json:"streak_days"`
	TopicsCompleted int       `gorm:"not null;default:0" json:"topics_completed"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}
