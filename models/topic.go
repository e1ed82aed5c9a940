package models

import (
	"time"

	"github.com/google/uuid"
)

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type Topic struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title         string     `json:"title" gorm:"size:200;not null"`
	Description   string     `json:"description" gorm:"type:text;not null;default:''"`
	Difficulty    Difficulty `json:"difficulty" gorm:"size:20;not null;default:'beginner'"`
	EstimatedTime int        `json:"estimated_time" gorm:"not null;default:1"` // phút
	ThumbnailURL  *string    `json:"thumbnail_url" gorm:"type:text"`           // có thể null
	Slug          string     `json:"slug" gorm:"size:200;index"`
	CreatedBy     *uuid.UUID `gorm:"type:uuid;default:null" json:"created_by"` // có thể null
	UpdatedBy     *uuid.UUID `gorm:"type:uuid;default:null" json:"updated_by"` // có thể null
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	Tags          []Tag      `json:"tags" gorm:"many2many:topic_tags"`
	Slides        []Slide    `json:"-" gorm:"foreignKey:TopicID"`
}
