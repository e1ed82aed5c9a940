package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type SlideTemplate struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"size:150;not null" json:"name"`
	ContentType ContentType    `gorm:"size:20;not null" json:"content_type"`
	Content     datatypes.JSON `gorm:"type:jsonb;not null" json:"content"`
	CreatedBy   *uuid.UUID     `gorm:"type:uuid;default:null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}
