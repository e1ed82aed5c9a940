package models

import (
	"time"

	"github.com/google/uuid"
)

type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null;unique" json:"name"`
	Category  string    `gorm:"size:50;not null" json:"category"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	Topics    []Topic   `gorm:"many2many:topic_tags" json:"-"`
}
