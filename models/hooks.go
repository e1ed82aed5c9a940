package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ID được sinh ở phía ứng dụng để không phụ thuộc gen_random_uuid() của Postgres
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (t *Topic) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

func (s *Slide) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (s *SlideTemplate) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
