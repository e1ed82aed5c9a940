package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vnkhanh/topic-slides-backend/models"
)

// GormSlideGateway is the SlideGateway backed by the slides table.
type GormSlideGateway struct {
	DB *gorm.DB
}

func NewGormSlideGateway(db *gorm.DB) *GormSlideGateway {
	return &GormSlideGateway{DB: db}
}

// slideOrderBy sắp xếp theo cột "order" (từ khóa SQL nên phải quote)
var slideOrderBy = clause.OrderBy{Columns: []clause.OrderByColumn{
	{Column: clause.Column{Name: "order"}},
	{Column: clause.Column{Name: "created_at"}},
	{Column: clause.Column{Name: "id"}},
}}

func (g *GormSlideGateway) ListSlides(ctx context.Context, topicID uuid.UUID) ([]models.Slide, error) {
	var slides []models.Slide
	err := g.DB.WithContext(ctx).
		Where("topic_id = ?", topicID).
		Clauses(slideOrderBy).
		Find(&slides).Error
	if err != nil {
		return nil, err
	}
	return slides, nil
}

func (g *GormSlideGateway) InsertSlide(ctx context.Context, slide *models.Slide) error {
	return g.DB.WithContext(ctx).Create(slide).Error
}

// UpdateSlideOrders writes the batch in one transaction. A slide that is
// missing or belongs to another topic rolls the whole batch back.
func (g *GormSlideGateway) UpdateSlideOrders(ctx context.Context, topicID uuid.UUID, updates []SlideOrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			res := tx.Model(&models.Slide{}).
				Where("id = ? AND topic_id = ?", u.ID, topicID).
				Update("order", u.Order)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("update order of %s: %w", u.ID, ErrSlideNotFound)
			}
		}
		return nil
	})
}

func (g *GormSlideGateway) DeleteSlide(ctx context.Context, id uuid.UUID) error {
	res := g.DB.WithContext(ctx).Delete(&models.Slide{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSlideNotFound
	}
	return nil
}

// GetSlide loads one slide by id.
func (g *GormSlideGateway) GetSlide(ctx context.Context, id uuid.UUID) (*models.Slide, error) {
	var slide models.Slide
	err := g.DB.WithContext(ctx).First(&slide, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlideNotFound
	}
	if err != nil {
		return nil, err
	}
	return &slide, nil
}
