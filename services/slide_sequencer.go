package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/vnkhanh/topic-slides-backend/models"
)

var (
	// ErrValidation: bad or missing identifiers, caught before any write.
	ErrValidation = errors.New("validation error")
	// ErrPersistence: the gateway call failed.
	ErrPersistence = errors.New("persistence error")
	// ErrStateInconsistency: a referenced slide is not in the current list.
	ErrStateInconsistency = errors.New("state inconsistency")

	// ErrSlideNotFound is returned by a SlideGateway when a row is missing.
	ErrSlideNotFound = errors.New("slide not found")
)

// SlideGateway is the persistence boundary of the sequencer.
type SlideGateway interface {
	// ListSlides returns the topic's slides ascending by order.
	ListSlides(ctx context.Context, topicID uuid.UUID) ([]models.Slide, error)
	// InsertSlide stores slide and fills in its ID.
	InsertSlide(ctx context.Context, slide *models.Slide) error
	// UpdateSlideOrders applies the whole batch or nothing.
	UpdateSlideOrders(ctx context.Context, topicID uuid.UUID, updates []SlideOrderUpdate) error
	DeleteSlide(ctx context.Context, id uuid.UUID) error
}

// SlideSequencer keeps the ordered slide list of one topic together with
// the selected slide. Every mutation is committed through the gateway and
// followed by a refetch; the local list is never trusted across operations.
type SlideSequencer struct {
	gateway  SlideGateway
	topicID  uuid.UUID
	slides   []models.Slide
	selected uuid.UUID
}

// NewSlideSequencer builds an empty sequencer; call Refresh before the
// first operation.
func NewSlideSequencer(gateway SlideGateway, topicID uuid.UUID) *SlideSequencer {
	return &SlideSequencer{gateway: gateway, topicID: topicID}
}

func (s *SlideSequencer) TopicID() uuid.UUID { return s.topicID }

// Slides returns a copy of the current list.
func (s *SlideSequencer) Slides() []models.Slide {
	out := make([]models.Slide, len(s.slides))
	copy(out, s.slides)
	return out
}

// SelectedSlideID reports the selected slide, ok is false when none is.
func (s *SlideSequencer) SelectedSlideID() (uuid.UUID, bool) {
	return s.selected, s.selected != uuid.Nil
}

// SelectSlide handles an explicit click on a slide.
func (s *SlideSequencer) SelectSlide(id uuid.UUID) error {
	if indexOfSlide(s.slides, id) < 0 {
		return fmt.Errorf("%w: slide %s is not in the current slide list", ErrStateInconsistency, id)
	}
	s.selected = id
	return nil
}

func (s *SlideSequencer) ClearSelection() {
	s.selected = uuid.Nil
}

// Refresh reloads the canonical list. A selection that no longer exists
// is cleared.
func (s *SlideSequencer) Refresh(ctx context.Context) error {
	slides, err := s.gateway.ListSlides(ctx, s.topicID)
	if err != nil {
		return fmt.Errorf("%w: list slides: %w", ErrPersistence, err)
	}
	SortSlides(slides)
	s.slides = slides
	if s.selected != uuid.Nil && indexOfSlide(s.slides, s.selected) < 0 {
		s.selected = uuid.Nil
	}
	return nil
}

// CreateSlide appends a new empty slide and selects it.
func (s *SlideSequencer) CreateSlide(ctx context.Context, topicID uuid.UUID, ct models.ContentType, name string) (*models.Slide, error) {
	if topicID == uuid.Nil {
		return nil, fmt.Errorf("%w: topic id is required", ErrValidation)
	}
	if topicID != s.topicID {
		return nil, fmt.Errorf("%w: topic %s does not match %s", ErrValidation, topicID, s.topicID)
	}
	if ct == "" {
		ct = models.ContentTypeContent
	}
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: unknown content type %q", ErrValidation, ct)
	}
	if name == "" {
		name = GenerateSlideName()
	}

	slide := &models.Slide{
		TopicID:     s.topicID,
		Order:       NextOrder(s.slides),
		ContentType: ct,
		Content:     DefaultSlideContent(ct),
		Name:        name,
	}
	if err := s.gateway.InsertSlide(ctx, slide); err != nil {
		return nil, s.fail(ctx, "create slide", err)
	}
	s.selected = slide.ID
	if err := s.Refresh(ctx); err != nil {
		return slide, err
	}
	return slide, nil
}

// DuplicateSlide copies the slide right after itself and selects the copy.
func (s *SlideSequencer) DuplicateSlide(ctx context.Context, id uuid.UUID) (*models.Slide, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: slide id is required", ErrValidation)
	}
	idx := indexOfSlide(s.slides, id)
	if idx < 0 {
		return nil, s.stale(ctx, "duplicate slide", fmt.Errorf("slide %s is not in the current slide list", id))
	}
	src := s.slides[idx]

	dup := &models.Slide{
		TopicID:     src.TopicID,
		ContentType: src.ContentType,
		Content:     CloneContent(src.Content),
		Name:        src.Name + " (duplicate)",
	}

	order, ok := DuplicateOrder(s.slides, idx)
	if ok {
		dup.Order = order
	} else {
		// Midpoint trùng với order đã có: đánh số lại toàn bộ, bản sao
		// nằm ngay sau slide gốc.
		updates := Renumber(s.slides)
		for i := idx + 1; i < len(updates); i++ {
			updates[i].Order++
		}
		dup.Order = idx + 2
		if err := s.gateway.UpdateSlideOrders(ctx, s.topicID, updates); err != nil {
			return nil, s.fail(ctx, "renumber slides", err)
		}
	}

	if err := s.gateway.InsertSlide(ctx, dup); err != nil {
		return nil, s.fail(ctx, "duplicate slide", err)
	}
	s.selected = dup.ID
	if err := s.Refresh(ctx); err != nil {
		return dup, err
	}
	return dup, nil
}

// ReorderSlide moves movedID to the position of targetID and renumbers
// every slide to index+1. When expected is non-empty it must equal the
// current sequence, otherwise the caller's view is stale.
func (s *SlideSequencer) ReorderSlide(ctx context.Context, movedID, targetID uuid.UUID, expected []uuid.UUID) error {
	if movedID == uuid.Nil || targetID == uuid.Nil {
		return fmt.Errorf("%w: moved and target ids are required", ErrValidation)
	}
	if len(expected) > 0 && !s.matches(expected) {
		return s.stale(ctx, "reorder slides", errors.New("slide sequence does not match the current slide list"))
	}

	from := indexOfSlide(s.slides, movedID)
	to := indexOfSlide(s.slides, targetID)
	if from < 0 || to < 0 {
		return s.stale(ctx, "reorder slides", errors.New("moved or target slide is not in the current slide list"))
	}
	if from == to {
		return nil
	}

	reordered := MoveSlide(s.slides, from, to)
	if err := s.gateway.UpdateSlideOrders(ctx, s.topicID, Renumber(reordered)); err != nil {
		return s.fail(ctx, "reorder slides", err)
	}
	return s.Refresh(ctx)
}

// DeleteSlide removes a slide without renumbering the rest. If it was
// selected, the previous slide is selected, else the next, else none.
func (s *SlideSequencer) DeleteSlide(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: slide id is required", ErrValidation)
	}
	idx := indexOfSlide(s.slides, id)
	if idx < 0 {
		return s.stale(ctx, "delete slide", fmt.Errorf("slide %s is not in the current slide list", id))
	}

	fallback := uuid.Nil
	if idx > 0 {
		fallback = s.slides[idx-1].ID
	} else if idx+1 < len(s.slides) {
		fallback = s.slides[idx+1].ID
	}

	if err := s.gateway.DeleteSlide(ctx, id); err != nil {
		return s.fail(ctx, "delete slide", err)
	}
	if s.selected == id {
		s.selected = fallback
	}
	return s.Refresh(ctx)
}

func (s *SlideSequencer) matches(ids []uuid.UUID) bool {
	if len(ids) != len(s.slides) {
		return false
	}
	for i, id := range ids {
		if s.slides[i].ID != id {
			return false
		}
	}
	return true
}

func (s *SlideSequencer) resync(ctx context.Context, op string) {
	if rerr := s.Refresh(ctx); rerr != nil {
		log.Printf("slide sequencer: refresh after failed %s: %v", op, rerr)
	}
}

// stale reports that the caller's view no longer matches the list and
// reloads it before returning.
func (s *SlideSequencer) stale(ctx context.Context, op string, err error) error {
	s.resync(ctx, op)
	return fmt.Errorf("%w: %s: %w", ErrStateInconsistency, op, err)
}

// fail classifies a gateway error and resynchronizes the list.
func (s *SlideSequencer) fail(ctx context.Context, op string, err error) error {
	s.resync(ctx, op)
	if errors.Is(err, ErrSlideNotFound) {
		return fmt.Errorf("%w: %s: %w", ErrStateInconsistency, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
