package services

import (
	"sort"

	"github.com/google/uuid"

	"github.com/vnkhanh/topic-slides-backend/models"
)

// SlideOrderUpdate is one row of an ordering batch.
type SlideOrderUpdate struct {
	ID    uuid.UUID
	Order int
}

// NextOrder returns the order for a slide appended to the topic:
// max+1, or 0 when the topic has no slides.
func NextOrder(slides []models.Slide) int {
	if len(slides) == 0 {
		return 0
	}
	max := slides[0].Order
	for _, s := range slides[1:] {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + 1
}

// DuplicateOrder places a copy of slides[idx] between it and its successor.
// ok is false when the midpoint collides with an order already in use and
// the caller has to renumber instead.
func DuplicateOrder(slides []models.Slide, idx int) (order int, ok bool) {
	src := slides[idx]
	if idx+1 >= len(slides) {
		return src.Order + 1, true
	}
	next := slides[idx+1]
	order = floorDiv(src.Order+next.Order, 2)
	for _, s := range slides {
		if s.Order == order {
			return order, false
		}
	}
	return order, true
}

// floorDiv rounds toward negative infinity, unlike Go's integer division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// MoveSlide moves the element at from to index to, keeping the relative
// order of every other element. The input is not modified.
func MoveSlide(slides []models.Slide, from, to int) []models.Slide {
	out := make([]models.Slide, 0, len(slides))
	moved := slides[from]
	for i, s := range slides {
		if i != from {
			out = append(out, s)
		}
	}
	out = append(out, models.Slide{})
	copy(out[to+1:], out[to:])
	out[to] = moved
	return out
}

// Renumber assigns order = index+1 to every slide.
func Renumber(slides []models.Slide) []SlideOrderUpdate {
	updates := make([]SlideOrderUpdate, len(slides))
	for i, s := range slides {
		updates[i] = SlideOrderUpdate{ID: s.ID, Order: i + 1}
	}
	return updates
}

// SortSlides sorts in place by order, then creation time, then id.
func SortSlides(slides []models.Slide) {
	sort.SliceStable(slides, func(i, j int) bool {
		a, b := slides[i], slides[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func indexOfSlide(slides []models.Slide, id uuid.UUID) int {
	for i, s := range slides {
		if s.ID == id {
			return i
		}
	}
	return -1
}
