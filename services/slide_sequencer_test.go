package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/topic-slides-backend/models"
)

// memoryGateway giữ slide trong bộ nhớ và đếm số lần ghi
type memoryGateway struct {
	mu     sync.Mutex
	slides map[uuid.UUID]models.Slide
	clock  time.Time
	writes int
}

func newMemoryGateway() *memoryGateway {
	return &memoryGateway{
		slides: make(map[uuid.UUID]models.Slide),
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (g *memoryGateway) ListSlides(_ context.Context, topicID uuid.UUID) ([]models.Slide, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []models.Slide
	for _, s := range g.slides {
		if s.TopicID == topicID {
			s.Content = CloneContent(s.Content)
			out = append(out, s)
		}
	}
	SortSlides(out)
	return out, nil
}

func (g *memoryGateway) InsertSlide(_ context.Context, slide *models.Slide) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if slide.ID == uuid.Nil {
		slide.ID = uuid.New()
	}
	g.clock = g.clock.Add(time.Second)
	slide.CreatedAt = g.clock
	stored := *slide
	stored.Content = CloneContent(slide.Content)
	g.slides[slide.ID] = stored
	g.writes++
	return nil
}

func (g *memoryGateway) UpdateSlideOrders(_ context.Context, topicID uuid.UUID, updates []SlideOrderUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, u := range updates {
		if s, ok := g.slides[u.ID]; !ok || s.TopicID != topicID {
			return ErrSlideNotFound
		}
	}
	for _, u := range updates {
		s := g.slides[u.ID]
		s.Order = u.Order
		g.slides[u.ID] = s
	}
	g.writes++
	return nil
}

func (g *memoryGateway) DeleteSlide(_ context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.slides[id]; !ok {
		return ErrSlideNotFound
	}
	delete(g.slides, id)
	g.writes++
	return nil
}

func (g *memoryGateway) seed(topicID uuid.UUID, orders ...int) []uuid.UUID {
	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		s := &models.Slide{
			TopicID:     topicID,
			Order:       o,
			ContentType: models.ContentTypeContent,
			Content:     DefaultSlideContent(models.ContentTypeContent),
		}
		_ = g.InsertSlide(context.Background(), s)
		ids[i] = s.ID
	}
	g.writes = 0
	return ids
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) ListSlides(ctx context.Context, topicID uuid.UUID) ([]models.Slide, error) {
	args := m.Called(ctx, topicID)
	slides, _ := args.Get(0).([]models.Slide)
	return slides, args.Error(1)
}

func (m *mockGateway) InsertSlide(ctx context.Context, slide *models.Slide) error {
	return m.Called(ctx, slide).Error(0)
}

func (m *mockGateway) UpdateSlideOrders(ctx context.Context, topicID uuid.UUID, updates []SlideOrderUpdate) error {
	return m.Called(ctx, topicID, updates).Error(0)
}

func (m *mockGateway) DeleteSlide(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func openTestSequencer(t *testing.T, g SlideGateway, topicID uuid.UUID) *SlideSequencer {
	t.Helper()
	seq := NewSlideSequencer(g, topicID)
	require.NoError(t, seq.Refresh(context.Background()))
	return seq
}

func slideIDs(slides []models.Slide) []uuid.UUID {
	ids := make([]uuid.UUID, len(slides))
	for i, s := range slides {
		ids[i] = s.ID
	}
	return ids
}

func slideOrders(slides []models.Slide) []int {
	orders := make([]int, len(slides))
	for i, s := range slides {
		orders[i] = s.Order
	}
	return orders
}

func assertDistinctOrders(t *testing.T, slides []models.Slide) {
	t.Helper()
	seen := make(map[int]bool, len(slides))
	for _, s := range slides {
		assert.False(t, seen[s.Order], "order %d is used twice", s.Order)
		seen[s.Order] = true
	}
}

func TestCreateSlide_EmptyTopicStartsAtZero(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	seq := openTestSequencer(t, g, topicID)

	slide, err := seq.CreateSlide(ctx, topicID, models.ContentTypeContent, "")
	require.NoError(t, err)

	assert.Equal(t, 0, slide.Order)
	assert.NotEmpty(t, slide.Name)
	assert.JSONEq(t, `{"text":""}`, string(slide.Content))

	selected, ok := seq.SelectedSlideID()
	assert.True(t, ok)
	assert.Equal(t, slide.ID, selected)
	assert.Equal(t, []uuid.UUID{slide.ID}, slideIDs(seq.Slides()))
}

func TestCreateSlide_AppendsAfterMax(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	g.seed(topicID, 3, 9, 4)
	seq := openTestSequencer(t, g, topicID)

	slide, err := seq.CreateSlide(ctx, topicID, models.ContentTypeQuiz, "Câu hỏi 1")
	require.NoError(t, err)

	assert.Equal(t, 10, slide.Order)
	assert.Equal(t, "Câu hỏi 1", slide.Name)
	assert.JSONEq(t, `{"question":"","options":[{"text":"","isCorrect":false},{"text":"","isCorrect":false}]}`, string(slide.Content))

	slides := seq.Slides()
	assert.Equal(t, []int{3, 4, 9, 10}, slideOrders(slides))
	assert.Equal(t, slide.ID, slides[len(slides)-1].ID)
}

func TestCreateSlide_Validation(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	seq := openTestSequencer(t, g, topicID)

	_, err := seq.CreateSlide(ctx, uuid.Nil, models.ContentTypeContent, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = seq.CreateSlide(ctx, uuid.New(), models.ContentTypeContent, "")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = seq.CreateSlide(ctx, topicID, models.ContentType("video"), "")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, g.writes)
	assert.Empty(t, seq.Slides())
}

func TestDuplicateSlide_LastSlide(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 7)

	src := g.slides[ids[2]]
	src.Name = "Giới thiệu"
	src.Content = []byte(`{"text":"<p>Xin chào</p>"}`)
	g.slides[ids[2]] = src

	seq := openTestSequencer(t, g, topicID)
	dup, err := seq.DuplicateSlide(ctx, ids[2])
	require.NoError(t, err)

	assert.Equal(t, 8, dup.Order)
	assert.Equal(t, "Giới thiệu (duplicate)", dup.Name)
	assert.NotEqual(t, ids[2], dup.ID)
	assert.JSONEq(t, string(src.Content), string(dup.Content))

	selected, _ := seq.SelectedSlideID()
	assert.Equal(t, dup.ID, selected)

	// bản sao độc lập với bản gốc
	dup.Content[2] = 'X'
	assert.JSONEq(t, `{"text":"<p>Xin chào</p>"}`, string(g.slides[ids[2]].Content))
}

func TestDuplicateSlide_Midpoint(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 0, 10, 20)
	seq := openTestSequencer(t, g, topicID)

	dup, err := seq.DuplicateSlide(ctx, ids[0])
	require.NoError(t, err)

	assert.Equal(t, 5, dup.Order)
	assert.Equal(t, []uuid.UUID{ids[0], dup.ID, ids[1], ids[2]}, slideIDs(seq.Slides()))
	assert.Equal(t, 1, g.writes)
}

func TestDuplicateSlide_CollisionRenumbers(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 3)
	seq := openTestSequencer(t, g, topicID)

	dup, err := seq.DuplicateSlide(ctx, ids[0])
	require.NoError(t, err)

	slides := seq.Slides()
	assert.Equal(t, []uuid.UUID{ids[0], dup.ID, ids[1], ids[2]}, slideIDs(slides))
	assert.Equal(t, []int{1, 2, 3, 4}, slideOrders(slides))
	assert.Equal(t, 2, g.writes)
}

func TestDuplicateSlide_UnknownSlide(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	g.seed(topicID, 1)
	seq := openTestSequencer(t, g, topicID)

	_, err := seq.DuplicateSlide(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrStateInconsistency)

	_, err = seq.DuplicateSlide(ctx, uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, g.writes)
}

func TestReorderSlide_MovesAndRenumbers(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 0, 3, 4, 9)
	a, b, c, d := ids[0], ids[1], ids[2], ids[3]
	seq := openTestSequencer(t, g, topicID)

	require.NoError(t, seq.ReorderSlide(ctx, a, c, nil))

	slides := seq.Slides()
	assert.Equal(t, []uuid.UUID{b, c, a, d}, slideIDs(slides))
	assert.Equal(t, []int{1, 2, 3, 4}, slideOrders(slides))
	assert.Equal(t, 1, g.writes)
}

func TestReorderSlide_SameSlideWritesNothing(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	a, b := uuid.New(), uuid.New()

	m := new(mockGateway)
	m.On("ListSlides", mock.Anything, topicID).Return([]models.Slide{
		{ID: a, TopicID: topicID, Order: 1},
		{ID: b, TopicID: topicID, Order: 2},
	}, nil)

	seq := openTestSequencer(t, m, topicID)
	require.NoError(t, seq.ReorderSlide(ctx, b, b, nil))

	m.AssertNotCalled(t, "UpdateSlideOrders", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "InsertSlide", mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "DeleteSlide", mock.Anything, mock.Anything)
}

func TestReorderSlide_StaleView(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 3)
	seq := openTestSequencer(t, g, topicID)

	err := seq.ReorderSlide(ctx, ids[0], ids[2], []uuid.UUID{ids[1], ids[0], ids[2]})
	assert.ErrorIs(t, err, ErrStateInconsistency)

	err = seq.ReorderSlide(ctx, ids[0], uuid.New(), nil)
	assert.ErrorIs(t, err, ErrStateInconsistency)

	err = seq.ReorderSlide(ctx, uuid.Nil, ids[0], nil)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, g.writes)

	// thứ tự đúng thì vẫn thực hiện
	require.NoError(t, seq.ReorderSlide(ctx, ids[2], ids[0], ids))
	assert.Equal(t, []uuid.UUID{ids[2], ids[0], ids[1]}, slideIDs(seq.Slides()))
}

func TestDeleteSlide_SelectsPrevious(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 3)
	seq := openTestSequencer(t, g, topicID)

	require.NoError(t, seq.SelectSlide(ids[2]))
	require.NoError(t, seq.DeleteSlide(ctx, ids[2]))

	selected, ok := seq.SelectedSlideID()
	assert.True(t, ok)
	assert.Equal(t, ids[1], selected)
	assert.Equal(t, []int{1, 2}, slideOrders(seq.Slides()))
}

func TestDeleteSlide_FirstSelectedFallsToNext(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 3)
	seq := openTestSequencer(t, g, topicID)

	require.NoError(t, seq.SelectSlide(ids[0]))
	require.NoError(t, seq.DeleteSlide(ctx, ids[0]))

	selected, ok := seq.SelectedSlideID()
	assert.True(t, ok)
	assert.Equal(t, ids[1], selected)
	// không đánh số lại
	assert.Equal(t, []int{2, 3}, slideOrders(seq.Slides()))
}

func TestDeleteSlide_LastRemainingClearsSelection(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 0)
	seq := openTestSequencer(t, g, topicID)

	require.NoError(t, seq.SelectSlide(ids[0]))
	require.NoError(t, seq.DeleteSlide(ctx, ids[0]))

	_, ok := seq.SelectedSlideID()
	assert.False(t, ok)
	assert.Empty(t, seq.Slides())
}

func TestDeleteSlide_UnselectedKeepsSelection(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2, 3)
	seq := openTestSequencer(t, g, topicID)

	require.NoError(t, seq.SelectSlide(ids[0]))
	require.NoError(t, seq.DeleteSlide(ctx, ids[1]))

	selected, _ := seq.SelectedSlideID()
	assert.Equal(t, ids[0], selected)

	err := seq.DeleteSlide(ctx, ids[1])
	assert.ErrorIs(t, err, ErrStateInconsistency)
}

func TestSelectSlide_Unknown(t *testing.T) {
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1)
	seq := openTestSequencer(t, g, topicID)

	assert.ErrorIs(t, seq.SelectSlide(uuid.New()), ErrStateInconsistency)
	_, ok := seq.SelectedSlideID()
	assert.False(t, ok)

	require.NoError(t, seq.SelectSlide(ids[0]))
	seq.ClearSelection()
	_, ok = seq.SelectedSlideID()
	assert.False(t, ok)
}

func TestRefresh_DropsStaleSelection(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	ids := g.seed(topicID, 1, 2)
	seq := openTestSequencer(t, g, topicID)
	require.NoError(t, seq.SelectSlide(ids[1]))

	// slide bị xóa bởi người khác
	require.NoError(t, g.DeleteSlide(ctx, ids[1]))
	require.NoError(t, seq.Refresh(ctx))

	_, ok := seq.SelectedSlideID()
	assert.False(t, ok)
}

func TestGatewayFailureIsPersistenceError(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	a := uuid.New()
	listed := []models.Slide{{ID: a, TopicID: topicID, Order: 1}}

	m := new(mockGateway)
	m.On("ListSlides", mock.Anything, topicID).Return(listed, nil).Twice()
	m.On("InsertSlide", mock.Anything, mock.AnythingOfType("*models.Slide")).Return(errors.New("connection refused")).Once()

	seq := openTestSequencer(t, m, topicID)
	_, err := seq.CreateSlide(ctx, topicID, models.ContentTypeContent, "")

	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrStateInconsistency)
	// danh sách được tải lại sau lỗi
	m.AssertNumberOfCalls(t, "ListSlides", 2)
	m.AssertExpectations(t)
	_, ok := seq.SelectedSlideID()
	assert.False(t, ok)
}

func TestGatewayNotFoundIsStateInconsistency(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	a, b := uuid.New(), uuid.New()
	listed := []models.Slide{
		{ID: a, TopicID: topicID, Order: 1},
		{ID: b, TopicID: topicID, Order: 2},
	}

	m := new(mockGateway)
	m.On("ListSlides", mock.Anything, topicID).Return(listed, nil)
	m.On("DeleteSlide", mock.Anything, b).Return(ErrSlideNotFound).Once()
	m.On("UpdateSlideOrders", mock.Anything, topicID, []SlideOrderUpdate{{ID: b, Order: 1}, {ID: a, Order: 2}}).
		Return(ErrSlideNotFound).Once()

	seq := openTestSequencer(t, m, topicID)

	err := seq.DeleteSlide(ctx, b)
	assert.ErrorIs(t, err, ErrStateInconsistency)
	assert.ErrorIs(t, err, ErrSlideNotFound)

	err = seq.ReorderSlide(ctx, b, a, nil)
	assert.ErrorIs(t, err, ErrStateInconsistency)

	m.AssertExpectations(t)
}

func TestRefreshFailure(t *testing.T) {
	topicID := uuid.New()
	m := new(mockGateway)
	m.On("ListSlides", mock.Anything, topicID).Return(nil, errors.New("timeout"))

	seq := NewSlideSequencer(m, topicID)
	assert.ErrorIs(t, seq.Refresh(context.Background()), ErrPersistence)
}

func TestRandomOperationsKeepOrdersDistinct(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	seq := openTestSequencer(t, g, topicID)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 300; i++ {
		slides := seq.Slides()
		if len(slides) == 0 {
			_, err := seq.CreateSlide(ctx, topicID, models.ContentTypeContent, "")
			require.NoError(t, err)
			continue
		}
		pick := func() uuid.UUID { return slides[rng.Intn(len(slides))].ID }

		switch rng.Intn(4) {
		case 0:
			_, err := seq.CreateSlide(ctx, topicID, models.ContentTypeQuiz, "")
			require.NoError(t, err)
		case 1:
			_, err := seq.DuplicateSlide(ctx, pick())
			require.NoError(t, err)
		case 2:
			require.NoError(t, seq.ReorderSlide(ctx, pick(), pick(), slideIDs(slides)))
		case 3:
			if len(slides) > 3 {
				require.NoError(t, seq.DeleteSlide(ctx, pick()))
			}
		}

		current := seq.Slides()
		assertDistinctOrders(t, current)

		// danh sách cục bộ khớp với dữ liệu đã lưu
		stored, err := g.ListSlides(ctx, topicID)
		require.NoError(t, err)
		assert.Equal(t, slideIDs(stored), slideIDs(current))

		if id, ok := seq.SelectedSlideID(); ok {
			assert.GreaterOrEqual(t, indexOfSlide(current, id), 0)
		}
	}
}

func TestDuplicateKeepsQuizContent(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()
	g := newMemoryGateway()
	seq := openTestSequencer(t, g, topicID)

	quiz, err := seq.CreateSlide(ctx, topicID, models.ContentTypeQuiz, "Quiz")
	require.NoError(t, err)

	body := models.QuizBody{
		Question: "2 + 2 = ?",
		Options:  []models.QuizOption{{Text: "3"}, {Text: "4", IsCorrect: true}},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	stored := g.slides[quiz.ID]
	stored.Content = raw
	g.slides[quiz.ID] = stored
	require.NoError(t, seq.Refresh(ctx))

	dup, err := seq.DuplicateSlide(ctx, quiz.ID)
	require.NoError(t, err)

	var got models.QuizBody
	require.NoError(t, json.Unmarshal(dup.Content, &got))
	assert.Equal(t, body, got)
	assert.Equal(t, models.ContentTypeQuiz, dup.ContentType)
}

func TestStaleViewFailuresReloadList(t *testing.T) {
	ctx := context.Background()
	topicID := uuid.New()

	tests := []struct {
		name string
		run  func(seq *SlideSequencer, known, unseen uuid.UUID) error
	}{
		{"duplicate", func(seq *SlideSequencer, _, unseen uuid.UUID) error {
			_, err := seq.DuplicateSlide(ctx, unseen)
			return err
		}},
		{"delete", func(seq *SlideSequencer, _, unseen uuid.UUID) error {
			return seq.DeleteSlide(ctx, unseen)
		}},
		{"reorder unknown target", func(seq *SlideSequencer, known, unseen uuid.UUID) error {
			return seq.ReorderSlide(ctx, known, unseen, nil)
		}},
		{"reorder outdated snapshot", func(seq *SlideSequencer, known, unseen uuid.UUID) error {
			return seq.ReorderSlide(ctx, known, known, []uuid.UUID{unseen})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newMemoryGateway()
			known := g.seed(topicID, 1)[0]
			seq := openTestSequencer(t, g, topicID)

			// slide do người khác thêm sau khi danh sách đã được nạp
			unseen := g.seed(topicID, 2)[0]
			require.Len(t, seq.Slides(), 1)

			err := tt.run(seq, known, unseen)
			assert.ErrorIs(t, err, ErrStateInconsistency)
			assert.Contains(t, err.Error(), "current slide list")
			assert.Zero(t, g.writes)
			assert.Equal(t, []uuid.UUID{known, unseen}, slideIDs(seq.Slides()))
		})
	}
}
