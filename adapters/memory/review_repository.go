package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// ReviewRepository implements toolcast.ReviewRepository in memory.
type ReviewRepository struct {
	mu     sync.RWMutex
	items  map[int64]model.Review
	nextID int64
}

// NewReviewRepository creates an empty ReviewRepository.
func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[int64]model.Review)}
}

// Load retrieves a review by ID.
func (r *ReviewRepository) Load(_ context.Context, id int64) (model.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	review, ok := r.items[id]
	if !ok {
		return model.Review{}, toolcast.ErrNoData
	}
	return review, nil
}

// Save creates or updates a review. An update keeps the stored helpful count.
func (r *ReviewRepository) Save(_ context.Context, m model.Review) (model.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
		r.items[m.ID] = m
		return m, nil
	}

	current, ok := r.items[m.ID]
	if !ok {
		return m, toolcast.ErrNoData
	}
	m.Helpful = current.Helpful
	r.items[m.ID] = m
	return m, nil
}

// IncrementHelpful adds one to the helpful counter under the write lock.
func (r *ReviewRepository) IncrementHelpful(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	review.Helpful++
	r.items[id] = review
	return nil
}

// SetToolName writes the denormalized tool name only.
func (r *ReviewRepository) SetToolName(_ context.Context, id int64, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	review, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	review.ToolName = name
	r.items[id] = review
	return nil
}

// Delete permanently removes a review.
func (r *ReviewRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return toolcast.ErrNoData
	}
	delete(r.items, id)
	return nil
}

// List returns one page of reviews ordered by created_at DESC.
func (r *ReviewRepository) List(_ context.Context, filter model.ReviewFilter, page model.Page) ([]model.Review, error) {
	page = page.Normalize()
	matched := r.match(filter)
	newestFirst(matched,
		func(rv model.Review) time.Time { return rv.CreatedAt },
		func(rv model.Review) int64 { return rv.ID })
	return paginate(matched, page.Offset(), page.Size), nil
}

// Count returns the number of reviews matching the filter.
func (r *ReviewRepository) Count(_ context.Context, filter model.ReviewFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *ReviewRepository) match(filter model.ReviewFilter) []model.Review {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Review
	for _, review := range r.items {
		if filter.ToolID != "" && review.ToolID != filter.ToolID {
			continue
		}
		if filter.VisibleOnly && !review.Visible {
			continue
		}
		out = append(out, review)
	}
	return out
}
