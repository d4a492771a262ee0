package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// SubmissionRepository implements toolcast.SubmissionRepository in memory.
type SubmissionRepository struct {
	mu     sync.RWMutex
	items  map[int64]model.Submission
	nextID int64
}

// NewSubmissionRepository creates an empty SubmissionRepository.
func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{items: make(map[int64]model.Submission)}
}

// Load retrieves a submission by ID.
func (r *SubmissionRepository) Load(_ context.Context, id int64) (model.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.items[id]
	if !ok {
		return model.Submission{}, toolcast.ErrNoData
	}
	return sub, nil
}

// Save creates or updates a submission.
func (r *SubmissionRepository) Save(_ context.Context, m model.Submission) (model.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
	} else if _, ok := r.items[m.ID]; !ok {
		return m, toolcast.ErrNoData
	}
	r.items[m.ID] = m
	return m, nil
}

// UpdateStatus writes status, reviewed and updated_at under one lock.
func (r *SubmissionRepository) UpdateStatus(_ context.Context, id int64, status model.SubmissionStatus, reviewed bool, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	sub.Status = status
	sub.Reviewed = reviewed
	sub.UpdatedAt = updatedAt
	r.items[id] = sub
	return nil
}

// Delete permanently removes a submission.
func (r *SubmissionRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return toolcast.ErrNoData
	}
	delete(r.items, id)
	return nil
}

// List returns one page of submissions, newest first.
func (r *SubmissionRepository) List(_ context.Context, filter model.SubmissionFilter, page model.Page) ([]model.Submission, error) {
	page = page.Normalize()
	matched := r.match(filter)
	newestFirst(matched,
		func(s model.Submission) time.Time { return s.CreatedAt },
		func(s model.Submission) int64 { return s.ID })
	return paginate(matched, page.Offset(), page.Size), nil
}

// Count returns the number of submissions matching the filter.
func (r *SubmissionRepository) Count(_ context.Context, filter model.SubmissionFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *SubmissionRepository) match(filter model.SubmissionFilter) []model.Submission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Submission
	for _, sub := range r.items {
		if filter.Status != "" && sub.Status != filter.Status {
			continue
		}
		out = append(out, sub)
	}
	return out
}
