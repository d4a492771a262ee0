package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// SubscriberRepository implements toolcast.SubscriberRepository in memory.
// Email addresses are unique, like the unique index of the SQL schema.
type SubscriberRepository struct {
	mu      sync.RWMutex
	items   map[int64]model.Subscriber
	byEmail map[string]int64
	nextID  int64
}

// NewSubscriberRepository creates an empty SubscriberRepository.
func NewSubscriberRepository() *SubscriberRepository {
	return &SubscriberRepository{
		items:   make(map[int64]model.Subscriber),
		byEmail: make(map[string]int64),
	}
}

// Load retrieves a subscriber by ID.
func (r *SubscriberRepository) Load(_ context.Context, id int64) (model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.items[id]
	if !ok {
		return model.Subscriber{}, toolcast.ErrNoData
	}
	return sub, nil
}

// Save creates or updates a subscriber.
// Creating a second record for an existing email fails.
func (r *SubscriberRepository) Save(_ context.Context, m model.Subscriber) (model.Subscriber, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.Email = model.NormalizeEmail(m.Email)
	if owner, taken := r.byEmail[m.Email]; taken && owner != m.ID {
		return m, toolcast.NewError(toolcast.ErrCodeDatabase, fmt.Sprintf("duplicate email %q", m.Email))
	}

	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
	} else if current, ok := r.items[m.ID]; !ok {
		return m, toolcast.ErrNoData
	} else if current.Email != m.Email {
		delete(r.byEmail, current.Email)
	}

	r.items[m.ID] = m
	r.byEmail[m.Email] = m.ID
	return m, nil
}

// FindByEmail retrieves a subscriber by normalized email.
func (r *SubscriberRepository) FindByEmail(_ context.Context, email string) (model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[model.NormalizeEmail(email)]
	if !ok {
		return model.Subscriber{}, toolcast.ErrNoData
	}
	return r.items[id], nil
}

// FindActive returns every active subscriber ordered by ID.
func (r *SubscriberRepository) FindActive(_ context.Context) ([]model.Subscriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Subscriber
	for _, sub := range r.items {
		if sub.IsActive {
			out = append(out, sub)
		}
	}
	if len(out) == 0 {
		return nil, toolcast.ErrNoData
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetActive flips the active flag.
func (r *SubscriberRepository) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	sub.IsActive = active
	r.items[id] = sub
	return nil
}

// TouchSubscribedAt refreshes the subscription timestamp.
func (r *SubscriberRepository) TouchSubscribedAt(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	sub.SubscribedAt = at
	r.items[id] = sub
	return nil
}

// Reactivate marks the subscriber active and sets SubscribedAt under one lock.
func (r *SubscriberRepository) Reactivate(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.items[id]
	if !ok {
		return toolcast.ErrNoData
	}
	sub.IsActive = true
	sub.SubscribedAt = at
	r.items[id] = sub
	return nil
}

// CountActive returns the number of active subscribers.
func (r *SubscriberRepository) CountActive(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, sub := range r.items {
		if sub.IsActive {
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored records, active or not.
func (r *SubscriberRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
