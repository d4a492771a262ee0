package memory

import (
	"context"
	"sync"
	"time"

	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// CatalogRepository implements toolcast.CatalogRepository in memory.
type CatalogRepository struct {
	mu     sync.RWMutex
	items  map[int64]model.CatalogItem
	nextID int64
}

// NewCatalogRepository creates an empty CatalogRepository.
func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{items: make(map[int64]model.CatalogItem)}
}

// Load retrieves a catalog item by ID.
func (r *CatalogRepository) Load(_ context.Context, id int64) (model.CatalogItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return model.CatalogItem{}, toolcast.ErrNoData
	}
	return item, nil
}

// Save creates or updates a catalog item.
func (r *CatalogRepository) Save(_ context.Context, m model.CatalogItem) (model.CatalogItem, error) {
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

// Delete permanently removes a catalog item.
func (r *CatalogRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return toolcast.ErrNoData
	}
	delete(r.items, id)
	return nil
}

// List returns one page of catalog items, newest first.
func (r *CatalogRepository) List(_ context.Context, filter model.CatalogFilter, page model.Page) ([]model.CatalogItem, error) {
	page = page.Normalize()
	matched := r.match(filter)
	newestFirst(matched,
		func(c model.CatalogItem) time.Time { return c.CreatedAt },
		func(c model.CatalogItem) int64 { return c.ID })
	return paginate(matched, page.Offset(), page.Size), nil
}

// Count returns the number of catalog items matching the filter.
func (r *CatalogRepository) Count(_ context.Context, filter model.CatalogFilter) (int, error) {
	return len(r.match(filter)), nil
}

func (r *CatalogRepository) match(filter model.CatalogFilter) []model.CatalogItem {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.CatalogItem
	for _, item := range r.items {
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if filter.Category != "" && item.Category != filter.Category {
			continue
		}
		if filter.Featured != nil && item.Featured != *filter.Featured {
			continue
		}
		out = append(out, item)
	}
	return out
}
