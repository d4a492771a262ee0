package memory

import (
	"sort"
	"time"
)

// Repositories holds all in-memory repository implementations.
type Repositories struct {
	Catalog    *CatalogRepository
	Submission *SubmissionRepository
	Review     *ReviewRepository
	Subscriber *SubscriberRepository
}

// NewRepositories creates empty in-memory repositories.
func NewRepositories() *Repositories {
	return &Repositories{
		Catalog:    NewCatalogRepository(),
		Submission: NewSubmissionRepository(),
		Review:     NewReviewRepository(),
		Subscriber: NewSubscriberRepository(),
	}
}

// newestFirst sorts by created time descending, then ID descending.
func newestFirst[T any](items []T, created func(T) time.Time, id func(T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := created(items[i]), created(items[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return id(items[i]) > id(items[j])
	})
}

// paginate returns items[offset:offset+size], clamped to bounds.
func paginate[T any](items []T, offset, size int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + size
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-offset)
	copy(out, items[offset:end])
	return out
}
