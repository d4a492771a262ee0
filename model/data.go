// Package model contains the domain models for the toolcast content lifecycle:
// catalog items, visitor submissions, reviews, subscribers and the ephemeral
// notification job built for every dispatch cycle.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// tablePrefix is the default prefix for every toolcast table.
const tablePrefix = "toolcast_"

// DefaultPageSize is used when a caller asks for a page without a size.
const DefaultPageSize = 20

// MaxPageSize caps the page size accepted from callers.
const MaxPageSize = 100

// DomainError represents a domain-level business rule violation.
// Used by model methods to reject values that can never be stored.
type DomainError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
}

func (e DomainError) Error() string {
	return e.Message
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip for this page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// PageResult is one page of items plus the total number of matching rows.
type PageResult[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// ItemSnapshot is the immutable view of a catalog item captured when it is published.
// The dispatcher renders notifications from the snapshot only.
type ItemSnapshot struct {
	ItemID      int64  `json:"itemID"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageURL,omitempty"`
}

// Message is a rendered notification payload. It is the same for every
// recipient of a dispatch cycle; only the destination address differs.
type Message struct {
	Subject  string `json:"subject"`
	TextBody string `json:"textBody"`
	HTMLBody string `json:"htmlBody"`
}

// NotificationJob is the in-memory unit of work for one dispatch cycle.
// It is never persisted: a process crash mid-cycle loses the remaining recipients.
type NotificationJob struct {
	ID         string
	Snapshot   ItemSnapshot
	Recipients []Subscriber
	CreatedAt  time.Time
}

// NewNotificationJob captures the recipient set for a snapshot.
func NewNotificationJob(snapshot ItemSnapshot, recipients []Subscriber) NotificationJob {
	return NotificationJob{
		ID:         uuid.New().String(),
		Snapshot:   snapshot,
		Recipients: recipients,
		CreatedAt:  time.Now(),
	}
}

// Addresses returns the destination addresses in load order.
func (j NotificationJob) Addresses() []string {
	addrs := make([]string, 0, len(j.Recipients))
	for _, r := range j.Recipients {
		addrs = append(addrs, r.Email)
	}
	return addrs
}

// normalizeText trims surrounding whitespace from free-form input.
func normalizeText(s string) string {
	return strings.TrimSpace(s)
}
