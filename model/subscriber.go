package model

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Subscriber is an audience member of the new-tool newsletter.
// Only active subscribers are recipients of a dispatch cycle.
//
// Lifecycle:
//   - created on first subscribe
//   - unsubscribing deactivates the record, it is never deleted
//   - subscribing again reactivates the same record and refreshes SubscribedAt
type Subscriber struct {
	ID           int64     `json:"id" db:"id"`                      // Unique subscriber ID
	Email        string    `json:"email" db:"email"`                // Unique, lower-case address
	IsActive     bool      `json:"isActive" db:"is_active"`         // Only active subscribers receive notifications
	SubscribedAt time.Time `json:"subscribedAt" db:"subscribed_at"` // Last (re)subscription time
}

// TableName returns the database table name for Subscriber.
func (s Subscriber) TableName() string {
	return tablePrefix + "subscriber"
}

// NewSubscriber creates a new active subscriber for email.
func NewSubscriber(email string) Subscriber {
	return Subscriber{
		ID:           0,
		Email:        NormalizeEmail(email),
		IsActive:     true,
		SubscribedAt: time.Now(),
	}
}

// NormalizeEmail trims and lower-cases an address so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the email address.
func (s Subscriber) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Email, validation.Required, validation.Length(3, 255), isEmail),
	)
}

// Deactivate marks the subscriber as unsubscribed. The record is retained.
func (s *Subscriber) Deactivate() {
	s.IsActive = false
}

// Reactivate marks the subscriber active again and refreshes SubscribedAt.
func (s *Subscriber) Reactivate() {
	s.IsActive = true
	s.SubscribedAt = time.Now()
}
