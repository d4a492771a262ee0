package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SubmissionStatus is the moderation status of a visitor submission.
type SubmissionStatus string

const (
	// SubmissionStatusPending is the initial status; the record has not been reviewed.
	SubmissionStatusPending SubmissionStatus = "pending"

	// SubmissionStatusApproved marks a submission accepted by a moderator.
	SubmissionStatusApproved SubmissionStatus = "approved"

	// SubmissionStatusRejected marks a submission declined by a moderator.
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

// Valid reports whether s is one of the known statuses.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	}
	return false
}

// ErrInvalidSubmissionStatus is returned when a status outside the enum is written.
var ErrInvalidSubmissionStatus = DomainError{Code: "INVALID_STATUS", Message: "status must be one of pending, approved, rejected"}

// Submission is a tool proposed by a visitor, awaiting moderation.
//
// Reviewed is derived: it is true exactly when Status is not pending.
// SetStatus is the only writer of either field.
type Submission struct {
	ID          int64            `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	URL         string           `json:"url" db:"url"`
	Description string           `json:"description" db:"description"`
	Category    string           `json:"category" db:"category"`
	ImageURL    string           `json:"imageURL" db:"image_url"`
	Status      SubmissionStatus `json:"status" db:"status"`
	Reviewed    bool             `json:"reviewed" db:"reviewed"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time        `json:"updatedAt" db:"updated_at"`
}

// TableName returns the database table name for Submission.
func (s Submission) TableName() string {
	return tablePrefix + "submission"
}

// NewSubmission creates a pending, unreviewed submission.
func NewSubmission(name, url, description, category, imageURL string) Submission {
	now := time.Now()
	return Submission{
		ID:          0,
		Name:        normalizeText(name),
		URL:         normalizeText(url),
		Description: description,
		Category:    normalizeText(category),
		ImageURL:    normalizeText(imageURL),
		Status:      SubmissionStatusPending,
		Reviewed:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks field constraints.
func (s Submission) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&s.URL, validation.Required, isHTTPURL),
		validation.Field(&s.Description, validation.Required, validation.Length(1, 5000)),
		validation.Field(&s.Category, validation.Required, validation.Length(1, 100)),
		validation.Field(&s.ImageURL, isHTTPURL),
	)
}

// SetStatus writes the status and the derived reviewed flag together.
// Writing pending re-opens the record.
func (s *Submission) SetStatus(status SubmissionStatus) error {
	if !status.Valid() {
		return ErrInvalidSubmissionStatus
	}
	s.Status = status
	s.Reviewed = ReviewedFor(status)
	s.UpdatedAt = time.Now()
	return nil
}

// ReviewedFor returns the reviewed flag that must accompany status.
func ReviewedFor(status SubmissionStatus) bool {
	return status != SubmissionStatusPending
}

// SubmissionFilter narrows submission listings. Empty status means all.
type SubmissionFilter struct {
	Status SubmissionStatus
}
