package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	// MinRating is the lowest accepted star rating.
	MinRating = 1
	// MaxRating is the highest accepted star rating.
	MaxRating = 5
)

// UnknownToolName is stored when a review's subject cannot be resolved.
const UnknownToolName = "Unknown Tool"

// Review is visitor feedback attached to a catalog item.
//
// ToolID is an opaque reference so that reviews survive identifier scheme
// changes in the catalog. ToolName is a denormalized copy of the item name;
// legacy rows may carry it empty until a read backfills it.
type Review struct {
	ID          int64     `json:"id" db:"id"`
	ToolID      string    `json:"toolId" db:"tool_id"`
	ToolName    string    `json:"toolName" db:"tool_name"`
	Rating      int       `json:"rating" db:"rating"`
	AuthorName  string    `json:"authorName" db:"author_name"`
	AuthorEmail string    `json:"authorEmail" db:"author_email"`
	Comment     string    `json:"comment" db:"comment"`
	Helpful     int       `json:"helpful" db:"helpful"`
	Reported    bool      `json:"reported" db:"reported"`
	Visible     bool      `json:"visible" db:"visible"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the database table name for Review.
func (r Review) TableName() string {
	return tablePrefix + "review"
}

// NewReview creates a visible review with no helpful votes.
func NewReview(toolID string, rating int, authorName, authorEmail, comment string) Review {
	return Review{
		ID:          0,
		ToolID:      normalizeText(toolID),
		Rating:      rating,
		AuthorName:  normalizeText(authorName),
		AuthorEmail: normalizeText(authorEmail),
		Comment:     comment,
		Helpful:     0,
		Reported:    false,
		Visible:     true,
		CreatedAt:   time.Now(),
	}
}

// Validate checks field constraints.
func (r Review) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ToolID, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Rating, isRating),
		validation.Field(&r.AuthorName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.AuthorEmail, isEmail),
		validation.Field(&r.Comment, validation.Required, validation.Length(1, 2000)),
		validation.Field(&r.ToolName, validation.Length(0, 255)),
	)
}

// NeedsToolName reports whether the denormalized name is missing.
func (r Review) NeedsToolName() bool {
	return r.ToolName == ""
}

// ReviewUpdate is a partial update. Nil fields are left untouched.
type ReviewUpdate struct {
	Rating     *int    `json:"rating"`
	AuthorName *string `json:"authorName"`
	Comment    *string `json:"comment"`
	ToolName   *string `json:"toolName"`
	Visible    *bool   `json:"visible"`
	Reported   *bool   `json:"reported"`
}

// IsEmpty reports whether the update carries no fields.
func (u ReviewUpdate) IsEmpty() bool {
	return u.Rating == nil && u.AuthorName == nil && u.Comment == nil &&
		u.ToolName == nil && u.Visible == nil && u.Reported == nil
}

// Apply copies the set fields onto r. The helpful counter is never touched.
func (u ReviewUpdate) Apply(r *Review) {
	if u.Rating != nil {
		r.Rating = *u.Rating
	}
	if u.AuthorName != nil {
		r.AuthorName = normalizeText(*u.AuthorName)
	}
	if u.Comment != nil {
		r.Comment = *u.Comment
	}
	if u.ToolName != nil {
		r.ToolName = normalizeText(*u.ToolName)
	}
	if u.Visible != nil {
		r.Visible = *u.Visible
	}
	if u.Reported != nil {
		r.Reported = *u.Reported
	}
}

// ReviewFilter narrows review listings. Empty ToolID means all tools.
type ReviewFilter struct {
	ToolID      string
	VisibleOnly bool
}
