package toolcast

import (
	"context"
	"time"

	"github.com/coregx/toolcast/model"
)

// CatalogRepository defines the persistence interface for catalog items.
//
// Implementations must be safe for concurrent use.
type CatalogRepository interface {
	// Load retrieves an item by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.CatalogItem, error)

	// Save creates a new item (if ID=0) or updates an existing one.
	// Returns the saved item with populated ID.
	Save(ctx context.Context, m model.CatalogItem) (model.CatalogItem, error)

	// Delete permanently removes an item.
	// Returns ErrNoData if no row was deleted.
	Delete(ctx context.Context, id int64) error

	// List returns one page of items matching the filter, newest first.
	// Returns an empty slice if none found.
	List(ctx context.Context, filter model.CatalogFilter, page model.Page) ([]model.CatalogItem, error)

	// Count returns the number of items matching the filter.
	Count(ctx context.Context, filter model.CatalogFilter) (int, error)
}

// SubmissionRepository defines the persistence interface for visitor submissions.
type SubmissionRepository interface {
	// Load retrieves a submission by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Submission, error)

	// Save creates a new submission (if ID=0) or updates an existing one.
	Save(ctx context.Context, m model.Submission) (model.Submission, error)

	// UpdateStatus writes status, reviewed and updated_at in a single statement,
	// so readers never observe one without the other.
	// Returns ErrNoData if the submission does not exist.
	UpdateStatus(ctx context.Context, id int64, status model.SubmissionStatus, reviewed bool, updatedAt time.Time) error

	// Delete permanently removes a submission.
	// Returns ErrNoData if no row was deleted.
	Delete(ctx context.Context, id int64) error

	// List returns one page of submissions matching the filter, newest first.
	List(ctx context.Context, filter model.SubmissionFilter, page model.Page) ([]model.Submission, error)

	// Count returns the number of submissions matching the filter.
	Count(ctx context.Context, filter model.SubmissionFilter) (int, error)
}

// ReviewRepository defines the persistence interface for reviews.
type ReviewRepository interface {
	// Load retrieves a review by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Review, error)

	// Save creates a new review (if ID=0) or updates an existing one.
	Save(ctx context.Context, m model.Review) (model.Review, error)

	// IncrementHelpful atomically adds one to the helpful counter.
	// Returns ErrNoData if the review does not exist.
	IncrementHelpful(ctx context.Context, id int64) error

	// SetToolName writes the denormalized tool name only.
	// Used by read-path backfill; never touches other columns.
	SetToolName(ctx context.Context, id int64, name string) error

	// Delete permanently removes a review.
	// Returns ErrNoData if no row was deleted.
	Delete(ctx context.Context, id int64) error

	// List returns one page of reviews matching the filter, ordered by created_at DESC.
	List(ctx context.Context, filter model.ReviewFilter, page model.Page) ([]model.Review, error)

	// Count returns the number of reviews matching the filter.
	Count(ctx context.Context, filter model.ReviewFilter) (int, error)
}

// SubscriberRepository is the recipient store read by the dispatcher and
// written by the SubscriberManager.
type SubscriberRepository interface {
	// Load retrieves a subscriber by ID.
	// Returns ErrNoData if not found.
	Load(ctx context.Context, id int64) (model.Subscriber, error)

	// Save creates a new subscriber (if ID=0) or updates an existing one.
	// Creating a second record for an existing email must fail.
	Save(ctx context.Context, m model.Subscriber) (model.Subscriber, error)

	// FindByEmail retrieves a subscriber by normalized email.
	// Returns ErrNoData if not found.
	FindByEmail(ctx context.Context, email string) (model.Subscriber, error)

	// FindActive returns every active subscriber ordered by ID ASC.
	// Returns ErrNoData if there are none.
	FindActive(ctx context.Context) ([]model.Subscriber, error)

	// SetActive flips the active flag.
	// Returns ErrNoData if the subscriber does not exist.
	SetActive(ctx context.Context, id int64, active bool) error

	// TouchSubscribedAt refreshes the subscription timestamp.
	// Returns ErrNoData if the subscriber does not exist.
	TouchSubscribedAt(ctx context.Context, id int64, at time.Time) error

	// Reactivate sets the active flag and the subscription timestamp
	// in a single write, so no reader sees one without the other.
	// Returns ErrNoData if the subscriber does not exist.
	Reactivate(ctx context.Context, id int64, at time.Time) error

	// CountActive returns the number of active subscribers.
	CountActive(ctx context.Context) (int, error)
}
