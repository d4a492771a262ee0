package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/relica"
	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// ReviewRepository implements toolcast.ReviewRepository using Relica.
//
// The raw *sql.DB is kept for the helpful counter, which must be incremented
// by the database rather than read-modify-written.
type ReviewRepository struct {
	db          *relica.DB
	sqlDB       *sql.DB
	driverName  string
	tablePrefix string
}

// NewReviewRepository creates a new ReviewRepository with default table prefix.
func NewReviewRepository(sqlDB *sql.DB, driverName string) *ReviewRepository {
	return NewReviewRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewReviewRepositoryWithPrefix creates a new ReviewRepository with custom table prefix.
func NewReviewRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *ReviewRepository {
	return &ReviewRepository{
		db:          relica.WrapDB(sqlDB, driverName),
		sqlDB:       sqlDB,
		driverName:  driverName,
		tablePrefix: prefix,
	}
}

func (r *ReviewRepository) tableName() string {
	return r.tablePrefix + "review"
}

// Load retrieves a review by ID.
func (r *ReviewRepository) Load(ctx context.Context, id int64) (model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&review)
	if errors.Is(err, sql.ErrNoRows) {
		return review, toolcast.ErrNoData
	}
	if err != nil {
		return review, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to load review", err)
	}
	return review, nil
}

// Save creates or updates a review.
// The helpful column is never overwritten by an update.
func (r *ReviewRepository) Save(ctx context.Context, m model.Review) (model.Review, error) {
	if m.ID == 0 {
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to insert review", err)
		}
		return m, nil
	}

	current, err := r.Load(ctx, m.ID)
	if err != nil {
		return m, err
	}

	_, err = r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"tool_id":      m.ToolID,
			"tool_name":    m.ToolName,
			"rating":       m.Rating,
			"author_name":  m.AuthorName,
			"author_email": m.AuthorEmail,
			"comment":      m.Comment,
			"reported":     m.Reported,
			"visible":      m.Visible,
		}).
		Where("id = ?", m.ID).
		Execute()
	if err != nil {
		return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update review", err)
	}
	m.Helpful = current.Helpful
	return m, nil
}

// IncrementHelpful runs helpful = helpful + 1 as a single statement.
func (r *ReviewRepository) IncrementHelpful(ctx context.Context, id int64) error {
	query := rebind(r.driverName, "UPDATE "+r.tableName()+" SET helpful = helpful + 1 WHERE id = ?")
	res, err := r.sqlDB.ExecContext(ctx, query, id)
	if err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to increment helpful", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to read affected rows", err)
	}
	if n == 0 {
		return toolcast.ErrNoData
	}
	return nil
}

// SetToolName writes the denormalized tool name only.
// It returns toolcast.ErrNoData when the review does not exist.
func (r *ReviewRepository) SetToolName(ctx context.Context, id int64, name string) error {
	// MySQL reports zero affected rows for an unchanged value, so existence is checked by id.
	if _, err := r.Load(ctx, id); err != nil {
		return err
	}

	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"tool_name": name,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to set tool name", err)
	}
	return nil
}

// Delete permanently removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id int64) error {
	m, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Delete(); err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to delete review", err)
	}
	return nil
}

// List returns one page of reviews ordered by created_at DESC.
func (r *ReviewRepository) List(ctx context.Context, filter model.ReviewFilter, page model.Page) ([]model.Review, error) {
	reviews := []model.Review{}
	page = page.Normalize()

	q := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if cond := reviewConditions(filter); !cond.empty() {
		q = q.Where(cond.sql(), cond.args...)
	}
	err := q.OrderBy("created_at DESC").
		Limit(int64(page.Size)).
		Offset(int64(page.Offset())).
		All(&reviews)
	if err != nil {
		return nil, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to list reviews", err)
	}
	return reviews, nil
}

// Count returns the number of reviews matching the filter.
func (r *ReviewRepository) Count(ctx context.Context, filter model.ReviewFilter) (int, error) {
	var count int64
	q := r.db.WithContext(ctx).Select("COUNT(*)").From(r.tableName())
	if cond := reviewConditions(filter); !cond.empty() {
		q = q.Where(cond.sql(), cond.args...)
	}
	if err := q.One(&count); err != nil {
		return 0, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to count reviews", err)
	}
	return int(count), nil
}

func reviewConditions(filter model.ReviewFilter) *conditions {
	cond := &conditions{}
	if filter.ToolID != "" {
		cond.add("tool_id = ?", filter.ToolID)
	}
	if filter.VisibleOnly {
		cond.add("visible = ?", true)
	}
	return cond
}
