package relica

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coregx/relica"
	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// SubmissionRepository implements toolcast.SubmissionRepository using Relica.
type SubmissionRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewSubmissionRepository creates a new SubmissionRepository with default table prefix.
func NewSubmissionRepository(sqlDB *sql.DB, driverName string) *SubmissionRepository {
	return NewSubmissionRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewSubmissionRepositoryWithPrefix creates a new SubmissionRepository with custom table prefix.
func NewSubmissionRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *SubmissionRepository {
	return &SubmissionRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *SubmissionRepository) tableName() string {
	return r.tablePrefix + "submission"
}

// Load retrieves a submission by ID.
func (r *SubmissionRepository) Load(ctx context.Context, id int64) (model.Submission, error) {
	var sub model.Submission
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, toolcast.ErrNoData
	}
	if err != nil {
		return sub, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to load submission", err)
	}
	return sub, nil
}

// Save creates or updates a submission.
func (r *SubmissionRepository) Save(ctx context.Context, m model.Submission) (model.Submission, error) {
	if m.ID == 0 {
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to insert submission", err)
		}
		return m, nil
	}

	if _, err := r.Load(ctx, m.ID); err != nil {
		return m, err
	}
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update()
	if err != nil {
		return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update submission", err)
	}
	return m, nil
}

// UpdateStatus writes status, reviewed and updated_at in one UPDATE statement.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id int64, status model.SubmissionStatus, reviewed bool, updatedAt time.Time) error {
	if _, err := r.Load(ctx, id); err != nil {
		return err
	}

	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(map[string]interface{}{
			"status":     status,
			"reviewed":   reviewed,
			"updated_at": updatedAt,
		}).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update submission status", err)
	}
	return nil
}

// Delete permanently removes a submission.
func (r *SubmissionRepository) Delete(ctx context.Context, id int64) error {
	m, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Delete(); err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to delete submission", err)
	}
	return nil
}

// List returns one page of submissions, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter model.SubmissionFilter, page model.Page) ([]model.Submission, error) {
	subs := []model.Submission{}
	page = page.Normalize()

	q := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	err := q.OrderBy("created_at DESC").
		Limit(int64(page.Size)).
		Offset(int64(page.Offset())).
		All(&subs)
	if err != nil {
		return nil, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to list submissions", err)
	}
	return subs, nil
}

// Count returns the number of submissions matching the filter.
func (r *SubmissionRepository) Count(ctx context.Context, filter model.SubmissionFilter) (int, error) {
	var count int64
	q := r.db.WithContext(ctx).Select("COUNT(*)").From(r.tableName())
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.One(&count); err != nil {
		return 0, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to count submissions", err)
	}
	return int(count), nil
}
