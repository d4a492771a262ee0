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

// SubscriberRepository implements toolcast.SubscriberRepository using Relica.
// Email uniqueness is enforced by the table's unique index.
type SubscriberRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewSubscriberRepository creates a new SubscriberRepository with default table prefix.
func NewSubscriberRepository(sqlDB *sql.DB, driverName string) *SubscriberRepository {
	return NewSubscriberRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewSubscriberRepositoryWithPrefix creates a new SubscriberRepository with custom table prefix.
func NewSubscriberRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *SubscriberRepository {
	return &SubscriberRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *SubscriberRepository) tableName() string {
	return r.tablePrefix + "subscriber"
}

// Load retrieves a subscriber by ID.
func (r *SubscriberRepository) Load(ctx context.Context, id int64) (model.Subscriber, error) {
	var sub model.Subscriber
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, toolcast.ErrNoData
	}
	if err != nil {
		return sub, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to load subscriber", err)
	}
	return sub, nil
}

// Save creates or updates a subscriber.
func (r *SubscriberRepository) Save(ctx context.Context, m model.Subscriber) (model.Subscriber, error) {
	m.Email = model.NormalizeEmail(m.Email)
	if m.ID == 0 {
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to insert subscriber", err)
		}
		return m, nil
	}

	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update()
	if err != nil {
		return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update subscriber", err)
	}
	return m, nil
}

// FindByEmail retrieves a subscriber by normalized email.
func (r *SubscriberRepository) FindByEmail(ctx context.Context, email string) (model.Subscriber, error) {
	var sub model.Subscriber
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("email = ?", model.NormalizeEmail(email)).One(&sub)
	if errors.Is(err, sql.ErrNoRows) {
		return sub, toolcast.ErrNoData
	}
	if err != nil {
		return sub, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to find subscriber by email", err)
	}
	return sub, nil
}

// FindActive returns every active subscriber ordered by ID.
func (r *SubscriberRepository) FindActive(ctx context.Context) ([]model.Subscriber, error) {
	var subs []model.Subscriber
	err := r.db.WithContext(ctx).Select("*").
		From(r.tableName()).
		Where("is_active = ?", true).
		OrderBy("id ASC").
		All(&subs)
	if err != nil {
		return nil, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to find active subscribers", err)
	}
	if len(subs) == 0 {
		return nil, toolcast.ErrNoData
	}
	return subs, nil
}

// SetActive flips the active flag.
func (r *SubscriberRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.set(ctx, id, map[string]interface{}{"is_active": active})
}

// TouchSubscribedAt refreshes the subscription timestamp.
func (r *SubscriberRepository) TouchSubscribedAt(ctx context.Context, id int64, at time.Time) error {
	return r.set(ctx, id, map[string]interface{}{"subscribed_at": at})
}

// Reactivate sets is_active and subscribed_at in one UPDATE.
func (r *SubscriberRepository) Reactivate(ctx context.Context, id int64, at time.Time) error {
	return r.set(ctx, id, map[string]interface{}{
		"is_active":     true,
		"subscribed_at": at,
	})
}

func (r *SubscriberRepository) set(ctx context.Context, id int64, values map[string]interface{}) error {
	if _, err := r.Load(ctx, id); err != nil {
		return err
	}
	_, err := r.db.WithContext(ctx).Update(r.tableName()).
		Set(values).
		Where("id = ?", id).
		Execute()
	if err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update subscriber", err)
	}
	return nil
}

// CountActive returns the number of active subscribers.
func (r *SubscriberRepository) CountActive(ctx context.Context) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Select("COUNT(*)").From(r.tableName()).Where("is_active = ?", true).One(&count)
	if err != nil {
		return 0, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to count active subscribers", err)
	}
	return int(count), nil
}
