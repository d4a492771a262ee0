package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/relica"
	"github.com/coregx/toolcast"
	"github.com/coregx/toolcast/model"
)

// CatalogRepository implements toolcast.CatalogRepository using Relica.
type CatalogRepository struct {
	db          *relica.DB
	tablePrefix string
}

// NewCatalogRepository creates a new CatalogRepository with default table prefix.
func NewCatalogRepository(sqlDB *sql.DB, driverName string) *CatalogRepository {
	return NewCatalogRepositoryWithPrefix(sqlDB, driverName, DefaultTablePrefix)
}

// NewCatalogRepositoryWithPrefix creates a new CatalogRepository with custom table prefix.
func NewCatalogRepositoryWithPrefix(sqlDB *sql.DB, driverName, prefix string) *CatalogRepository {
	return &CatalogRepository{db: relica.WrapDB(sqlDB, driverName), tablePrefix: prefix}
}

func (r *CatalogRepository) tableName() string {
	return r.tablePrefix + "catalog_item"
}

// Load retrieves a catalog item by ID.
func (r *CatalogRepository) Load(ctx context.Context, id int64) (model.CatalogItem, error) {
	var item model.CatalogItem
	err := r.db.WithContext(ctx).Select("*").From(r.tableName()).Where("id = ?", id).One(&item)
	if errors.Is(err, sql.ErrNoRows) {
		return item, toolcast.ErrNoData
	}
	if err != nil {
		return item, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to load catalog item", err)
	}
	return item, nil
}

// Save creates or updates a catalog item.
func (r *CatalogRepository) Save(ctx context.Context, m model.CatalogItem) (model.CatalogItem, error) {
	if m.ID == 0 {
		// Insert using Model() API - auto-populates m.ID
		err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Insert()
		if err != nil {
			return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to insert catalog item", err)
		}
		return m, nil
	}

	if _, err := r.Load(ctx, m.ID); err != nil {
		return m, err
	}
	err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Update()
	if err != nil {
		return m, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to update catalog item", err)
	}
	return m, nil
}

// Delete permanently removes a catalog item.
func (r *CatalogRepository) Delete(ctx context.Context, id int64) error {
	m, err := r.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Model(&m).Table(r.tableName()).Delete(); err != nil {
		return toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to delete catalog item", err)
	}
	return nil
}

// List returns one page of catalog items, newest first.
func (r *CatalogRepository) List(ctx context.Context, filter model.CatalogFilter, page model.Page) ([]model.CatalogItem, error) {
	items := []model.CatalogItem{}
	page = page.Normalize()

	q := r.db.WithContext(ctx).Select("*").From(r.tableName())
	if cond := catalogConditions(filter); !cond.empty() {
		q = q.Where(cond.sql(), cond.args...)
	}
	err := q.OrderBy("created_at DESC").
		Limit(int64(page.Size)).
		Offset(int64(page.Offset())).
		All(&items)
	if err != nil {
		return nil, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to list catalog items", err)
	}
	return items, nil
}

// Count returns the number of catalog items matching the filter.
func (r *CatalogRepository) Count(ctx context.Context, filter model.CatalogFilter) (int, error) {
	var count int64
	q := r.db.WithContext(ctx).Select("COUNT(*)").From(r.tableName())
	if cond := catalogConditions(filter); !cond.empty() {
		q = q.Where(cond.sql(), cond.args...)
	}
	if err := q.One(&count); err != nil {
		return 0, toolcast.NewErrorWithCause(toolcast.ErrCodeDatabase, "failed to count catalog items", err)
	}
	return int(count), nil
}

func catalogConditions(filter model.CatalogFilter) *conditions {
	cond := &conditions{}
	if filter.Status != "" {
		cond.add("status = ?", filter.Status)
	}
	if filter.Category != "" {
		cond.add("category = ?", filter.Category)
	}
	if filter.Featured != nil {
		cond.add("featured = ?", *filter.Featured)
	}
	return cond
}
