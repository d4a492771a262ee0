package relica

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
)

var (
	_ toolcast.CatalogRepository    = (*CatalogRepository)(nil)
	_ toolcast.SubmissionRepository = (*SubmissionRepository)(nil)
	_ toolcast.ReviewRepository     = (*ReviewRepository)(nil)
	_ toolcast.SubscriberRepository = (*SubscriberRepository)(nil)
)

func TestRebind(t *testing.T) {
	query := "UPDATE t SET helpful = helpful + 1 WHERE id = ? AND tool_id = ?"

	assert.Equal(t, query, rebind("mysql", query))
	assert.Equal(t, query, rebind("sqlite3", query))
	assert.Equal(t, "UPDATE t SET helpful = helpful + 1 WHERE id = $1 AND tool_id = $2", rebind("postgres", query))
	assert.Equal(t, "SELECT 1 WHERE a = $1", rebind("pgx", "SELECT 1 WHERE a = ?"))
}

func TestConditions(t *testing.T) {
	var c conditions
	assert.True(t, c.empty())

	c.add("status = ?", "Approved")
	c.add("featured = ?", true)
	c.add("category = ?", "Developer Tools")

	assert.False(t, c.empty())
	assert.Equal(t, "status = ? AND featured = ? AND category = ?", c.sql())
	assert.Equal(t, []interface{}{"Approved", true, "Developer Tools"}, c.args)
}

func TestTableNames(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := NewRepositoriesWithPrefix(db, "sqlite3", "app_")

	assert.Equal(t, "app_catalog_item", repos.Catalog.(*CatalogRepository).tableName())
	assert.Equal(t, "app_submission", repos.Submission.(*SubmissionRepository).tableName())
	assert.Equal(t, "app_review", repos.Review.(*ReviewRepository).tableName())
	assert.Equal(t, "app_subscriber", repos.Subscriber.(*SubscriberRepository).tableName())
}
