package toolcast_test

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/toolcast"
)

func TestMigrationDialect(t *testing.T) {
	tests := []struct {
		driver  string
		want    string
		wantErr bool
	}{
		{"mysql", "mysql", false},
		{"postgres", "postgres", false},
		{"pgx", "postgres", false},
		{"sqlite3", "sqlite3", false},
		{"sqlite", "sqlite3", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got, err := toolcast.MigrationDialect(tt.driver)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, toolcast.HasCode(err, toolcast.ErrCodeConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrationFiles_EveryDialect(t *testing.T) {
	for _, dialect := range []string{"mysql", "postgres", "sqlite3"} {
		matches, err := fs.Glob(toolcast.MigrationFiles, "migrations/"+dialect+"/*.up.sql")
		require.NoError(t, err)
		assert.NotEmpty(t, matches, dialect)
	}
}

func TestApplyMigrations_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, toolcast.ApplyMigrations(ctx, db, "sqlite3"))
	require.NoError(t, toolcast.ApplyMigrations(ctx, db, "sqlite3"), "applying twice is a no-op")

	for _, table := range []string{"toolcast_catalog_item", "toolcast_submission", "toolcast_review", "toolcast_subscriber"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, table)
	}

	var applied int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM toolcast_schema_migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	_, err = db.ExecContext(ctx, "INSERT INTO toolcast_subscriber (email, is_active, subscribed_at) VALUES ('a@example.com', 1, CURRENT_TIMESTAMP)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO toolcast_subscriber (email, is_active, subscribed_at) VALUES ('a@example.com', 1, CURRENT_TIMESTAMP)")
	assert.Error(t, err, "email is unique")
}
