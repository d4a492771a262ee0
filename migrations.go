package toolcast

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// MigrationFiles contains the SQL schema for every supported dialect,
// laid out as migrations/<dialect>/<version>_<name>.up.sql.
//
// Use ApplyMigrations for the built-in runner, or hand a dialect
// sub-directory to your preferred migration tool:
//
//	sub, _ := fs.Sub(toolcast.MigrationFiles, "migrations/postgres")
//	goose.SetBaseFS(sub)
//
//go:embed migrations/*/*.sql
var MigrationFiles embed.FS

// migrationsTable records applied versions.
const migrationsTable = "toolcast_schema_migrations"

type migrationFile struct {
	version string
	path    string
}

// MigrationDialect maps a database/sql driver name to its migrations directory.
func MigrationDialect(driverName string) (string, error) {
	switch driverName {
	case "mysql":
		return "mysql", nil
	case "postgres", "pgx":
		return "postgres", nil
	case "sqlite3", "sqlite":
		return "sqlite3", nil
	}
	return "", NewError(ErrCodeConfiguration, fmt.Sprintf("unsupported database driver %q", driverName))
}

// ApplyMigrations applies the embedded migrations for driverName that have
// not been applied yet. Each migration runs in its own transaction.
func ApplyMigrations(ctx context.Context, db *sql.DB, driverName string) error {
	dialect, err := MigrationDialect(driverName)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+migrationsTable+" (version VARCHAR(255) NOT NULL PRIMARY KEY)"); err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "failed to create migrations table", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "failed to read applied migrations", err)
	}

	files, err := collectMigrations(MigrationFiles, "migrations/"+dialect)
	if err != nil {
		return NewErrorWithCause(ErrCodeConfiguration, "failed to read embedded migrations", err)
	}

	for _, m := range files {
		if applied[m.version] {
			continue
		}
		if err := applyMigration(ctx, db, dialect, m); err != nil {
			return NewErrorWithCause(ErrCodeDatabase, fmt.Sprintf("failed to apply migration %s", m.version), err)
		}
	}
	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM "+migrationsTable)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func collectMigrations(fsys fs.FS, dir string) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}
		files = append(files, migrationFile{
			version: strings.TrimSuffix(entry.Name(), ".up.sql"),
			path:    dir + "/" + entry.Name(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].version < files[j].version
	})
	return files, nil
}

func applyMigration(ctx context.Context, db *sql.DB, dialect string, m migrationFile) error {
	content, err := fs.ReadFile(MigrationFiles, m.path)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	// One statement per Exec: the MySQL driver rejects multi-statement strings by default.
	for _, stmt := range splitStatements(string(content)) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w\n%s", err, stmt)
		}
	}

	insert := "INSERT INTO " + migrationsTable + " (version) VALUES (?)"
	if dialect == "postgres" {
		insert = "INSERT INTO " + migrationsTable + " (version) VALUES ($1)"
	}
	if _, err := tx.ExecContext(ctx, insert, m.version); err != nil {
		return err
	}

	return tx.Commit()
}

// splitStatements splits a migration on statement-terminating semicolons.
// The schema files contain no semicolons inside literals.
func splitStatements(content string) []string {
	var stmts []string
	for _, part := range strings.Split(content, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
