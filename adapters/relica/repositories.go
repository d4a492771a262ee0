package relica

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/coregx/toolcast"
)

// DefaultTablePrefix is the table prefix used by NewRepositories.
const DefaultTablePrefix = "toolcast_"

// Repositories holds all repository implementations.
type Repositories struct {
	Catalog    toolcast.CatalogRepository
	Submission toolcast.SubmissionRepository
	Review     toolcast.ReviewRepository
	Subscriber toolcast.SubscriberRepository
}

// NewRepositories creates all repository implementations using Relica.
//
// The db parameter should be an *sql.DB connected to MySQL, PostgreSQL, or SQLite.
// The driverName should be "mysql", "postgres", or "sqlite3".
// The table prefix defaults to "toolcast_" but can be customized.
func NewRepositories(db *sql.DB, driverName string) *Repositories {
	return NewRepositoriesWithPrefix(db, driverName, DefaultTablePrefix)
}

// NewRepositoriesWithPrefix creates all repository implementations with a custom table prefix.
func NewRepositoriesWithPrefix(db *sql.DB, driverName, prefix string) *Repositories {
	return &Repositories{
		Catalog:    NewCatalogRepositoryWithPrefix(db, driverName, prefix),
		Submission: NewSubmissionRepositoryWithPrefix(db, driverName, prefix),
		Review:     NewReviewRepositoryWithPrefix(db, driverName, prefix),
		Subscriber: NewSubscriberRepositoryWithPrefix(db, driverName, prefix),
	}
}

// conditions accumulates AND-ed WHERE clauses for optional filters.
type conditions struct {
	clauses []string
	args    []interface{}
}

func (c *conditions) add(clause string, args ...interface{}) {
	c.clauses = append(c.clauses, clause)
	c.args = append(c.args, args...)
}

func (c *conditions) empty() bool {
	return len(c.clauses) == 0
}

func (c *conditions) sql() string {
	return strings.Join(c.clauses, " AND ")
}

// rebind rewrites ? placeholders for drivers that use numbered parameters.
// Only used for the few raw statements the query builder cannot express.
func rebind(driverName, query string) string {
	if driverName != "postgres" && driverName != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
