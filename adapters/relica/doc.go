// Package relica provides repository implementations using Relica query builder.
//
// Relica (github.com/coregx/relica) is a lightweight, type-safe database query builder
// for Go with zero production dependencies.
//
// This package provides implementations of all toolcast repository interfaces:
//   - CatalogRepository
//   - SubmissionRepository
//   - ReviewRepository
//   - SubscriberRepository
//
// Example usage:
//
//	import (
//	    "database/sql"
//	    "github.com/coregx/toolcast"
//	    "github.com/coregx/toolcast/adapters/relica"
//	    _ "github.com/mattn/go-sqlite3"
//	)
//
//	db, err := sql.Open("sqlite3", "toolcast.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := toolcast.ApplyMigrations(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// driverName should be "mysql", "postgres", or "sqlite3"
//	repos := relica.NewRepositories(db, "sqlite3")
//
//	dispatcher, err := toolcast.NewDispatcher(
//	    toolcast.WithRecipients(repos.Subscriber),
//	    toolcast.WithTransport(relay),
//	    toolcast.WithRenderer(renderer),
//	    toolcast.WithLogger(logger),
//	)
package relica
