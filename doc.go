// Package toolcast implements the content lifecycle and notification dispatch
// of a tool directory: catalog items moving from pending to published, visitor
// submissions under moderation, reviews attached to items, and the fan-out that
// notifies every active subscriber when a new item is created.
//
// Works both as a library for embedding in your application AND as a standalone
// service with REST API (cmd/toolcast-server).
//
// # Features
//
//   - Catalog item state machine with an independent featured flag
//   - Submission moderation with a reviewed flag that always matches the status
//   - Reviews with denormalized tool names and best-effort backfill on read
//   - Subscriber lifecycle: idempotent subscribe, soft unsubscribe, reactivation
//   - Throttled fan-out: concurrent batches of 50 with a 1s pause between them
//   - Options Pattern for every service
//   - Pluggable Logger, NotificationService, Transport and MessageRenderer
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Embedded per-dialect migrations
//
// # Quick Start
//
// Apply the migrations and build the repositories:
//
//	db, _ := sql.Open("sqlite3", "toolcast.db")
//	if err := toolcast.ApplyMigrations(ctx, db, "sqlite3"); err != nil {
//	    log.Fatal(err)
//	}
//	repos := relica.NewRepositories(db, "sqlite3")
//
// Wire the catalog to the dispatcher through an event bus:
//
//	bus := toolcast.NewEventBus(0, logger)
//
//	catalog, _ := toolcast.NewCatalogService(
//	    toolcast.WithCatalogRepository(repos.Catalog),
//	    toolcast.WithCatalogEvents(bus),
//	    toolcast.WithCatalogLogger(logger),
//	)
//
//	dispatcher, _ := toolcast.NewDispatcher(
//	    toolcast.WithRecipients(repos.Subscriber),
//	    toolcast.WithTransport(transport.NewLogTransport(logger)),
//	    toolcast.WithRenderer(render.Must(render.New())),
//	    toolcast.WithLogger(logger),
//	)
//	go dispatcher.Run(ctx, bus.Events())
//
// Creating an item returns immediately; subscribers are notified in the background:
//
//	item, err := catalog.Create(ctx, model.NewCatalogItem(
//	    "Linter Pro", "Developer Tools", "Finds bugs early.", "https://linter.example", model.PricingFree))
//
// # Dispatch Flow
//
//  1. CREATE
//     CatalogService.Create → save item → publish ItemPublished (exactly once)
//
//  2. DISPATCH (Background)
//     Dispatcher.Run → load active subscribers (snapshot)
//     → render one message
//     → batch 1 delivered concurrently, wait for all
//     → pause → batch 2 ...
//
//  3. FAILURES
//     A failed delivery is logged and reported to the NotificationService.
//     It is never retried and never affects other recipients.
//     A recipient load failure aborts the cycle; the item stays created.
//
// There is no durable outbox: events queued in memory, and recipients of a
// cycle in progress, are lost if the process stops.
//
// # Database Schema
//
// Four tables are created by the embedded migrations:
//
//	toolcast_catalog_item - Listed tools
//	toolcast_submission   - Visitor submissions under moderation
//	toolcast_review       - Reviews with denormalized tool name
//	toolcast_subscriber   - Newsletter audience (unique email)
//
// Table prefix can be customized in the Relica adapters (default: "toolcast_").
package toolcast
