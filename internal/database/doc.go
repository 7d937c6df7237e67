// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, category seeding
//	├── catalog/         # Book, scholar, category and user lookups
//	├── ledger/          # Append-only download record store
//	├── counters/        # Denormalized aggregate counter deltas
//	└── analytics/       # Read-only aggregations over the ledger
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./library.db")
//
//	// Create domain-specific repositories
//	ledgerRepo := ledger.NewRepository(db.DB)
//	countersRepo := counters.NewRepository(db.DB)
//
//	// Use repositories
//	record, err := ledgerRepo.Create(...)
//	err = countersRepo.IncrementBookDownloads(bookID)
//
// # Authority
//
// The ledger sub-package owns the only authoritative store in the system: the
// download_records table. Counters written through the counters sub-package
// are a best-effort denormalized cache and may drift when a propagation write
// fails; analytics never read them.
package database
