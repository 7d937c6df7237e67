// Package interfaces documents the core abstractions used throughout the application.
//
// This package consolidates interface documentation to help code agents understand
// extension points and how to implement new functionality.
//
// # Interface Categories
//
// The application uses several categories of interfaces:
//
// ## Data Access Interfaces
//
//   - Catalog: Read-only book lookup for fulfillment (internal/downloads/interfaces.go)
//   - Ledger: Append and settle download records (internal/downloads/interfaces.go)
//   - CounterStore: Delta updates for the denormalized counters (internal/downloads/interfaces.go)
//   - DownloadLister: Paginated download listings (internal/http/downloads.go)
//   - HistoryStore: Per-user bounded history list (internal/http/downloads.go)
//
// ## File Storage Interfaces
//
//   - FileStore: Byte streams for stored book files (internal/downloads/interfaces.go)
//
// ## Propagation Interfaces
//
//   - Dispatcher: Hands completed billable records to counter propagation
//     (internal/downloads/interfaces.go)
//   - CounterApplier: Applies the increments for one record (internal/tasks/propagate.go)
//   - CounterMaintainer / ReconcileEnqueuer: Periodic counter maintenance
//     (internal/scheduler/counters.go)
//
// # Adding a New File Store Backend
//
// To serve book files from somewhere other than the local filesystem
// (e.g. object storage):
//
//  1. Implement FileStore in a new package:
//
//     type S3Store struct {
//         bucket string
//         client *s3.Client
//     }
//
//     func (s *S3Store) Exists(path string) (bool, error)
//     func (s *S3Store) Open(path string) (io.ReadCloser, error)
//
//     var _ downloads.FileStore = (*S3Store)(nil)
//
//  2. Swap it in at entrypoint.Run
//
// # Adding a New Database Domain
//
// To add a new data domain:
//
//  1. Create sub-package: internal/database/<domain>/
//
//  2. Define repository:
//
//     type Repository struct { db *gorm.DB }
//
//     func NewRepository(db *gorm.DB) *Repository
//
//  3. Implement interface methods
//
//  4. Add compile-time check in checks.go
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
