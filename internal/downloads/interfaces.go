package downloads

import (
	"io"
	"time"

	"github.com/booklib/server/internal/entities"
)

// Catalog resolves books at fulfillment time.
// Use this interface when you only need to look up catalog entries.
type Catalog interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// FileStore provides byte streams for stored book files, keyed by the path
// recorded on the book's file descriptor.
type FileStore interface {
	// Exists reports whether the path resolves to a stored object.
	Exists(path string) (bool, error)
	// Open returns a readable stream over the stored object.
	Open(path string) (io.ReadCloser, error)
}

// Ledger persists download attempts and outcomes.
type Ledger interface {
	Create(record *entities.DownloadRecord) error
	MarkCompleted(id uint, duration time.Duration) error
	MarkFailed(id uint) error
	GetByID(id uint) (*entities.DownloadRecord, error)
	HasCompletedOnDay(userID, bookID uint, at time.Time) (bool, error)
	LatchCountersApplied(id uint) (bool, error)
}

// CounterStore applies denormalized counter deltas to the shared aggregates.
type CounterStore interface {
	IncrementBookDownloads(bookID uint) error
	IncrementUserDownloads(userID uint) error
	IncrementScholarDownloads(scholarID uint) error
	IncrementCategoryDownloads(name string) error
	AppendUserHistory(userID, bookID uint, bookTitle string, at time.Time) error
}

// Dispatcher hands a completed billable record to counter propagation. The
// synchronous implementation applies counters inline; the task-queue
// implementation enqueues a background job.
type Dispatcher interface {
	Dispatch(recordID uint) error
}

// Principal identifies the authenticated caller, supplied by the auth
// boundary on every request.
type Principal struct {
	ID    uint
	Email string
	Role  entities.Role
}

// ClientMeta carries the request metadata the source classification is
// derived from.
type ClientMeta struct {
	SourceHeader string // explicit client platform header, if any
	UserAgent    string
}

// Sink receives the transport metadata and the file bytes. Once SendHeaders
// has been called the response can no longer be turned into a structured
// error.
type Sink interface {
	SendHeaders(filename, mimeType string, size int64)
	io.Writer
}
