package downloads

import "errors"

var (
	// ErrBookNotFound is returned when the book does not exist or is
	// soft-deleted.
	ErrBookNotFound = errors.New("book not found")

	// ErrBookInactive is returned when the book exists but has been
	// deactivated. Reported to clients the same way as a missing book.
	ErrBookInactive = errors.New("book is inactive")

	// ErrNoFileAttached is returned when the book has no file descriptor.
	ErrNoFileAttached = errors.New("book has no file attached")

	// ErrFileMissing is returned when the descriptor's path does not
	// resolve to a stored object.
	ErrFileMissing = errors.New("book file missing from storage")

	// ErrStreamFailed is returned when the byte stream broke after headers
	// were sent. By then a structured error can no longer be delivered;
	// the connection simply ends and the ledger records the failure.
	ErrStreamFailed = errors.New("download stream failed")
)
