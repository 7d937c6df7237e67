package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/booklib/server/internal/entities"
)

// Service orchestrates download fulfillment: validate the book and its file,
// consult the eligibility policy, append a pending ledger record, stream the
// bytes, settle the record and hand billable completions to counter
// propagation.
type Service struct {
	catalog  Catalog
	files    FileStore
	ledger   Ledger
	policy   *EligibilityPolicy
	dispatch Dispatcher

	now func() time.Time
}

// NewService creates a fulfillment service. dispatch receives completed
// billable records for counter propagation; pass the CounterPropagator
// itself for synchronous propagation or a task-queue dispatcher for async.
func NewService(catalog Catalog, files FileStore, ledger Ledger, policy *EligibilityPolicy, dispatch Dispatcher) *Service {
	return &Service{
		catalog:  catalog,
		files:    files,
		ledger:   ledger,
		policy:   policy,
		dispatch: dispatch,
		now:      time.Now,
	}
}

// Fulfill serves the book's file to the caller through sink.
//
// All validation happens before the first ledger write, so rejected requests
// (ErrBookNotFound, ErrBookInactive, ErrNoFileAttached, ErrFileMissing) leave
// no trace in the ledger. Once streaming starts the record already exists
// with status pending, so a crash mid-stream still leaves an auditable
// attempt. Stream errors after headers settle the record as failed and return
// ErrStreamFailed; the response cannot be turned back into a structured error
// at that point. Failures in counter propagation or in the final ledger
// settle are logged and never surfaced: the bytes were already delivered.
func (s *Service) Fulfill(ctx context.Context, principal Principal, bookID uint, meta ClientMeta, sink Sink) error {
	book, err := s.catalog.GetBookByID(bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("resolve book %d: %w", bookID, err)
	}
	if !book.IsActive {
		return ErrBookInactive
	}
	if !book.HasFile() {
		return ErrNoFileAttached
	}

	exists, err := s.files.Exists(book.FilePath)
	if err != nil {
		return fmt.Errorf("stat book file %q: %w", book.FilePath, err)
	}
	if !exists {
		return ErrFileMissing
	}

	now := s.now()
	billable, err := s.policy.IsBillable(principal.ID, bookID, now)
	if err != nil {
		return err
	}

	record := &entities.DownloadRecord{
		UserID:       principal.ID,
		BookID:       bookID,
		ScholarID:    book.ScholarID,
		DownloadDate: now,
		Status:       entities.DownloadStatusPending,
		Size:         book.FileSize,
		Source:       DeriveSource(meta),
		Billable:     billable,
		BookTitle:    book.Title,
		BookCategory: book.Category,
		BookLanguage: book.Language,
		UserEmail:    principal.Email,
	}
	if book.Scholar != nil {
		record.ScholarName = book.Scholar.Name
	}
	if err := s.ledger.Create(record); err != nil {
		return fmt.Errorf("create download record: %w", err)
	}

	stream, err := s.files.Open(book.FilePath)
	if err != nil {
		// The file vanished between the existence check and the open.
		// Headers are not out yet, so a clean error is still possible.
		s.markFailed(record.ID)
		return ErrFileMissing
	}
	defer stream.Close()

	sink.SendHeaders(book.FileOriginalName, book.FileMimeType, book.FileSize)

	start := s.now()
	written, err := io.Copy(sink, stream)
	elapsed := s.now().Sub(start)

	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && written != book.FileSize {
		err = fmt.Errorf("short stream: %d of %d bytes", written, book.FileSize)
	}
	if err != nil {
		s.markFailed(record.ID)
		return fmt.Errorf("%w: %v", ErrStreamFailed, err)
	}

	if err := s.ledger.MarkCompleted(record.ID, elapsed); err != nil {
		// The bytes were delivered; the download stands even if the
		// ledger settle failed.
		log.Printf("Internal: failed to mark download record %d completed: %v", record.ID, err)
		return nil
	}

	if billable {
		if err := s.dispatch.Dispatch(record.ID); err != nil {
			log.Printf("Counter propagation dispatch failed for record %d: %v", record.ID, err)
		}
	}

	return nil
}

func (s *Service) markFailed(recordID uint) {
	if err := s.ledger.MarkFailed(recordID); err != nil {
		log.Printf("Internal: failed to mark download record %d failed: %v", recordID, err)
	}
}
