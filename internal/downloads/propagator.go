package downloads

import (
	"log"
)

// CounterPropagator applies the denormalized counter increments that follow a
// billable completed download: Book.downloads, User.total/monthly plus a
// history entry, Scholar.total_books_downloads when a scholar is attached,
// and the Category counters keyed by the record's snapshot category.
//
// Each increment is an independent write with no cross-aggregate transaction.
// The propagation step as a whole is claimed through the record's
// counters_applied latch before any write, so an at-least-once task retry can
// never double-increment; conversely an increment that fails after the claim
// stays missing from the cache until the next reconciliation recomputes the
// counters from the ledger.
type CounterPropagator struct {
	ledger   Ledger
	counters CounterStore
}

// NewCounterPropagator creates a propagator over the given stores.
func NewCounterPropagator(ledger Ledger, counters CounterStore) *CounterPropagator {
	return &CounterPropagator{ledger: ledger, counters: counters}
}

// Apply propagates the counters for one download record. Calling it for a
// record that is not completed, not billable, or already propagated is a
// no-op.
func (p *CounterPropagator) Apply(recordID uint) error {
	claimed, err := p.ledger.LatchCountersApplied(recordID)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	record, err := p.ledger.GetByID(recordID)
	if err != nil {
		return err
	}

	if err := p.counters.IncrementBookDownloads(record.BookID); err != nil {
		log.Printf("Counter propagation: book %d increment failed for record %d: %v", record.BookID, recordID, err)
	}
	if err := p.counters.IncrementUserDownloads(record.UserID); err != nil {
		log.Printf("Counter propagation: user %d increment failed for record %d: %v", record.UserID, recordID, err)
	}
	if err := p.counters.AppendUserHistory(record.UserID, record.BookID, record.BookTitle, record.DownloadDate); err != nil {
		log.Printf("Counter propagation: history append failed for record %d: %v", recordID, err)
	}
	if record.ScholarID != nil {
		if err := p.counters.IncrementScholarDownloads(*record.ScholarID); err != nil {
			log.Printf("Counter propagation: scholar %d increment failed for record %d: %v", *record.ScholarID, recordID, err)
		}
	}
	if record.BookCategory != "" {
		if err := p.counters.IncrementCategoryDownloads(record.BookCategory); err != nil {
			log.Printf("Counter propagation: category %q increment failed for record %d: %v", record.BookCategory, recordID, err)
		}
	}

	return nil
}

// Dispatch makes the propagator usable as a synchronous Dispatcher.
func (p *CounterPropagator) Dispatch(recordID uint) error {
	return p.Apply(recordID)
}

var _ Dispatcher = (*CounterPropagator)(nil)
