package downloads

import (
	"fmt"
	"time"
)

// EligibilityPolicy decides whether a download counts toward usage counters
// or is a free re-download. The current rule: a download is billable unless
// the same user already completed a download of the same book on the same
// server-local calendar day.
//
// The check reads the ledger at a point in time and is not linearizable with
// concurrent requests; two simultaneous first downloads of a book by one user
// may both be judged billable. That occasionally inflates counters by one and
// is accepted: file delivery never depends on counter accuracy.
type EligibilityPolicy struct {
	ledger Ledger
}

// NewEligibilityPolicy creates a policy backed by the given ledger.
func NewEligibilityPolicy(ledger Ledger) *EligibilityPolicy {
	return &EligibilityPolicy{ledger: ledger}
}

// IsBillable reports whether a download requested now should count toward
// quotas and statistics.
func (p *EligibilityPolicy) IsBillable(userID, bookID uint, now time.Time) (bool, error) {
	downloadedToday, err := p.ledger.HasCompletedOnDay(userID, bookID, now)
	if err != nil {
		return false, fmt.Errorf("eligibility check for user %d book %d: %w", userID, bookID, err)
	}
	return !downloadedToday, nil
}
