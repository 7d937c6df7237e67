package entities

import (
	"time"
)

type DownloadStatus string

const (
	DownloadStatusPending   DownloadStatus = "pending"
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

type DownloadSource string

const (
	DownloadSourceWeb    DownloadSource = "web"
	DownloadSourceMobile DownloadSource = "mobile"
	DownloadSourceAPI    DownloadSource = "api"
)

// DownloadRecord is one entry in the append-only download ledger. The record
// is created with status pending before any bytes are streamed, so a crash
// mid-stream still leaves an auditable attempt. The denormalized snapshot
// fields are frozen at creation; later edits to the book, user or scholar do
// not retroactively alter historical records. Only Status, DurationMS and
// CountersApplied may change after creation, and Status only moves
// pending -> completed or pending -> failed.
type DownloadRecord struct {
	ID        uint  `gorm:"primaryKey" json:"id"`
	UserID    uint  `gorm:"index" json:"user_id"`
	BookID    uint  `gorm:"index" json:"book_id"`
	ScholarID *uint `gorm:"index" json:"scholar_id,omitempty"`

	DownloadDate time.Time      `gorm:"index" json:"download_date"`
	Status       DownloadStatus `gorm:"size:20;index;default:'pending'" json:"status"`
	Size         int64          `json:"download_size"`         // bytes, from the file descriptor at request time
	DurationMS   int64          `json:"download_duration_ms"`  // set on completion only
	Source       DownloadSource `gorm:"size:20" json:"source"` // empty when the client platform is unknown

	// Billable records the eligibility verdict taken at creation time;
	// counter propagation is gated on it. CountersApplied is the
	// idempotency latch for the propagation step: retries of a propagation
	// task must not double-increment the aggregates.
	Billable        bool `gorm:"default:false" json:"billable"`
	CountersApplied bool `gorm:"default:false" json:"-"`

	// Denormalized snapshot captured at creation time.
	BookTitle    string `gorm:"size:512" json:"book_title"`
	BookCategory string `gorm:"index;size:100" json:"book_category"`
	BookLanguage string `gorm:"size:50" json:"book_language,omitempty"`
	UserEmail    string `gorm:"size:255" json:"user_email"`
	ScholarName  string `gorm:"size:256" json:"scholar_name,omitempty"`
}

// DownloadHistoryEntry is a bounded, display-only append list on the user
// profile. Entries are not deduplicated; the list is trimmed to a fixed cap.
type DownloadHistoryEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index" json:"user_id"`
	BookID       uint      `json:"book_id"`
	BookTitle    string    `gorm:"size:512" json:"book_title"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

func (DownloadRecord) TableName() string {
	return "download_records"
}

func (DownloadHistoryEntry) TableName() string {
	return "download_history_entries"
}

// IsTerminal reports whether the status is final.
func (s DownloadStatus) IsTerminal() bool {
	return s == DownloadStatusCompleted || s == DownloadStatusFailed
}
