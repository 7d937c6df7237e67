// Package ledger provides database operations for the append-only download
// record store. The ledger is the authoritative source of truth for all
// download reporting; the denormalized counters on books, users, scholars and
// categories are a cache derived from it.
package ledger

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/booklib/server/internal/entities"
)

// Repository handles all download ledger database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ledger repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create appends a new download record to the ledger. The record is expected
// to carry its denormalized snapshot fields already; DownloadDate defaults to
// the current time when unset.
func (r *Repository) Create(record *entities.DownloadRecord) error {
	if record.DownloadDate.IsZero() {
		record.DownloadDate = time.Now()
	}
	if record.Status == "" {
		record.Status = entities.DownloadStatusPending
	}
	return r.db.Create(record).Error
}

// MarkCompleted transitions a pending record to completed and stores the
// stream duration. Records that already settled are left untouched.
func (r *Repository) MarkCompleted(id uint, duration time.Duration) error {
	result := r.db.Model(&entities.DownloadRecord{}).
		Where("id = ? AND status = ?", id, entities.DownloadStatusPending).
		Updates(map[string]any{
			"status":      entities.DownloadStatusCompleted,
			"duration_ms": duration.Milliseconds(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("download record %d is not pending", id)
	}
	return nil
}

// MarkFailed transitions a pending record to failed.
func (r *Repository) MarkFailed(id uint) error {
	result := r.db.Model(&entities.DownloadRecord{}).
		Where("id = ? AND status = ?", id, entities.DownloadStatusPending).
		Update("status", entities.DownloadStatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("download record %d is not pending", id)
	}
	return nil
}

// GetByID retrieves a download record by ID.
func (r *Repository) GetByID(id uint) (*entities.DownloadRecord, error) {
	var record entities.DownloadRecord
	err := r.db.First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// HasCompletedOnDay reports whether a completed record exists for the
// (user, book) pair on the calendar day containing at, using the server-local
// midnight boundary. This is the eligibility check for billable downloads.
// The read is point-in-time and not linearizable with concurrent requests:
// two simultaneous first downloads may both observe false.
func (r *Repository) HasCompletedOnDay(userID, bookID uint, at time.Time) (bool, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	var count int64
	err := r.db.Model(&entities.DownloadRecord{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.DownloadStatusCompleted).
		Where("download_date >= ? AND download_date < ?", dayStart, dayEnd).
		Count(&count).Error
	return count > 0, err
}

// LatchCountersApplied atomically claims the counter-propagation step for a
// record. It returns true exactly once per record: retried propagation tasks
// observe false and skip, so aggregates are never double-incremented. Only
// completed billable records can be claimed.
func (r *Repository) LatchCountersApplied(id uint) (bool, error) {
	result := r.db.Model(&entities.DownloadRecord{}).
		Where("id = ? AND counters_applied = ? AND status = ? AND billable = ?",
			id, false, entities.DownloadStatusCompleted, true).
		Update("counters_applied", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// GetUserDownloads returns a page of the user's download records, newest
// first. When status is empty, completed records are returned; callers may
// pass any status explicitly.
func (r *Repository) GetUserDownloads(userID uint, limit, offset int, status entities.DownloadStatus) ([]entities.DownloadRecord, int64, error) {
	if status == "" {
		status = entities.DownloadStatusCompleted
	}

	query := r.db.Model(&entities.DownloadRecord{}).
		Where("user_id = ? AND status = ?", userID, status)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []entities.DownloadRecord
	query = query.Order("download_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&records).Error
	return records, total, err
}
