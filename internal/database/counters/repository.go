// Package counters provides delta updates for the denormalized download
// counters on books, users, scholars and categories.
//
// Every increment is an independent write against its own aggregate; there is
// no cross-aggregate transaction. Increments are expressed as commutative
// deltas (column = column + 1), never as replace-with-computed-value writes,
// because other flows also mutate some of these aggregates and ordering across
// flows is not guaranteed. Partial application is tolerated: the download
// ledger stays authoritative and Recompute can rebuild the counters from it.
package counters

import (
	"time"

	"gorm.io/gorm"

	"github.com/booklib/server/internal/entities"
)

// HistoryCap bounds the per-user download history list. The list is
// display-only and not deduplicated; oldest entries are trimmed past the cap.
const HistoryCap = 50

// Repository handles counter and download-history database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new counters repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// IncrementBookDownloads adds one to the book's download counter.
func (r *Repository) IncrementBookDownloads(bookID uint) error {
	return r.db.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Update("downloads", gorm.Expr("downloads + ?", 1)).Error
}

// IncrementBookViews adds one to the book's view counter.
func (r *Repository) IncrementBookViews(bookID uint) error {
	return r.db.Model(&entities.Book{}).
		Where("id = ?", bookID).
		Update("views", gorm.Expr("views + ?", 1)).Error
}

// IncrementUserDownloads adds one to both the total and monthly download
// counters of the user.
func (r *Repository) IncrementUserDownloads(userID uint) error {
	return r.db.Model(&entities.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"total_downloads":   gorm.Expr("total_downloads + ?", 1),
			"monthly_downloads": gorm.Expr("monthly_downloads + ?", 1),
		}).Error
}

// IncrementScholarDownloads adds one to the scholar's aggregated book
// download counter.
func (r *Repository) IncrementScholarDownloads(scholarID uint) error {
	return r.db.Model(&entities.Scholar{}).
		Where("id = ?", scholarID).
		Update("total_books_downloads", gorm.Expr("total_books_downloads + ?", 1)).Error
}

// IncrementCategoryDownloads adds one to both counters of the category with
// the given name. Unknown category names are a no-op rather than an error:
// the name comes from a ledger snapshot and the category may have been
// renamed or removed since.
func (r *Repository) IncrementCategoryDownloads(name string) error {
	return r.db.Model(&entities.Category{}).
		Where("name = ?", name).
		Updates(map[string]any{
			"total_downloads":   gorm.Expr("total_downloads + ?", 1),
			"monthly_downloads": gorm.Expr("monthly_downloads + ?", 1),
		}).Error
}

// AppendUserHistory appends a download history entry for the user and trims
// the list down to HistoryCap entries, removing the oldest.
func (r *Repository) AppendUserHistory(userID, bookID uint, bookTitle string, at time.Time) error {
	entry := &entities.DownloadHistoryEntry{
		UserID:       userID,
		BookID:       bookID,
		BookTitle:    bookTitle,
		DownloadedAt: at,
	}
	if err := r.db.Create(entry).Error; err != nil {
		return err
	}

	var count int64
	if err := r.db.Model(&entities.DownloadHistoryEntry{}).
		Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return err
	}
	if count <= HistoryCap {
		return nil
	}

	// Trim everything older than the newest HistoryCap entries.
	var cutoff entities.DownloadHistoryEntry
	err := r.db.Where("user_id = ?", userID).
		Order("downloaded_at DESC, id DESC").
		Offset(HistoryCap - 1).
		First(&cutoff).Error
	if err != nil {
		return err
	}
	return r.db.Where("user_id = ? AND (downloaded_at < ? OR (downloaded_at = ? AND id < ?))",
		userID, cutoff.DownloadedAt, cutoff.DownloadedAt, cutoff.ID).
		Delete(&entities.DownloadHistoryEntry{}).Error
}

// GetUserHistory returns the user's download history, newest first.
func (r *Repository) GetUserHistory(userID uint) ([]entities.DownloadHistoryEntry, error) {
	var entries []entities.DownloadHistoryEntry
	err := r.db.Where("user_id = ?", userID).
		Order("downloaded_at DESC, id DESC").
		Find(&entries).Error
	return entries, err
}

// ResetMonthlyCounters zeroes the monthly download counters on all users and
// categories. Intended to run on the first of each month.
func (r *Repository) ResetMonthlyCounters() error {
	if err := r.db.Model(&entities.User{}).
		Where("monthly_downloads <> ?", 0).
		Update("monthly_downloads", 0).Error; err != nil {
		return err
	}
	return r.db.Model(&entities.Category{}).
		Where("monthly_downloads <> ?", 0).
		Update("monthly_downloads", 0).Error
}

type groupedCount struct {
	Key   string
	ID    uint
	Count int64
}

// Recompute rebuilds every download counter from the ledger, replacing
// whatever drifted values the aggregates currently hold. Only completed
// billable records count. Monthly counters are recomputed over the calendar
// month containing now.
func (r *Repository) Recompute(now time.Time) error {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	billable := func() *gorm.DB {
		return r.db.Model(&entities.DownloadRecord{}).
			Where("status = ? AND billable = ?", entities.DownloadStatusCompleted, true)
	}

	// Books
	if err := r.db.Model(&entities.Book{}).Where("downloads <> ?", 0).Update("downloads", 0).Error; err != nil {
		return err
	}
	var perBook []groupedCount
	if err := billable().Select("book_id AS id, COUNT(*) AS count").Group("book_id").Scan(&perBook).Error; err != nil {
		return err
	}
	for _, row := range perBook {
		if err := r.db.Model(&entities.Book{}).Where("id = ?", row.ID).
			Update("downloads", row.Count).Error; err != nil {
			return err
		}
	}

	// Users: total and current-month counts
	if err := r.db.Model(&entities.User{}).
		Where("total_downloads <> ? OR monthly_downloads <> ?", 0, 0).
		Updates(map[string]any{"total_downloads": 0, "monthly_downloads": 0}).Error; err != nil {
		return err
	}
	var perUser []groupedCount
	if err := billable().Select("user_id AS id, COUNT(*) AS count").Group("user_id").Scan(&perUser).Error; err != nil {
		return err
	}
	for _, row := range perUser {
		if err := r.db.Model(&entities.User{}).Where("id = ?", row.ID).
			Update("total_downloads", row.Count).Error; err != nil {
			return err
		}
	}
	var perUserMonthly []groupedCount
	if err := billable().Where("download_date >= ?", monthStart).
		Select("user_id AS id, COUNT(*) AS count").Group("user_id").Scan(&perUserMonthly).Error; err != nil {
		return err
	}
	for _, row := range perUserMonthly {
		if err := r.db.Model(&entities.User{}).Where("id = ?", row.ID).
			Update("monthly_downloads", row.Count).Error; err != nil {
			return err
		}
	}

	// Scholars
	if err := r.db.Model(&entities.Scholar{}).
		Where("total_books_downloads <> ?", 0).
		Update("total_books_downloads", 0).Error; err != nil {
		return err
	}
	var perScholar []groupedCount
	if err := billable().Where("scholar_id IS NOT NULL").
		Select("scholar_id AS id, COUNT(*) AS count").Group("scholar_id").Scan(&perScholar).Error; err != nil {
		return err
	}
	for _, row := range perScholar {
		if err := r.db.Model(&entities.Scholar{}).Where("id = ?", row.ID).
			Update("total_books_downloads", row.Count).Error; err != nil {
			return err
		}
	}

	// Categories, keyed by the snapshot category name
	if err := r.db.Model(&entities.Category{}).
		Where("total_downloads <> ? OR monthly_downloads <> ?", 0, 0).
		Updates(map[string]any{"total_downloads": 0, "monthly_downloads": 0}).Error; err != nil {
		return err
	}
	var perCategory []groupedCount
	if err := billable().Select("book_category AS key, COUNT(*) AS count").Group("book_category").Scan(&perCategory).Error; err != nil {
		return err
	}
	for _, row := range perCategory {
		if err := r.db.Model(&entities.Category{}).Where("name = ?", row.Key).
			Update("total_downloads", row.Count).Error; err != nil {
			return err
		}
	}
	var perCategoryMonthly []groupedCount
	if err := billable().Where("download_date >= ?", monthStart).
		Select("book_category AS key, COUNT(*) AS count").Group("book_category").Scan(&perCategoryMonthly).Error; err != nil {
		return err
	}
	for _, row := range perCategoryMonthly {
		if err := r.db.Model(&entities.Category{}).Where("name = ?", row.Key).
			Update("monthly_downloads", row.Count).Error; err != nil {
			return err
		}
	}

	return nil
}
