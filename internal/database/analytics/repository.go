// Package analytics provides read-only aggregations over the download ledger.
//
// Every view here is derived from completed ledger records alone; the
// denormalized counters on books, users, scholars and categories are never
// consulted. That keeps reporting correct even when counter propagation has
// partially failed and the cached counters drifted.
package analytics

import (
	"time"

	"gorm.io/gorm"

	"github.com/booklib/server/internal/entities"
)

// Repository runs aggregation queries against the download ledger.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new analytics repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Overview summarizes all completed downloads in a window.
type Overview struct {
	TotalDownloads int64   `json:"total_downloads"`
	UniqueUsers    int64   `json:"unique_users"`
	UniqueBooks    int64   `json:"unique_books"`
	TotalBytes     int64   `json:"total_bytes"`
	AverageSize    float64 `json:"average_size"`
}

// DailyPoint is one day of the download trend.
type DailyPoint struct {
	Date        string `json:"date"` // YYYY-MM-DD, server-local
	Downloads   int64  `json:"downloads"`
	UniqueUsers int64  `json:"unique_users"`
	TotalBytes  int64  `json:"total_bytes"`
}

// CategoryStat is the per-category breakdown row.
type CategoryStat struct {
	Category    string `json:"category"`
	Downloads   int64  `json:"downloads"`
	UniqueUsers int64  `json:"unique_users"`
	UniqueBooks int64  `json:"unique_books"`
	TotalBytes  int64  `json:"total_bytes"`
}

// PopularBook is one row of the popular-books ranking. Title and Category
// come from the snapshot of the first matching ledger record.
type PopularBook struct {
	BookID      uint   `json:"book_id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Downloads   int64  `json:"downloads"`
	UniqueUsers int64  `json:"unique_users"`
}

// UserActivity is one row of the most-active-users ranking.
// FavoriteCategory is the category of the user's first matching record in the
// window, not a true mode; this mirrors how the statistic has always been
// reported and is kept deliberately.
type UserActivity struct {
	UserID           uint   `json:"user_id"`
	Email            string `json:"email"`
	Downloads        int64  `json:"downloads"`
	UniqueBooks      int64  `json:"unique_books"`
	FavoriteCategory string `json:"favorite_category"`
}

// ScholarStat is one row of the scholar popularity ranking. Only records with
// an attached scholar participate.
type ScholarStat struct {
	ScholarID uint   `json:"scholar_id"`
	Name      string `json:"name"`
	Downloads int64  `json:"downloads"`
}

// SourceStat is the per-client-source breakdown row. Records without a source
// are reported as "unknown".
type SourceStat struct {
	Source     string `json:"source"`
	Downloads  int64  `json:"downloads"`
	TotalBytes int64  `json:"total_bytes"`
}

// completed scopes a query to completed records inside [start, end].
func (r *Repository) completed(start, end time.Time) *gorm.DB {
	return r.db.Model(&entities.DownloadRecord{}).
		Where("status = ?", entities.DownloadStatusCompleted).
		Where("download_date >= ? AND download_date <= ?", start, end)
}

// GetOverview returns the window summary.
func (r *Repository) GetOverview(start, end time.Time) (*Overview, error) {
	var overview Overview
	err := r.completed(start, end).
		Select("COUNT(*) AS total_downloads, " +
			"COUNT(DISTINCT user_id) AS unique_users, " +
			"COUNT(DISTINCT book_id) AS unique_books, " +
			"COALESCE(SUM(size), 0) AS total_bytes, " +
			"COALESCE(AVG(size), 0) AS average_size").
		Scan(&overview).Error
	if err != nil {
		return nil, err
	}
	return &overview, nil
}

// GetDailyTrend returns per-day aggregates sorted ascending by date. Days are
// bucketed using the server-local calendar, matching the eligibility policy's
// midnight boundary.
func (r *Repository) GetDailyTrend(start, end time.Time) ([]DailyPoint, error) {
	var records []entities.DownloadRecord
	err := r.completed(start, end).
		Select("download_date, user_id, size").
		Order("download_date ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	type bucket struct {
		downloads  int64
		users      map[uint]struct{}
		totalBytes int64
	}
	buckets := make(map[string]*bucket)
	order := make([]string, 0)
	for _, record := range records {
		day := record.DownloadDate.Local().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &bucket{users: make(map[uint]struct{})}
			buckets[day] = b
			order = append(order, day)
		}
		b.downloads++
		b.users[record.UserID] = struct{}{}
		b.totalBytes += record.Size
	}

	points := make([]DailyPoint, 0, len(order))
	for _, day := range order {
		b := buckets[day]
		points = append(points, DailyPoint{
			Date:        day,
			Downloads:   b.downloads,
			UniqueUsers: int64(len(b.users)),
			TotalBytes:  b.totalBytes,
		})
	}
	return points, nil
}

// GetCategoryBreakdown returns per-category aggregates sorted by download
// count descending. Categories come from the record snapshots, so books
// recategorized after a download stay counted under their historical category.
func (r *Repository) GetCategoryBreakdown(start, end time.Time) ([]CategoryStat, error) {
	var stats []CategoryStat
	err := r.completed(start, end).
		Select("book_category AS category, " +
			"COUNT(*) AS downloads, " +
			"COUNT(DISTINCT user_id) AS unique_users, " +
			"COUNT(DISTINCT book_id) AS unique_books, " +
			"COALESCE(SUM(size), 0) AS total_bytes").
		Group("book_category").
		Order("downloads DESC").
		Scan(&stats).Error
	return stats, err
}

// GetPopularBooks returns the top-N books by completed download count. The
// title and category are taken from the first matching record in ledger
// order, so they reflect the snapshot at the time of the earliest download in
// the window.
func (r *Repository) GetPopularBooks(start, end time.Time, limit int) ([]PopularBook, error) {
	var books []PopularBook
	err := r.completed(start, end).
		Select("book_id, COUNT(*) AS downloads, COUNT(DISTINCT user_id) AS unique_users").
		Group("book_id").
		Order("downloads DESC, book_id ASC").
		Limit(limit).
		Scan(&books).Error
	if err != nil {
		return nil, err
	}

	for i := range books {
		var first entities.DownloadRecord
		err := r.completed(start, end).
			Where("book_id = ?", books[i].BookID).
			Order("download_date ASC, id ASC").
			First(&first).Error
		if err != nil {
			return nil, err
		}
		books[i].Title = first.BookTitle
		books[i].Category = first.BookCategory
	}
	return books, nil
}

// GetUserActivity returns the top-N users by completed download count.
func (r *Repository) GetUserActivity(start, end time.Time, limit int) ([]UserActivity, error) {
	var users []UserActivity
	err := r.completed(start, end).
		Select("user_id, COUNT(*) AS downloads, COUNT(DISTINCT book_id) AS unique_books").
		Group("user_id").
		Order("downloads DESC, user_id ASC").
		Limit(limit).
		Scan(&users).Error
	if err != nil {
		return nil, err
	}

	for i := range users {
		var first entities.DownloadRecord
		err := r.completed(start, end).
			Where("user_id = ?", users[i].UserID).
			Order("download_date ASC, id ASC").
			First(&first).Error
		if err != nil {
			return nil, err
		}
		users[i].Email = first.UserEmail
		users[i].FavoriteCategory = first.BookCategory
	}
	return users, nil
}

// GetScholarPopularity returns the top-N scholars by completed download
// count. Records without a scholar are excluded.
func (r *Repository) GetScholarPopularity(start, end time.Time, limit int) ([]ScholarStat, error) {
	var stats []ScholarStat
	err := r.completed(start, end).
		Where("scholar_id IS NOT NULL").
		Select("scholar_id, COUNT(*) AS downloads").
		Group("scholar_id").
		Order("downloads DESC, scholar_id ASC").
		Limit(limit).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}

	for i := range stats {
		var first entities.DownloadRecord
		err := r.completed(start, end).
			Where("scholar_id = ?", stats[i].ScholarID).
			Order("download_date ASC, id ASC").
			First(&first).Error
		if err != nil {
			return nil, err
		}
		stats[i].Name = first.ScholarName
	}
	return stats, nil
}

// GetSourceBreakdown returns per-source aggregates. The empty source value
// (older records, or clients that never identified themselves) is reported as
// "unknown".
func (r *Repository) GetSourceBreakdown(start, end time.Time) ([]SourceStat, error) {
	var stats []SourceStat
	err := r.completed(start, end).
		Select("CASE WHEN source = '' OR source IS NULL THEN 'unknown' ELSE source END AS source, " +
			"COUNT(*) AS downloads, " +
			"COALESCE(SUM(size), 0) AS total_bytes").
		Group("CASE WHEN source = '' OR source IS NULL THEN 'unknown' ELSE source END").
		Order("downloads DESC").
		Scan(&stats).Error
	return stats, err
}
