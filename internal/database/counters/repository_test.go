package counters

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/booklib/server/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_counters_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Scholar{},
		&entities.Category{},
		&entities.Book{},
		&entities.DownloadRecord{},
		&entities.DownloadHistoryEntry{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, repo, cleanup
}

func TestRepository_IncrementBookDownloads(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test Book", Category: "fiqh"}
	require.NoError(t, db.Create(book).Error)

	require.NoError(t, repo.IncrementBookDownloads(book.ID))
	require.NoError(t, repo.IncrementBookDownloads(book.ID))

	var updated entities.Book
	db.First(&updated, book.ID)
	assert.Equal(t, int64(2), updated.Downloads)
	assert.Equal(t, int64(0), updated.Views)
}

func TestRepository_IncrementBookViews(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test Book", Category: "fiqh"}
	require.NoError(t, db.Create(book).Error)

	require.NoError(t, repo.IncrementBookViews(book.ID))

	var updated entities.Book
	db.First(&updated, book.ID)
	assert.Equal(t, int64(1), updated.Views)
}

func TestRepository_IncrementUserDownloads(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := &entities.User{Username: "reader", Email: "reader@example.com", Token: "tok"}
	require.NoError(t, db.Create(user).Error)

	require.NoError(t, repo.IncrementUserDownloads(user.ID))

	var updated entities.User
	db.First(&updated, user.ID)
	assert.Equal(t, int64(1), updated.TotalDownloads)
	assert.Equal(t, int64(1), updated.MonthlyDownloads)
}

func TestRepository_IncrementScholarDownloads(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	scholar := &entities.Scholar{Name: "Test Scholar"}
	require.NoError(t, db.Create(scholar).Error)

	require.NoError(t, repo.IncrementScholarDownloads(scholar.ID))

	var updated entities.Scholar
	db.First(&updated, scholar.ID)
	assert.Equal(t, int64(1), updated.TotalBooksDownloads)
}

func TestRepository_IncrementCategoryDownloads(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	category := &entities.Category{Name: "fiqh"}
	require.NoError(t, db.Create(category).Error)

	require.NoError(t, repo.IncrementCategoryDownloads("fiqh"))

	var updated entities.Category
	db.First(&updated, category.ID)
	assert.Equal(t, int64(1), updated.TotalDownloads)
	assert.Equal(t, int64(1), updated.MonthlyDownloads)
}

func TestRepository_IncrementCategoryDownloads_UnknownName(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	// Snapshot names may reference renamed or removed categories
	err := repo.IncrementCategoryDownloads("no-such-category")

	assert.NoError(t, err)
}

func TestRepository_AppendUserHistory(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	require.NoError(t, repo.AppendUserHistory(1, 10, "Book A", now))
	require.NoError(t, repo.AppendUserHistory(1, 20, "Book B", now.Add(time.Minute)))

	entries, err := repo.GetUserHistory(1)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Newest first
	assert.Equal(t, "Book B", entries[0].BookTitle)
	assert.Equal(t, "Book A", entries[1].BookTitle)
}

func TestRepository_AppendUserHistory_NoDeduplication(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	now := time.Now()
	require.NoError(t, repo.AppendUserHistory(1, 10, "Same Book", now))
	require.NoError(t, repo.AppendUserHistory(1, 10, "Same Book", now.Add(time.Minute)))

	entries, err := repo.GetUserHistory(1)

	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRepository_AppendUserHistory_TrimsToCap(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)
	for i := 0; i < HistoryCap+5; i++ {
		err := repo.AppendUserHistory(1, uint(i+1), "Book", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	entries, err := repo.GetUserHistory(1)

	require.NoError(t, err)
	assert.Len(t, entries, HistoryCap)
	// Oldest entries were trimmed, newest survive
	assert.Equal(t, uint(HistoryCap+5), entries[0].BookID)
	assert.Equal(t, uint(6), entries[len(entries)-1].BookID)
}

func TestRepository_AppendUserHistory_PerUserCap(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now()
	require.NoError(t, repo.AppendUserHistory(2, 1, "Other User Book", base))
	for i := 0; i < HistoryCap; i++ {
		require.NoError(t, repo.AppendUserHistory(1, uint(i+1), "Book", base.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := repo.GetUserHistory(2)

	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRepository_ResetMonthlyCounters(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user := &entities.User{Username: "reader", Email: "r@example.com", Token: "tok", TotalDownloads: 10, MonthlyDownloads: 4}
	require.NoError(t, db.Create(user).Error)
	category := &entities.Category{Name: "fiqh", TotalDownloads: 20, MonthlyDownloads: 7}
	require.NoError(t, db.Create(category).Error)

	require.NoError(t, repo.ResetMonthlyCounters())

	var updatedUser entities.User
	db.First(&updatedUser, user.ID)
	assert.Equal(t, int64(0), updatedUser.MonthlyDownloads)
	assert.Equal(t, int64(10), updatedUser.TotalDownloads)

	var updatedCategory entities.Category
	db.First(&updatedCategory, category.ID)
	assert.Equal(t, int64(0), updatedCategory.MonthlyDownloads)
	assert.Equal(t, int64(20), updatedCategory.TotalDownloads)
}

func TestRepository_Recompute(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	scholar := &entities.Scholar{Name: "Test Scholar", TotalBooksDownloads: 99}
	require.NoError(t, db.Create(scholar).Error)
	// Drifted counters everywhere
	user := &entities.User{Username: "reader", Email: "r@example.com", Token: "tok", TotalDownloads: 99, MonthlyDownloads: 99}
	require.NoError(t, db.Create(user).Error)
	category := &entities.Category{Name: "fiqh", TotalDownloads: 99, MonthlyDownloads: 99}
	require.NoError(t, db.Create(category).Error)
	book := &entities.Book{Title: "Test Book", Category: "fiqh", ScholarID: &scholar.ID, Downloads: 99}
	require.NoError(t, db.Create(book).Error)

	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.Local)
	lastMonth := time.Date(2024, 2, 10, 12, 0, 0, 0, time.Local)

	records := []entities.DownloadRecord{
		// Two billable completed downloads this month
		{UserID: user.ID, BookID: book.ID, ScholarID: &scholar.ID, DownloadDate: now, Status: entities.DownloadStatusCompleted, Billable: true, BookCategory: "fiqh"},
		{UserID: user.ID, BookID: book.ID, ScholarID: &scholar.ID, DownloadDate: now.Add(-time.Hour), Status: entities.DownloadStatusCompleted, Billable: true, BookCategory: "fiqh"},
		// One from last month, still billable
		{UserID: user.ID, BookID: book.ID, ScholarID: &scholar.ID, DownloadDate: lastMonth, Status: entities.DownloadStatusCompleted, Billable: true, BookCategory: "fiqh"},
		// Non-billable and failed records never count
		{UserID: user.ID, BookID: book.ID, ScholarID: &scholar.ID, DownloadDate: now, Status: entities.DownloadStatusCompleted, Billable: false, BookCategory: "fiqh"},
		{UserID: user.ID, BookID: book.ID, ScholarID: &scholar.ID, DownloadDate: now, Status: entities.DownloadStatusFailed, Billable: true, BookCategory: "fiqh"},
	}
	for i := range records {
		require.NoError(t, db.Create(&records[i]).Error)
	}

	require.NoError(t, repo.Recompute(now))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(3), updatedBook.Downloads)

	var updatedUser entities.User
	db.First(&updatedUser, user.ID)
	assert.Equal(t, int64(3), updatedUser.TotalDownloads)
	assert.Equal(t, int64(2), updatedUser.MonthlyDownloads)

	var updatedScholar entities.Scholar
	db.First(&updatedScholar, scholar.ID)
	assert.Equal(t, int64(3), updatedScholar.TotalBooksDownloads)

	var updatedCategory entities.Category
	db.First(&updatedCategory, category.ID)
	assert.Equal(t, int64(3), updatedCategory.TotalDownloads)
	assert.Equal(t, int64(2), updatedCategory.MonthlyDownloads)
}

func TestRepository_Recompute_ZeroesDriftWithoutRecords(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	book := &entities.Book{Title: "Test Book", Category: "fiqh", Downloads: 42}
	require.NoError(t, db.Create(book).Error)

	require.NoError(t, repo.Recompute(time.Now()))

	var updated entities.Book
	db.First(&updated, book.ID)
	assert.Equal(t, int64(0), updated.Downloads)
}
