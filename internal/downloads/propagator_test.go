package downloads

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/booklib/server/internal/database/counters"
	"github.com/booklib/server/internal/database/ledger"
	"github.com/booklib/server/internal/entities"
)

func setupPropagator(t *testing.T) (*gorm.DB, *CounterPropagator, *ledger.Repository, func()) {
	dbPath := "./test_propagator_" + t.Name() + ".db"

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

	ledgerRepo := ledger.NewRepository(db)
	countersRepo := counters.NewRepository(db)
	propagator := NewCounterPropagator(ledgerRepo, countersRepo)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, propagator, ledgerRepo, cleanup
}

func seedCompletedRecord(t *testing.T, db *gorm.DB, ledgerRepo *ledger.Repository, scholarID *uint, category string) (*entities.DownloadRecord, *entities.Book, *entities.User) {
	user := &entities.User{Username: "reader", Email: "reader@example.com", Token: "tok"}
	require.NoError(t, db.Create(user).Error)
	book := &entities.Book{Title: "Test Book", Category: category, ScholarID: scholarID}
	require.NoError(t, db.Create(book).Error)

	record := &entities.DownloadRecord{
		UserID:       user.ID,
		BookID:       book.ID,
		ScholarID:    scholarID,
		DownloadDate: time.Now(),
		Billable:     true,
		BookTitle:    book.Title,
		BookCategory: category,
	}
	require.NoError(t, ledgerRepo.Create(record))
	require.NoError(t, ledgerRepo.MarkCompleted(record.ID, time.Second))
	return record, book, user
}

func TestCounterPropagator_Apply(t *testing.T) {
	db, propagator, ledgerRepo, cleanup := setupPropagator(t)
	defer cleanup()

	scholar := &entities.Scholar{Name: "Test Scholar"}
	require.NoError(t, db.Create(scholar).Error)
	category := &entities.Category{Name: "fiqh"}
	require.NoError(t, db.Create(category).Error)

	record, book, user := seedCompletedRecord(t, db, ledgerRepo, &scholar.ID, "fiqh")

	require.NoError(t, propagator.Apply(record.ID))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(1), updatedBook.Downloads)

	var updatedUser entities.User
	db.First(&updatedUser, user.ID)
	assert.Equal(t, int64(1), updatedUser.TotalDownloads)
	assert.Equal(t, int64(1), updatedUser.MonthlyDownloads)

	var updatedScholar entities.Scholar
	db.First(&updatedScholar, scholar.ID)
	assert.Equal(t, int64(1), updatedScholar.TotalBooksDownloads)

	var updatedCategory entities.Category
	db.First(&updatedCategory, category.ID)
	assert.Equal(t, int64(1), updatedCategory.TotalDownloads)

	var historyCount int64
	db.Model(&entities.DownloadHistoryEntry{}).Where("user_id = ?", user.ID).Count(&historyCount)
	assert.Equal(t, int64(1), historyCount)
}

func TestCounterPropagator_Apply_RetryIsIdempotent(t *testing.T) {
	db, propagator, ledgerRepo, cleanup := setupPropagator(t)
	defer cleanup()

	record, book, _ := seedCompletedRecord(t, db, ledgerRepo, nil, "fiqh")

	// An at-least-once task queue may deliver the same record twice
	require.NoError(t, propagator.Apply(record.ID))
	require.NoError(t, propagator.Apply(record.ID))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(1), updatedBook.Downloads)

	var historyCount int64
	db.Model(&entities.DownloadHistoryEntry{}).Count(&historyCount)
	assert.Equal(t, int64(1), historyCount)
}

func TestCounterPropagator_Apply_SkipsNonBillable(t *testing.T) {
	db, propagator, ledgerRepo, cleanup := setupPropagator(t)
	defer cleanup()

	book := &entities.Book{Title: "Test Book", Category: "fiqh"}
	require.NoError(t, db.Create(book).Error)

	record := &entities.DownloadRecord{
		UserID:   1,
		BookID:   book.ID,
		Billable: false,
	}
	require.NoError(t, ledgerRepo.Create(record))
	require.NoError(t, ledgerRepo.MarkCompleted(record.ID, time.Second))

	require.NoError(t, propagator.Apply(record.ID))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(0), updatedBook.Downloads)
}

func TestCounterPropagator_Apply_SkipsPending(t *testing.T) {
	db, propagator, ledgerRepo, cleanup := setupPropagator(t)
	defer cleanup()

	book := &entities.Book{Title: "Test Book", Category: "fiqh"}
	require.NoError(t, db.Create(book).Error)

	record := &entities.DownloadRecord{
		UserID:   1,
		BookID:   book.ID,
		Billable: true,
	}
	require.NoError(t, ledgerRepo.Create(record))

	require.NoError(t, propagator.Apply(record.ID))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(0), updatedBook.Downloads)
}

func TestCounterPropagator_Apply_NoScholar(t *testing.T) {
	db, propagator, ledgerRepo, cleanup := setupPropagator(t)
	defer cleanup()

	record, book, _ := seedCompletedRecord(t, db, ledgerRepo, nil, "fiqh")

	require.NoError(t, propagator.Apply(record.ID))

	var updatedBook entities.Book
	db.First(&updatedBook, book.ID)
	assert.Equal(t, int64(1), updatedBook.Downloads)
}
