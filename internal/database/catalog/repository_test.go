package catalog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/booklib/server/internal/entities"
)

func setupTestDB(t *testing.T) (*gorm.DB, *Repository, func()) {
	dbPath := "./test_catalog_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Scholar{},
		&entities.Category{},
		&entities.Book{},
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

func TestRepository_GetBookByID_PreloadsScholar(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	scholar := &entities.Scholar{Name: "Test Scholar"}
	require.NoError(t, db.Create(scholar).Error)
	book := &entities.Book{Title: "Test Book", Category: "fiqh", ScholarID: &scholar.ID}
	require.NoError(t, db.Create(book).Error)

	result, err := repo.GetBookByID(book.ID)

	require.NoError(t, err)
	assert.Equal(t, "Test Book", result.Title)
	require.NotNil(t, result.Scholar)
	assert.Equal(t, "Test Scholar", result.Scholar.Name)
}

func TestRepository_GetBookByID_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetBookByID(999)

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_GetScholarByID(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	scholar := &entities.Scholar{Name: "Test Scholar"}
	require.NoError(t, db.Create(scholar).Error)

	result, err := repo.GetScholarByID(scholar.ID)

	require.NoError(t, err)
	assert.Equal(t, "Test Scholar", result.Name)
}

func TestRepository_GetCategoryByName(t *testing.T) {
	db, repo, cleanup := setupTestDB(t)
	defer cleanup()

	category := &entities.Category{Name: "tafsir"}
	require.NoError(t, db.Create(category).Error)

	result, err := repo.GetCategoryByName("tafsir")

	require.NoError(t, err)
	assert.Equal(t, category.ID, result.ID)
}

func TestRepository_CreateUser(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, err := repo.CreateUser("reader", "reader@example.com", entities.RoleReader)

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, entities.RoleReader, user.Role)
	assert.Len(t, user.Token, 64) // 32 bytes hex encoded
}

func TestRepository_CreateUser_UniqueTokens(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	user1, err := repo.CreateUser("user1", "user1@example.com", entities.RoleReader)
	require.NoError(t, err)
	user2, err := repo.CreateUser("user2", "user2@example.com", entities.RoleAdmin)
	require.NoError(t, err)

	assert.NotEqual(t, user1.Token, user2.Token)
}

func TestRepository_GetUserByToken(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.CreateUser("reader", "reader@example.com", entities.RoleReader)
	require.NoError(t, err)

	user, err := repo.GetUserByToken(created.Token)

	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestRepository_GetUserByToken_NotFound(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.GetUserByToken("nonexistent-token")

	assert.Error(t, err)
}

func TestRepository_GetUserByID(t *testing.T) {
	_, repo, cleanup := setupTestDB(t)
	defer cleanup()

	created, err := repo.CreateUser("reader", "reader@example.com", entities.RoleReader)
	require.NoError(t, err)

	user, err := repo.GetUserByID(created.ID)

	require.NoError(t, err)
	assert.Equal(t, "reader", user.Username)
}
