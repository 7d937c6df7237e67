// Command generate_demo creates a demo database with sample catalog data and
// a few weeks of download traffic.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db] [-files path/to/files]
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/booklib/server/internal/database"
	"github.com/booklib/server/internal/database/catalog"
	"github.com/booklib/server/internal/database/counters"
	"github.com/booklib/server/internal/entities"
)

const (
	defaultDemoDatabasePath = "./demo/demo.db"
	defaultDemoFilesDir     = "./demo/files"
)

func main() {
	dbPath := flag.String("db", defaultDemoDatabasePath, "path to the demo database file")
	filesDir := flag.String("files", defaultDemoFilesDir, "directory for the demo book files")
	days := flag.Int("days", 30, "days of download traffic to generate")
	flag.Parse()

	log.Printf("Generating demo database at %s...", *dbPath)

	// Delete existing demo database to start fresh
	if err := os.Remove(*dbPath); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to remove existing demo database: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0o755); err != nil {
		log.Fatalf("Failed to create demo directory: %v", err)
	}
	if err := os.MkdirAll(*filesDir, 0o755); err != nil {
		log.Fatalf("Failed to create demo files directory: %v", err)
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	users := createUsers(db)
	scholars := createScholars(db)
	books := createBooks(db, *filesDir, scholars)
	generateTraffic(db, users, books, *days)

	// Converge the denormalized counters with the generated ledger
	if err := counters.NewRepository(db.DB).Recompute(time.Now()); err != nil {
		log.Fatalf("Failed to recompute counters: %v", err)
	}

	log.Println("Demo database generated successfully!")
}

func createUsers(db *database.Database) []*entities.User {
	repo := catalog.NewRepository(db.DB)

	configs := []struct {
		username string
		email    string
		role     entities.Role
	}{
		{"admin", "admin@booklib.local", entities.RoleAdmin},
		{"aisha", "aisha@example.com", entities.RoleReader},
		{"bilal", "bilal@example.com", entities.RoleReader},
		{"carima", "carima@example.com", entities.RoleReader},
		{"dawud", "dawud@example.com", entities.RoleReader},
	}

	users := make([]*entities.User, 0, len(configs))
	for _, cfg := range configs {
		user, err := repo.CreateUser(cfg.username, cfg.email, cfg.role)
		if err != nil {
			log.Printf("Failed to create user %s: %v", cfg.username, err)
			continue
		}
		// Tokens are only printed here; they are not recoverable later
		fmt.Printf("  %-8s (%s)  token: %s\n", user.Username, user.Role, user.Token)
		users = append(users, user)
	}
	return users
}

func createScholars(db *database.Database) []*entities.Scholar {
	names := []string{
		"Ibn Kathir",
		"Imam an-Nawawi",
		"Ibn Hajar al-Asqalani",
		"Imam al-Ghazali",
	}

	scholars := make([]*entities.Scholar, 0, len(names))
	for _, name := range names {
		scholar := &entities.Scholar{Name: name}
		if err := db.DB.Create(scholar).Error; err != nil {
			log.Printf("Failed to create scholar %s: %v", name, err)
			continue
		}
		scholars = append(scholars, scholar)
	}
	return scholars
}

func createBooks(db *database.Database, filesDir string, scholars []*entities.Scholar) []*entities.Book {
	configs := []struct {
		title    string
		category string
		language string
		scholar  int // index into scholars, -1 for none
	}{
		{"Tafsir Ibn Kathir Volume 1", "tafsir", "en", 0},
		{"Tafsir Ibn Kathir Volume 2", "tafsir", "en", 0},
		{"Riyad as-Salihin", "hadith", "ar", 1},
		{"The Forty Hadith", "hadith", "en", 1},
		{"Fath al-Bari", "hadith", "ar", 2},
		{"Ihya Ulum al-Din", "fiqh", "ar", 3},
		{"The Beginning of Guidance", "aqeedah", "en", 3},
		{"Stories of the Prophets", "seerah", "en", 0},
		{"Arabic Grammar Primer", "language", "en", -1},
		{"A History of Al-Andalus", "history", "en", -1},
	}

	books := make([]*entities.Book, 0, len(configs))
	for i, cfg := range configs {
		name := fmt.Sprintf("book_%02d.pdf", i+1)
		content := []byte(strings.Repeat(cfg.title+"\n", 64))
		if err := os.WriteFile(filepath.Join(filesDir, name), content, 0o644); err != nil {
			log.Printf("Failed to write demo file for %s: %v", cfg.title, err)
			continue
		}

		book := &entities.Book{
			Title:            cfg.title,
			Category:         cfg.category,
			Language:         cfg.language,
			IsActive:         true,
			FilePath:         name,
			FileSize:         int64(len(content)),
			FileMimeType:     "application/pdf",
			FileOriginalName: cfg.title + ".pdf",
		}
		if cfg.scholar >= 0 && cfg.scholar < len(scholars) {
			book.ScholarID = &scholars[cfg.scholar].ID
		}
		if err := db.DB.Create(book).Error; err != nil {
			log.Printf("Failed to create book %s: %v", cfg.title, err)
			continue
		}
		log.Printf("Saved: %s (%s)", book.Title, book.Category)
		books = append(books, book)
	}
	return books
}

// generateTraffic writes completed download records spread over the past
// days. The same (user, book) pair on one day yields one billable record and
// possibly a free re-download, matching the daily dedup rule.
func generateTraffic(db *database.Database, users []*entities.User, books []*entities.Book, days int) {
	sources := []entities.DownloadSource{
		entities.DownloadSourceWeb,
		entities.DownloadSourceWeb,
		entities.DownloadSourceMobile,
		entities.DownloadSourceAPI,
	}

	rng := rand.New(rand.NewSource(42))
	total := 0
	for day := 0; day < days; day++ {
		date := time.Now().AddDate(0, 0, -day)
		downloadsToday := 2 + rng.Intn(6)

		seen := map[[2]uint]bool{}
		for i := 0; i < downloadsToday; i++ {
			user := users[rng.Intn(len(users))]
			book := books[rng.Intn(len(books))]

			key := [2]uint{user.ID, book.ID}
			record := &entities.DownloadRecord{
				UserID:       user.ID,
				BookID:       book.ID,
				ScholarID:    book.ScholarID,
				DownloadDate: date.Add(-time.Duration(rng.Intn(12)) * time.Hour),
				Status:       entities.DownloadStatusCompleted,
				Size:         book.FileSize,
				DurationMS:   int64(200 + rng.Intn(4000)),
				Source:       sources[rng.Intn(len(sources))],
				Billable:     !seen[key],
				BookTitle:    book.Title,
				BookCategory: book.Category,
				BookLanguage: book.Language,
				UserEmail:    user.Email,
			}
			seen[key] = true

			// Sprinkle in the occasional aborted stream
			if rng.Intn(20) == 0 {
				record.Status = entities.DownloadStatusFailed
				record.DurationMS = 0
			}

			if err := db.DB.Create(record).Error; err != nil {
				log.Printf("Failed to create download record: %v", err)
				continue
			}
			total++
		}
	}
	log.Printf("Generated %d download records across %d days", total, days)
}
