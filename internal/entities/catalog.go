package entities

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleReader Role = "reader"
	RoleAdmin  Role = "admin"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:255" json:"email"`
	Token     string         `gorm:"uniqueIndex;size:64" json:"-"` // API token, hidden from JSON
	Role      Role           `gorm:"size:20;default:'reader'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Denormalized usage counters, best-effort cache over the download ledger.
	TotalDownloads   int64 `gorm:"default:0" json:"total_downloads"`
	MonthlyDownloads int64 `gorm:"default:0" json:"monthly_downloads"`
}

type Scholar struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"index;size:256" json:"name"`
	Biography string         `gorm:"type:text" json:"biography,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Sum of billable downloads across all books authored by this scholar.
	TotalBooksDownloads int64 `gorm:"default:0" json:"total_books_downloads"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`

	TotalDownloads   int64 `gorm:"default:0" json:"total_downloads"`
	MonthlyDownloads int64 `gorm:"default:0" json:"monthly_downloads"`
}

type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"index;size:512" json:"title"`
	Category  string         `gorm:"index;size:100" json:"category"`
	Language  string         `gorm:"size:50" json:"language,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	ScholarID *uint          `gorm:"index" json:"scholar_id,omitempty"`
	Scholar   *Scholar       `gorm:"foreignKey:ScholarID" json:"scholar,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Zero-or-one attached file descriptor. A book without FilePath has no
	// downloadable file and download requests for it are rejected.
	FilePath         string `gorm:"size:1024" json:"file_path,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	FileMimeType     string `gorm:"size:128" json:"file_mime_type,omitempty"`
	FileOriginalName string `gorm:"size:512" json:"file_original_name,omitempty"`

	// Denormalized counters. Downloads is advisory: it tracks billable
	// downloads only as long as counter propagation never fails, which is
	// not guaranteed. The ledger is authoritative for reporting.
	Downloads int64 `gorm:"default:0" json:"downloads"`
	Views     int64 `gorm:"default:0" json:"views"`
}

// HasFile reports whether the book has an attached file descriptor.
func (b *Book) HasFile() bool {
	return b.FilePath != ""
}

func (User) TableName() string {
	return "users"
}

func (Scholar) TableName() string {
	return "scholars"
}

func (Category) TableName() string {
	return "categories"
}

func (Book) TableName() string {
	return "books"
}
