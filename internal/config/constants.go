package config

// Default paths
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./library.db"

	// DefaultFilesDir is the default directory holding downloadable book files
	DefaultFilesDir = "./files"
)
