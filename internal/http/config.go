package http

import (
	"github.com/booklib/server/internal/auth"
	"github.com/booklib/server/internal/database"
	"github.com/booklib/server/internal/database/analytics"
	"github.com/booklib/server/internal/downloads"
	"github.com/booklib/server/internal/metrics"
)

// RouterConfig carries all dependencies for router construction. Optional
// fields (Metrics, AuthMiddleware) may be nil; the corresponding routes or
// middleware are then skipped.
type RouterConfig struct {
	Database        *database.Database
	DownloadService *downloads.Service
	DownloadLister  DownloadLister
	HistoryStore    HistoryStore
	AnalyticsRepo   *analytics.Repository
	AuthMiddleware  *auth.Middleware
	Metrics         *metrics.Metrics
	Version         string
}
