package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/booklib/server/internal/auth"
	"github.com/booklib/server/internal/downloads"
	"github.com/booklib/server/internal/entities"
	"github.com/booklib/server/internal/metrics"
	"github.com/booklib/server/internal/utils"
)

// DownloadLister provides paginated access to a user's ledger records.
type DownloadLister interface {
	GetUserDownloads(userID uint, limit, offset int, status entities.DownloadStatus) ([]entities.DownloadRecord, int64, error)
}

// HistoryStore provides the user's display-only download history.
type HistoryStore interface {
	GetUserHistory(userID uint) ([]entities.DownloadHistoryEntry, error)
}

// DownloadsController serves book files and the caller's download listings.
type DownloadsController struct {
	service *downloads.Service
	lister  DownloadLister
	history HistoryStore
	metrics *metrics.Metrics
}

// NewDownloadsController creates a new DownloadsController. metrics may be
// nil when instrumentation is disabled.
func NewDownloadsController(service *downloads.Service, lister DownloadLister, history HistoryStore, m *metrics.Metrics) *DownloadsController {
	return &DownloadsController{
		service: service,
		lister:  lister,
		history: history,
		metrics: m,
	}
}

// responseSink adapts the gin response writer to the fulfillment service's
// sink. Once headers have gone out, errors can no longer be reported as
// structured responses.
type responseSink struct {
	c           *gin.Context
	headersSent bool
	written     int64
}

func (s *responseSink) SendHeaders(filename, mimeType string, size int64) {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	filename = utils.SanitizeFilename(filename)
	s.c.Header("Content-Type", mimeType)
	s.c.Header("Content-Length", strconv.FormatInt(size, 10))
	s.c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	s.c.Header("Cache-Control", "no-cache")
	s.c.Status(http.StatusOK)
	s.headersSent = true
}

func (s *responseSink) Write(p []byte) (int, error) {
	n, err := s.c.Writer.Write(p)
	s.written += int64(n)
	return n, err
}

// Download streams a book file to the authenticated caller.
// POST /api/books/:id/download
func (dc *DownloadsController) Download(c *gin.Context) {
	bookID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	principal := downloads.Principal{
		ID:    GetUserID(c),
		Email: auth.GetEmail(c),
		Role:  auth.GetRole(c),
	}
	meta := downloads.ClientMeta{
		SourceHeader: c.GetHeader("X-Client-Source"),
		UserAgent:    c.Request.UserAgent(),
	}
	source := string(downloads.DeriveSource(meta))

	sink := &responseSink{c: c}
	start := time.Now()
	if dc.metrics != nil {
		dc.metrics.DownloadsInFlight.Inc()
		defer dc.metrics.DownloadsInFlight.Dec()
	}

	err := dc.service.Fulfill(c.Request.Context(), principal, bookID, meta, sink)

	if dc.metrics != nil {
		dc.metrics.DownloadBytes.Add(float64(sink.written))
		dc.metrics.DownloadsTotal.WithLabelValues(outcomeLabel(err), source).Inc()
		if err == nil {
			dc.metrics.DownloadDuration.Observe(time.Since(start).Seconds())
		}
	}

	if err == nil {
		return
	}

	switch {
	case errors.Is(err, downloads.ErrBookNotFound), errors.Is(err, downloads.ErrBookInactive):
		respondNotFound(c, "book")
	case errors.Is(err, downloads.ErrFileMissing):
		respondNotFound(c, "book file")
	case errors.Is(err, downloads.ErrNoFileAttached):
		respondUnprocessable(c, "book has no downloadable file attached")
	case errors.Is(err, downloads.ErrStreamFailed):
		// Headers and some bytes are already out; the connection just
		// ends. Nothing structured can be sent anymore.
		c.Abort()
	default:
		respondInternalError(c, err, "download fulfillment")
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "completed"
	case errors.Is(err, downloads.ErrStreamFailed):
		return "failed"
	default:
		return "rejected"
	}
}

// downloadListItem carries the display fields of one ledger record.
type downloadListItem struct {
	ID           uint      `json:"id"`
	BookID       uint      `json:"book_id"`
	BookTitle    string    `json:"book_title"`
	BookCategory string    `json:"book_category"`
	DownloadDate time.Time `json:"download_date"`
	Size         int64     `json:"download_size"`
	DurationMS   int64     `json:"download_duration_ms"`
	Status       string    `json:"status"`
	Source       string    `json:"source"`
}

// MyDownloads lists the caller's download records, newest first.
// GET /api/downloads/my?page=&limit=&status=
func (dc *DownloadsController) MyDownloads(c *gin.Context) {
	limit, offset := parsePagination(c)

	status := entities.DownloadStatus(c.Query("status"))
	switch status {
	case "", entities.DownloadStatusPending, entities.DownloadStatusCompleted, entities.DownloadStatusFailed:
	default:
		respondBadRequest(c, "invalid status")
		return
	}

	records, total, err := dc.lister.GetUserDownloads(GetUserID(c), limit, offset, status)
	if err != nil {
		respondInternalError(c, err, "list downloads")
		return
	}

	items := make([]downloadListItem, 0, len(records))
	for _, record := range records {
		items = append(items, downloadListItem{
			ID:           record.ID,
			BookID:       record.BookID,
			BookTitle:    record.BookTitle,
			BookCategory: record.BookCategory,
			DownloadDate: record.DownloadDate,
			Size:         record.Size,
			DurationMS:   record.DurationMS,
			Status:       string(record.Status),
			Source:       string(record.Source),
		})
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    items,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(items)) < total,
	})
}

// MyHistory returns the caller's bounded download history list.
// GET /api/downloads/history
func (dc *DownloadsController) MyHistory(c *gin.Context) {
	entries, err := dc.history.GetUserHistory(GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "download history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"history": entries,
		"count":   len(entries),
	})
}
