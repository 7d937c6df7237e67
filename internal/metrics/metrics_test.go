package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersAllMetrics(t *testing.T) {
	m := New()

	m.DownloadsTotal.WithLabelValues("completed", "web").Inc()
	m.DownloadBytes.Add(1024)
	m.DownloadDuration.Observe(0.5)
	m.DownloadsInFlight.Inc()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `booklib_downloads_total{source="web",status="completed"} 1`)
	assert.Contains(t, body, "booklib_download_bytes_total 1024")
	assert.Contains(t, body, "booklib_download_duration_seconds_count 1")
	assert.Contains(t, body, "booklib_downloads_in_flight 1")
}

func TestNew_FreshRegistryPerInstance(t *testing.T) {
	// Two instances must not clash on registration
	first := New()
	second := New()

	first.DownloadBytes.Add(100)

	w := httptest.NewRecorder()
	second.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "booklib_download_bytes_total 0")
}
