package downloads

import (
	"strings"

	"github.com/booklib/server/internal/entities"
)

var mobileUAMarkers = []string{"android", "iphone", "ipad", "mobile", "okhttp", "dart"}

// DeriveSource classifies the client platform for a download record. An
// explicit X-Client-Source header wins; otherwise the user agent is sniffed
// for mobile markers, defaulting to web. Unknown header values fall through
// to sniffing rather than polluting the ledger.
func DeriveSource(meta ClientMeta) entities.DownloadSource {
	switch strings.ToLower(strings.TrimSpace(meta.SourceHeader)) {
	case string(entities.DownloadSourceWeb):
		return entities.DownloadSourceWeb
	case string(entities.DownloadSourceMobile):
		return entities.DownloadSourceMobile
	case string(entities.DownloadSourceAPI):
		return entities.DownloadSourceAPI
	}

	ua := strings.ToLower(meta.UserAgent)
	for _, marker := range mobileUAMarkers {
		if strings.Contains(ua, marker) {
			return entities.DownloadSourceMobile
		}
	}
	return entities.DownloadSourceWeb
}
