package transfer

import (
	"net/url"
	"path"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
)

// Selector picks the strategy able to download a URL
type Selector struct {
	http *HTTP
	hls  *HLS
}

// NewSelector creates a selector whose strategies share one client
func NewSelector(client *retryablehttp.Client, logger *zap.Logger) *Selector {
	return &Selector{
		http: NewHTTP(client, logger),
		hls:  NewHLS(client, logger),
	}
}

// Select returns HLS for m3u8 playlists and HTTP for everything else
func (s *Selector) Select(rawURL string) downloader.Transfer {
	if isPlaylist(rawURL) {
		return s.hls
	}
	return s.http
}

// ForItem selects on the URL the download will actually use
func (s *Selector) ForItem(di *entity.DownloadingItem) downloader.Transfer {
	return s.Select(di.URLOrDefault())
}

func isPlaylist(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(path.Ext(u.Path), ".m3u8")
}
