package transfer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/grafov/m3u8"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/downloader"
)

// maxPlaylistDepth bounds master → media playlist indirections
const maxPlaylistDepth = 3

// HLS downloads an m3u8 stream by appending its media segments into one .ts file
type HLS struct {
	client *retryablehttp.Client
	logger *zap.Logger
}

// NewHLS creates the HLS strategy on the given client
func NewHLS(client *retryablehttp.Client, logger *zap.Logger) *HLS {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HLS{client: client, logger: logger.Named("hls")}
}

// FileName implements downloader.Namer: the playlist name with a .ts extension
func (h *HLS) FileName(rawURL string) string {
	name := downloader.FileNameFromURL(rawURL)
	if name == "" {
		return ""
	}
	return strings.TrimSuffix(name, path.Ext(name)) + ".ts"
}

// Transfer implements downloader.Transfer
func (h *HLS) Transfer(ctx context.Context, task downloader.Task) (int64, error) {
	target, err := task.TargetFile()
	if err != nil {
		return 0, err
	}

	media, base, err := h.mediaPlaylist(ctx, task.URL())
	if err != nil {
		return 0, err
	}

	segments := make([]*m3u8.MediaSegment, 0, media.Count())
	for _, seg := range media.Segments {
		if seg == nil {
			continue
		}
		if isEncrypted(seg.Key) || (seg.Key == nil && isEncrypted(media.Key)) {
			return 0, downloader.NewDownloadError(downloader.ErrorTransfer, "encrypted HLS streams are not supported").
				WithContext("url", task.URL())
		}
		segments = append(segments, seg)
	}
	if len(segments) == 0 {
		return 0, downloader.NewDownloadError(downloader.ErrorTransfer, "playlist has no segment").
			WithContext("url", task.URL())
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, downloader.NewDownloadErrorWithCause(downloader.ErrorFileSystem, "failed to open working file", err)
	}
	defer file.Close()

	var written int64
	for i, seg := range segments {
		if task.Stopped() {
			return written, downloader.ErrTransferStopped
		}

		segURL, err := resolveReference(base, seg.URI)
		if err != nil {
			return written, downloader.NewDownloadErrorWithCause(downloader.ErrorInvalidURL, "invalid segment uri", err).
				WithContext("uri", seg.URI)
		}

		n, err := h.fetchSegment(ctx, task, segURL, file)
		written += n
		if err != nil {
			return written, err
		}

		// estimate the total size from the mean segment size seen so far
		done := i + 1
		task.Progress(written, written*int64(len(segments))/int64(done))
	}

	h.logger.Debug("stream downloaded", zap.String("url", task.URL()), zap.Int("segments", len(segments)))
	return written, nil
}

// mediaPlaylist follows master playlists down to a media playlist, picking the highest bandwidth
func (h *HLS) mediaPlaylist(ctx context.Context, playlistURL string) (*m3u8.MediaPlaylist, *url.URL, error) {
	current := playlistURL
	for depth := 0; depth < maxPlaylistDepth; depth++ {
		base, err := url.Parse(current)
		if err != nil {
			return nil, nil, downloader.NewDownloadErrorWithCause(downloader.ErrorInvalidURL, "invalid playlist url", err).
				WithContext("url", current)
		}

		playlist, listType, err := h.fetchPlaylist(ctx, current)
		if err != nil {
			return nil, nil, err
		}

		switch listType {
		case m3u8.MEDIA:
			return playlist.(*m3u8.MediaPlaylist), base, nil
		case m3u8.MASTER:
			variant := bestVariant(playlist.(*m3u8.MasterPlaylist))
			if variant == nil {
				return nil, nil, downloader.NewDownloadError(downloader.ErrorTransfer, "master playlist has no variant").
					WithContext("url", current)
			}
			next, err := resolveReference(base, variant.URI)
			if err != nil {
				return nil, nil, downloader.NewDownloadErrorWithCause(downloader.ErrorInvalidURL, "invalid variant uri", err)
			}
			h.logger.Debug("selected variant", zap.String("uri", next), zap.Uint32("bandwidth", variant.Bandwidth))
			current = next
		default:
			return nil, nil, downloader.NewDownloadError(downloader.ErrorTransfer, "unknown playlist type").
				WithContext("url", current)
		}
	}
	return nil, nil, downloader.NewDownloadError(downloader.ErrorTransfer, "too many nested playlists").
		WithContext("url", playlistURL)
}

func (h *HLS) fetchPlaylist(ctx context.Context, playlistURL string) (m3u8.Playlist, m3u8.ListType, error) {
	resp, err := h.get(ctx, playlistURL)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, 0, downloader.NewDownloadErrorWithCause(downloader.ErrorTransfer, "failed to decode playlist", err).
			WithContext("url", playlistURL)
	}
	return playlist, listType, nil
}

func (h *HLS) fetchSegment(ctx context.Context, task downloader.Task, segURL string, file *os.File) (int64, error) {
	resp, err := h.get(ctx, segURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return copyChunks(ctx, task, file, resp.Body)
}

func (h *HLS) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, downloader.NewDownloadErrorWithCause(downloader.ErrorInvalidURL, "failed to build request", err).
			WithContext("url", rawURL)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, downloader.NewDownloadErrorWithCause(downloader.ErrorTransfer, "request failed", err).
			WithContext("url", rawURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, downloader.NewDownloadError(downloader.ErrorTransfer, fmt.Sprintf("unexpected status %s", resp.Status)).
			WithContext("url", rawURL).
			WithContext("status", resp.StatusCode)
	}
	return resp, nil
}

func bestVariant(master *m3u8.MasterPlaylist) *m3u8.Variant {
	var best *m3u8.Variant
	for _, v := range master.Variants {
		if v == nil || v.Iframe {
			continue
		}
		if best == nil || v.Bandwidth > best.Bandwidth {
			best = v
		}
	}
	return best
}

func isEncrypted(key *m3u8.Key) bool {
	return key != nil && key.Method != "" && key.Method != "NONE"
}

func resolveReference(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
