package transfer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/downloader"
)

// HTTP downloads a single resource, resuming from a partial working file with a Range request
type HTTP struct {
	client *retryablehttp.Client
	logger *zap.Logger
}

// NewHTTP creates the HTTP strategy on the given client
func NewHTTP(client *retryablehttp.Client, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTP{client: client, logger: logger.Named("http")}
}

// Transfer implements downloader.Transfer
func (h *HTTP) Transfer(ctx context.Context, task downloader.Task) (int64, error) {
	target, err := task.TargetFile()
	if err != nil {
		return 0, err
	}

	offset, err := fileSize(target)
	if err != nil {
		return 0, downloader.NewDownloadErrorWithCause(downloader.ErrorFileSystem, "failed to inspect working file", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, task.URL(), nil)
	if err != nil {
		return 0, downloader.NewDownloadErrorWithCause(downloader.ErrorInvalidURL, "failed to build request", err).
			WithContext("url", task.URL())
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, downloader.NewDownloadErrorWithCause(downloader.ErrorTransfer, "request failed", err).
			WithContext("url", task.URL())
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch {
	case resp.StatusCode == http.StatusPartialContent && offset > 0:
		flags |= os.O_APPEND
		h.logger.Debug("resuming download", zap.String("url", task.URL()), zap.Int64("offset", offset))
	case resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0:
		// the working file already holds the whole resource
		return offset, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		flags |= os.O_TRUNC
		offset = 0
	default:
		return 0, downloader.NewDownloadError(downloader.ErrorTransfer, fmt.Sprintf("unexpected status %s", resp.Status)).
			WithContext("url", task.URL()).
			WithContext("status", resp.StatusCode)
	}

	total := int64(-1)
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}

	file, err := os.OpenFile(target, flags, 0o644)
	if err != nil {
		return 0, downloader.NewDownloadErrorWithCause(downloader.ErrorFileSystem, "failed to open working file", err)
	}
	defer file.Close()

	reader := &progressReader{reader: resp.Body, task: task, done: offset, total: total}
	written, err := copyChunks(ctx, task, file, reader)
	return offset + written, err
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
