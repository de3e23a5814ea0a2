package downloader

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/1930s/Podcast-Server/entity"
)

// TopicDownload is the broadcast topic receiving the item after every transition
const TopicDownload = "/topic/download"

// Repository is the persistence side of the lifecycle
type Repository interface {
	FindPodcastByID(ctx context.Context, id uuid.UUID) (*entity.Podcast, error)
	SaveItem(ctx context.Context, item *entity.Item) error
}

// Registry tracks the downloads currently running
type Registry interface {
	RemoveCurrentDownload(item *entity.Item)
}

// Notifier broadcasts payloads to topic subscribers, fire-and-forget
type Notifier interface {
	Publish(topic string, payload any)
}

// MimeProber sniffs the content type of a file on disk
type MimeProber interface {
	ProbeContentType(path string) string
}

// FinishHook runs after a successful finalize, on the definitive file
type FinishHook interface {
	OnFinish(ctx context.Context, item entity.Item, path string) error
}

// Transfer moves the remote resource of a task into its target file.
// Implementations must poll task.Stopped() between chunks and return early once it is set.
type Transfer interface {
	Transfer(ctx context.Context, task Task) (int64, error)
}

// Namer is implemented by transfers able to derive a file name from the URL they handle
type Namer interface {
	FileName(url string) string
}

// Task is the view a transfer gets of the download it serves
type Task interface {
	// Item returns a copy of the item being downloaded
	Item() entity.Item

	// URL returns the URL to fetch
	URL() string

	// TargetFile returns the working file, resolving it on first call
	TargetFile() (string, error)

	// Stopped reports whether the download was paused, stopped or failed
	Stopped() bool

	// Progress reports the number of bytes written so far
	Progress(done, total int64)
}

// Progress represents the current progress of a transfer
type Progress struct {
	BytesProcessed int64         `json:"bytes_processed"`
	TotalBytes     int64         `json:"total_bytes"`
	Speed          int64         `json:"speed"` // bytes per second
	ETA            time.Duration `json:"eta"`
	Percentage     float64       `json:"percentage"`
}

// ProgressReporter receives periodic progress updates for one download
type ProgressReporter interface {
	// UpdateProgress reports progress for the item
	UpdateProgress(item entity.Item, progress Progress) error

	// Stop releases resources held for the download
	Stop()
}
