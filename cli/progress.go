package cli

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
)

// barReporter renders one terminal progress bar per download attempt
type barReporter struct {
	mu    sync.Mutex
	out   io.Writer
	title string
	bar   *progressbar.ProgressBar
}

func newBarReporter(out io.Writer, item entity.Item) *barReporter {
	title := item.Title
	if podcast := item.PodcastTitle(); podcast != "" {
		title = podcast + " - " + title
	}
	return &barReporter{out: out, title: title}
}

// UpdateProgress implements downloader.ProgressReporter
func (r *barReporter) UpdateProgress(_ entity.Item, progress downloader.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := progress.TotalBytes
	if total <= 0 {
		total = -1
	}

	if r.bar == nil {
		r.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription(r.title),
			progressbar.OptionShowBytes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	} else if total > 0 && r.bar.GetMax64() != total {
		r.bar.ChangeMax64(total)
	}

	return r.bar.Set64(progress.BytesProcessed)
}

// Stop implements downloader.ProgressReporter; a restarted attempt draws a fresh bar
func (r *barReporter) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
}
