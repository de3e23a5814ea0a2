package downloader

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
)

// DefaultProgressInterval is the period between two progress reports
const DefaultProgressInterval = 2 * time.Second

// ProgressTracker forwards the latest progress of a download to a reporter on a fixed interval
type ProgressTracker struct {
	updateInterval time.Duration
	reporter       ProgressReporter
	logger         *zap.Logger

	mu              sync.RWMutex
	isRunning       bool
	dirty           bool
	currentItem     entity.Item
	currentProgress Progress

	ctx      context.Context
	cancel   context.CancelFunc
	ticker   *time.Ticker
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewProgressTracker creates a new ProgressTracker with the specified reporter
func NewProgressTracker(reporter ProgressReporter, logger *zap.Logger) *ProgressTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressTracker{
		updateInterval: DefaultProgressInterval,
		reporter:       reporter,
		logger:         logger,
	}
}

// NewProgressTrackerWithInterval creates a ProgressTracker with a custom update interval
func NewProgressTrackerWithInterval(reporter ProgressReporter, logger *zap.Logger, interval time.Duration) *ProgressTracker {
	pt := NewProgressTracker(reporter, logger)
	if interval > 0 {
		pt.updateInterval = interval
	}
	return pt
}

// Start begins the periodic reporting
func (pt *ProgressTracker) Start(ctx context.Context) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.isRunning {
		return NewDownloadError(ErrorUnknown, "progress tracker is already running")
	}

	pt.stopChan = make(chan struct{})
	pt.doneChan = make(chan struct{})
	pt.ctx, pt.cancel = context.WithCancel(ctx)
	pt.ticker = time.NewTicker(pt.updateInterval)
	pt.isRunning = true
	pt.dirty = false

	go pt.updateLoop()

	return nil
}

// Stop flushes the last pending update and stops the reporting loop
func (pt *ProgressTracker) Stop() {
	pt.mu.Lock()
	if !pt.isRunning {
		pt.mu.Unlock()
		return
	}

	close(pt.stopChan)
	pt.cancel()
	pt.isRunning = false
	pt.mu.Unlock()

	<-pt.doneChan

	pt.ticker.Stop()
	pt.flush()

	if pt.reporter != nil {
		pt.reporter.Stop()
	}
}

// UpdateProgress records the latest progress; it is reported on the next tick
func (pt *ProgressTracker) UpdateProgress(item entity.Item, progress Progress) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if !pt.isRunning {
		return
	}
	pt.currentItem = item
	pt.currentProgress = progress
	pt.dirty = true
}

// GetCurrentProgress returns the current progress state
func (pt *ProgressTracker) GetCurrentProgress() Progress {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.currentProgress
}

// IsRunning returns whether the tracker is currently running
func (pt *ProgressTracker) IsRunning() bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.isRunning
}

func (pt *ProgressTracker) updateLoop() {
	defer close(pt.doneChan)

	for {
		select {
		case <-pt.ctx.Done():
			return
		case <-pt.stopChan:
			return
		case <-pt.ticker.C:
			pt.flush()
		}
	}
}

// flush reports the pending update, if any
func (pt *ProgressTracker) flush() {
	pt.mu.Lock()
	if !pt.dirty || pt.reporter == nil {
		pt.mu.Unlock()
		return
	}
	item, progress := pt.currentItem, pt.currentProgress
	pt.dirty = false
	pt.mu.Unlock()

	if err := pt.reporter.UpdateProgress(item, progress); err != nil {
		pt.logger.Warn("failed to report progress",
			zap.String("item", item.ID.String()),
			zap.Error(err))
	}
}

// TopicProgressReporter broadcasts the item, progression included, on TopicDownload
type TopicProgressReporter struct {
	notifier Notifier
}

// NewTopicProgressReporter creates a reporter publishing through the given notifier
func NewTopicProgressReporter(notifier Notifier) *TopicProgressReporter {
	return &TopicProgressReporter{notifier: notifier}
}

// UpdateProgress publishes the item
func (r *TopicProgressReporter) UpdateProgress(item entity.Item, _ Progress) error {
	r.notifier.Publish(TopicDownload, item)
	return nil
}

// Stop is a no-op
func (r *TopicProgressReporter) Stop() {}
