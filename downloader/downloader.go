package downloader

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
)

// DefaultTemporaryExtension marks files still being written
const DefaultTemporaryExtension = ".psdownload"

// Options holds the storage parameters of a download
type Options struct {
	RootFolder         string
	TemporaryExtension string
	ProgressInterval   time.Duration
}

// Dependencies are the collaborators of a Downloader
type Dependencies struct {
	Repository  Repository
	Registry    Registry
	Notifier    Notifier
	Prober      MimeProber
	Reporter    ProgressReporter
	FinishHooks []FinishHook
	Logger      *zap.Logger
}

// Downloader owns the lifecycle of one item download.
// Status and target are guarded by mu; the stopped flag is the lock-free
// signal read by the transfer loop. runMu serializes attempts so a restart
// waits for the interrupted transfer to return.
type Downloader struct {
	runMu           sync.Mutex
	mu              sync.Mutex
	item            *entity.Item
	downloadingItem *entity.DownloadingItem
	target          string
	deregistered    bool
	syncErr         error
	cancel          context.CancelFunc
	persistCtx      context.Context
	tracker         *ProgressTracker
	startedAt       time.Time

	stopped atomic.Bool

	transfer Transfer
	deps     Dependencies
	opts     Options
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a downloader for the given item and transfer strategy
func New(di *entity.DownloadingItem, transfer Transfer, deps Dependencies, opts Options) *Downloader {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}

	return &Downloader{
		item:            di.Item,
		downloadingItem: di,
		persistCtx:      context.Background(),
		transfer:        transfer,
		deps:            deps,
		opts:            opts,
		logger: deps.Logger.Named("downloader").With(
			zap.String("item", di.Item.ID.String()),
			zap.String("title", di.Item.Title),
		),
		now: time.Now,
	}
}

// SetRegistry injects the active-download registry
func (d *Downloader) SetRegistry(registry Registry) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deps.Registry = registry
}

// Run starts the download and finishes it when the transfer completes uninterrupted
func (d *Downloader) Run(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()

	if !d.start(ctx) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped.Load() {
		d.logger.Debug("transfer interrupted, leaving state untouched", zap.Stringer("status", d.item.Status))
		return
	}
	d.finishLocked()
}

// StartDownload marks the item STARTED and runs the transfer.
// Transfer errors are turned into FailDownload and never returned.
func (d *Downloader) StartDownload(ctx context.Context) {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	d.start(ctx)
}

// Resume claims a paused download for a new attempt.
// Only the first caller gets true; the caller then runs the download.
func (d *Downloader) Resume() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.item.Status != entity.StatusPaused {
		return false
	}
	d.item.Status = entity.StatusStarted
	return true
}

// start runs one attempt; it returns false when the item is already completed
func (d *Downloader) start(ctx context.Context) bool {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	if d.item.Status.IsCompleted() {
		d.logger.Warn("refusing to restart completed download", zap.Stringer("status", d.item.Status))
		d.mu.Unlock()
		return false
	}
	d.cancel = cancel
	d.persistCtx = context.WithoutCancel(ctx)
	d.deregistered = false
	d.stopped.Store(false)
	d.startedAt = d.now()
	d.item.Status = entity.StatusStarted
	d.syncAndNotifyLocked()
	d.startTrackingLocked(runCtx)
	d.mu.Unlock()

	d.logger.Info("download started", zap.String("url", d.ItemURL()))

	written, err := d.runTransfer(runCtx)
	d.stopTracking()

	if err != nil {
		if d.stopped.Load() {
			d.logger.Debug("transfer ended after cancellation", zap.Error(err))
			return true
		}
		d.logger.Error("transfer failed", zap.Error(err))
		d.FailDownload()
		return true
	}

	d.logger.Debug("transfer complete", zap.Int64("bytes", written))
	return true
}

// runTransfer calls the strategy, converting a panic into an error
func (d *Downloader) runTransfer(ctx context.Context) (written int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewDownloadError(ErrorTransfer, fmt.Sprintf("transfer panicked: %v", r))
		}
	}()
	return d.transfer.Transfer(ctx, d)
}

// PauseDownload halts the transfer and keeps the working file for a later resume
func (d *Downloader) PauseDownload() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ignoreLocked("pause") {
		return
	}
	d.item.Status = entity.StatusPaused
	d.raiseFlagLocked()
	d.syncAndNotifyLocked()
}

// StopDownload halts the transfer and removes the working file
func (d *Downloader) StopDownload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Downloader) stopLocked() {
	if d.ignoreLocked("stop") {
		return
	}
	d.item.Status = entity.StatusStopped
	d.raiseFlagLocked()
	d.syncLocked()
	d.deregisterLocked()
	d.deleteTargetLocked()
	d.notifyLocked()
}

// FailDownload halts the transfer, counts one more try and removes the working file
func (d *Downloader) FailDownload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failLocked()
}

func (d *Downloader) failLocked() {
	if d.ignoreLocked("fail") {
		return
	}
	d.item.Status = entity.StatusFailed
	d.raiseFlagLocked()
	d.item.AddATry()
	d.syncLocked()
	d.deregisterLocked()
	d.deleteTargetLocked()
	d.notifyLocked()
}

// FinishDownload finalizes the working file; with no target it behaves as FailDownload
func (d *Downloader) FinishDownload() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.finishLocked()
}

func (d *Downloader) finishLocked() {
	d.deregisterLocked()

	switch d.item.Status {
	case entity.StatusStopped, entity.StatusFailed:
		d.logger.Warn("ignoring finish, working file already removed", zap.Stringer("status", d.item.Status))
		return
	}

	if d.target == "" {
		d.logger.Warn("finish requested without target file")
		d.failLocked()
		return
	}

	d.item.Status = entity.StatusFinish
	if err := d.finalizeLocked(); err != nil {
		d.logger.Error("failed to finalize download", zap.String("target", d.target), zap.Error(err))
	} else {
		d.runFinishHooksLocked()
	}
	d.syncAndNotifyLocked()
	d.logger.Info("download finished", zap.String("file", d.target))
}

// ignoreLocked reports whether a cancel-like transition must be skipped on a completed item.
// A fail skipped here counts no try: the file is already in place and must not be removed.
func (d *Downloader) ignoreLocked(action string) bool {
	if !d.item.Status.IsCompleted() {
		return false
	}
	d.logger.Warn("ignoring transition on completed download",
		zap.String("action", action),
		zap.Stringer("status", d.item.Status))
	return true
}

func (d *Downloader) raiseFlagLocked() {
	d.stopped.Store(true)
	if d.cancel != nil {
		d.cancel()
	}
}

// deregisterLocked notifies the registry at most once per attempt
func (d *Downloader) deregisterLocked() {
	if d.deregistered {
		return
	}
	d.deregistered = true
	if d.deps.Registry != nil {
		d.deps.Registry.RemoveCurrentDownload(d.item)
	}
}

func (d *Downloader) syncAndNotifyLocked() {
	d.syncLocked()
	d.notifyLocked()
}

// syncLocked persists the item; failures are logged and kept for SyncError
func (d *Downloader) syncLocked() {
	d.syncErr = d.saveSyncWithPodcast()
	if d.syncErr != nil {
		d.logger.Error("failed to persist item",
			zap.Stringer("status", d.item.Status),
			zap.Error(d.syncErr))
	}
}

// saveSyncWithPodcast reloads the podcast so the saved association is never stale
func (d *Downloader) saveSyncWithPodcast() error {
	if d.deps.Repository == nil {
		return nil
	}

	podcastID := d.item.PodcastID
	if d.item.Podcast != nil {
		podcastID = d.item.Podcast.ID
	}

	podcast, err := d.deps.Repository.FindPodcastByID(d.persistCtx, podcastID)
	if err != nil {
		return NewDownloadErrorWithCause(ErrorPodcastNotFound, "failed to reload podcast", err).
			WithContext("podcast", podcastID.String())
	}

	d.item.Podcast = podcast
	d.item.PodcastID = podcast.ID
	if err := d.deps.Repository.SaveItem(d.persistCtx, d.item); err != nil {
		return NewDownloadErrorWithCause(ErrorPersistence, "failed to save item", err)
	}
	return nil
}

func (d *Downloader) notifyLocked() {
	if d.deps.Notifier == nil {
		return
	}
	d.deps.Notifier.Publish(TopicDownload, d.item.Snapshot())
}

func (d *Downloader) startTrackingLocked(ctx context.Context) {
	if d.deps.Reporter == nil {
		return
	}
	d.tracker = NewProgressTrackerWithInterval(d.deps.Reporter, d.logger, d.opts.ProgressInterval)
	if err := d.tracker.Start(ctx); err != nil {
		d.logger.Warn("failed to start progress tracking", zap.Error(err))
		d.tracker = nil
	}
}

func (d *Downloader) stopTracking() {
	d.mu.Lock()
	tracker := d.tracker
	d.tracker = nil
	d.mu.Unlock()

	if tracker != nil {
		tracker.Stop()
	}
}

// Progress records the bytes written so far and updates the item progression
func (d *Downloader) Progress(done, total int64) {
	d.mu.Lock()
	progress := Progress{BytesProcessed: done, TotalBytes: total}
	if elapsed := d.now().Sub(d.startedAt); elapsed > 0 {
		progress.Speed = int64(float64(done) / elapsed.Seconds())
	}
	if total > 0 {
		progress.Percentage = float64(done) * 100 / float64(total)
		if progress.Percentage > 100 {
			progress.Percentage = 100
		}
		d.item.Progression = int(progress.Percentage)
		if progress.Speed > 0 && total > done {
			progress.ETA = time.Duration(float64(total-done)/float64(progress.Speed)) * time.Second
		}
	}
	item := d.item.Snapshot()
	tracker := d.tracker
	d.mu.Unlock()

	if tracker != nil {
		tracker.UpdateProgress(item, progress)
	}
}

// Stopped reports whether the cancellation flag is raised
func (d *Downloader) Stopped() bool {
	return d.stopped.Load()
}

// Item returns a copy of the item
func (d *Downloader) Item() entity.Item {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.item.Snapshot()
}

// DownloadingItem returns a copy of the per-attempt wrapper
func (d *Downloader) DownloadingItem() entity.DownloadingItem {
	d.mu.Lock()
	defer d.mu.Unlock()
	item := d.item.Snapshot()
	return entity.DownloadingItem{
		Item:     &item,
		Filename: d.downloadingItem.Filename,
		URL:      d.downloadingItem.URL,
	}
}

// ItemURL returns the override URL if any, the item URL otherwise
func (d *Downloader) ItemURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.downloadingItem.URLOrDefault()
}

// URL implements Task
func (d *Downloader) URL() string {
	return d.ItemURL()
}

// SyncError returns the outcome of the last persistence attempt
func (d *Downloader) SyncError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.syncErr
}
