// Package manager schedules downloads: a waiting queue feeding a bounded set of running downloaders.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
	"github.com/1930s/Podcast-Server/store"
)

// TopicWaiting is the broadcast topic receiving the waiting queue after every change
const TopicWaiting = "/topic/waiting"

// DefaultLimit is the number of parallel downloads when none is configured
const DefaultLimit = 3

var (
	// ErrAlreadyQueued is returned when an item is already waiting or downloading
	ErrAlreadyQueued = errors.New("item already queued")
	// ErrQueueFull is returned when the waiting queue reached its maximum size
	ErrQueueFull = errors.New("waiting queue is full")
	// ErrNotDownloading is returned when no running download matches the item
	ErrNotDownloading = errors.New("item is not downloading")
	// ErrNotWaiting is returned when the item is not in the waiting queue
	ErrNotWaiting = errors.New("item is not waiting")
	// ErrInvalidTransition is returned when the download status does not allow the requested action
	ErrInvalidTransition = errors.New("invalid download transition")
)

// TransferFactory picks the strategy for a download
type TransferFactory func(di *entity.DownloadingItem) downloader.Transfer

// ReporterFactory creates the progress reporter of one download, nil disables reporting
type ReporterFactory func(item entity.Item) downloader.ProgressReporter

// Options configures scheduling and storage
type Options struct {
	Limit         int
	MaxQueueSize  int
	DownloadSince time.Duration
	MaxRetry      int
	Downloader    downloader.Options
}

// Dependencies are the collaborators shared by every download
type Dependencies struct {
	Store       store.Store
	Notifier    downloader.Notifier
	Prober      downloader.MimeProber
	FinishHooks []downloader.FinishHook
	Transfers   TransferFactory
	Reporters   ReporterFactory
	Logger      *zap.Logger
}

// Manager implements downloader.Registry
type Manager struct {
	mu          sync.Mutex
	waiting     []*entity.DownloadingItem
	downloading map[uuid.UUID]*downloader.Downloader
	limit       int

	ctx    context.Context
	group  errgroup.Group
	deps   Dependencies
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

// New creates a manager with an empty queue
func New(deps Dependencies, opts Options) *Manager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if deps.Reporters == nil && deps.Notifier != nil {
		reporter := downloader.NewTopicProgressReporter(deps.Notifier)
		deps.Reporters = func(entity.Item) downloader.ProgressReporter { return reporter }
	}

	return &Manager{
		downloading: make(map[uuid.UUID]*downloader.Downloader),
		limit:       opts.Limit,
		ctx:         context.Background(),
		deps:        deps,
		opts:        opts,
		logger:      deps.Logger.Named("manager"),
		now:         time.Now,
	}
}

// AddItemToQueue loads the item from the store and enqueues it
func (m *Manager) AddItemToQueue(ctx context.Context, id uuid.UUID) error {
	item, err := m.deps.Store.FindItemByID(ctx, id)
	if err != nil {
		return err
	}
	return m.Enqueue(entity.NewDownloadingItem(item))
}

// Enqueue appends a download to the waiting queue and launches it when a slot is free
func (m *Manager) Enqueue(di *entity.DownloadingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := di.Item.ID
	if _, ok := m.downloading[id]; ok || m.waitingIndexLocked(id) >= 0 {
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, id)
	}
	if m.opts.MaxQueueSize > 0 && len(m.waiting) >= m.opts.MaxQueueSize {
		return fmt.Errorf("%w (max %d items)", ErrQueueFull, m.opts.MaxQueueSize)
	}

	m.waiting = append(m.waiting, di)
	m.logger.Info("item added to queue",
		zap.String("item", id.String()),
		zap.String("title", di.Item.Title),
		zap.Int("position", len(m.waiting)))

	m.launchNextLocked()
	m.publishWaitingLocked()
	return nil
}

// LaunchDownload enqueues every item the store considers due and returns how many were added
func (m *Manager) LaunchDownload(ctx context.Context) (int, error) {
	since := m.now().Add(-m.opts.DownloadSince)
	items, err := m.deps.Store.FindAllToDownload(ctx, since, m.opts.MaxRetry)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, item := range items {
		err := m.Enqueue(entity.NewDownloadingItem(item))
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrAlreadyQueued):
		default:
			return added, err
		}
	}
	m.logger.Info("download launched", zap.Int("found", len(items)), zap.Int("added", added))
	return added, nil
}

// RemoveItemFromQueue drops a waiting item; with stopItem it is also persisted as STOPPED
func (m *Manager) RemoveItemFromQueue(ctx context.Context, id uuid.UUID, stopItem bool) error {
	m.mu.Lock()
	idx := m.waitingIndexLocked(id)
	if idx < 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotWaiting, id)
	}
	di := m.waiting[idx]
	m.waiting = append(m.waiting[:idx], m.waiting[idx+1:]...)
	m.publishWaitingLocked()
	m.mu.Unlock()

	m.logger.Info("item removed from queue", zap.String("item", id.String()))

	if !stopItem {
		return nil
	}
	di.Item.Status = entity.StatusStopped
	return m.deps.Store.SaveItem(ctx, di.Item)
}

// MoveItemInQueue moves a waiting item to the given zero-based position
func (m *Manager) MoveItemInQueue(id uuid.UUID, position int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.waitingIndexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotWaiting, id)
	}
	if position < 0 {
		position = 0
	}
	if position >= len(m.waiting) {
		position = len(m.waiting) - 1
	}

	di := m.waiting[idx]
	m.waiting = append(m.waiting[:idx], m.waiting[idx+1:]...)
	m.waiting = append(m.waiting[:position], append([]*entity.DownloadingItem{di}, m.waiting[position:]...)...)
	m.publishWaitingLocked()
	return nil
}

// StopDownload stops a running download
func (m *Manager) StopDownload(id uuid.UUID) error {
	d, err := m.get(id)
	if err != nil {
		return err
	}
	d.StopDownload()
	return nil
}

// PauseDownload pauses a running download; it keeps its slot
func (m *Manager) PauseDownload(id uuid.UUID) error {
	d, err := m.get(id)
	if err != nil {
		return err
	}
	d.PauseDownload()
	return nil
}

// RestartDownload resumes a paused download
func (m *Manager) RestartDownload(id uuid.UUID) error {
	d, err := m.get(id)
	if err != nil {
		return err
	}
	if !d.Resume() {
		return fmt.Errorf("%w: cannot restart %s download %s", ErrInvalidTransition, d.Item().Status, id)
	}
	m.run(d)
	return nil
}

// ToggleDownload pauses a started download and restarts a paused one
func (m *Manager) ToggleDownload(id uuid.UUID) error {
	d, err := m.get(id)
	if err != nil {
		return err
	}
	if d.Resume() {
		m.run(d)
		return nil
	}
	if status := d.Item().Status; status != entity.StatusStarted {
		return fmt.Errorf("%w: cannot toggle %s download %s", ErrInvalidTransition, status, id)
	}
	d.PauseDownload()
	return nil
}

// StopAllDownload empties the waiting queue and stops every running download
func (m *Manager) StopAllDownload() {
	m.mu.Lock()
	m.waiting = nil
	m.publishWaitingLocked()
	m.mu.Unlock()

	for _, d := range m.running() {
		d.StopDownload()
	}
}

// PauseAllDownload pauses every started download
func (m *Manager) PauseAllDownload() {
	for _, d := range m.running() {
		if d.Item().Status == entity.StatusStarted {
			d.PauseDownload()
		}
	}
}

// RestartAllDownload resumes every paused download
func (m *Manager) RestartAllDownload() {
	for _, d := range m.running() {
		if d.Resume() {
			m.run(d)
		}
	}
}

// RemoveCurrentDownload implements downloader.Registry and hands the freed slot to the next waiting item
func (m *Manager) RemoveCurrentDownload(item *entity.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.downloading, item.ID)
	m.logger.Debug("download removed", zap.String("item", item.ID.String()))

	if m.launchNextLocked() {
		m.publishWaitingLocked()
	}
}

// SetLimitParallelDownload changes the number of parallel downloads
func (m *Manager) SetLimitParallelDownload(limit int) {
	if limit <= 0 {
		limit = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.limit = limit
	if m.launchNextLocked() {
		m.publishWaitingLocked()
	}
}

// Limit returns the number of parallel downloads
func (m *Manager) Limit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit
}

// Downloading returns a copy of the items holding a download slot
func (m *Manager) Downloading() []entity.Item {
	running := m.running()
	items := make([]entity.Item, 0, len(running))
	for _, d := range running {
		items = append(items, d.Item())
	}
	return items
}

// Waiting returns a copy of the waiting queue, in order
func (m *Manager) Waiting() []entity.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitingItemsLocked()
}

// IsInDownloadingQueue reports whether the item holds a download slot
func (m *Manager) IsInDownloadingQueue(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.downloading[id]
	return ok
}

// IsInWaitingQueue reports whether the item is waiting
func (m *Manager) IsInWaitingQueue(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waitingIndexLocked(id) >= 0
}

// Wait blocks until no download goroutine is running
func (m *Manager) Wait() error {
	return m.group.Wait()
}

// Shutdown empties the waiting queue, pauses running downloads and waits for their goroutines
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.waiting = nil
	m.mu.Unlock()

	m.PauseAllDownload()

	done := make(chan error, 1)
	go func() { done <- m.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launchNextLocked starts waiting downloads while slots are free, reporting whether the queue changed
func (m *Manager) launchNextLocked() bool {
	launched := false
	for len(m.downloading) < m.limit && len(m.waiting) > 0 {
		di := m.waiting[0]
		m.waiting = m.waiting[1:]

		d := m.newDownloader(di)
		m.downloading[di.Item.ID] = d
		m.run(d)
		launched = true
	}
	return launched
}

func (m *Manager) newDownloader(di *entity.DownloadingItem) *downloader.Downloader {
	deps := downloader.Dependencies{
		Notifier:    m.deps.Notifier,
		Prober:      m.deps.Prober,
		FinishHooks: m.deps.FinishHooks,
		Logger:      m.deps.Logger,
	}
	if m.deps.Store != nil {
		deps.Repository = m.deps.Store
	}
	if m.deps.Reporters != nil {
		deps.Reporter = m.deps.Reporters(di.Item.Snapshot())
	}

	d := downloader.New(di, m.deps.Transfers(di), deps, m.opts.Downloader)
	d.SetRegistry(m)
	return d
}

func (m *Manager) run(d *downloader.Downloader) {
	m.group.Go(func() error {
		d.Run(m.ctx)
		return nil
	})
}

func (m *Manager) get(id uuid.UUID) (*downloader.Downloader, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.downloading[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotDownloading, id)
	}
	return d, nil
}

// running copies the downloaders so they can be called without holding mu
func (m *Manager) running() []*downloader.Downloader {
	m.mu.Lock()
	defer m.mu.Unlock()

	running := make([]*downloader.Downloader, 0, len(m.downloading))
	for _, d := range m.downloading {
		running = append(running, d)
	}
	return running
}

func (m *Manager) waitingIndexLocked(id uuid.UUID) int {
	for i, di := range m.waiting {
		if di.Item.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) waitingItemsLocked() []entity.Item {
	items := make([]entity.Item, len(m.waiting))
	for i, di := range m.waiting {
		items[i] = di.Item.Snapshot()
	}
	return items
}

func (m *Manager) publishWaitingLocked() {
	if m.deps.Notifier == nil {
		return
	}
	m.deps.Notifier.Publish(TopicWaiting, m.waitingItemsLocked())
}
