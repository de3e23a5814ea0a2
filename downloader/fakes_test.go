package downloader

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/1930s/Podcast-Server/entity"
)

// fakeRepository keeps podcasts in memory and records saved items
type fakeRepository struct {
	mu       sync.RWMutex
	podcasts map[uuid.UUID]*entity.Podcast
	saved    []entity.Item
	saveErr  error
}

func newFakeRepository(podcasts ...*entity.Podcast) *fakeRepository {
	r := &fakeRepository{podcasts: make(map[uuid.UUID]*entity.Podcast)}
	for _, p := range podcasts {
		r.podcasts[p.ID] = p
	}
	return r
}

func (r *fakeRepository) FindPodcastByID(_ context.Context, id uuid.UUID) (*entity.Podcast, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.podcasts[id]
	if !ok {
		return nil, errors.New("podcast not found")
	}
	c := *p
	return &c, nil
}

func (r *fakeRepository) SaveItem(_ context.Context, item *entity.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, item.Snapshot())
	return nil
}

func (r *fakeRepository) savedStatuses() []entity.Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	statuses := make([]entity.Status, len(r.saved))
	for i, item := range r.saved {
		statuses[i] = item.Status
	}
	return statuses
}

// fakeRegistry counts deregistrations per item
type fakeRegistry struct {
	mu      sync.Mutex
	removed map[uuid.UUID]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{removed: make(map[uuid.UUID]int)}
}

func (r *fakeRegistry) RemoveCurrentDownload(item *entity.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removed[item.ID]++
}

func (r *fakeRegistry) calls(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removed[id]
}

// fakeNotifier records published payloads
type fakeNotifier struct {
	mu       sync.Mutex
	messages []published
}

type published struct {
	Topic   string
	Payload any
}

func (n *fakeNotifier) Publish(topic string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, published{Topic: topic, Payload: payload})
}

func (n *fakeNotifier) statuses() []entity.Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	var statuses []entity.Status
	for _, m := range n.messages {
		if item, ok := m.Payload.(entity.Item); ok && m.Topic == TopicDownload {
			statuses = append(statuses, item.Status)
		}
	}
	return statuses
}

// fakeProber returns a fixed mime type and counts calls
type fakeProber struct {
	mu    sync.Mutex
	calls int
}

func (p *fakeProber) ProbeContentType(string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return "audio/mpeg"
}

func (p *fakeProber) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// transferFunc adapts a function to the Transfer interface
type transferFunc func(ctx context.Context, task Task) (int64, error)

func (f transferFunc) Transfer(ctx context.Context, task Task) (int64, error) {
	return f(ctx, task)
}

// namedTransfer also derives a file name
type namedTransfer struct {
	transferFunc
	name string
}

func (n namedTransfer) FileName(string) string {
	return n.name
}

// fakeHook records finish hook invocations
type fakeHook struct {
	mu    sync.Mutex
	paths []string
}

func (h *fakeHook) OnFinish(_ context.Context, _ entity.Item, path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paths = append(h.paths, path)
	return nil
}
