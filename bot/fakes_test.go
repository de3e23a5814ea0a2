package bot

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/gotd/td/tg"

	"github.com/1930s/Podcast-Server/entity"
)

// fakeAPI records every message sent or edited by the bot
type fakeAPI struct {
	mu      sync.RWMutex
	sent    []*tg.MessagesSendMessageRequest
	edited  []*tg.MessagesEditMessageRequest
	sendErr error
	nextID  int
}

func (f *fakeAPI) MessagesSendMessage(_ context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, request)
	f.nextID++
	return &tg.UpdateShortSentMessage{ID: f.nextID}, nil
}

func (f *fakeAPI) MessagesEditMessage(_ context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edited = append(f.edited, request)
	return &tg.Updates{}, nil
}

func (f *fakeAPI) sentTexts() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	texts := make([]string, len(f.sent))
	for i, request := range f.sent {
		texts[i] = request.Message
	}
	return texts
}

func (f *fakeAPI) editCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.edited)
}

// fakeController records manager calls and fails with err when set
type fakeController struct {
	mu          sync.Mutex
	calls       []string
	err         error
	downloading []entity.Item
	waiting     []entity.Item
	limit       int
}

func (f *fakeController) record(action string, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, action+" "+id.String())
	return f.err
}

func (f *fakeController) AddItemToQueue(_ context.Context, id uuid.UUID) error {
	return f.record("add", id)
}

func (f *fakeController) PauseDownload(id uuid.UUID) error   { return f.record("pause", id) }
func (f *fakeController) StopDownload(id uuid.UUID) error    { return f.record("stop", id) }
func (f *fakeController) RestartDownload(id uuid.UUID) error { return f.record("restart", id) }

func (f *fakeController) Downloading() []entity.Item { return f.downloading }
func (f *fakeController) Waiting() []entity.Item     { return f.waiting }
func (f *fakeController) Limit() int                 { return f.limit }

func (f *fakeController) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// panicHandler always panics
type panicHandler struct{}

func (panicHandler) Command() string { return "boom" }
func (panicHandler) Handle(context.Context, *CommandContext) error {
	panic(errors.New("boom"))
}

// recordingHandler captures the context it was called with
type recordingHandler struct {
	command     string
	err         error
	handleCalls int
	lastContext *CommandContext
}

func (m *recordingHandler) Handle(_ context.Context, cmdCtx *CommandContext) error {
	m.handleCalls++
	m.lastContext = cmdCtx
	return m.err
}

func (m *recordingHandler) Command() string {
	return m.command
}

func newTestItem(title string) entity.Item {
	podcast := entity.NewPodcast("Podcast", "http://example.com/feed", "RSS")
	return *entity.NewItem(podcast, title, "http://example.com/"+title+".mp3")
}

func commandUpdate(text string, chat tg.PeerClass) *tg.UpdateNewMessage {
	return &tg.UpdateNewMessage{
		Message: &tg.Message{
			ID:      7,
			Message: text,
			PeerID:  chat,
			FromID:  &tg.PeerUser{UserID: 12345},
		},
	}
}
