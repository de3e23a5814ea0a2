package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
	"github.com/1930s/Podcast-Server/notify"
)

// DefaultEditInterval throttles progress edits of a status message
const DefaultEditInterval = 10 * time.Second

// Subscriber is the hub side consumed by the notifier
type Subscriber interface {
	Subscribe(topic string, buffer int) (<-chan notify.Message, func())
}

type trackedMessage struct {
	status      entity.Status
	messageID   int
	progression int
	editedAt    time.Time
}

// StatusNotifier posts a message to one chat whenever a download changes status and
// keeps that message's progress bar current while the download runs
type StatusNotifier struct {
	api          TelegramAPI
	chatID       int64
	logger       *zap.Logger
	editInterval time.Duration
	now          func() time.Time

	mu      sync.Mutex
	tracked map[uuid.UUID]*trackedMessage
}

// NewStatusNotifier creates a notifier posting to chatID
func NewStatusNotifier(api TelegramAPI, chatID int64, logger *zap.Logger) *StatusNotifier {
	return &StatusNotifier{
		api:          api,
		chatID:       chatID,
		logger:       logger.Named("notifier"),
		editInterval: DefaultEditInterval,
		now:          time.Now,
		tracked:      make(map[uuid.UUID]*trackedMessage),
	}
}

// Run forwards download events until ctx is done or the hub closes the subscription
func (n *StatusNotifier) Run(ctx context.Context, hub Subscriber) error {
	messages, unsubscribe := hub.Subscribe(downloader.TopicDownload, notify.DefaultBuffer)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			item, ok := itemPayload(msg.Payload)
			if !ok {
				continue
			}
			if err := n.Handle(ctx, item); err != nil {
				n.logger.Warn("Failed to notify download status",
					zap.Stringer("item", item.ID), zap.Error(err))
			}
		}
	}
}

// Handle sends or edits the chat message for one item event
func (n *StatusNotifier) Handle(ctx context.Context, item entity.Item) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tracked, known := n.tracked[item.ID]
	text := statusMessage(item)

	switch {
	case !known || tracked.status != item.Status:
		messageID, err := sendMarkdown(sendCtx, n.api, n.chatID, text)
		if err != nil {
			return err
		}
		tracked = &trackedMessage{status: item.Status, messageID: messageID, progression: item.Progression, editedAt: n.now()}
		n.tracked[item.ID] = tracked

	case item.Status == entity.StatusStarted && item.Progression > tracked.progression &&
		tracked.messageID != 0 && n.now().Sub(tracked.editedAt) >= n.editInterval:
		if err := editMarkdown(sendCtx, n.api, n.chatID, tracked.messageID, text); err != nil {
			return err
		}
		tracked.progression = item.Progression
		tracked.editedAt = n.now()
	}

	if item.Status.IsTerminal() {
		delete(n.tracked, item.ID)
	}
	return nil
}

func itemPayload(payload any) (entity.Item, bool) {
	switch p := payload.(type) {
	case entity.Item:
		return p, true
	case *entity.Item:
		if p != nil {
			return *p, true
		}
	}
	return entity.Item{}, false
}

// statusMessage formats the chat message describing item
func statusMessage(item entity.Item) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "🎙 *%s*\n%s\n\n%s *%s*", item.PodcastTitle(), item.Title, statusEmoji(item.Status), item.Status)

	switch item.Status {
	case entity.StatusStarted:
		fmt.Fprintf(&builder, "\n%s %d%%", progressBar(item.Progression, 20), item.Progression)
	case entity.StatusFinish:
		fmt.Fprintf(&builder, "\n📦 %s", formatBytes(item.Length))
		if item.FileName != "" {
			fmt.Fprintf(&builder, "\n📁 `%s`", item.FileName)
		}
	case entity.StatusFailed:
		fmt.Fprintf(&builder, "\n🔁 Attempts: %d", item.NumberOfFail)
	}

	return builder.String()
}
