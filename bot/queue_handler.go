package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
)

// maxListedWaiting bounds the waiting list printed by /queue
const maxListedWaiting = 10

// QueueHandler implements CommandHandler for the /queue command
type QueueHandler struct {
	api        TelegramAPI
	logger     *zap.Logger
	controller DownloadController
}

// NewQueueHandler creates a new QueueHandler instance
func NewQueueHandler(api TelegramAPI, logger *zap.Logger, controller DownloadController) *QueueHandler {
	return &QueueHandler{
		api:        api,
		logger:     logger,
		controller: controller,
	}
}

// Command returns the command string this handler processes
func (h *QueueHandler) Command() string {
	return "queue"
}

// Handle processes the /queue command and shows current queue status
func (h *QueueHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	message := queueStatusMessage(h.controller.Downloading(), h.controller.Waiting(), h.controller.Limit())
	if _, err := sendMarkdown(timeoutCtx, h.api, cmdCtx.ChatID, message); err != nil {
		return fmt.Errorf("failed to send queue status: %w", err)
	}

	h.logger.Debug("Sent queue status", zap.Int64("chat", cmdCtx.ChatID))
	return nil
}

// queueStatusMessage creates a formatted queue status message
func queueStatusMessage(downloading, waiting []entity.Item, limit int) string {
	var builder strings.Builder

	builder.WriteString("📊 *Download Queue*\n\n")
	fmt.Fprintf(&builder, "*Downloading:* %d/%d\n", len(downloading), limit)
	for _, item := range downloading {
		fmt.Fprintf(&builder, "%s %s - %s\n%s %d%%\n`%s`\n",
			statusEmoji(item.Status), item.PodcastTitle(), item.Title,
			progressBar(item.Progression, 10), item.Progression, item.ID)
	}

	fmt.Fprintf(&builder, "\n*Waiting:* %d\n", len(waiting))
	for i, item := range waiting {
		if i == maxListedWaiting {
			fmt.Fprintf(&builder, "... and %d more\n", len(waiting)-maxListedWaiting)
			break
		}
		fmt.Fprintf(&builder, "%d. %s - %s\n", i+1, item.PodcastTitle(), item.Title)
	}

	return builder.String()
}

func statusEmoji(status entity.Status) string {
	switch status {
	case entity.StatusStarted:
		return "⬇️"
	case entity.StatusPaused:
		return "⏸"
	case entity.StatusStopped:
		return "⏹"
	case entity.StatusFailed:
		return "❌"
	case entity.StatusFinish:
		return "✅"
	default:
		return "🎙"
	}
}
