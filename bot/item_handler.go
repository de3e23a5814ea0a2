package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/entity"
)

// DownloadController is the part of the download manager driven by chat commands
type DownloadController interface {
	AddItemToQueue(ctx context.Context, id uuid.UUID) error
	PauseDownload(id uuid.UUID) error
	StopDownload(id uuid.UUID) error
	RestartDownload(id uuid.UUID) error
	Downloading() []entity.Item
	Waiting() []entity.Item
	Limit() int
}

// ItemHandler applies one manager action to the item named in the command arguments
type ItemHandler struct {
	command string
	done    string
	action  func(ctx context.Context, id uuid.UUID) error
	api     TelegramAPI
	logger  *zap.Logger
}

// NewItemHandlers returns the /download, /pause, /stop and /resume handlers
func NewItemHandlers(api TelegramAPI, logger *zap.Logger, controller DownloadController) []*ItemHandler {
	ignoreCtx := func(fn func(uuid.UUID) error) func(context.Context, uuid.UUID) error {
		return func(_ context.Context, id uuid.UUID) error { return fn(id) }
	}

	handlers := []*ItemHandler{
		{command: "download", done: "📥 Episode queued", action: controller.AddItemToQueue},
		{command: "pause", done: "⏸ Download paused", action: ignoreCtx(controller.PauseDownload)},
		{command: "stop", done: "⏹ Download stopped", action: ignoreCtx(controller.StopDownload)},
		{command: "resume", done: "▶️ Download resumed", action: ignoreCtx(controller.RestartDownload)},
	}
	for _, h := range handlers {
		h.api = api
		h.logger = logger
	}
	return handlers
}

// Command returns the command string this handler processes
func (h *ItemHandler) Command() string {
	return h.command
}

// Handle parses the item id, runs the action and confirms it in the chat
func (h *ItemHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	id, err := cmdCtx.ItemID()
	if err != nil {
		return err
	}

	if err := h.action(ctx, id); err != nil {
		return fmt.Errorf("/%s %s: %w", h.command, id, err)
	}
	h.logger.Info("Command applied", zap.String("command", h.command), zap.Stringer("item", id))

	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := sendMarkdown(timeoutCtx, h.api, cmdCtx.ChatID, fmt.Sprintf("%s\n`%s`", h.done, id)); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}
