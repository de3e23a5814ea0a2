package bot

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const helpMessage = `*Available Commands*

/help - Show this help message
/queue - Show running and waiting downloads
/download <item-id> - Queue an episode for download
/pause <item-id> - Pause a running download
/stop <item-id> - Stop a download and discard its file
/resume <item-id> - Resume a paused download

*Example*
` + "`/download 1b4e28ba-2fa1-11d2-883f-0016d3cca427`"

// HelpHandler implements CommandHandler for the /help command
type HelpHandler struct {
	api    TelegramAPI
	logger *zap.Logger
}

// NewHelpHandler creates a new HelpHandler instance
func NewHelpHandler(api TelegramAPI, logger *zap.Logger) *HelpHandler {
	return &HelpHandler{
		api:    api,
		logger: logger,
	}
}

// Command returns the command string this handler processes
func (h *HelpHandler) Command() string {
	return "help"
}

// Handle sends the command list
func (h *HelpHandler) Handle(ctx context.Context, cmdCtx *CommandContext) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := sendMarkdown(timeoutCtx, h.api, cmdCtx.ChatID, helpMessage); err != nil {
		return fmt.Errorf("failed to send help message: %w", err)
	}

	h.logger.Debug("Sent help message", zap.Int64("chat", cmdCtx.ChatID))
	return nil
}
