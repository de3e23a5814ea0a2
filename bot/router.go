package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gotd/td/tg"
	"go.uber.org/zap"
)

// CommandRouter handles routing of commands to their respective handlers
type CommandRouter struct {
	handlers     map[string]CommandHandler
	logger       *zap.Logger
	errorHandler *ErrorHandler
}

// NewCommandRouter creates a new command router instance
func NewCommandRouter(logger *zap.Logger) *CommandRouter {
	return &CommandRouter{
		handlers: make(map[string]CommandHandler),
		logger:   logger,
	}
}

// SetErrorHandler sets the error handler for the router
func (r *CommandRouter) SetErrorHandler(errorHandler *ErrorHandler) {
	r.errorHandler = errorHandler
}

// RegisterHandler registers a command handler for a specific command
func (r *CommandRouter) RegisterHandler(handler CommandHandler) {
	command := handler.Command()
	r.handlers[command] = handler
	r.logger.Debug("Registered command handler", zap.String("command", command))
}

// RouteCommand processes an incoming message and routes it to the appropriate handler
func (r *CommandRouter) RouteCommand(ctx context.Context, update *tg.UpdateNewMessage) error {
	cmdCtx, err := r.extractCommandContext(update)
	if err != nil {
		return fmt.Errorf("failed to extract command context: %w", err)
	}

	// plain text
	if cmdCtx.Command == "" {
		return nil
	}

	handler, exists := r.handlers[cmdCtx.Command]
	if !exists {
		r.logger.Debug("No handler found for command", zap.String("command", cmdCtx.Command))
		return nil
	}

	r.logger.Info("Routing command",
		zap.String("command", cmdCtx.Command),
		zap.Int64("user", cmdCtx.UserID),
		zap.Int64("chat", cmdCtx.ChatID))

	if r.errorHandler != nil {
		defer r.errorHandler.RecoverFromPanic()
	}

	if err := handler.Handle(ctx, cmdCtx); err != nil {
		if r.errorHandler != nil {
			r.errorHandler.HandleCommandError(ctx, err, cmdCtx)
			return nil
		}
		return fmt.Errorf("handler failed for command /%s: %w", cmdCtx.Command, err)
	}

	return nil
}

// extractCommandContext extracts command context information from a Telegram update
func (r *CommandRouter) extractCommandContext(update *tg.UpdateNewMessage) (*CommandContext, error) {
	if update == nil {
		return nil, fmt.Errorf("update is nil")
	}
	message, ok := update.Message.(*tg.Message)
	if !ok {
		return nil, fmt.Errorf("update does not contain a message")
	}

	cmdCtx := &CommandContext{
		Update:    update,
		MessageID: message.ID,
		Timestamp: time.Now(),
	}

	text := strings.TrimSpace(message.Message)
	if !strings.HasPrefix(text, "/") {
		return cmdCtx, nil
	}

	parts := strings.SplitN(text[1:], " ", 2)
	// "/pause@my_bot" addresses a bot explicitly in groups
	command, _, _ := strings.Cut(parts[0], "@")
	cmdCtx.Command = strings.ToLower(command)
	if len(parts) > 1 {
		cmdCtx.Args = strings.TrimSpace(parts[1])
	}

	if fromUser, ok := message.FromID.(*tg.PeerUser); ok {
		cmdCtx.UserID = fromUser.UserID
	}

	switch peer := message.PeerID.(type) {
	case *tg.PeerUser:
		cmdCtx.ChatID = peer.UserID
	case *tg.PeerChat:
		cmdCtx.ChatID = -peer.ChatID
	case *tg.PeerChannel:
		cmdCtx.ChatID = -peer.ChannelID
	}

	return cmdCtx, nil
}

// RegisteredCommands returns the sorted list of registered commands
func (r *CommandRouter) RegisteredCommands() []string {
	commands := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		commands = append(commands, command)
	}
	sort.Strings(commands)
	return commands
}

// HasHandler returns true if a handler is registered for the given command
func (r *CommandRouter) HasHandler(command string) bool {
	_, exists := r.handlers[command]
	return exists
}
