package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gotd/td/tg"
)

// ErrInvalidArgument marks a malformed command argument
var ErrInvalidArgument = errors.New("invalid argument")

// CommandHandler defines the interface for handling bot commands
type CommandHandler interface {
	// Handle processes a command with the given context
	Handle(ctx context.Context, cmdCtx *CommandContext) error
	// Command returns the command string this handler processes (e.g., "help", "pause")
	Command() string
}

// CommandContext provides context information for command processing
type CommandContext struct {
	// Update contains the original Telegram update
	Update *tg.UpdateNewMessage
	// UserID is the ID of the user who sent the command
	UserID int64
	// ChatID is the ID of the chat where the command was sent
	ChatID int64
	// MessageID is the ID of the message containing the command
	MessageID int
	// Command is the command string without the leading slash or bot mention
	Command string
	// Args contains command arguments (text after the command)
	Args string
	// Timestamp is when the command was received
	Timestamp time.Time
}

// ItemID parses the first argument as an item identifier
func (c *CommandContext) ItemID() (uuid.UUID, error) {
	fields := strings.Fields(c.Args)
	if len(fields) == 0 {
		return uuid.Nil, fmt.Errorf("%w: missing item id, usage: /%s <item-id>", ErrInvalidArgument, c.Command)
	}
	id, err := uuid.Parse(fields[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q is not an item id", ErrInvalidArgument, fields[0])
	}
	return id, nil
}
