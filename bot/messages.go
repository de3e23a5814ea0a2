package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/gotd/td/tg"
)

// errNoAPI is returned when a message is sent before the client is connected
var errNoAPI = errors.New("bot client is not initialized")

// TelegramAPI defines the Telegram operations the bot needs
type TelegramAPI interface {
	MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error)
	MessagesEditMessage(ctx context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error)
}

// peerForChat maps a chat id to an input peer: positive ids are users, negative ids are groups
func peerForChat(chatID int64) tg.InputPeerClass {
	if chatID > 0 {
		return &tg.InputPeerUser{UserID: chatID}
	}
	return &tg.InputPeerChat{ChatID: -chatID}
}

// sendMarkdown sends a message using the lightweight *bold* and `code` markup and returns its id
func sendMarkdown(ctx context.Context, api TelegramAPI, chatID int64, markdown string) (int, error) {
	if api == nil {
		return 0, errNoAPI
	}

	text, entities := parseMarkdown(markdown)
	request := &tg.MessagesSendMessageRequest{
		Peer:     peerForChat(chatID),
		Message:  text,
		RandomID: time.Now().UnixNano(),
		Entities: entities,
	}

	updates, err := api.MessagesSendMessage(ctx, request)
	if err != nil {
		return 0, fmt.Errorf("failed to send message via Telegram API: %w", err)
	}
	return extractMessageID(updates), nil
}

// editMarkdown replaces the content of a message previously sent by the bot
func editMarkdown(ctx context.Context, api TelegramAPI, chatID int64, messageID int, markdown string) error {
	if api == nil {
		return errNoAPI
	}

	text, entities := parseMarkdown(markdown)
	request := &tg.MessagesEditMessageRequest{
		Peer:     peerForChat(chatID),
		ID:       messageID,
		Message:  text,
		Entities: entities,
	}

	if _, err := api.MessagesEditMessage(ctx, request); err != nil {
		return fmt.Errorf("failed to edit message via Telegram API: %w", err)
	}
	return nil
}

// extractMessageID extracts the message ID from Telegram API updates
func extractMessageID(updates tg.UpdatesClass) int {
	switch u := updates.(type) {
	case *tg.Updates:
		for _, update := range u.Updates {
			if msgUpdate, ok := update.(*tg.UpdateNewMessage); ok {
				if msg, ok := msgUpdate.Message.(*tg.Message); ok {
					return msg.ID
				}
			}
		}
	case *tg.UpdateShortSentMessage:
		return u.ID
	}
	return 0
}

// parseMarkdown strips the markup and returns the matching message entities.
// Entity offsets are counted in UTF-16 code units as Telegram expects.
func parseMarkdown(markdown string) (string, []tg.MessageEntityClass) {
	var (
		builder  strings.Builder
		entities []tg.MessageEntityClass
		offset   int
	)

	for i := 0; i < len(markdown); {
		char := markdown[i]
		if char == '*' || char == '`' {
			if end := strings.IndexByte(markdown[i+1:], char); end != -1 {
				inner := markdown[i+1 : i+1+end]
				length := utf16Len(inner)
				if char == '*' {
					entities = append(entities, &tg.MessageEntityBold{Offset: offset, Length: length})
				} else {
					entities = append(entities, &tg.MessageEntityCode{Offset: offset, Length: length})
				}
				builder.WriteString(inner)
				offset += length
				i += end + 2
				continue
			}
		}

		// copy one rune verbatim
		r, size := utf8.DecodeRuneInString(markdown[i:])
		builder.WriteString(markdown[i : i+size])
		offset += len(utf16.Encode([]rune{r}))
		i += size
	}

	return builder.String(), entities
}

func utf16Len(s string) int {
	return len(utf16.Encode([]rune(s)))
}


// progressBar renders a textual bar for a 0-100 percentage
func progressBar(percentage, length int) string {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}

	filled := percentage * length / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", length-filled)
}

// formatBytes formats byte count into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
