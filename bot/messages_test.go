package bot

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestParseMarkdown(t *testing.T) {
	text, entities := parseMarkdown("🎙 *Bold* and `code` done")

	if text != "🎙 Bold and code done" {
		t.Errorf("Unexpected text: %q", text)
	}
	if len(entities) != 2 {
		t.Fatalf("Expected 2 entities, got %d", len(entities))
	}

	// the microphone emoji counts as two UTF-16 units
	bold, ok := entities[0].(*tg.MessageEntityBold)
	if !ok || bold.Offset != 3 || bold.Length != 4 {
		t.Errorf("Unexpected bold entity: %#v", entities[0])
	}
	code, ok := entities[1].(*tg.MessageEntityCode)
	if !ok || code.Offset != 12 || code.Length != 4 {
		t.Errorf("Unexpected code entity: %#v", entities[1])
	}
}

func TestParseMarkdown_UnclosedMarker(t *testing.T) {
	text, entities := parseMarkdown("2 * 3")
	if text != "2 * 3" || len(entities) != 0 {
		t.Errorf("Expected unclosed marker to be kept, got %q %v", text, entities)
	}
}

func TestPeerForChat(t *testing.T) {
	if peer, ok := peerForChat(42).(*tg.InputPeerUser); !ok || peer.UserID != 42 {
		t.Errorf("Expected user peer, got %#v", peerForChat(42))
	}
	if peer, ok := peerForChat(-42).(*tg.InputPeerChat); !ok || peer.ChatID != 42 {
		t.Errorf("Expected chat peer, got %#v", peerForChat(-42))
	}
}

func TestExtractMessageID(t *testing.T) {
	tests := []struct {
		name     string
		updates  tg.UpdatesClass
		expected int
	}{
		{name: "short sent", updates: &tg.UpdateShortSentMessage{ID: 9}, expected: 9},
		{name: "updates", updates: &tg.Updates{Updates: []tg.UpdateClass{
			&tg.UpdateNewMessage{Message: &tg.Message{ID: 11}},
		}}, expected: 11},
		{name: "unknown", updates: &tg.UpdatesTooLong{}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractMessageID(tt.updates); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, got, tt.expected)
		}
	}
}

func TestProgressBar(t *testing.T) {
	if got := progressBar(50, 4); got != "██░░" {
		t.Errorf("Unexpected bar %q", got)
	}
	if got := progressBar(150, 2); got != "██" {
		t.Errorf("Expected clamped bar, got %q", got)
	}
	if got := progressBar(-5, 2); got != "░░" {
		t.Errorf("Expected empty bar, got %q", got)
	}
}
