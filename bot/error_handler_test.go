package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/store"
)

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		expected  string
	}{
		{ErrorTypeNetwork, "NETWORK"},
		{ErrorTypeCommand, "COMMAND"},
		{ErrorTypeRuntime, "RUNTIME"},
		{ErrorType(999), "UNKNOWN"},
	}

	for _, test := range tests {
		if result := test.errorType.String(); result != test.expected {
			t.Errorf("ErrorType.String() = %s, expected %s", result, test.expected)
		}
	}
}

func TestHandleCommandError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	api := &fakeAPI{}
	handler := NewErrorHandler(zap.New(core), api)

	cmdCtx := &CommandContext{UserID: 12345, ChatID: 67890, Command: "pause"}
	handler.HandleCommandError(context.Background(), fmt.Errorf("pause: %w", manager.ErrNotDownloading), cmdCtx)

	entries := logs.FilterMessage("Command processing error occurred").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["command"] != "pause" || fields["chat"] != int64(67890) {
		t.Errorf("Unexpected log fields: %v", fields)
	}
	if fields["correlation"] == "" {
		t.Error("Log should contain correlation ID")
	}

	texts := api.sentTexts()
	if len(texts) != 1 || !strings.Contains(texts[0], "not currently downloading") || !strings.Contains(texts[0], "Error ID") {
		t.Errorf("Unexpected user message: %v", texts)
	}
}

func TestHandleCommandError_SendFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewErrorHandler(zap.New(core), &fakeAPI{sendErr: errors.New("flood wait")})

	handler.HandleCommandError(context.Background(), errors.New("boom"), &CommandContext{ChatID: 1, Command: "stop"})

	if logs.FilterMessage("Failed to send error message to user").Len() != 1 {
		t.Error("Expected the send failure to be logged")
	}
}

func TestHandleRuntimeError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := NewErrorHandler(zap.New(core), nil)

	handler.HandleRuntimeError(errors.New("test runtime error"))

	entries := logs.FilterMessage("Runtime error occurred").All()
	if len(entries) != 1 {
		t.Fatalf("Expected one log entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("Expected error level, got %s", entries[0].Level)
	}
	if entries[0].ContextMap()["type"] != "RUNTIME" {
		t.Errorf("Expected RUNTIME type, got %v", entries[0].ContextMap()["type"])
	}
}

func TestUserMessage(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), nil)
	correlationID := "1234567890abcdef"

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "item not found", err: store.ErrItemNotFound, expected: "No episode matches"},
		{name: "already queued", err: manager.ErrAlreadyQueued, expected: "already queued"},
		{name: "queue full", err: manager.ErrQueueFull, expected: "queue is full"},
		{name: "bad argument", err: fmt.Errorf("%w: missing item id", ErrInvalidArgument), expected: "missing item id"},
		{name: "network", err: errors.New("connection refused"), expected: "trouble reaching"},
		{name: "generic", err: errors.New("boom"), expected: "Something went wrong"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message := handler.userMessage(tt.err, correlationID)
			if !strings.Contains(message, tt.expected) {
				t.Errorf("Expected message to contain %q, got %q", tt.expected, message)
			}
			if !strings.Contains(message, "12345678") {
				t.Errorf("Expected shortened correlation id in %q", message)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	handler := NewErrorHandler(zap.NewNop(), nil)

	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil", err: nil, expected: false},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, expected: true},
		{name: "deadline", err: context.DeadlineExceeded, expected: true},
		{name: "keyword", err: errors.New("TLS handshake failure"), expected: true},
		{name: "other", err: errors.New("invalid item"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := handler.IsNetworkError(tt.err); got != tt.expected {
				t.Errorf("IsNetworkError(%v) = %v, expected %v", tt.err, got, tt.expected)
			}
		})
	}
}
