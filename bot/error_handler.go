package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/store"
)

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrorTypeNetwork ErrorType = iota
	ErrorTypeCommand
	ErrorTypeRuntime
)

// String returns the string representation of ErrorType
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNetwork:
		return "NETWORK"
	case ErrorTypeCommand:
		return "COMMAND"
	case ErrorTypeRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// ErrorHandler logs command failures and answers the user with a readable message
type ErrorHandler struct {
	logger *zap.Logger
	api    TelegramAPI
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(logger *zap.Logger, api TelegramAPI) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
		api:    api,
	}
}

// HandleCommandError handles command processing errors
func (e *ErrorHandler) HandleCommandError(ctx context.Context, err error, cmdCtx *CommandContext) {
	correlationID := uuid.NewString()
	errorType := ErrorTypeCommand
	if e.IsNetworkError(err) {
		errorType = ErrorTypeNetwork
	}

	e.logger.Warn("Command processing error occurred",
		zap.Stringer("type", errorType),
		zap.String("command", cmdCtx.Command),
		zap.Int64("user", cmdCtx.UserID),
		zap.Int64("chat", cmdCtx.ChatID),
		zap.String("correlation", correlationID),
		zap.Error(err))

	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, sendErr := sendMarkdown(sendCtx, e.api, cmdCtx.ChatID, e.userMessage(err, correlationID)); sendErr != nil {
		e.logger.Error("Failed to send error message to user",
			zap.Int64("chat", cmdCtx.ChatID),
			zap.String("correlation", correlationID),
			zap.Error(sendErr))
	}
}

// HandleRuntimeError handles unexpected runtime errors; the bot keeps serving other users
func (e *ErrorHandler) HandleRuntimeError(err error) {
	e.logger.Error("Runtime error occurred",
		zap.Stringer("type", ErrorTypeRuntime),
		zap.String("correlation", uuid.NewString()),
		zap.Error(err))
}

// userMessage creates a user-friendly error message
func (e *ErrorHandler) userMessage(err error, correlationID string) string {
	var message string

	switch {
	case errors.Is(err, store.ErrItemNotFound):
		message = "🔍 No episode matches this id."
	case errors.Is(err, manager.ErrAlreadyQueued):
		message = "📋 This episode is already queued or downloading."
	case errors.Is(err, manager.ErrQueueFull):
		message = "🚦 The waiting queue is full. Please try again later."
	case errors.Is(err, manager.ErrNotDownloading):
		message = "⏸ This episode is not currently downloading."
	case errors.Is(err, ErrInvalidArgument):
		message = "❌ " + err.Error()
	case e.IsNetworkError(err):
		message = "🌐 I'm having trouble reaching the server. Please try again in a moment."
	default:
		message = "❌ Something went wrong while processing your request. Please try again."
	}

	return message + fmt.Sprintf("\n\n🔧 Error ID: `%s`", correlationID[:8])
}

// IsNetworkError checks if an error is network-related
func (e *ErrorHandler) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errorMsg := strings.ToLower(err.Error())
	for _, keyword := range []string{"connection", "timeout", "network", "dns", "tls"} {
		if strings.Contains(errorMsg, keyword) {
			return true
		}
	}
	return false
}

// RecoverFromPanic recovers from panics and logs them as runtime errors; it must be deferred directly
func (e *ErrorHandler) RecoverFromPanic() {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", r)
		}
		e.HandleRuntimeError(fmt.Errorf("recovered from panic: %w", err))
	}
}
