package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/celestix/gotgproto"
	"github.com/celestix/gotgproto/dispatcher/handlers"
	"github.com/celestix/gotgproto/dispatcher/handlers/filters"
	"github.com/celestix/gotgproto/ext"
	"github.com/celestix/gotgproto/sessionMaker"
	"github.com/glebarez/sqlite"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/1930s/Podcast-Server/config"
)

// TelegramBot wraps the gotgproto client and routes incoming commands
type TelegramBot struct {
	mu     sync.RWMutex
	client *gotgproto.Client
	logger *zap.Logger
	config config.TelegramConfig
	router *CommandRouter
	ctx    context.Context
	cancel context.CancelFunc
}

// NewTelegramBot creates a new TelegramBot instance; the client connects on Start
func NewTelegramBot(cfg config.TelegramConfig, logger *zap.Logger) (*TelegramBot, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telegram bot token is not configured")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	logger = logger.Named("bot")
	bot := &TelegramBot{
		config: cfg,
		logger: logger,
		router: NewCommandRouter(logger),
	}
	bot.router.SetErrorHandler(NewErrorHandler(logger, bot))
	return bot, nil
}

// Start logs the bot in and begins dispatching messages; commands run under ctx
func (b *TelegramBot) Start(ctx context.Context) error {
	b.logger.Info("Starting Telegram bot")

	clientOpts := &gotgproto.ClientOpts{
		Session: sessionMaker.SqlSession(sqlite.Open(b.config.SessionPath)),
		Logger:  b.logger.Named("gotgproto"),
	}

	client, err := gotgproto.NewClient(b.config.APIID, b.config.APIHash, gotgproto.ClientTypeBot(b.config.BotToken), clientOpts)
	if err != nil {
		return fmt.Errorf("failed to create gotgproto client: %w", err)
	}

	b.mu.Lock()
	b.client = client
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	client.Dispatcher.AddHandler(handlers.NewMessage(filters.Message.Text, b.onMessage))

	go func() {
		if err := client.Idle(); err != nil {
			b.logger.Warn("Telegram client stopped", zap.Error(err))
		}
	}()

	b.logger.Info("Telegram bot started", zap.String("username", client.Self.Username))
	return nil
}

// onMessage hands every text message to the router
func (b *TelegramBot) onMessage(_ *ext.Context, u *ext.Update) error {
	msg := u.EffectiveMessage
	if msg == nil || msg.Message == nil {
		return nil
	}

	b.mu.RLock()
	ctx := b.ctx
	b.mu.RUnlock()

	if err := b.router.RouteCommand(ctx, &tg.UpdateNewMessage{Message: msg.Message}); err != nil {
		b.logger.Warn("Failed to route message", zap.Error(err))
	}
	return nil
}

// Stop gracefully shuts down the bot
func (b *TelegramBot) Stop() {
	b.mu.Lock()
	client, cancel := b.client, b.cancel
	b.client = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if client != nil {
		client.Stop()
	}
	b.logger.Info("Telegram bot stopped")
}

// IsRunning returns true if the bot is currently connected
func (b *TelegramBot) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.client != nil && b.ctx.Err() == nil
}

// MessagesSendMessage sends through the connected client
func (b *TelegramBot) MessagesSendMessage(ctx context.Context, request *tg.MessagesSendMessageRequest) (tg.UpdatesClass, error) {
	api, err := b.api()
	if err != nil {
		return nil, err
	}
	return api.MessagesSendMessage(ctx, request)
}

// MessagesEditMessage edits through the connected client
func (b *TelegramBot) MessagesEditMessage(ctx context.Context, request *tg.MessagesEditMessageRequest) (tg.UpdatesClass, error) {
	api, err := b.api()
	if err != nil {
		return nil, err
	}
	return api.MessagesEditMessage(ctx, request)
}

func (b *TelegramBot) api() (*tg.Client, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.client == nil {
		return nil, errNoAPI
	}
	return b.client.API(), nil
}

// RegisterCommandHandler registers a command handler with the bot's router
func (b *TelegramBot) RegisterCommandHandler(handler CommandHandler) {
	b.router.RegisterHandler(handler)
}

// Router returns the command router
func (b *TelegramBot) Router() *CommandRouter {
	return b.router
}

// RegisterControlHandlers wires every download command against controller
func (b *TelegramBot) RegisterControlHandlers(controller DownloadController) {
	b.RegisterCommandHandler(NewHelpHandler(b, b.logger))
	b.RegisterCommandHandler(NewQueueHandler(b, b.logger, controller))
	for _, handler := range NewItemHandlers(b, b.logger, controller) {
		b.RegisterCommandHandler(handler)
	}
}
