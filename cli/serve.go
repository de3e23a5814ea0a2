package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/1930s/Podcast-Server/api"
	"github.com/1930s/Podcast-Server/bot"
	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/notify"
	"github.com/1930s/Podcast-Server/store"
)

// shutdownTimeout bounds the wait for running downloads to pause
const shutdownTimeout = 30 * time.Second

type serveOptions struct {
	launch   bool
	relaunch time.Duration
}

func newServeCmd(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the download manager with its HTTP API and optional Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.launch, "launch", true, "enqueue every due item on startup")
	cmd.Flags().DurationVar(&opts.relaunch, "relaunch-every", 0, "enqueue due items periodically (0 disables)")

	return cmd
}

func (a *app) serve(ctx context.Context, opts *serveOptions) error {
	logger := a.logger

	st, err := store.Open(a.cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := notify.NewHub(logger)
	defer hub.Close()

	mgr := a.newManager(st, hub, nil)

	g, gctx := errgroup.WithContext(ctx)

	if a.cfg.Telegram.Enabled() {
		if err := a.startBot(gctx, g, mgr, hub); err != nil {
			return err
		}
	}

	handlers := api.NewHandlers(mgr, st, hub, logger)
	server := api.NewServer(a.cfg.ListenAddress, api.NewRouter(handlers), logger)
	g.Go(func() error { return server.Run(gctx) })

	if opts.launch {
		a.launch(gctx, mgr)
	}
	if opts.relaunch > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(opts.relaunch)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					a.launch(gctx, mgr)
				}
			}
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down, pausing running downloads")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		return mgr.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// startBot connects the Telegram bot, registers its commands and forwards status changes
func (a *app) startBot(ctx context.Context, g *errgroup.Group, mgr *manager.Manager, hub *notify.Hub) error {
	telegram, err := bot.NewTelegramBot(a.cfg.Telegram, a.logger)
	if err != nil {
		return err
	}
	telegram.RegisterControlHandlers(mgr)

	if err := telegram.Start(ctx); err != nil {
		return err
	}

	if chatID := a.cfg.Telegram.NotifyChatID; chatID != 0 {
		notifier := bot.NewStatusNotifier(telegram, chatID, a.logger)
		g.Go(func() error { return notifier.Run(ctx, hub) })
	}

	g.Go(func() error {
		<-ctx.Done()
		telegram.Stop()
		return nil
	})
	return nil
}

func (a *app) launch(ctx context.Context, mgr *manager.Manager) {
	added, err := mgr.LaunchDownload(ctx)
	if err != nil {
		a.logger.Error("Failed to launch due downloads", zap.Error(err))
		return
	}
	a.logger.Info("Due downloads enqueued", zap.Int("added", added))
}
