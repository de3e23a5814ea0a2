package cli

import (
	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/mimetype"
	"github.com/1930s/Podcast-Server/notify"
	"github.com/1930s/Podcast-Server/store"
	"github.com/1930s/Podcast-Server/transfer"
)

// newManager wires strategies, probing, tagging and storage around a download manager.
// A nil reporters factory publishes progress on the hub.
func (a *app) newManager(st store.Store, hub *notify.Hub, reporters manager.ReporterFactory) *manager.Manager {
	cfg := a.cfg

	client := transfer.NewClient(transfer.ClientOptions{
		Timeout:      cfg.HTTP.Timeout,
		RetryMax:     cfg.HTTP.RetryMax,
		RetryWaitMin: cfg.HTTP.RetryWaitMin,
		RetryWaitMax: cfg.HTTP.RetryWaitMax,
		UserAgent:    cfg.HTTP.UserAgent,
	}, a.logger)
	selector := transfer.NewSelector(client, a.logger)

	return manager.New(manager.Dependencies{
		Store:       st,
		Notifier:    hub,
		Prober:      mimetype.NewProber(a.logger),
		FinishHooks: []downloader.FinishHook{mimetype.NewTagger(a.logger)},
		Transfers:   selector.ForItem,
		Reporters:   reporters,
		Logger:      a.logger,
	}, manager.Options{
		Limit:         cfg.ConcurrentDownload,
		MaxQueueSize:  cfg.MaxQueueSize,
		DownloadSince: cfg.DownloadSince,
		MaxRetry:      cfg.NumberOfTry,
		Downloader: downloader.Options{
			RootFolder:         cfg.RootFolder,
			TemporaryExtension: cfg.DownloadExtension,
		},
	})
}
