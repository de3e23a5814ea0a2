package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
	"github.com/1930s/Podcast-Server/manager"
	"github.com/1930s/Podcast-Server/notify"
	"github.com/1930s/Podcast-Server/store"
)

// summaryBuffer is large enough to keep every status change of a fetch run
const summaryBuffer = 256

func newFetchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [item-id...]",
		Short: "Download the given items, or every due item, then exit",
		Args: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if _, err := uuid.Parse(arg); err != nil {
					return fmt.Errorf("invalid item id %q: %w", arg, err)
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.fetch(ctx, args, cmd.ErrOrStderr(), cmd.OutOrStdout())
		},
	}
	return cmd
}

func (a *app) fetch(ctx context.Context, args []string, progressOut, summaryOut io.Writer) error {
	st, err := store.Open(a.cfg.DatabasePath, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := notify.NewHub(a.logger)
	defer hub.Close()

	summary := newFetchSummary(hub)
	mgr := a.newManager(st, hub, func(item entity.Item) downloader.ProgressReporter {
		return newBarReporter(progressOut, item)
	})

	if err := enqueue(ctx, mgr, args); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- mgr.Wait() }()

	select {
	case err = <-done:
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		err = mgr.Shutdown(shutdownCtx)
		cancel()
	}

	hub.Close()
	if unfinished := summary.print(summaryOut); err == nil && unfinished > 0 {
		err = fmt.Errorf("%d download(s) did not finish", unfinished)
	}
	return err
}

func enqueue(ctx context.Context, mgr *manager.Manager, args []string) error {
	if len(args) == 0 {
		_, err := mgr.LaunchDownload(ctx)
		return err
	}
	for _, arg := range args {
		if err := mgr.AddItemToQueue(ctx, uuid.MustParse(arg)); err != nil {
			return fmt.Errorf("item %s: %w", arg, err)
		}
	}
	return nil
}

// fetchSummary remembers the last status of every item seen on the hub
type fetchSummary struct {
	mu    sync.Mutex
	items map[uuid.UUID]entity.Item
	done  chan struct{}
}

func newFetchSummary(hub *notify.Hub) *fetchSummary {
	s := &fetchSummary{items: make(map[uuid.UUID]entity.Item), done: make(chan struct{})}
	messages, _ := hub.Subscribe(downloader.TopicDownload, summaryBuffer)

	go func() {
		defer close(s.done)
		for msg := range messages {
			if item, ok := msg.Payload.(entity.Item); ok {
				s.mu.Lock()
				s.items[item.ID] = item
				s.mu.Unlock()
			}
		}
	}()
	return s
}

// print waits for the hub to be closed, writes one line per item and returns how many did not finish
func (s *fetchSummary) print(out io.Writer) int {
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entity.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Title < items[j].Title })

	unfinished := 0
	for _, item := range items {
		if item.Status != entity.StatusFinish {
			unfinished++
		}
		fmt.Fprintf(out, "%-8s %s - %s %s\n", item.Status, item.PodcastTitle(), item.Title, item.FileName)
	}
	return unfinished
}
