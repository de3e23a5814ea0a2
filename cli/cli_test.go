package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1930s/Podcast-Server/downloader"
	"github.com/1930s/Podcast-Server/entity"
	"github.com/1930s/Podcast-Server/store"
)

const episodeBody = "ID3 not really an mp3 but long enough to be written in one go"

type env struct {
	root       string
	dbPath     string
	configPath string
	server     *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/missing") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		fmt.Fprint(w, episodeBody)
	}))
	t.Cleanup(server.Close)

	e := &env{
		root:       filepath.Join(dir, "podcasts"),
		dbPath:     filepath.Join(dir, "podcast.db"),
		configPath: filepath.Join(dir, "config.yaml"),
		server:     server,
	}

	config := fmt.Sprintf(`root_folder: %s
database_path: %s
log_level: ERROR
download_since: 24h
number_of_try: 3
http:
  timeout: 5s
  retry_max: 0
  retry_wait_min: 10ms
  retry_wait_max: 10ms
`, e.root, e.dbPath)
	if err := os.WriteFile(e.configPath, []byte(config), 0o644); err != nil {
		t.Fatal(err)
	}
	return e
}

// seed stores a podcast with one item per path
func (e *env) seed(t *testing.T, paths ...string) []*entity.Item {
	t.Helper()
	st, err := store.Open(e.dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	podcast := entity.NewPodcast("Show", "http://example.com/feed", "RSS")
	if err := st.SavePodcast(ctx, podcast); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	items := make([]*entity.Item, 0, len(paths))
	for _, path := range paths {
		item := entity.NewItem(podcast, strings.TrimPrefix(path, "/"), e.server.URL+path)
		item.PubDate = &now
		if err := st.SaveItem(ctx, item); err != nil {
			t.Fatal(err)
		}
		items = append(items, item)
	}
	return items
}

func (e *env) item(t *testing.T, item *entity.Item) *entity.Item {
	t.Helper()
	st, err := store.Open(e.dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	got, err := st.FindItemByID(context.Background(), item.ID)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFetch_GivenItem(t *testing.T) {
	e := newEnv(t)
	items := e.seed(t, "/one.mp3", "/two.mp3")

	out, err := run(t, "--config", e.configPath, "fetch", items[0].ID.String())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(e.root, "Show", "one.mp3"))
	if err != nil {
		t.Fatalf("expected downloaded file: %v", err)
	}
	if string(data) != episodeBody {
		t.Errorf("unexpected content %q", data)
	}

	got := e.item(t, items[0])
	if got.Status != entity.StatusFinish || got.Length != int64(len(episodeBody)) || got.FileName != "one.mp3" {
		t.Errorf("unexpected stored item %+v", got)
	}
	if other := e.item(t, items[1]); other.Status != entity.StatusNotDownloaded {
		t.Errorf("expected the other item to be left alone, got %s", other.Status)
	}
	if !strings.Contains(out, "FINISH") || !strings.Contains(out, "one.mp3") {
		t.Errorf("expected a summary line, got %q", out)
	}
}

func TestFetch_DueItems(t *testing.T) {
	e := newEnv(t)
	items := e.seed(t, "/one.mp3", "/missing.mp3")

	out, err := run(t, "--config", e.configPath, "fetch")
	if err == nil || !strings.Contains(err.Error(), "1 download(s) did not finish") {
		t.Fatalf("expected one unfinished download, got %v", err)
	}

	if got := e.item(t, items[0]); got.Status != entity.StatusFinish {
		t.Errorf("expected FINISH, got %s", got.Status)
	}
	failed := e.item(t, items[1])
	if failed.Status != entity.StatusFailed || failed.NumberOfFail != 1 {
		t.Errorf("expected one failed attempt, got %s (%d)", failed.Status, failed.NumberOfFail)
	}
	if _, err := os.Stat(filepath.Join(e.root, "Show", "missing.mp3"+".psdownload")); !os.IsNotExist(err) {
		t.Errorf("expected the working file of a failed download to be removed, got %v", err)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("expected the failure in the summary, got %q", out)
	}
}

func TestFetch_InvalidArguments(t *testing.T) {
	e := newEnv(t)

	if _, err := run(t, "--config", e.configPath, "fetch", "not-an-id"); err == nil {
		t.Error("expected an error for a malformed id")
	}
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	e := newEnv(t)

	if _, err := run(t, "--config", e.configPath, "--log-level", "chatty", "fetch"); err == nil || !strings.Contains(err.Error(), "--log-level") {
		t.Errorf("expected a log level error, got %v", err)
	}
}

func TestBarReporter(t *testing.T) {
	var out bytes.Buffer
	item := entity.NewItem(entity.NewPodcast("Show", "", "RSS"), "Episode", "http://example.com/e.mp3")
	reporter := newBarReporter(&out, *item)

	if reporter.title != "Show - Episode" {
		t.Errorf("unexpected title %q", reporter.title)
	}

	if err := reporter.UpdateProgress(*item, downloader.Progress{BytesProcessed: 10, TotalBytes: 100}); err != nil {
		t.Fatal(err)
	}
	if err := reporter.UpdateProgress(*item, downloader.Progress{BytesProcessed: 50, TotalBytes: 200}); err != nil {
		t.Fatal(err)
	}
	if got := reporter.bar.GetMax64(); got != 200 {
		t.Errorf("expected max to follow the total, got %d", got)
	}

	reporter.Stop()
	if reporter.bar != nil {
		t.Error("expected the bar to be released on stop")
	}

	// unknown totals draw a spinner
	if err := reporter.UpdateProgress(*item, downloader.Progress{BytesProcessed: 5}); err != nil {
		t.Fatal(err)
	}
	reporter.Stop()

	if out.Len() == 0 {
		t.Error("expected the bar to be rendered")
	}
}
