package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/d2chub/internal/catalog"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/models"
	"github.com/starford/d2chub/internal/testutil"
)

type recorder struct {
	mu      sync.Mutex
	changes []string
	rebuilt []Summary
	failed  []error
}

func (r *recorder) PublishChange(op, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, op+":"+path)
}

func (r *recorder) PublishRebuilt(summary any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rebuilt = append(r.rebuilt, summary.(Summary))
}

func (r *recorder) PublishFailed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

func (r *recorder) counts() (changes, rebuilt, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes), len(r.rebuilt), len(r.failed)
}

type fakeRebuilder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRebuilder) Rebuild(context.Context) (*catalog.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &catalog.Snapshot{Index: &models.SearchIndex{Items: []models.ContentItem{}}, Checksum: "sum"}, nil
}

func (f *fakeRebuilder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func start(t *testing.T, root string, r Rebuilder, n Notifier) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, r, Options{Root: root, Extension: "mdx", Debounce: 50 * time.Millisecond, Notifier: n, Logger: quietLogger()})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatch_DebouncedRebuild(t *testing.T) {
	root := t.TempDir()
	fr := &fakeRebuilder{}
	rec := &recorder{}
	start(t, root, fr, rec)

	for _, name := range []string{"a.mdx", "b.mdx", "c.mdx"} {
		_ = os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		_, rebuilt, _ := rec.counts()
		return rebuilt >= 1
	}, "no rebuild after writes")

	time.Sleep(200 * time.Millisecond)
	if n := fr.count(); n < 1 || n > 3 {
		t.Errorf("rebuilds = %d, want between 1 and 3", n)
	}
	if changes, _, _ := rec.counts(); changes < 3 {
		t.Errorf("change events = %d, want >= 3", changes)
	}
}

func TestWatch_IgnoresOtherExtensions(t *testing.T) {
	root := t.TempDir()
	fr := &fakeRebuilder{}
	start(t, root, fr, nil)

	_ = os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644)
	time.Sleep(300 * time.Millisecond)
	if n := fr.count(); n != 0 {
		t.Errorf("rebuilds = %d, want 0", n)
	}
}

func TestWatch_FailurePublished(t *testing.T) {
	root := t.TempDir()
	fr := &fakeRebuilder{err: errors.New("title: missing required field")}
	rec := &recorder{}
	start(t, root, fr, rec)

	_ = os.WriteFile(filepath.Join(root, "a.mdx"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		_, _, failed := rec.counts()
		return failed >= 1
	}, "failed rebuild not published")
}

func TestWatch_NewDirAndCatalog(t *testing.T) {
	root := t.TempDir()
	testutil.WriteContent(t, root, "a.mdx", testutil.Doc{Title: "A"})

	ix, err := content.New(content.Options{Root: root, Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(ix, catalog.Options{Logger: quietLogger()})
	if _, err := cat.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	start(t, root, cat, nil)

	if err := os.MkdirAll(filepath.Join(root, "deep"), 0o755); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	testutil.WriteContent(t, root, "deep/b.mdx", testutil.Doc{Title: "B"})

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		it, err := cat.Item("/deep/b")
		return err == nil && it.Title == "B"
	}, "file in new directory not picked up by rebuild")
}
