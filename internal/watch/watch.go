// Package watch rebuilds the catalog when the content tree changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/d2chub/internal/catalog"
)

// DefaultDebounce is the quiet period after the last change before a rebuild.
const DefaultDebounce = 200 * time.Millisecond

// Rebuilder runs a full index build. *catalog.Catalog satisfies it.
type Rebuilder interface {
	Rebuild(ctx context.Context) (*catalog.Snapshot, error)
}

// Notifier receives change and rebuild events. *sse.Broker satisfies it.
type Notifier interface {
	PublishChange(op, path string)
	PublishRebuilt(summary any)
	PublishFailed(err error)
}

// Summary is the payload announced after a successful rebuild.
type Summary struct {
	Items    int    `json:"items"`
	Skipped  int    `json:"skipped"`
	Checksum string `json:"checksum"`
}

// Options configures Watch.
type Options struct {
	Root      string
	Extension string
	Debounce  time.Duration
	Notifier  Notifier
	Logger    *slog.Logger
}

// Watch starts an fsnotify watcher on opts.Root and triggers a full rebuild
// once changes to content files settle. It blocks until ctx is cancelled.
// New directories created at runtime are added to the watch list.
func Watch(ctx context.Context, r Rebuilder, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ext := opts.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, opts.Root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", opts.Root))

	var timer *time.Timer
	var timerC <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerC = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerC:
			rebuild(ctx, r, opts.Notifier, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					// Files may have landed before the watch was added.
					schedule()
					continue
				}
			}

			// Removed directories carry no extension and still count.
			if ext != "" && !strings.HasSuffix(ev.Name, ext) && filepath.Ext(ev.Name) != "" {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}

			rel, relErr := filepath.Rel(opts.Root, ev.Name)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", opName(ev.Op)))
			if opts.Notifier != nil {
				opts.Notifier.PublishChange(opName(ev.Op), rel)
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func rebuild(ctx context.Context, r Rebuilder, n Notifier, logger *slog.Logger) {
	snap, err := r.Rebuild(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		if n != nil {
			n.PublishFailed(err)
		}
		return
	}
	logger.Debug("watcher: rebuilt", slog.Int("items", len(snap.Index.Items)))
	if n != nil {
		n.PublishRebuilt(Summary{
			Items:    len(snap.Index.Items),
			Skipped:  snap.Stats.Skipped,
			Checksum: snap.Checksum,
		})
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	default:
		return "chmod"
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
