// Package catalog owns the served search index: it rebuilds it from the
// content tree, writes the configured artifacts and answers queries against
// the latest good snapshot.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/starford/d2chub/internal/apperr"
	"github.com/starford/d2chub/internal/artifact"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/metrics"
	"github.com/starford/d2chub/internal/models"
	"github.com/starford/d2chub/internal/store"
)

// Builder produces a search index. *content.Indexer satisfies it.
type Builder interface {
	Build(ctx context.Context) (*models.SearchIndex, content.Stats, error)
	Document(route string) (*content.Document, error)
}

// Options configures a Catalog. Output, Store and Metrics are optional.
type Options struct {
	// Output is the JSON artifact path; empty skips the file.
	Output string
	// Store receives a full snapshot after every successful build.
	Store   *store.DB
	Metrics *metrics.Metrics
	// Timestamp stamps generatedAt on each built index.
	Timestamp    bool
	RelatedLimit int
	Logger       *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Snapshot is one successfully built index.
type Snapshot struct {
	Index    *models.SearchIndex `json:"-"`
	Checksum string              `json:"checksum"`
	Stats    content.Stats       `json:"stats"`
	BuiltAt  time.Time           `json:"builtAt"`

	byPath map[string]int
}

// Catalog serves queries from the most recent successful build.
type Catalog struct {
	builder Builder
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex // serialises Rebuild
	current atomic.Pointer[Snapshot]
}

// New creates a Catalog. Nothing is built until Rebuild is called.
func New(builder Builder, opts Options) *Catalog {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = content.DefaultRelatedLimit
	}
	return &Catalog{builder: builder, opts: opts, logger: opts.Logger}
}

// Rebuild runs a full build, writes artifacts and swaps in the new snapshot.
// On failure the previous snapshot keeps being served.
func (c *Catalog) Rebuild(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := c.opts.Now()
	snap, err := c.build(ctx)
	elapsed := c.opts.Now().Sub(start)

	if c.opts.Metrics != nil {
		items, skipped := 0, 0
		if snap != nil {
			items, skipped = len(snap.Index.Items), snap.Stats.Skipped
		}
		c.opts.Metrics.ObserveBuild(elapsed, err, items, skipped)
	}
	if err != nil {
		c.logger.Error("catalog: rebuild failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", elapsed))
		return nil, err
	}

	c.current.Store(snap)
	c.logger.Info("catalog: rebuilt",
		slog.Int("items", len(snap.Index.Items)),
		slog.Int("skipped", snap.Stats.Skipped),
		slog.String("checksum", snap.Checksum),
		slog.Duration("duration", elapsed))
	return snap, nil
}

func (c *Catalog) build(ctx context.Context) (*Snapshot, error) {
	idx, stats, err := c.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	if c.opts.Timestamp {
		idx = artifact.Stamp(idx, c.opts.Now())
	}

	// Encode and mirror before touching the artifact file, so a failed
	// rebuild leaves the previous file in place.
	data, err := artifact.Encode(idx)
	if err != nil {
		return nil, err
	}
	sum := artifact.Checksum(data)

	if c.opts.Store != nil {
		if err := c.opts.Store.Replace(ctx, idx); err != nil {
			return nil, fmt.Errorf("catalog: sqlite snapshot: %w", err)
		}
		n, err := c.opts.Store.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("catalog: sqlite snapshot: %w", err)
		}
		if n != len(idx.Items) {
			return nil, fmt.Errorf("catalog: sqlite snapshot holds %d items, want %d", n, len(idx.Items))
		}
		c.logger.Info("catalog: mirrored to sqlite", slog.Int("items", n))
	}

	if c.opts.Output != "" {
		w, err := artifact.Write(c.opts.Output, data)
		if err != nil {
			return nil, err
		}
		c.logger.Info("catalog: wrote index",
			slog.String("path", w.Path),
			slog.Int("bytes", w.Bytes))
	}

	byPath := make(map[string]int, len(idx.Items))
	for i, it := range idx.Items {
		byPath[it.Path] = i
	}
	return &Snapshot{
		Index:    idx,
		Checksum: sum,
		Stats:    stats,
		BuiltAt:  c.opts.Now(),
		byPath:   byPath,
	}, nil
}

// Snapshot returns the current snapshot or apperr.ErrNotReady.
func (c *Catalog) Snapshot() (*Snapshot, error) {
	snap := c.current.Load()
	if snap == nil {
		return nil, apperr.ErrNotReady
	}
	return snap, nil
}

// Index returns the current search index.
func (c *Catalog) Index() (*models.SearchIndex, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.Index, nil
}

// Item returns the item at route, e.g. "/frontend/cards".
func (c *Catalog) Item(route string) (models.ContentItem, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return models.ContentItem{}, err
	}
	return snap.Item(route)
}

// Item returns the item at route within this snapshot.
func (s *Snapshot) Item(route string) (models.ContentItem, error) {
	i, ok := s.byPath[normalizeRoute(route)]
	if !ok {
		return models.ContentItem{}, fmt.Errorf("catalog: %s: %w", route, apperr.ErrNotFound)
	}
	return s.Index.Items[i], nil
}

// Filter returns the items matching crit in index order.
func (c *Catalog) Filter(crit content.Criteria) ([]models.ContentItem, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return content.Filter(snap.Index.Items, crit), nil
}

// Related returns items related to the one at route. limit <= 0 uses the
// configured default.
func (c *Catalog) Related(route string, limit int) ([]models.ContentItem, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	target, err := snap.Item(route)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = c.opts.RelatedLimit
	}
	return content.Related(target, snap.Index.Items, limit), nil
}

// Facets returns the facet lists of the current index.
func (c *Catalog) Facets() (content.Facets, error) {
	idx, err := c.Index()
	if err != nil {
		return content.Facets{}, err
	}
	return content.Facets{
		Domains:    idx.Domains,
		Categories: idx.Categories,
		Tags:       idx.Tags,
		TechStacks: idx.TechStacks,
		Intents:    idx.Intents,
	}, nil
}

// Document reads the validated frontmatter and body at route from disk.
func (c *Catalog) Document(route string) (*content.Document, error) {
	return c.builder.Document(route)
}

func normalizeRoute(route string) string {
	if route == "" || route[0] != '/' {
		return "/" + route
	}
	return route
}
