// Package content discovers content files, validates their frontmatter and
// aggregates them into a search index.
package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/starford/d2chub/internal/apperr"
	"github.com/starford/d2chub/internal/models"
	"github.com/starford/d2chub/internal/parser"
	"github.com/starford/d2chub/internal/schema"
	"github.com/starford/d2chub/internal/storage"
)

// DefaultExtension is the content file extension used when none is configured.
const DefaultExtension = ".mdx"

// Options configures an Indexer.
type Options struct {
	// Root is the content directory.
	Root string
	// Extension selects content files; defaults to DefaultExtension.
	Extension string
	// Parser splits files into frontmatter and body; defaults to parser.Matter.
	Parser parser.Parser
	// Strict aborts the scan on the first invalid file. Otherwise invalid
	// files are logged and skipped.
	Strict bool
	// Workers bounds concurrent parse/validate; values below 1 mean 1.
	Workers int
	// ExcerptLength caps excerpts; defaults to DefaultExcerptLength.
	ExcerptLength int
	Logger        *slog.Logger
}

// Stats summarises one scan.
type Stats struct {
	Files   int `json:"files"`
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// Document is a validated content file with its raw body.
type Document struct {
	Frontmatter models.ContentFrontmatter
	Body        string
}

// Indexer scans a content tree. It holds no mutable state between calls.
type Indexer struct {
	store  storage.Provider
	parser parser.Parser
	ext    string
	opts   Options
	logger *slog.Logger
}

// New creates an Indexer over the directory opts.Root, which must exist.
func New(opts Options) (*Indexer, error) {
	ext := opts.Extension
	if ext == "" {
		ext = DefaultExtension
	}
	store, err := storage.NewFS(opts.Root, ext)
	if err != nil {
		return nil, fmt.Errorf("content: open root %s: %w", opts.Root, err)
	}
	return NewWithProvider(store, opts), nil
}

// NewWithProvider creates an Indexer reading through store.
func NewWithProvider(store storage.Provider, opts Options) *Indexer {
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if !strings.HasPrefix(opts.Extension, ".") {
		opts.Extension = "." + opts.Extension
	}
	if opts.Parser == nil {
		opts.Parser = parser.Matter{}
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.ExcerptLength <= 0 {
		opts.ExcerptLength = DefaultExcerptLength
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{
		store:  store,
		parser: opts.Parser,
		ext:    opts.Extension,
		opts:   opts,
		logger: logger,
	}
}

// Root returns the absolute content directory.
func (ix *Indexer) Root() string { return ix.store.Root() }

// Scan reads, parses and validates every content file. Items come back in
// walk order. In strict mode the first failure aborts the scan; otherwise
// failing files are logged and counted in Stats.Skipped.
func (ix *Indexer) Scan(ctx context.Context) ([]models.ContentItem, Stats, error) {
	entries, err := ix.store.List()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("content: scan %s: %w", ix.store.Root(), err)
	}
	stats := Stats{Files: len(entries)}

	type result struct {
		item *models.ContentItem
		err  error
	}
	results := make([]result, len(entries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(ix.opts.Workers)
	for i, e := range entries {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			item, err := ix.readItem(e.Path)
			if err != nil {
				ix.logger.Error("index: invalid content",
					slog.String("path", ix.fullPath(e.Path)),
					slog.String("error", err.Error()))
				if ix.opts.Strict {
					return err
				}
			}
			results[i] = result{item: item, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	items := make([]models.ContentItem, 0, len(entries))
	owners := make(map[string]string, len(entries))
	for i, r := range results {
		if r.err != nil {
			stats.Skipped++
			continue
		}
		if prev, dup := owners[r.item.Path]; dup {
			err := fmt.Errorf("content: %w: %s and %s both map to %s",
				apperr.ErrPathConflict, prev, ix.fullPath(entries[i].Path), r.item.Path)
			ix.logger.Error("index: path conflict",
				slog.String("path", ix.fullPath(entries[i].Path)),
				slog.String("error", err.Error()))
			if ix.opts.Strict {
				return nil, stats, err
			}
			stats.Skipped++
			continue
		}
		owners[r.item.Path] = ix.fullPath(entries[i].Path)
		items = append(items, *r.item)
	}
	stats.Indexed = len(items)
	return items, stats, nil
}

// Build scans the tree and aggregates the result into a SearchIndex.
func (ix *Indexer) Build(ctx context.Context) (*models.SearchIndex, Stats, error) {
	items, stats, err := ix.Scan(ctx)
	if err != nil {
		return nil, stats, err
	}
	return Aggregate(items), stats, nil
}

// Document returns the validated frontmatter and raw body at route.
func (ix *Indexer) Document(route string) (*Document, error) {
	rel, err := ix.relFromRoute(route)
	if err != nil {
		return nil, err
	}
	doc, err := ix.parse(rel)
	if err != nil {
		return nil, err
	}
	fm, err := schema.Validate(doc.Frontmatter, ix.fullPath(rel))
	if err != nil {
		return nil, err
	}
	return &Document{Frontmatter: fm, Body: doc.Body}, nil
}

func (ix *Indexer) relFromRoute(route string) (string, error) {
	rel := strings.Trim(route, "/")
	if rel == "" {
		return "", fmt.Errorf("content: empty route: %w", apperr.ErrNotFound)
	}
	return rel + ix.ext, nil
}

func (ix *Indexer) fullPath(rel string) string {
	return filepath.Join(ix.store.Root(), filepath.FromSlash(rel))
}

func (ix *Indexer) parse(rel string) (*parser.Document, error) {
	data, err := ix.store.Read(rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("content: %s: %w", ix.fullPath(rel), apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("content: read %s: %w", ix.fullPath(rel), err)
	}
	doc, err := ix.parser.Parse(data)
	if err != nil {
		return nil, &schema.ValidationError{File: ix.fullPath(rel), Reason: err.Error()}
	}
	return doc, nil
}

func (ix *Indexer) readItem(rel string) (*models.ContentItem, error) {
	doc, err := ix.parse(rel)
	if err != nil {
		return nil, err
	}
	fm, err := schema.Validate(doc.Frontmatter, ix.fullPath(rel))
	if err != nil {
		return nil, err
	}
	return &models.ContentItem{
		ContentFrontmatter: fm,
		Slug:               Slug(rel, ix.ext),
		Path:               RoutePath(rel, ix.ext),
		Excerpt:            Excerpt(doc.Body, ix.opts.ExcerptLength),
		ReadingTime:        ReadingTime(doc.Body),
	}, nil
}

// Aggregate sorts items by updated date, newest first, keeping scan order
// among equal dates, and collects the facet lists. Facets are gathered in
// scan order before sorting.
func Aggregate(items []models.ContentItem) *models.SearchIndex {
	facets := CollectFacets(items)

	sorted := slices.Clone(items)
	if sorted == nil {
		sorted = []models.ContentItem{}
	}
	// YYYY-MM-DD compares chronologically as a string.
	slices.SortStableFunc(sorted, func(a, b models.ContentItem) int {
		return strings.Compare(b.Updated, a.Updated)
	})

	return &models.SearchIndex{
		Items:      sorted,
		Domains:    facets.Domains,
		Categories: facets.Categories,
		Tags:       facets.Tags,
		TechStacks: facets.TechStacks,
		Intents:    facets.Intents,
	}
}
