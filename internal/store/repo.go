package store

import (
	"context"
	"fmt"

	"github.com/starford/d2chub/internal/models"
)

// SearchResult is one full-text hit.
type SearchResult struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Replace swaps the stored snapshot for idx in a single transaction.
func (db *DB) Replace(ctx context.Context, idx *models.SearchIndex) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, q := range []string{`DELETE FROM item_facets`, `DELETE FROM items`} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("store: clear: %w", err)
		}
	}
	if err := ftsReset(ctx, tx); err != nil {
		return err
	}

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO items (path, position, slug, title, description, domain, category, updated, excerpt, reading_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare item insert: %w", err)
	}
	defer itemStmt.Close()

	facetStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO item_facets (path, kind, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare facet insert: %w", err)
	}
	defer facetStmt.Close()

	for i, it := range idx.Items {
		if _, err := itemStmt.ExecContext(ctx, it.Path, i, it.Slug, it.Title, it.Description,
			string(it.Domain), it.Category, it.Updated, it.Excerpt, it.ReadingTime); err != nil {
			return fmt.Errorf("store: insert %s: %w", it.Path, err)
		}
		for kind, values := range itemFacets(it) {
			for _, v := range values {
				if _, err := facetStmt.ExecContext(ctx, it.Path, kind, v); err != nil {
					return fmt.Errorf("store: insert facet %s: %w", it.Path, err)
				}
			}
		}
		if err := ftsInsert(ctx, tx, it); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func itemFacets(it models.ContentItem) map[string][]string {
	return map[string][]string{
		KindDomain:   {string(it.Domain)},
		KindCategory: {it.Category},
		KindTag:      it.Tags,
		KindTech:     it.Tech,
		KindIntent:   it.Intent,
	}
}

// Count returns the number of stored items.
func (db *DB) Count(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}
