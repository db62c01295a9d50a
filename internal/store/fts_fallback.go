//go:build !sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/d2chub/internal/models"
)

// FTS5 not compiled in; Search scans the items table with LIKE.
func initFTS(_ *sql.DB) error { return nil }

func ftsReset(_ context.Context, _ *sql.Tx) error { return nil }

func ftsInsert(_ context.Context, _ *sql.Tx, _ models.ContentItem) error { return nil }

// Search performs a LIKE-based search (fallback when FTS5 is not compiled in).
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, title, excerpt
		FROM items
		WHERE title LIKE ? OR description LIKE ? OR excerpt LIKE ?
		   OR path IN (SELECT path FROM item_facets WHERE kind = ? AND value LIKE ?)
		ORDER BY position
		LIMIT ?
	`, like, like, like, KindTag, like, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := []SearchResult{}
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
