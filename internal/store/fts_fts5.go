//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/starford/d2chub/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			path UNINDEXED,
			title,
			description,
			excerpt,
			tags,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsReset(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM items_fts`); err != nil {
		return fmt.Errorf("store: clear fts: %w", err)
	}
	return nil
}

func ftsInsert(ctx context.Context, tx *sql.Tx, it models.ContentItem) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO items_fts (path, title, description, excerpt, tags) VALUES (?, ?, ?, ?, ?)`,
		it.Path, it.Title, it.Description, it.Excerpt, strings.Join(it.Tags, " "))
	if err != nil {
		return fmt.Errorf("store: insert fts %s: %w", it.Path, err)
	}
	return nil
}

// matchQuery turns free text into an FTS5 query matching every term. Each
// term is quoted, so operators and punctuation are searched literally.
func matchQuery(q string) string {
	terms := strings.Fields(q)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

// Search performs an FTS5 full-text search and returns matching results with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	match := matchQuery(query)
	if match == "" {
		return []SearchResult{}, nil
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path,
		       title,
		       snippet(items_fts, 3, '<b>', '</b>', '...', 32)
		FROM items_fts
		WHERE items_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
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
