package store

import (
	"context"
	"os"
	"slices"
	"testing"

	"github.com/starford/d2chub/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "d2chub-store-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleIndex() *models.SearchIndex {
	mk := func(path, title, category, updated string, tags []string) models.ContentItem {
		return models.ContentItem{
			ContentFrontmatter: models.ContentFrontmatter{
				Title:       title,
				Description: title + " description",
				Domain:      models.DomainFrontend,
				Category:    category,
				Updated:     updated,
				Tags:        tags,
				Tech:        []string{"react"},
				Intent:      []string{},
				DesignIntent: models.DesignIntent{
					Goal: "goal", Constraints: []string{}, Variations: []string{},
				},
				TailwindTokens: map[string]any{"spacing": "p-4"},
			},
			Slug:        path[1:],
			Path:        path,
			Excerpt:     "Excerpt of " + title,
			ReadingTime: 1,
		}
	}
	return &models.SearchIndex{
		Items: []models.ContentItem{
			mk("/forms", "Forms", "input", "2024-03-01", []string{"ui"}),
			mk("/cards", "Cards", "layout", "2024-01-01", []string{"grid", "ui"}),
		},
		Domains:    []models.Domain{models.DomainFrontend},
		Categories: []string{"layout", "input"},
		Tags:       []string{"grid", "ui"},
		TechStacks: []string{"react"},
		Intents:    []string{},
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	for _, table := range []string{"items", "item_facets"} {
		var count int
		if err := db.conn.QueryRow(`SELECT count(*) FROM ` + table).Scan(&count); err != nil {
			t.Fatalf("%s table missing: %v", table, err)
		}
	}
}

func TestReplace(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Replace(ctx, sampleIndex()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	n, err := db.Count(ctx)
	if err != nil || n != 2 {
		t.Fatalf("Count = %d, %v; want 2", n, err)
	}
	var title string
	var position int
	if err := db.conn.QueryRow(`SELECT title, position FROM items WHERE path = ?`, "/cards").Scan(&title, &position); err != nil {
		t.Fatal(err)
	}
	if title != "Cards" || position != 1 {
		t.Errorf("row = %q at %d, want Cards at 1", title, position)
	}

	var tags []string
	rows, err := db.conn.Query(`SELECT value FROM item_facets WHERE path = ? AND kind = ? ORDER BY value`, "/cards", KindTag)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			t.Fatal(err)
		}
		tags = append(tags, v)
	}
	if !slices.Equal(tags, []string{"grid", "ui"}) {
		t.Errorf("tags = %v, want [grid ui]", tags)
	}
}

func TestReplace_DropsPreviousSnapshot(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Replace(ctx, sampleIndex()); err != nil {
		t.Fatal(err)
	}
	next := sampleIndex()
	next.Items = next.Items[:1]
	if err := db.Replace(ctx, next); err != nil {
		t.Fatal(err)
	}

	if n, _ := db.Count(ctx); n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
	results, err := db.Search(ctx, "Cards", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("stale item still searchable: %+v", results)
	}
	var facets int
	if err := db.conn.QueryRow(`SELECT count(*) FROM item_facets WHERE path = ?`, "/cards").Scan(&facets); err != nil {
		t.Fatal(err)
	}
	if facets != 0 {
		t.Errorf("stale facets = %d, want 0", facets)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	if err := db.Replace(ctx, sampleIndex()); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search(ctx, "Cards", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "/cards" {
		t.Errorf("search results = %+v, want 1 hit for /cards", results)
	}
}

func TestReplace_CanceledContext(t *testing.T) {
	db := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := db.Replace(ctx, sampleIndex()); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if n, _ := db.Count(context.Background()); n != 0 {
		t.Errorf("Count = %d after failed replace, want 0", n)
	}
}
