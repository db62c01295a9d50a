// Package testutil provides shared test helpers for content trees and snapshot databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/starford/d2chub/internal/store"
)

// Doc describes one content file. Zero fields get valid defaults.
type Doc struct {
	Title       string
	Description string
	Domain      string
	Category    string
	Updated     string
	Tech        []string
	Intent      []string
	Tags        []string
	Body        string
}

type header struct {
	Title          string            `yaml:"title"`
	Description    string            `yaml:"description"`
	Domain         string            `yaml:"domain"`
	Tech           []string          `yaml:"tech"`
	Intent         []string          `yaml:"intent"`
	Category       string            `yaml:"category"`
	Tags           []string          `yaml:"tags"`
	Updated        string            `yaml:"updated"`
	DesignIntent   designIntent      `yaml:"design_intent"`
	ReactPatterns  []string          `yaml:"react_patterns"`
	TailwindTokens map[string]string `yaml:"tailwind_tokens"`
	NextFeatures   []string          `yaml:"next_features"`
	TSTypes        []string          `yaml:"ts_types"`
	AIPrompt       string            `yaml:"ai_prompt"`
	Links          []link            `yaml:"links"`
}

type designIntent struct {
	Goal        string   `yaml:"goal"`
	Constraints []string `yaml:"constraints"`
	Variations  []string `yaml:"variations"`
}

type link struct {
	Label string `yaml:"label"`
	URL   string `yaml:"url"`
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// MDX renders s as a content file with a YAML frontmatter block.
func (s Doc) MDX() string {
	h := header{
		Title:       orDefault(s.Title, "Untitled"),
		Description: orDefault(s.Description, "A pattern"),
		Domain:      orDefault(s.Domain, "frontend"),
		Tech:        nonNil(s.Tech),
		Intent:      nonNil(s.Intent),
		Category:    orDefault(s.Category, "misc"),
		Tags:        nonNil(s.Tags),
		Updated:     orDefault(s.Updated, "2024-01-01"),
		DesignIntent: designIntent{
			Goal:        "Explain the pattern",
			Constraints: []string{"accessible"},
			Variations:  []string{},
		},
		ReactPatterns:  []string{},
		TailwindTokens: map[string]string{"spacing": "p-4"},
		NextFeatures:   []string{},
		TSTypes:        []string{},
		AIPrompt:       "Recreate this pattern",
		Links:          []link{{Label: "MDN", URL: "https://developer.mozilla.org/"}},
	}
	out, err := yaml.Marshal(h)
	if err != nil {
		panic(err)
	}
	return "---\n" + string(out) + "---\n" + s.Body
}

// WriteFile writes content at rel (slash-separated) under root.
func WriteFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// WriteContent writes s rendered as MDX at rel under root.
func WriteContent(t *testing.T, root, rel string, s Doc) {
	t.Helper()
	WriteFile(t, root, rel, s.MDX())
}

// TestDB creates a temporary snapshot database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "d2chub-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
