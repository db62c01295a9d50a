package parser

import (
	"reflect"
	"strings"
	"testing"
)

const sampleHeader = `---
title: "Card grid"
description: Responsive card layout
domain: frontend
tech: [react, tailwind]
intent:
  - 卡片
category: layout
tags:
  - grid
  - cards
updated: "2024-03-01"
design_intent:
  goal: Show many items compactly
  constraints:
    - keyboard accessible
  variations: []
react_patterns: []
tailwind_tokens: {}
next_features: []
ts_types: []
ai_prompt: Build a card grid
links:
  - label: MDN
    url: https://developer.mozilla.org/
---
# Card grid

Body text.
`

func TestNew_Strategies(t *testing.T) {
	for _, name := range []string{"", StrategyMatter, StrategySimple} {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("gray"); err == nil {
		t.Error("unknown strategy should fail")
	}
}

func TestParse_StrategiesAgree(t *testing.T) {
	matter, err := Matter{}.Parse([]byte(sampleHeader))
	if err != nil {
		t.Fatalf("Matter: %v", err)
	}
	simple, err := Simple{}.Parse([]byte(sampleHeader))
	if err != nil {
		t.Fatalf("Simple: %v", err)
	}

	for _, key := range []string{"title", "domain", "tech", "intent", "tags", "updated", "design_intent", "links", "tailwind_tokens"} {
		if !reflect.DeepEqual(matter.Frontmatter[key], simple.Frontmatter[key]) {
			t.Errorf("%s: matter = %#v, simple = %#v", key, matter.Frontmatter[key], simple.Frontmatter[key])
		}
	}
	if simple.Body != "# Card grid\n\nBody text.\n" {
		t.Errorf("simple body = %q", simple.Body)
	}
}

func TestMatter_NoFrontmatter(t *testing.T) {
	doc, err := Matter{}.Parse([]byte("# Just a heading\nSome text.\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Frontmatter) != 0 {
		t.Errorf("expected empty frontmatter, got %v", doc.Frontmatter)
	}
	if !strings.Contains(doc.Body, "# Just a heading") || !strings.Contains(doc.Body, "Some text.") {
		t.Errorf("body = %q", doc.Body)
	}
}

func TestMatter_InvalidYAML(t *testing.T) {
	_, err := Matter{}.Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if err == nil {
		t.Fatal("expected error for malformed frontmatter")
	}
}

func TestMatter_TimestampStaysString(t *testing.T) {
	doc, err := Matter{}.Parse([]byte("---\nupdated: 2024-01-05\n---\nbody"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, ok := doc.Frontmatter["updated"].(string); !ok || got != "2024-01-05" {
		t.Errorf("updated = %#v, want string 2024-01-05", doc.Frontmatter["updated"])
	}
}

func TestMatter_NestedTimestampStaysString(t *testing.T) {
	doc, err := Matter{}.Parse([]byte("---\nhistory:\n  - 2023-12-31\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []any{"2023-12-31"}
	if !reflect.DeepEqual(doc.Frontmatter["history"], want) {
		t.Errorf("history = %#v, want %#v", doc.Frontmatter["history"], want)
	}
}

func TestMatter_TOML(t *testing.T) {
	input := "+++\ntitle = \"Toml\"\ntags = [\"a\", \"b\"]\n\n[design_intent]\ngoal = \"g\"\n+++\nBody\n"
	doc, err := Matter{}.Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Frontmatter["title"] != "Toml" {
		t.Errorf("title = %v", doc.Frontmatter["title"])
	}
	di, ok := doc.Frontmatter["design_intent"].(map[string]any)
	if !ok || di["goal"] != "g" {
		t.Errorf("design_intent = %#v", doc.Frontmatter["design_intent"])
	}
}

func TestSimple_NoFrontmatter(t *testing.T) {
	doc, err := Simple{}.Parse([]byte("plain body"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Frontmatter) != 0 || doc.Body != "plain body" {
		t.Errorf("doc = %+v", doc)
	}
}

func TestSimple_EmptyBlockBecomesList(t *testing.T) {
	doc, _ := Simple{}.Parse([]byte("---\ntitle: x\nnext_features:\nts_types: []\n---\n"))
	got, ok := doc.Frontmatter["next_features"].([]any)
	if !ok || len(got) != 0 {
		t.Errorf("next_features = %#v, want empty list", doc.Frontmatter["next_features"])
	}
}

func TestSimple_ListAtKeyIndent(t *testing.T) {
	doc, _ := Simple{}.Parse([]byte("---\ntags:\n- a\n- 'b'\ntitle: t\n---\n"))
	want := []any{"a", "b"}
	if !reflect.DeepEqual(doc.Frontmatter["tags"], want) {
		t.Errorf("tags = %#v, want %#v", doc.Frontmatter["tags"], want)
	}
	if doc.Frontmatter["title"] != "t" {
		t.Errorf("title = %#v", doc.Frontmatter["title"])
	}
}

func TestSimple_URLIsScalar(t *testing.T) {
	doc, _ := Simple{}.Parse([]byte("---\nlinks:\n  - https://example.com\n---\n"))
	want := []any{"https://example.com"}
	if !reflect.DeepEqual(doc.Frontmatter["links"], want) {
		t.Errorf("links = %#v, want %#v", doc.Frontmatter["links"], want)
	}
}
