package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/d2chub/internal/catalog"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/models"
	"github.com/starford/d2chub/internal/schema"
	"github.com/starford/d2chub/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	testutil.WriteContent(t, root, "frontend/cards.mdx", testutil.Doc{
		Title: "Cards", Category: "layout", Tags: []string{"ui"}, Tech: []string{"react"},
		Body: "Card body",
	})
	testutil.WriteContent(t, root, "frontend/forms.mdx", testutil.Doc{
		Title: "Forms", Category: "input", Tags: []string{"ui"}, Tech: []string{"react"},
	})
	testutil.WriteContent(t, root, "notes/log.mdx", testutil.Doc{
		Title: "Log", Domain: "notes", Category: "journal",
	})

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ix, err := content.New(content.Options{Root: root, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(ix, catalog.Options{Logger: logger})
	if _, err := cat.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}
	return New(cat, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no in-process call helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_content":
		result, err = srv.searchContent(ctx, req)
	case "get_content":
		result, err = srv.getContent(ctx, req)
	case "related_content":
		result, err = srv.relatedContent(ctx, req)
	case "list_facets":
		result, err = srv.listFacets(ctx, req)
	case "get_frontmatter_contract":
		result, err = srv.getFrontmatterContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func decodeItems(t *testing.T, r *mcp.CallToolResult) []models.ContentItem {
	t.Helper()
	if r.IsError {
		t.Fatalf("tool error: %s", resultText(r))
	}
	var items []models.ContentItem
	if err := json.Unmarshal([]byte(resultText(r)), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return items
}

func TestSearchContent(t *testing.T) {
	srv := testServer(t)

	items := decodeItems(t, callTool(t, srv, "search_content", map[string]any{"domain": "notes"}))
	if len(items) != 1 || items[0].Path != "/notes/log" {
		t.Errorf("domain filter = %+v", items)
	}

	items = decodeItems(t, callTool(t, srv, "search_content", map[string]any{"tags": []any{"ui"}, "query": "forms"}))
	if len(items) != 1 || items[0].Title != "Forms" {
		t.Errorf("tag+query filter = %+v", items)
	}

	items = decodeItems(t, callTool(t, srv, "search_content", map[string]any{}))
	if len(items) != 3 {
		t.Errorf("no filter returned %d items, want 3", len(items))
	}
}

func TestGetContent(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_content", map[string]any{"path": "/frontend/cards"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var doc struct {
		Path        string `json:"path"`
		Body        string `json:"body"`
		Frontmatter struct {
			Title string `json:"title"`
		} `json:"frontmatter"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Frontmatter.Title != "Cards" || !strings.Contains(doc.Body, "Card body") {
		t.Errorf("doc = %+v", doc)
	}
}

func TestGetContentMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_content", map[string]any{"path": "/nope"})
	if !r.IsError || !strings.Contains(resultText(r), "not found") {
		t.Errorf("expected not found error, got %q", resultText(r))
	}
	r = callTool(t, srv, "get_content", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing path argument")
	}
}

func TestRelatedContent(t *testing.T) {
	srv := testServer(t)
	items := decodeItems(t, callTool(t, srv, "related_content", map[string]any{"path": "/frontend/cards", "limit": 1}))
	if len(items) != 1 || items[0].Path != "/frontend/forms" {
		t.Errorf("related = %+v", items)
	}
}

func TestListFacets(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "list_facets", nil)
	var f content.Facets
	if err := json.Unmarshal([]byte(resultText(r)), &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Domains) != 2 || len(f.Categories) != 3 {
		t.Errorf("facets = %+v", f)
	}
}

func TestContractListsEveryRequiredField(t *testing.T) {
	srv := testServer(t)
	text := resultText(callTool(t, srv, "get_frontmatter_contract", nil))
	for _, field := range schema.RequiredFields {
		if !strings.Contains(text, "| "+field+" |") {
			t.Errorf("contract missing field %s", field)
		}
	}
}
