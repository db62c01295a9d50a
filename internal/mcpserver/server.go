// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the content index to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/d2chub/internal/apperr"
	"github.com/starford/d2chub/internal/content"
	"github.com/starford/d2chub/internal/models"
)

const contractURI = "d2chub://frontmatter-contract"

// Catalog is the query surface the tools need. *catalog.Catalog satisfies it.
type Catalog interface {
	Filter(c content.Criteria) ([]models.ContentItem, error)
	Related(route string, limit int) ([]models.ContentItem, error)
	Facets() (content.Facets, error)
	Document(route string) (*content.Document, error)
}

// Server wraps the MCP server with d2chub tools.
type Server struct {
	mcp *server.MCPServer
	cat Catalog
}

// New creates a new MCP server with all tools registered.
func New(cat Catalog, version string) *Server {
	s := &Server{cat: cat}

	s.mcp = server.NewMCPServer(
		"d2chub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_content",
		mcp.WithDescription("Filter indexed content by facets and free text. "+
			"All given filters must match; within tags, tech and intent any value matches."),
		mcp.WithString("domain", mcp.Description("frontend or notes"), mcp.Enum("frontend", "notes")),
		mcp.WithString("category", mcp.Description("Exact category")),
		mcp.WithArray("tags", mcp.Description("Tags; any matches"), mcp.WithStringItems()),
		mcp.WithArray("tech", mcp.Description("Tech stack values; any matches"), mcp.WithStringItems()),
		mcp.WithArray("intent", mcp.Description("Intents; any matches"), mcp.WithStringItems()),
		mcp.WithString("query", mcp.Description("Free-text terms; every term must occur")),
	), s.searchContent)

	s.mcp.AddTool(mcp.NewTool("get_content",
		mcp.WithDescription("Read an item's validated frontmatter and raw MDX body."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Site path, e.g. /frontend/cards")),
	), s.getContent)

	s.mcp.AddTool(mcp.NewTool("related_content",
		mcp.WithDescription("List items related to one item, best match first."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Site path, e.g. /frontend/cards")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 5)")),
	), s.relatedContent)

	s.mcp.AddTool(mcp.NewTool("list_facets",
		mcp.WithDescription("List every domain, category, tag, tech stack and intent in the index."),
	), s.listFacets)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the frontmatter contract content files must satisfy. "+
			"Call this before writing new content."),
	), s.getFrontmatterContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Frontmatter Contract",
			mcp.WithResourceDescription("Required frontmatter fields and their shapes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error, path string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) searchContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	crit := content.Criteria{
		Domain:   models.Domain(req.GetString("domain", "")),
		Category: req.GetString("category", ""),
		Tags:     req.GetStringSlice("tags", nil),
		Tech:     req.GetStringSlice("tech", nil),
		Intent:   req.GetStringSlice("intent", nil),
		Query:    req.GetString("query", ""),
	}
	items, err := s.cat.Filter(crit)
	if err != nil {
		return toolError(err, ""), nil
	}
	return jsonResult(items)
}

func (s *Server) getContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.cat.Document(path)
	if err != nil {
		return toolError(err, path), nil
	}
	return jsonResult(map[string]any{
		"path":        path,
		"frontmatter": doc.Frontmatter,
		"body":        doc.Body,
	})
}

func (s *Server) relatedContent(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.cat.Related(path, req.GetInt("limit", 0))
	if err != nil {
		return toolError(err, path), nil
	}
	return jsonResult(items)
}

func (s *Server) listFacets(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f, err := s.cat.Facets()
	if err != nil {
		return toolError(err, ""), nil
	}
	return jsonResult(f)
}

func (s *Server) getFrontmatterContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
