// Package models defines the domain types for the Design-to-Code Hub index.
package models

// Domain is the top-level section a content item belongs to.
type Domain string

// Permitted domains.
const (
	DomainFrontend Domain = "frontend"
	DomainNotes    Domain = "notes"
)

// Domains lists every permitted domain in declaration order.
var Domains = []Domain{DomainFrontend, DomainNotes}

// DesignIntent describes what a pattern is for and how it may vary.
type DesignIntent struct {
	Goal        string   `json:"goal"`
	Constraints []string `json:"constraints"`
	Variations  []string `json:"variations"`
}

// Link is an external reference attached to a content item.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ContentFrontmatter is the validated metadata header of one content file.
type ContentFrontmatter struct {
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Domain        Domain       `json:"domain"`
	Tech          []string     `json:"tech"`
	Intent        []string     `json:"intent"`
	Category      string       `json:"category"`
	Tags          []string     `json:"tags"`
	Updated       string       `json:"updated"` // YYYY-MM-DD
	DesignIntent  DesignIntent `json:"design_intent"`
	ReactPatterns []string     `json:"react_patterns"`
	// TailwindTokens is either a map[string]any or a []any.
	TailwindTokens any      `json:"tailwind_tokens"`
	NextFeatures   []string `json:"next_features"`
	TSTypes        []string `json:"ts_types"`
	AIPrompt       string   `json:"ai_prompt"`
	Links          []Link   `json:"links"`

	// Extra holds frontmatter keys outside the declared schema.
	Extra map[string]any `json:"extra,omitempty"`
}

// ContentItem is a validated content file plus its derived fields.
type ContentItem struct {
	ContentFrontmatter
	Slug        string `json:"slug"`
	Path        string `json:"path"`
	Excerpt     string `json:"excerpt"`
	ReadingTime int    `json:"readingTime"`
}

// SearchIndex is the aggregate snapshot consumed by the search UI.
type SearchIndex struct {
	Items       []ContentItem `json:"items"`
	Domains     []Domain      `json:"domains"`
	Categories  []string      `json:"categories"`
	Tags        []string      `json:"tags"`
	TechStacks  []string      `json:"techStacks"`
	Intents     []string      `json:"intents"`
	GeneratedAt string        `json:"generatedAt,omitempty"`
}
