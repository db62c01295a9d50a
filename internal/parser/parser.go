// Package parser splits content files into a frontmatter mapping and a Markdown/MDX body.
//
// Two strategies share the Parser interface: Matter understands full YAML, TOML and JSON
// headers, Simple is a dependency-free reader for the YAML subset content authors use.
package parser

import "fmt"

// Strategy names accepted by New.
const (
	StrategyMatter = "matter"
	StrategySimple = "simple"
)

// Document is a content file split into its header mapping and body text.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Parser extracts frontmatter and body from raw file bytes.
type Parser interface {
	Parse(data []byte) (*Document, error)
}

// New returns the parser registered under name. An empty name selects Matter.
func New(name string) (Parser, error) {
	switch name {
	case "", StrategyMatter:
		return Matter{}, nil
	case StrategySimple:
		return Simple{}, nil
	default:
		return nil, fmt.Errorf("parser: unknown strategy %q", name)
	}
}
