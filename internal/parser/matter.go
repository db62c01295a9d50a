package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var matterFormats = []*frontmatter.Format{
	{Start: "---", End: "---", Unmarshal: unmarshalYAML},
	{Start: "+++", End: "+++", Unmarshal: toml.Unmarshal},
	{Start: ";;;", End: ";;;", Unmarshal: json.Unmarshal},
}

// unmarshalYAML decodes like yaml.Unmarshal but keeps timestamp scalars as
// their source text, so an unquoted `updated: 2024-01-05` stays a string.
func unmarshalYAML(data []byte, v any) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return err
	}
	if root.Kind == 0 {
		return nil
	}
	retagTimestamps(&root)
	return root.Decode(v)
}

func retagTimestamps(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		retagTimestamps(c)
	}
}

// Matter parses YAML (---), TOML (+++) and JSON (;;;) frontmatter blocks.
type Matter struct{}

// Parse implements Parser. A file without a frontmatter block yields an empty
// mapping and the whole file as body; a malformed block is an error.
func (Matter) Parse(data []byte) (*Document, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm, matterFormats...)
	if err != nil {
		return nil, fmt.Errorf("parser: frontmatter: %w", err)
	}
	if fm == nil {
		fm = map[string]any{}
	}
	return &Document{Frontmatter: fm, Body: string(body)}, nil
}
