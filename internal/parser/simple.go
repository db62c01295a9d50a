package parser

import (
	"bytes"
	"strings"
)

// Simple reads the block-style YAML subset used by content headers without a
// YAML library: scalars, quoted strings, inline [a, b] lists and {} maps, block
// lists and indented mappings. Values are always strings; anchors, multi-line
// scalars and flow mappings with nested flows are not understood.
type Simple struct{}

// Parse implements Parser. Without a leading --- block the whole file is body.
func (Simple) Parse(data []byte) (*Document, error) {
	header, body, ok := splitFrontmatter(data)
	if !ok {
		return &Document{Frontmatter: map[string]any{}, Body: string(data)}, nil
	}

	lines := scanLines(header)
	fm := map[string]any{}
	if len(lines) > 0 {
		if m, ok := parseBlock(lines, 0, lines[0].indent).(map[string]any); ok {
			fm = m
		}
	}
	return &Document{Frontmatter: fm, Body: body}, nil
}

// splitFrontmatter separates the header between leading --- delimiters from
// the body.
func splitFrontmatter(data []byte) (string, string, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return "", "", false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return "", "", false
	}

	header := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")
	return string(header), body, true
}

type line struct {
	indent int
	text   string
}

func scanLines(header string) []line {
	var out []line
	for _, raw := range strings.Split(strings.ReplaceAll(header, "\r\n", "\n"), "\n") {
		text := strings.TrimRight(raw, " \t")
		trimmed := strings.TrimLeft(text, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		out = append(out, line{indent: len(text) - len(trimmed), text: trimmed})
	}
	return out
}

func isListItem(text string) bool {
	return text == "-" || strings.HasPrefix(text, "- ")
}

// parseBlock parses the block starting at lines[i] whose entries sit at indent.
func parseBlock(lines []line, i, indent int) any {
	v, _ := parseBlockAt(lines, i, indent)
	return v
}

func parseBlockAt(lines []line, i, indent int) (any, int) {
	if i < len(lines) && isListItem(lines[i].text) {
		return parseSequence(lines, i, indent)
	}
	return parseMapping(lines, i, indent)
}

func parseSequence(lines []line, i, indent int) (any, int) {
	out := []any{}
	for i < len(lines) && lines[i].indent == indent && isListItem(lines[i].text) {
		rest := strings.TrimSpace(strings.TrimPrefix(lines[i].text, "-"))
		switch {
		case rest == "":
			if i+1 < len(lines) && lines[i+1].indent > indent {
				var v any
				v, i = parseBlockAt(lines, i+1, lines[i+1].indent)
				out = append(out, v)
				continue
			}
			out = append(out, "")
			i++
		case isKeyValue(rest):
			// "- key: value" opens a mapping whose keys align two columns in.
			lines[i] = line{indent: indent + 2, text: rest}
			var v any
			v, i = parseMapping(lines, i, indent+2)
			out = append(out, v)
		default:
			out = append(out, parseScalar(rest))
			i++
		}
	}
	return out, i
}

func parseMapping(lines []line, i, indent int) (any, int) {
	out := map[string]any{}
	for i < len(lines) && lines[i].indent == indent && !isListItem(lines[i].text) {
		key, value, ok := splitKeyValue(lines[i].text)
		i++
		if !ok {
			continue
		}
		if value != "" {
			out[key] = parseScalar(value)
			continue
		}
		switch {
		case i < len(lines) && lines[i].indent > indent:
			out[key], i = parseBlockAt(lines, i, lines[i].indent)
		case i < len(lines) && lines[i].indent == indent && isListItem(lines[i].text):
			out[key], i = parseSequence(lines, i, indent)
		default:
			out[key] = []any{}
		}
	}
	return out, i
}

func isKeyValue(text string) bool {
	if strings.HasPrefix(text, `"`) || strings.HasPrefix(text, `'`) || strings.HasPrefix(text, "[") {
		return false
	}
	_, _, ok := splitKeyValue(text)
	return ok
}

func splitKeyValue(text string) (string, string, bool) {
	idx := strings.Index(text, ":")
	if idx <= 0 {
		return "", "", false
	}
	if idx+1 < len(text) && text[idx+1] != ' ' {
		// "https://..." and similar are scalars, not keys.
		return "", "", false
	}
	key := strings.TrimSpace(text[:idx])
	if strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return unquote(key), strings.TrimSpace(text[idx+1:]), true
}

func parseScalar(value string) any {
	switch {
	case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
		inner := strings.TrimSpace(value[1 : len(value)-1])
		out := []any{}
		if inner == "" {
			return out
		}
		for _, part := range strings.Split(inner, ",") {
			out = append(out, unquote(strings.TrimSpace(part)))
		}
		return out
	case strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}"):
		inner := strings.TrimSpace(value[1 : len(value)-1])
		out := map[string]any{}
		if inner == "" {
			return out
		}
		for _, part := range strings.Split(inner, ",") {
			if k, v, ok := splitKeyValue(strings.TrimSpace(part)); ok {
				out[k] = unquote(v)
			}
		}
		return out
	default:
		return unquote(value)
	}
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
