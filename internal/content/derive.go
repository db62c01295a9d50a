package content

import (
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultExcerptLength is the excerpt cap used when none is configured.
const DefaultExcerptLength = 200

// Ellipsis marks a truncated excerpt.
const Ellipsis = "..."

// Only these markup forms are stripped; tables, block quotes and images pass
// through unchanged.
var (
	fencedCodeRe = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
	headingRe    = regexp.MustCompile(`#{1,6}\s`)
	boldRe       = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	italicRe     = regexp.MustCompile(`\*([^*]*)\*`)
	linkRe       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)

	latinWordRe = regexp.MustCompile(`[a-zA-Z]+`)
)

// Excerpt returns a plain-text summary of body of at most maxLength
// characters. Longer text is cut and suffixed with Ellipsis, the marker
// counting toward the cap. maxLength <= 0 selects DefaultExcerptLength.
func Excerpt(body string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}

	clean := fencedCodeRe.ReplaceAllString(body, "")
	clean = inlineCodeRe.ReplaceAllString(clean, "")
	clean = headingRe.ReplaceAllString(clean, "")
	clean = boldRe.ReplaceAllString(clean, "${1}")
	clean = italicRe.ReplaceAllString(clean, "${1}")
	clean = linkRe.ReplaceAllString(clean, "${1}")
	clean = strings.TrimSpace(clean)

	if utf8.RuneCountInString(clean) <= maxLength {
		return clean
	}

	runes := []rune(clean)
	keep := maxLength - utf8.RuneCountInString(Ellipsis)
	if keep <= 0 {
		// No room for the marker.
		return string(runes[:maxLength])
	}
	return strings.TrimSpace(string(runes[:keep])) + Ellipsis
}

// Reading speeds in units per minute.
const (
	cjkPerMinute   = 300
	wordsPerMinute = 200
)

// ReadingTime estimates minutes to read body: CJK ideographs at 300 per
// minute plus Latin words at 200 per minute, rounded up, never below 1.
func ReadingTime(body string) int {
	cjk := 0
	for _, r := range body {
		if r >= 0x4e00 && r <= 0x9fff {
			cjk++
		}
	}
	words := len(latinWordRe.FindAllStringIndex(body, -1))

	// cjk/300 + words/200 over the common denominator.
	const denom = 600
	units := cjk*(denom/cjkPerMinute) + words*(denom/wordsPerMinute)
	minutes := (units + denom - 1) / denom
	if minutes < 1 {
		return 1
	}
	return minutes
}

// RoutePath derives the site route of a content file from its slash-separated
// path relative to the content root: "frontend/cards.mdx" → "/frontend/cards".
func RoutePath(rel, ext string) string {
	rel = strings.TrimPrefix(path.Clean("/"+strings.TrimSuffix(rel, ext)), "/")
	return "/" + rel
}

// Slug is the file's base name without extension.
func Slug(rel, ext string) string {
	return strings.TrimSuffix(path.Base(rel), ext)
}
