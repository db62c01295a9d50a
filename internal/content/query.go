package content

import (
	"slices"
	"strings"

	"github.com/starford/d2chub/internal/models"
)

// DefaultRelatedLimit is the number of related items returned when no limit is given.
const DefaultRelatedLimit = 5

// Facets holds the deduplicated facet values of a set of items in
// first-seen order.
type Facets struct {
	Domains    []models.Domain `json:"domains"`
	Categories []string        `json:"categories"`
	Tags       []string        `json:"tags"`
	TechStacks []string        `json:"techStacks"`
	Intents    []string        `json:"intents"`
}

// CollectFacets walks items in order and records each facet value the first
// time it appears.
func CollectFacets(items []models.ContentItem) Facets {
	f := Facets{
		Domains:    []models.Domain{},
		Categories: []string{},
		Tags:       []string{},
		TechStacks: []string{},
		Intents:    []string{},
	}
	seenDomain := map[models.Domain]struct{}{}
	seenCategory := map[string]struct{}{}
	seenTag := map[string]struct{}{}
	seenTech := map[string]struct{}{}
	seenIntent := map[string]struct{}{}

	for _, it := range items {
		if _, ok := seenDomain[it.Domain]; !ok {
			seenDomain[it.Domain] = struct{}{}
			f.Domains = append(f.Domains, it.Domain)
		}
		f.Categories = appendUnique(f.Categories, seenCategory, it.Category)
		for _, v := range it.Tags {
			f.Tags = appendUnique(f.Tags, seenTag, v)
		}
		for _, v := range it.Tech {
			f.TechStacks = appendUnique(f.TechStacks, seenTech, v)
		}
		for _, v := range it.Intent {
			f.Intents = appendUnique(f.Intents, seenIntent, v)
		}
	}
	return f
}

func appendUnique(out []string, seen map[string]struct{}, v string) []string {
	if _, ok := seen[v]; ok {
		return out
	}
	seen[v] = struct{}{}
	return append(out, v)
}

// Criteria selects items. Zero-valued fields match everything.
type Criteria struct {
	Domain   models.Domain `json:"domain,omitempty"`
	Category string        `json:"category,omitempty"`
	// Tags, Tech and Intent match when the item shares at least one value.
	Tags   []string `json:"tags,omitempty"`
	Tech   []string `json:"tech,omitempty"`
	Intent []string `json:"intent,omitempty"`
	// Query matches when every whitespace-separated term occurs,
	// case-insensitively, in the title, description, excerpt, category or a tag.
	Query string `json:"q,omitempty"`
}

// Empty reports whether c has no predicates.
func (c Criteria) Empty() bool {
	return c.Domain == "" && c.Category == "" && len(c.Tags) == 0 &&
		len(c.Tech) == 0 && len(c.Intent) == 0 && strings.TrimSpace(c.Query) == ""
}

// Match reports whether item satisfies every set predicate.
func (c Criteria) Match(item models.ContentItem) bool {
	if c.Domain != "" && item.Domain != c.Domain {
		return false
	}
	if c.Category != "" && item.Category != c.Category {
		return false
	}
	if len(c.Tags) > 0 && !sharesAny(item.Tags, c.Tags) {
		return false
	}
	if len(c.Tech) > 0 && !sharesAny(item.Tech, c.Tech) {
		return false
	}
	if len(c.Intent) > 0 && !sharesAny(item.Intent, c.Intent) {
		return false
	}
	if terms := strings.Fields(strings.ToLower(c.Query)); len(terms) > 0 {
		haystack := strings.ToLower(strings.Join([]string{
			item.Title, item.Description, item.Excerpt, item.Category, strings.Join(item.Tags, " "),
		}, "\n"))
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				return false
			}
		}
	}
	return true
}

// Filter returns the items matching c in their original order.
func Filter(items []models.ContentItem, c Criteria) []models.ContentItem {
	if c.Empty() {
		return append([]models.ContentItem{}, items...)
	}
	out := []models.ContentItem{}
	for _, it := range items {
		if c.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func sharesAny(have, want []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

func countShared(other, target []string) int {
	n := 0
	for _, v := range other {
		if slices.Contains(target, v) {
			n++
		}
	}
	return n
}

// Score rates how related other is to target: +2 same domain, +3 same
// category, +1 per shared tag, +2 per shared tech, +2 per shared intent.
func Score(target, other models.ContentItem) int {
	score := 0
	if other.Domain == target.Domain {
		score += 2
	}
	if other.Category == target.Category {
		score += 3
	}
	score += countShared(other.Tags, target.Tags)
	score += 2 * countShared(other.Tech, target.Tech)
	score += 2 * countShared(other.Intent, target.Intent)
	return score
}

// Related returns up to limit items from pool ranked by Score against target.
// The target itself (by path) and zero-score items are excluded. Equal
// scores are ordered newest updated first, then by path.
func Related(target models.ContentItem, pool []models.ContentItem, limit int) []models.ContentItem {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	type scored struct {
		item  models.ContentItem
		score int
	}
	var candidates []scored
	for _, other := range pool {
		if other.Path == target.Path {
			continue
		}
		if s := Score(target, other); s > 0 {
			candidates = append(candidates, scored{item: other, score: s})
		}
	}

	slices.SortStableFunc(candidates, func(a, b scored) int {
		if a.score != b.score {
			return b.score - a.score
		}
		if c := strings.Compare(b.item.Updated, a.item.Updated); c != 0 {
			return c
		}
		return strings.Compare(a.item.Path, b.item.Path)
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]models.ContentItem, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}
