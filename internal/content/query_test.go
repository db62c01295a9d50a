package content

import (
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/starford/d2chub/internal/models"
)

func item(path string, domain models.Domain, category, updated string, tags, tech, intent []string) models.ContentItem {
	return models.ContentItem{
		ContentFrontmatter: models.ContentFrontmatter{
			Title:    path,
			Domain:   domain,
			Category: category,
			Updated:  updated,
			Tags:     tags,
			Tech:     tech,
			Intent:   intent,
		},
		Path: path,
	}
}

func paths(items []models.ContentItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Path
	}
	return out
}

func sampleItems() []models.ContentItem {
	return []models.ContentItem{
		item("/a", models.DomainFrontend, "cards", "2024-03-01", []string{"ui", "grid"}, []string{"react"}, []string{"layout"}),
		item("/b", models.DomainFrontend, "forms", "2024-02-01", []string{"ui"}, []string{"react", "zod"}, []string{"input"}),
		item("/c", models.DomainNotes, "cards", "2024-01-01", []string{"grid"}, []string{"css"}, []string{"layout"}),
		item("/d", models.DomainNotes, "journal", "2023-12-01", nil, nil, nil),
	}
}

func TestCollectFacets_FirstSeenOrder(t *testing.T) {
	f := CollectFacets(sampleItems())

	if want := []models.Domain{models.DomainFrontend, models.DomainNotes}; !slices.Equal(f.Domains, want) {
		t.Errorf("domains = %v, want %v", f.Domains, want)
	}
	if want := []string{"cards", "forms", "journal"}; !slices.Equal(f.Categories, want) {
		t.Errorf("categories = %v, want %v", f.Categories, want)
	}
	if want := []string{"ui", "grid"}; !slices.Equal(f.Tags, want) {
		t.Errorf("tags = %v, want %v", f.Tags, want)
	}
	if want := []string{"react", "zod", "css"}; !slices.Equal(f.TechStacks, want) {
		t.Errorf("tech = %v, want %v", f.TechStacks, want)
	}
	if want := []string{"layout", "input"}; !slices.Equal(f.Intents, want) {
		t.Errorf("intents = %v, want %v", f.Intents, want)
	}
}

func TestCollectFacets_Empty(t *testing.T) {
	f := CollectFacets(nil)
	if f.Domains == nil || f.Categories == nil || f.Tags == nil || f.TechStacks == nil || f.Intents == nil {
		t.Errorf("facets of no items should be empty, not nil: %+v", f)
	}
}

func TestFilter(t *testing.T) {
	items := sampleItems()
	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty criteria", Criteria{}, []string{"/a", "/b", "/c", "/d"}},
		{"domain", Criteria{Domain: models.DomainNotes}, []string{"/c", "/d"}},
		{"category", Criteria{Category: "cards"}, []string{"/a", "/c"}},
		{"any tag", Criteria{Tags: []string{"grid", "nope"}}, []string{"/a", "/c"}},
		{"tech", Criteria{Tech: []string{"zod"}}, []string{"/b"}},
		{"intent", Criteria{Intent: []string{"layout"}}, []string{"/a", "/c"}},
		{"combined", Criteria{Domain: models.DomainFrontend, Intent: []string{"layout"}}, []string{"/a"}},
		{"query", Criteria{Query: "FORMS"}, []string{"/b"}},
		{"query all terms", Criteria{Query: "cards grid"}, []string{"/a", "/c"}},
		{"no match", Criteria{Category: "missing"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(items, tt.c)
			if got == nil {
				t.Fatal("Filter returned nil")
			}
			if !slices.Equal(paths(got), tt.want) {
				t.Errorf("Filter = %v, want %v", paths(got), tt.want)
			}
		})
	}
}

func TestCriteriaEmpty(t *testing.T) {
	if !(Criteria{Query: "   "}).Empty() {
		t.Error("blank query should be empty")
	}
	if (Criteria{Tags: []string{"x"}}).Empty() {
		t.Error("tag criteria should not be empty")
	}
}

func TestScore(t *testing.T) {
	items := sampleItems()
	// same domain +2, shared tag ui +1, shared tech react +2.
	if got := Score(items[0], items[1]); got != 5 {
		t.Errorf("Score(a, b) = %d, want 5", got)
	}
	// same category +3, shared tag grid +1, shared intent layout +2.
	if got := Score(items[0], items[2]); got != 6 {
		t.Errorf("Score(a, c) = %d, want 6", got)
	}
	if got := Score(items[0], items[3]); got != 0 {
		t.Errorf("Score(a, d) = %d, want 0", got)
	}
}

func TestRelated(t *testing.T) {
	items := sampleItems()
	got := Related(items[0], items, 5)
	if want := []string{"/c", "/b"}; !slices.Equal(paths(got), want) {
		t.Errorf("Related = %v, want %v", paths(got), want)
	}
}

func TestRelated_TieBreak(t *testing.T) {
	target := item("/t", models.DomainFrontend, "x", "2024-01-01", nil, nil, nil)
	pool := []models.ContentItem{
		target,
		item("/z-old", models.DomainFrontend, "y", "2023-01-01", nil, nil, nil),
		item("/b-new", models.DomainFrontend, "y", "2024-05-01", nil, nil, nil),
		item("/a-new", models.DomainFrontend, "y", "2024-05-01", nil, nil, nil),
	}
	got := Related(target, pool, 10)
	if want := []string{"/a-new", "/b-new", "/z-old"}; !slices.Equal(paths(got), want) {
		t.Errorf("Related = %v, want %v", paths(got), want)
	}
}

func TestRelated_DefaultLimit(t *testing.T) {
	target := item("/t", models.DomainNotes, "c", "2024-01-01", nil, nil, nil)
	pool := []models.ContentItem{target}
	for _, p := range []string{"/1", "/2", "/3", "/4", "/5", "/6", "/7"} {
		pool = append(pool, item(p, models.DomainNotes, "c", "2024-01-01", nil, nil, nil))
	}
	if got := Related(target, pool, 0); len(got) != DefaultRelatedLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultRelatedLimit)
	}
}

func genItem(t *rapid.T, label string) models.ContentItem {
	vocab := rapid.SampledFrom([]string{"a", "b", "c", "d"})
	return item(
		rapid.StringMatching(`/[a-z]{1,6}`).Draw(t, label+".path"),
		rapid.SampledFrom(models.Domains).Draw(t, label+".domain"),
		vocab.Draw(t, label+".category"),
		rapid.SampledFrom([]string{"2024-01-01", "2024-06-01", "2025-01-01"}).Draw(t, label+".updated"),
		rapid.SliceOfN(vocab, 0, 3).Draw(t, label+".tags"),
		rapid.SliceOfN(vocab, 0, 3).Draw(t, label+".tech"),
		rapid.SliceOfN(vocab, 0, 3).Draw(t, label+".intent"),
	)
}

func TestRelated_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		pool := make([]models.ContentItem, n)
		for i := range pool {
			pool[i] = genItem(t, "item")
		}
		target := pool[rapid.IntRange(0, n-1).Draw(t, "target")]
		limit := rapid.IntRange(1, 6).Draw(t, "limit")

		got := Related(target, pool, limit)
		if len(got) > limit {
			t.Fatalf("len = %d, want <= %d", len(got), limit)
		}
		for i, it := range got {
			if it.Path == target.Path {
				t.Fatalf("target %s returned as related", it.Path)
			}
			if Score(target, it) <= 0 {
				t.Fatalf("%s has non-positive score", it.Path)
			}
			if i > 0 && Score(target, got[i-1]) < Score(target, it) {
				t.Fatalf("scores not descending at %d", i)
			}
		}
	})
}

func TestFilter_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 10).Draw(t, "n")
		items := make([]models.ContentItem, n)
		for i := range items {
			items[i] = genItem(t, "item")
		}
		c := Criteria{
			Category: rapid.SampledFrom([]string{"", "a", "b"}).Draw(t, "category"),
			Tags:     rapid.SliceOfN(rapid.SampledFrom([]string{"a", "b", "c"}), 0, 2).Draw(t, "tags"),
		}

		got := Filter(items, c)
		for _, it := range got {
			if !c.Match(it) {
				t.Fatalf("%s does not match criteria", it.Path)
			}
		}
		want := 0
		for _, it := range items {
			if c.Match(it) {
				want++
			}
		}
		if len(got) != want {
			t.Fatalf("len = %d, want %d", len(got), want)
		}
	})
}
