package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// synonyms expands common produce names, including Spanish forms, so a
// query matches products listed under either name. Keys and values are
// lowercase.
var synonyms = map[string][]string{
	"corn":     {"maize", "maíz", "maiz"},
	"maize":    {"corn", "maíz"},
	"maíz":     {"corn", "maize"},
	"beans":    {"caraotas", "frijoles"},
	"caraotas": {"beans", "frijoles"},
	"banana":   {"plantain", "cambur", "plátano"},
	"cambur":   {"banana"},
	"plantain": {"plátano", "banana"},
	"yuca":     {"cassava"},
	"cassava":  {"yuca"},
	"avocado":  {"aguacate"},
	"aguacate": {"avocado"},
	"coffee":   {"café", "cafe"},
	"café":     {"coffee"},
	"sugar":    {"papelón", "papelon"},
	"pepper":   {"ají", "aji"},
}

// Searcher performs synonym-aware substring search over the catalog.
type Searcher struct {
	products Repository
}

// NewSearcher creates a Searcher over the given repository.
func NewSearcher(products Repository) *Searcher {
	return &Searcher{products: products}
}

// Search returns products whose name or category contains the query or
// any of its synonyms, case-insensitively. A blank query returns the
// full catalog.
func (s *Searcher) Search(ctx context.Context, query string) ([]Product, error) {
	all, err := s.products.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all, nil
	}

	terms := append([]string{query}, synonyms[query]...)

	var matched []Product
	for _, p := range all {
		if matchesAny(p, terms) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

func matchesAny(p Product, terms []string) bool {
	name := strings.ToLower(p.Name)
	category := strings.ToLower(p.Category)
	for _, term := range terms {
		if strings.Contains(name, term) || strings.Contains(category, term) {
			return true
		}
	}
	return false
}
