package catalog

import (
	"cmp"
	"slices"

	"github.com/joao-fontenele/freshbasket/internal/domain"
)

// Category is one storefront category with the subcategories its products use.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Categories derives the category tree from products. Products without a
// category are skipped. Both levels are sorted by name.
func Categories(products []domain.Product) []Category {
	subs := make(map[string]map[string]struct{})
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		set, ok := subs[p.Category]
		if !ok {
			set = make(map[string]struct{})
			subs[p.Category] = set
		}
		if p.Subcategory != "" {
			set[p.Subcategory] = struct{}{}
		}
	}

	out := make([]Category, 0, len(subs))
	for name, set := range subs {
		c := Category{Name: name, Subcategories: make([]string, 0, len(set))}
		for sub := range set {
			c.Subcategories = append(c.Subcategories, sub)
		}
		slices.Sort(c.Subcategories)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Category) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
