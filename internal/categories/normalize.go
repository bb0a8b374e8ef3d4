// Package categories turns the flat category tags stored on products into a
// two-level category -> subcategory tree.
package categories

import (
	"fmt"
	"strings"

	"storefront/internal/models"
)

// Tag prefixes understood by Normalize. Matching is case-insensitive.
const (
	CategoryPrefix       = "category:"
	SubcategoryPrefix    = "subcategory:"
	SubSubcategoryPrefix = "subsubcategory:"
)

var (
	ErrEmptyTag          = fmt.Errorf("%w: empty category tag", models.ErrValidation)
	ErrOrphanSubcategory = fmt.Errorf("%w: subcategory without a preceding category", models.ErrValidation)
)

// Category is one top-level category with its subcategories.
type Category struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

type level int

const (
	levelCategory level = iota
	levelSubcategory
	levelSubSubcategory
)

func parseTag(tag string) (level, string) {
	lower := strings.ToLower(strings.TrimSpace(tag))
	trimmed := strings.TrimSpace(tag)
	switch {
	case strings.HasPrefix(lower, SubSubcategoryPrefix):
		return levelSubSubcategory, strings.TrimSpace(trimmed[len(SubSubcategoryPrefix):])
	case strings.HasPrefix(lower, SubcategoryPrefix):
		return levelSubcategory, strings.TrimSpace(trimmed[len(SubcategoryPrefix):])
	case strings.HasPrefix(lower, CategoryPrefix):
		return levelCategory, strings.TrimSpace(trimmed[len(CategoryPrefix):])
	}
	return levelCategory, trimmed
}

// Normalize builds the category tree for a flat tag list.
//
// A subcategory attaches to the closest preceding category. Repeated
// categories are merged and repeated subcategories dropped, keeping
// first-appearance order. Third-level tags are accepted but not attached.
func Normalize(tags []string) ([]Category, error) {
	out := make([]Category, 0, len(tags))
	index := make(map[string]int, len(tags))
	current := -1

	for _, tag := range tags {
		lvl, name := parseTag(tag)
		if name == "" {
			return nil, fmt.Errorf("%w: %q", ErrEmptyTag, tag)
		}
		switch lvl {
		case levelCategory:
			i, ok := index[name]
			if !ok {
				out = append(out, Category{Name: name, Subcategories: []string{}})
				i = len(out) - 1
				index[name] = i
			}
			current = i
		case levelSubcategory:
			if current < 0 {
				return nil, fmt.Errorf("%w: %q", ErrOrphanSubcategory, name)
			}
			out[current].Subcategories = appendUnique(out[current].Subcategories, name)
		case levelSubSubcategory:
			// No third level in the tree yet.
		}
	}
	return out, nil
}

// Merge combines several trees, merging categories by name.
func Merge(trees ...[]Category) []Category {
	out := []Category{}
	index := map[string]int{}
	for _, tree := range trees {
		for _, c := range tree {
			i, ok := index[c.Name]
			if !ok {
				out = append(out, Category{Name: c.Name, Subcategories: []string{}})
				i = len(out) - 1
				index[c.Name] = i
			}
			for _, sub := range c.Subcategories {
				out[i].Subcategories = appendUnique(out[i].Subcategories, sub)
			}
		}
	}
	return out
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
