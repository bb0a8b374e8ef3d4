package categories_test

import (
	"testing"

	"storefront/internal/categories"
	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want []categories.Category
	}{
		{
			name: "empty list",
			tags: nil,
			want: []categories.Category{},
		},
		{
			name: "category with subcategories",
			tags: []string{"category:Electronics", "subcategory:Laptops", "subcategory:Phones"},
			want: []categories.Category{{Name: "Electronics", Subcategories: []string{"Laptops", "Phones"}}},
		},
		{
			name: "subcategories attach to most recent category",
			tags: []string{"category:Books", "subcategory:Fiction", "category:Garden", "subcategory:Tools"},
			want: []categories.Category{
				{Name: "Books", Subcategories: []string{"Fiction"}},
				{Name: "Garden", Subcategories: []string{"Tools"}},
			},
		},
		{
			name: "untagged entries are categories and prefixes are case-insensitive",
			tags: []string{" Toys ", "SubCategory: Puzzles"},
			want: []categories.Category{{Name: "Toys", Subcategories: []string{"Puzzles"}}},
		},
		{
			name: "repeated categories merge and duplicate subcategories collapse",
			tags: []string{"category:A", "subcategory:x", "category:B", "category:A", "subcategory:x", "subcategory:y"},
			want: []categories.Category{
				{Name: "A", Subcategories: []string{"x", "y"}},
				{Name: "B", Subcategories: []string{}},
			},
		},
		{
			name: "third level tags are not attached",
			tags: []string{"category:Electronics", "subcategory:Laptops", "subsubcategory:Gaming"},
			want: []categories.Category{{Name: "Electronics", Subcategories: []string{"Laptops"}}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := categories.Normalize(tc.tags)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	_, err := categories.Normalize([]string{"subcategory:Orphan"})
	assert.ErrorIs(t, err, categories.ErrOrphanSubcategory)
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = categories.Normalize([]string{"category:  "})
	assert.ErrorIs(t, err, categories.ErrEmptyTag)
}

func TestMerge(t *testing.T) {
	a := []categories.Category{{Name: "Electronics", Subcategories: []string{"Laptops"}}}
	b := []categories.Category{
		{Name: "Electronics", Subcategories: []string{"Phones", "Laptops"}},
		{Name: "Books", Subcategories: []string{}},
	}

	got := categories.Merge(a, b)

	assert.Equal(t, []categories.Category{
		{Name: "Electronics", Subcategories: []string{"Laptops", "Phones"}},
		{Name: "Books", Subcategories: []string{}},
	}, got)
}
