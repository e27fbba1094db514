package domain

import (
	"strings"
	"sync/atomic"
)

// Ingredient is a canonical vocabulary entry
type Ingredient struct {
	ID         int64  `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	CategoryID int    `json:"categoryId" yaml:"category_id"`
}

// Alias maps an alternate spelling or synonym to one ingredient
type Alias struct {
	ID           int64  `json:"id" yaml:"id"`
	Alias        string `json:"alias" yaml:"alias"`
	IngredientID int64  `json:"ingredientId" yaml:"ingredient_id"`
}

// AliasMatch is an alias row joined with the ingredient it points to
type AliasMatch struct {
	Alias      Alias
	Ingredient Ingredient
}

// Vocabulary is a complete controlled vocabulary snapshot, used for seeding
// stores and for the in-memory store.
type Vocabulary struct {
	Categories     CategoryTable
	Ingredients    []Ingredient
	Aliases        []Alias
	TwoWordPhrases []string
}

// LookupKey is the case-folded form every store compares names, aliases
// and phrases by
func LookupKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AliasesWithIDs returns a copy of the aliases where every alias without an
// id gets one after the highest explicit id, in list order
func (v *Vocabulary) AliasesWithIDs() []Alias {
	var next int64
	for _, a := range v.Aliases {
		if a.ID > next {
			next = a.ID
		}
	}

	out := make([]Alias, len(v.Aliases))
	for i, a := range v.Aliases {
		if a.ID <= 0 {
			next++
			a.ID = next
		}
		out[i] = a
	}
	return out
}

// Category ids used by the default category table
const (
	CategoryProtein   = 1
	CategoryVegetable = 2
	CategoryFruit     = 3
	CategoryGrain     = 4
	CategoryDairy     = 5
	CategorySpice     = 6
	CategoryOther     = 7
)

// CategoryOtherKey is used for category ids missing from a table
const CategoryOtherKey = "other"

// CategoryTable maps category ids to their presentation keys. It is passed
// explicitly into grouping so new categories need no matcher changes.
type CategoryTable map[int]string

// DefaultCategories returns the built-in category table
func DefaultCategories() CategoryTable {
	return CategoryTable{
		CategoryProtein:   "protein",
		CategoryVegetable: "vegetable",
		CategoryFruit:     "fruit",
		CategoryGrain:     "grain",
		CategoryDairy:     "dairy",
		CategorySpice:     "spice",
		CategoryOther:     CategoryOtherKey,
	}
}

// Key returns the key for a category id, falling back to "other"
func (t CategoryTable) Key(id int) string {
	if key, ok := t[id]; ok && key != "" {
		return key
	}
	return CategoryOtherKey
}

// ID returns the id registered for key (case-insensitive)
func (t CategoryTable) ID(key string) (int, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for id, k := range t {
		if strings.ToLower(k) == key {
			return id, true
		}
	}
	return 0, false
}

// CategoryRegistry holds the category table currently in force. Readers
// take a snapshot with Table; Set swaps in a new table after a reload.
type CategoryRegistry struct {
	table atomic.Pointer[CategoryTable]
}

// NewCategoryRegistry returns a registry holding table, or the defaults when
// table is empty
func NewCategoryRegistry(table CategoryTable) *CategoryRegistry {
	r := &CategoryRegistry{}
	r.Set(table)
	return r
}

// Table returns the current table. The map must not be modified.
func (r *CategoryRegistry) Table() CategoryTable {
	return *r.table.Load()
}

// Set replaces the current table with a copy of table
func (r *CategoryRegistry) Set(table CategoryTable) {
	if len(table) == 0 {
		table = DefaultCategories()
	}
	next := make(CategoryTable, len(table))
	for id, key := range table {
		next[id] = key
	}
	r.table.Store(&next)
}
