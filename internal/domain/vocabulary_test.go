package domain

import (
	"reflect"
	"sync"
	"testing"
)

func TestLookupKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Onion", "onion"},
		{"  Green Onion ", "green onion"},
		{"Épinard", "épinard"},
		{"CRÈME FRAÎCHE", "crème fraîche"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := LookupKey(tt.in); got != tt.want {
			t.Errorf("LookupKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVocabulary_AliasesWithIDs(t *testing.T) {
	v := &Vocabulary{Aliases: []Alias{
		{Alias: "a", IngredientID: 1},
		{ID: 4, Alias: "b", IngredientID: 1},
		{Alias: "c", IngredientID: 1},
		{ID: 2, Alias: "d", IngredientID: 1},
	}}

	var got []int64
	for _, a := range v.AliasesWithIDs() {
		got = append(got, a.ID)
	}
	if want := []int64{5, 4, 6, 2}; !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if v.Aliases[0].ID != 0 {
		t.Error("AliasesWithIDs modified the vocabulary")
	}
}

func TestCategoryRegistry(t *testing.T) {
	r := NewCategoryRegistry(nil)
	if !reflect.DeepEqual(r.Table(), DefaultCategories()) {
		t.Errorf("empty registry = %v, want defaults", r.Table())
	}

	table := CategoryTable{CategoryVegetable: "produce"}
	r.Set(table)
	table[CategoryVegetable] = "changed"

	if got := r.Table().Key(CategoryVegetable); got != "produce" {
		t.Errorf("Key(vegetable) = %q, want produce", got)
	}
	if got := r.Table().Key(CategoryProtein); got != CategoryOtherKey {
		t.Errorf("Key(protein) = %q, want %q", got, CategoryOtherKey)
	}
}

func TestCategoryRegistry_ConcurrentSet(t *testing.T) {
	r := NewCategoryRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Set(CategoryTable{CategoryVegetable: "produce"})
		}()
		go func() {
			defer wg.Done()
			_ = r.Table().Key(CategoryVegetable)
		}()
	}
	wg.Wait()
}
