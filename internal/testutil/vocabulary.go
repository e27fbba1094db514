package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recipebox/backend/internal/domain"
)

// SampleVocabulary is a small vocabulary with a deliberate duplicate name
// ("Onion" id 20) to exercise the lowest-id tie-break
func SampleVocabulary() *domain.Vocabulary {
	return &domain.Vocabulary{
		Categories: domain.DefaultCategories(),
		Ingredients: []domain.Ingredient{
			{ID: 1, Name: "chicken broth", CategoryID: domain.CategoryOther},
			{ID: 2, Name: "onion", CategoryID: domain.CategoryVegetable},
			{ID: 3, Name: "quinoa", CategoryID: domain.CategoryGrain},
			{ID: 4, Name: "brown rice", CategoryID: domain.CategoryGrain},
			{ID: 5, Name: "garlic", CategoryID: domain.CategorySpice},
			{ID: 6, Name: "scallion", CategoryID: domain.CategoryVegetable},
			{ID: 20, Name: "Onion", CategoryID: domain.CategoryOther},
		},
		Aliases: []domain.Alias{
			{ID: 1, Alias: "green onion", IngredientID: 6},
			{ID: 2, Alias: "spring onion", IngredientID: 6},
			{ID: 3, Alias: "Scallions", IngredientID: 2},
		},
		TwoWordPhrases: []string{"chicken broth", "olive oil", "brown rice"},
	}
}

// RunVocabularyStoreTests checks the lookup contract every store must honor.
// The store is loaded with SampleVocabulary first.
func RunVocabularyStoreTests(t *testing.T, store domain.VocabularyStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.ReplaceVocabulary(ctx, SampleVocabulary()))

	t.Run("ingredient exact is case-insensitive", func(t *testing.T) {
		ing, err := store.FindIngredient(ctx, []string{"QUINOA"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), ing.ID)
		assert.Equal(t, "quinoa", ing.Name)
		assert.Equal(t, domain.CategoryGrain, ing.CategoryID)
	})

	t.Run("ingredient lowest id wins", func(t *testing.T) {
		ing, err := store.FindIngredient(ctx, []string{"onions", "onion"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), ing.ID)
	})

	t.Run("ingredient variant list", func(t *testing.T) {
		ing, err := store.FindIngredient(ctx, []string{"garlics", "garlic"})
		require.NoError(t, err)
		assert.Equal(t, int64(5), ing.ID)
	})

	t.Run("ingredient miss", func(t *testing.T) {
		_, err := store.FindIngredient(ctx, []string{"xyzzy"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.FindIngredient(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("alias joins ingredient", func(t *testing.T) {
		m, err := store.FindAlias(ctx, []string{"Green Onion"})
		require.NoError(t, err)
		assert.Equal(t, "green onion", m.Alias.Alias)
		assert.Equal(t, int64(6), m.Ingredient.ID)
		assert.Equal(t, "scallion", m.Ingredient.Name)
	})

	t.Run("alias lowest id wins", func(t *testing.T) {
		m, err := store.FindAlias(ctx, []string{"scallions", "spring onion"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), m.Alias.ID)
	})

	t.Run("alias miss", func(t *testing.T) {
		_, err := store.FindAlias(ctx, []string{"xyzzy"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("two-word phrase", func(t *testing.T) {
		p, err := store.FindTwoWordPhrase(ctx, []string{"Olive Oil"})
		require.NoError(t, err)
		assert.Equal(t, "olive oil", p)

		p, err = store.FindTwoWordPhrase(ctx, []string{"brown rice", "chicken broth"})
		require.NoError(t, err)
		assert.Equal(t, "chicken broth", p)

		_, err = store.FindTwoWordPhrase(ctx, []string{"large onions"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("non-ascii names fold case", func(t *testing.T) {
		next := &domain.Vocabulary{
			Categories: domain.DefaultCategories(),
			Ingredients: []domain.Ingredient{
				{ID: 1, Name: "Épinard", CategoryID: domain.CategoryVegetable},
				{ID: 2, Name: "Crème Fraîche", CategoryID: domain.CategoryDairy},
			},
			Aliases:        []domain.Alias{{ID: 1, Alias: "ÉPINARD FRAIS", IngredientID: 1}},
			TwoWordPhrases: []string{"Crème Fraîche"},
		}
		require.NoError(t, store.ReplaceVocabulary(ctx, next))
		t.Cleanup(func() { require.NoError(t, store.ReplaceVocabulary(ctx, SampleVocabulary())) })

		ing, err := store.FindIngredient(ctx, []string{"épinard"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), ing.ID)
		assert.Equal(t, "Épinard", ing.Name)

		m, err := store.FindAlias(ctx, []string{"épinard frais"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.Ingredient.ID)

		p, err := store.FindTwoWordPhrase(ctx, []string{"crème fraîche"})
		require.NoError(t, err)
		assert.Equal(t, "Crème Fraîche", p)
	})

	t.Run("missing alias ids follow the explicit ones", func(t *testing.T) {
		next := &domain.Vocabulary{
			Categories:  domain.DefaultCategories(),
			Ingredients: []domain.Ingredient{{ID: 1, Name: "spinach", CategoryID: domain.CategoryVegetable}},
			Aliases: []domain.Alias{
				{Alias: "baby spinach", IngredientID: 1},
				{ID: 1, Alias: "english spinach", IngredientID: 1},
			},
		}
		require.NoError(t, store.ReplaceVocabulary(ctx, next))
		t.Cleanup(func() { require.NoError(t, store.ReplaceVocabulary(ctx, SampleVocabulary())) })

		m, err := store.FindAlias(ctx, []string{"baby spinach", "english spinach"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.Alias.ID)
		assert.Equal(t, "english spinach", m.Alias.Alias)

		m, err = store.FindAlias(ctx, []string{"baby spinach"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), m.Alias.ID)
	})

	t.Run("categories and stats", func(t *testing.T) {
		cats, err := store.Categories(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultCategories(), cats)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.VocabularyStats{Ingredients: 7, Aliases: 3, TwoWordPhrases: 3}, stats)
	})

	t.Run("replace drops previous rows", func(t *testing.T) {
		next := &domain.Vocabulary{
			Categories:  domain.DefaultCategories(),
			Ingredients: []domain.Ingredient{{ID: 9, Name: "basil", CategoryID: domain.CategorySpice}},
		}
		require.NoError(t, store.ReplaceVocabulary(ctx, next))

		_, err := store.FindIngredient(ctx, []string{"onion"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		ing, err := store.FindIngredient(ctx, []string{"basil"})
		require.NoError(t, err)
		assert.Equal(t, int64(9), ing.ID)

		require.NoError(t, store.ReplaceVocabulary(ctx, SampleVocabulary()))
	})
}
