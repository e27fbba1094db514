package memstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/testutil"
)

func TestStore_Contract(t *testing.T) {
	testutil.RunVocabularyStoreTests(t, New(zap.NewNop()))
}

func TestStore_Empty(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	_, err := s.FindIngredient(ctx, []string{"onion"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.FindAlias(ctx, []string{"green onion"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.FindTwoWordPhrase(ctx, []string{"olive oil"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.NoError(t, s.Close())
}

func TestStore_InvalidReplaceKeepsPrevious(t *testing.T) {
	s, err := NewWithVocabulary(testutil.SampleVocabulary(), zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	bad := &domain.Vocabulary{
		Ingredients: []domain.Ingredient{{ID: 1, Name: "basil"}},
		Aliases:     []domain.Alias{{ID: 1, Alias: "thai basil", IngredientID: 99}},
	}
	assert.ErrorIs(t, s.ReplaceVocabulary(ctx, bad), domain.ErrInvalidVocabulary)

	dup := &domain.Vocabulary{
		Ingredients: []domain.Ingredient{{ID: 1, Name: "basil"}, {ID: 1, Name: "mint"}},
	}
	assert.ErrorIs(t, s.ReplaceVocabulary(ctx, dup), domain.ErrInvalidVocabulary)
	assert.ErrorIs(t, s.ReplaceVocabulary(ctx, nil), domain.ErrInvalidVocabulary)

	ing, err := s.FindIngredient(ctx, []string{"quinoa"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), ing.ID)
}

func TestStore_CategoriesAreCopied(t *testing.T) {
	s, err := NewWithVocabulary(testutil.SampleVocabulary(), nil)
	require.NoError(t, err)

	cats, err := s.Categories(context.Background())
	require.NoError(t, err)
	cats[domain.CategoryProtein] = "meat"

	again, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "protein", again[domain.CategoryProtein])
}

func TestStore_CanceledContext(t *testing.T) {
	s, err := NewWithVocabulary(testutil.SampleVocabulary(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.FindIngredient(ctx, []string{"onion"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_ConcurrentReplace(t *testing.T) {
	s, err := NewWithVocabulary(testutil.SampleVocabulary(), nil)
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.ReplaceVocabulary(ctx, testutil.SampleVocabulary())
		}()
		go func() {
			defer wg.Done()
			ing, err := s.FindIngredient(ctx, []string{"onion"})
			if assert.NoError(t, err) {
				assert.Equal(t, int64(2), ing.ID)
			}
		}()
	}
	wg.Wait()
}
