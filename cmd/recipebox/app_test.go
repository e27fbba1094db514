package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/recipebox/backend/config"
	"github.com/recipebox/backend/internal/infrastructure/seed"
)

const seedWithCategories = `categories:
  1: protein
  2: %s
  7: other
ingredients:
  - {id: 1, name: chicken, category: protein}
  - {id: 2, name: onion, category: %s}
two_word_phrases:
  - chicken broth
`

func seedDocument(vegetableKey string) []byte {
	return []byte(fmt.Sprintf(seedWithCategories, vegetableKey, vegetableKey))
}

func fileApp(t *testing.T, seedFile string) *app {
	t.Helper()
	a := &app{
		cfg: &config.Config{
			Database:   config.DatabaseConfig{Driver: config.DriverFile},
			Vocabulary: config.VocabularyConfig{SeedFile: seedFile, Watch: true},
			Cache:      config.CacheConfig{Type: config.CacheMemory, TTL: time.Minute},
		},
		logger: zap.NewNop(),
	}
	require.NoError(t, a.openStore(context.Background()))
	a.buildSearch()
	t.Cleanup(func() { a.Close() })
	return a
}

func TestApp_FileDriverUsesSeedCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	require.NoError(t, os.WriteFile(path, seedDocument("veg"), 0o644))
	a := fileApp(t, path)

	result, err := a.search.SearchIngredients(context.Background(), []string{"2 onions", "1 lb chicken"})
	require.NoError(t, err)
	assert.Len(t, result.Matched.Get("veg"), 1)
	assert.Len(t, result.Matched.Get("protein"), 1)
}

func TestApp_WatchReloadRegroupsByNewCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocabulary.yaml")
	require.NoError(t, os.WriteFile(path, seedDocument("vegetable"), 0o644))
	a := fileApp(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- seed.Watch(ctx, path, a.logger, a.replaceVocabulary)
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	lines := []string{"3 onions"}
	before, err := a.search.SearchIngredients(ctx, lines)
	require.NoError(t, err)
	require.Len(t, before.Matched.Get("vegetable"), 1)

	require.NoError(t, os.WriteFile(path, seedDocument("produce"), 0o644))

	assert.Eventually(t, func() bool {
		result, err := a.search.SearchIngredients(ctx, lines)
		if err != nil {
			return false
		}
		got := result.Matched.Get("produce")
		return len(got) == 1 && got[0].Category == "produce" && len(result.Matched.Get("vegetable")) == 0
	}, 5*time.Second, 50*time.Millisecond)

	match, err := a.search.MatchPhrase(ctx, "onion")
	require.NoError(t, err)
	assert.Equal(t, "produce", match.Category)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}
