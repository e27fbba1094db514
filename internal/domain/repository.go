package domain

import (
	"context"
	"time"
)

// VocabularyRepository is the read-only view of the controlled vocabulary
// the matching engine needs. Every lookup takes a set of candidate strings,
// compares them case-insensitively, and returns the row with the lowest id
// among all hits, or ErrNotFound.
type VocabularyRepository interface {
	FindIngredient(ctx context.Context, names []string) (*Ingredient, error)
	FindAlias(ctx context.Context, texts []string) (*AliasMatch, error)
	FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error)
}

// VocabularyLoader replaces the stored vocabulary with a new snapshot
type VocabularyLoader interface {
	ReplaceVocabulary(ctx context.Context, vocab *Vocabulary) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// VocabularyStats counts the rows of a stored vocabulary
type VocabularyStats struct {
	Ingredients    int `json:"ingredients"`
	Aliases        int `json:"aliases"`
	TwoWordPhrases int `json:"two_word_phrases"`
}

// VocabularyStore is a complete vocabulary backend: lookups, loading,
// the stored category table, and row counts
type VocabularyStore interface {
	VocabularyRepository
	VocabularyLoader
	Categories(ctx context.Context) (CategoryTable, error)
	Stats(ctx context.Context) (VocabularyStats, error)
	Close() error
}
