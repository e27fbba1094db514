// Package memstore holds the whole vocabulary in memory. It backs the
// "file" database driver, where the vocabulary comes straight from the
// seed YAML and is swapped in place on reload.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

type phraseEntry struct {
	id     int64
	phrase string
}

// snapshot is immutable once built; lookups read it under the store's
// read lock and ReplaceVocabulary swaps the pointer.
type snapshot struct {
	categories  domain.CategoryTable
	ingredients map[string]domain.Ingredient
	aliases     map[string]domain.AliasMatch
	phrases     map[string]phraseEntry
	stats       domain.VocabularyStats
}

// Store is an in-memory vocabulary store
type Store struct {
	mu     sync.RWMutex
	snap   *snapshot
	logger *zap.Logger
}

var _ domain.VocabularyStore = (*Store)(nil)

// New creates an empty store
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{snap: &snapshot{}, logger: logger.Named("memstore")}
}

// NewWithVocabulary creates a store already holding vocab
func NewWithVocabulary(vocab *domain.Vocabulary, logger *zap.Logger) (*Store, error) {
	s := New(logger)
	if err := s.ReplaceVocabulary(context.Background(), vocab); err != nil {
		return nil, err
	}
	return s, nil
}

// ReplaceVocabulary builds indexes for vocab and swaps them in atomically.
// On error the previous vocabulary stays in place.
func (s *Store) ReplaceVocabulary(ctx context.Context, vocab *domain.Vocabulary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next, err := build(vocab)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()

	s.logger.Debug("vocabulary replaced",
		zap.Int("ingredients", next.stats.Ingredients),
		zap.Int("aliases", next.stats.Aliases),
		zap.Int("two_word_phrases", next.stats.TwoWordPhrases),
	)
	return nil
}

func build(vocab *domain.Vocabulary) (*snapshot, error) {
	if vocab == nil {
		return nil, fmt.Errorf("%w: nil vocabulary", domain.ErrInvalidVocabulary)
	}

	snap := &snapshot{
		categories:  make(domain.CategoryTable, len(vocab.Categories)),
		ingredients: make(map[string]domain.Ingredient, len(vocab.Ingredients)),
		aliases:     make(map[string]domain.AliasMatch, len(vocab.Aliases)),
		phrases:     make(map[string]phraseEntry, len(vocab.TwoWordPhrases)),
		stats: domain.VocabularyStats{
			Ingredients:    len(vocab.Ingredients),
			Aliases:        len(vocab.Aliases),
			TwoWordPhrases: len(vocab.TwoWordPhrases),
		},
	}
	for id, key := range vocab.Categories {
		snap.categories[id] = key
	}

	byID := make(map[int64]domain.Ingredient, len(vocab.Ingredients))
	for _, ing := range vocab.Ingredients {
		if _, dup := byID[ing.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate ingredient id %d", domain.ErrInvalidVocabulary, ing.ID)
		}
		byID[ing.ID] = ing

		key := domain.LookupKey(ing.Name)
		if cur, ok := snap.ingredients[key]; !ok || ing.ID < cur.ID {
			snap.ingredients[key] = ing
		}
	}

	for _, a := range vocab.AliasesWithIDs() {
		ing, ok := byID[a.IngredientID]
		if !ok {
			return nil, fmt.Errorf("%w: alias %q points at unknown ingredient %d", domain.ErrInvalidVocabulary, a.Alias, a.IngredientID)
		}
		key := domain.LookupKey(a.Alias)
		if cur, ok := snap.aliases[key]; !ok || a.ID < cur.Alias.ID {
			snap.aliases[key] = domain.AliasMatch{Alias: a, Ingredient: ing}
		}
	}

	for i, p := range vocab.TwoWordPhrases {
		key := domain.LookupKey(p)
		if _, ok := snap.phrases[key]; !ok {
			snap.phrases[key] = phraseEntry{id: int64(i + 1), phrase: p}
		}
	}
	return snap, nil
}

func (s *Store) current() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// FindIngredient returns the lowest-id ingredient whose name equals any of names
func (s *Store) FindIngredient(ctx context.Context, names []string) (*domain.Ingredient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.current()

	var best *domain.Ingredient
	for _, name := range names {
		if ing, ok := snap.ingredients[domain.LookupKey(name)]; ok && (best == nil || ing.ID < best.ID) {
			best = &ing
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

// FindAlias returns the lowest-id alias matching any of texts, joined with its ingredient
func (s *Store) FindAlias(ctx context.Context, texts []string) (*domain.AliasMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap := s.current()

	var best *domain.AliasMatch
	for _, text := range texts {
		if m, ok := snap.aliases[domain.LookupKey(text)]; ok && (best == nil || m.Alias.ID < best.Alias.ID) {
			best = &m
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

// FindTwoWordPhrase returns the stored spelling of the first-listed phrase matching any of phrases
func (s *Store) FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	snap := s.current()

	var best *phraseEntry
	for _, p := range phrases {
		if e, ok := snap.phrases[domain.LookupKey(p)]; ok && (best == nil || e.id < best.id) {
			best = &e
		}
	}
	if best == nil {
		return "", domain.ErrNotFound
	}
	return best.phrase, nil
}

// Categories returns a copy of the stored category table
func (s *Store) Categories(ctx context.Context) (domain.CategoryTable, error) {
	snap := s.current()
	out := make(domain.CategoryTable, len(snap.categories))
	for id, key := range snap.categories {
		out[id] = key
	}
	return out, nil
}

// Stats returns row counts for the loaded vocabulary
func (s *Store) Stats(ctx context.Context) (domain.VocabularyStats, error) {
	return s.current().stats, nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}
