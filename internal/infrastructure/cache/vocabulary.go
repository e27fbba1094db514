package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

const defaultLookupTTL = 10 * time.Minute

// Lookup kinds used in cache keys
const (
	lookupIngredient = "ingredient"
	lookupAlias      = "alias"
	lookupPhrase     = "phrase"
)

// lookupEntry is the cached outcome of one lookup; Found=false records a miss
type lookupEntry struct {
	Found      bool               `json:"found"`
	Ingredient *domain.Ingredient `json:"ingredient,omitempty"`
	Alias      *domain.AliasMatch `json:"alias,omitempty"`
	Phrase     string             `json:"phrase,omitempty"`
}

// clearer is implemented by cache backends that can drop all their keys
type clearer interface {
	Clear(ctx context.Context) error
}

// CachedVocabulary decorates a VocabularyRepository with a lookup cache.
// Hits and misses are cached; storage errors are not.
type CachedVocabulary struct {
	repo       domain.VocabularyRepository
	cache      domain.CacheRepository
	ttl        time.Duration
	generation atomic.Uint64
	logger     *zap.Logger
}

// NewCachedVocabulary wraps repo with cache. ttl defaults to 10 minutes.
func NewCachedVocabulary(repo domain.VocabularyRepository, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedVocabulary {
	if ttl <= 0 {
		ttl = defaultLookupTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedVocabulary{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("lookup-cache"),
	}
}

// FindIngredient implements domain.VocabularyRepository
func (c *CachedVocabulary) FindIngredient(ctx context.Context, names []string) (*domain.Ingredient, error) {
	entry, err := c.lookup(ctx, lookupIngredient, names, func() (lookupEntry, error) {
		ing, err := c.repo.FindIngredient(ctx, names)
		if err != nil {
			return lookupEntry{}, err
		}
		return lookupEntry{Found: true, Ingredient: ing}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry.Ingredient, nil
}

// FindAlias implements domain.VocabularyRepository
func (c *CachedVocabulary) FindAlias(ctx context.Context, texts []string) (*domain.AliasMatch, error) {
	entry, err := c.lookup(ctx, lookupAlias, texts, func() (lookupEntry, error) {
		am, err := c.repo.FindAlias(ctx, texts)
		if err != nil {
			return lookupEntry{}, err
		}
		return lookupEntry{Found: true, Alias: am}, nil
	})
	if err != nil {
		return nil, err
	}
	return entry.Alias, nil
}

// FindTwoWordPhrase implements domain.VocabularyRepository
func (c *CachedVocabulary) FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error) {
	entry, err := c.lookup(ctx, lookupPhrase, phrases, func() (lookupEntry, error) {
		phrase, err := c.repo.FindTwoWordPhrase(ctx, phrases)
		if err != nil {
			return lookupEntry{}, err
		}
		return lookupEntry{Found: true, Phrase: phrase}, nil
	})
	if err != nil {
		return "", err
	}
	return entry.Phrase, nil
}

// ReplaceVocabulary forwards to the wrapped store when it is a loader, then
// invalidates every cached lookup
func (c *CachedVocabulary) ReplaceVocabulary(ctx context.Context, vocab *domain.Vocabulary) error {
	loader, ok := c.repo.(domain.VocabularyLoader)
	if !ok {
		return fmt.Errorf("wrapped repository %T cannot load a vocabulary", c.repo)
	}
	if err := loader.ReplaceVocabulary(ctx, vocab); err != nil {
		return err
	}
	c.Invalidate(ctx)
	return nil
}

// Invalidate makes every previously cached lookup unreachable
func (c *CachedVocabulary) Invalidate(ctx context.Context) {
	c.generation.Add(1)
	if cl, ok := c.cache.(clearer); ok {
		if err := cl.Clear(ctx); err != nil {
			c.logger.Warn("failed to clear lookup cache", zap.Error(err))
		}
	}
}

func (c *CachedVocabulary) lookup(ctx context.Context, kind string, inputs []string, load func() (lookupEntry, error)) (lookupEntry, error) {
	key := c.cacheKey(kind, inputs)

	if data, err := c.cache.Get(ctx, key); err == nil {
		var entry lookupEntry
		if err := json.Unmarshal(data, &entry); err == nil {
			if !entry.Found {
				return lookupEntry{}, domain.ErrNotFound
			}
			return entry, nil
		}
		c.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
	}

	entry, err := load()
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return lookupEntry{}, err
		}
		entry = lookupEntry{Found: false}
	}

	c.store(ctx, key, entry)
	if !entry.Found {
		return lookupEntry{}, domain.ErrNotFound
	}
	return entry, nil
}

func (c *CachedVocabulary) store(ctx context.Context, key string, entry lookupEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("failed to encode cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// cacheKey is order-independent because every store breaks ties by lowest id
func (c *CachedVocabulary) cacheKey(kind string, inputs []string) string {
	normalized := make([]string, len(inputs))
	for i, in := range inputs {
		normalized[i] = strings.ToLower(strings.TrimSpace(in))
	}
	sort.Strings(normalized)
	return fmt.Sprintf("vocab:%d:%s:%s", c.generation.Load(), kind, strings.Join(normalized, "|"))
}
