// Package postgres provides the PostgreSQL-backed vocabulary store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

// Config holds connection pool settings
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store is a vocabulary store over a pgx connection pool
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Open creates the connection pool and verifies connectivity. Call Migrate
// first so the schema exists.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConnections
	if poolConfig.MaxConns == 0 {
		poolConfig.MaxConns = 10
	}
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	if poolConfig.MaxConnLifetime == 0 {
		poolConfig.MaxConnLifetime = time.Hour
	}
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	if poolConfig.MaxConnIdleTime == 0 {
		poolConfig.MaxConnIdleTime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool, logger: logger.Named("postgres")}, nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// lookupKeys folds values the way ReplaceVocabulary fills the *_key columns
func lookupKeys(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = domain.LookupKey(v)
	}
	return out
}

// FindIngredient returns the lowest-id ingredient whose name matches any of names
func (s *Store) FindIngredient(ctx context.Context, names []string) (*domain.Ingredient, error) {
	if len(names) == 0 {
		return nil, domain.ErrNotFound
	}

	var ing domain.Ingredient
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, category_id
		FROM ingredients
		WHERE name_key = ANY($1)
		ORDER BY id
		LIMIT 1
	`, lookupKeys(names)).Scan(&ing.ID, &ing.Name, &ing.CategoryID)
	if err != nil {
		return nil, lookupError(err, "find ingredient")
	}
	return &ing, nil
}

// FindAlias returns the lowest-id alias matching any of texts, joined with its ingredient
func (s *Store) FindAlias(ctx context.Context, texts []string) (*domain.AliasMatch, error) {
	if len(texts) == 0 {
		return nil, domain.ErrNotFound
	}

	var m domain.AliasMatch
	err := s.pool.QueryRow(ctx, `
		SELECT a.id, a.alias, a.ingredient_id, i.id, i.name, i.category_id
		FROM aliases a
		JOIN ingredients i ON i.id = a.ingredient_id
		WHERE a.alias_key = ANY($1)
		ORDER BY a.id
		LIMIT 1
	`, lookupKeys(texts)).Scan(&m.Alias.ID, &m.Alias.Alias, &m.Alias.IngredientID,
		&m.Ingredient.ID, &m.Ingredient.Name, &m.Ingredient.CategoryID)
	if err != nil {
		return nil, lookupError(err, "find alias")
	}
	return &m, nil
}

// FindTwoWordPhrase returns the lowest-id stored phrase matching any of phrases
func (s *Store) FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error) {
	if len(phrases) == 0 {
		return "", domain.ErrNotFound
	}

	var phrase string
	err := s.pool.QueryRow(ctx, `
		SELECT phrase
		FROM two_word_phrases
		WHERE phrase_key = ANY($1)
		ORDER BY id
		LIMIT 1
	`, lookupKeys(phrases)).Scan(&phrase)
	if err != nil {
		return "", lookupError(err, "find two-word phrase")
	}
	return phrase, nil
}

// Categories returns the stored category table
func (s *Store) Categories(ctx context.Context) (domain.CategoryTable, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list categories: %w", err)
	}
	defer rows.Close()

	table := domain.CategoryTable{}
	for rows.Next() {
		var id int
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return nil, err
		}
		table[id] = key
	}
	return table, rows.Err()
}

// Stats counts stored rows
func (s *Store) Stats(ctx context.Context) (domain.VocabularyStats, error) {
	var stats domain.VocabularyStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ingredients),
			(SELECT COUNT(*) FROM aliases),
			(SELECT COUNT(*) FROM two_word_phrases)
	`).Scan(&stats.Ingredients, &stats.Aliases, &stats.TwoWordPhrases)
	if err != nil {
		return stats, fmt.Errorf("postgres: stats: %w", err)
	}
	return stats, nil
}

// ReplaceVocabulary swaps the stored vocabulary for vocab in one transaction
func (s *Store) ReplaceVocabulary(ctx context.Context, vocab *domain.Vocabulary) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE aliases, two_word_phrases, ingredients, categories`); err != nil {
		return fmt.Errorf("postgres: truncate vocabulary: %w", err)
	}

	batch := &pgx.Batch{}
	for id, key := range vocab.Categories {
		batch.Queue(`INSERT INTO categories (id, name) VALUES ($1, $2)`, id, key)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: insert categories: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"ingredients"}, []string{"id", "name", "name_key", "category_id"},
		pgx.CopyFromSlice(len(vocab.Ingredients), func(i int) ([]any, error) {
			ing := vocab.Ingredients[i]
			return []any{ing.ID, ing.Name, domain.LookupKey(ing.Name), ing.CategoryID}, nil
		}))
	if err != nil {
		return fmt.Errorf("postgres: copy ingredients: %w", err)
	}

	aliases := vocab.AliasesWithIDs()
	_, err = tx.CopyFrom(ctx, pgx.Identifier{"aliases"}, []string{"id", "alias", "alias_key", "ingredient_id"},
		pgx.CopyFromSlice(len(aliases), func(i int) ([]any, error) {
			a := aliases[i]
			return []any{a.ID, a.Alias, domain.LookupKey(a.Alias), a.IngredientID}, nil
		}))
	if err != nil {
		return fmt.Errorf("postgres: copy aliases: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"two_word_phrases"}, []string{"id", "phrase", "phrase_key"},
		pgx.CopyFromSlice(len(vocab.TwoWordPhrases), func(i int) ([]any, error) {
			p := vocab.TwoWordPhrases[i]
			return []any{int64(i + 1), p, domain.LookupKey(p)}, nil
		}))
	if err != nil {
		return fmt.Errorf("postgres: copy two-word phrases: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	s.logger.Info("vocabulary replaced",
		zap.Int("ingredients", len(vocab.Ingredients)),
		zap.Int("aliases", len(vocab.Aliases)),
		zap.Int("two_word_phrases", len(vocab.TwoWordPhrases)),
	)
	return nil
}

func lookupError(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("postgres: %s: %w: %w", op, domain.ErrStorageFailure, err)
}
