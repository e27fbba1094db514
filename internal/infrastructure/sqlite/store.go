// Package sqlite provides the SQLite-backed vocabulary store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

// Lookups compare the *_key columns, which ReplaceVocabulary fills with
// domain.LookupKey. SQLite's lower() folds ASCII only.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS categories (
	id  INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS ingredients (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL,
	name_key    TEXT NOT NULL DEFAULT '',
	category_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS aliases (
	id            INTEGER PRIMARY KEY,
	alias         TEXT NOT NULL,
	alias_key     TEXT NOT NULL DEFAULT '',
	ingredient_id INTEGER NOT NULL REFERENCES ingredients(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS two_word_phrases (
	id         INTEGER PRIMARY KEY,
	phrase     TEXT NOT NULL UNIQUE,
	phrase_key TEXT NOT NULL DEFAULT ''
);
`

const indexSQL = `
CREATE INDEX IF NOT EXISTS idx_ingredients_name_key ON ingredients(name_key);
CREATE INDEX IF NOT EXISTS idx_aliases_alias_key ON aliases(alias_key);
CREATE INDEX IF NOT EXISTS idx_two_word_phrases_phrase_key ON two_word_phrases(phrase_key);
`

// keyColumns lists the lookup key column of each table and its source column
var keyColumns = []struct{ table, key, source string }{
	{"ingredients", "name_key", "name"},
	{"aliases", "alias_key", "alias"},
	{"two_word_phrases", "phrase_key", "phrase"},
}

// Store is a vocabulary store over a single SQLite file
type Store struct {
	conn   *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the SQLite database at path and applies the schema
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	s := &Store{conn: conn, logger: logger.Named("sqlite")}
	if err := s.addKeyColumns(); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(indexSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: create indexes: %w", err)
	}
	return s, nil
}

// addKeyColumns upgrades databases created before the key columns existed
// and fills the new columns from the stored rows
func (s *Store) addKeyColumns() error {
	for _, c := range keyColumns {
		var n int
		err := s.conn.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, c.table, c.key).Scan(&n)
		if err != nil {
			return fmt.Errorf("sqlite: inspect %s: %w", c.table, err)
		}
		if n > 0 {
			continue
		}

		if _, err := s.conn.Exec(`ALTER TABLE ` + c.table + ` ADD COLUMN ` + c.key + ` TEXT NOT NULL DEFAULT ''`); err != nil {
			return fmt.Errorf("sqlite: add %s.%s: %w", c.table, c.key, err)
		}
		if err := s.backfillKeys(c.table, c.key, c.source); err != nil {
			return err
		}
		s.logger.Info("added lookup key column", zap.String("table", c.table), zap.String("column", c.key))
	}
	return nil
}

func (s *Store) backfillKeys(table, key, source string) error {
	rows, err := s.conn.Query(`SELECT id, ` + source + ` FROM ` + table)
	if err != nil {
		return fmt.Errorf("sqlite: read %s: %w", table, err)
	}
	keys := make(map[int64]string)
	for rows.Next() {
		var id int64
		var value string
		if err := rows.Scan(&id, &value); err != nil {
			rows.Close()
			return err
		}
		keys[id] = domain.LookupKey(value)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for id, k := range keys {
		if _, err := s.conn.Exec(`UPDATE `+table+` SET `+key+` = ? WHERE id = ?`, k, id); err != nil {
			return fmt.Errorf("sqlite: backfill %s.%s: %w", table, key, err)
		}
	}
	return nil
}

// Close closes the underlying database connection
func (s *Store) Close() error {
	return s.conn.Close()
}

// placeholders returns "?, ?, ..." for n values and the lower-cased args
func placeholders(values []string) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = domain.LookupKey(v)
	}
	return strings.Join(marks, ", "), args
}

// FindIngredient returns the lowest-id ingredient whose name matches any of names
func (s *Store) FindIngredient(ctx context.Context, names []string) (*domain.Ingredient, error) {
	if len(names) == 0 {
		return nil, domain.ErrNotFound
	}
	marks, args := placeholders(names)

	var ing domain.Ingredient
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, name, category_id
		FROM ingredients
		WHERE name_key IN (`+marks+`)
		ORDER BY id
		LIMIT 1
	`, args...).Scan(&ing.ID, &ing.Name, &ing.CategoryID)
	if err != nil {
		return nil, notFound(err, "find ingredient")
	}
	return &ing, nil
}

// FindAlias returns the lowest-id alias matching any of texts, joined with its ingredient
func (s *Store) FindAlias(ctx context.Context, texts []string) (*domain.AliasMatch, error) {
	if len(texts) == 0 {
		return nil, domain.ErrNotFound
	}
	marks, args := placeholders(texts)

	var m domain.AliasMatch
	err := s.conn.QueryRowContext(ctx, `
		SELECT a.id, a.alias, a.ingredient_id, i.id, i.name, i.category_id
		FROM aliases a
		JOIN ingredients i ON i.id = a.ingredient_id
		WHERE a.alias_key IN (`+marks+`)
		ORDER BY a.id
		LIMIT 1
	`, args...).Scan(&m.Alias.ID, &m.Alias.Alias, &m.Alias.IngredientID,
		&m.Ingredient.ID, &m.Ingredient.Name, &m.Ingredient.CategoryID)
	if err != nil {
		return nil, notFound(err, "find alias")
	}
	return &m, nil
}

// FindTwoWordPhrase returns the lowest-id stored phrase matching any of phrases
func (s *Store) FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error) {
	if len(phrases) == 0 {
		return "", domain.ErrNotFound
	}
	marks, args := placeholders(phrases)

	var phrase string
	err := s.conn.QueryRowContext(ctx, `
		SELECT phrase
		FROM two_word_phrases
		WHERE phrase_key IN (`+marks+`)
		ORDER BY id
		LIMIT 1
	`, args...).Scan(&phrase)
	if err != nil {
		return "", notFound(err, "find two-word phrase")
	}
	return phrase, nil
}

// Categories returns the stored category table
func (s *Store) Categories(ctx context.Context) (domain.CategoryTable, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list categories: %w", err)
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
	err := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ingredients),
			(SELECT COUNT(*) FROM aliases),
			(SELECT COUNT(*) FROM two_word_phrases)
	`).Scan(&stats.Ingredients, &stats.Aliases, &stats.TwoWordPhrases)
	if err != nil {
		return stats, fmt.Errorf("sqlite: stats: %w", err)
	}
	return stats, nil
}

// ReplaceVocabulary swaps the stored vocabulary for vocab in one transaction
func (s *Store) ReplaceVocabulary(ctx context.Context, vocab *domain.Vocabulary) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"aliases", "two_word_phrases", "ingredients", "categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("sqlite: clear %s: %w", table, err)
		}
	}

	for id, key := range vocab.Categories {
		if _, err := tx.ExecContext(ctx, `INSERT INTO categories (id, name) VALUES (?, ?)`, id, key); err != nil {
			return fmt.Errorf("sqlite: insert category %d: %w", id, err)
		}
	}
	for _, ing := range vocab.Ingredients {
		if _, err := tx.ExecContext(ctx, `INSERT INTO ingredients (id, name, name_key, category_id) VALUES (?, ?, ?, ?)`,
			ing.ID, ing.Name, domain.LookupKey(ing.Name), ing.CategoryID); err != nil {
			return fmt.Errorf("sqlite: insert ingredient %d: %w", ing.ID, err)
		}
	}
	for _, a := range vocab.AliasesWithIDs() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO aliases (id, alias, alias_key, ingredient_id) VALUES (?, ?, ?, ?)`,
			a.ID, a.Alias, domain.LookupKey(a.Alias), a.IngredientID); err != nil {
			return fmt.Errorf("sqlite: insert alias %q: %w", a.Alias, err)
		}
	}
	for i, p := range vocab.TwoWordPhrases {
		if _, err := tx.ExecContext(ctx, `INSERT INTO two_word_phrases (id, phrase, phrase_key) VALUES (?, ?, ?)`,
			int64(i+1), p, domain.LookupKey(p)); err != nil {
			return fmt.Errorf("sqlite: insert phrase %q: %w", p, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}

	s.logger.Info("vocabulary replaced",
		zap.Int("ingredients", len(vocab.Ingredients)),
		zap.Int("aliases", len(vocab.Aliases)),
		zap.Int("two_word_phrases", len(vocab.TwoWordPhrases)),
	)
	return nil
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return fmt.Errorf("sqlite: %s: %w: %w", op, domain.ErrStorageFailure, err)
}
