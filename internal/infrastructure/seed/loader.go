// Package seed reads the controlled vocabulary from a YAML document.
package seed

import (
	"errors"
	"fmt"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/jinzhu/inflection"
	"gopkg.in/yaml.v3"

	"github.com/recipebox/backend/internal/domain"
)

// File is the on-disk layout of a vocabulary seed document
type File struct {
	Categories     map[int]string `yaml:"categories"`
	Ingredients    []Ingredient   `yaml:"ingredients"`
	Aliases        []Alias        `yaml:"aliases"`
	TwoWordPhrases []string       `yaml:"two_word_phrases"`
}

// Ingredient is one seed ingredient. Category is a category key such as
// "vegetable", resolved against the document's category table.
type Ingredient struct {
	ID       int64  `yaml:"id"`
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
}

// Alias points at its ingredient either by id or by name
type Alias struct {
	ID           int64  `yaml:"id"`
	Alias        string `yaml:"alias"`
	IngredientID int64  `yaml:"ingredient_id"`
	Ingredient   string `yaml:"ingredient"`
}

// Validate validates the ingredient against the known category keys.
func (i *Ingredient) Validate(categories []any) error {
	return validation.ValidateStruct(i,
		validation.Field(&i.ID, validation.Required, validation.Min(int64(1))),
		validation.Field(&i.Name, validation.Required, validation.By(notBlank)),
		validation.Field(&i.Category, validation.Required, validation.In(categories...)),
	)
}

// Validate validates the alias fields.
func (a *Alias) Validate() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.ID, validation.Min(int64(0))),
		validation.Field(&a.Alias, validation.Required, validation.By(notBlank)),
		validation.Field(&a.IngredientID, validation.Min(int64(0)),
			validation.When(a.Ingredient == "", validation.Required.Error("ingredient_id or ingredient is required"))),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("must not be blank")
	}
	return nil
}

// Load reads and validates a seed file. Warnings are non-fatal findings
// the caller should log.
func Load(path string) (*domain.Vocabulary, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	vocab, warnings, err := Parse(data)
	if err != nil {
		return nil, warnings, fmt.Errorf("seed file %s: %w", path, err)
	}
	return vocab, warnings, nil
}

// Parse decodes and validates a seed document
func Parse(data []byte) (*domain.Vocabulary, []string, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidVocabulary, err)
	}
	return file.Vocabulary()
}

// Vocabulary validates the document and converts it to a domain snapshot
func (f *File) Vocabulary() (*domain.Vocabulary, []string, error) {
	categories := domain.DefaultCategories()
	if len(f.Categories) > 0 {
		categories = make(domain.CategoryTable, len(f.Categories))
		for id, key := range f.Categories {
			key = strings.ToLower(strings.TrimSpace(key))
			if id <= 0 || key == "" {
				return nil, nil, invalid("categories: id %d must be positive with a non-empty key", id)
			}
			categories[id] = key
		}
	}

	categoryIDs := make(map[string]int, len(categories))
	keys := make([]any, 0, len(categories))
	for id, key := range categories {
		if existing, ok := categoryIDs[key]; !ok || id < existing {
			categoryIDs[key] = id
		}
		keys = append(keys, key)
	}

	var warnings []string
	vocab := &domain.Vocabulary{Categories: categories}
	byID := make(map[int64]bool, len(f.Ingredients))
	byName := make(map[string]int64, len(f.Ingredients))

	for i := range f.Ingredients {
		ing := &f.Ingredients[i]
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Category = strings.ToLower(strings.TrimSpace(ing.Category))
		if err := ing.Validate(keys); err != nil {
			return nil, warnings, invalid("ingredients[%d]: %v", i, err)
		}
		if byID[ing.ID] {
			return nil, warnings, invalid("ingredients[%d]: duplicate id %d", i, ing.ID)
		}
		byID[ing.ID] = true

		lower := strings.ToLower(ing.Name)
		if first, ok := byName[lower]; !ok || ing.ID < first {
			byName[lower] = ing.ID
		}
		if singular := inflection.Singular(lower); singular != lower {
			warnings = append(warnings, fmt.Sprintf("ingredient %d %q looks plural (singular %q)", ing.ID, ing.Name, singular))
		}

		vocab.Ingredients = append(vocab.Ingredients, domain.Ingredient{
			ID:         ing.ID,
			Name:       ing.Name,
			CategoryID: categoryIDs[ing.Category],
		})
	}

	var nextAliasID int64
	aliasIDs := make(map[int64]bool, len(f.Aliases))
	for _, a := range f.Aliases {
		if a.ID > nextAliasID {
			nextAliasID = a.ID
		}
	}
	for i := range f.Aliases {
		a := &f.Aliases[i]
		a.Alias = strings.TrimSpace(a.Alias)
		if err := a.Validate(); err != nil {
			return nil, warnings, invalid("aliases[%d]: %v", i, err)
		}

		target := a.IngredientID
		if target == 0 {
			id, ok := byName[strings.ToLower(strings.TrimSpace(a.Ingredient))]
			if !ok {
				return nil, warnings, invalid("aliases[%d]: unknown ingredient %q", i, a.Ingredient)
			}
			target = id
		} else if !byID[target] {
			return nil, warnings, invalid("aliases[%d]: unknown ingredient_id %d", i, target)
		}

		id := a.ID
		if id == 0 {
			nextAliasID++
			id = nextAliasID
		}
		if aliasIDs[id] {
			return nil, warnings, invalid("aliases[%d]: duplicate id %d", i, id)
		}
		aliasIDs[id] = true

		if _, ok := byName[strings.ToLower(a.Alias)]; ok {
			warnings = append(warnings, fmt.Sprintf("alias %q shadows an ingredient name and is never reached", a.Alias))
		}
		vocab.Aliases = append(vocab.Aliases, domain.Alias{ID: id, Alias: a.Alias, IngredientID: target})
	}

	seen := make(map[string]bool, len(f.TwoWordPhrases))
	for i, phrase := range f.TwoWordPhrases {
		words := strings.Fields(phrase)
		if len(words) != 2 {
			return nil, warnings, invalid("two_word_phrases[%d]: %q must be exactly two words", i, phrase)
		}
		normalized := strings.Join(words, " ")
		if seen[strings.ToLower(normalized)] {
			warnings = append(warnings, fmt.Sprintf("two-word phrase %q is listed twice", normalized))
			continue
		}
		seen[strings.ToLower(normalized)] = true
		vocab.TwoWordPhrases = append(vocab.TwoWordPhrases, normalized)
	}

	return vocab, warnings, nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidVocabulary, fmt.Sprintf(format, args...))
}
