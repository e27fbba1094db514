package usecase

import (
	"context"
	"strings"
	"sync"

	"github.com/recipebox/backend/internal/domain"
)

// MockVocabularyRepository is an in-memory mock of domain.VocabularyRepository
type MockVocabularyRepository struct {
	mu          sync.Mutex
	ingredients []domain.Ingredient
	aliases     []domain.Alias
	phrases     map[string]string

	ingredientErr error
	aliasErr      error
	phraseErr     error

	ingredientCalls [][]string
	aliasCalls      [][]string
	phraseCalls     [][]string
}

func NewMockVocabularyRepository() *MockVocabularyRepository {
	return &MockVocabularyRepository{phrases: make(map[string]string)}
}

func (m *MockVocabularyRepository) addIngredient(id int64, name string, category int) *MockVocabularyRepository {
	m.ingredients = append(m.ingredients, domain.Ingredient{ID: id, Name: name, CategoryID: category})
	return m
}

func (m *MockVocabularyRepository) addAlias(id int64, alias string, ingredientID int64) *MockVocabularyRepository {
	m.aliases = append(m.aliases, domain.Alias{ID: id, Alias: alias, IngredientID: ingredientID})
	return m
}

func (m *MockVocabularyRepository) addPhrase(phrase string) *MockVocabularyRepository {
	m.phrases[strings.ToLower(phrase)] = phrase
	return m
}

func lowerSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = true
	}
	return set
}

func (m *MockVocabularyRepository) FindIngredient(ctx context.Context, names []string) (*domain.Ingredient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingredientCalls = append(m.ingredientCalls, names)
	if m.ingredientErr != nil {
		return nil, m.ingredientErr
	}
	return m.lowestIngredient(lowerSet(names))
}

func (m *MockVocabularyRepository) lowestIngredient(names map[string]bool) (*domain.Ingredient, error) {
	var best *domain.Ingredient
	for i := range m.ingredients {
		ing := m.ingredients[i]
		if names[strings.ToLower(ing.Name)] && (best == nil || ing.ID < best.ID) {
			best = &ing
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (m *MockVocabularyRepository) FindAlias(ctx context.Context, texts []string) (*domain.AliasMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.aliasCalls = append(m.aliasCalls, texts)
	if m.aliasErr != nil {
		return nil, m.aliasErr
	}

	set := lowerSet(texts)
	var best *domain.Alias
	for i := range m.aliases {
		a := m.aliases[i]
		if set[strings.ToLower(a.Alias)] && (best == nil || a.ID < best.ID) {
			best = &a
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	for _, ing := range m.ingredients {
		if ing.ID == best.IngredientID {
			return &domain.AliasMatch{Alias: *best, Ingredient: ing}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockVocabularyRepository) FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.phraseCalls = append(m.phraseCalls, phrases)
	if m.phraseErr != nil {
		return "", m.phraseErr
	}
	for _, p := range phrases {
		if canonical, ok := m.phrases[strings.ToLower(p)]; ok {
			return canonical, nil
		}
	}
	return "", domain.ErrNotFound
}

// testVocabulary is a small vocabulary shared by the usecase tests
func testVocabulary() *MockVocabularyRepository {
	return NewMockVocabularyRepository().
		addIngredient(1, "chicken broth", domain.CategoryOther).
		addIngredient(2, "onion", domain.CategoryVegetable).
		addIngredient(3, "quinoa", domain.CategoryGrain).
		addIngredient(4, "brown rice", domain.CategoryGrain).
		addIngredient(5, "garlic", domain.CategorySpice).
		addIngredient(6, "berry", domain.CategoryFruit).
		addIngredient(7, "potato", domain.CategoryVegetable).
		addIngredient(8, "red onion", domain.CategoryVegetable).
		addIngredient(9, "olive oil", domain.CategoryOther).
		addIngredient(10, "chicken", domain.CategoryProtein).
		addIngredient(11, "cherry", domain.CategoryFruit).
		addIngredient(12, "scallion", domain.CategoryVegetable).
		addIngredient(13, "cilantro", domain.CategorySpice).
		addAlias(1, "green onion", 12).
		addAlias(2, "coriander leaf", 13).
		addPhrase("chicken broth").
		addPhrase("olive oil")
}
