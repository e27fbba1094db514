package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
)

// Lookup strategy names, in precedence order
const (
	StrategyExactName     = "exact_name"
	StrategyNameVariants  = "name_variants"
	StrategyTwoWordPhrase = "two_word_phrase"
	StrategyAliasExact    = "alias_exact"
	StrategyAliasVariants = "alias_variants"
)

// lookupStrategy is one step of the matcher's precedence chain. resolve
// returns domain.ErrNotFound on a miss.
type lookupStrategy struct {
	name    string
	resolve func(ctx context.Context, phrase string) (*domain.MatchResult, error)
}

// MatcherConfig holds configuration for the vocabulary matcher
type MatcherConfig struct {
	Categories         *domain.CategoryRegistry
	EnableDebugLogging bool
}

// VocabularyMatcher resolves candidate phrases against the controlled vocabulary
type VocabularyMatcher struct {
	repo               domain.VocabularyRepository
	categories         *domain.CategoryRegistry
	strategies         []lookupStrategy
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewVocabularyMatcher creates a new matcher over the given repository
func NewVocabularyMatcher(repo domain.VocabularyRepository, config MatcherConfig, logger *zap.Logger) *VocabularyMatcher {
	if config.Categories == nil {
		config.Categories = domain.NewCategoryRegistry(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &VocabularyMatcher{
		repo:               repo,
		categories:         config.Categories,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.Named("matcher"),
	}
	m.strategies = []lookupStrategy{
		{name: StrategyExactName, resolve: m.exactName},
		{name: StrategyNameVariants, resolve: m.nameVariant},
		{name: StrategyTwoWordPhrase, resolve: m.twoWordPhrase},
		{name: StrategyAliasExact, resolve: m.aliasExact},
		{name: StrategyAliasVariants, resolve: m.aliasVariant},
	}
	return m
}

// Strategies returns the lookup strategy names in the order they are tried
func (m *VocabularyMatcher) Strategies() []string {
	names := make([]string, len(m.strategies))
	for i, s := range m.strategies {
		names[i] = s.name
	}
	return names
}

// Match resolves one phrase. A miss is reported as domain.ErrNotFound;
// storage failures inside a strategy are logged and count as a miss for
// that strategy. Only context errors are returned otherwise.
func (m *VocabularyMatcher) Match(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	phrase = normalizePhrase(phrase)
	if phrase == "" {
		return nil, domain.ErrNotFound
	}

	for _, s := range m.strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := s.resolve(ctx, phrase)
		if err == nil {
			result.Candidate = phrase
			if m.enableDebugLogging {
				m.logger.Debug("phrase matched",
					zap.String("phrase", phrase),
					zap.String("strategy", s.name),
					zap.Int64("ingredient_id", result.IngredientID),
				)
			}
			return result, nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		m.logger.Warn("vocabulary lookup failed, treating as miss",
			zap.String("phrase", phrase),
			zap.String("strategy", s.name),
			zap.Error(err),
		)
	}

	if m.enableDebugLogging {
		m.logger.Debug("phrase unmatched", zap.String("phrase", phrase))
	}
	return nil, domain.ErrNotFound
}

func (m *VocabularyMatcher) exactName(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	ing, err := m.repo.FindIngredient(ctx, []string{phrase})
	if err != nil {
		return nil, err
	}
	return m.newMatch(ing, domain.MatchKindExact, ""), nil
}

func (m *VocabularyMatcher) nameVariant(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	variants := nameVariants(phrase)
	if len(variants) == 0 {
		return nil, domain.ErrNotFound
	}
	ing, err := m.repo.FindIngredient(ctx, variants)
	if err != nil {
		return nil, err
	}
	return m.newMatch(ing, domain.MatchKindExact, ""), nil
}

// twoWordPhrase maps the phrase through the phrase table, then resolves the
// canonical name exactly and by its own variants
func (m *VocabularyMatcher) twoWordPhrase(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	canonical, err := m.repo.FindTwoWordPhrase(ctx, []string{phrase})
	if err != nil {
		return nil, err
	}
	canonical = normalizePhrase(canonical)

	result, err := m.exactName(ctx, canonical)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return result, err
	}
	return m.nameVariant(ctx, canonical)
}

func (m *VocabularyMatcher) aliasExact(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	am, err := m.repo.FindAlias(ctx, []string{phrase})
	if err != nil {
		return nil, err
	}
	return m.newMatch(&am.Ingredient, domain.MatchKindAlias, am.Alias.Alias), nil
}

func (m *VocabularyMatcher) aliasVariant(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	variants := aliasVariants(phrase)
	if len(variants) == 0 {
		return nil, domain.ErrNotFound
	}
	am, err := m.repo.FindAlias(ctx, variants)
	if err != nil {
		return nil, err
	}
	return m.newMatch(&am.Ingredient, domain.MatchKindAlias, am.Alias.Alias), nil
}

func (m *VocabularyMatcher) newMatch(ing *domain.Ingredient, kind domain.MatchKind, alias string) *domain.MatchResult {
	return &domain.MatchResult{
		IngredientID: ing.ID,
		Name:         ing.Name,
		CategoryID:   ing.CategoryID,
		Category:     m.categories.Table().Key(ing.CategoryID),
		Kind:         kind,
		MatchedAlias: alias,
	}
}
