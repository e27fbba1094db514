package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/recipebox/backend/internal/domain"
)

// Extractor produces candidate groups for one raw line
type Extractor interface {
	Extract(ctx context.Context, line string) Extraction
}

// PhraseMatcher resolves one candidate phrase, returning domain.ErrNotFound on a miss
type PhraseMatcher interface {
	Match(ctx context.Context, phrase string) (*domain.MatchResult, error)
}

// SearchConfig holds configuration for the ingredient search service
type SearchConfig struct {
	BatchSize     int
	MaxCandidates int
	BatchWorkers  int
	Timeout       time.Duration
	Categories    *domain.CategoryRegistry
}

// IngredientSearchService drives extraction and matching over a list of
// recipe lines and assembles the grouped matched/unmatched partition
type IngredientSearchService struct {
	extractor     Extractor
	matcher       PhraseMatcher
	batchSize     int
	maxCandidates int
	batchWorkers  int
	timeout       time.Duration
	categories    *domain.CategoryRegistry
	logger        *zap.Logger
}

// NewIngredientSearchService creates a new search service
func NewIngredientSearchService(extractor Extractor, matcher PhraseMatcher, config SearchConfig, logger *zap.Logger) *IngredientSearchService {
	if config.BatchSize <= 0 {
		config.BatchSize = 5
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 3
	}
	if config.BatchWorkers <= 0 {
		config.BatchWorkers = 1
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.Categories == nil {
		config.Categories = domain.NewCategoryRegistry(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IngredientSearchService{
		extractor:     extractor,
		matcher:       matcher,
		batchSize:     config.BatchSize,
		maxCandidates: config.MaxCandidates,
		batchWorkers:  config.BatchWorkers,
		timeout:       config.Timeout,
		categories:    config.Categories,
		logger:        logger.Named("search"),
	}
}

// batchOutcome is what one batch contributes to the final result
type batchOutcome struct {
	matched   []domain.MatchResult
	unmatched []string
}

// SearchIngredients matches every non-blank line. The whole call fails with
// domain.ErrSearchTimeout once the configured timeout passes; no partial
// result is returned.
func (s *IngredientSearchService) SearchIngredients(ctx context.Context, lines []string) (*domain.SearchResult, error) {
	if lines == nil {
		return nil, fmt.Errorf("%w: ingredients must be an array", domain.ErrInvalidRequest)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	batches := partition(nonBlank(lines), s.batchSize)
	outcomes := make([]batchOutcome, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.batchWorkers)
	for i, batch := range batches {
		g.Go(func() error {
			outcome, err := s.processBatch(gctx, i, batch)
			if err != nil {
				return err
			}
			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("ingredient search timed out",
				zap.Int("lines", len(lines)),
				zap.Duration("timeout", s.timeout),
			)
			return nil, domain.ErrSearchTimeout
		}
		return nil, err
	}

	var matched []domain.MatchResult
	unmatched := []string{}
	for _, outcome := range outcomes {
		matched = append(matched, outcome.matched...)
		unmatched = append(unmatched, outcome.unmatched...)
	}

	deduped := dedupeByIngredient(matched)
	result := &domain.SearchResult{
		Matched:        groupByCategory(deduped, s.categories.Table()),
		Unmatched:      unmatched,
		TotalMatched:   len(deduped),
		TotalUnmatched: len(unmatched),
	}

	s.logger.Info("ingredient search completed",
		zap.Int("lines", len(lines)),
		zap.Int("batches", len(batches)),
		zap.Int("matched", result.TotalMatched),
		zap.Int("unmatched", result.TotalUnmatched),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// processBatch handles lines in order. A panic anywhere in the batch
// marks all of its lines unmatched; context errors abort the search.
func (s *IngredientSearchService) processBatch(ctx context.Context, index int, lines []string) (outcome batchOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("batch failed, marking all lines unmatched",
				zap.Int("batch", index),
				zap.Int("lines", len(lines)),
				zap.Any("panic", r),
			)
			outcome = batchOutcome{unmatched: append([]string(nil), lines...)}
			err = nil
		}
	}()

	for _, line := range lines {
		if err := ctx.Err(); err != nil {
			return batchOutcome{}, err
		}

		matches, lineErr := s.processLine(ctx, line)
		if lineErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return batchOutcome{}, ctxErr
			}
			s.logger.Error("line failed, marking unmatched",
				zap.Int("batch", index),
				zap.String("line", line),
				zap.Error(lineErr),
			)
			outcome.unmatched = append(outcome.unmatched, line)
			continue
		}

		if len(matches) == 0 {
			outcome.unmatched = append(outcome.unmatched, line)
			continue
		}
		outcome.matched = append(outcome.matched, matches...)
	}
	return outcome, nil
}

// processLine tries each candidate group in order; the first hit in a group
// wins and the remaining candidates of that group are skipped
func (s *IngredientSearchService) processLine(ctx context.Context, line string) ([]domain.MatchResult, error) {
	extraction := s.extractor.Extract(ctx, line)

	var matches []domain.MatchResult
	for _, group := range extraction.Groups {
		if len(group) > s.maxCandidates {
			group = group[:s.maxCandidates]
		}
		for _, candidate := range group {
			result, err := s.matcher.Match(ctx, candidate)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, err
			}
			match := *result
			match.SourceLine = line
			match.Candidate = candidate
			matches = append(matches, match)
			break
		}
	}
	return matches, nil
}

// Extract exposes the extraction step for every non-blank line
func (s *IngredientSearchService) Extract(ctx context.Context, lines []string) ([]Extraction, error) {
	if lines == nil {
		return nil, fmt.Errorf("%w: ingredients must be an array", domain.ErrInvalidRequest)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	out := make([]Extraction, 0, len(lines))
	for _, line := range nonBlank(lines) {
		if err := ctx.Err(); err != nil {
			return nil, domain.ErrSearchTimeout
		}
		out = append(out, s.extractor.Extract(ctx, line))
	}
	return out, nil
}

// MatchPhrase resolves a single phrase without extraction
func (s *IngredientSearchService) MatchPhrase(ctx context.Context, phrase string) (*domain.MatchResult, error) {
	if strings.TrimSpace(phrase) == "" {
		return nil, fmt.Errorf("%w: phrase is required", domain.ErrInvalidRequest)
	}
	result, err := s.matcher.Match(ctx, phrase)
	if err != nil {
		return nil, err
	}
	result.Category = s.categories.Table().Key(result.CategoryID)
	return result, nil
}

func nonBlank(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

func partition(lines []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(lines); start += size {
		end := start + size
		if end > len(lines) {
			end = len(lines)
		}
		batches = append(batches, lines[start:end])
	}
	return batches
}

// dedupeByIngredient keeps the first match for each ingredient id
func dedupeByIngredient(matches []domain.MatchResult) []domain.MatchResult {
	seen := make(map[int64]bool)
	out := make([]domain.MatchResult, 0, len(matches))
	for _, m := range matches {
		if seen[m.IngredientID] {
			continue
		}
		seen[m.IngredientID] = true
		out = append(out, m)
	}
	return out
}

// groupByCategory groups matches by category key in order of first appearance
func groupByCategory(matches []domain.MatchResult, categories domain.CategoryTable) domain.GroupedMatches {
	grouped := domain.GroupedMatches{}
	index := make(map[string]int)
	for _, m := range matches {
		m.Category = categories.Key(m.CategoryID)
		i, ok := index[m.Category]
		if !ok {
			i = len(grouped)
			index[m.Category] = i
			grouped = append(grouped, domain.CategoryGroup{Category: m.Category})
		}
		grouped[i].Matches = append(grouped[i].Matches, m)
	}
	return grouped
}
