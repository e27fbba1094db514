package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/recipebox/backend/internal/domain"
)

// Extraction stages, reported for tracing and the candidates endpoint
const (
	StageNone              = "none"
	StageTwoWordWindow     = "two_word_window"
	StageAlternatives      = "alternatives"
	StageTwoWordLiteral    = "two_word_literal"
	StageSingleWordLiteral = "single_word_literal"
	StagePositional        = "positional"
)

const defaultPairWindow = 6

var (
	// Anything that is not a letter or whitespace becomes a separator
	nonLetterPattern = regexp.MustCompile(`[^\p{L}\s]+`)

	// Parenthetical notes like "(14.5 oz)" or "(about 2 cups)"
	parentheticalPattern = regexp.MustCompile(`\([^)]*\)?`)

	// Digits, vulgar fractions, and the fraction slash
	numeralRemover = runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsDigit(r) || unicode.Is(unicode.No, r) || r == '⁄'
	}))
)

// Extraction is the ordered candidate output for one line. Lines offering
// alternatives ("X or Y") yield one group per alternative; every other
// line yields a single group.
//
// A candidate appears at most once per extraction: a later group loses any
// candidate an earlier group already holds, so "beef broth or chicken broth"
// gives [beef broth, broth, beef] then [chicken broth, chicken]. A group left
// empty that way is dropped.
type Extraction struct {
	Line   string     `json:"line"`
	Stage  string     `json:"stage"`
	Groups [][]string `json:"groups"`
}

// Candidates flattens the groups into one ordered, de-duplicated list
func (x Extraction) Candidates() []string {
	seen := make(map[string]bool)
	var out []string
	for _, group := range x.Groups {
		for _, c := range group {
			key := strings.ToLower(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// Empty reports whether no candidate was produced
func (x Extraction) Empty() bool {
	for _, group := range x.Groups {
		if len(group) > 0 {
			return false
		}
	}
	return true
}

// TwoWordPhraseLookup resolves a set of two-word phrases against the phrase table
type TwoWordPhraseLookup interface {
	FindTwoWordPhrase(ctx context.Context, phrases []string) (string, error)
}

// ExtractorConfig holds configuration for the candidate extractor
type ExtractorConfig struct {
	PairWindow         int
	EnableDebugLogging bool
}

// CandidateExtractor turns a raw ingredient line into ordered candidate phrases
type CandidateExtractor struct {
	phrases            TwoWordPhraseLookup
	pairWindow         int
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewCandidateExtractor creates a new extractor. phrases may be nil, in which
// case the two-word window stage is skipped.
func NewCandidateExtractor(phrases TwoWordPhraseLookup, config ExtractorConfig, logger *zap.Logger) *CandidateExtractor {
	if config.PairWindow <= 0 {
		config.PairWindow = defaultPairWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CandidateExtractor{
		phrases:            phrases,
		pairWindow:         config.PairWindow,
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger.Named("extractor"),
	}
}

// Extract runs the staged pipeline over one line, returning at the first
// stage that produces candidates
func (e *CandidateExtractor) Extract(ctx context.Context, line string) Extraction {
	result := e.extract(ctx, line)
	result.Groups = dedupeGroups(result.Groups)
	if len(result.Groups) == 0 {
		result.Stage = StageNone
	}

	if e.enableDebugLogging {
		e.logger.Debug("extracted candidates",
			zap.String("line", line),
			zap.String("stage", result.Stage),
			zap.Any("groups", result.Groups),
		)
	}
	return result
}

func (e *CandidateExtractor) extract(ctx context.Context, line string) Extraction {
	result := Extraction{Line: line, Stage: StageNone}

	light := lightClean(line)
	if light == "" {
		return result
	}

	// Stage 2: two-word window against the phrase table
	if groups, ok := e.twoWordWindow(ctx, strings.Fields(light)); ok {
		result.Stage = StageTwoWordWindow
		result.Groups = groups
		return result
	}

	// Stage 3: heavy clean from the original text
	heavy := heavyClean(line)
	if heavy == "" {
		return result
	}

	// Stage 4: substitutes offered with " or "
	if groups := alternativeGroups(heavy); len(groups) > 0 {
		result.Stage = StageAlternatives
		result.Groups = groups
		return result
	}

	// Stage 5 and 6: curated literal scans
	if literal, ok := scanLiterals(twoWordLiterals, heavy); ok {
		result.Stage = StageTwoWordLiteral
		result.Groups = [][]string{{literal}}
		return result
	}
	if literal, ok := scanLiterals(singleWordLiterals, heavy); ok {
		result.Stage = StageSingleWordLiteral
		result.Groups = [][]string{{literal}}
		return result
	}

	// Stage 7: head nouns sit at the end of the phrase
	if candidates := positionalCandidates(heavy); len(candidates) > 0 {
		result.Stage = StagePositional
		result.Groups = [][]string{candidates}
	}
	return result
}

// twoWordWindow looks up adjacent token pairs against the phrase table.
// Pairs never span an "or"; when alternatives are present every side must
// hit, otherwise the stage reports nothing.
func (e *CandidateExtractor) twoWordWindow(ctx context.Context, tokens []string) ([][]string, bool) {
	if e.phrases == nil {
		return nil, false
	}

	var groups [][]string
	for _, side := range splitOnToken(tokens, "or") {
		phrase, ok := e.scanPairs(ctx, side)
		if !ok {
			return nil, false
		}
		groups = append(groups, []string{phrase})
	}
	return groups, len(groups) > 0
}

func (e *CandidateExtractor) scanPairs(ctx context.Context, tokens []string) (string, bool) {
	for i := 0; i+1 < len(tokens) && i < e.pairWindow; i++ {
		if ctx.Err() != nil {
			return "", false
		}
		pair := tokens[i] + " " + tokens[i+1]

		phrase, err := e.phrases.FindTwoWordPhrase(ctx, []string{pair})
		if err == nil {
			return phrase, true
		}
		e.logLookupError(pair, err)

		if variants := nameVariants(pair); len(variants) > 0 {
			phrase, err = e.phrases.FindTwoWordPhrase(ctx, variants)
			if err == nil {
				return phrase, true
			}
			e.logLookupError(pair, err)
		}
	}
	return "", false
}

func (e *CandidateExtractor) logLookupError(pair string, err error) {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	e.logger.Warn("two-word phrase lookup failed, treating as miss",
		zap.String("pair", pair),
		zap.Error(err),
	)
}

// lightClean keeps descriptive words so two-word names survive
func lightClean(line string) string {
	s := strings.ToLower(line)
	s = strings.NewReplacer(".", "", ";", "").Replace(s)
	s = stripNumerals(s)
	s = lightUnitPattern.ReplaceAllString(s, " ")
	s = nonLetterPattern.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// heavyClean strips quantities, notes, and prep/serving vocabulary
func heavyClean(line string) string {
	s := strings.ToLower(line)
	s = parentheticalPattern.ReplaceAllString(s, " ")
	s = quantityUnitRegex.ReplaceAllString(s, " ")
	s = stripNumerals(s)
	s = nonLetterPattern.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !heavyStopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func stripNumerals(s string) string {
	out, _, err := transform.String(numeralRemover, s)
	if err != nil {
		return s
	}
	return out
}

// alternativeGroups emits, for each side of " or ", the full phrase and
// its last two words
func alternativeGroups(heavy string) [][]string {
	if !strings.Contains(heavy, " or ") {
		return nil
	}

	var groups [][]string
	for _, side := range strings.Split(heavy, " or ") {
		words := strings.Fields(side)
		if len(words) == 0 {
			continue
		}
		group := []string{strings.Join(words, " ")}
		if last := words[len(words)-1]; len(last) > 2 {
			group = append(group, last)
		}
		if len(words) >= 2 {
			group = append(group, words[len(words)-2])
		}
		groups = append(groups, group)
	}
	return groups
}

func scanLiterals(literals []literalPattern, text string) (string, bool) {
	for _, lit := range literals {
		if lit.pattern.MatchString(text) {
			return lit.literal, true
		}
	}
	return "", false
}

func positionalCandidates(heavy string) []string {
	var tokens []string
	for _, w := range strings.Fields(heavy) {
		if len(w) > 2 && !positionalStopWords[w] {
			tokens = append(tokens, w)
		}
	}

	var out []string
	if len(tokens) >= 2 {
		out = append(out, tokens[len(tokens)-2]+" "+tokens[len(tokens)-1])
	}
	if len(tokens) >= 1 {
		out = append(out, tokens[len(tokens)-1])
	}
	return out
}

// splitOnToken splits tokens into non-empty runs separated by sep
func splitOnToken(tokens []string, sep string) [][]string {
	var sides [][]string
	var current []string
	for _, t := range tokens {
		if t == sep {
			if len(current) > 0 {
				sides = append(sides, current)
			}
			current = nil
			continue
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		sides = append(sides, current)
	}
	return sides
}

// dedupeGroups trims candidates, drops empties, and removes case-insensitive
// duplicates across all groups, keeping first-seen order
func dedupeGroups(groups [][]string) [][]string {
	seen := make(map[string]bool)
	var out [][]string
	for _, group := range groups {
		var kept []string
		for _, c := range group {
			c = strings.TrimSpace(c)
			key := strings.ToLower(c)
			if c == "" || seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, c)
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}
