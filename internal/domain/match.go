package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MatchKind records how a candidate resolved against the vocabulary
type MatchKind string

const (
	MatchKindExact MatchKind = "exact"
	MatchKindAlias MatchKind = "alias"
)

// MatchResult represents one successful resolution of an ingredient line
type MatchResult struct {
	SourceLine   string    `json:"source_line"`
	Candidate    string    `json:"candidate"`
	IngredientID int64     `json:"ingredient_id"`
	Name         string    `json:"name"`
	CategoryID   int       `json:"category_id"`
	Category     string    `json:"category"`
	Kind         MatchKind `json:"match_kind"`
	MatchedAlias string    `json:"matched_alias,omitempty"`
}

// CategoryGroup holds the matches of one category in first-seen order
type CategoryGroup struct {
	Category string
	Matches  []MatchResult
}

// GroupedMatches is an insertion-ordered mapping from category key to
// matches. It encodes as a JSON object whose keys keep that order.
type GroupedMatches []CategoryGroup

// Get returns the matches for a category key
func (g GroupedMatches) Get(category string) []MatchResult {
	for _, group := range g {
		if group.Category == category {
			return group.Matches
		}
	}
	return nil
}

// Len returns the total number of matches across all groups
func (g GroupedMatches) Len() int {
	n := 0
	for _, group := range g {
		n += len(group.Matches)
	}
	return n
}

// MarshalJSON encodes the groups as an ordered JSON object
func (g GroupedMatches) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(group.Category)
		if err != nil {
			return nil, err
		}
		matches := group.Matches
		if matches == nil {
			matches = []MatchResult{}
		}
		value, err := json.Marshal(matches)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes an ordered JSON object back into groups
func (g *GroupedMatches) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*g = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("matched: expected JSON object, got %v", tok)
	}

	groups := GroupedMatches{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var matches []MatchResult
		if err := dec.Decode(&matches); err != nil {
			return err
		}
		groups = append(groups, CategoryGroup{Category: key, Matches: matches})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = groups
	return nil
}

// SearchRequest is the batch search input
type SearchRequest struct {
	Ingredients []string `json:"ingredients"`
}

// SearchResult is the matched/unmatched partition of a batch
type SearchResult struct {
	Matched        GroupedMatches `json:"matched"`
	Unmatched      []string       `json:"unmatched"`
	TotalMatched   int            `json:"total_matched"`
	TotalUnmatched int            `json:"total_unmatched"`
}
