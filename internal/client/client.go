// Package client is a Go client for the recipebox HTTP API.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/usecase"
)

// Options configures a Client
type Options struct {
	// Token is sent as a bearer token when non-empty
	Token string
	// Timeout bounds each request; zero means 90s, above the server's
	// own 60s search deadline
	Timeout time.Duration
	// RetryCount retries requests that time out (408) or are rate limited (429)
	RetryCount int
}

// Client calls the ingredient search API
type Client struct {
	http *resty.Client
}

// apiError is the server's error body
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Health is the body of GET /health
type Health struct {
	Status          string                  `json:"status"`
	Service         string                  `json:"service"`
	Version         string                  `json:"version"`
	WordListVersion string                  `json:"word_list_version"`
	Vocabulary      *domain.VocabularyStats `json:"vocabulary,omitempty"`
}

// New creates a client for the API at baseURL
func New(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 90 * time.Second
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil || r == nil {
				return false
			}
			return r.StatusCode() == http.StatusRequestTimeout || r.StatusCode() == http.StatusTooManyRequests
		})
	if opts.Token != "" {
		c.SetAuthToken(opts.Token)
	}

	return &Client{http: c}
}

// SearchIngredients matches a batch of recipe lines
func (c *Client) SearchIngredients(ctx context.Context, lines []string) (*domain.SearchResult, error) {
	if lines == nil {
		lines = []string{}
	}

	var result domain.SearchResult
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(domain.SearchRequest{Ingredients: lines}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/v1/ingredients/search")
	if err != nil {
		return nil, fmt.Errorf("failed to send search request: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr)
	}
	return &result, nil
}

// ExtractCandidates returns the candidate groups the server extracts for each line
func (c *Client) ExtractCandidates(ctx context.Context, lines []string) ([]usecase.Extraction, error) {
	if lines == nil {
		lines = []string{}
	}

	var result struct {
		Extractions []usecase.Extraction `json:"extractions"`
	}
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(domain.SearchRequest{Ingredients: lines}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/api/v1/ingredients/candidates")
	if err != nil {
		return nil, fmt.Errorf("failed to send candidates request: %w", err)
	}
	if resp.IsError() {
		return nil, statusError(resp.StatusCode(), apiErr)
	}
	return result.Extractions, nil
}

// Health fetches the server's health report
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var health Health
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&health).
		Get("/health")
	if err != nil {
		return nil, fmt.Errorf("failed to send health request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("health check returned %d: %s", resp.StatusCode(), resp.String())
	}
	return &health, nil
}

// statusError maps an error status back onto the domain sentinel errors
func statusError(status int, body apiError) error {
	var sentinel error
	switch status {
	case http.StatusBadRequest:
		sentinel = domain.ErrInvalidRequest
	case http.StatusUnauthorized:
		sentinel = domain.ErrUnauthorized
	case http.StatusRequestTimeout:
		sentinel = domain.ErrSearchTimeout
	case http.StatusTooManyRequests:
		sentinel = domain.ErrRateLimited
	default:
		return fmt.Errorf("api returned %d %s: %s", status, body.Code, body.Error)
	}
	if body.Error == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, body.Error)
}
