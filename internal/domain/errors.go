package domain

import "errors"

var (
	// ErrNotFound is returned when a vocabulary lookup has no matching row
	ErrNotFound = errors.New("no matching vocabulary entry")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrSearchTimeout is returned when a batch search exceeds its deadline.
	// No partial result accompanies it; callers retry the whole batch.
	ErrSearchTimeout = errors.New("ingredient search timed out")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnauthorized is returned when a request carries no valid credentials
	ErrUnauthorized = errors.New("unauthorized")

	// ErrStorageFailure is returned when the vocabulary store cannot be queried
	ErrStorageFailure = errors.New("vocabulary storage failure")

	// ErrInvalidVocabulary is returned when seed data fails validation
	ErrInvalidVocabulary = errors.New("invalid vocabulary")
)
