package http

import (
	"context"
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/recipebox/backend/internal/domain"
	"github.com/recipebox/backend/internal/usecase"
)

// Version is the API version reported by the health endpoint
const Version = "1.0.0"

// Error codes returned in the "code" field of error responses
const (
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeRequestTimeout  = "REQUEST_TIMEOUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeInternalError   = "INTERNAL_ERROR"
)

// IngredientSearcher is the search surface the handlers need
type IngredientSearcher interface {
	SearchIngredients(ctx context.Context, lines []string) (*domain.SearchResult, error)
	Extract(ctx context.Context, lines []string) ([]usecase.Extraction, error)
}

// StatsProvider reports the size of the loaded vocabulary
type StatsProvider interface {
	Stats(ctx context.Context) (domain.VocabularyStats, error)
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// CandidatesResponse is the body of the candidates endpoint
type CandidatesResponse struct {
	Extractions []usecase.Extraction `json:"extractions"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search IngredientSearcher
	stats  StatsProvider
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler. search and stats may be nil; the
// search endpoints then answer 501 and health omits vocabulary counts.
func NewHandler(search IngredientSearcher, stats StatsProvider, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		search: search,
		stats:  stats,
		logger: logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":            "healthy",
		"service":           "recipebox",
		"version":           Version,
		"word_list_version": usecase.WordListVersion,
	}

	if h.stats != nil {
		stats, err := h.stats.Stats(c.Request.Context())
		if err != nil {
			h.logger.Warn("vocabulary stats unavailable", zap.Error(err))
			body["status"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["vocabulary"] = stats
	}

	c.JSON(http.StatusOK, body)
}

// SearchIngredients handles batch ingredient search requests
func (h *Handler) SearchIngredients(c *gin.Context) {
	if h.search == nil {
		h.notConfigured(c)
		return
	}

	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}

	result, err := h.search.SearchIngredients(c.Request.Context(), req.Ingredients)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExtractCandidates returns the candidate groups for each line without
// matching them. Useful for tuning word lists.
func (h *Handler) ExtractCandidates(c *gin.Context) {
	if h.search == nil {
		h.notConfigured(c)
		return
	}

	req, ok := h.bindSearchRequest(c)
	if !ok {
		return
	}

	extractions, err := h.search.Extract(c.Request.Context(), req.Ingredients)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CandidatesResponse{Extractions: extractions})
}

func (h *Handler) bindSearchRequest(c *gin.Context) (*domain.SearchRequest, bool) {
	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error: "Request body too large",
				Code:  CodePayloadTooLarge,
			})
			return nil, false
		}
		h.respondError(c, domain.ErrInvalidRequest)
		return nil, false
	}

	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Ingredients, validation.NotNil),
	); err != nil {
		h.respondError(c, domain.ErrInvalidRequest)
		return nil, false
	}
	return &req, true
}

func (h *Handler) notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, ErrorResponse{
		Error: "Ingredient search not configured",
		Code:  CodeNotConfigured,
	})
}

// respondError maps domain errors onto HTTP statuses
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Request body must be a JSON object with an \"ingredients\" array of strings",
			Code:  CodeInvalidRequest,
		})
	case errors.Is(err, domain.ErrSearchTimeout):
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: "Ingredient search timed out, retry the request",
			Code:  CodeRequestTimeout,
		})
	default:
		h.logger.Error("ingredient search failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  CodeInternalError,
		})
	}
}
