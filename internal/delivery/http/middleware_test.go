package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func TestIsAllowedOrigin(t *testing.T) {
	tests := []struct {
		name           string
		origin         string
		allowedOrigins []string
		want           bool
	}{
		{
			name:           "exact match",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{"http://localhost:3000"},
			want:           true,
		},
		{
			name:           "wildcard match",
			origin:         "https://app.recipebox.dev",
			allowedOrigins: []string{"https://*"},
			want:           true,
		},
		{
			name:           "multiple allowed origins - matches second",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{"chrome-extension://*", "http://localhost:3000"},
			want:           true,
		},
		{
			name:           "no match",
			origin:         "http://evil.com",
			allowedOrigins: []string{"http://localhost:3000"},
			want:           false,
		},
		{
			name:           "empty origin",
			origin:         "",
			allowedOrigins: []string{"*"},
			want:           false,
		},
		{
			name:           "empty allowed list",
			origin:         "http://localhost:3000",
			allowedOrigins: []string{},
			want:           false,
		},
		{
			name:           "partial wildcard match",
			origin:         "http://localhost:5173",
			allowedOrigins: []string{"http://localhost:*"},
			want:           true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isAllowedOrigin(tt.origin, tt.allowedOrigins)
			if got != tt.want {
				t.Errorf("isAllowedOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantCORS   bool
	}{
		{
			name:       "allowed origin - GET request",
			origin:     "http://localhost:3000",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   true,
		},
		{
			name:       "allowed origin - OPTIONS request",
			origin:     "http://localhost:3000",
			method:     "OPTIONS",
			wantStatus: http.StatusNoContent,
			wantCORS:   true,
		},
		{
			name:       "disallowed origin is rejected",
			origin:     "http://evil.com",
			method:     "GET",
			wantStatus: http.StatusForbidden,
			wantCORS:   false,
		},
		{
			name:       "no origin header",
			origin:     "",
			method:     "GET",
			wantStatus: http.StatusOK,
			wantCORS:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(CORSMiddleware([]string{"http://localhost:*"}))
			router.GET("/test", func(c *gin.Context) {
				c.String(http.StatusOK, "OK")
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			corsHeader := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantCORS {
				if corsHeader != tt.origin {
					t.Errorf("Access-Control-Allow-Origin = %s, want %s", corsHeader, tt.origin)
				}
				if w.Header().Get("Access-Control-Allow-Credentials") != "true" {
					t.Errorf("Access-Control-Allow-Credentials not set to true")
				}
			} else if corsHeader != "" {
				t.Errorf("Access-Control-Allow-Origin should not be set, got %s", corsHeader)
			}
		})
	}
}

func TestCORSMiddleware_PreflightRequest(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware([]string{"http://localhost:3000"}))
	router.POST("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin not set correctly")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Errorf("Access-Control-Allow-Methods not set")
	}
	if w.Header().Get("Access-Control-Allow-Headers") == "" {
		t.Errorf("Access-Control-Allow-Headers not set")
	}
	if w.Header().Get("Access-Control-Max-Age") == "" {
		t.Errorf("Access-Control-Max-Age not set")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

		if id := w.Header().Get("X-Request-ID"); len(id) != 36 {
			t.Errorf("X-Request-ID = %q, want a UUID", id)
		}
	})

	t.Run("keeps the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if id := w.Header().Get("X-Request-ID"); id != "abc-123" {
			t.Errorf("X-Request-ID = %q, want abc-123", id)
		}
	})
}

func TestBodySizeLimit(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimit(8))
	router.POST("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	tests := []struct {
		body       string
		wantStatus int
	}{
		{"small", http.StatusOK},
		{"this body is too large", http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", "/test", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := newIPRateLimiter(2)
	now := time.Now()

	if !limiter.allow("10.0.0.1", now) || !limiter.allow("10.0.0.1", now) {
		t.Fatal("first two requests should be allowed")
	}
	if limiter.allow("10.0.0.1", now) {
		t.Error("third request in the same instant should be limited")
	}
	if !limiter.allow("10.0.0.2", now) {
		t.Error("a different IP has its own bucket")
	}
	if !limiter.allow("10.0.0.1", now.Add(30*time.Second)) {
		t.Error("a token should be refilled after 30s at 2/min")
	}
}

func TestIPRateLimiter_EvictsIdleVisitors(t *testing.T) {
	limiter := newIPRateLimiter(10)
	now := time.Now()

	limiter.allow("10.0.0.1", now)
	limiter.allow("10.0.0.2", now.Add(5*time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if _, ok := limiter.visitors["10.0.0.1"]; ok {
		t.Error("idle visitor should have been evicted")
	}
	if len(limiter.visitors) != 1 {
		t.Errorf("visitors = %d, want 1", len(limiter.visitors))
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(1, zap.NewNop()))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest("GET", "/test", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first Status = %d, want %d", first.Code, http.StatusOK)
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest("GET", "/test", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("second Status = %d, want %d", second.Code, http.StatusTooManyRequests)
	}
	if second.Header().Get("Retry-After") == "" {
		t.Error("Retry-After not set")
	}
}

func TestRateLimitMiddleware_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(RateLimitMiddleware(0, zap.NewNop()))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: Status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(AuthMiddleware("secret"))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer secret", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
