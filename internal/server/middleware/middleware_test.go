package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRequestSizeLimit(t *testing.T) {
	maxRequestSize := int64(64)

	router := chi.NewRouter()
	router.Use(RequestSizeLimit(maxRequestSize))
	router.Post("/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name             string
		bodySize         int64
		setContentLength bool
		wantCode         int
	}{
		{"body at limit", maxRequestSize, true, http.StatusOK},
		{"declared length over limit", maxRequestSize * 2, true, http.StatusRequestEntityTooLarge},
		// no Content-Length: the limit is enforced while the handler reads the body
		{"undeclared length over limit", maxRequestSize * 2, false, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := strings.Repeat("x", int(tt.bodySize))
			req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
			if tt.setContentLength {
				req.ContentLength = tt.bodySize
			} else {
				req.ContentLength = -1
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.wantCode {
				t.Errorf("got status %d, want %d", rr.Code, tt.wantCode)
			}

			if header := rr.Header().Get("X-Max-Request-Size"); header != "64" {
				t.Errorf("X-Max-Request-Size header: got %q, want %q", header, "64")
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		environment string
		wantHSTS    bool
	}{
		{"dev", false},
		{"test", false},
		{"staging", true},
		{"prod", true},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(SecurityHeaders(tt.environment))
			router.Get("/health_check", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health_check", nil))

			if got := rr.Header().Get("X-Content-Type-Options"); got != "nosniff" {
				t.Errorf("X-Content-Type-Options: got %q, want nosniff", got)
			}
			if got := rr.Header().Get("X-Frame-Options"); got != "DENY" {
				t.Errorf("X-Frame-Options: got %q, want DENY", got)
			}

			hasHSTS := rr.Header().Get("Strict-Transport-Security") != ""
			if hasHSTS != tt.wantHSTS {
				t.Errorf("Strict-Transport-Security present = %v, want %v", hasHSTS, tt.wantHSTS)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	router := chi.NewRouter()
	router.Use(RateLimit(10, 5)) // 10 requests per second, burst of 5
	router.Get("/health_check", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// the burst is served
	for i := range 5 {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health_check", nil))

		if rr.Code != http.StatusOK {
			t.Errorf("Request %d failed: got status %d, want %d", i+1, rr.Code, http.StatusOK)
		}
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health_check", nil))

	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("request after burst: got status %d, want %d", rr.Code, http.StatusTooManyRequests)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header not set on rate limited response")
	}
}

func TestRateLimitDisabled(t *testing.T) {
	tests := []struct {
		name          string
		rps           int32
		expectLimited bool
	}{
		{"enabled", 10, true},
		{"disabled with 0", 0, false},
		{"disabled with negative", -1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Use(RateLimit(tt.rps, 1))
			router.Get("/health_check", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			codes := make([]int, 0, 2)
			for range 2 {
				rr := httptest.NewRecorder()
				router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health_check", nil))
				codes = append(codes, rr.Code)
			}

			if codes[0] != http.StatusOK {
				t.Errorf("first request: got status %d, want %d", codes[0], http.StatusOK)
			}

			want := http.StatusOK
			if tt.expectLimited {
				want = http.StatusTooManyRequests
			}
			if codes[1] != want {
				t.Errorf("second request: got status %d, want %d", codes[1], want)
			}
		})
	}
}
