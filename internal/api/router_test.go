// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/models"
)

func TestRouter_NotFound(t *testing.T) {
	h, _, _ := newTestServer(t)

	rec, env := do(t, h, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _, _ := newTestServer(t)

	// One API request so the api_* series exist.
	do(t, h, http.MethodGet, "/api/v1/health", "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `api_requests_total{endpoint="/api/v1/health"`) {
		t.Error("/metrics does not expose api_requests_total for /api/v1/health")
	}
}

func TestRouter_CORS(t *testing.T) {
	h, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		origin string
		allow  string
	}{
		{name: "allowed origin", origin: "https://example.test", allow: "https://example.test"},
		{name: "other origin", origin: "https://evil.test", allow: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/recommend", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.allow {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.allow)
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	store := &mockStore{}
	rec := &mockRecommender{store: store}
	mw := NewChiMiddlewareFromConfig(&config.ServerConfig{RateLimitReqs: 2, RateLimitWindow: time.Hour})
	h := NewRouter(NewHandler(store, rec, &config.ServerConfig{}, "test"), mw).Setup()

	for i := 0; i < 2; i++ {
		if resp, _ := do(t, h, http.MethodGet, "/api/v1/movies/popular", ""); resp.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, resp.Code)
		}
	}

	resp, env := do(t, h, http.MethodGet, "/api/v1/movies/popular", "")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.Code)
	}
	if env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v", env.Error)
	}

	// Health is not limited.
	if resp, _ := do(t, h, http.MethodGet, "/api/v1/health", ""); resp.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.Code)
	}
}

// panicStore fails loudly on the popular-movies query.
type panicStore struct {
	mockStore
}

func (p *panicStore) PopularMovies(context.Context, int) ([]models.PopularMovie, error) {
	panic("reporting table corrupted")
}

func TestRouter_RecoversPanics(t *testing.T) {
	store := &panicStore{}
	h := NewRouter(NewHandler(store, &mockRecommender{store: &store.mockStore}, &config.ServerConfig{}, "test"), nil).Setup()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/movies/popular", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	// The server keeps answering.
	if resp, _ := do(t, h, http.MethodGet, "/api/v1/health", ""); resp.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.Code)
	}
}
