// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/models"
	"github.com/tomtom215/mediabridge/internal/recommend"
)

type mockStore struct {
	titles  []models.MovieTitle
	popular []models.PopularMovie
	users   []models.ProlificUser
	pingErr error
	err     error

	lastLimit int
	lastQuery string
}

func (m *mockStore) Ping(context.Context) error { return m.pingErr }

func (m *mockStore) SearchMovieTitles(_ context.Context, query string, limit int) ([]models.MovieTitle, error) {
	m.lastQuery, m.lastLimit = query, limit
	if m.err != nil {
		return nil, m.err
	}
	var out []models.MovieTitle
	for _, t := range m.titles {
		if strings.Contains(strings.ToLower(t.Title), strings.ToLower(query)) && len(out) < limit {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockStore) GetMovieTitle(_ context.Context, id models.MovieID) (*models.MovieTitle, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, t := range m.titles {
		if t.ID == id {
			t := t
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", database.ErrMovieNotFound, id)
}

func (m *mockStore) PopularMovies(_ context.Context, limit int) ([]models.PopularMovie, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.popular) {
		return m.popular[:limit], nil
	}
	return m.popular, nil
}

func (m *mockStore) ProlificUsers(_ context.Context, limit int) ([]models.ProlificUser, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.users) {
		return m.users[:limit], nil
	}
	return m.users, nil
}

type mockRecommender struct {
	store  *mockStore
	result models.MovieSet
	err    error
	liked  []models.MovieID
	// delay simulates training that does not observe the context
	delay time.Duration

	titleCalls int
}

func (m *mockRecommender) RecommendForLiked(_ context.Context, liked []models.MovieID) (models.MovieSet, error) {
	m.liked = liked
	time.Sleep(m.delay)
	return m.result, m.err
}

func (m *mockRecommender) GetTitle(ctx context.Context, id models.MovieID) (string, error) {
	m.titleCalls++
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mt, err := m.store.GetMovieTitle(ctx, id)
	if err != nil {
		return "", err
	}
	return mt.Title, nil
}

func year(y int16) *int16 { return &y }

func newTestServer(t *testing.T) (http.Handler, *mockStore, *mockRecommender) {
	t.Helper()
	store := &mockStore{
		titles: []models.MovieTitle{
			{ID: 1, Year: year(2003), Title: "Dinosaur Planet"},
			{ID: 2, Year: year(2004), Title: "Isle of Man TT 2004 Review"},
			{ID: 3, Year: year(1997), Title: "Character"},
			{ID: 4, Year: nil, Title: "Planet of the Dinosaurs"},
		},
		popular: []models.PopularMovie{
			{ID: 3, Count: 40, Year: year(1997), Title: "Character"},
			{ID: 1, Count: 12, Year: year(2003), Title: "Dinosaur Planet"},
		},
		users: []models.ProlificUser{
			{ID: 305344, Count: 17653, AvgRating: 1.9},
			{ID: 387418, Count: 17436, AvgRating: 1.8},
		},
	}
	rec := &mockRecommender{store: store, result: models.NewMovieSet(4, 3)}
	cfg := &config.ServerConfig{RecommendTimeout: time.Minute}

	mw := NewChiMiddleware(&ChiMiddlewareConfig{CORSAllowedOrigins: []string{"https://example.test"}})
	router := NewRouter(NewHandler(store, rec, cfg, "test"), mw)
	return router.Setup(), store, rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (body %q)", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func TestHealth(t *testing.T) {
	h, store, _ := newTestServer(t)

	tests := []struct {
		name    string
		pingErr error
		want    string
	}{
		{name: "healthy", want: "healthy"},
		{name: "degraded", pingErr: errors.New("closed"), want: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.pingErr = tt.pingErr
			rec, env := do(t, h, http.MethodGet, "/api/v1/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var hs HealthStatus
			if err := json.Unmarshal(env.Data, &hs); err != nil {
				t.Fatal(err)
			}
			if hs.Status != tt.want || hs.Version != "test" {
				t.Errorf("health = %+v, want status %q", hs, tt.want)
			}
			if env.Meta == nil || env.Meta.RequestID == "" {
				t.Error("meta.request_id missing")
			}
			if rec.Header().Get("X-Request-ID") != env.Meta.RequestID {
				t.Error("X-Request-ID header does not match meta")
			}
		})
	}
}

func TestSearchMovies(t *testing.T) {
	h, store, _ := newTestServer(t)

	t.Run("case-insensitive substring", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/v1/movie/search?q=DINOSAUR", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var titles []models.MovieTitle
		if err := json.Unmarshal(env.Data, &titles); err != nil {
			t.Fatal(err)
		}
		if len(titles) != 2 || titles[0].ID != 1 || titles[1].ID != 4 {
			t.Errorf("titles = %+v, want ids 1 and 4", titles)
		}
		if store.lastLimit != 10 {
			t.Errorf("limit = %d, want 10", store.lastLimit)
		}
		if env.Meta.Count == nil || *env.Meta.Count != 2 {
			t.Errorf("meta.count = %v, want 2", env.Meta.Count)
		}
	})

	t.Run("missing q", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/v1/movie/search", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if env.Success || env.Error == nil || env.Error.Code != ErrCodeValidationFailed {
			t.Errorf("error = %+v, want %s", env.Error, ErrCodeValidationFailed)
		}
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/api/v1/movie/search?q=zzz", "")
		if rec.Code != http.StatusOK || !env.Success {
			t.Fatalf("status = %d, success = %v", rec.Code, env.Success)
		}
		if env.Meta.Count == nil || *env.Meta.Count != 0 {
			t.Errorf("meta.count = %v, want 0", env.Meta.Count)
		}
	})

	t.Run("database error", func(t *testing.T) {
		store.err = errors.New("connection lost")
		defer func() { store.err = nil }()
		rec, env := do(t, h, http.MethodGet, "/api/v1/movie/search?q=a", "")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
		if env.Error.Code != ErrCodeDatabaseError || strings.Contains(env.Error.Message, "connection lost") {
			t.Errorf("error = %+v, want opaque %s", env.Error, ErrCodeDatabaseError)
		}
	})
}

func TestGetMovie(t *testing.T) {
	h, _, _ := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		title  string
	}{
		{name: "found", path: "/api/v1/movie/3", status: http.StatusOK, title: "Character"},
		{name: "padded id", path: "/api/v1/movie/0000001", status: http.StatusOK, title: "Dinosaur Planet"},
		{name: "missing", path: "/api/v1/movie/999", status: http.StatusNotFound},
		{name: "not a number", path: "/api/v1/movie/abc", status: http.StatusBadRequest},
		{name: "zero", path: "/api/v1/movie/0", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := do(t, h, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.title == "" {
				return
			}
			var mt models.MovieTitle
			if err := json.Unmarshal(env.Data, &mt); err != nil {
				t.Fatal(err)
			}
			if mt.Title != tt.title {
				t.Errorf("title = %q, want %q", mt.Title, tt.title)
			}
		})
	}
}

func TestListEndpoints(t *testing.T) {
	h, store, _ := newTestServer(t)

	tests := []struct {
		name      string
		path      string
		status    int
		wantLimit int
		wantCount int
	}{
		{name: "popular default limit", path: "/api/v1/movies/popular", status: http.StatusOK, wantLimit: 10, wantCount: 2},
		{name: "popular explicit limit", path: "/api/v1/movies/popular?limit=1", status: http.StatusOK, wantLimit: 1, wantCount: 1},
		{name: "popular limit too large", path: "/api/v1/movies/popular?limit=1000", status: http.StatusBadRequest},
		{name: "popular limit not a number", path: "/api/v1/movies/popular?limit=ten", status: http.StatusBadRequest},
		{name: "prolific", path: "/api/v1/users/prolific?limit=5", status: http.StatusOK, wantLimit: 5, wantCount: 2},
		{name: "prolific zero limit", path: "/api/v1/users/prolific?limit=0", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store.lastLimit = -1
			rec, env := do(t, h, http.MethodGet, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				if store.lastLimit != -1 {
					t.Error("store queried despite invalid limit")
				}
				return
			}
			if store.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", store.lastLimit, tt.wantLimit)
			}
			if env.Meta.Count == nil || *env.Meta.Count != tt.wantCount {
				t.Errorf("meta.count = %v, want %d", env.Meta.Count, tt.wantCount)
			}
		})
	}
}

func TestRecommend(t *testing.T) {
	h, _, rec := newTestServer(t)

	t.Run("returns titles sorted by id", func(t *testing.T) {
		resp, env := do(t, h, http.MethodPost, "/api/v1/recommend", `{"liked":[1,2]}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", resp.Code, resp.Body.String())
		}
		var movies []RecommendedMovie
		if err := json.Unmarshal(env.Data, &movies); err != nil {
			t.Fatal(err)
		}
		want := []RecommendedMovie{{ID: 3, Title: "Character"}, {ID: 4, Title: "Planet of the Dinosaurs"}}
		if len(movies) != len(want) {
			t.Fatalf("movies = %+v, want %+v", movies, want)
		}
		for i := range want {
			if movies[i] != want[i] {
				t.Errorf("movies[%d] = %+v, want %+v", i, movies[i], want[i])
			}
		}
		if len(rec.liked) != 2 || rec.liked[0] != 1 || rec.liked[1] != 2 {
			t.Errorf("engine got liked = %v, want [1 2]", rec.liked)
		}
	})

	t.Run("titles are cached", func(t *testing.T) {
		before := rec.titleCalls
		resp, _ := do(t, h, http.MethodPost, "/api/v1/recommend", `{"liked":[1]}`)
		if resp.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.Code)
		}
		if rec.titleCalls != before {
			t.Errorf("GetTitle called %d more times, want 0 after the first request", rec.titleCalls-before)
		}
	})

	errorCases := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{name: "malformed json", body: `{"liked":`, status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "unknown field", body: `{"liked":[1],"extra":true}`, status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "empty liked", body: `{"liked":[]}`, status: http.StatusBadRequest, code: ErrCodeValidationFailed},
		{name: "non-positive id", body: `{"liked":[1,-2]}`, status: http.StatusBadRequest, code: ErrCodeValidationFailed},
		{name: "unknown movie", body: `{"liked":[1]}`, err: fmt.Errorf("%w: 1", database.ErrMovieNotFound), status: http.StatusNotFound, code: ErrCodeNotFound},
		{name: "engine rejects", body: `{"liked":[1]}`, err: fmt.Errorf("%w: bad", recommend.ErrInvalidRequest), status: http.StatusBadRequest, code: ErrCodeBadRequest},
		{name: "deadline", body: `{"liked":[1]}`, err: fmt.Errorf("collect: %w", context.DeadlineExceeded), status: http.StatusServiceUnavailable, code: ErrCodeTimeout},
		{name: "engine failure", body: `{"liked":[1]}`, err: errors.New("boom"), status: http.StatusInternalServerError, code: ErrCodeInternalError},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			rec.err = tt.err
			defer func() { rec.err = nil }()

			resp, env := do(t, h, http.MethodPost, "/api/v1/recommend", tt.body)
			if resp.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.Code, tt.status, resp.Body.String())
			}
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %s", env.Error, tt.code)
			}
		})
	}

	t.Run("unknown recommended title is an error", func(t *testing.T) {
		rec.result = models.NewMovieSet(99)
		defer func() { rec.result = models.NewMovieSet(4, 3) }()

		resp, env := do(t, h, http.MethodPost, "/api/v1/recommend", `{"liked":[1]}`)
		if resp.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500 (%s)", resp.Code, resp.Body.String())
		}
		if env.Error == nil || env.Error.Code != ErrCodeInternalError {
			t.Errorf("error = %+v, want code %s", env.Error, ErrCodeInternalError)
		}
		if strings.Contains(resp.Body.String(), `"title":""`) {
			t.Errorf("body carries a blank title: %s", resp.Body.String())
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		resp, env := do(t, h, http.MethodGet, "/api/v1/recommend", "")
		if resp.Code != http.StatusMethodNotAllowed {
			t.Fatalf("status = %d, want 405", resp.Code)
		}
		if env.Error == nil || env.Error.Code != ErrCodeMethodNotAllowed {
			t.Errorf("error = %+v", env.Error)
		}
	})
}

func TestRecommend_SlowTrainingStillResolvesTitles(t *testing.T) {
	store := &mockStore{titles: []models.MovieTitle{{ID: 3, Year: year(1997), Title: "Character"}}}
	rec := &mockRecommender{store: store, result: models.NewMovieSet(3), delay: 60 * time.Millisecond}
	cfg := &config.ServerConfig{RecommendTimeout: 10 * time.Millisecond}
	h := NewRouter(NewHandler(store, rec, cfg, "test"), NewChiMiddleware(&ChiMiddlewareConfig{})).Setup()

	resp, env := do(t, h, http.MethodPost, "/api/v1/recommend", `{"liked":[1]}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", resp.Code, resp.Body.String())
	}
	var movies []RecommendedMovie
	if err := json.Unmarshal(env.Data, &movies); err != nil {
		t.Fatal(err)
	}
	if len(movies) != 1 || movies[0] != (RecommendedMovie{ID: 3, Title: "Character"}) {
		t.Errorf("movies = %+v, want [{3 Character}]", movies)
	}
}
