// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"context"
	"time"

	"github.com/tomtom215/mediabridge/internal/cache"
	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/models"
)

// Store is the read side of the database the handlers query.
type Store interface {
	Ping(ctx context.Context) error
	SearchMovieTitles(ctx context.Context, query string, limit int) ([]models.MovieTitle, error)
	GetMovieTitle(ctx context.Context, id models.MovieID) (*models.MovieTitle, error)
	PopularMovies(ctx context.Context, limit int) ([]models.PopularMovie, error)
	ProlificUsers(ctx context.Context, limit int) ([]models.ProlificUser, error)
}

// Recommender is the slice of recommend.Engine the API uses.
type Recommender interface {
	RecommendForLiked(ctx context.Context, liked []models.MovieID) (models.MovieSet, error)
	GetTitle(ctx context.Context, id models.MovieID) (string, error)
}

// Handler contains dependencies for API handlers.
//
// Handler methods are split across files:
//   - handlers_health.go: Health
//   - handlers_movies.go: SearchMovies, GetMovie, PopularMovies, ProlificUsers
//   - handlers_recommend.go: Recommend
type Handler struct {
	store            Store
	engine           Recommender
	version          string
	recommendTimeout time.Duration
	startTime        time.Time

	// titles only change on `load --regen`, so an hour of staleness is fine
	titles *cache.LRU[models.MovieID, string]
}

const (
	titleCacheSize = 20000
	titleCacheTTL  = time.Hour
)

// NewHandler wires the handlers to a store and a recommendation engine.
func NewHandler(store Store, engine Recommender, cfg *config.ServerConfig, version string) *Handler {
	return &Handler{
		store:            store,
		engine:           engine,
		version:          version,
		recommendTimeout: cfg.RecommendTimeout,
		startTime:        time.Now(),
		titles:           cache.NewLRU[models.MovieID, string](titleCacheSize, titleCacheTTL),
	}
}

// title resolves id through the title cache.
func (h *Handler) title(ctx context.Context, id models.MovieID) (string, error) {
	if t, ok := h.titles.Get(id); ok {
		return t, nil
	}
	t, err := h.engine.GetTitle(ctx, id)
	if err != nil {
		return "", err
	}
	h.titles.Add(id, t)
	return t, nil
}
