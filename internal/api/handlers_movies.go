// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/models"
)

// SearchMovies handles GET /movie/search?q=. Matching is a case-insensitive
// substring of the title; at most ten results, lowest ID first.
func (h *Handler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := SearchRequest{Query: r.URL.Query().Get("q")}
	if !validateRequest(rw, &req) {
		return
	}

	titles, err := h.store.SearchMovieTitles(r.Context(), req.Query, searchLimit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(titles, len(titles))
}

// GetMovie handles GET /movie/{id}.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	raw := chi.URLParam(r, "id")
	id, err := models.ParseMovieID(raw)
	if err != nil || id <= 0 {
		rw.BadRequest("invalid movie id: " + sanitizeLogValue(raw))
		return
	}

	mt, err := h.store.GetMovieTitle(r.Context(), id)
	if errors.Is(err, database.ErrMovieNotFound) {
		rw.NotFound("movie " + id.String() + " not found")
		return
	}
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(mt)
}

// PopularMovies handles GET /movies/popular?limit=.
func (h *Handler) PopularMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}
	movies, err := h.store.PopularMovies(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(movies, len(movies))
}

// ProlificUsers handles GET /users/prolific?limit=.
func (h *Handler) ProlificUsers(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, ok := parseLimit(rw, r)
	if !ok {
		return
	}
	users, err := h.store.ProlificUsers(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(users, len(users))
}
