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

	"github.com/goccy/go-json"

	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/models"
	"github.com/tomtom215/mediabridge/internal/recommend"
)

// Recommend handles POST /recommend with body {"liked":[ids]}. The response
// lists the recommended movies with their titles, ordered by ID.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecommendBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		rw.BadRequest("invalid JSON body")
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	liked := make([]models.MovieID, len(req.Liked))
	for i, id := range req.Liked {
		liked[i] = models.MovieID(id)
	}

	ctx := r.Context()
	if h.recommendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.recommendTimeout)
		defer cancel()
	}

	set, err := h.engine.RecommendForLiked(ctx, liked)
	switch {
	case err == nil:
	case errors.Is(err, database.ErrMovieNotFound):
		rw.NotFound(err.Error())
		return
	case errors.Is(err, recommend.ErrInvalidRequest):
		rw.BadRequest(err.Error())
		return
	case errors.Is(err, context.DeadlineExceeded):
		rw.Timeout("recommendation timed out")
		return
	default:
		rw.InternalError("Failed to generate recommendations", err)
		return
	}

	// Training ignores the deadline, so ctx may already be done here. The
	// result is complete; resolve titles against the request instead.
	titleCtx := r.Context()
	ids := set.Sorted()
	out := make([]RecommendedMovie, 0, len(ids))
	for _, id := range ids {
		title, err := h.title(titleCtx, id)
		if err != nil {
			if titleCtx.Err() != nil {
				return
			}
			rw.InternalError("Failed to resolve recommended titles", fmt.Errorf("movie %s: %w", id, err))
			return
		}
		out = append(out, RecommendedMovie{ID: int(id), Title: title})
	}
	rw.SuccessList(out, len(out))
}
