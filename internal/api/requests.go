// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package api

// Query and body parameters, checked with go-playground/validator.

const (
	searchLimit       = 10
	defaultListLimit  = 10
	maxRecommendBytes = 64 << 10
)

// SearchRequest holds GET /movie/search parameters.
type SearchRequest struct {
	Query string `json:"q" validate:"required,max=200"`
}

// ListRequest holds the limit of the reporting-table endpoints.
type ListRequest struct {
	Limit int `json:"limit" validate:"gte=1,lte=100"`
}

// RecommendRequest is the body of POST /recommend.
type RecommendRequest struct {
	Liked []int `json:"liked" validate:"required,min=1,max=50,dive,gt=0"`
}

// RecommendedMovie is one element of the POST /recommend response.
type RecommendedMovie struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
