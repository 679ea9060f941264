// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package models holds the Netflix Prize domain types shared by the ETL,
// the matrix builder, the recommendation engine and the HTTP API.
package models

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// MovieID is a Netflix Prize movie identifier.
//
// Source files spell it zero-padded ("0000042" in mv_0000042.txt) or plain
// ("42" in movie_titles.txt). Internally it is always the parsed integer and
// it is stored as unpadded decimal TEXT, so every comparison is numeric.
type MovieID int

// ParseMovieID parses a plain or zero-padded decimal movie ID.
func ParseMovieID(s string) (MovieID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty movie id")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid movie id %q: %w", s, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid movie id %q: must be positive", s)
	}
	return MovieID(n), nil
}

// String returns the canonical stored form (unpadded decimal).
func (id MovieID) String() string {
	return strconv.Itoa(int(id))
}

// Padded returns the 7-digit form used in rating file names.
func (id MovieID) Padded() string {
	return fmt.Sprintf("%07d", int(id))
}

// MovieTitle is one row of movie_titles.txt.
type MovieTitle struct {
	ID    MovieID `json:"id"`
	Year  *int16  `json:"year"` // nil when the source says NULL
	Title string  `json:"title"`
}

// Rating is one user's star rating of one movie.
type Rating struct {
	UserID  int     `json:"user_id"`
	MovieID MovieID `json:"movie_id"`
	Rating  int     `json:"rating"` // 1..5
}

// PopularMovie is a row of the popular_movie reporting table.
type PopularMovie struct {
	ID    MovieID `json:"id"`
	Count int64   `json:"count"`
	Year  *int16  `json:"year"`
	Title string  `json:"title"`
}

// ProlificUser is a row of the prolific_user reporting table.
type ProlificUser struct {
	ID        int     `json:"id"`
	Count     int64   `json:"count"`
	AvgRating float64 `json:"avg_rating"`
}

// TableCounts reports row counts of the core and reporting tables.
type TableCounts struct {
	MovieTitles   int64 `json:"movie_titles"`
	Ratings       int64 `json:"ratings"`
	PopularMovies int64 `json:"popular_movies"`
	ProlificUsers int64 `json:"prolific_users"`
}

// MovieSet is an unordered set of movie IDs.
type MovieSet map[MovieID]struct{}

// NewMovieSet builds a set from ids.
func NewMovieSet(ids ...MovieID) MovieSet {
	s := make(MovieSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s MovieSet) Add(id MovieID) {
	s[id] = struct{}{}
}

// Contains reports whether id is a member.
func (s MovieSet) Contains(id MovieID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order, for display only.
func (s MovieSet) Sorted() []MovieID {
	out := make([]MovieID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Equal reports whether both sets hold the same members.
func (s MovieSet) Equal(other MovieSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
