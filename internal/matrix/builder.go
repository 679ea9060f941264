// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package matrix turns rating rows into sparse user x movie interaction
// matrices without ever materialising a dense equivalent.
package matrix

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/metrics"
	"github.com/tomtom215/mediabridge/internal/models"
)

// RatingSource is the read side of the store used to build matrices.
type RatingSource interface {
	MovieIDs(ctx context.Context) ([]models.MovieID, error)
	CountUsers(ctx context.Context, f database.RatingFilter) (int, error)
	EachRating(ctx context.Context, f database.RatingFilter, fn func(models.Rating) error) error
}

// CollectOptions bound a Collect pass.
type CollectOptions struct {
	Filter database.RatingFilter

	// ReserveUsers adds rows beyond the users found in the store, for
	// synthetic users added afterwards with Set.
	ReserveUsers int
}

// Interactions is a matrix under construction: both axis indices plus a
// DOK whose shape was fixed before the first insert.
type Interactions struct {
	Users  *IdentifierIndex[int]
	Movies *IdentifierIndex[models.MovieID]
	dok    *DOK
}

// Collect reads ratings into a mutable matrix. The movie axis is every
// title in ascending numeric ID; the user axis follows first appearance in
// user_id order.
func Collect(ctx context.Context, src RatingSource, opts CollectOptions) (*Interactions, error) {
	movieIDs, err := src.MovieIDs(ctx)
	if err != nil {
		return nil, err
	}
	movies := NewIdentifierIndex[models.MovieID](len(movieIDs))
	for _, id := range movieIDs {
		if _, err := movies.Add(id); err != nil {
			return nil, err
		}
	}
	movies.Freeze()

	numUsers, err := src.CountUsers(ctx, opts.Filter)
	if err != nil {
		return nil, err
	}
	numUsers += opts.ReserveUsers

	dok, err := NewDOK(numUsers, movies.Len())
	if err != nil {
		return nil, err
	}
	in := &Interactions{
		Users:  NewIdentifierIndex[int](numUsers),
		Movies: movies,
		dok:    dok,
	}

	err = src.EachRating(ctx, opts.Filter, func(r models.Rating) error {
		v, keep, err := Normalize(r.Rating)
		if err != nil {
			return fmt.Errorf("user %d movie %s: %w", r.UserID, r.MovieID, err)
		}
		if !keep {
			return nil
		}
		return in.Set(r.UserID, r.MovieID, v)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// Set stores a normalized value by external IDs, assigning the user a row
// if it is new. Bounds are checked before the DOK is touched.
func (in *Interactions) Set(userID int, movieID models.MovieID, v float64) error {
	m, ok := in.Movies.Lookup(movieID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMovie, movieID)
	}
	rows, _ := in.dok.Shape()
	u, known := in.Users.Lookup(userID)
	if !known {
		if in.Users.Len() >= rows {
			return &BoundsError{Row: in.Users.Len(), Col: m, Rows: rows, Cols: in.Movies.Len()}
		}
		var err error
		if u, err = in.Users.Add(userID); err != nil {
			return err
		}
	}
	return in.dok.Set(u, m, v)
}

// Blind removes the user's entries for movies matching hide and returns
// how many were removed. Unknown users are a no-op.
func (in *Interactions) Blind(userID int, hide func(models.MovieID) bool) int {
	u, ok := in.Users.Lookup(userID)
	if !ok {
		return 0
	}
	return in.dok.DeleteRowIf(u, func(col int) bool {
		id, _ := in.Movies.ID(col)
		return hide(id)
	})
}

// NNZ is the number of stored entries.
func (in *Interactions) NNZ() int {
	return in.dok.NNZ()
}

// Freeze converts to the immutable form; the Interactions must not be used
// afterwards.
func (in *Interactions) Freeze() *Matrix {
	in.Users.Freeze()
	in.Movies.Freeze()
	return &Matrix{Users: in.Users, Movies: in.Movies, coo: in.dok.ToCOO()}
}

// Matrix is an immutable interaction matrix with its axis indices.
type Matrix struct {
	Users  *IdentifierIndex[int]
	Movies *IdentifierIndex[models.MovieID]
	coo    *COO
}

// COO returns the coordinate-list form consumed by training.
func (m *Matrix) COO() *COO {
	return m.coo
}

// Value reads a cell by external IDs; unknown IDs read as 0.
func (m *Matrix) Value(userID int, movieID models.MovieID) float64 {
	u, ok := m.Users.Lookup(userID)
	if !ok {
		return 0
	}
	c, ok := m.Movies.Lookup(movieID)
	if !ok {
		return 0
	}
	return m.coo.At(u, c)
}

// Fingerprint is a SHA-256 over both axes and every stored entry. Two
// matrices with the same fingerprint hold the same training input.
func (m *Matrix) Fingerprint() string {
	h := sha256.New()
	buf := make([]byte, 0, 4096)
	put := func(v uint64) {
		buf = binary.LittleEndian.AppendUint64(buf, v)
		if len(buf) == cap(buf) {
			h.Write(buf)
			buf = buf[:0]
		}
	}

	put(uint64(m.Users.Len()))
	for _, id := range m.Users.IDs() {
		put(uint64(int64(id)))
	}
	put(uint64(m.Movies.Len()))
	for _, id := range m.Movies.IDs() {
		put(uint64(int64(id)))
	}
	m.coo.Each(func(e Entry) {
		put(uint64(e.Row))
		put(uint64(e.Col))
		put(math.Float64bits(e.Value))
	})
	h.Write(buf)
	return hex.EncodeToString(h.Sum(nil))
}

// Build collects and freezes a matrix of users with ID <= maxUserID
// (0 for everyone).
func Build(ctx context.Context, src RatingSource, maxUserID int) (*Matrix, error) {
	start := time.Now()
	in, err := Collect(ctx, src, CollectOptions{Filter: database.RatingFilter{MaxUserID: maxUserID}})
	if err != nil {
		return nil, err
	}
	m := in.Freeze()

	rows, cols := m.coo.Shape()
	metrics.RecordMatrixBuild(time.Since(start), m.coo.NNZ())
	logging.Ctx(ctx).Debug().
		Int("users", rows).
		Int("movies", cols).
		Int("nnz", m.coo.NNZ()).
		Dur("duration", time.Since(start)).
		Msg("Interaction matrix built")
	return m, nil
}
