// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package matrix

import (
	"errors"
	"fmt"
)

// ErrIndexFrozen is returned when adding an unseen ID to a frozen index.
var ErrIndexFrozen = errors.New("identifier index is frozen")

// ErrUnknownMovie is returned when a rating names a movie absent from the title table.
var ErrUnknownMovie = errors.New("rating references unknown movie")

// BoundsError rejects a cell outside the fixed matrix shape.
type BoundsError struct {
	Row, Col   int
	Rows, Cols int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("cell (%d, %d) outside %dx%d matrix", e.Row, e.Col, e.Rows, e.Cols)
}

// RatingRangeError reports a star rating outside [1, 5]. It signals
// upstream corruption and is never coerced.
type RatingRangeError struct {
	Rating int
}

func (e *RatingRangeError) Error() string {
	return fmt.Sprintf("rating %d outside [1, 5]", e.Rating)
}
