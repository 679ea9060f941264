// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"errors"
	"fmt"

	"github.com/tomtom215/mediabridge/internal/models"
)

// ErrNoRatingFiles is returned when a training directory holds no rating files.
var ErrNoRatingFiles = errors.New("no rating files found")

// HeaderError reports a rating file whose first line is not "<movie_id>:".
// It means the dataset is mis-staged; callers must not skip the file.
type HeaderError struct {
	Path    string
	MovieID models.MovieID
	Got     string
}

func (e *HeaderError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf("%s: empty rating file, want header %q", e.Path, e.MovieID.String()+":")
	}
	return fmt.Sprintf("%s: header %q, want %q", e.Path, e.Got, e.MovieID.String()+":")
}

// ParseError reports a malformed data line.
type ParseError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: malformed line %q: %v", e.Path, e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileNameError reports a file matched by the rating glob whose name is not
// mv_<7 digits>.txt.
type FileNameError struct {
	Path string
}

func (e *FileNameError) Error() string {
	return fmt.Sprintf("%s: rating file name does not match mv_NNNNNNN.txt", e.Path)
}
