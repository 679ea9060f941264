// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/tomtom215/mediabridge/internal/models"
)

var ratingFileName = regexp.MustCompile(`(?:^|[/\\])mv_(\d{7})\.txt$`)

// RatingFile is one per-movie rating file.
type RatingFile struct {
	Path    string
	MovieID models.MovieID
}

// ListRatingFiles globs dir for rating files and returns them sorted by
// file name, which is also ascending movie ID.
func ListRatingFiles(dir, glob string) ([]RatingFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return nil, fmt.Errorf("invalid rating glob %q: %w", glob, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s (glob %s)", ErrNoRatingFiles, dir, glob)
	}
	sort.Strings(paths)

	files := make([]RatingFile, 0, len(paths))
	for _, p := range paths {
		m := ratingFileName.FindStringSubmatch(p)
		if m == nil {
			return nil, &FileNameError{Path: p}
		}
		id, err := models.ParseMovieID(m[1])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		files = append(files, RatingFile{Path: p, MovieID: id})
	}
	return files, nil
}
