// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tomtom215/mediabridge/internal/dataset"
	"github.com/tomtom215/mediabridge/internal/metrics"
)

// StagingHeader is the first line of every staging CSV. movie_id is last.
const StagingHeader = "user_id,rating,movie_id\n"

const stagingBufferSize = 1 << 20

// EmptyFileError reports a rating file with a header and no ratings.
type EmptyFileError struct {
	Path string
}

func (e *EmptyFileError) Error() string {
	return fmt.Sprintf("%s: rating file has no ratings", e.Path)
}

// writeStaging extracts every rating file, in the given order, into a
// staging CSV at dst. Output goes to dst.partial and is renamed only once
// the compressor has finished, so dst existing means it is complete.
func (l *Loader) writeStaging(ctx context.Context, files []dataset.RatingFile, dst string) (int64, error) {
	partial := dst + ".partial"
	if err := os.Remove(partial); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove stale %s: %w", partial, err)
	}

	var rows int64
	err := withCompressor(ctx, l.compressor, partial, func(w io.Writer) error {
		bw := bufio.NewWriterSize(w, stagingBufferSize)
		if _, err := bw.WriteString(StagingHeader); err != nil {
			return fmt.Errorf("write staging header: %w", err)
		}

		var line []byte
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if l.OnFile != nil {
				l.OnFile(f)
			}

			n, err := appendRatingFile(bw, f, line)
			if err != nil {
				return err
			}
			rows += n
			metrics.ETLFilesProcessed.Inc()
			metrics.ETLRowsStaged.Add(float64(n))
			l.fileDone(ctx, f, n)
		}
		return bw.Flush()
	})
	if err != nil {
		return rows, err
	}

	if err := os.Rename(partial, dst); err != nil {
		return rows, fmt.Errorf("publish staging artifact: %w", err)
	}
	return rows, nil
}

// appendRatingFile copies one movie's ratings as user_id,rating,movie_id rows.
func appendRatingFile(w *bufio.Writer, f dataset.RatingFile, line []byte) (int64, error) {
	rr, err := dataset.OpenRatingFile(f.Path, f.MovieID)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rr.Close() }()

	suffix := "," + f.MovieID.String() + "\n"
	var n int64
	for rr.Next() {
		rec := rr.Record()
		line = strconv.AppendInt(line[:0], int64(rec.UserID), 10)
		line = append(line, ',')
		line = strconv.AppendInt(line, int64(rec.Rating), 10)
		line = append(line, suffix...)
		if _, err := w.Write(line); err != nil {
			return n, fmt.Errorf("write staging row: %w", err)
		}
		n++
	}
	if err := rr.Err(); err != nil {
		return n, err
	}
	if n == 0 {
		return 0, &EmptyFileError{Path: f.Path}
	}
	return n, nil
}
