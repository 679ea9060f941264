// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tomtom215/mediabridge/internal/models"
)

var errFieldCount = errors.New("want 3 fields user_id,rating,date")

// RatingRecord is one line of a per-movie rating file. The date is dropped.
type RatingRecord struct {
	UserID int
	Rating int
}

// RatingReader streams the records of one per-movie rating file. It is
// single-pass: call Next until it returns false, then check Err.
type RatingReader struct {
	name    string
	movieID models.MovieID
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
	rec     RatingRecord
	err     error
}

// OpenRatingFile opens path and checks that its header names movieID.
func OpenRatingFile(path string, movieID models.MovieID) (*RatingReader, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from ListRatingFiles
	if err != nil {
		return nil, fmt.Errorf("failed to open rating file: %w", err)
	}
	rr, err := NewRatingReader(f, path, movieID)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	rr.closer = f
	return rr, nil
}

// NewRatingReader reads from r; name is only used in errors.
func NewRatingReader(r io.Reader, name string, movieID models.MovieID) (*RatingReader, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	rr := &RatingReader{name: name, movieID: movieID, scanner: scanner}

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
		}
		return nil, &HeaderError{Path: name, MovieID: movieID}
	}
	rr.line = 1
	header := strings.TrimRight(scanner.Text(), "\r")
	if header != movieID.String()+":" {
		return nil, &HeaderError{Path: name, MovieID: movieID, Got: header}
	}
	return rr, nil
}

// MovieID is the movie named by the header.
func (rr *RatingReader) MovieID() models.MovieID {
	return rr.movieID
}

// Next advances to the next record. A malformed line stops iteration with a
// *ParseError in Err.
func (rr *RatingReader) Next() bool {
	if rr.err != nil {
		return false
	}
	if !rr.scanner.Scan() {
		if err := rr.scanner.Err(); err != nil {
			rr.err = fmt.Errorf("failed to read %s: %w", rr.name, err)
		}
		return false
	}
	rr.line++

	text := strings.TrimRight(rr.scanner.Text(), "\r")
	rec, err := parseRatingLine(text)
	if err != nil {
		rr.err = &ParseError{Path: rr.name, Line: rr.line, Text: text, Err: err}
		return false
	}
	rr.rec = rec
	return true
}

// Record returns the record read by the last successful Next.
func (rr *RatingReader) Record() RatingRecord {
	return rr.rec
}

// Err returns the first error hit by Next.
func (rr *RatingReader) Err() error {
	return rr.err
}

// Close releases the underlying file, if any.
func (rr *RatingReader) Close() error {
	if rr.closer == nil {
		return nil
	}
	err := rr.closer.Close()
	rr.closer = nil
	return err
}

func parseRatingLine(line string) (RatingRecord, error) {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return RatingRecord{}, errFieldCount
	}
	userID, err := strconv.Atoi(fields[0])
	if err != nil {
		return RatingRecord{}, fmt.Errorf("user_id: %w", err)
	}
	rating, err := strconv.Atoi(fields[1])
	if err != nil {
		return RatingRecord{}, fmt.Errorf("rating: %w", err)
	}
	return RatingRecord{UserID: userID, Rating: rating}, nil
}
