// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/tomtom215/mediabridge/internal/models"
)

// ParseTitleLine parses "id,year,title". Titles may contain commas; year may
// be the literal NULL.
func ParseTitleLine(line string) (models.MovieTitle, error) {
	parts := strings.SplitN(strings.TrimRight(line, "\r\n"), ",", 3)
	if len(parts) != 3 {
		return models.MovieTitle{}, fmt.Errorf("want id,year,title in %q", line)
	}

	id, err := models.ParseMovieID(parts[0])
	if err != nil {
		return models.MovieTitle{}, err
	}

	mt := models.MovieTitle{ID: id, Title: parts[2]}
	if parts[1] != "NULL" {
		y, err := strconv.ParseInt(parts[1], 10, 16)
		if err != nil {
			return models.MovieTitle{}, fmt.Errorf("invalid year %q for movie %s: %w", parts[1], id, err)
		}
		year := int16(y)
		mt.Year = &year
	}
	return mt, nil
}

// ReadTitles reads an ISO-8859-1 encoded movie_titles.txt.
func ReadTitles(path string) ([]models.MovieTitle, error) {
	f, err := os.Open(path) //nolint:gosec // configured dataset path
	if err != nil {
		return nil, fmt.Errorf("failed to open titles: %w", err)
	}
	defer func() { _ = f.Close() }()

	titles, err := DecodeTitles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return titles, nil
}

// DecodeTitles parses every line of r, decoding ISO-8859-1 to UTF-8.
// Blank lines are ignored; any malformed line fails the whole read.
func DecodeTitles(r io.Reader) ([]models.MovieTitle, error) {
	scanner := bufio.NewScanner(charmap.ISO8859_1.NewDecoder().Reader(r))

	var (
		titles []models.MovieTitle
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		mt, err := ParseTitleLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		titles = append(titles, mt)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read titles: %w", err)
	}
	return titles, nil
}
