// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tomtom215/mediabridge/internal/models"
)

func readAll(t *testing.T, rr *RatingReader) []RatingRecord {
	t.Helper()
	var out []RatingRecord
	for rr.Next() {
		out = append(out, rr.Record())
	}
	return out
}

func TestRatingReader_SingleRecord(t *testing.T) {
	rr, err := NewRatingReader(strings.NewReader("42:\n7,5,2003-01-01\n"), "mv_0000042.txt", 42)
	if err != nil {
		t.Fatalf("NewRatingReader() error = %v", err)
	}
	got := readAll(t, rr)
	if err := rr.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
	if len(got) != 1 || got[0] != (RatingRecord{UserID: 7, Rating: 5}) {
		t.Errorf("records = %+v, want [{7 5}]", got)
	}
	if rr.Next() {
		t.Error("Next() after exhaustion should stay false")
	}
}

func TestRatingReader_HeaderMismatch(t *testing.T) {
	tests := []struct {
		name  string
		input string
		got   string
	}{
		{"other movie", "43:\n7,5,2003-01-01\n", "43:"},
		{"padded header", "0000042:\n", "0000042:"},
		{"empty file", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRatingReader(strings.NewReader(tt.input), "f.txt", 42)
			var herr *HeaderError
			if !errors.As(err, &herr) {
				t.Fatalf("error = %v, want *HeaderError", err)
			}
			if herr.Got != tt.got || herr.MovieID != 42 {
				t.Errorf("HeaderError = %+v", herr)
			}
		})
	}
}

func TestRatingReader_MalformedLineIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing date", "1:\n7,5,2003-01-01\n8,4\n9,3,2005-01-01\n", 3},
		{"extra field", "1:\n7,5,2003-01-01,x\n", 2},
		{"non-numeric user", "1:\nabc,5,2003-01-01\n", 2},
		{"non-numeric rating", "1:\n7,five,2003-01-01\n", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, err := NewRatingReader(strings.NewReader(tt.input), "f.txt", 1)
			if err != nil {
				t.Fatalf("NewRatingReader() error = %v", err)
			}
			readAll(t, rr)
			var perr *ParseError
			if !errors.As(rr.Err(), &perr) {
				t.Fatalf("Err() = %v, want *ParseError", rr.Err())
			}
			if perr.Line != tt.line {
				t.Errorf("ParseError.Line = %d, want %d", perr.Line, tt.line)
			}
		})
	}
}

func TestRatingReader_CRLF(t *testing.T) {
	rr, err := NewRatingReader(strings.NewReader("5:\r\n1,2,2005-09-06\r\n3,4,2005-09-07\r\n"), "f.txt", 5)
	if err != nil {
		t.Fatalf("NewRatingReader() error = %v", err)
	}
	got := readAll(t, rr)
	if rr.Err() != nil || len(got) != 2 || got[1] != (RatingRecord{UserID: 3, Rating: 4}) {
		t.Errorf("records = %+v, err = %v", got, rr.Err())
	}
}

func TestOpenRatingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mv_0000042.txt")
	if err := os.WriteFile(path, []byte("42:\n1488844,3,2005-09-06\n822109,5,2005-05-13\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	rr, err := OpenRatingFile(path, 42)
	if err != nil {
		t.Fatalf("OpenRatingFile() error = %v", err)
	}
	got := readAll(t, rr)
	if err := rr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if len(got) != 2 || got[0].UserID != 1488844 || got[1].Rating != 5 {
		t.Errorf("records = %+v", got)
	}
	if rr.MovieID() != models.MovieID(42) {
		t.Errorf("MovieID() = %d", rr.MovieID())
	}

	if _, err := OpenRatingFile(filepath.Join(dir, "missing.txt"), 1); err == nil {
		t.Error("OpenRatingFile() on missing file should fail")
	}
}

func TestListRatingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"mv_0000010.txt", "mv_0000002.txt", "mv_0000001.txt", "README"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ListRatingFiles(dir, "mv_*.txt")
	if err != nil {
		t.Fatalf("ListRatingFiles() error = %v", err)
	}
	want := []models.MovieID{1, 2, 10}
	if len(files) != len(want) {
		t.Fatalf("ListRatingFiles() = %+v", files)
	}
	for i, id := range want {
		if files[i].MovieID != id {
			t.Errorf("files[%d].MovieID = %d, want %d", i, files[i].MovieID, id)
		}
	}

	if _, err := ListRatingFiles(t.TempDir(), "mv_*.txt"); !errors.Is(err, ErrNoRatingFiles) {
		t.Errorf("empty dir error = %v, want ErrNoRatingFiles", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "mv_42.txt"), nil, 0o600); err != nil {
		t.Fatal(err)
	}
	var nerr *FileNameError
	if _, err := ListRatingFiles(dir, "mv_*.txt"); !errors.As(err, &nerr) {
		t.Errorf("bad name error = %v, want *FileNameError", err)
	}
}
