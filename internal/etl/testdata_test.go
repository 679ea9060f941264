// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/models"
)

const fixtureTitles = "1,2003,Dinosaur Planet\n2,2004,Isle of Man TT 2004 Review\n3,1997,Character\n"

// fixtureRatings is written in reverse name order so sorting is observable.
var fixtureRatings = []struct {
	name    string
	content string
}{
	{"mv_0000003.txt", "3:\n10,1,2005-09-06\n"},
	{"mv_0000002.txt", "2:\n10,4,2005-09-06\n20,2,2005-05-13\n99,1,2004-10-19\n"},
	{"mv_0000001.txt", "1:\n10,5,2005-09-06\n20,3,2005-05-13\n"},
}

const fixtureRowCount = 6

// writeDataset lays out data/nf_prize_dataset the way `mediabridge init` does.
func writeDataset(t *testing.T, root string) {
	t.Helper()
	nf := filepath.Join(root, "data", "nf_prize_dataset")
	training := filepath.Join(nf, "training_set", "training_set")
	if err := os.MkdirAll(training, 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nf, "movie_titles.txt"), []byte(fixtureTitles), 0o600); err != nil {
		t.Fatal(err)
	}
	for _, f := range fixtureRatings {
		if err := os.WriteFile(filepath.Join(training, f.name), []byte(f.content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

func testConfig(root string, compress bool) *config.Config {
	return &config.Config{
		Paths: config.PathsConfig{
			DataDir:   filepath.Join(root, "data"),
			OutputDir: filepath.Join(root, "out"),
		},
		ETL: config.ETLConfig{
			Compress:         compress,
			Compressor:       "",
			RatingGlob:       "mv_*.txt",
			AllRows:          100_480_507,
			ProgressInterval: time.Millisecond,
		},
	}
}

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "1GB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// fakeStore records calls and counts rows of loaded CSVs.
type fakeStore struct {
	counts map[string]int64
	calls  []string
	loaded string
}

func newFakeStore() *fakeStore {
	return &fakeStore{counts: map[string]int64{}}
}

func (f *fakeStore) EnsureSchema(context.Context) error {
	f.calls = append(f.calls, "EnsureSchema")
	return nil
}

func (f *fakeStore) Recreate(context.Context) error {
	f.calls = append(f.calls, "Recreate")
	f.counts = map[string]int64{}
	return nil
}

func (f *fakeStore) CountRows(_ context.Context, table string) (int64, error) {
	return f.counts[table], nil
}

func (f *fakeStore) InsertMovieTitles(_ context.Context, titles []models.MovieTitle) error {
	f.calls = append(f.calls, "InsertMovieTitles")
	f.counts[database.TableMovieTitle] = int64(len(titles))
	return nil
}

func (f *fakeStore) LoadRatingsCSV(_ context.Context, path string) (int64, error) {
	f.calls = append(f.calls, "LoadRatingsCSV")
	f.loaded = path
	rc, err := openCSV(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = rc.Close() }()
	var n int64
	sc := bufio.NewScanner(rc)
	for sc.Scan() {
		n++
	}
	n-- // header
	f.counts[database.TableRating] = n
	return n, sc.Err()
}

func (f *fakeStore) RegenerateReporting(context.Context) error {
	f.calls = append(f.calls, "RegenerateReporting")
	f.counts[database.TablePopularMovie] = 1
	f.counts[database.TableProlificUser] = 1
	return nil
}

func (f *fakeStore) called(name string) bool {
	for _, c := range f.calls {
		if c == name {
			return true
		}
	}
	return false
}
