// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/dataset"
	"github.com/tomtom215/mediabridge/internal/models"
)

func TestLoad_EndToEndIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, true)
	db := openTestDB(t)
	ctx := context.Background()

	loader := NewLoader(cfg, db, nil, nil)
	res, err := loader.Load(ctx, LoadOptions{})
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if res.TitlesLoaded != 3 || res.RowsStaged != fixtureRowCount || res.RatingsLoaded != fixtureRowCount || !res.ReportingBuilt {
		t.Errorf("first Load() result = %+v", res)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "rating.csv.gz")); err != nil {
		t.Errorf("staging artifact missing: %v", err)
	}
	first, err := db.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if first.MovieTitles != 3 || first.Ratings != fixtureRowCount || first.PopularMovies != 3 || first.ProlificUsers != 3 {
		t.Errorf("counts after first load = %+v", first)
	}

	res, err = loader.Load(ctx, LoadOptions{})
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if !res.TitlesSkipped || !res.StagingSkipped || !res.RatingsSkipped || res.ReportingBuilt {
		t.Errorf("second Load() should skip everything, got %+v", res)
	}
	second, err := db.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if second != first {
		t.Errorf("counts changed on re-run: %+v -> %+v", first, second)
	}
	if res.Stats == nil || res.Stats.Phase != PhaseDone {
		t.Errorf("final stats = %+v", res.Stats)
	}
}

func TestLoad_ProcessesFilesInSortedOrder(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)

	for run := 0; run < 2; run++ {
		// remove the checkpoint so extraction happens every run
		_ = os.Remove(cfg.StagingCSV())

		var order []models.MovieID
		loader := NewLoader(cfg, newFakeStore(), nil, nil)
		loader.OnFile = func(f dataset.RatingFile) { order = append(order, f.MovieID) }
		if _, err := loader.Load(context.Background(), LoadOptions{}); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := []models.MovieID{1, 2, 3}
		if len(order) != len(want) {
			t.Fatalf("run %d order = %v, want %v", run, order, want)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Errorf("run %d order = %v, want %v", run, order, want)
				break
			}
		}
	}
}

func TestLoad_StagingCSVContents(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)

	if _, err := NewLoader(cfg, newFakeStore(), nil, nil).Load(context.Background(), LoadOptions{}); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	data, err := os.ReadFile(cfg.StagingCSV())
	if err != nil {
		t.Fatal(err)
	}
	want := StagingHeader +
		"10,5,1\n20,3,1\n" +
		"10,4,2\n20,2,2\n99,1,2\n" +
		"10,1,3\n"
	if string(data) != want {
		t.Errorf("staging CSV =\n%s\nwant\n%s", data, want)
	}
	if _, err := os.Stat(cfg.StagingCSV() + ".partial"); !os.IsNotExist(err) {
		t.Error("partial file should be renamed away")
	}
}

func TestLoad_MaxRowsSubsetsStably(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, true)

	for i := 0; i < 2; i++ {
		store := newFakeStore()
		res, err := NewLoader(cfg, store, nil, nil).Load(context.Background(), LoadOptions{MaxRows: 4})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if res.RatingsLoaded != 4 {
			t.Errorf("RatingsLoaded = %d, want 4", res.RatingsLoaded)
		}
		if store.loaded != cfg.SubsetCSV() {
			t.Errorf("loaded %s, want subset %s", store.loaded, cfg.SubsetCSV())
		}
	}
}

func TestLoad_MaxRowsAboveDatasetLoadsEverything(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)

	store := newFakeStore()
	res, err := NewLoader(cfg, store, nil, nil).Load(context.Background(), LoadOptions{MaxRows: cfg.ETL.AllRows + 1})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if store.loaded != cfg.StagingCSV() {
		t.Errorf("loaded %s, want the full staging CSV %s", store.loaded, cfg.StagingCSV())
	}
	if res.RatingsLoaded != fixtureRowCount {
		t.Errorf("RatingsLoaded = %d, want %d", res.RatingsLoaded, fixtureRowCount)
	}
}

func TestLoad_RegenDeclinedHasNoSideEffects(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)
	store := newFakeStore()

	res, err := NewLoader(cfg, store, nil, Always(false)).Load(context.Background(), LoadOptions{Regen: true})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !res.Aborted {
		t.Error("Load() should report Aborted")
	}
	if len(store.calls) != 0 {
		t.Errorf("store calls = %v, want none", store.calls)
	}
	if _, err := os.Stat(cfg.StagingCSV()); !os.IsNotExist(err) {
		t.Error("declined regen must not write the staging CSV")
	}
	if res.Stats.Phase != PhaseAborted {
		t.Errorf("Phase = %s, want aborted", res.Stats.Phase)
	}
}

func TestLoad_RegenConfirmedReloads(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, true)
	db := openTestDB(t)
	ctx := context.Background()

	if _, err := NewLoader(cfg, db, nil, nil).Load(ctx, LoadOptions{}); err != nil {
		t.Fatal(err)
	}

	prompts := 0
	confirm := ConfirmFunc(func(string) (bool, error) {
		prompts++
		return true, nil
	})
	res, err := NewLoader(cfg, db, nil, confirm).Load(ctx, LoadOptions{Regen: true})
	if err != nil {
		t.Fatalf("regen Load() error = %v", err)
	}
	if prompts != 1 {
		t.Errorf("prompted %d times, want 1", prompts)
	}
	if res.TitlesLoaded != 3 || res.RatingsLoaded != fixtureRowCount || !res.StagingSkipped {
		t.Errorf("regen result = %+v", res)
	}
	counts, err := db.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Ratings != fixtureRowCount || counts.MovieTitles != 3 {
		t.Errorf("counts after regen = %+v", counts)
	}
}

func TestLoad_DataDirMissing(t *testing.T) {
	cfg := testConfig(t.TempDir(), false)
	_, err := NewLoader(cfg, newFakeStore(), nil, nil).Load(context.Background(), LoadOptions{})
	if !errors.Is(err, ErrDataDirMissing) {
		t.Errorf("Load() error = %v, want ErrDataDirMissing", err)
	}
}

func TestLoad_FatalFileErrorsLeaveNoArtifact(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		check   func(error) bool
	}{
		{
			name:    "header mismatch",
			file:    "mv_0000004.txt",
			content: "5:\n1,1,2005-01-01\n",
			check: func(err error) bool {
				var herr *dataset.HeaderError
				return errors.As(err, &herr)
			},
		},
		{
			name:    "empty rating file",
			file:    "mv_0000004.txt",
			content: "4:\n",
			check: func(err error) bool {
				var eerr *EmptyFileError
				return errors.As(err, &eerr)
			},
		},
		{
			name:    "malformed line",
			file:    "mv_0000004.txt",
			content: "4:\n1,1\n",
			check: func(err error) bool {
				var perr *dataset.ParseError
				return errors.As(err, &perr)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeDataset(t, root)
			training := filepath.Join(root, "data", "nf_prize_dataset", "training_set", "training_set")
			if err := os.WriteFile(filepath.Join(training, tt.file), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			cfg := testConfig(root, true)
			store := newFakeStore()
			progress := NewInMemoryProgress()

			_, err := NewLoader(cfg, store, progress, nil).Load(context.Background(), LoadOptions{})
			if !tt.check(err) {
				t.Fatalf("Load() error = %v", err)
			}
			for _, p := range []string{cfg.StagingCSV(), cfg.StagingCSV() + ".partial"} {
				if _, statErr := os.Stat(p); !os.IsNotExist(statErr) {
					t.Errorf("%s should not exist after a failed extraction", p)
				}
			}
			if store.called("LoadRatingsCSV") {
				t.Error("insert must not run after a staging failure")
			}
			saved, _ := progress.Load(context.Background())
			if saved == nil || saved.Phase != PhaseFailed || saved.Error == "" {
				t.Errorf("saved progress = %+v, want failed with error", saved)
			}
		})
	}
}

func TestLoad_ResumesEmptyReporting(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)
	store := newFakeStore()
	store.counts[database.TableMovieTitle] = 3
	store.counts[database.TableRating] = fixtureRowCount

	res, err := NewLoader(cfg, store, nil, nil).Load(context.Background(), LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !res.RatingsSkipped || !res.ReportingBuilt {
		t.Errorf("result = %+v, want ratings skipped and reporting rebuilt", res)
	}
	if store.called("LoadRatingsCSV") || store.called("InsertMovieTitles") {
		t.Errorf("unexpected calls %v", store.calls)
	}
}

func TestLoad_SavesProgress(t *testing.T) {
	root := t.TempDir()
	writeDataset(t, root)
	cfg := testConfig(root, false)
	progress := NewInMemoryProgress()

	if _, err := NewLoader(cfg, newFakeStore(), progress, nil).Load(context.Background(), LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	saved, err := progress.Load(context.Background())
	if err != nil || saved == nil {
		t.Fatalf("progress.Load() = %v, %v", saved, err)
	}
	if saved.FilesProcessed != 3 || saved.TotalFiles != 3 || saved.RowsStaged != fixtureRowCount {
		t.Errorf("saved stats = %+v", saved)
	}
	if saved.EndTime.IsZero() || saved.Phase != PhaseDone {
		t.Errorf("saved stats not finalized: %+v", saved)
	}
	if progress.Saves() < 5 {
		t.Errorf("Saves() = %d, want a save per phase", progress.Saves())
	}
}
