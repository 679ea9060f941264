// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/dataset"
	"github.com/tomtom215/mediabridge/internal/etl"
	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/models"
	"github.com/tomtom215/mediabridge/internal/recommend"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

func runInit(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "init")
	url := fs.String("url", a.cfg.Paths.DatasetURL, "dataset archive URL")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *url == "" {
		return errors.New("no dataset URL configured (paths.dataset_url)")
	}

	dir := a.cfg.Paths.NetflixDir()
	installed, err := dataset.Install(ctx, &http.Client{}, *url, dir)
	if err != nil {
		return err
	}
	if !installed {
		fmt.Fprintf(a.stdout, "dataset already present at %s\n", dir)
		return nil
	}
	fmt.Fprintf(a.stdout, "dataset installed at %s\n", dir)
	return nil
}

func runLoad(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "load")
	maxReviews := fs.Int64("max-reviews", a.cfg.ETL.MaxReviews, "rating rows to load, 0 for all")
	regen := fs.Bool("regen", false, "drop and reload the rating and movie_title tables (asks first)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *maxReviews < 0 {
		return fmt.Errorf("--max-reviews must not be negative, got %d", *maxReviews)
	}
	a.cfg.ETL.MaxReviews = *maxReviews
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

	progress, closeProgress, err := openProgress(a.cfg.ETL.ProgressDir)
	if err != nil {
		return err
	}
	defer closeProgress()

	loader := etl.NewLoader(a.cfg, db, progress, etl.PromptConfirmer{In: a.stdin, Out: a.stdout})
	loader.OnFile = func(f dataset.RatingFile) {
		logging.Debug().Str("file", f.Path).Msg("Extracting rating file")
	}

	res, err := loader.Load(ctx, etl.LoadOptions{MaxRows: *maxReviews, Regen: *regen})
	if err != nil {
		return err
	}
	if res.Aborted {
		fmt.Fprintln(a.stdout, "aborted, no changes made")
		return nil
	}

	printLoadResult(a, res)
	return nil
}

func printLoadResult(a *app, res *etl.Result) {
	step := func(name string, skipped bool, detail string) {
		if skipped {
			fmt.Fprintf(a.stdout, "%-10s skipped (already present)\n", name)
			return
		}
		fmt.Fprintf(a.stdout, "%-10s %s\n", name, detail)
	}
	step("titles", res.TitlesSkipped, fmt.Sprintf("%d loaded", res.TitlesLoaded))
	step("staging", res.StagingSkipped, fmt.Sprintf("%d rows", res.RowsStaged))
	step("ratings", res.RatingsSkipped, fmt.Sprintf("%d loaded", res.RatingsLoaded))
	step("reporting", !res.ReportingBuilt, "rebuilt")
	if res.Stats != nil {
		fmt.Fprintf(a.stdout, "%-10s %s\n", "elapsed", res.Stats.Duration().Round(time.Millisecond))
	}
}

func runRecommend(ctx context.Context, a *app, args []string) error {
	rc := &a.cfg.Recommend
	fs := newFlagSet(a, "recommend")
	fs.IntVar(&rc.MaxTrainingUserID, "max-training-user-id", rc.MaxTrainingUserID, "train on users up to this ID; the last one is the subject")
	fs.IntVar(&rc.LargeMovieID, "large-movie-id", rc.LargeMovieID, "hide the subject's ratings from this movie ID on and score movies above it")
	liked := fs.String("liked", "", "comma separated movie IDs the user liked (cold-start mode)")
	retrain := fs.Bool("retrain", false, "train even when a snapshot of the same input exists")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *retrain {
		rc.ReuseSnapshots = false
	}

	var likedIDs []models.MovieID
	if *liked != "" {
		ids, err := parseMovieIDs(*liked)
		if err != nil {
			return err
		}
		likedIDs = ids
	}

	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

	engine, err := recommend.NewEngine(db, rc)
	if err != nil {
		return err
	}

	var set models.MovieSet
	if likedIDs != nil {
		set, err = engine.RecommendForLiked(ctx, likedIDs)
	} else {
		set, err = engine.Recommend(ctx, rc.MaxTrainingUserID, rc.LargeMovieID)
	}
	if err != nil {
		return err
	}

	for _, id := range set.Sorted() {
		title, err := engine.GetTitle(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%d\t%s\n", int(id), title)
	}
	return nil
}

// parseMovieIDs parses "a,b,c". Blank elements are ignored.
func parseMovieIDs(s string) ([]models.MovieID, error) {
	var ids []models.MovieID
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid movie id %q", part)
		}
		ids = append(ids, models.MovieID(n))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no movie ids in %q", s)
	}
	return ids, nil
}

func runStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "status")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	db, err := database.New(&a.cfg.Database)
	if err != nil {
		return err
	}
	defer closeWithLog(db, "database")

	counts, err := db.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "database   %s\n", db.Path())
	fmt.Fprintf(a.stdout, "  %-16s %d\n", database.TableMovieTitle, counts.MovieTitles)
	fmt.Fprintf(a.stdout, "  %-16s %d\n", database.TableRating, counts.Ratings)
	fmt.Fprintf(a.stdout, "  %-16s %d\n", database.TablePopularMovie, counts.PopularMovies)
	fmt.Fprintf(a.stdout, "  %-16s %d\n", database.TableProlificUser, counts.ProlificUsers)
	if counts.MovieTitles > 0 {
		maxID, err := db.MaxMovieID(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "  %-16s %d\n", "max movie id", maxID)
	}

	printLastRun(ctx, a)
	printModels(ctx, a)
	return nil
}

func printLastRun(ctx context.Context, a *app) {
	if a.cfg.ETL.ProgressDir == "" {
		return
	}
	progress, closeProgress, err := openProgress(a.cfg.ETL.ProgressDir)
	if err != nil {
		// Badger holds a directory lock while a load is running.
		fmt.Fprintf(a.stdout, "last run   unavailable (%v)\n", err)
		return
	}
	defer closeProgress()

	stats, err := progress.Load(ctx)
	if err != nil {
		fmt.Fprintf(a.stdout, "last run   unreadable (%v)\n", err)
		return
	}
	if stats == nil {
		fmt.Fprintln(a.stdout, "last run   none")
		return
	}

	s := stats.ToSummary(false)
	fmt.Fprintf(a.stdout, "last run   %s (%s)\n", s.Status, s.RunID)
	fmt.Fprintf(a.stdout, "  %-16s %s\n", "phase", s.Phase)
	fmt.Fprintf(a.stdout, "  %-16s %s\n", "started", s.StartTime.Format(time.RFC3339))
	fmt.Fprintf(a.stdout, "  %-16s %d/%d\n", "files", s.FilesProcessed, s.TotalFiles)
	fmt.Fprintf(a.stdout, "  %-16s %d\n", "rows staged", s.RowsStaged)
	fmt.Fprintf(a.stdout, "  %-16s %d\n", "rows loaded", s.RowsLoaded)
	if s.Error != "" {
		fmt.Fprintf(a.stdout, "  %-16s %s\n", "error", s.Error)
	}
}

func printModels(ctx context.Context, a *app) {
	dir := a.cfg.Recommend.ModelDir
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		fmt.Fprintln(a.stdout, "models     none")
		return
	}
	store, err := storage.NewStore(dir)
	if err != nil {
		fmt.Fprintf(a.stdout, "models     unreadable (%v)\n", err)
		return
	}
	list, err := store.ListModels(ctx)
	if err != nil || len(list) == 0 {
		fmt.Fprintln(a.stdout, "models     none")
		return
	}
	fmt.Fprintln(a.stdout, "models")
	for _, m := range list {
		fmt.Fprintf(a.stdout, "  %-16s v%d %dx%d nnz=%d trained %s\n",
			m.Name, m.Version, m.UserCount, m.ItemCount, m.InteractionCount, m.TrainedAt.Format(time.RFC3339))
	}
}

func runClean(_ context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "clean")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	dirs := []string{a.cfg.Paths.DataDir, a.cfg.Paths.OutputDir}
	if !*yes {
		confirm := etl.PromptConfirmer{In: a.stdin, Out: a.stdout}
		ok, err := confirm.Confirm(fmt.Sprintf("Delete %s and %s?", dirs[0], dirs[1]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.stdout, "aborted, no changes made")
			return nil
		}
	}

	for _, dir := range dirs {
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove %s: %w", dir, err)
		}
		fmt.Fprintf(a.stdout, "removed %s\n", dir)
	}
	return nil
}

// openProgress opens the Badger progress store, or an in-memory one when
// dir is empty.
func openProgress(dir string) (etl.ProgressTracker, func(), error) {
	if dir == "" {
		return etl.NewInMemoryProgress(), func() {}, nil
	}
	p, bdb, err := etl.OpenBadgerProgress(dir)
	if err != nil {
		return nil, nil, err
	}
	return p, func() { closeWithLog(bdb, "progress store") }, nil
}

type closer interface {
	Close() error
}

func closeWithLog(c closer, what string) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Str("resource", what).Msg("Close failed")
	}
}
