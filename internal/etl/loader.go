// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package etl loads the Netflix Prize files into DuckDB: titles first, then
// a staging CSV extracted from the per-movie rating files, then a bulk
// insert, then the reporting tables. Each phase is skipped when its output
// already exists, so a failed run is resumed by running it again.
package etl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/dataset"
	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/metrics"
	"github.com/tomtom215/mediabridge/internal/models"
)

// ErrDataDirMissing means `mediabridge init` has not been run.
var ErrDataDirMissing = errors.New("netflix data directory missing; run `mediabridge init`")

// Store is the DuckDB surface the loader needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	Recreate(ctx context.Context) error
	CountRows(ctx context.Context, table string) (int64, error)
	InsertMovieTitles(ctx context.Context, titles []models.MovieTitle) error
	LoadRatingsCSV(ctx context.Context, csvPath string) (int64, error)
	RegenerateReporting(ctx context.Context) error
}

// LoadOptions are the per-run knobs.
type LoadOptions struct {
	// MaxRows caps ingested rating rows; 0 or >= etl.all_rows loads everything.
	MaxRows int64

	// Regen drops and recreates rating and movie_title after confirmation.
	Regen bool
}

// Result describes what a run did.
type Result struct {
	Aborted bool

	TitlesLoaded   int
	TitlesSkipped  bool
	StagingSkipped bool
	RowsStaged     int64
	RatingsSkipped bool
	RatingsLoaded  int64
	ReportingBuilt bool

	Stats *Stats
}

// Loader runs the ETL. One Load at a time.
type Loader struct {
	cfg        *config.Config
	store      Store
	progress   ProgressTracker
	confirm    Confirmer
	compressor CompressorFactory
	limiter    *rate.Limiter

	// OnFile, when set, is called before each rating file is extracted.
	OnFile func(dataset.RatingFile)

	mu      sync.Mutex
	running bool
	stats   *Stats
}

// NewLoader wires a loader. progress and confirm may be nil: progress is
// then kept in memory and Regen is always declined.
func NewLoader(cfg *config.Config, store Store, progress ProgressTracker, confirm Confirmer) *Loader {
	if progress == nil {
		progress = NewInMemoryProgress()
	}
	if confirm == nil {
		confirm = Always(false)
	}
	interval := cfg.ETL.ProgressInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Loader{
		cfg:        cfg,
		store:      store,
		progress:   progress,
		confirm:    confirm,
		compressor: NewCompressorFactory(cfg.ETL.Compress, cfg.ETL.Compressor),
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Load runs every phase, skipping those whose output already exists.
func (l *Loader) Load(ctx context.Context, opts LoadOptions) (res *Result, err error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return nil, fmt.Errorf("etl already in progress")
	}
	l.running = true
	l.stats = &Stats{
		RunID:     uuid.New().String(),
		Phase:     PhaseStarting,
		MaxRows:   l.effectiveMaxRows(opts.MaxRows),
		StartTime: time.Now(),
	}
	l.mu.Unlock()

	ctx = logging.ContextWithLogger(ctx, logging.WithComponent("etl"))
	ctx = logging.ContextWithCorrelationID(ctx, l.stats.RunID[:8])
	log := logging.Ctx(ctx)

	res = &Result{}
	defer func() {
		l.mu.Lock()
		l.running = false
		l.stats.EndTime = time.Now()
		switch {
		case err != nil:
			l.stats.Phase = PhaseFailed
			l.stats.Error = err.Error()
		case res.Aborted:
			l.stats.Phase = PhaseAborted
		default:
			l.stats.Phase = PhaseDone
		}
		final := l.stats.clone()
		l.mu.Unlock()

		res.Stats = final
		if saveErr := l.progress.Save(context.WithoutCancel(ctx), final); saveErr != nil {
			log.Warn().Err(saveErr).Msg("Failed to save final progress")
		}
		metrics.RecordRun(res.Aborted, err)
	}()

	if _, statErr := os.Stat(l.cfg.Paths.NetflixDir()); statErr != nil {
		return res, fmt.Errorf("%w: %s", ErrDataDirMissing, l.cfg.Paths.NetflixDir())
	}

	if opts.Regen {
		ok, err := l.confirm.Confirm("Drop and recreate the rating and movie_title tables?")
		if err != nil {
			return res, fmt.Errorf("confirm regen: %w", err)
		}
		if !ok {
			log.Info().Msg("Regeneration declined, nothing changed")
			res.Aborted = true
			return res, nil
		}
		log.Info().Msg("Recreating tables")
		if err := l.store.Recreate(ctx); err != nil {
			return res, err
		}
	} else if err := l.store.EnsureSchema(ctx); err != nil {
		return res, err
	}

	if err := l.loadTitles(ctx, res); err != nil {
		return res, err
	}
	if err := l.loadRatings(ctx, res, opts); err != nil {
		return res, err
	}

	log.Info().
		Int("titles", res.TitlesLoaded).
		Int64("rows_staged", res.RowsStaged).
		Int64("rows_loaded", res.RatingsLoaded).
		Bool("reporting", res.ReportingBuilt).
		Dur("duration", time.Since(l.stats.StartTime)).
		Msg("ETL finished")
	return res, nil
}

// Stats returns a snapshot of the current or last run.
func (l *Loader) Stats() *Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stats == nil {
		return nil
	}
	return l.stats.clone()
}

func (l *Loader) effectiveMaxRows(maxRows int64) int64 {
	if maxRows <= 0 || maxRows > l.cfg.ETL.AllRows {
		return l.cfg.ETL.AllRows
	}
	return maxRows
}

func (l *Loader) loadTitles(ctx context.Context, res *Result) error {
	l.setPhase(ctx, PhaseTitles)

	n, err := l.store.CountRows(ctx, database.TableMovieTitle)
	if err != nil {
		return err
	}
	if n > 0 {
		logging.Ctx(ctx).Warn().Int64("rows", n).Msg("movie_title already populated, skipping")
		res.TitlesSkipped = true
		l.skip(PhaseTitles)
		return nil
	}

	start := time.Now()
	titles, err := dataset.ReadTitles(l.cfg.Paths.TitlesFile())
	if err != nil {
		return err
	}
	if err := l.store.InsertMovieTitles(ctx, titles); err != nil {
		return err
	}
	res.TitlesLoaded = len(titles)
	metrics.RecordPhase(string(PhaseTitles), time.Since(start))
	logging.Ctx(ctx).Info().Int("titles", len(titles)).Dur("duration", time.Since(start)).Msg("Movie titles loaded")
	return nil
}

func (l *Loader) loadRatings(ctx context.Context, res *Result, opts LoadOptions) error {
	artifact := l.cfg.StagingCSV()
	if err := os.MkdirAll(l.cfg.Paths.OutputDir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	l.setPhase(ctx, PhaseStaging)
	if _, err := os.Stat(artifact); err == nil {
		logging.Ctx(ctx).Info().Str("path", artifact).Msg("Staging CSV present, skipping extraction")
		res.StagingSkipped = true
		l.skip(PhaseStaging)
	} else {
		start := time.Now()
		files, err := dataset.ListRatingFiles(l.cfg.Paths.TrainingDir(), l.cfg.ETL.RatingGlob)
		if err != nil {
			return err
		}
		l.mu.Lock()
		l.stats.TotalFiles = len(files)
		l.mu.Unlock()

		rows, err := l.writeStaging(ctx, files, artifact)
		if err != nil {
			return fmt.Errorf("staging: %w", err)
		}
		res.RowsStaged = rows
		metrics.RecordPhase(string(PhaseStaging), time.Since(start))
		logging.Ctx(ctx).Info().
			Int("files", len(files)).
			Int64("rows", rows).
			Dur("duration", time.Since(start)).
			Msg("Staging CSV written")
	}

	n, err := l.store.CountRows(ctx, database.TableRating)
	if err != nil {
		return err
	}
	if n > 0 {
		logging.Ctx(ctx).Warn().Int64("rows", n).Msg("rating already populated, skipping insert")
		res.RatingsSkipped = true
		l.skip(PhaseInsert)
		return l.resumeReporting(ctx, res)
	}

	input, err := l.inputCSV(ctx, artifact, opts.MaxRows)
	if err != nil {
		return err
	}

	l.setPhase(ctx, PhaseInsert)
	start := time.Now()
	loaded, err := l.store.LoadRatingsCSV(ctx, input)
	if err != nil {
		return err
	}
	res.RatingsLoaded = loaded
	l.mu.Lock()
	l.stats.RowsLoaded = loaded
	l.mu.Unlock()
	metrics.ETLRowsLoaded.Add(float64(loaded))
	metrics.RecordPhase(string(PhaseInsert), time.Since(start))
	logging.Ctx(ctx).Info().Int64("rows", loaded).Dur("duration", time.Since(start)).Msg("Ratings inserted")

	return l.regenerateReporting(ctx, res)
}

// inputCSV returns the staging CSV, or a stable prefix of it when max
// rows is below the full dataset size.
func (l *Loader) inputCSV(ctx context.Context, artifact string, maxRows int64) (string, error) {
	limit := l.effectiveMaxRows(maxRows)
	if limit >= l.cfg.ETL.AllRows {
		return artifact, nil
	}

	l.setPhase(ctx, PhaseSubset)
	start := time.Now()
	dst := l.cfg.SubsetCSV()
	n, err := WriteSubset(artifact, dst, limit)
	if err != nil {
		return "", fmt.Errorf("subset: %w", err)
	}
	metrics.RecordPhase(string(PhaseSubset), time.Since(start))
	logging.Ctx(ctx).Info().Int64("rows", n).Str("path", dst).Msg("Subset CSV written")
	return dst, nil
}

// resumeReporting rebuilds reporting tables left empty by a run that died
// after the insert committed.
func (l *Loader) resumeReporting(ctx context.Context, res *Result) error {
	for _, table := range []string{database.TablePopularMovie, database.TableProlificUser} {
		n, err := l.store.CountRows(ctx, table)
		if err != nil {
			return err
		}
		if n == 0 {
			logging.Ctx(ctx).Info().Str("table", table).Msg("Reporting table empty, regenerating")
			return l.regenerateReporting(ctx, res)
		}
	}
	l.skip(PhaseReporting)
	return nil
}

func (l *Loader) regenerateReporting(ctx context.Context, res *Result) error {
	l.setPhase(ctx, PhaseReporting)
	start := time.Now()
	if err := l.store.RegenerateReporting(ctx); err != nil {
		return err
	}
	res.ReportingBuilt = true
	metrics.RecordPhase(string(PhaseReporting), time.Since(start))
	return nil
}

func (l *Loader) setPhase(ctx context.Context, p Phase) {
	l.mu.Lock()
	l.stats.Phase = p
	snapshot := l.stats.clone()
	l.mu.Unlock()

	if err := l.progress.Save(ctx, snapshot); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save progress")
	}
}

func (l *Loader) skip(p Phase) {
	l.mu.Lock()
	l.stats.Skipped = append(l.stats.Skipped, p)
	l.mu.Unlock()
	metrics.RecordPhaseSkipped(string(p))
}

// fileDone updates staging counters; logging and persistence are throttled.
func (l *Loader) fileDone(ctx context.Context, f dataset.RatingFile, rows int64) {
	l.mu.Lock()
	l.stats.FilesProcessed++
	l.stats.RowsStaged += rows
	l.stats.LastFile = f.Path
	last := l.stats.FilesProcessed == l.stats.TotalFiles
	snapshot := l.stats.clone()
	l.mu.Unlock()

	if !last && !l.limiter.Allow() {
		return
	}

	logging.Ctx(ctx).Info().
		Float64("progress_percent", snapshot.Progress()).
		Int("files", snapshot.FilesProcessed).
		Int("total_files", snapshot.TotalFiles).
		Int64("rows", snapshot.RowsStaged).
		Float64("rows_per_second", snapshot.RowsPerSecond()).
		Msg("Staging progress")
	if err := l.progress.Save(ctx, snapshot); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to save progress")
	}
}
