// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/database"
	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/matrix"
	"github.com/tomtom215/mediabridge/internal/metrics"
	"github.com/tomtom215/mediabridge/internal/models"
	"github.com/tomtom215/mediabridge/internal/recommend/algorithms"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

var (
	// ErrUnknownUser means the subject has no non-neutral ratings within
	// the training bound.
	ErrUnknownUser = errors.New("user has no ratings in the training matrix")

	// ErrInvalidRequest wraps argument errors.
	ErrInvalidRequest = errors.New("invalid recommendation request")
)

// syntheticUserID is the row of the RecommendForLiked user. Real IDs are
// positive.
const syntheticUserID = -1

// Modes reported in metrics and logs.
const (
	modeSubject = "subject"
	modeLiked   = "liked"
)

// Store is the read side of the database the engine needs.
type Store interface {
	matrix.RatingSource
	UsersWhoLiked(ctx context.Context, liked []models.MovieID, minRating, limit int) ([]int, error)
	GetMovieTitle(ctx context.Context, id models.MovieID) (*models.MovieTitle, error)
}

// Engine trains a fresh model per call. It is safe for concurrent use.
type Engine struct {
	store  Store
	config config.RecommendConfig

	newModel func(*config.RecommendConfig) (algorithms.Trainable, error)

	// snapshots is nil unless recommend.model_dir is set
	snapshots *storage.Store
	snapMu    sync.Mutex
}

// NewEngine validates cfg and opens the snapshot directory if configured.
func NewEngine(store Store, cfg *config.RecommendConfig) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		store:    store,
		config:   *cfg,
		newModel: NewModel,
	}
	if cfg.ModelDir != "" {
		s, err := storage.NewStore(cfg.ModelDir)
		if err != nil {
			return nil, err
		}
		e.snapshots = s
	}
	return e, nil
}

// Recommend trains on users with ID <= maxTrainingUserID. The subject is
// user maxTrainingUserID: its ratings of movies >= largeMovieID are
// removed before training, and movies > largeMovieID are scored.
func (e *Engine) Recommend(ctx context.Context, maxTrainingUserID, largeMovieID int) (set models.MovieSet, err error) {
	defer func() { metrics.RecordRecommendation(modeSubject, len(set), err) }()

	if maxTrainingUserID <= 0 || largeMovieID <= 0 {
		return nil, fmt.Errorf("%w: max training user %d, large movie %d must be positive",
			ErrInvalidRequest, maxTrainingUserID, largeMovieID)
	}

	ctx = e.withLogger(ctx, modeSubject)
	log := logging.Ctx(ctx)
	subject := maxTrainingUserID

	in, err := matrix.Collect(ctx, e.store, matrix.CollectOptions{
		Filter: database.RatingFilter{MaxUserID: maxTrainingUserID},
	})
	if err != nil {
		return nil, err
	}
	if _, ok := in.Users.Lookup(subject); !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, subject)
	}

	blinded := in.Blind(subject, func(id models.MovieID) bool {
		return int(id) >= largeMovieID
	})
	m := in.Freeze()

	var candidates []models.MovieID
	for _, id := range m.Movies.IDs() {
		if int(id) > largeMovieID {
			candidates = append(candidates, id)
		}
	}

	log.Info().
		Int("subject", subject).
		Int("blinded", blinded).
		Int("candidates", len(candidates)).
		Msg("Training matrix ready")

	return e.fitAndSelect(ctx, m, subject, candidates)
}

// RecommendForLiked recommends movies for someone who liked every movie in
// liked. The result never contains the liked movies.
func (e *Engine) RecommendForLiked(ctx context.Context, liked []models.MovieID) (set models.MovieSet, err error) {
	defer func() { metrics.RecordRecommendation(modeLiked, len(set), err) }()

	liked = models.NewMovieSet(liked...).Sorted()
	if len(liked) == 0 {
		return nil, fmt.Errorf("%w: no liked movies", ErrInvalidRequest)
	}
	for _, id := range liked {
		if id <= 0 {
			return nil, fmt.Errorf("%w: movie id %d", ErrInvalidRequest, id)
		}
	}

	ctx = e.withLogger(ctx, modeLiked)
	log := logging.Ctx(ctx)

	users, err := e.store.UsersWhoLiked(ctx, liked, e.config.LikedMinRating, e.config.LikedMaxUsers)
	if err != nil {
		return nil, err
	}

	var src matrix.RatingSource = e.store
	if len(users) == 0 {
		// An empty UserIDs filter would read everyone.
		src = emptyRatings{e.store}
	}
	in, err := matrix.Collect(ctx, src, matrix.CollectOptions{
		Filter:       database.RatingFilter{UserIDs: users},
		ReserveUsers: 1,
	})
	if err != nil {
		return nil, err
	}

	for _, id := range liked {
		if err := in.Set(syntheticUserID, id, 1); err != nil {
			if errors.Is(err, matrix.ErrUnknownMovie) {
				return nil, fmt.Errorf("%w: %s", database.ErrMovieNotFound, id)
			}
			return nil, err
		}
	}
	m := in.Freeze()

	likedSet := models.NewMovieSet(liked...)
	var candidates []models.MovieID
	for _, id := range m.Movies.IDs() {
		if !likedSet.Contains(id) {
			candidates = append(candidates, id)
		}
	}

	log.Info().
		Int("liked", len(liked)).
		Int("neighbours", len(users)).
		Int("candidates", len(candidates)).
		Msg("Training matrix ready")
	if len(users) == 0 {
		log.Warn().Msg("No users liked every input movie, scores reflect the inputs only")
	}

	return e.fitAndSelect(ctx, m, syntheticUserID, candidates)
}

// GetTitle resolves a movie ID to its title.
func (e *Engine) GetTitle(ctx context.Context, id models.MovieID) (string, error) {
	mt, err := e.store.GetMovieTitle(ctx, id)
	if err != nil {
		return "", err
	}
	return mt.Title, nil
}

// fitAndSelect trains a new model on m and thresholds the user's scores
// over candidates.
func (e *Engine) fitAndSelect(ctx context.Context, m *matrix.Matrix, userID int, candidates []models.MovieID) (models.MovieSet, error) {
	log := logging.Ctx(ctx)
	if len(candidates) == 0 {
		log.Warn().Msg("No candidate movies, nothing to score")
		return models.NewMovieSet(), nil
	}

	model, err := e.newModel(&e.config)
	if err != nil {
		return nil, err
	}

	var key string
	if e.snapshots != nil {
		key = e.trainingKey(m)
	}
	if !e.restore(ctx, model, key) {
		start := time.Now()
		if err := model.Fit(ctx, m.COO(), e.config.Epochs, e.config.LatentDim); err != nil {
			return nil, fmt.Errorf("train %s: %w", model.Name(), err)
		}
		elapsed := time.Since(start)
		metrics.RecordTraining(model.Name(), elapsed)
		log.Info().
			Str("algorithm", model.Name()).
			Int("epochs", e.config.Epochs).
			Int("latent_dim", e.config.LatentDim).
			Int("nnz", m.COO().NNZ()).
			Dur("duration", elapsed).
			Msg("Model trained")

		e.snapshot(ctx, model, m, key, elapsed)
	}

	row, ok := m.Users.Lookup(userID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownUser, userID)
	}
	cols := make([]int, len(candidates))
	for i, id := range candidates {
		cols[i], _ = m.Movies.Lookup(id)
	}

	scores, err := model.Predict(ctx, row, cols)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	set := Threshold(candidates, scores, e.config.ThresholdRatio)
	log.Info().
		Int("recommended", len(set)).
		Float64("max_score", maxScore(scores)).
		Msg("Recommendations selected")
	return set, nil
}

// Threshold returns the ids whose score exceeds ratio times the maximum
// score. A non-positive maximum admits nothing.
func Threshold(ids []models.MovieID, scores []float64, ratio float64) models.MovieSet {
	set := models.NewMovieSet()
	if len(scores) == 0 {
		return set
	}
	cut := ratio * maxScore(scores)
	for i, s := range scores {
		if s > cut {
			set.Add(ids[i])
		}
	}
	return set
}

func maxScore(scores []float64) float64 {
	mx := math.Inf(-1)
	for _, s := range scores {
		if s > mx {
			mx = s
		}
	}
	return mx
}

// trainingKey identifies the training input together with every setting
// that changes the fitted parameters.
func (e *Engine) trainingKey(m *matrix.Matrix) string {
	c := &e.config
	return fmt.Sprintf("%s:e%d:k%d:lr%g:reg%g:seed%d",
		m.Fingerprint(), c.Epochs, c.LatentDim, c.LearningRate, c.Regularization, c.Seed)
}

// restore loads the newest snapshot of model trained under key. It reports
// false when the model still has to be trained.
func (e *Engine) restore(ctx context.Context, model algorithms.Trainable, key string) bool {
	if e.snapshots == nil || !e.config.ReuseSnapshots {
		return false
	}
	s, ok := model.(algorithms.Snapshotter)
	if !ok {
		return false
	}

	e.snapMu.Lock()
	defer e.snapMu.Unlock()

	log := logging.Ctx(ctx)
	name := model.Name()
	version, err := e.snapshots.FindVersion(ctx, name, func(meta *storage.ModelMetadata) bool {
		return meta.TrainingKey == key
	})
	if err != nil {
		if !errors.Is(err, storage.ErrModelNotFound) {
			log.Warn().Err(err).Str("algorithm", name).Msg("Failed to search model snapshots")
		}
		return false
	}

	var state storage.FactorModelState
	if _, err := e.snapshots.Load(ctx, name, version, &state); err != nil {
		log.Warn().Err(err).Str("algorithm", name).Int("version", version).Msg("Failed to load model snapshot")
		return false
	}
	if err := s.Restore(state); err != nil {
		log.Warn().Err(err).Str("algorithm", name).Int("version", version).Msg("Failed to restore model snapshot")
		return false
	}

	metrics.RecordSnapshotRestore(name)
	log.Info().Str("algorithm", name).Int("version", version).Msg("Model restored from snapshot")
	return true
}

// snapshot saves the trained model when a model directory is configured.
// Failures are logged; a snapshot never fails a recommendation.
func (e *Engine) snapshot(ctx context.Context, model algorithms.Trainable, m *matrix.Matrix, key string, elapsed time.Duration) {
	if e.snapshots == nil {
		return
	}
	s, ok := model.(algorithms.Snapshotter)
	if !ok {
		return
	}

	e.snapMu.Lock()
	defer e.snapMu.Unlock()

	log := logging.Ctx(ctx)
	rows, cols := m.COO().Shape()
	name := model.Name()
	version := e.snapshots.NextVersion(name)
	meta := storage.ModelMetadata{
		TrainedAt:          time.Now(),
		UserCount:          rows,
		ItemCount:          cols,
		InteractionCount:   m.COO().NNZ(),
		Epochs:             e.config.Epochs,
		LatentDim:          e.config.LatentDim,
		TrainingKey:        key,
		TrainingDurationMS: elapsed.Milliseconds(),
	}
	if err := e.snapshots.Save(ctx, name, version, s.State(), meta); err != nil {
		log.Warn().Err(err).Str("algorithm", name).Msg("Failed to save model snapshot")
		return
	}
	if _, err := e.snapshots.Prune(ctx, name, keepSnapshots); err != nil {
		log.Warn().Err(err).Str("algorithm", name).Msg("Failed to prune model snapshots")
	}
	log.Debug().Str("algorithm", name).Int("version", version).Msg("Model snapshot saved")
}

func (e *Engine) withLogger(ctx context.Context, mode string) context.Context {
	logger := logging.WithComponent("recommend").With().Str("mode", mode).Logger()
	ctx = logging.ContextWithLogger(ctx, logger)
	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	return ctx
}

// emptyRatings keeps the title axis of a store but reports no ratings.
type emptyRatings struct {
	matrix.RatingSource
}

func (emptyRatings) CountUsers(context.Context, database.RatingFilter) (int, error) {
	return 0, nil
}

func (emptyRatings) EachRating(context.Context, database.RatingFilter, func(models.Rating) error) error {
	return nil
}
