// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package services

import (
	"context"
	"time"

	"github.com/tomtom215/mediabridge/internal/logging"
	"github.com/tomtom215/mediabridge/internal/metrics"
	"github.com/tomtom215/mediabridge/internal/models"
)

const defaultStatsInterval = time.Minute

// CountSource reports table sizes; *database.DB satisfies it.
type CountSource interface {
	Counts(ctx context.Context) (models.TableCounts, error)
}

// StatsService publishes table row counts as gauges. A failed refresh is
// logged and retried on the next tick rather than restarting the service.
type StatsService struct {
	source   CountSource
	interval time.Duration
	name     string
}

// NewStatsService refreshes every interval, one minute when non-positive.
func NewStatsService(source CountSource, interval time.Duration) *StatsService {
	if interval <= 0 {
		interval = defaultStatsInterval
	}
	return &StatsService{
		source:   source,
		interval: interval,
		name:     "table-stats",
	}
}

// Serve refreshes once immediately, then on every tick until ctx ends.
func (s *StatsService) Serve(ctx context.Context) error {
	s.refresh(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *StatsService) refresh(ctx context.Context) {
	counts, err := s.source.Counts(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Str("service", s.name).Msg("Failed to refresh table counts")
		}
		return
	}
	metrics.RecordTableRows("movie_title", counts.MovieTitles)
	metrics.RecordTableRows("rating", counts.Ratings)
	metrics.RecordTableRows("popular_movie", counts.PopularMovies)
	metrics.RecordTableRows("prolific_user", counts.ProlificUsers)
}

// String names the service in supervisor events.
func (s *StatsService) String() string {
	return s.name
}
