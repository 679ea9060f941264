// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package metrics exposes Prometheus instrumentation for the ETL, matrix
// construction, model training and the HTTP API. `mediabridge serve`
// publishes them on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ETL
	ETLFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_rating_files_processed_total",
			Help: "Per-movie rating files read into the staging CSV",
		},
	)

	ETLRowsStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_rows_staged_total",
			Help: "Rating rows written to the staging CSV",
		},
	)

	ETLRowsLoaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "etl_rows_loaded_total",
			Help: "Rating rows inserted into DuckDB",
		},
	)

	ETLPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "etl_phase_duration_seconds",
			Help:    "Duration of ETL phases",
			Buckets: []float64{0.1, 1, 10, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"phase"}, // titles, staging, subset, insert, reporting
	)

	ETLPhaseSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_phase_skipped_total",
			Help: "ETL phases skipped because their output already existed",
		},
		[]string{"phase"},
	)

	ETLRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "etl_runs_total",
			Help: "ETL runs by outcome",
		},
		[]string{"status"}, // success, failed, aborted
	)

	// Matrix
	MatrixBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matrix_build_duration_seconds",
			Help:    "Time to collect ratings into a sparse interaction matrix",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 120, 600},
		},
	)

	MatrixNonZeros = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matrix_nonzero_entries",
			Help: "Non-zero entries of the most recently built matrix",
		},
	)

	// Recommendation
	ModelTrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "model_training_duration_seconds",
			Help:    "Wall time of model Fit calls",
			Buckets: []float64{0.01, 0.1, 1, 5, 30, 120, 600, 1800},
		},
		[]string{"algorithm"},
	)

	ModelSnapshotRestores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "model_snapshot_restores_total",
			Help: "Trainings skipped because a matching snapshot was restored",
		},
		[]string{"algorithm"},
	)

	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_total",
			Help: "Recommendation requests by mode and outcome",
		},
		[]string{"mode", "status"}, // mode: subject, liked
	)

	RecommendationSetSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_set_size",
			Help:    "Number of movies admitted by the score threshold",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
		},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Database
	TableRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "database_table_rows",
			Help: "Row count per table, refreshed by the serve process",
		},
		[]string{"table"}, // movie_title, rating, popular_movie, prolific_user
	)
)

// RecordPhase records an ETL phase that ran.
func RecordPhase(phase string, duration time.Duration) {
	ETLPhaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

// RecordPhaseSkipped records an idempotence short-circuit.
func RecordPhaseSkipped(phase string) {
	ETLPhaseSkipped.WithLabelValues(phase).Inc()
}

// RecordRun records the outcome of Loader.Load.
func RecordRun(aborted bool, err error) {
	switch {
	case err != nil:
		ETLRuns.WithLabelValues("failed").Inc()
	case aborted:
		ETLRuns.WithLabelValues("aborted").Inc()
	default:
		ETLRuns.WithLabelValues("success").Inc()
	}
}

// RecordMatrixBuild records a completed matrix build.
func RecordMatrixBuild(duration time.Duration, nnz int) {
	MatrixBuildDuration.Observe(duration.Seconds())
	MatrixNonZeros.Set(float64(nnz))
}

// RecordTraining records one Fit call.
func RecordTraining(algorithm string, duration time.Duration) {
	ModelTrainingDuration.WithLabelValues(algorithm).Observe(duration.Seconds())
}

// RecordSnapshotRestore records a model restored instead of trained.
func RecordSnapshotRestore(algorithm string) {
	ModelSnapshotRestores.WithLabelValues(algorithm).Inc()
}

// RecordRecommendation records a recommendation outcome; size is ignored on error.
func RecordRecommendation(mode string, size int, err error) {
	if err != nil {
		RecommendationsTotal.WithLabelValues(mode, "error").Inc()
		return
	}
	RecommendationsTotal.WithLabelValues(mode, "ok").Inc()
	RecommendationSetSize.Observe(float64(size))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest adjusts the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordTableRows sets the row-count gauge of one table.
func RecordTableRows(table string, rows int64) {
	TableRows.WithLabelValues(table).Set(float64(rows))
}
