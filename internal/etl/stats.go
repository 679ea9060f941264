// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package etl

import (
	"time"
)

// Phase names a step of the ETL run.
type Phase string

const (
	PhaseStarting  Phase = "starting"
	PhaseTitles    Phase = "titles"
	PhaseStaging   Phase = "staging"
	PhaseSubset    Phase = "subset"
	PhaseInsert    Phase = "insert"
	PhaseReporting Phase = "reporting"
	PhaseDone      Phase = "done"
	PhaseFailed    Phase = "failed"
	PhaseAborted   Phase = "aborted"
)

// Stats is the run state saved by a ProgressTracker.
type Stats struct {
	RunID string `json:"run_id"`
	Phase Phase  `json:"phase"`

	// TotalFiles and FilesProcessed track staging-CSV extraction.
	TotalFiles     int    `json:"total_files"`
	FilesProcessed int    `json:"files_processed"`
	LastFile       string `json:"last_file,omitempty"`

	RowsStaged int64 `json:"rows_staged"`
	RowsLoaded int64 `json:"rows_loaded"`
	MaxRows    int64 `json:"max_rows"`

	// Skipped lists phases short-circuited because their output already existed.
	Skipped []Phase `json:"skipped,omitempty"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Duration returns the elapsed time of the run.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Progress returns staging progress as a percentage (0-100).
func (s *Stats) Progress() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	return float64(s.FilesProcessed) / float64(s.TotalFiles) * 100
}

// RowsPerSecond returns the staging rate.
func (s *Stats) RowsPerSecond() float64 {
	d := s.Duration().Seconds()
	if d == 0 {
		return 0
	}
	return float64(s.RowsStaged) / d
}

func (s *Stats) clone() *Stats {
	c := *s
	c.Skipped = append([]Phase(nil), s.Skipped...)
	return &c
}

// ProgressSummary is the human-facing view printed by `mediabridge status`.
type ProgressSummary struct {
	RunID           string    `json:"run_id"`
	Status          string    `json:"status"`
	Phase           Phase     `json:"phase"`
	Progress        float64   `json:"progress"`
	FilesProcessed  int       `json:"files_processed"`
	TotalFiles      int       `json:"total_files"`
	RowsStaged      int64     `json:"rows_staged"`
	RowsLoaded      int64     `json:"rows_loaded"`
	RowsPerSec      float64   `json:"rows_per_second"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	EstimatedRemain float64   `json:"estimated_remaining_seconds"`
	StartTime       time.Time `json:"start_time"`
	LastFile        string    `json:"last_file,omitempty"`
	Error           string    `json:"error,omitempty"`
}

// ToSummary converts Stats to a ProgressSummary with calculated fields.
func (s *Stats) ToSummary(running bool) *ProgressSummary {
	summary := &ProgressSummary{
		RunID:          s.RunID,
		Phase:          s.Phase,
		Progress:       s.Progress(),
		FilesProcessed: s.FilesProcessed,
		TotalFiles:     s.TotalFiles,
		RowsStaged:     s.RowsStaged,
		RowsLoaded:     s.RowsLoaded,
		RowsPerSec:     s.RowsPerSecond(),
		ElapsedSeconds: s.Duration().Seconds(),
		StartTime:      s.StartTime,
		LastFile:       s.LastFile,
		Error:          s.Error,
	}

	switch {
	case running:
		summary.Status = "running"
	case s.Phase == PhaseFailed:
		summary.Status = "failed"
	case s.Phase == PhaseAborted:
		summary.Status = "aborted"
	case s.EndTime.IsZero():
		// saved mid-run by a process that is gone
		summary.Status = "interrupted"
	default:
		summary.Status = "completed"
	}

	if running && s.Phase == PhaseStaging && s.FilesProcessed > 0 {
		perFile := s.Duration().Seconds() / float64(s.FilesProcessed)
		summary.EstimatedRemain = perFile * float64(s.TotalFiles-s.FilesProcessed)
	}
	return summary
}
