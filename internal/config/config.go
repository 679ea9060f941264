// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

// Package config loads MediaBridge settings from defaults, an optional YAML
// file and environment variables, in that order of precedence (lowest first).
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration.
type Config struct {
	Paths     PathsConfig     `koanf:"paths"`
	Database  DatabaseConfig  `koanf:"database"`
	ETL       ETLConfig       `koanf:"etl"`
	Recommend RecommendConfig `koanf:"recommend"`
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PathsConfig locates the dataset and the output artifacts.
type PathsConfig struct {
	// DataDir holds nf_prize_dataset/ after `mediabridge init`.
	DataDir string `koanf:"data_dir" validate:"required"`

	// OutputDir receives staging CSVs, the DuckDB file, progress state and models.
	OutputDir string `koanf:"output_dir" validate:"required"`

	DatasetURL string `koanf:"dataset_url" validate:"omitempty,url"`
}

// NetflixDir is the extracted dataset root.
func (p PathsConfig) NetflixDir() string {
	return filepath.Join(p.DataDir, "nf_prize_dataset")
}

// TitlesFile is movie_titles.txt.
func (p PathsConfig) TitlesFile() string {
	return filepath.Join(p.NetflixDir(), "movie_titles.txt")
}

// TrainingDir holds the per-movie mv_*.txt rating files.
func (p PathsConfig) TrainingDir() string {
	return filepath.Join(p.NetflixDir(), "training_set", "training_set")
}

// DatabaseConfig configures the DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory" validate:"required,datasize"`
	Threads   int    `koanf:"threads" validate:"gte=0"` // 0 = runtime.NumCPU()
}

// ETLConfig tunes the rating load.
type ETLConfig struct {
	// Compress writes the staging artifact as rating.csv.gz through a child compressor.
	Compress bool `koanf:"compress"`

	// Compressor is the command run as `<cmd> -c`. Empty uses the in-process writer.
	Compressor string `koanf:"compressor"`

	RatingGlob string `koanf:"rating_glob" validate:"required"`

	// AllRows is the size of the full dataset; max_reviews below it triggers subsetting.
	AllRows int64 `koanf:"all_rows" validate:"gt=0"`

	// MaxReviews caps ingested rating rows. 0, or anything above AllRows,
	// loads the whole dataset.
	MaxReviews int64 `koanf:"max_reviews" validate:"gte=0"`

	ProgressInterval time.Duration `koanf:"progress_interval"`

	// ProgressDir is the Badger directory for run state. Empty keeps it in memory.
	ProgressDir string `koanf:"progress_dir"`
}

// RecommendConfig configures training and thresholding.
type RecommendConfig struct {
	Algorithm         string  `koanf:"algorithm" validate:"oneof=logistic als"`
	LatentDim         int     `koanf:"latent_dim" validate:"gt=0"`
	Epochs            int     `koanf:"epochs" validate:"gt=0"`
	LearningRate      float64 `koanf:"learning_rate" validate:"gt=0"`
	Regularization    float64 `koanf:"regularization" validate:"gte=0"`
	Seed              int64   `koanf:"seed"`
	ThresholdRatio    float64 `koanf:"threshold_ratio" validate:"gt=0,lte=1"`
	MaxTrainingUserID int     `koanf:"max_training_user_id" validate:"gt=0"`
	LargeMovieID      int     `koanf:"large_movie_id" validate:"gt=0"`
	LikedMaxUsers     int     `koanf:"liked_max_users" validate:"gt=0"`
	LikedMinRating    int     `koanf:"liked_min_rating" validate:"gte=1,lte=5"`
	ModelDir          string  `koanf:"model_dir"` // empty disables model snapshots

	// ReuseSnapshots restores a snapshot trained on identical input and
	// settings instead of training again.
	ReuseSnapshots bool `koanf:"reuse_snapshots"`
}

// ServerConfig configures `mediabridge serve`.
type ServerConfig struct {
	Host             string        `koanf:"host"`
	Port             int           `koanf:"port" validate:"gte=1,lte=65535"`
	ReadTimeout      time.Duration `koanf:"read_timeout"`
	WriteTimeout     time.Duration `koanf:"write_timeout"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	RecommendTimeout time.Duration `koanf:"recommend_timeout"`
	RateLimitReqs    int           `koanf:"rate_limit_reqs" validate:"gte=0"`
	RateLimitWindow  time.Duration `koanf:"rate_limit_window"`
	CORSOrigins      []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StagingCSV is the path of the extracted rating artifact.
func (c *Config) StagingCSV() string {
	name := "rating.csv"
	if c.ETL.Compress {
		name += ".gz"
	}
	return filepath.Join(c.Paths.OutputDir, name)
}

// SubsetCSV is the path of the max-reviews prefix of StagingCSV.
func (c *Config) SubsetCSV() string {
	name := "rating-small.csv"
	if c.ETL.Compress {
		name += ".gz"
	}
	return filepath.Join(c.Paths.OutputDir, name)
}
