// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"mediabridge.yaml",
	"mediabridge.yml",
	"config.yaml",
	"/etc/mediabridge/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultDatasetURL is the archive.org mirror of the Netflix Prize data.
const DefaultDatasetURL = "https://archive.org/download/nf_prize_dataset.tar/nf_prize_dataset.tar.gz"

func defaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:    "data",
			OutputDir:  "out",
			DatasetURL: DefaultDatasetURL,
		},
		Database: DatabaseConfig{
			Path:      "out/mediabridge.duckdb",
			MaxMemory: "4GB",
			Threads:   0,
		},
		ETL: ETLConfig{
			Compress:         true,
			Compressor:       "gzip",
			RatingGlob:       "mv_*.txt",
			AllRows:          100_480_507,
			MaxReviews:       0,
			ProgressInterval: 5 * time.Second,
			ProgressDir:      "out/progress",
		},
		Recommend: RecommendConfig{
			Algorithm:         "logistic",
			LatentDim:         30,
			Epochs:            10,
			LearningRate:      0.05,
			Regularization:    0.0001,
			Seed:              42,
			ThresholdRatio:    0.85,
			MaxTrainingUserID: 800,
			LargeMovieID:      9_770,
			LikedMaxUsers:     500,
			LikedMinRating:    4,
			ModelDir:          "out/models",
			ReuseSnapshots:    true,
		},
		Server: ServerConfig{
			Host:             "127.0.0.1",
			Port:             5000,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     2 * time.Minute,
			ShutdownTimeout:  10 * time.Second,
			RecommendTimeout: 90 * time.Second,
			RateLimitReqs:    100,
			RateLimitWindow:  time.Minute,
			CORSOrigins:      []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Caller: false,
		},
	}
}

// Load reads configuration with precedence ENV > file > defaults.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path; "" skips the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice settings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored.
var envMappings = map[string]string{
	"data_dir":    "paths.data_dir",
	"output_dir":  "paths.output_dir",
	"dataset_url": "paths.dataset_url",

	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",

	"etl_compress":          "etl.compress",
	"etl_compressor":        "etl.compressor",
	"etl_rating_glob":       "etl.rating_glob",
	"etl_all_rows":          "etl.all_rows",
	"etl_max_reviews":       "etl.max_reviews",
	"etl_progress_interval": "etl.progress_interval",
	"etl_progress_dir":      "etl.progress_dir",

	"recommend_algorithm":            "recommend.algorithm",
	"recommend_latent_dim":           "recommend.latent_dim",
	"recommend_epochs":               "recommend.epochs",
	"recommend_learning_rate":        "recommend.learning_rate",
	"recommend_regularization":       "recommend.regularization",
	"recommend_seed":                 "recommend.seed",
	"recommend_threshold_ratio":      "recommend.threshold_ratio",
	"recommend_max_training_user_id": "recommend.max_training_user_id",
	"recommend_large_movie_id":       "recommend.large_movie_id",
	"recommend_liked_max_users":      "recommend.liked_max_users",
	"recommend_liked_min_rating":     "recommend.liked_min_rating",
	"recommend_model_dir":            "recommend.model_dir",
	"recommend_reuse_snapshots":      "recommend.reuse_snapshots",

	"http_host":              "server.host",
	"http_port":              "server.port",
	"http_read_timeout":      "server.read_timeout",
	"http_write_timeout":     "server.write_timeout",
	"http_shutdown_timeout":  "server.shutdown_timeout",
	"http_recommend_timeout": "server.recommend_timeout",
	"rate_limit_reqs":        "server.rate_limit_reqs",
	"rate_limit_window":      "server.rate_limit_window",
	"cors_origins":           "server.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps DUCKDB_PATH -> database.path and so on.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
