// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package recommend

import (
	"fmt"

	"github.com/tomtom215/mediabridge/internal/config"
	"github.com/tomtom215/mediabridge/internal/recommend/algorithms"
)

// Algorithm names accepted by recommend.algorithm.
const (
	AlgorithmLogistic = "logistic"
	AlgorithmALS      = "als"
)

// keepSnapshots is how many versions of each model are kept on disk.
const keepSnapshots = 3

// validateConfig checks what the engine relies on. Config loading has
// already validated ranges; this guards engines built by hand.
func validateConfig(cfg *config.RecommendConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil recommend config")
	}
	if cfg.LatentDim < 1 {
		return fmt.Errorf("recommend.latent_dim must be positive, got %d", cfg.LatentDim)
	}
	if cfg.Epochs < 1 {
		return fmt.Errorf("recommend.epochs must be positive, got %d", cfg.Epochs)
	}
	if cfg.ThresholdRatio <= 0 || cfg.ThresholdRatio > 1 {
		return fmt.Errorf("recommend.threshold_ratio must be in (0, 1], got %f", cfg.ThresholdRatio)
	}
	if cfg.LikedMaxUsers < 1 {
		return fmt.Errorf("recommend.liked_max_users must be positive, got %d", cfg.LikedMaxUsers)
	}
	if _, err := NewModel(cfg); err != nil {
		return err
	}
	return nil
}

// NewModel returns an untrained model for cfg.Algorithm.
func NewModel(cfg *config.RecommendConfig) (algorithms.Trainable, error) {
	switch cfg.Algorithm {
	case AlgorithmLogistic, "":
		return algorithms.NewLogistic(algorithms.LogisticConfig{
			LearningRate:   cfg.LearningRate,
			Regularization: cfg.Regularization,
			Seed:           cfg.Seed,
		}), nil
	case AlgorithmALS:
		als := algorithms.DefaultALSConfig()
		if cfg.Regularization > 0 {
			als.Regularization = cfg.Regularization
		}
		return algorithms.NewALS(als), nil
	default:
		return nil, fmt.Errorf("unknown recommend.algorithm %q", cfg.Algorithm)
	}
}
