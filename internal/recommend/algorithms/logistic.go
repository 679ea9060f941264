// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package algorithms

import (
	"context"
	"math"
	"math/rand"

	"github.com/tomtom215/mediabridge/internal/matrix"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

// LogisticConfig contains configuration for the Logistic model.
type LogisticConfig struct {
	// LearningRate is the SGD step size.
	// Default: 0.05.
	LearningRate float64

	// Regularization is the L2 penalty on latent factors. Biases are not
	// regularized.
	// Default: 0.0001.
	Regularization float64

	// Seed for initialization and shuffling.
	// If 0, uses a default seed.
	Seed int64
}

// DefaultLogisticConfig returns default Logistic configuration.
func DefaultLogisticConfig() LogisticConfig {
	return LogisticConfig{
		LearningRate:   0.05,
		Regularization: 0.0001,
		Seed:           42,
	}
}

// Logistic is a matrix factorization trained with logistic loss:
//
//	score(u,i) = user_factors[u] . item_factors[i] + item_bias[i]
//
// Every stored entry is a labelled example: label 1 when the value is
// positive, 0 otherwise, weighted by |value|, so a one-star rating pushes
// harder than a two-star one. Unstored cells are not examples.
type Logistic struct {
	BaseAlgorithm
	config LogisticConfig

	// userFactors is numUsers x latentDim
	userFactors [][]float64

	// itemFactors is numItems x latentDim
	itemFactors [][]float64

	itemBias []float64
}

// NewLogistic creates a new Logistic model with the given configuration.
func NewLogistic(cfg LogisticConfig) *Logistic {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.05
	}
	if cfg.Regularization < 0 {
		cfg.Regularization = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}

	return &Logistic{
		BaseAlgorithm: NewBaseAlgorithm("logistic"),
		config:        cfg,
	}
}

// Fit trains the model with SGD over shuffled entries. The context is only
// checked before training starts.
func (l *Logistic) Fit(ctx context.Context, m *matrix.COO, epochs, latentDim int) error {
	if err := validateFit(m, epochs, latentDim); err != nil {
		return err
	}

	l.acquireTrainLock()
	defer l.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	//nolint:gosec // G404: math/rand is acceptable for ML initialization (not security)
	rng := rand.New(rand.NewSource(l.config.Seed))

	numUsers, numItems := m.Shape()
	userFactors := initFactors(rng, numUsers, latentDim)
	itemFactors := initFactors(rng, numItems, latentDim)
	itemBias := make([]float64, numItems)

	order := make([]int, m.NNZ())
	for i := range order {
		order[i] = i
	}

	lr := l.config.LearningRate
	reg := l.config.Regularization

	for epoch := 0; epoch < epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		for _, k := range order {
			e := m.Entry(k)
			label := 0.0
			if e.Value > 0 {
				label = 1
			}
			weight := math.Abs(e.Value)

			u := userFactors[e.Row]
			v := itemFactors[e.Col]

			// d/d_score of the weighted log-likelihood
			g := weight * (label - sigmoid(dot(u, v)+itemBias[e.Col]))

			for f := range u {
				uf, vf := u[f], v[f]
				u[f] += lr * (g*vf - reg*uf)
				v[f] += lr * (g*uf - reg*vf)
			}
			itemBias[e.Col] += lr * g
		}

		if epoch > 0 && epoch%10 == 0 {
			lr *= 0.95
		}
	}

	l.userFactors = userFactors
	l.itemFactors = itemFactors
	l.itemBias = itemBias
	l.markTrained()
	return nil
}

// Predict returns raw scores (not probabilities) for the given items.
func (l *Logistic) Predict(_ context.Context, userIdx int, itemIdxs []int) ([]float64, error) {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	if !l.trained {
		return nil, ErrNotTrained
	}
	if err := checkIndexes(userIdx, itemIdxs, len(l.userFactors), len(l.itemFactors)); err != nil {
		return nil, err
	}

	userVec := l.userFactors[userIdx]
	scores := make([]float64, len(itemIdxs))
	for k, i := range itemIdxs {
		scores[k] = dot(userVec, l.itemFactors[i]) + l.itemBias[i]
	}
	return scores, nil
}

// State returns a copy of the trained parameters.
func (l *Logistic) State() storage.FactorModelState {
	l.acquirePredictLock()
	defer l.releasePredictLock()

	return storage.FactorModelState{
		UserFactors: copyMatrix(l.userFactors),
		ItemFactors: copyMatrix(l.itemFactors),
		ItemBias:    append([]float64(nil), l.itemBias...),
	}
}

// Restore replaces the parameters with a saved state.
func (l *Logistic) Restore(state storage.FactorModelState) error {
	if err := validateState(state); err != nil {
		return err
	}

	l.acquireTrainLock()
	defer l.releaseTrainLock()

	l.userFactors = copyMatrix(state.UserFactors)
	l.itemFactors = copyMatrix(state.ItemFactors)
	l.itemBias = make([]float64, len(state.ItemFactors))
	copy(l.itemBias, state.ItemBias)
	l.markTrained()
	return nil
}

// initFactors draws small uniform values centred on zero.
func initFactors(rng *rand.Rand, n, dim int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
		for f := range out[i] {
			out[i][f] = (rng.Float64() - 0.5) * 0.01
		}
	}
	return out
}
