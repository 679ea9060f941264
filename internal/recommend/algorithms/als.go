// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package algorithms

import (
	"context"
	"math"
	"sync"

	"github.com/tomtom215/mediabridge/internal/matrix"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

// ALSConfig contains configuration for the ALS algorithm.
type ALSConfig struct {
	// Regularization is the L2 regularization parameter.
	// Typical range: 0.01-0.1.
	Regularization float64

	// Alpha scales confidence: c = 1 + alpha * |value|.
	// Typical range: 1-100.
	Alpha float64

	// NumWorkers is the number of parallel solvers per half-step.
	// If <= 0, defaults to 4.
	NumWorkers int
}

// DefaultALSConfig returns default ALS configuration.
func DefaultALSConfig() ALSConfig {
	return ALSConfig{
		Regularization: 0.01,
		Alpha:          40.0,
		NumWorkers:     4,
	}
}

// ALS implements Alternating Least Squares for implicit feedback.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets" (Hu, Koren, Volinsky, 2008)
//
// The objective function minimizes:
// sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 for a positive stored value and 0 for a negative or
// missing one, and c_ui = 1 + alpha * |value| (1 for missing cells). A
// dislike is thus a confident zero rather than an unknown.
type ALS struct {
	BaseAlgorithm
	config ALSConfig

	// X is the user factor matrix (numUsers x numFactors)
	X [][]float64

	// Y is the item factor matrix (numItems x numFactors)
	Y [][]float64
}

// NewALS creates a new ALS algorithm with the given configuration.
func NewALS(cfg ALSConfig) *ALS {
	if cfg.Regularization <= 0 {
		cfg.Regularization = 0.01
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = 40.0
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}

	return &ALS{
		BaseAlgorithm: NewBaseAlgorithm("als"),
		config:        cfg,
	}
}

// observed is one stored cell seen from a row or a column.
type observed struct {
	idx  int
	conf float64
	pref float64
}

// Fit runs epochs alternating half-steps. Initialization is deterministic.
func (a *ALS) Fit(ctx context.Context, m *matrix.COO, epochs, latentDim int) error {
	if err := validateFit(m, epochs, latentDim); err != nil {
		return err
	}

	a.acquireTrainLock()
	defer a.releaseTrainLock()

	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	numUsers, numItems := m.Shape()
	userItems := make([][]observed, numUsers)
	itemUsers := make([][]observed, numItems)
	m.Each(func(e matrix.Entry) {
		conf := 1.0 + a.config.Alpha*math.Abs(e.Value)
		pref := 0.0
		if e.Value > 0 {
			pref = 1
		}
		userItems[e.Row] = append(userItems[e.Row], observed{idx: e.Col, conf: conf, pref: pref})
		itemUsers[e.Col] = append(itemUsers[e.Col], observed{idx: e.Row, conf: conf, pref: pref})
	})

	X := deterministicFactors(numUsers, latentDim)
	Y := deterministicFactors(numItems, latentDim)
	lambda := a.config.Regularization

	for iter := 0; iter < epochs; iter++ {
		// fix Y, solve for X; then fix X, solve for Y
		a.solveHalfStep(X, Y, userItems, latentDim, lambda)
		a.solveHalfStep(Y, X, itemUsers, latentDim, lambda)
	}

	a.X = X
	a.Y = Y
	a.markTrained()
	return nil
}

func deterministicFactors(n, numFactors int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, numFactors)
		for f := range out[i] {
			out[i][f] = 0.1 * (float64((i*numFactors+f)%1000)/1000.0 - 0.5)
		}
	}
	return out
}

// solveHalfStep recomputes every row of target with other held fixed.
//
//nolint:gocritic // FtF follows standard linear algebra notation
func (a *ALS) solveHalfStep(target, other [][]float64, obs [][]observed, numFactors int, lambda float64) {
	// Precompute F'F over the fixed side
	FtF := make([][]float64, numFactors)
	for f := range FtF {
		FtF[f] = make([]float64, numFactors)
	}
	for _, vec := range other {
		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				FtF[f1][f2] += vec[f1] * vec[f2]
			}
		}
	}
	for f1 := 0; f1 < numFactors; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			FtF[f1][f2] = FtF[f2][f1]
		}
	}

	n := len(target)
	var wg sync.WaitGroup
	chunkSize := (n + a.config.NumWorkers - 1) / a.config.NumWorkers

	for w := 0; w < a.config.NumWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()
			for r := rStart; r < rEnd; r++ {
				target[r] = solveRow(obs[r], other, FtF, numFactors, lambda)
			}
		}(start, end)
	}

	wg.Wait()
}

// solveRow solves (F'F + F' (C - I) F + lambda I) x = F' C p for one row.
//
//nolint:gocritic // A, FtF follow standard linear algebra notation
func solveRow(obs []observed, other, FtF [][]float64, numFactors int, lambda float64) []float64 {
	A := make([][]float64, numFactors)
	for f := range A {
		A[f] = make([]float64, numFactors)
		copy(A[f], FtF[f])
		A[f][f] += lambda
	}

	b := make([]float64, numFactors)
	for _, o := range obs {
		y := other[o.idx]
		cMinus1 := o.conf - 1.0

		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				delta := cMinus1 * y[f1] * y[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += o.conf * o.pref * y[f1]
		}
	}

	return solveLinearSystem(A, b)
}

// solveLinearSystem solves A*x = b using Cholesky decomposition.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveLinearSystem(A [][]float64, b []float64) []float64 {
	n := len(b)

	// Cholesky decomposition: A = L * L'
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}

			if i == j {
				if sum <= 0 {
					// not positive definite
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else if L[j][j] != 0 {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	// L * z = b
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		if L[i][i] != 0 {
			z[i] = sum / L[i][i]
		}
	}

	// L' * x = z
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		if L[i][i] != 0 {
			x[i] = sum / L[i][i]
		}
	}

	return x
}

// Predict returns x_u' * y_i for each item.
func (a *ALS) Predict(_ context.Context, userIdx int, itemIdxs []int) ([]float64, error) {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	if !a.trained {
		return nil, ErrNotTrained
	}
	if err := checkIndexes(userIdx, itemIdxs, len(a.X), len(a.Y)); err != nil {
		return nil, err
	}

	userVec := a.X[userIdx]
	scores := make([]float64, len(itemIdxs))
	for k, i := range itemIdxs {
		scores[k] = dot(userVec, a.Y[i])
	}
	return scores, nil
}

// State returns a copy of the factor matrices.
func (a *ALS) State() storage.FactorModelState {
	a.acquirePredictLock()
	defer a.releasePredictLock()

	return storage.FactorModelState{
		UserFactors: copyMatrix(a.X),
		ItemFactors: copyMatrix(a.Y),
	}
}

// Restore replaces the factors with a saved state.
func (a *ALS) Restore(state storage.FactorModelState) error {
	if err := validateState(state); err != nil {
		return err
	}

	a.acquireTrainLock()
	defer a.releaseTrainLock()

	a.X = copyMatrix(state.UserFactors)
	a.Y = copyMatrix(state.ItemFactors)
	a.markTrained()
	return nil
}
