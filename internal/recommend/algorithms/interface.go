// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package algorithms

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/tomtom215/mediabridge/internal/matrix"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

// ErrNotTrained is returned by Predict before a successful Fit.
var ErrNotTrained = errors.New("model has not been trained")

// Trainable is a factorization model over a frozen interaction matrix.
type Trainable interface {
	Name() string

	// Fit trains from scratch. Previous state is discarded.
	Fit(ctx context.Context, m *matrix.COO, epochs, latentDim int) error

	// Predict scores itemIdxs for userIdx, in the order given.
	Predict(ctx context.Context, userIdx int, itemIdxs []int) ([]float64, error)
}

// Snapshotter is implemented by models whose state can be persisted.
type Snapshotter interface {
	State() storage.FactorModelState
	Restore(state storage.FactorModelState) error
}

// IndexError reports a Predict index outside the trained shape.
type IndexError struct {
	Axis  string
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s index %d out of range [0, %d)", e.Axis, e.Index, e.Len)
}

// BaseAlgorithm provides common functionality for all algorithms.
type BaseAlgorithm struct {
	name    string
	trained bool
	mu      sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// markTrained must be called with the training lock held.
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
}

func (b *BaseAlgorithm) acquireTrainLock() {
	b.mu.Lock()
}

func (b *BaseAlgorithm) releaseTrainLock() {
	b.mu.Unlock()
}

func (b *BaseAlgorithm) acquirePredictLock() {
	b.mu.RLock()
}

func (b *BaseAlgorithm) releasePredictLock() {
	b.mu.RUnlock()
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func validateFit(m *matrix.COO, epochs, latentDim int) error {
	if m == nil {
		return errors.New("nil training matrix")
	}
	if epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", epochs)
	}
	if latentDim <= 0 {
		return fmt.Errorf("latent dimension must be positive, got %d", latentDim)
	}
	return nil
}

// checkIndexes validates a Predict request against the trained shape.
func checkIndexes(userIdx int, itemIdxs []int, users, items int) error {
	if userIdx < 0 || userIdx >= users {
		return &IndexError{Axis: "user", Index: userIdx, Len: users}
	}
	for _, i := range itemIdxs {
		if i < 0 || i >= items {
			return &IndexError{Axis: "item", Index: i, Len: items}
		}
	}
	return nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func copyMatrix(src [][]float64) [][]float64 {
	if src == nil {
		return nil
	}
	out := make([][]float64, len(src))
	for i := range src {
		out[i] = append([]float64(nil), src[i]...)
	}
	return out
}

func validateState(state storage.FactorModelState) error {
	if len(state.UserFactors) == 0 || len(state.ItemFactors) == 0 {
		return errors.New("empty model state")
	}
	dim := len(state.UserFactors[0])
	for _, rows := range [][][]float64{state.UserFactors, state.ItemFactors} {
		for _, row := range rows {
			if len(row) != dim {
				return fmt.Errorf("inconsistent latent dimension: %d and %d", dim, len(row))
			}
		}
	}
	if state.ItemBias != nil && len(state.ItemBias) != len(state.ItemFactors) {
		return fmt.Errorf("item bias length %d does not match %d items", len(state.ItemBias), len(state.ItemFactors))
	}
	return nil
}

var (
	_ Trainable   = (*Logistic)(nil)
	_ Trainable   = (*ALS)(nil)
	_ Snapshotter = (*Logistic)(nil)
	_ Snapshotter = (*ALS)(nil)
)
