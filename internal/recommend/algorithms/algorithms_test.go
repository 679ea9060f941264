// MediaBridge - Netflix Prize ETL and Cold-Start Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediabridge

package algorithms

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/mediabridge/internal/matrix"
	"github.com/tomtom215/mediabridge/internal/recommend/storage"
)

const (
	fixtureSubject = 4
	likedItem      = 4
	dislikedItem   = 5
)

// fixtureMatrix has users 0-3 liking items 0, 1 and 4 and hating item 5.
// User 4 only likes items 0 and 1, so item 4 should outscore item 5.
func fixtureMatrix(t *testing.T) *matrix.COO {
	t.Helper()
	dok, err := matrix.NewDOK(5, 6)
	if err != nil {
		t.Fatal(err)
	}
	set := func(u, i int, v float64) {
		if err := dok.Set(u, i, v); err != nil {
			t.Fatal(err)
		}
	}
	for u := 0; u < 4; u++ {
		set(u, 0, 1)
		set(u, 1, 1)
		set(u, likedItem, 1)
		set(u, dislikedItem, -1)
	}
	set(fixtureSubject, 0, 1)
	set(fixtureSubject, 1, 0.5)
	// some noise on the remaining items
	set(0, 2, -0.5)
	set(1, 3, 0.5)
	return dok.ToCOO()
}

// persistentModel is what both algorithms implement.
type persistentModel interface {
	Trainable
	Snapshotter
}

func newModels() map[string]func() persistentModel {
	return map[string]func() persistentModel{
		"logistic": func() persistentModel {
			return NewLogistic(DefaultLogisticConfig())
		},
		"als": func() persistentModel {
			cfg := DefaultALSConfig()
			cfg.Regularization = 0.1
			return NewALS(cfg)
		},
	}
}

func TestModels_RankLikedAboveDisliked(t *testing.T) {
	ctx := context.Background()
	for name, newModel := range newModels() {
		t.Run(name, func(t *testing.T) {
			model := newModel()
			if model.Name() != name {
				t.Errorf("Name() = %q, want %q", model.Name(), name)
			}
			if err := model.Fit(ctx, fixtureMatrix(t), 30, 4); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}
			scores, err := model.Predict(ctx, fixtureSubject, []int{likedItem, dislikedItem})
			if err != nil {
				t.Fatalf("Predict() error = %v", err)
			}
			if len(scores) != 2 {
				t.Fatalf("Predict() returned %d scores, want 2", len(scores))
			}
			if scores[0] <= scores[1] {
				t.Errorf("liked item scored %v, disliked %v; want liked higher", scores[0], scores[1])
			}
		})
	}
}

func TestLogistic_ScoreSigns(t *testing.T) {
	ctx := context.Background()
	model := NewLogistic(DefaultLogisticConfig())
	if err := model.Fit(ctx, fixtureMatrix(t), 30, 4); err != nil {
		t.Fatal(err)
	}
	scores, err := model.Predict(ctx, fixtureSubject, []int{likedItem, dislikedItem})
	if err != nil {
		t.Fatal(err)
	}
	// item biases dominate with small factors
	if scores[0] <= 0 || scores[1] >= 0 {
		t.Errorf("scores = %v, want positive then negative", scores)
	}
}

func TestModels_Deterministic(t *testing.T) {
	ctx := context.Background()
	items := []int{0, 1, 2, 3, 4, 5}
	for name, newModel := range newModels() {
		t.Run(name, func(t *testing.T) {
			var runs [2][]float64
			for i := range runs {
				model := newModel()
				if err := model.Fit(ctx, fixtureMatrix(t), 10, 3); err != nil {
					t.Fatal(err)
				}
				scores, err := model.Predict(ctx, fixtureSubject, items)
				if err != nil {
					t.Fatal(err)
				}
				runs[i] = scores
			}
			for k := range items {
				if runs[0][k] != runs[1][k] {
					t.Errorf("item %d: %v != %v across identical runs", k, runs[0][k], runs[1][k])
				}
			}
		})
	}
}

func TestModels_Errors(t *testing.T) {
	ctx := context.Background()
	for name, newModel := range newModels() {
		t.Run(name, func(t *testing.T) {
			model := newModel()

			if _, err := model.Predict(ctx, 0, []int{0}); !errors.Is(err, ErrNotTrained) {
				t.Errorf("Predict() before Fit error = %v, want ErrNotTrained", err)
			}

			m := fixtureMatrix(t)
			for _, bad := range []struct {
				epochs, dim int
			}{{0, 4}, {10, 0}, {-1, -1}} {
				if err := model.Fit(ctx, m, bad.epochs, bad.dim); err == nil {
					t.Errorf("Fit(epochs=%d, dim=%d) should fail", bad.epochs, bad.dim)
				}
			}
			if err := model.Fit(ctx, nil, 10, 4); err == nil {
				t.Error("Fit(nil) should fail")
			}

			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			if err := model.Fit(cancelled, m, 10, 4); !errors.Is(err, context.Canceled) {
				t.Errorf("Fit() with cancelled context error = %v", err)
			}

			if err := model.Fit(ctx, m, 5, 2); err != nil {
				t.Fatal(err)
			}
			var idxErr *IndexError
			if _, err := model.Predict(ctx, 5, []int{0}); !errors.As(err, &idxErr) || idxErr.Axis != "user" {
				t.Errorf("Predict(user 5) error = %v, want user IndexError", err)
			}
			if _, err := model.Predict(ctx, 0, []int{0, 6}); !errors.As(err, &idxErr) || idxErr.Axis != "item" {
				t.Errorf("Predict(item 6) error = %v, want item IndexError", err)
			}
		})
	}
}

func TestModels_StateRoundTrip(t *testing.T) {
	ctx := context.Background()
	items := []int{0, 2, 4, 5}
	for name, newModel := range newModels() {
		t.Run(name, func(t *testing.T) {
			trained := newModel()
			if err := trained.Fit(ctx, fixtureMatrix(t), 10, 3); err != nil {
				t.Fatal(err)
			}
			want, err := trained.Predict(ctx, fixtureSubject, items)
			if err != nil {
				t.Fatal(err)
			}

			restored := newModel()
			if err := restored.Restore(trained.State()); err != nil {
				t.Fatalf("Restore() error = %v", err)
			}
			got, err := restored.Predict(ctx, fixtureSubject, items)
			if err != nil {
				t.Fatal(err)
			}
			for k := range items {
				if got[k] != want[k] {
					t.Errorf("item %d: restored %v, trained %v", items[k], got[k], want[k])
				}
			}
		})
	}
}

func TestValidateState(t *testing.T) {
	tests := []struct {
		name    string
		state   storage.FactorModelState
		wantErr bool
	}{
		{"empty", storage.FactorModelState{}, true},
		{
			"ragged factors",
			storage.FactorModelState{
				UserFactors: [][]float64{{1, 2}},
				ItemFactors: [][]float64{{1, 2}, {3}},
			},
			true,
		},
		{
			"bias length mismatch",
			storage.FactorModelState{
				UserFactors: [][]float64{{1}},
				ItemFactors: [][]float64{{1}, {2}},
				ItemBias:    []float64{0.1},
			},
			true,
		},
		{
			"valid without bias",
			storage.FactorModelState{
				UserFactors: [][]float64{{1}},
				ItemFactors: [][]float64{{1}, {2}},
			},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateState(tt.state); (err != nil) != tt.wantErr {
				t.Errorf("validateState() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSolveLinearSystem(t *testing.T) {
	// [4 2; 2 3] x = [2; 1] => x = [0.5, 0]
	x := solveLinearSystem([][]float64{{4, 2}, {2, 3}}, []float64{2, 1})
	if diff := x[0] - 0.5; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("x[0] = %v, want 0.5", x[0])
	}
	if x[1] > 1e-9 || x[1] < -1e-9 {
		t.Errorf("x[1] = %v, want 0", x[1])
	}
}
