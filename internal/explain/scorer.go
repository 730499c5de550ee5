// Package explain computes model-agnostic explanations for black-box
// tabular classifiers: permutation feature importance, partial dependence
// curves, and individual conditional expectation (ICE) curves.
//
// The engines never inspect the model. They depend only on the Scorer
// capability (a feature matrix in, predictions out) so any wrapped model —
// a served random forest, an in-process baseline, a test stub — plugs in
// the same way. Every randomized step takes an explicit seed; two calls
// with the same seed and inputs produce identical results.
package explain

import (
	"context"

	"creditscope/internal/dataset"
)

// Scorer maps a feature matrix to one prediction per row. Implementations
// must be pure: same input, same output. The engines treat the dataset as
// read-only and expect scorers to do the same.
type Scorer interface {
	Score(ctx context.Context, ds *dataset.Dataset) ([]float64, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, ds *dataset.Dataset) ([]float64, error)

func (f ScorerFunc) Score(ctx context.Context, ds *dataset.Dataset) ([]float64, error) {
	return f(ctx, ds)
}

// Direction declares whether a metric improves upward or downward, which
// fixes the sign convention for importance scores.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// Metric scores predictions against true labels. The engines call Fn with
// slices of equal length and never mutate either.
type Metric struct {
	Name      string
	Direction Direction
	Fn        func(preds, labels []float64) float64
}
