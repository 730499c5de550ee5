package model

import (
	"context"
	"fmt"
	"math"
	"sort"

	"creditscope/internal/dataset"
)

// Logistic is a fixed-coefficient logistic scorer. It exists so the batch
// tool and tests can run end to end without a served model: load
// coefficients from a prior fit and score locally. Not a trainer.
type Logistic struct {
	Intercept float64            `yaml:"intercept" json:"intercept"`
	Weights   map[string]float64 `yaml:"weights" json:"weights"`
}

// Score implements explain.Scorer: sigmoid(intercept + w·x) per row, using
// the dataset's column names to align weights. Every weighted feature must
// exist in the schema.
func (m *Logistic) Score(_ context.Context, ds *dataset.Dataset) ([]float64, error) {
	type term struct {
		col int
		w   float64
	}
	terms := make([]term, 0, len(m.Weights))
	for name, w := range m.Weights {
		col, ok := ds.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("logistic scorer: weight for unknown feature %q", name)
		}
		terms = append(terms, term{col: col, w: w})
	}
	// Fixed accumulation order keeps scores bit-identical across calls.
	sort.Slice(terms, func(a, b int) bool { return terms[a].col < terms[b].col })

	preds := make([]float64, ds.Rows())
	for i := range preds {
		z := m.Intercept
		for _, t := range terms {
			z += t.w * ds.Column(t.col)[i]
		}
		preds[i] = 1 / (1 + math.Exp(-z))
	}
	return preds, nil
}
