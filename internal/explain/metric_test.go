package explain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	t.Parallel()

	m := Accuracy(0.5)
	assert.Equal(t, HigherIsBetter, m.Direction)

	preds := []float64{0.9, 0.1, 0.8, 0.3}
	labels := []float64{1, 0, 0, 1}
	assert.InDelta(t, 0.5, m.Fn(preds, labels), 1e-12)

	assert.Equal(t, 0.0, m.Fn(nil, nil))
}

func TestMeanAbsoluteError(t *testing.T) {
	t.Parallel()

	m := MeanAbsoluteError()
	assert.Equal(t, LowerIsBetter, m.Direction)

	preds := []float64{0.1, 0.9, 0.2, 0.8}
	labels := []float64{0, 1, 0, 1}
	assert.InDelta(t, 0.15, m.Fn(preds, labels), 1e-12)
}

func TestROCAUC(t *testing.T) {
	t.Parallel()

	m := ROCAUC()

	// Classic hand-computable case: 3 of 4 positive/negative pairs ranked
	// correctly.
	preds := []float64{0.1, 0.4, 0.35, 0.8}
	labels := []float64{0, 0, 1, 1}
	assert.InDelta(t, 0.75, m.Fn(preds, labels), 1e-12)

	// Perfect separation.
	assert.InDelta(t, 1.0, m.Fn([]float64{0.1, 0.2, 0.8, 0.9}, []float64{0, 0, 1, 1}), 1e-12)

	// Tied scores get midranks.
	assert.InDelta(t, 0.5, m.Fn([]float64{0.5, 0.5}, []float64{0, 1}), 1e-12)

	// Degenerate label vectors.
	assert.Equal(t, 0.5, m.Fn([]float64{0.2, 0.7}, []float64{1, 1}))
}
