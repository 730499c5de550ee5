package explain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditscope/internal/dataset"
)

// interactionScorer is deliberately non-additive so ICE curves differ per
// row: x*y + y^2.
var interactionScorer = ScorerFunc(func(_ context.Context, ds *dataset.Dataset) ([]float64, error) {
	xcol, _ := ds.ColumnIndex("x")
	ycol, _ := ds.ColumnIndex("y")
	out := make([]float64, ds.Rows())
	for i := range out {
		x, y := ds.Column(xcol)[i], ds.Column(ycol)[i]
		out[i] = x*y + y*y
	}
	return out, nil
})

func TestICE_OneCurvePerRow(t *testing.T) {
	t.Parallel()

	ds := pdpDataset(t)
	engine := NewEngine(2, nil)

	result, err := engine.ICE(context.Background(), interactionScorer, ds, "x", 5)
	require.NoError(t, err)
	require.Len(t, result.Curves, ds.Rows())
	require.Len(t, result.Grid, 5)

	// Row i keeps its own y while x sweeps the grid: curve[g] = v*y_i + y_i^2.
	for i := 0; i < ds.Rows(); i++ {
		y := ds.Column(1)[i]
		require.Len(t, result.Curves[i], 5)
		for g, v := range result.Grid {
			assert.InDelta(t, v*y+y*y, result.Curves[i][g], 1e-12, "row %d grid %d", i, g)
		}
	}
}

func TestICE_MeanMatchesPartialDependence(t *testing.T) {
	t.Parallel()

	ds := pdpDataset(t)
	engine := NewEngine(3, nil)

	ice, err := engine.ICE(context.Background(), interactionScorer, ds, "x", 8)
	require.NoError(t, err)
	pdp, err := engine.PartialDependence(context.Background(), interactionScorer, ds, "x", 8)
	require.NoError(t, err)

	mean := ice.MeanCurve()
	require.Len(t, mean, len(pdp.Points))
	for g := range mean {
		assert.Equal(t, pdp.Points[g].Value, ice.Grid[g], "grids must match")
		assert.InDelta(t, pdp.Points[g].Mean, mean[g], 1e-9, "grid point %d", g)
	}
}

func TestICE_MeanCurveSkipsNaN(t *testing.T) {
	t.Parallel()

	r := &ICEResult{
		Grid: []float64{0, 1},
		Curves: [][]float64{
			{1, math.NaN()},
			{3, 4},
		},
	}
	mean := r.MeanCurve()
	assert.InDelta(t, 2.0, mean[0], 1e-12)
	assert.InDelta(t, 4.0, mean[1], 1e-12, "NaN entries are excluded")
}

func TestICE_Centered(t *testing.T) {
	t.Parallel()

	ds := pdpDataset(t)
	engine := NewEngine(1, nil)

	result, err := engine.ICE(context.Background(), interactionScorer, ds, "x", 4)
	require.NoError(t, err)

	centered := result.Centered()
	for i, curve := range centered {
		assert.Zero(t, curve[0], "curve %d must start at zero", i)
		for g := range curve {
			assert.InDelta(t, result.Curves[i][g]-result.Curves[i][0], curve[g], 1e-12)
		}
	}
}

func TestICE_Preconditions(t *testing.T) {
	t.Parallel()

	ds := pdpDataset(t)
	engine := NewEngine(1, nil)

	_, err := engine.ICE(context.Background(), interactionScorer, ds, "missing", 5)
	assert.ErrorIs(t, err, ErrInvalidFeature)

	_, err = engine.ICE(context.Background(), interactionScorer, ds, "x", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestICE_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	ds := pdpDataset(t)
	before := ds.Clone()

	engine := NewEngine(4, nil)
	_, err := engine.ICE(context.Background(), interactionScorer, ds, "y", 6)
	require.NoError(t, err)

	for j := range ds.Features() {
		assert.Equal(t, before.Column(j), ds.Column(j))
	}
}
