package explain

import (
	"context"
	"fmt"
	"time"

	"creditscope/internal/dataset"
)

// ICE computes individual conditional expectation curves: the same grid
// sweep as PartialDependence, but keeping one prediction per row instead of
// averaging. Curve i tracks how row i's prediction moves as the feature is
// overridden across the grid while the row's other values stay fixed.
//
// MeanCurve on the result reproduces the PartialDependence values for the
// same feature and grid resolution.
func (e *Engine) ICE(ctx context.Context, scorer Scorer, ds *dataset.Dataset, feature string, gridResolution int) (*ICEResult, error) {
	start := time.Now()

	col, err := e.validateGridInput(ds, feature)
	if err != nil {
		return nil, err
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer is required", ErrInvalidInput)
	}
	grid, err := buildGrid(ds, col, gridResolution)
	if err != nil {
		return nil, err
	}

	preds, err := e.evalGrid(ctx, scorer, ds, col, feature, grid)
	if err != nil {
		return nil, err
	}

	// Transpose [gridPoint][row] into one curve per row.
	curves := make([][]float64, ds.Rows())
	for i := range curves {
		curve := make([]float64, len(grid.Values))
		for g := range grid.Values {
			curve[g] = preds[g][i]
		}
		curves[i] = curve
	}

	if e.metrics != nil {
		e.metrics.ICERunsInc()
		e.metrics.EngineLatencyObserve(time.Since(start).Seconds())
	}
	return &ICEResult{
		Feature: feature,
		Grid:    grid.Values,
		Levels:  grid.Levels,
		Curves:  curves,
	}, nil
}
