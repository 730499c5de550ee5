package explain

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"creditscope/internal/dataset"
)

// evalGrid scores the dataset once per grid value with column col held
// constant, returning the raw prediction matrix indexed [gridPoint][row].
// This is the shared core of partial dependence and ICE.
func (e *Engine) evalGrid(ctx context.Context, scorer Scorer, ds *dataset.Dataset, col int, feature string, grid Grid) ([][]float64, error) {
	preds := make([][]float64, len(grid.Values))
	err := e.forEach(ctx, len(grid.Values), func(g int) error {
		p, err := e.score(ctx, scorer, ds.WithConstantColumn(col, grid.Values[g]))
		if err != nil {
			return &ScorerError{Feature: feature, Trial: -1, GridIndex: g, Err: err}
		}
		preds[g] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return preds, nil
}

// nanMean averages preds skipping NaN entries. It reports the mean, the
// count of contributing predictions, and the count excluded. An all-NaN
// input yields a NaN mean.
func nanMean(preds []float64) (mean float64, used, excluded int) {
	var sum float64
	for _, p := range preds {
		if math.IsNaN(p) {
			excluded++
			continue
		}
		sum += p
		used++
	}
	if used == 0 {
		return math.NaN(), 0, excluded
	}
	return sum / float64(used), used, excluded
}

func (e *Engine) validateGridInput(ds *dataset.Dataset, feature string) (int, error) {
	if ds == nil || ds.Rows() == 0 {
		return -1, fmt.Errorf("%w: empty dataset", ErrInvalidInput)
	}
	col, ok := ds.ColumnIndex(feature)
	if !ok {
		return -1, fmt.Errorf("%w: %q not in dataset schema", ErrInvalidFeature, feature)
	}
	return col, nil
}

// PartialDependence computes the marginal effect of one feature: for each
// grid value the feature is held constant across every row, the dataset is
// scored, and the predictions are averaged. Other features keep their
// observed values, so the average accounts for their combined effect.
//
// NaN predictions are excluded from the mean and surfaced through the
// result and a warning rather than aborting; a grid point where every
// prediction is NaN yields a NaN mean.
func (e *Engine) PartialDependence(ctx context.Context, scorer Scorer, ds *dataset.Dataset, feature string, gridResolution int) (*PDResult, error) {
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

	result := &PDResult{Feature: feature, Points: make([]PDPoint, len(grid.Values))}
	for g, v := range grid.Values {
		mean, used, excluded := nanMean(preds[g])
		result.NaNExcluded += excluded
		result.Points[g] = PDPoint{Value: v, Mean: mean, Rows: used}
		if grid.Levels != nil {
			result.Points[g].Level = grid.Levels[g]
		}
	}

	if result.NaNExcluded > 0 {
		e.warnNaN(feature, result.NaNExcluded)
	}
	if e.metrics != nil {
		e.metrics.PDPRunsInc()
		e.metrics.EngineLatencyObserve(time.Since(start).Seconds())
	}
	return result, nil
}

// PartialDependencePair computes a two-feature dependence surface: both
// columns are held constant for every (v1, v2) grid combination and the
// predictions averaged. Means is indexed with the first feature outer.
func (e *Engine) PartialDependencePair(ctx context.Context, scorer Scorer, ds *dataset.Dataset, feature1, feature2 string, gridResolution int) (*PDPairResult, error) {
	start := time.Now()

	col1, err := e.validateGridInput(ds, feature1)
	if err != nil {
		return nil, err
	}
	col2, err := e.validateGridInput(ds, feature2)
	if err != nil {
		return nil, err
	}
	if feature1 == feature2 {
		return nil, fmt.Errorf("%w: pair needs two distinct features, got %q twice", ErrInvalidInput, feature1)
	}
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer is required", ErrInvalidInput)
	}

	grid1, err := buildGrid(ds, col1, gridResolution)
	if err != nil {
		return nil, err
	}
	grid2, err := buildGrid(ds, col2, gridResolution)
	if err != nil {
		return nil, err
	}

	n1, n2 := len(grid1.Values), len(grid2.Values)
	means := make([][]float64, n1)
	for i := range means {
		means[i] = make([]float64, n2)
	}
	excludedPer := make([]int, n1*n2)

	err = e.forEach(ctx, n1*n2, func(i int) error {
		g1, g2 := i/n2, i%n2
		overridden := ds.WithConstantPair(col1, grid1.Values[g1], col2, grid2.Values[g2])
		preds, err := e.score(ctx, scorer, overridden)
		if err != nil {
			return &ScorerError{Feature: feature1 + "," + feature2, Trial: -1, GridIndex: i, Err: err}
		}
		mean, _, excluded := nanMean(preds)
		means[g1][g2] = mean
		excludedPer[i] = excluded
		return nil
	})
	if err != nil {
		return nil, err
	}
	excludedTotal := 0
	for _, n := range excludedPer {
		excludedTotal += n
	}

	result := &PDPairResult{
		Features:    [2]string{feature1, feature2},
		Grid1:       grid1.Values,
		Grid2:       grid2.Values,
		Levels1:     grid1.Levels,
		Levels2:     grid2.Levels,
		Means:       means,
		NaNExcluded: excludedTotal,
	}
	if excludedTotal > 0 {
		e.warnNaN(feature1+","+feature2, excludedTotal)
	}
	if e.metrics != nil {
		e.metrics.PDPRunsInc()
		e.metrics.EngineLatencyObserve(time.Since(start).Seconds())
	}
	return result, nil
}

func (e *Engine) warnNaN(feature string, excluded int) {
	if e.metrics != nil {
		e.metrics.NaNExclusionsAdd(excluded)
	}
	log.Warn().
		Str("feature", feature).
		Int("excluded", excluded).
		Msg("NaN predictions excluded from partial dependence means")
}
