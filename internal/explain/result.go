package explain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// FeatureImportance holds the raw repeated importance scores for one
// feature plus their summary statistics.
type FeatureImportance struct {
	Feature string    `json:"feature"`
	Scores  []float64 `json:"scores"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"std_dev"`
}

// ImportanceResult is the outcome of a permutation importance run.
// Features appear in original column order.
type ImportanceResult struct {
	Metric   string              `json:"metric"`
	Baseline float64             `json:"baseline"`
	Repeats  int                 `json:"repeats"`
	Seed     int64               `json:"seed"`
	Features []FeatureImportance `json:"features"`
}

// Ranking returns the features ordered by descending mean importance.
// Ties keep the features' original column order.
func (r *ImportanceResult) Ranking() []FeatureImportance {
	out := make([]FeatureImportance, len(r.Features))
	copy(out, r.Features)
	sort.SliceStable(out, func(a, b int) bool { return out[a].Mean > out[b].Mean })
	return out
}

// PDPoint is one grid point of a partial dependence curve. Rows counts the
// predictions that contributed to the mean; it drops below the dataset size
// when NaN predictions were excluded. An all-NaN grid point has Mean NaN
// and Rows 0.
type PDPoint struct {
	Value float64 `json:"value"`
	Level string  `json:"level,omitempty"`
	Mean  float64 `json:"mean"`
	Rows  int     `json:"rows"`
}

// PDResult is a single-feature partial dependence curve. Grid values are
// strictly increasing for continuous features and in first-seen order for
// categorical ones. NaNExcluded totals the predictions dropped from means
// across all grid points (the non-fatal NaN warning condition).
type PDResult struct {
	Feature     string    `json:"feature"`
	Points      []PDPoint `json:"points"`
	NaNExcluded int       `json:"nan_excluded,omitempty"`
}

// PDPairResult is a two-feature partial dependence surface. Means is
// indexed [i][j] with the first feature's grid outer.
type PDPairResult struct {
	Features    [2]string   `json:"features"`
	Grid1       []float64   `json:"grid1"`
	Grid2       []float64   `json:"grid2"`
	Levels1     []string    `json:"levels1,omitempty"`
	Levels2     []string    `json:"levels2,omitempty"`
	Means       [][]float64 `json:"means"`
	NaNExcluded int         `json:"nan_excluded,omitempty"`
}

// ICEResult holds one conditional-expectation curve per dataset row, all
// sharing the same grid. Curve index equals the original row index.
type ICEResult struct {
	Feature string      `json:"feature"`
	Grid    []float64   `json:"grid"`
	Levels  []string    `json:"levels,omitempty"`
	Curves  [][]float64 `json:"curves"`
}

// MeanCurve averages the curves at each grid point, skipping NaN
// predictions, reproducing the partial dependence value for the same grid.
func (r *ICEResult) MeanCurve() []float64 {
	out := make([]float64, len(r.Grid))
	for g := range r.Grid {
		var sum float64
		var n int
		for _, curve := range r.Curves {
			if math.IsNaN(curve[g]) {
				continue
			}
			sum += curve[g]
			n++
		}
		if n == 0 {
			out[g] = math.NaN()
			continue
		}
		out[g] = sum / float64(n)
	}
	return out
}

// Centered returns c-ICE curves: each curve shifted so it starts at zero,
// which makes heterogeneity across rows visible.
func (r *ICEResult) Centered() [][]float64 {
	out := make([][]float64, len(r.Curves))
	for i, curve := range r.Curves {
		c := make([]float64, len(curve))
		for g, v := range curve {
			c[g] = v - curve[0]
		}
		out[i] = c
	}
	return out
}

// summarize fills mean and standard deviation for a score sample. A single
// repeat has no spread, so its deviation is 0.
func summarize(scores []float64) (mean, std float64) {
	mean = stat.Mean(scores, nil)
	if len(scores) > 1 {
		std = stat.StdDev(scores, nil)
	}
	return mean, std
}
