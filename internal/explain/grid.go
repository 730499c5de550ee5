package explain

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"creditscope/internal/dataset"
)

// Grid is the ordered set of evaluation points for one feature. For
// categorical features Levels names each value; for continuous features
// Levels is nil.
type Grid struct {
	Values []float64
	Levels []string
}

// buildGrid constructs the evaluation grid for column col.
//
// Continuous features get resolution evenly spaced values spanning the
// observed min and max, both inclusive. A constant column collapses to a
// single grid point. Categorical features enumerate the distinct observed
// level indexes in first-seen row order; resolution is ignored.
func buildGrid(ds *dataset.Dataset, col, resolution int) (Grid, error) {
	spec := ds.Features()[col]
	values := ds.Column(col)

	if spec.Kind == dataset.Categorical {
		seen := make(map[int]bool)
		var g Grid
		for _, v := range values {
			lvl := int(v)
			if seen[lvl] {
				continue
			}
			seen[lvl] = true
			g.Values = append(g.Values, v)
			if lvl >= 0 && lvl < len(spec.Levels) {
				g.Levels = append(g.Levels, spec.Levels[lvl])
			} else {
				g.Levels = append(g.Levels, fmt.Sprintf("level_%d", lvl))
			}
		}
		return g, nil
	}

	if resolution < 2 {
		return Grid{}, fmt.Errorf("%w: grid resolution %d for continuous feature %q, need at least 2",
			ErrInvalidInput, resolution, spec.Name)
	}

	lo, hi := floats.Min(values), floats.Max(values)
	if lo == hi {
		return Grid{Values: []float64{lo}}, nil
	}
	return Grid{Values: floats.Span(make([]float64, resolution), lo, hi)}, nil
}
