package dataset

import "fmt"

// OneHot expands every categorical column into one indicator column per
// observed level, named "feature=level". Numeric columns pass through
// unchanged and keep their relative order. Scorers trained on encoded
// matrices consume the result; the explanation engines usually want the
// un-encoded dataset so a category permutes or overrides as a single unit.
func (d *Dataset) OneHot() *Dataset {
	var specs []FeatureSpec
	var cols [][]float64

	for j, s := range d.specs {
		if s.Kind == Numeric {
			specs = append(specs, s)
			cols = append(cols, d.cols[j])
			continue
		}
		for lvl, name := range s.Levels {
			ind := make([]float64, d.rows)
			for i, v := range d.cols[j] {
				if int(v) == lvl {
					ind[i] = 1
				}
			}
			specs = append(specs, FeatureSpec{
				Name: fmt.Sprintf("%s=%s", s.Name, name),
				Kind: Numeric,
			})
			cols = append(cols, ind)
		}
	}

	return &Dataset{specs: specs, cols: cols, rows: d.rows}
}
