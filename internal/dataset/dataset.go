// Package dataset provides the tabular data model shared by the explanation
// engines: a column-major feature matrix with a declared schema, plus the
// ingestion glue (CSV loading, one-hot encoding, train/test splitting) that
// prepares raw credit-risk style data for a black-box scorer.
//
// Datasets are treated as immutable by everything downstream. The With*
// helpers return shallow copies that share unchanged columns, so engines can
// override a single column without ever touching caller-visible state.
package dataset

import (
	"fmt"
)

// Kind distinguishes how a feature's values are interpreted when building
// evaluation grids.
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

// ParseKind resolves the string form used in configuration and API
// payloads.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "numeric":
		return Numeric, nil
	case "categorical":
		return Categorical, nil
	default:
		return 0, fmt.Errorf("unknown feature kind %q", s)
	}
}

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FeatureSpec declares one column: its name and whether its values are
// continuous or category level indexes. Kind is declared up front, never
// inferred from the data.
type FeatureSpec struct {
	Name   string   `json:"name"`
	Kind   Kind     `json:"kind"`
	Levels []string `json:"levels,omitempty"` // categorical level names, index = stored value
}

// Dataset is a fixed-schema feature matrix stored column-major.
type Dataset struct {
	specs []FeatureSpec
	cols  [][]float64
	rows  int
}

// New builds a dataset from row-major values. Every row must have exactly
// one value per declared feature.
func New(specs []FeatureSpec, rows [][]float64) (*Dataset, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("dataset: no features declared")
	}
	cols := make([][]float64, len(specs))
	for j := range cols {
		cols[j] = make([]float64, len(rows))
	}
	for i, row := range rows {
		if len(row) != len(specs) {
			return nil, fmt.Errorf("dataset: row %d has %d values, want %d", i, len(row), len(specs))
		}
		for j, v := range row {
			cols[j][i] = v
		}
	}
	return &Dataset{specs: specs, cols: cols, rows: len(rows)}, nil
}

// FromColumns builds a dataset directly from column slices. The columns are
// used as-is, not copied; the caller hands over ownership.
func FromColumns(specs []FeatureSpec, cols [][]float64) (*Dataset, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("dataset: no features declared")
	}
	if len(cols) != len(specs) {
		return nil, fmt.Errorf("dataset: %d columns for %d features", len(cols), len(specs))
	}
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0])
	}
	for j, c := range cols {
		if len(c) != rows {
			return nil, fmt.Errorf("dataset: column %q has %d values, want %d", specs[j].Name, len(c), rows)
		}
	}
	return &Dataset{specs: specs, cols: cols, rows: rows}, nil
}

// Rows returns the number of observations.
func (d *Dataset) Rows() int { return d.rows }

// Features returns the declared schema in column order.
func (d *Dataset) Features() []FeatureSpec { return d.specs }

// Column returns the backing slice for column j. Callers must not mutate it.
func (d *Dataset) Column(j int) []float64 { return d.cols[j] }

// ColumnIndex resolves a feature name to its column index.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	for j, s := range d.specs {
		if s.Name == name {
			return j, true
		}
	}
	return -1, false
}

// Row materializes row i as a fresh slice in column order.
func (d *Dataset) Row(i int) []float64 {
	row := make([]float64, len(d.cols))
	for j := range d.cols {
		row[j] = d.cols[j][i]
	}
	return row
}

// RowsMatrix materializes the whole dataset row-major, for scorers that
// consume a plain matrix.
func (d *Dataset) RowsMatrix() [][]float64 {
	m := make([][]float64, d.rows)
	for i := range m {
		m[i] = d.Row(i)
	}
	return m
}

// Clone deep-copies the dataset, schema included.
func (d *Dataset) Clone() *Dataset {
	specs := make([]FeatureSpec, len(d.specs))
	copy(specs, d.specs)
	cols := make([][]float64, len(d.cols))
	for j, c := range d.cols {
		cols[j] = make([]float64, len(c))
		copy(cols[j], c)
	}
	return &Dataset{specs: specs, cols: cols, rows: d.rows}
}

// WithConstantColumn returns a view of d with column j held at v for every
// row. Unchanged columns are shared with the receiver.
func (d *Dataset) WithConstantColumn(j int, v float64) *Dataset {
	cols := make([][]float64, len(d.cols))
	copy(cols, d.cols)
	col := make([]float64, d.rows)
	for i := range col {
		col[i] = v
	}
	cols[j] = col
	return &Dataset{specs: d.specs, cols: cols, rows: d.rows}
}

// WithConstantPair holds two columns constant at once, for two-feature
// partial dependence.
func (d *Dataset) WithConstantPair(j1 int, v1 float64, j2 int, v2 float64) *Dataset {
	return d.WithConstantColumn(j1, v1).WithConstantColumn(j2, v2)
}

// WithPermutedColumn returns a view of d with column j reordered by perm:
// new[i] = old[perm[i]]. Unchanged columns are shared with the receiver.
func (d *Dataset) WithPermutedColumn(j int, perm []int) (*Dataset, error) {
	if len(perm) != d.rows {
		return nil, fmt.Errorf("dataset: permutation length %d, want %d", len(perm), d.rows)
	}
	cols := make([][]float64, len(d.cols))
	copy(cols, d.cols)
	col := make([]float64, d.rows)
	src := d.cols[j]
	for i, p := range perm {
		col[i] = src[p]
	}
	cols[j] = col
	return &Dataset{specs: d.specs, cols: cols, rows: d.rows}, nil
}

// Select returns a new dataset containing only the given row indexes, in
// order. Columns are copied.
func (d *Dataset) Select(idx []int) *Dataset {
	cols := make([][]float64, len(d.cols))
	for j, src := range d.cols {
		col := make([]float64, len(idx))
		for i, p := range idx {
			col[i] = src[p]
		}
		cols[j] = col
	}
	return &Dataset{specs: d.specs, cols: cols, rows: len(idx)}
}
