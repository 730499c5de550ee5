package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ColumnSpec declares how one CSV column is ingested.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Kind Kind   `yaml:"kind"`
}

// LoadCSVOptions controls CSV ingestion.
type LoadCSVOptions struct {
	// Target names the label column. It is parsed into the returned label
	// vector and excluded from the feature matrix.
	Target string
	// Columns declare the features to ingest and their kinds. Columns
	// present in the file but not declared here are ignored.
	Columns []ColumnSpec
	// SkipMalformed drops rows with unparseable values instead of failing.
	SkipMalformed bool
}

// LoadCSV reads a headed CSV file into a dataset plus a parallel label
// vector. Categorical values are mapped to level indexes in first-seen
// order, which fixes grid ordering for downstream partial dependence.
func LoadCSV(path string, opts LoadCSVOptions) (*Dataset, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// ReadCSV is LoadCSV for an already-open reader.
func ReadCSV(r io.Reader, opts LoadCSVOptions) (*Dataset, []float64, error) {
	if opts.Target == "" {
		return nil, nil, fmt.Errorf("read csv: no target column declared")
	}
	if len(opts.Columns) == 0 {
		return nil, nil, fmt.Errorf("read csv: no feature columns declared")
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	headerIdx := make(map[string]int, len(header))
	for i, h := range header {
		headerIdx[h] = i
	}

	targetIdx, ok := headerIdx[opts.Target]
	if !ok {
		return nil, nil, fmt.Errorf("read csv: target column %q not in header", opts.Target)
	}

	specs := make([]FeatureSpec, len(opts.Columns))
	srcIdx := make([]int, len(opts.Columns))
	levelIdx := make([]map[string]int, len(opts.Columns))
	for j, c := range opts.Columns {
		i, ok := headerIdx[c.Name]
		if !ok {
			return nil, nil, fmt.Errorf("read csv: column %q not in header", c.Name)
		}
		specs[j] = FeatureSpec{Name: c.Name, Kind: c.Kind}
		srcIdx[j] = i
		if c.Kind == Categorical {
			levelIdx[j] = make(map[string]int)
		}
	}

	cols := make([][]float64, len(specs))
	var labels []float64
	skipped := 0
	line := 1

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			if opts.SkipMalformed {
				skipped++
				continue
			}
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}

		row := make([]float64, len(specs))
		bad := false
		for j := range specs {
			raw := record[srcIdx[j]]
			switch specs[j].Kind {
			case Numeric:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					if opts.SkipMalformed {
						bad = true
					} else {
						return nil, nil, fmt.Errorf("read csv line %d: column %q: %w", line, specs[j].Name, err)
					}
				}
				row[j] = v
			case Categorical:
				idx, ok := levelIdx[j][raw]
				if !ok {
					idx = len(specs[j].Levels)
					levelIdx[j][raw] = idx
					specs[j].Levels = append(specs[j].Levels, raw)
				}
				row[j] = float64(idx)
			}
			if bad {
				break
			}
		}
		if bad {
			skipped++
			continue
		}

		y, err := strconv.ParseFloat(record[targetIdx], 64)
		if err != nil {
			if opts.SkipMalformed {
				skipped++
				continue
			}
			return nil, nil, fmt.Errorf("read csv line %d: target: %w", line, err)
		}

		for j, v := range row {
			cols[j] = append(cols[j], v)
		}
		labels = append(labels, y)
	}

	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Msg("dropped malformed csv rows")
	}

	ds, err := FromColumns(specs, cols)
	if err != nil {
		return nil, nil, err
	}
	log.Info().
		Int("rows", ds.Rows()).
		Int("features", len(specs)).
		Msg("dataset loaded")
	return ds, labels, nil
}
