package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := New(
		[]FeatureSpec{
			{Name: "age", Kind: Numeric},
			{Name: "purpose", Kind: Categorical, Levels: []string{"car", "education"}},
		},
		[][]float64{
			{25, 0},
			{40, 1},
			{33, 0},
		},
	)
	require.NoError(t, err)
	return ds
}

func TestNew_RejectsRaggedRows(t *testing.T) {
	t.Parallel()

	_, err := New(
		[]FeatureSpec{{Name: "a", Kind: Numeric}, {Name: "b", Kind: Numeric}},
		[][]float64{{1, 2}, {3}},
	)
	assert.Error(t, err)
}

func TestDataset_Accessors(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	assert.Equal(t, 3, ds.Rows())

	col, ok := ds.ColumnIndex("purpose")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 0}, ds.Column(col))

	_, ok = ds.ColumnIndex("income")
	assert.False(t, ok)

	assert.Equal(t, []float64{40, 1}, ds.Row(1))
	assert.Equal(t, [][]float64{{25, 0}, {40, 1}, {33, 0}}, ds.RowsMatrix())
}

func TestDataset_WithConstantColumnSharesUnchanged(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	override := ds.WithConstantColumn(0, 99)

	assert.Equal(t, []float64{99, 99, 99}, override.Column(0))
	assert.Equal(t, []float64{25, 40, 33}, ds.Column(0), "original untouched")
	assert.Equal(t, ds.Column(1), override.Column(1))
}

func TestDataset_WithPermutedColumn(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	permuted, err := ds.WithPermutedColumn(0, []int{2, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, []float64{33, 25, 40}, permuted.Column(0))
	assert.Equal(t, []float64{25, 40, 33}, ds.Column(0), "original untouched")

	_, err = ds.WithPermutedColumn(0, []int{0, 1})
	assert.Error(t, err)
}

func TestDataset_Select(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	sub := ds.Select([]int{2, 0})
	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, []float64{33, 25}, sub.Column(0))
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	k, err := ParseKind("numeric")
	require.NoError(t, err)
	assert.Equal(t, Numeric, k)

	k, err = ParseKind("categorical")
	require.NoError(t, err)
	assert.Equal(t, Categorical, k)

	_, err = ParseKind("ordinal")
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	csvData := `age,purpose,amount,default
25,car,1000,0
40,education,5000,1
33,car,2000,0
51,business,9000,1
`
	path := filepath.Join(t.TempDir(), "credit.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o600))

	ds, labels, err := LoadCSV(path, LoadCSVOptions{
		Target: "default",
		Columns: []ColumnSpec{
			{Name: "age", Kind: Numeric},
			{Name: "purpose", Kind: Categorical},
			{Name: "amount", Kind: Numeric},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Rows())
	assert.Equal(t, []float64{0, 1, 0, 1}, labels)

	specs := ds.Features()
	require.Len(t, specs, 3)
	assert.Equal(t, []string{"car", "education", "business"}, specs[1].Levels, "levels in first-seen order")

	col, _ := ds.ColumnIndex("purpose")
	assert.Equal(t, []float64{0, 1, 0, 2}, ds.Column(col))
}

func TestReadCSV_MalformedRows(t *testing.T) {
	t.Parallel()

	csvData := `age,default
25,0
notanumber,1
33,0
`
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvData), 0o600))

	opts := LoadCSVOptions{
		Target:  "default",
		Columns: []ColumnSpec{{Name: "age", Kind: Numeric}},
	}

	_, _, err := LoadCSV(path, opts)
	assert.Error(t, err, "strict mode fails on bad values")

	opts.SkipMalformed = true
	ds, labels, err := LoadCSV(path, opts)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Rows())
	assert.Equal(t, []float64{0, 0}, labels)
}

func TestReadCSV_MissingColumns(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o600))

	_, _, err := LoadCSV(path, LoadCSVOptions{
		Target:  "missing",
		Columns: []ColumnSpec{{Name: "a", Kind: Numeric}},
	})
	assert.Error(t, err)

	_, _, err = LoadCSV(path, LoadCSVOptions{
		Target:  "b",
		Columns: []ColumnSpec{{Name: "nope", Kind: Numeric}},
	})
	assert.Error(t, err)
}

func TestOneHot(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	encoded := ds.OneHot()

	specs := encoded.Features()
	require.Len(t, specs, 3)
	assert.Equal(t, "age", specs[0].Name)
	assert.Equal(t, "purpose=car", specs[1].Name)
	assert.Equal(t, "purpose=education", specs[2].Name)

	assert.Equal(t, []float64{1, 0, 1}, encoded.Column(1))
	assert.Equal(t, []float64{0, 1, 0}, encoded.Column(2))
	for _, s := range specs {
		assert.Equal(t, Numeric, s.Kind)
	}
}

func TestTrainTestSplit(t *testing.T) {
	t.Parallel()

	specs := []FeatureSpec{{Name: "x", Kind: Numeric}}
	rows := make([][]float64, 10)
	labels := make([]float64, 10)
	for i := range rows {
		rows[i] = []float64{float64(i)}
		labels[i] = float64(i)
	}
	ds, err := New(specs, rows)
	require.NoError(t, err)

	split, err := TrainTestSplit(ds, labels, 0.3, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, split.Test.Rows())
	assert.Equal(t, 7, split.Train.Rows())

	// Labels travel with their rows.
	for i := 0; i < split.Test.Rows(); i++ {
		assert.Equal(t, split.Test.Column(0)[i], split.TestLabels[i])
	}

	// Same seed, same partition.
	again, err := TrainTestSplit(ds, labels, 0.3, 7)
	require.NoError(t, err)
	assert.Equal(t, split.TestLabels, again.TestLabels)
	assert.Equal(t, split.TrainLabels, again.TrainLabels)
}

func TestTrainTestSplit_Validation(t *testing.T) {
	t.Parallel()

	ds := sampleDataset(t)
	labels := []float64{0, 1, 0}

	_, err := TrainTestSplit(ds, labels[:2], 0.3, 1)
	assert.Error(t, err)

	_, err = TrainTestSplit(ds, labels, 0, 1)
	assert.Error(t, err)

	_, err = TrainTestSplit(ds, labels, 1.2, 1)
	assert.Error(t, err)
}
