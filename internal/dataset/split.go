package dataset

import (
	"fmt"
	"math/rand"
)

// Split holds the outcome of a train/test partition.
type Split struct {
	Train       *Dataset
	Test        *Dataset
	TrainLabels []float64
	TestLabels  []float64
}

// TrainTestSplit shuffles row indexes with the given seed and partitions the
// dataset, putting testFraction of the rows in the test set (at least one
// row each side). The same seed always yields the same partition.
func TrainTestSplit(d *Dataset, labels []float64, testFraction float64, seed int64) (*Split, error) {
	if len(labels) != d.Rows() {
		return nil, fmt.Errorf("split: %d labels for %d rows", len(labels), d.Rows())
	}
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("split: test fraction %v out of (0, 1)", testFraction)
	}
	if d.Rows() < 2 {
		return nil, fmt.Errorf("split: need at least 2 rows, have %d", d.Rows())
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(d.Rows())

	nTest := int(float64(d.Rows()) * testFraction)
	if nTest < 1 {
		nTest = 1
	}
	if nTest >= d.Rows() {
		nTest = d.Rows() - 1
	}

	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	pick := func(idx []int) []float64 {
		out := make([]float64, len(idx))
		for i, p := range idx {
			out[i] = labels[p]
		}
		return out
	}

	return &Split{
		Train:       d.Select(trainIdx),
		Test:        d.Select(testIdx),
		TrainLabels: pick(trainIdx),
		TestLabels:  pick(testIdx),
	}, nil
}
