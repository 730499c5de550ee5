package explain

import (
	"math"
	"sort"
)

// Accuracy builds a classification accuracy metric: predictions and labels
// are thresholded at the given cutoff before comparison.
func Accuracy(threshold float64) Metric {
	return Metric{
		Name:      "accuracy",
		Direction: HigherIsBetter,
		Fn: func(preds, labels []float64) float64 {
			if len(preds) == 0 {
				return 0
			}
			correct := 0
			for i, p := range preds {
				if (p > threshold) == (labels[i] > threshold) {
					correct++
				}
			}
			return float64(correct) / float64(len(preds))
		},
	}
}

// MeanAbsoluteError builds an MAE metric; lower is better.
func MeanAbsoluteError() Metric {
	return Metric{
		Name:      "mae",
		Direction: LowerIsBetter,
		Fn: func(preds, labels []float64) float64 {
			if len(preds) == 0 {
				return 0
			}
			var sum float64
			for i, p := range preds {
				sum += math.Abs(p - labels[i])
			}
			return sum / float64(len(preds))
		},
	}
}

// ROCAUC builds an area-under-the-ROC-curve metric for binary labels
// (positive when label > 0.5). Computed via the rank statistic with
// midrank correction for tied prediction scores. Degenerate label vectors
// (all positive or all negative) score 0.5.
func ROCAUC() Metric {
	return Metric{
		Name:      "roc_auc",
		Direction: HigherIsBetter,
		Fn: func(preds, labels []float64) float64 {
			n := len(preds)
			idx := make([]int, n)
			for i := range idx {
				idx[i] = i
			}
			sort.Slice(idx, func(a, b int) bool { return preds[idx[a]] < preds[idx[b]] })

			// Midranks over tied scores.
			ranks := make([]float64, n)
			for i := 0; i < n; {
				j := i
				for j < n-1 && preds[idx[j+1]] == preds[idx[i]] {
					j++
				}
				mid := float64(i+j)/2 + 1
				for k := i; k <= j; k++ {
					ranks[idx[k]] = mid
				}
				i = j + 1
			}

			var pos, rankSum float64
			for i, y := range labels {
				if y > 0.5 {
					pos++
					rankSum += ranks[i]
				}
			}
			neg := float64(n) - pos
			if pos == 0 || neg == 0 {
				return 0.5
			}
			return (rankSum - pos*(pos+1)/2) / (pos * neg)
		},
	}
}
