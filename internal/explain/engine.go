package explain

import (
	"context"
	"fmt"
	"sync"

	"creditscope/internal/dataset"
)

// MetricsInterface defines the instrumentation hooks the engines emit.
// A nil implementation disables instrumentation.
type MetricsInterface interface {
	ImportanceRunsInc()
	PDPRunsInc()
	ICERunsInc()
	ScorerCallsInc()
	ScorerFailuresInc()
	NaNExclusionsAdd(int)
	EngineLatencyObserve(float64)
}

// Engine runs the explanation computations. It holds no state across calls;
// every invocation is an independent computation driven by its arguments.
// Workers bounds the scorer calls in flight; parallelism never changes
// results because every task writes an index-addressed slot and all
// randomness is drawn serially up front.
type Engine struct {
	workers int
	metrics MetricsInterface
}

// NewEngine creates an engine scoring with up to workers concurrent scorer
// calls. Worker counts below 1 are clamped to 1. metrics may be nil.
func NewEngine(workers int, metrics MetricsInterface) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{workers: workers, metrics: metrics}
}

// score invokes the scorer and validates the prediction vector length.
func (e *Engine) score(ctx context.Context, scorer Scorer, ds *dataset.Dataset) ([]float64, error) {
	if e.metrics != nil {
		e.metrics.ScorerCallsInc()
	}
	preds, err := scorer.Score(ctx, ds)
	if err != nil {
		if e.metrics != nil {
			e.metrics.ScorerFailuresInc()
		}
		return nil, err
	}
	if len(preds) != ds.Rows() {
		if e.metrics != nil {
			e.metrics.ScorerFailuresInc()
		}
		return nil, fmt.Errorf("scorer returned %d predictions for %d rows", len(preds), ds.Rows())
	}
	return preds, nil
}

// forEach runs fn for every index in [0, n) on the engine's worker pool and
// returns the first error encountered. Remaining tasks are not submitted
// after a failure; in-flight tasks drain before return.
func (e *Engine) forEach(ctx context.Context, n int, fn func(i int) error) error {
	workers := e.workers
	if workers > n {
		workers = n
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := fn(i); err != nil {
					setErr(err)
				}
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		if failed() {
			break
		}
		if err := ctx.Err(); err != nil {
			setErr(err)
			break
		}
		select {
		case <-ctx.Done():
			setErr(ctx.Err())
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	return firstErr
}
