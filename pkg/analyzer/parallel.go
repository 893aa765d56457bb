package analyzer

import (
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// ProgressFunc is called after each item is processed.
type ProgressFunc func()

// MapIndexed runs fn for every item on a bounded pool and returns results in
// input order. Each task writes only its own slot, so no locking is needed;
// the call returns after every task has finished.
// If maxWorkers is <= 0, defaults to NumCPU.
func MapIndexed[In, Out any](items []In, maxWorkers int, fn func(In) Out, onProgress ProgressFunc) []Out {
	if len(items) == 0 {
		return nil
	}
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	results := make([]Out, len(items))
	p := pool.New().WithMaxGoroutines(maxWorkers)
	for i, item := range items {
		p.Go(func() {
			results[i] = fn(item)
			if onProgress != nil {
				onProgress()
			}
		})
	}
	p.Wait()

	return results
}
