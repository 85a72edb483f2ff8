package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item and returns its result.
type WorkerFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Result is the outcome of processing the item at the same index of the input.
type Result[R any] struct {
	Value R
	Err   error
}

// Map processes items with numWorkers concurrent workers and returns one Result per item,
// in input order. Items not started before ctx is cancelled get ctx.Err() as their error.
func Map[T, R any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T, R]) []Result[R] {
	results := make([]Result[R], len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	taskChan := make(chan int, numWorkers)
	started := make([]bool, len(items))

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				started[idx] = true
				value, err := workerFunc(ctx, items[idx])
				results[idx] = Result[R]{Value: value, Err: err}
			}
		}()
	}

OUT:
	for idx := range items {
		select {
		case taskChan <- idx:
		case <-ctx.Done():
			break OUT
		}
	}
	close(taskChan)
	wg.Wait()

	for idx := range results {
		if !started[idx] {
			results[idx].Err = ctx.Err()
		}
	}
	return results
}

// Errors returns the non-nil errors of results.
func Errors[R any](results []Result[R]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
