package workpool

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Config configures the batch worker pool.
type Config struct {
	MaxConcurrent int // Maximum concurrent catalog calls (default: 4)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
	}
}

// Pool executes batch sync work with bounded parallelism. A semaphore limits
// outstanding catalog calls; results are collected as they complete so
// callers can attribute each result to its item regardless of order.
type Pool struct {
	config Config
	logger *zap.Logger
}

// New creates a worker pool.
func New(config Config, logger *zap.Logger) *Pool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 4
	}
	return &Pool{
		config: config,
		logger: logger.Named("workpool"),
	}
}

// Item represents a unit of work to be processed.
type Item[T any] struct {
	Key     string                               // item identity, carried onto the result
	Execute func(ctx context.Context) (T, error) // the work to be executed
}

// Result represents the outcome of one item.
type Result[T any] struct {
	Key   string
	Value T
	Err   error
}

// Process executes all items with bounded parallelism and returns results in
// completion order. Processing continues through individual failures; a
// failed item never aborts the batch.
func Process[T any](ctx context.Context, pool *Pool, items []Item[T]) []Result[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]Result[T], 0, len(items))
	resultsChan := make(chan Result[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup

	for _, item := range items {
		wg.Add(1)
		go func(item Item[T]) {
			defer wg.Done()

			// Acquire semaphore slot (blocks if at max concurrency)
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				var zero T
				resultsChan <- Result[T]{Key: item.Key, Value: zero, Err: ctx.Err()}
				return
			}

			value, err := item.Execute(ctx)
			resultsChan <- Result[T]{
				Key:   item.Key,
				Value: value,
				Err:   err,
			}
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for result := range resultsChan {
		results = append(results, result)
	}
	return results
}
