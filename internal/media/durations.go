package media

import (
	"context"
	"sync"

	"github.com/vlogtools/vlog/internal/timeline"
)

// ProbeFunc resolves the duration of one file.
type ProbeFunc func(ctx context.Context, path string) (float64, error)

// DurationCache memoises durations per source. It is safe for concurrent
// use, so Prefetch can resolve all sources of a timeline in parallel before
// the sequential timeline passes read from it.
type DurationCache struct {
	probe   ProbeFunc
	resolve func(source string) string

	mu     sync.Mutex
	values map[string]float64
}

// NewDurationCache probes with probe; resolve maps a source id to a path and
// may be nil.
func NewDurationCache(probe ProbeFunc, resolve func(string) string) *DurationCache {
	if probe == nil {
		probe = GetDuration
	}
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	return &DurationCache{
		probe:   probe,
		resolve: resolve,
		values:  make(map[string]float64),
	}
}

// Get returns the cached duration, probing on first use.
func (c *DurationCache) Get(ctx context.Context, source string) (float64, error) {
	c.mu.Lock()
	d, ok := c.values[source]
	c.mu.Unlock()
	if ok {
		return d, nil
	}

	d, err := c.probe(ctx, c.resolve(source))
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.values[source] = d
	c.mu.Unlock()
	return d, nil
}

// Func binds the cache to ctx for callers that take a plain lookup function.
func (c *DurationCache) Func(ctx context.Context) func(string) (float64, error) {
	return func(source string) (float64, error) {
		return c.Get(ctx, source)
	}
}

// Prefetch resolves every source with at most workers probes in flight.
// The first failure is returned as a *timeline.DurationLookupError.
func (c *DurationCache) Prefetch(ctx context.Context, sources []string, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)

	// semaphore to limit concurrency
	sem := make(chan struct{}, workers)

	for _, source := range sources {
		select {
		case <-ctx.Done():
			wg.Wait()
			return ctx.Err()
		default:
		}

		wg.Add(1)
		go func(s string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := c.Get(ctx, s); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = &timeline.DurationLookupError{Source: s, Err: err}
				}
				mu.Unlock()
			}
		}(source)
	}

	wg.Wait()
	return firstErr
}
