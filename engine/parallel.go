package engine

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/swarm-fsm/core"
)

// ParallelOptions bounds parallel batch dispatch
type ParallelOptions struct {
	// Workers caps concurrently running batches; <= 0 resolves to GOMAXPROCS
	Workers int
	// BatchSize is the number of consecutive indices handled per batch; <= 0 processes everything in one batch
	BatchSize int
}

func (o ParallelOptions) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}

// ParallelFor splits [0, n) into contiguous batches and runs fn(start, end) for each
// Batches run on at most Workers goroutines; a single batch or a single worker runs inline
// A panic inside fn is recovered and returned as *core.PanicError; remaining batches are skipped once the context is cancelled
func ParallelFor(ctx context.Context, n int, opts ParallelOptions, fn func(start, end int)) error {
	if n <= 0 {
		return nil
	}

	batch := opts.BatchSize
	if batch <= 0 || batch > n {
		batch = n
	}
	workers := opts.workers()

	if batch == n || workers == 1 {
		return core.Capture(func() {
			for start := 0; start < n; start += batch {
				fn(start, min(start+batch, n))
			}
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < n; start += batch {
		if gctx.Err() != nil {
			break
		}
		start, end := start, min(start+batch, n)
		g.Go(func() error {
			return core.Capture(func() { fn(start, end) })
		})
	}
	return g.Wait()
}
