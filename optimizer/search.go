package optimizer

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// search evaluates every grid tuple on a bounded pool of workers. Workers claim chunks
// of consecutive indices from a channel and keep a local best, so nothing is shared
// between them except the read-only state index and the progress counter. The local
// results are reduced after all workers return; the reduction is order independent.
//
// best is the winning feasible candidate (nil if none); closest is the candidate with
// the highest achieved confidence.
func (o *Optimizer) search(values []float64, phases, total int) (best, closest *candidate, err error) {
	workers := min(o.workers, (total+chunkSize-1)/chunkSize)
	workers = max(workers, 1)

	g, ctx := errgroup.WithContext(context.Background())

	chunks := make(chan int, workers*2)
	g.Go(func() error {
		defer close(chunks)
		for start := 0; start < total; start += chunkSize {
			select {
			case chunks <- start:
			case <-ctx.Done():
				return nil
			}
		}
		return nil
	})

	bests := make([]*candidate, workers)
	closests := make([]*candidate, workers)
	var done atomic.Int64

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			params := make([]float64, phases)
			for start := range chunks {
				if ctx.Err() != nil {
					return nil
				}
				end := min(start+chunkSize, total)
				for i := start; i < end; i++ {
					tuple(values, phases, i, params)
					confidence, util, err := o.evaluate(params)
					if err != nil {
						return fmt.Errorf("evaluate %v: %w", params, err)
					}

					c := candidate{index: i, utilization: util, confidence: confidence}
					if c.moreConfident(closests[w]) {
						kept := c
						kept.params = slices.Clone(params)
						closests[w] = &kept
					}
					if o.feasible(confidence) && c.better(bests[w]) {
						kept := c
						kept.params = slices.Clone(params)
						bests[w] = &kept
					}
				}
				o.reportProgress(int(done.Add(int64(end-start))), total)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for w := range workers {
		if bests[w] != nil && bests[w].better(best) {
			best = bests[w]
		}
		if closests[w] != nil && closests[w].moreConfident(closest) {
			closest = closests[w]
		}
	}
	return best, closest, nil
}

func (o *Optimizer) reportProgress(done, total int) {
	if o.progress != nil {
		o.progress(done, total)
	}
	if o.logLimiter.Allow() {
		o.logger.Debug("grid search progress", "done", done, "total", total)
	}
}
