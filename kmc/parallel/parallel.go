// Package parallel provides the in-process worker-pool analogue of the
// MPI rank distribution the original simulation core delegates to an
// external collaborator for. Matching is embarrassingly parallel over the
// set of lattice indices under consideration, so this package splits that
// set into contiguous chunks and runs one goroutine per chunk.
package parallel

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Split divides [0, total) into at most workers contiguous, roughly
// equal-sized ranges, returned as [lo, hi) pairs. workers <= 0 or
// workers > total is clamped to a sensible range count.
func Split(total, workers int) [][2]int {
	if total <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > total {
		workers = total
	}

	ranges := make([][2]int, 0, workers)
	base := total / workers
	rem := total % workers
	lo := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		hi := lo + size
		if hi > lo {
			ranges = append(ranges, [2]int{lo, hi})
		}
		lo = hi
	}
	return ranges
}

// JoinOverWorkers concatenates per-worker result slices in rank order:
// each worker produces a disjoint slice and the coordinator recombines
// them deterministically by index.
func JoinOverWorkers[T any](perWorker [][]T) []T {
	total := 0
	for _, w := range perWorker {
		total += len(w)
	}
	out := make([]T, 0, total)
	for _, w := range perWorker {
		out = append(out, w...)
	}
	return out
}

// SumOverWorkers reduces per-worker result slices elementwise. Every
// slice in perWorker must have the same length; the zero-worker case
// returns nil.
func SumOverWorkers(perWorker [][]float64) []float64 {
	if len(perWorker) == 0 {
		return nil
	}
	out := make([]float64, len(perWorker[0]))
	for _, w := range perWorker {
		for i, v := range w {
			out[i] += v
		}
	}
	return out
}

// ForEachRange splits [0, total) into at most workers chunks and runs fn
// on each chunk concurrently, returning the first error encountered (if
// any), after all chunks have finished.
func ForEachRange(ctx context.Context, total, workers int, fn func(lo, hi int) error) error {
	ranges := Split(total, workers)
	g, ctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		r := r
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(r[0], r[1])
		})
	}
	return g.Wait()
}
