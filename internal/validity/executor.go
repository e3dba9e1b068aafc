package validity

import (
	"context"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	apperrors "covcheck/internal/errors"
)

// seedRange bounds the pre-drawn sub-seeds for parallel repetitions.
const seedRange = 100_000_000

// repetition is a pure function of its index and RNG; it must not touch
// shared mutable state.
type repetition func(index int, rng *rand.Rand) (float64, error)

// defaultWorkers sizes the worker pool at available cores minus one.
func defaultWorkers() int {
	w := runtime.NumCPU() - 1
	if w < 1 {
		w = 1
	}
	return w
}

// runSequential executes b repetitions strictly in order against a single
// generator reseeded once from the master seed.
func runSequential(b int, seed int64, rep repetition) ([]float64, error) {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, b)
	for i := 0; i < b; i++ {
		v, err := rep(i, rng)
		if err != nil {
			return nil, apperrors.Wrapf(err, "repetition %d failed", i)
		}
		out[i] = v
	}
	return out, nil
}

// runParallel fans b repetitions out to a bounded worker pool. All sub-seeds
// are drawn from the master-seeded generator before any dispatch, so the
// seed set depends only on (seed, b), never on scheduling. Results land in
// submission order; the first repetition error aborts the whole batch with
// no partial aggregate.
func runParallel(b, workers int, seed int64, rep repetition) ([]float64, error) {
	if workers <= 0 {
		workers = defaultWorkers()
	}
	master := rand.New(rand.NewSource(seed))
	seeds := make([]int64, b)
	for i := range seeds {
		seeds[i] = master.Int63n(seedRange)
	}

	out := make([]float64, b)
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i := 0; i < b; i++ {
		i := i
		g.Go(func() error {
			v, err := rep(i, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return apperrors.Wrapf(err, "repetition %d failed", i)
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
