package validity

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestRunSequential_InOrder(t *testing.T) {
	out, err := runSequential(10, 99, func(i int, _ *rand.Rand) (float64, error) {
		return float64(i) * 2, nil
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, v := range out {
		if v != float64(i)*2 {
			t.Errorf("out[%d] = %f, want %f", i, v, float64(i)*2)
		}
	}
}

func TestRunParallel_SubmissionOrderCollection(t *testing.T) {
	out, err := runParallel(64, 4, 99, func(i int, _ *rand.Rand) (float64, error) {
		return float64(i), nil
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	for i, v := range out {
		if v != float64(i) {
			t.Errorf("out[%d] = %f: results must land in submission order", i, v)
		}
	}
}

func TestRunParallel_ReproducibleSeeds(t *testing.T) {
	rep := func(_ int, rng *rand.Rand) (float64, error) {
		return rng.Float64(), nil
	}
	first, err := runParallel(32, 3, 1250, rep)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := runParallel(32, 3, 1250, rep)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sub-seeds must be deterministic given (seed, B): index %d differs", i)
		}
	}

	// A different worker count must not change the outputs either.
	third, err := runParallel(32, 7, 1250, rep)
	if err != nil {
		t.Fatalf("third run failed: %v", err)
	}
	for i := range first {
		if first[i] != third[i] {
			t.Fatalf("results must be independent of pool size: index %d differs", i)
		}
	}
}

func TestRunParallel_ErrorAbortsBatch(t *testing.T) {
	_, err := runParallel(16, 4, 5, func(i int, _ *rand.Rand) (float64, error) {
		if i == 7 {
			return 0, fmt.Errorf("worker blew up")
		}
		return 1, nil
	})
	if err == nil {
		t.Fatal("expected the repetition error to propagate")
	}
}

func TestRunSequential_ErrorAbortsBatch(t *testing.T) {
	_, err := runSequential(16, 5, func(i int, _ *rand.Rand) (float64, error) {
		if i == 3 {
			return 0, fmt.Errorf("repetition failed")
		}
		return 1, nil
	})
	if err == nil {
		t.Fatal("expected the repetition error to propagate")
	}
}
