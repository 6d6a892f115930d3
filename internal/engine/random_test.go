package engine

import (
	"math"
	"testing"
)

func TestDeterminism(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(42)
	for i := 0; i < 1000; i++ {
		if r1.Uint32() != r2.Uint32() {
			t.Fatalf("determinism broken at iteration %d", i)
		}
	}
}

func TestDifferentSeeds(t *testing.T) {
	r1 := NewRNG(42)
	r2 := NewRNG(43)
	same := 0
	for i := 0; i < 100; i++ {
		if r1.Uint32() == r2.Uint32() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("different seeds produced %d/100 identical values", same)
	}
}

func TestFloat64Bounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("Float64() = %f, out of [0, 1)", v)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.Intn(10)
		if v < 0 || v >= 10 {
			t.Fatalf("Intn(10) = %d, out of [0, 10)", v)
		}
	}
}

func TestIntnZero(t *testing.T) {
	r := NewRNG(42)
	if r.Intn(0) != 0 {
		t.Fatal("Intn(0) should return 0")
	}
}

func TestIntnNegative(t *testing.T) {
	r := NewRNG(42)
	if r.Intn(-5) != 0 {
		t.Fatal("Intn(-5) should return 0")
	}
}

func TestIntRangeBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.IntRange(5, 15)
		if v < 5 || v > 15 {
			t.Fatalf("IntRange(5,15) = %d, out of [5, 15]", v)
		}
	}
}

func TestIntRangeEqual(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 100; i++ {
		v := r.IntRange(7, 7)
		if v != 7 {
			t.Fatalf("IntRange(7,7) = %d, want 7", v)
		}
	}
}

func TestIntRangeReversed(t *testing.T) {
	r := NewRNG(42)
	// When min >= max, should return min
	v := r.IntRange(10, 5)
	if v != 10 {
		t.Fatalf("IntRange(10,5) = %d, want 10", v)
	}
}

func TestUniformRangeBounds(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.UniformRange(2.0, 5.0)
		if v < 2.0 || v >= 5.0 {
			t.Fatalf("UniformRange(2,5) = %f, out of [2, 5)", v)
		}
	}
}

func TestGaussianStats(t *testing.T) {
	r := NewRNG(42)
	n := 50000
	sum := 0.0
	sumSq := 0.0
	for i := 0; i < n; i++ {
		v := r.Gaussian()
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	if math.Abs(mean) > 0.05 {
		t.Errorf("Gaussian mean = %f, expected ~0", mean)
	}
	if math.Abs(variance-1.0) > 0.1 {
		t.Errorf("Gaussian variance = %f, expected ~1", variance)
	}
}

func TestExpMean(t *testing.T) {
	r := NewRNG(42)
	n := 50000
	lambda := 2.0
	sum := 0.0
	for i := 0; i < n; i++ {
		v := r.Exp(lambda)
		if v < 0 {
			t.Fatalf("Exp(%f) produced negative value %f", lambda, v)
		}
		sum += v
	}
	mean := sum / float64(n)
	want := 1.0 / lambda
	if math.Abs(mean-want) > 0.05 {
		t.Errorf("Exp(%f) mean = %f, want ~%f", lambda, mean, want)
	}
}

func TestLogNormalPositive(t *testing.T) {
	r := NewRNG(42)
	for i := 0; i < 10000; i++ {
		v := r.LogNormal(3.0, 1.0)
		if v <= 0 {
			t.Fatalf("LogNormal produced non-positive value %f", v)
		}
	}
}

func TestPoissonMean(t *testing.T) {
	r := NewRNG(42)
	n := 20000
	lambda := 8.0
	var sum uint64
	for i := 0; i < n; i++ {
		sum += r.Poisson(lambda)
	}
	mean := float64(sum) / float64(n)
	if math.Abs(mean-lambda) > 0.3 {
		t.Errorf("Poisson(%f) mean = %f, want ~%f", lambda, mean, lambda)
	}
}

func TestPoissonZeroLambdaPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Poisson(0) should panic; zero rates must never attempt a draw")
		}
	}()
	r := NewRNG(42)
	r.Poisson(0)
}

func TestSampleWithoutReplacementBounds(t *testing.T) {
	r := NewRNG(42)
	ids := []uint64{1, 2, 3, 4, 5}
	picked := r.SampleWithoutReplacement(ids, 3)
	if len(picked) != 3 {
		t.Fatalf("picked %d ids, want 3", len(picked))
	}
	seen := map[uint64]bool{}
	for _, id := range picked {
		if seen[id] {
			t.Fatalf("id %d picked more than once", id)
		}
		seen[id] = true
	}
}

func TestSampleWithoutReplacementCapsAtLength(t *testing.T) {
	r := NewRNG(42)
	ids := []uint64{1, 2, 3}
	picked := r.SampleWithoutReplacement(ids, 10)
	if len(picked) != 3 {
		t.Fatalf("picked %d ids, want 3 (capped at input length)", len(picked))
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	r := NewRNG(42)
	vals := []int{0, 1, 2, 3, 4, 5, 6, 7}
	r.Shuffle(len(vals), func(i, j int) { vals[i], vals[j] = vals[j], vals[i] })
	seen := map[int]bool{}
	for _, v := range vals {
		seen[v] = true
	}
	if len(seen) != 8 {
		t.Fatalf("shuffle lost values: %v", vals)
	}
}
