package testutil

import (
	"math"
	"math/rand"
	"sync"
)

// Tolerance is the relative error accepted between float32 results and their
// float64 references.
const Tolerance = 1e-5

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float32 in a loop).
func (r *RNG) FillUniform(dst []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float32()
	}
}

// FillUniformRange fills dst with random values in range [minVal, maxVal).
func (r *RNG) FillUniformRange(dst []float32, minVal, maxVal float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	span := maxVal - minVal
	for i := range dst {
		dst[i] = minVal + r.rand.Float32()*span
	}
}

// UniformRange returns n values in range [-1, 1).
func (r *RNG) UniformRange(n int) []float32 {
	v := make([]float32, n)
	r.FillUniformRange(v, -1, 1)
	return v
}

// Matrix returns a row-major rows x cols matrix with values in range [-1, 1).
func (r *RNG) Matrix(rows, cols int) []float32 {
	return r.UniformRange(rows * cols)
}

// Strided returns a vector of n logical elements spaced |inc| apart, padded
// with values that must never be read.
func (r *RNG) Strided(n, inc int) []float32 {
	if inc < 0 {
		inc = -inc
	}
	v := make([]float32, 1+(n-1)*inc)
	for i := range v {
		v[i] = float32(math.NaN())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < n; i++ {
		v[i*inc] = r.rand.Float32()*2 - 1
	}
	return v
}

// ReferenceDot computes the BLAS dot product of n strided elements in
// float64. Negative strides walk the vector from its far end.
func ReferenceDot(n int, x []float32, incx int, y []float32, incy int) float64 {
	ix, iy := origin(n, incx), origin(n, incy)
	var s float64
	for i := 0; i < n; i++ {
		s += float64(x[ix]) * float64(y[iy])
		ix += incx
		iy += incy
	}
	return s
}

func origin(n, inc int) int {
	if inc < 0 {
		return (1 - n) * inc
	}
	return 0
}

// ReferenceScores computes dot(query, candidate[i]) in float64 for every
// row of width elements.
func ReferenceScores(query, candidates []float32, width int) []float64 {
	count := len(candidates) / width
	out := make([]float64, count)
	for i := range count {
		out[i] = ReferenceDot(width, query, 1, candidates[i*width:(i+1)*width], 1)
	}
	return out
}

// Close reports whether got is within a relative error of tol from want.
// Values smaller than one in magnitude are compared absolutely.
func Close(want float64, got float32, tol float64) bool {
	return math.Abs(want-float64(got)) <= tol*math.Max(1, math.Abs(want))
}
