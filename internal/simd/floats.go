package simd

// Dot returns the inner product of a and b over min(len(a), len(b)) elements.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	a, b = a[:n], b[:n]

	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	for ; i < n; i++ {
		s0 += a[i] * b[i]
	}
	return (s0 + s1) + (s2 + s3)
}

// DotStrided returns the inner product of n elements of x and y read with
// strides incx and incy. Negative strides walk the vectors backwards, starting
// from the last element, as in BLAS.
func DotStrided(n int, x []float32, incx int, y []float32, incy int) float32 {
	if n <= 0 {
		return 0
	}
	if incx == 1 && incy == 1 {
		return Dot(x[:n], y[:n])
	}
	ix, iy := start(n, incx), start(n, incy)
	var s float32
	for range n {
		s += x[ix] * y[iy]
		ix += incx
		iy += incy
	}
	return s
}

func start(n, inc int) int {
	if inc < 0 {
		return (1 - n) * inc
	}
	return 0
}

// DotBatch computes out[i] = Dot(query, targets[i*dim:(i+1)*dim]) for every
// row that fits in both targets and out.
func DotBatch(query, targets []float32, dim int, out []float32) {
	if dim <= 0 || len(query) < dim {
		return
	}
	q := query[:dim]
	n := min(len(out), len(targets)/dim)
	for i := range n {
		out[i] = Dot(q, targets[i*dim:(i+1)*dim])
	}
}

// Sum returns the sum of a.
func Sum(a []float32) float32 {
	var s0, s1, s2, s3 float32
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += a[i]
		s1 += a[i+1]
		s2 += a[i+2]
		s3 += a[i+3]
	}
	for ; i < len(a); i++ {
		s0 += a[i]
	}
	return (s0 + s1) + (s2 + s3)
}
