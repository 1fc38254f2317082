package kernels

import (
	"fmt"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/simd"
)

type sdotArgs struct {
	n          int
	x, y       []float32
	incx, incy int
	out        []float32
}

func loadSdotArgs(wg *compute.WorkGroup) (sdotArgs, error) {
	var a sdotArgs
	var err error
	if a.n, err = compute.ScalarArg[int](wg, 0); err != nil {
		return a, err
	}
	if a.x, err = compute.BufferArg[float32](wg, 1); err != nil {
		return a, err
	}
	if a.incx, err = compute.ScalarArg[int](wg, 2); err != nil {
		return a, err
	}
	if a.y, err = compute.BufferArg[float32](wg, 3); err != nil {
		return a, err
	}
	if a.incy, err = compute.ScalarArg[int](wg, 4); err != nil {
		return a, err
	}
	if a.out, err = compute.BufferArg[float32](wg, 5); err != nil {
		return a, err
	}
	if a.incx == 0 || a.incy == 0 {
		return a, fmt.Errorf("%s: zero stride", wg.Kernel)
	}
	if a.n > 0 && (span(a.n, a.incx) > len(a.x) || span(a.n, a.incy) > len(a.y)) {
		return a, fmt.Errorf("%s: vectors too short for n=%d", wg.Kernel, a.n)
	}
	return a, nil
}

// span returns the number of elements n strided reads cover.
func span(n, inc int) int {
	if inc < 0 {
		inc = -inc
	}
	return (n-1)*inc + 1
}

func sdotNaive(wg *compute.WorkGroup) error {
	a, err := loadSdotArgs(wg)
	if err != nil {
		return err
	}
	if len(a.out) < 1 {
		return fmt.Errorf("%s: empty result buffer", wg.Kernel)
	}
	a.out[0] = simd.DotStrided(a.n, a.x, a.incx, a.y, a.incy)
	return nil
}

// sdotPartial writes one partial sum per work-group. Group g covers the
// g-th contiguous chunk of the logical index range [0, n).
func sdotPartial(wg *compute.WorkGroup) error {
	a, err := loadSdotArgs(wg)
	if err != nil {
		return err
	}
	groups := wg.NumGroups[0]
	g := wg.GroupID[0]
	if len(a.out) < groups {
		return fmt.Errorf("%s: partial buffer holds %d of %d groups", wg.Kernel, len(a.out), groups)
	}

	chunk := (a.n + groups - 1) / groups
	lo := min(g*chunk, a.n)
	hi := min(lo+chunk, a.n)

	ix := origin(a.n, a.incx) + lo*a.incx
	iy := origin(a.n, a.incy) + lo*a.incy
	var s float32
	for k := lo; k < hi; k++ {
		s += a.x[ix] * a.y[iy]
		ix += a.incx
		iy += a.incy
	}
	a.out[g] = s
	return nil
}

func origin(n, inc int) int {
	if inc < 0 {
		return (1 - n) * inc
	}
	return 0
}

func sumReduce(wg *compute.WorkGroup) error {
	count, err := compute.ScalarArg[int](wg, 0)
	if err != nil {
		return err
	}
	values, err := compute.BufferArg[float32](wg, 1)
	if err != nil {
		return err
	}
	result, err := compute.BufferArg[float32](wg, 2)
	if err != nil {
		return err
	}
	if len(values) < count || len(result) < 1 {
		return fmt.Errorf("%s: buffers too small", wg.Kernel)
	}
	if wg.GroupID[0] == 0 {
		result[0] = simd.Sum(values[:count])
	}
	return nil
}
