package kernels

import (
	"fmt"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/simd"
)

// scoreDotProduct writes scores[i] = dot(query, candidates[i]) for every
// work item i < count.
func scoreDotProduct(wg *compute.WorkGroup) error {
	width, err := compute.ScalarArg[int](wg, 0)
	if err != nil {
		return err
	}
	count, err := compute.ScalarArg[int](wg, 1)
	if err != nil {
		return err
	}
	query, err := compute.BufferArg[float32](wg, 2)
	if err != nil {
		return err
	}
	candidates, err := compute.BufferArg[float32](wg, 3)
	if err != nil {
		return err
	}
	scores, err := compute.BufferArg[float32](wg, 4)
	if err != nil {
		return err
	}
	if len(query) < width || len(candidates) < width*count || len(scores) < count {
		return fmt.Errorf("%s: buffers too small for %d candidates of width %d", wg.Kernel, count, width)
	}

	return wg.ForEach(func(global, _ []int) error {
		i := global[0]
		if i >= count {
			return nil
		}
		scores[i] = simd.Dot(query[:width], candidates[i*width:(i+1)*width])
		return nil
	})
}
