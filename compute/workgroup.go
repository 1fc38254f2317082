package compute

import (
	"fmt"
)

// WorkGroup is the execution context handed to a KernelFunc. One call
// processes every work item of the group.
type WorkGroup struct {
	Kernel     string
	GroupID    NDRange
	NumGroups  NDRange
	LocalSize  NDRange
	GlobalSize NDRange

	args []any
}

// NewWorkGroup returns a work-group context. Buffer arguments are passed as
// []byte holding the device view of the binding; scalars as their value.
func NewWorkGroup(kernel string, group, numGroups, local, global NDRange, args []any) *WorkGroup {
	return &WorkGroup{
		Kernel:     kernel,
		GroupID:    group,
		NumGroups:  numGroups,
		LocalSize:  local,
		GlobalSize: global,
		args:       args,
	}
}

// Dims returns the number of dimensions of the launch.
func (wg *WorkGroup) Dims() int { return wg.GlobalSize.Dims() }

// GlobalOffset returns the global id of the first work item of the group in dim.
func (wg *WorkGroup) GlobalOffset(dim int) int {
	return wg.GroupID[dim] * wg.LocalSize[dim]
}

// ForEach calls fn for every work item of the group with its global and
// local ids. The slices are reused between calls. Iteration stops at the
// first error.
func (wg *WorkGroup) ForEach(fn func(global, local []int) error) error {
	dims := wg.Dims()
	if dims == 0 {
		return nil
	}
	local := make([]int, dims)
	global := make([]int, dims)
	for {
		for d := 0; d < dims; d++ {
			global[d] = wg.GlobalOffset(d) + local[d]
		}
		if err := fn(global, local); err != nil {
			return err
		}
		d := 0
		for ; d < dims; d++ {
			local[d]++
			if local[d] < wg.LocalSize[d] {
				break
			}
			local[d] = 0
		}
		if d == dims {
			return nil
		}
	}
}

// NumArgs returns the number of arguments.
func (wg *WorkGroup) NumArgs() int { return len(wg.args) }

// BufferArg returns the argument at idx as a typed device view.
func BufferArg[T Element](wg *WorkGroup, idx int) ([]T, error) {
	if idx < 0 || idx >= len(wg.args) {
		return nil, &ArgumentError{Kernel: wg.Kernel, Index: idx, Reason: "index out of range"}
	}
	b, ok := wg.args[idx].([]byte)
	if !ok {
		return nil, &ArgumentError{Kernel: wg.Kernel, Index: idx, Reason: "not a buffer"}
	}
	return fromBytes[T](b), nil
}

// ScalarArg returns the argument at idx converted to T.
func ScalarArg[T Element](wg *WorkGroup, idx int) (T, error) {
	if idx < 0 || idx >= len(wg.args) {
		return 0, &ArgumentError{Kernel: wg.Kernel, Index: idx, Reason: "index out of range"}
	}
	v, ok := convertScalar[T](wg.args[idx])
	if !ok {
		return 0, &ArgumentError{Kernel: wg.Kernel, Index: idx, Reason: fmt.Sprintf("cannot use %T as scalar", wg.args[idx])}
	}
	return v, nil
}

func convertScalar[T Element](v any) (T, bool) {
	switch x := v.(type) {
	case int8:
		return T(x), true
	case int16:
		return T(x), true
	case int32:
		return T(x), true
	case int64:
		return T(x), true
	case int:
		return T(x), true
	case uint8:
		return T(x), true
	case uint16:
		return T(x), true
	case uint32:
		return T(x), true
	case uint64:
		return T(x), true
	case uint:
		return T(x), true
	case float32:
		return T(x), true
	case float64:
		return T(x), true
	default:
		return 0, false
	}
}
