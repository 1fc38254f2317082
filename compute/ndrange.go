package compute

import (
	"strconv"
	"strings"
)

// NDRange is an iteration space with one extent per dimension.
// A zero-length NDRange has no dimensions.
type NDRange []int

// Range returns an NDRange with the given extents.
func Range(extents ...int) NDRange {
	return NDRange(extents)
}

// Dims returns the number of dimensions.
func (r NDRange) Dims() int { return len(r) }

// Size returns the total number of points in the range, or 0 if it has no dimensions.
func (r NDRange) Size() int {
	if len(r) == 0 {
		return 0
	}
	n := 1
	for _, v := range r {
		n *= v
	}
	return n
}

// Equal reports whether both ranges have the same extents.
func (r NDRange) Equal(o NDRange) bool {
	if len(r) != len(o) {
		return false
	}
	for i := range r {
		if r[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of r.
func (r NDRange) Clone() NDRange {
	if r == nil {
		return nil
	}
	out := make(NDRange, len(r))
	copy(out, r)
	return out
}

func (r NDRange) String() string {
	if len(r) == 0 {
		return "()"
	}
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.Itoa(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// KernelOptions describes how a kernel iterates: WorkSize is the global
// iteration space and ParallelSize the extent of one work-group.
//
// A legal partition has at least one work dimension with positive extents.
// ParallelSize is either empty (the engine chooses) or has the same number of
// dimensions, and each work extent is a multiple of the matching parallel extent.
type KernelOptions struct {
	WorkSize     NDRange
	ParallelSize NDRange
}

// NewKernelOptions validates and returns options for the given partition.
func NewKernelOptions(work, parallel NDRange) (KernelOptions, error) {
	o := KernelOptions{WorkSize: work.Clone(), ParallelSize: parallel.Clone()}
	if err := o.Validate(); err != nil {
		return KernelOptions{}, err
	}
	return o, nil
}

// IsZero reports whether no work size has been set.
func (o KernelOptions) IsZero() bool { return len(o.WorkSize) == 0 }

// Validate checks that ParallelSize is a legal partition of WorkSize.
func (o KernelOptions) Validate() error {
	if o.WorkSize.Dims() == 0 {
		return o.rangeError("work size has no dimensions")
	}
	for _, v := range o.WorkSize {
		if v <= 0 {
			return o.rangeError("work extents must be positive")
		}
	}
	if o.ParallelSize.Dims() == 0 {
		return nil
	}
	if o.ParallelSize.Dims() != o.WorkSize.Dims() {
		return o.rangeError("dimension count differs")
	}
	for i, p := range o.ParallelSize {
		if p <= 0 {
			return o.rangeError("parallel extents must be positive")
		}
		if o.WorkSize[i]%p != 0 {
			return o.rangeError("parallel extent does not divide work extent in dimension " + strconv.Itoa(i))
		}
	}
	return nil
}

// Groups returns the number of work-groups per dimension.
// ParallelSize must be set and legal.
func (o KernelOptions) Groups() NDRange {
	g := make(NDRange, len(o.WorkSize))
	for i := range o.WorkSize {
		g[i] = o.WorkSize[i] / o.ParallelSize[i]
	}
	return g
}

func (o KernelOptions) rangeError(reason string) error {
	return &RangeError{WorkSize: o.WorkSize, ParallelSize: o.ParallelSize, Reason: reason}
}
