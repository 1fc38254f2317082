package host

import (
	"runtime"
	"sync/atomic"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/mem"
	"github.com/intel/clGPU/internal/resource"
)

// reservation returns its memory to the controller exactly once, either on
// Release or when the buffer is collected.
type reservation struct {
	rc    *resource.Controller
	bytes int64
	done  atomic.Bool
}

func (r *reservation) release() {
	if r.done.CompareAndSwap(false, true) {
		r.rc.ReleaseMemory(r.bytes)
	}
}

type buffer struct {
	engine *Engine
	data   []byte
	res    *reservation
}

var _ compute.Buffer = (*buffer)(nil)

func (e *Engine) allocate(size int) (*buffer, error) {
	if size <= 0 {
		err := compute.NewAllocationError(int64(size), e.rc.MemoryLimit(), compute.ErrInvalidArgument)
		e.metrics.OnAllocation(int64(size), err)
		return nil, err
	}
	if err := e.rc.AcquireMemory(int64(size)); err != nil {
		err = compute.NewAllocationError(int64(size), e.rc.MemoryLimit(), err)
		e.metrics.OnAllocation(int64(size), err)
		if e.logger != nil {
			e.logger.Warn("buffer allocation refused", "bytes", size, "in_use", e.rc.MemoryUsage(), "error", err)
		}
		return nil, err
	}

	b := &buffer{
		engine: e,
		data:   mem.AllocAligned(size),
		res:    &reservation{rc: e.rc, bytes: int64(size)},
	}
	runtime.AddCleanup(b, func(r *reservation) { r.release() }, b.res)
	e.metrics.OnAllocation(int64(size), nil)
	return b, nil
}

func (b *buffer) Engine() compute.Engine { return b.engine }

func (b *buffer) Size() int { return len(b.data) }

func (b *buffer) Bytes() []byte { return b.data }

func (b *buffer) Release() { b.res.release() }
