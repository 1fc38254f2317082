package compute

import (
	"fmt"
	"sync"
)

// BufferBinding pairs storage with a declared direction and a logical size.
//
// A binding is backed either by host memory (NewHostBinding) or by a buffer
// owned by an engine (NewBinding). Engines that do not own the backing
// storage get a shadow buffer on first use; input data is copied into it
// before a command runs and output data is copied back when it completes.
//
// Invariants: Size() <= Capacity(), and the direction can only change while
// the binding is not defined.
type BufferBinding struct {
	mu        sync.Mutex
	direction Direction
	size      int
	capacity  int
	host      []byte
	mapped    []byte
	owner     Engine
	buffers   map[Engine]Buffer
	holds     map[Engine]int
}

// NewHostBinding binds host memory. Size and capacity are len(data).
func NewHostBinding(data []byte, dir Direction) *BufferBinding {
	return &BufferBinding{
		direction: dir,
		size:      len(data),
		capacity:  len(data),
		host:      data,
		buffers:   make(map[Engine]Buffer),
	}
}

// NewBinding binds buf. A size of 0 binds the whole buffer.
func NewBinding(buf Buffer, dir Direction, size int) (*BufferBinding, error) {
	if buf == nil {
		return nil, fmt.Errorf("%w: nil buffer", ErrInvalidArgument)
	}
	if size == 0 {
		size = buf.Size()
	}
	if size < 0 || size > buf.Size() {
		return nil, &CapacityError{Requested: size, Capacity: buf.Size()}
	}
	return &BufferBinding{
		direction: dir,
		size:      size,
		capacity:  buf.Size(),
		owner:     buf.Engine(),
		buffers:   map[Engine]Buffer{buf.Engine(): buf},
	}, nil
}

// Direction returns the declared direction.
func (b *BufferBinding) Direction() Direction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.direction
}

// SetDirection changes the direction and returns the previous one.
// It fails with ErrDirectionAlreadySet once the binding is defined.
func (b *BufferBinding) SetDirection(dir Direction) (Direction, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.direction
	if b.definedLocked() {
		return prev, fmt.Errorf("%w: binding is %s", ErrDirectionAlreadySet, prev)
	}
	b.direction = dir
	return prev, nil
}

// Size returns the logical size in bytes.
func (b *BufferBinding) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Capacity returns the allocated size in bytes.
func (b *BufferBinding) Capacity() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.capacity
}

// SetSize changes the logical size. The size is left unchanged on error.
func (b *BufferBinding) SetSize(size int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if size < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}
	if size > b.capacity {
		return &CapacityError{Requested: size, Capacity: b.capacity}
	}
	b.size = size
	return nil
}

// IsDefined reports whether the binding has a direction, a non-zero size and
// backing storage.
func (b *BufferBinding) IsDefined() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.definedLocked()
}

func (b *BufferBinding) definedLocked() bool {
	return b.direction != DirectionNone && b.size > 0 && (b.host != nil || b.owner != nil)
}

// OwningEngine returns the engine of the buffer the binding was built from,
// or nil for host bindings.
func (b *BufferBinding) OwningEngine() Engine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// IsHostBacked reports whether the binding was built from host memory.
func (b *BufferBinding) IsHostBacked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.host != nil
}

// HostBytes returns the first Size() bytes of host-visible storage: the host
// memory for host bindings, or the mapping of the owning buffer.
//
// The caller must wait for any command writing the binding first.
func (b *BufferBinding) HostBytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.host != nil {
		return b.host[:b.size]
	}
	if b.mapped == nil && b.owner != nil {
		b.mapped = b.buffers[b.owner].Bytes()
	}
	if b.mapped == nil {
		return nil
	}
	return b.mapped[:b.size]
}

// ResetHostPtr drops the cached mapping of a buffer-backed binding.
// Host bindings are not affected.
func (b *BufferBinding) ResetHostPtr() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.host == nil {
		b.mapped = nil
	}
}

// BufferFor returns the buffer used by e for this binding, creating a
// shadow buffer of Capacity() bytes on first use.
func (b *BufferBinding) BufferFor(e Engine) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bufferForLocked(e)
}

// AcquireBuffer is BufferFor for the duration of one command. Each call
// must be paired with ReleaseBuffer once the command is done with it.
func (b *BufferBinding) AcquireBuffer(e Engine) (Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	buf, err := b.bufferForLocked(e)
	if err != nil {
		return nil, err
	}
	if b.holds == nil {
		b.holds = make(map[Engine]int)
	}
	b.holds[e]++
	return buf, nil
}

// ReleaseBuffer drops a hold taken by AcquireBuffer. The shadow buffer of e
// is released with the last hold; the owner's buffer is never released here.
func (b *BufferBinding) ReleaseBuffer(e Engine) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.holds[e]
	if n == 0 {
		return
	}
	if n > 1 {
		b.holds[e] = n - 1
		return
	}
	delete(b.holds, e)
	if e == b.owner {
		return
	}
	if buf, ok := b.buffers[e]; ok {
		buf.Release()
		delete(b.buffers, e)
	}
}

func (b *BufferBinding) bufferForLocked(e Engine) (Buffer, error) {
	if buf, ok := b.buffers[e]; ok {
		return buf, nil
	}
	buf, err := e.CreateBuffer(b.capacity)
	if err != nil {
		return nil, err
	}
	b.buffers[e] = buf
	return buf, nil
}

// Release releases the shadow buffers created for engines other than the owner.
func (b *BufferBinding) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for e, buf := range b.buffers {
		if e != b.owner {
			buf.Release()
			delete(b.buffers, e)
		}
	}
}
