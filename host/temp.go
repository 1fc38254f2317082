package host

import (
	"sync"

	"github.com/intel/clGPU/compute"
)

// tempPool hands out scratch buffers. A buffer stays live, and is never
// handed out again, until its binding is put back or the next Finish
// recycles every live buffer. Each hand-out gets a fresh binding, so a stale
// binding never frees a buffer that was handed out again.
type tempPool struct {
	mu   sync.Mutex
	live map[*compute.BufferBinding]*buffer
	free map[int][]*buffer
}

func newTempPool() *tempPool {
	return &tempPool{
		live: make(map[*compute.BufferBinding]*buffer),
		free: make(map[int][]*buffer),
	}
}

func (p *tempPool) take(size int) (*buffer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.free[size]
	if len(list) == 0 {
		return nil, false
	}
	b := list[len(list)-1]
	list[len(list)-1] = nil
	p.free[size] = list[:len(list)-1]
	clear(b.data)
	return b, true
}

func (p *tempPool) hold(binding *compute.BufferBinding, b *buffer) {
	p.mu.Lock()
	p.live[binding] = b
	p.mu.Unlock()
}

func (p *tempPool) holds(binding *compute.BufferBinding) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.live[binding]
	return ok
}

// put moves the buffer behind binding to the free lists if it is still live.
func (p *tempPool) put(binding *compute.BufferBinding) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.live[binding]
	if !ok {
		return
	}
	delete(p.live, binding)
	p.free[len(b.data)] = append(p.free[len(b.data)], b)
}

func (p *tempPool) recycle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.live {
		p.free[len(b.data)] = append(p.free[len(b.data)], b)
	}
	clear(p.live)
}

func (p *tempPool) release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.live {
		b.Release()
	}
	for _, list := range p.free {
		for _, b := range list {
			b.Release()
		}
	}
	clear(p.live)
	p.free = make(map[int][]*buffer)
}

// stats returns the number of live and free buffers.
func (p *tempPool) stats() (live, free int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, list := range p.free {
		free += len(list)
	}
	return len(p.live), free
}
