package host

import (
	"fmt"
	"sync"

	"github.com/intel/clGPU/compute"
)

type job struct {
	deps  []compute.Event
	event *compute.Completion
	run   func() error
}

// lane is the in-order executor behind one command queue. Pushing never
// blocks; jobs are started by the lane goroutine in push order.
type lane struct {
	id int

	mu      sync.Mutex
	cond    *sync.Cond
	pending []*job
	closed  bool
	done    chan struct{}
}

func newLane(id int) *lane {
	l := &lane{id: id, done: make(chan struct{})}
	l.cond = sync.NewCond(&l.mu)
	return l
}

// push appends j and returns the number of queued jobs.
func (l *lane) push(j *job) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return 0, compute.ErrEngineClosed
	}
	l.pending = append(l.pending, j)
	l.cond.Signal()
	return len(l.pending), nil
}

func (l *lane) next() *job {
	l.mu.Lock()
	defer l.mu.Unlock()
	for len(l.pending) == 0 && !l.closed {
		l.cond.Wait()
	}
	if len(l.pending) == 0 {
		return nil
	}
	j := l.pending[0]
	l.pending[0] = nil
	l.pending = l.pending[1:]
	return j
}

// close stops accepting jobs. Queued jobs still run.
func (l *lane) close() {
	l.mu.Lock()
	l.closed = true
	l.cond.Broadcast()
	l.mu.Unlock()
}

func (l *lane) loop() {
	defer close(l.done)
	for {
		j := l.next()
		if j == nil {
			return
		}
		execute(j)
	}
}

func execute(j *job) {
	for i, d := range j.deps {
		<-d.Done()
		if err := d.Err(); err != nil {
			j.event.Complete(fmt.Errorf("%w: dependency %d: %w", compute.ErrDependencyFailed, i, err))
			return
		}
	}
	j.event.Start()
	j.event.Complete(j.run())
}
