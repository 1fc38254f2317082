package compute

import (
	"context"
	"sync"
	"time"
)

// Event is a one-shot completion token returned by Command.Submit.
type Event interface {
	EngineObject

	// Wait blocks until the command completes and returns its execution
	// time and failure, if any.
	Wait() (time.Duration, error)

	// WaitContext is Wait bounded by ctx. On expiry it returns an error
	// matching ErrWaitTimeout and the command keeps running.
	WaitContext(ctx context.Context) (time.Duration, error)

	// Done is closed when the command completes.
	Done() <-chan struct{}

	// Err returns the failure of a completed command. It returns nil until
	// Done is closed.
	Err() error
}

// Completion is the Event implementation shared by engines. It can also be
// used as a user event signalled by the host.
type Completion struct {
	engine Engine
	done   chan struct{}
	once   sync.Once

	mu      sync.Mutex
	started time.Time
	elapsed time.Duration
	err     error
}

// NewCompletion returns an unsatisfied event owned by e.
func NewCompletion(e Engine) *Completion {
	return &Completion{
		engine:  e,
		done:    make(chan struct{}),
		started: time.Now(),
	}
}

// Engine implements EngineObject.
func (c *Completion) Engine() Engine { return c.engine }

// Start records the moment execution began. The elapsed time reported by
// Wait is measured from the last Start, or from creation.
func (c *Completion) Start() {
	c.mu.Lock()
	c.started = time.Now()
	c.mu.Unlock()
}

// Complete satisfies the event. Only the first call has an effect.
func (c *Completion) Complete(err error) {
	c.once.Do(func() {
		c.mu.Lock()
		c.elapsed = time.Since(c.started)
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

// Done implements Event.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Err implements Event.
func (c *Completion) Err() error {
	select {
	case <-c.done:
	default:
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Wait implements Event.
func (c *Completion) Wait() (time.Duration, error) {
	<-c.done
	return c.result()
}

// WaitContext implements Event.
func (c *Completion) WaitContext(ctx context.Context) (time.Duration, error) {
	select {
	case <-c.done:
		return c.result()
	case <-ctx.Done():
		return 0, &waitTimeoutError{cause: ctx.Err()}
	}
}

func (c *Completion) result() (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsed, c.err
}

type waitTimeoutError struct {
	cause error
}

func (e *waitTimeoutError) Error() string { return ErrWaitTimeout.Error() + ": " + e.cause.Error() }

func (e *waitTimeoutError) Unwrap() []error { return []error{ErrWaitTimeout, e.cause} }

// WaitAll waits for every event and returns the first failure.
func WaitAll(ctx context.Context, events ...Event) error {
	var first error
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if _, err := ev.WaitContext(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
