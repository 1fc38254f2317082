package compute

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// fakeBackend records submissions without executing anything.
type fakeBackend struct {
	mu      sync.Mutex
	kernels []*KernelCommand
	markers [][]Event
	maxDims int // 0 = unlimited
}

func (f *fakeBackend) PrimitiveDB() KernelSource                    { return nil }
func (f *fakeBackend) CreateBuffer(size int) (Buffer, error)        { return newFakeBuffer(f, size), nil }
func (f *fakeBackend) CreateBufferFrom(data []byte) (Buffer, error) { return newFakeBuffer(f, len(data)), nil }
func (f *fakeBackend) GetKernel(string, ...KernelOption) (*KernelCommand, error) {
	return nil, ErrUnimplemented
}
func (f *fakeBackend) RaiseEventCommand() *RaiseEventCommand { return NewRaiseEventCommand(f) }
func (f *fakeBackend) CommandsSequence(cmds ...Command) *CommandsSequence {
	return NewCommandsSequence(f, cmds...)
}
func (f *fakeBackend) CommandsParallel(cmds ...Command) *CommandsParallel {
	return NewCommandsParallel(f, cmds...)
}
func (f *fakeBackend) TempBuffer(size int) (*BufferBinding, error) {
	return NewBinding(newFakeBuffer(f, size), DirectionNone, size)
}
func (f *fakeBackend) ReleaseTemp(*BufferBinding, ...Event) {}
func (f *fakeBackend) Finish(context.Context) error         { return nil }
func (f *fakeBackend) Close() error                         { return nil }

func (f *fakeBackend) CheckKernel(k *KernelCommand) error {
	if dims := k.Options().WorkSize.Dims(); f.maxDims > 0 && dims > f.maxDims {
		return &UnsupportedError{Feature: fmt.Sprintf("%d-dimensional range", dims)}
	}
	return nil
}

func (f *fakeBackend) EnqueueKernel(_ CommandQueue, k *KernelCommand, _ []Event) (Event, error) {
	f.mu.Lock()
	f.kernels = append(f.kernels, k)
	f.mu.Unlock()
	c := NewCompletion(f)
	c.Complete(nil)
	return c, nil
}

// EnqueueMarker completes the marker once every dependency is done.
func (f *fakeBackend) EnqueueMarker(_ CommandQueue, deps []Event) (Event, error) {
	f.mu.Lock()
	f.markers = append(f.markers, deps)
	f.mu.Unlock()
	c := NewCompletion(f)
	go func() {
		var first error
		for _, d := range deps {
			<-d.Done()
			if err := d.Err(); err != nil && first == nil {
				first = err
			}
		}
		c.Complete(first)
	}()
	return c, nil
}

func (f *fakeBackend) kernelCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.kernels)
}

type fakeBuffer struct {
	engine   Engine
	data     []byte
	released atomic.Bool
}

func newFakeBuffer(e Engine, size int) *fakeBuffer {
	return &fakeBuffer{engine: e, data: make([]byte, size)}
}

func (b *fakeBuffer) Engine() Engine { return b.engine }
func (b *fakeBuffer) Size() int      { return len(b.data) }
func (b *fakeBuffer) Bytes() []byte  { return b.data }

func (b *fakeBuffer) Release() { b.released.Store(true) }

// stepCommand returns an event the test completes by hand and records the
// dependencies it was submitted with.
type stepCommand struct {
	backend *fakeBackend
	name    string
	invalid error

	mu    sync.Mutex
	deps  []Event
	event *Completion
	log   *[]string
	logMu *sync.Mutex
}

func newStep(b *fakeBackend, name string, log *[]string, logMu *sync.Mutex) *stepCommand {
	return &stepCommand{backend: b, name: name, log: log, logMu: logMu}
}

func (s *stepCommand) Engine() Engine { return s.backend }

func (s *stepCommand) Validate() error { return s.invalid }

func (s *stepCommand) Submit(_ CommandQueue, deps ...Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deps = deps
	s.event = NewCompletion(s.backend)
	if s.log != nil {
		s.logMu.Lock()
		*s.log = append(*s.log, s.name)
		s.logMu.Unlock()
	}
	return s.event, nil
}

func (s *stepCommand) submittedDeps() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deps
}

func (s *stepCommand) complete(err error) {
	s.mu.Lock()
	ev := s.event
	s.mu.Unlock()
	ev.Complete(err)
}

func (s *stepCommand) submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event != nil
}
