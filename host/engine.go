package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/resource"
	"github.com/intel/clGPU/internal/simd"
)

// DeviceInfo describes the host device. ISA and VectorWidth report the
// detected vector extension; kernels run the same portable loops on every ISA.
type DeviceInfo struct {
	Name             string
	ISA              string
	VectorWidth      int
	Queues           int
	Workers          int
	MaxDimensions    int
	MaxWorkGroupSize int
	MemoryLimit      int64
}

// Engine executes commands on the host CPU.
type Engine struct {
	cfg     Config
	name    string
	db      compute.KernelSource
	rc      *resource.Controller
	logger  *slog.Logger
	metrics MetricsObserver

	lanes []*lane
	temps *tempPool

	closeOnce sync.Once
	closed    atomic.Bool
}

var _ compute.Backend = (*Engine)(nil)

// New creates an engine resolving kernels from db and starts its queues.
func New(db compute.KernelSource, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: nil kernel source", compute.ErrInvalidArgument)
	}
	e := &Engine{
		db:      db,
		name:    "host",
		metrics: NoopMetricsObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.cfg = e.cfg.withDefaults()
	if e.metrics == nil {
		e.metrics = NoopMetricsObserver{}
	}
	if e.rc == nil {
		e.rc = resource.NewController(resource.Config{
			MemoryLimitBytes:    e.cfg.MemoryLimitBytes,
			MaxWorkers:          int64(e.cfg.Workers),
			TransferBytesPerSec: e.cfg.TransferBytesPerSec,
		})
	}
	e.temps = newTempPool()

	e.lanes = make([]*lane, e.cfg.Queues)
	for i := range e.lanes {
		e.lanes[i] = newLane(i)
		go e.lanes[i].loop()
	}

	if e.logger != nil {
		e.logger.Info("engine started", "device", e.name, "queues", e.cfg.Queues, "workers", e.rc.MaxWorkers(), "isa", simd.ActiveISA().String())
	}
	return e, nil
}

// Info describes the device.
func (e *Engine) Info() DeviceInfo {
	return DeviceInfo{
		Name:             e.name,
		ISA:              simd.ActiveISA().String(),
		VectorWidth:      simd.ActiveISA().Lanes(),
		Queues:           len(e.lanes),
		Workers:          e.rc.MaxWorkers(),
		MaxDimensions:    MaxDimensions,
		MaxWorkGroupSize: e.cfg.MaxWorkGroupSize,
		MemoryLimit:      e.rc.MemoryLimit(),
	}
}

// MemoryUsage returns the bytes currently reserved by buffers.
func (e *Engine) MemoryUsage() int64 { return e.rc.MemoryUsage() }

// PrimitiveDB implements compute.Engine.
func (e *Engine) PrimitiveDB() compute.KernelSource { return e.db }

// CreateBuffer implements compute.Engine.
func (e *Engine) CreateBuffer(size int) (compute.Buffer, error) {
	if e.closed.Load() {
		return nil, compute.ErrEngineClosed
	}
	return e.allocate(size)
}

// CreateBufferFrom implements compute.Engine.
func (e *Engine) CreateBufferFrom(data []byte) (compute.Buffer, error) {
	b, err := e.CreateBuffer(len(data))
	if err != nil {
		return nil, err
	}
	copy(b.Bytes(), data)
	return b, nil
}

// GetKernel implements compute.Engine.
func (e *Engine) GetKernel(name string, opts ...compute.KernelOption) (*compute.KernelCommand, error) {
	cfg := compute.ApplyKernelOptions(opts...)
	p, err := e.db.Lookup(cfg.Module, name)
	if err != nil {
		return nil, err
	}
	if p.Func == nil {
		return nil, fmt.Errorf("%w: kernel %q has no host program", compute.ErrUnimplemented, name)
	}
	k := compute.NewKernelCommand(e, p)
	if !cfg.Options.IsZero() {
		if err := k.SetOptions(cfg.Options); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// RaiseEventCommand implements compute.Engine.
func (e *Engine) RaiseEventCommand() *compute.RaiseEventCommand {
	return compute.NewRaiseEventCommand(e)
}

// CommandsSequence implements compute.Engine.
func (e *Engine) CommandsSequence(cmds ...compute.Command) *compute.CommandsSequence {
	return compute.NewCommandsSequence(e, cmds...)
}

// CommandsParallel implements compute.Engine.
func (e *Engine) CommandsParallel(cmds ...compute.Command) *compute.CommandsParallel {
	return compute.NewCommandsParallel(e, cmds...)
}

// TempBuffer implements compute.Engine. The buffer is owned by the engine
// until ReleaseTemp or the next Finish, after which it may be handed out again.
func (e *Engine) TempBuffer(size int) (*compute.BufferBinding, error) {
	if e.closed.Load() {
		return nil, compute.ErrEngineClosed
	}
	buf, ok := e.temps.take(size)
	if !ok {
		var err error
		if buf, err = e.allocate(size); err != nil {
			return nil, err
		}
	}
	binding, err := compute.NewBinding(buf, compute.DirectionNone, size)
	if err != nil {
		buf.Release()
		return nil, err
	}
	e.temps.hold(binding, buf)
	return binding, nil
}

// ReleaseTemp implements compute.Engine.
func (e *Engine) ReleaseTemp(b *compute.BufferBinding, after ...compute.Event) {
	if b == nil || !e.temps.holds(b) {
		return
	}
	if done(after) {
		e.temps.put(b)
		return
	}
	go func() {
		_ = compute.WaitAll(context.Background(), after...)
		e.temps.put(b)
	}()
}

func done(events []compute.Event) bool {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		select {
		case <-ev.Done():
		default:
			return false
		}
	}
	return true
}

// EnqueueMarker implements compute.Backend.
func (e *Engine) EnqueueMarker(queue compute.CommandQueue, deps []compute.Event) (compute.Event, error) {
	ev := compute.NewCompletion(e)
	err := e.enqueue(queue, &job{deps: deps, event: ev, run: func() error {
		return nil
	}})
	if err != nil {
		return nil, err
	}
	go func() {
		d, err := ev.Wait()
		e.metrics.OnMarker(d, err)
	}()
	return ev, nil
}

// CheckKernel implements compute.Backend.
func (e *Engine) CheckKernel(k *compute.KernelCommand) error {
	_, err := e.planKernel(k)
	return err
}

func (e *Engine) planKernel(k *compute.KernelCommand) (*kernelPlan, error) {
	if k.Engine() != compute.Engine(e) {
		return nil, fmt.Errorf("%w: kernel %q belongs to another engine", compute.ErrInvalidArgument, k.Name())
	}
	return e.plan(k.Snapshot())
}

// EnqueueKernel implements compute.Backend.
func (e *Engine) EnqueueKernel(queue compute.CommandQueue, k *compute.KernelCommand, deps []compute.Event) (compute.Event, error) {
	plan, err := e.planKernel(k)
	if err != nil {
		return nil, err
	}

	ev := compute.NewCompletion(e)
	err = e.enqueue(queue, &job{deps: deps, event: ev, run: func() error {
		err := e.runKernel(plan)
		if err != nil && e.logger != nil {
			e.logger.Error("kernel failed", "kernel", plan.name, "queue", queue.ID(), "error", err)
		}
		return err
	}})
	if err != nil {
		return nil, err
	}
	go func() {
		d, err := ev.Wait()
		e.metrics.OnKernel(plan.name, d, plan.groups.Size(), err)
	}()
	return ev, nil
}

func (e *Engine) enqueue(queue compute.CommandQueue, j *job) error {
	if e.closed.Load() {
		return compute.ErrEngineClosed
	}
	id := queue.ID()
	if id < 0 || id >= len(e.lanes) {
		return fmt.Errorf("%w: queue %d (engine has %d)", compute.ErrInvalidQueue, id, len(e.lanes))
	}
	depth, err := e.lanes[id].push(j)
	if err != nil {
		return err
	}
	e.metrics.OnQueueDepth(id, depth)
	if e.logger != nil {
		e.logger.Debug("command submitted", "queue", id, "deps", len(j.deps), "depth", depth)
	}
	return nil
}

// Finish implements compute.Engine. It waits for every queue to drain and
// then recycles the temporary buffers handed out so far.
func (e *Engine) Finish(ctx context.Context) error {
	markers := make([]compute.Event, 0, len(e.lanes))
	for i := range e.lanes {
		ev := compute.NewCompletion(e)
		if err := e.enqueue(compute.NewCommandQueue(i), &job{event: ev, run: func() error { return nil }}); err != nil {
			return err
		}
		markers = append(markers, ev)
	}
	for _, m := range markers {
		if _, err := m.WaitContext(ctx); err != nil {
			return err
		}
	}
	e.temps.recycle()
	return nil
}

// Close implements compute.Engine. Queued commands run to completion.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		start := time.Now()
		for _, l := range e.lanes {
			l.close()
		}
		for _, l := range e.lanes {
			<-l.done
		}
		e.temps.release()
		if e.logger != nil {
			e.logger.Info("engine closed", "device", e.name, "drain", time.Since(start), "memory_in_use", e.rc.MemoryUsage())
		}
	})
	return nil
}
