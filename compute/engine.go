package compute

import (
	"context"
	"unsafe"
)

// EngineObject is implemented by every object an Engine creates.
// The back-reference is set at construction and never changes.
type EngineObject interface {
	Engine() Engine
}

// Buffer is a device allocation of fixed size.
type Buffer interface {
	EngineObject

	// Size returns the allocation size in bytes.
	Size() int

	// Bytes returns the host mapping of the buffer.
	// Reading it while a command writes the buffer is a data race.
	Bytes() []byte

	// Release returns the allocation to the engine. Release is idempotent.
	Release()
}

// Engine is the factory and owner of device resources.
//
// Factory calls are safe for concurrent use; engines may serialize them
// internally.
type Engine interface {
	// PrimitiveDB returns the kernel registry the engine resolves programs from.
	PrimitiveDB() KernelSource

	// CreateBuffer allocates a zero-initialized buffer of size bytes.
	CreateBuffer(size int) (Buffer, error)

	// CreateBufferFrom allocates a buffer holding a copy of data.
	CreateBufferFrom(data []byte) (Buffer, error)

	// GetKernel returns a fresh kernel command for the named program.
	GetKernel(name string, opts ...KernelOption) (*KernelCommand, error)

	// RaiseEventCommand returns a marker command satisfied when its dependencies are.
	RaiseEventCommand() *RaiseEventCommand

	// CommandsSequence returns a sequence holding cmds.
	CommandsSequence(cmds ...Command) *CommandsSequence

	// CommandsParallel returns a parallel group holding cmds.
	CommandsParallel(cmds ...Command) *CommandsParallel

	// TempBuffer returns a scratch binding with no direction. It stays valid
	// until it is passed to ReleaseTemp or until the next Finish.
	TempBuffer(size int) (*BufferBinding, error)

	// ReleaseTemp hands a TempBuffer binding back once every event in after
	// is satisfied. The binding must not be used by later submissions.
	ReleaseTemp(b *BufferBinding, after ...Event)

	// Finish blocks until every submitted command has completed.
	Finish(ctx context.Context) error

	// Close drains the queues and releases engine resources.
	Close() error
}

// Backend is implemented by engines to execute leaf commands.
// Composite commands are built on top of it.
type Backend interface {
	Engine

	// EnqueueKernel schedules a validated kernel after deps on queue.
	EnqueueKernel(queue CommandQueue, k *KernelCommand, deps []Event) (Event, error)

	// CheckKernel reports whether EnqueueKernel would accept k without
	// scheduling anything. Device limits surface as ErrUnsupported.
	CheckKernel(k *KernelCommand) error

	// EnqueueMarker schedules a marker satisfied once all deps are satisfied.
	EnqueueMarker(queue CommandQueue, deps []Event) (Event, error)
}

// TempBufferOf returns a scratch binding sized for n elements of T.
func TempBufferOf[T Element](e Engine, n int) (*BufferBinding, error) {
	if n <= 0 {
		return nil, ErrInvalidArgument
	}
	return e.TempBuffer(n * int(unsafe.Sizeof(*new(T))))
}

// KernelOption configures GetKernel.
type KernelOption func(*KernelConfig)

// KernelConfig is the resolved form of a list of KernelOptions.
type KernelConfig struct {
	Module  string
	Options KernelOptions
}

// InModule resolves the kernel inside the named module.
func InModule(module string) KernelOption {
	return func(c *KernelConfig) {
		c.Module = module
	}
}

// WithOptions sets the launch options of the returned kernel.
func WithOptions(o KernelOptions) KernelOption {
	return func(c *KernelConfig) {
		c.Options = o
	}
}

// ApplyKernelOptions resolves opts into a KernelConfig.
func ApplyKernelOptions(opts ...KernelOption) KernelConfig {
	var c KernelConfig
	for _, fn := range opts {
		fn(&c)
	}
	return c
}
