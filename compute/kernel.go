package compute

import (
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// Arg is a bound kernel argument: either a binding or a scalar value.
type Arg struct {
	Binding *BufferBinding
	Scalar  any
}

// IsBuffer reports whether the argument is a binding.
func (a Arg) IsBuffer() bool { return a.Binding != nil }

// KernelLaunch is an immutable snapshot of a kernel taken at submission.
type KernelLaunch struct {
	Program *KernelProgram
	Args    []Arg
	Options KernelOptions
}

// KernelCommand runs a kernel program over an NDRange.
//
// Arguments are bound by position (SetArg, SetScalarArg, SetBufferArg) or
// by parameter name (SetNamedArg). Submit fails with ErrArgumentBinding if a
// required parameter is unbound, and with ErrRangeMismatch if no legal
// options are set. A failed Submit returns no Event and touches no buffer.
type KernelCommand struct {
	backend Backend
	program *KernelProgram

	mu      sync.Mutex
	args    []Arg
	bound   *bitset.BitSet
	options KernelOptions
}

// NewKernelCommand returns a kernel for program executed by b.
func NewKernelCommand(b Backend, program *KernelProgram) *KernelCommand {
	n := len(program.Params)
	return &KernelCommand{
		backend: b,
		program: program,
		args:    make([]Arg, n),
		bound:   bitset.New(uint(n)),
	}
}

// Engine implements EngineObject.
func (k *KernelCommand) Engine() Engine { return k.backend }

// Name returns the program name.
func (k *KernelCommand) Name() string { return k.program.Name }

// Program returns the resolved program.
func (k *KernelCommand) Program() *KernelProgram { return k.program }

// SetArg binds v at idx. Bindings and BindingSources are bound as buffers,
// everything else as a scalar.
func (k *KernelCommand) SetArg(idx int, v any) error {
	switch a := v.(type) {
	case *BufferBinding:
		return k.SetBufferArg(idx, a)
	case BindingSource:
		return k.SetBufferArg(idx, a.Binding())
	default:
		return k.SetScalarArg(idx, v)
	}
}

// SetNamedArg binds v to the parameter called name.
func (k *KernelCommand) SetNamedArg(name string, v any) error {
	idx := k.program.ParamIndex(name)
	if idx < 0 {
		return &ArgumentError{Kernel: k.program.Name, Index: -1, Reason: fmt.Sprintf("no parameter named %q", name)}
	}
	return k.SetArg(idx, v)
}

// SetScalarArg binds a fixed-size numeric value at idx.
func (k *KernelCommand) SetScalarArg(idx int, v any) error {
	if err := k.checkSlot(idx, ParamScalar); err != nil {
		return err
	}
	if !isScalar(v) {
		return &ArgumentError{Kernel: k.program.Name, Index: idx, Reason: fmt.Sprintf("unsupported scalar type %T", v)}
	}
	k.mu.Lock()
	k.args[idx] = Arg{Scalar: v}
	k.bound.Set(uint(idx))
	k.mu.Unlock()
	return nil
}

// SetBufferArg binds b at idx. The binding must be defined.
func (k *KernelCommand) SetBufferArg(idx int, b *BufferBinding) error {
	if err := k.checkSlot(idx, ParamBuffer); err != nil {
		return err
	}
	if b == nil || !b.IsDefined() {
		return &ArgumentError{Kernel: k.program.Name, Index: idx, Reason: "binding is not defined"}
	}
	k.mu.Lock()
	k.args[idx] = Arg{Binding: b}
	k.bound.Set(uint(idx))
	k.mu.Unlock()
	return nil
}

// SetOptions sets the launch partition.
func (k *KernelCommand) SetOptions(o KernelOptions) error {
	if err := o.Validate(); err != nil {
		return err
	}
	k.mu.Lock()
	k.options = KernelOptions{WorkSize: o.WorkSize.Clone(), ParallelSize: o.ParallelSize.Clone()}
	k.mu.Unlock()
	return nil
}

// Options returns the launch partition.
func (k *KernelCommand) Options() KernelOptions {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.options
}

// Validate checks that every required parameter is bound, options are legal
// and the backend accepts the launch.
func (k *KernelCommand) Validate() error {
	if err := k.validateArgs(); err != nil {
		return err
	}
	return k.backend.CheckKernel(k)
}

func (k *KernelCommand) validateArgs() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, p := range k.program.Params {
		if p.Optional || k.bound.Test(uint(i)) {
			continue
		}
		return &ArgumentError{Kernel: k.program.Name, Index: i, Reason: fmt.Sprintf("required %s parameter %q is unbound", p.Kind, p.Name)}
	}
	return k.options.Validate()
}

// Snapshot returns the launch state. The argument slice is a copy.
func (k *KernelCommand) Snapshot() KernelLaunch {
	k.mu.Lock()
	defer k.mu.Unlock()
	args := make([]Arg, len(k.args))
	copy(args, k.args)
	return KernelLaunch{Program: k.program, Args: args, Options: k.options}
}

// Submit implements Command.
func (k *KernelCommand) Submit(queue CommandQueue, deps ...Event) (Event, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k.backend.EnqueueKernel(queue, k, deps)
}

func (k *KernelCommand) checkSlot(idx int, kind ParamKind) error {
	if idx < 0 || idx >= len(k.program.Params) {
		return &ArgumentError{Kernel: k.program.Name, Index: idx, Reason: fmt.Sprintf("index out of range [0,%d)", len(k.program.Params))}
	}
	if p := k.program.Params[idx]; p.Kind != kind {
		return &ArgumentError{Kernel: k.program.Name, Index: idx, Reason: fmt.Sprintf("parameter %q expects a %s", p.Name, p.Kind)}
	}
	return nil
}

func isScalar(v any) bool {
	switch v.(type) {
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64, int, uint:
		return true
	default:
		return false
	}
}
