package compute

// ParamKind is the kind of value a kernel parameter accepts.
type ParamKind uint8

const (
	// ParamScalar accepts a fixed-size numeric value.
	ParamScalar ParamKind = iota
	// ParamBuffer accepts a BufferBinding.
	ParamBuffer
)

func (k ParamKind) String() string {
	switch k {
	case ParamScalar:
		return "scalar"
	case ParamBuffer:
		return "buffer"
	default:
		return "unknown"
	}
}

// Param describes one positional kernel parameter.
type Param struct {
	Name     string
	Kind     ParamKind
	Optional bool
}

// KernelFunc executes one work-group of a kernel.
type KernelFunc func(wg *WorkGroup) error

// KernelProgram is an executable kernel resolved from a KernelSource.
type KernelProgram struct {
	Name   string
	Params []Param
	Func   KernelFunc
}

// ParamIndex returns the position of the named parameter, or -1.
func (p *KernelProgram) ParamIndex(name string) int {
	for i, prm := range p.Params {
		if prm.Name == name {
			return i
		}
	}
	return -1
}

// KernelSource resolves kernel programs by module and name.
//
// Implementations return an error matching ErrKernelNotFound when no entry
// exists and ErrUnimplemented when an entry exists but cannot be executed.
type KernelSource interface {
	Lookup(module, name string) (*KernelProgram, error)
}
