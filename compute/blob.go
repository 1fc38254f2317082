package compute

import (
	"fmt"
	"unsafe"
)

// Element is the set of element types a Blob can hold.
type Element interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// In, Out and InOut tag the role of a Blob at compile time.
type (
	In    struct{}
	Out   struct{}
	InOut struct{}
)

// DirectionTag is satisfied by the three role tags.
type DirectionTag interface {
	In | Out | InOut
}

// Readable is satisfied by roles the device may read.
type Readable interface {
	In | InOut
}

// Writable is satisfied by roles the device may write.
type Writable interface {
	Out | InOut
}

// BindingSource is implemented by values that expose a BufferBinding.
type BindingSource interface {
	Binding() *BufferBinding
}

// Blob is a typed view over a BufferBinding. D fixes the role the blob can be
// bound in: InputBinding only accepts In and InOut blobs, OutputBinding only
// Out and InOut.
//
// A Blob does not own its binding.
type Blob[T Element, D DirectionTag] struct {
	binding *BufferBinding
}

// NewBlob returns a blob over host data. The binding has no direction until
// it is passed to InputBinding, OutputBinding or InOutBinding.
func NewBlob[T Element, D DirectionTag](data []T) Blob[T, D] {
	return Blob[T, D]{binding: NewHostBinding(asBytes(data), DirectionNone)}
}

// BlobFromBuffer returns a blob over the first n elements of buf.
func BlobFromBuffer[T Element, D DirectionTag](buf Buffer, n int) (Blob[T, D], error) {
	b, err := NewBinding(buf, DirectionNone, n*elemSize[T]())
	if err != nil {
		return Blob[T, D]{}, err
	}
	return Blob[T, D]{binding: b}, nil
}

// BlobFromBinding wraps an existing binding.
func BlobFromBinding[T Element, D DirectionTag](b *BufferBinding) Blob[T, D] {
	return Blob[T, D]{binding: b}
}

// Binding returns the underlying binding.
func (b Blob[T, D]) Binding() *BufferBinding { return b.binding }

// Valid reports whether the blob is backed by a defined binding.
func (b Blob[T, D]) Valid() bool { return b.binding != nil && b.binding.IsDefined() }

// Len returns the number of elements covered by the binding size.
func (b Blob[T, D]) Len() int {
	if b.binding == nil {
		return 0
	}
	return b.binding.Size() / elemSize[T]()
}

// Data returns the host-visible elements. The caller must wait for any
// command writing the blob first.
func (b Blob[T, D]) Data() []T {
	if b.binding == nil {
		return nil
	}
	return fromBytes[T](b.binding.HostBytes())
}

// InputBinding declares blob as an input of n elements and returns its binding.
func InputBinding[T Element, D Readable](blob Blob[T, D], n int) (*BufferBinding, error) {
	return bindAs(blob.binding, DirectionInput, n*elemSize[T]())
}

// OutputBinding declares blob as an output of n elements and returns its binding.
func OutputBinding[T Element, D Writable](blob Blob[T, D], n int) (*BufferBinding, error) {
	return bindAs(blob.binding, DirectionOutput, n*elemSize[T]())
}

// InOutBinding declares blob as an input and output of n elements.
func InOutBinding[T Element](blob Blob[T, InOut], n int) (*BufferBinding, error) {
	return bindAs(blob.binding, DirectionInOut, n*elemSize[T]())
}

func bindAs(b *BufferBinding, dir Direction, size int) (*BufferBinding, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: blob has no binding", ErrInvalidArgument)
	}
	if b.Direction() != dir {
		if _, err := b.SetDirection(dir); err != nil {
			return nil, err
		}
	}
	if err := b.SetSize(size); err != nil {
		return nil, err
	}
	return b, nil
}

func elemSize[T Element]() int {
	return int(unsafe.Sizeof(*new(T)))
}

func asBytes[T Element](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*elemSize[T]()) //nolint:gosec // reinterpretation of a typed slice
}

func fromBytes[T Element](b []byte) []T {
	n := len(b) / elemSize[T]()
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n) //nolint:gosec // buffers are 64-byte aligned
}

// AsBytes reinterprets a typed slice as bytes without copying.
func AsBytes[T Element](data []T) []byte { return asBytes(data) }

// FromBytes reinterprets bytes as a typed slice without copying.
// Trailing bytes that do not form a whole element are ignored.
func FromBytes[T Element](b []byte) []T { return fromBytes[T](b) }
