package mem

import (
	"unsafe"
)

// Alignment is the byte alignment of every allocation (one cache line).
const Alignment = 64

// AllocAligned returns a zeroed byte slice of size bytes starting at an
// address divisible by Alignment. It returns nil for size <= 0.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	buf := make([]byte, size+Alignment)
	addr := uintptr(unsafe.Pointer(&buf[0])) //nolint:gosec // unsafe is required for memory alignment
	offset := (Alignment - (addr & (Alignment - 1))) & (Alignment - 1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// AllocAlignedOf returns n zeroed elements of T with the alignment of AllocAligned.
func AllocAlignedOf[T any](n int) []T {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if n <= 0 || elem == 0 {
		return nil
	}
	b := AllocAligned(n * elem)
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n) //nolint:gosec // unsafe is required for memory alignment
}

// IsAligned reports whether b starts on an Alignment boundary.
func IsAligned(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	return uintptr(unsafe.Pointer(&b[0]))%Alignment == 0 //nolint:gosec // address inspection only
}
