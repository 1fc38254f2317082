package mem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
)

func TestAllocAligned(t *testing.T) {
	for _, size := range []int{1, 10, 63, 64, 65, 100, 1024} {
		buf := AllocAligned(size)
		assert.Len(t, buf, size)
		assert.Equal(t, size, cap(buf), "capacity is clipped to the requested size")
		assert.True(t, IsAligned(buf), "size %d", size)
		for _, v := range buf {
			assert.Zero(t, v)
		}
	}

	assert.Nil(t, AllocAligned(0))
	assert.Nil(t, AllocAligned(-1))
}

func TestAllocAlignedOf(t *testing.T) {
	for _, n := range []int{1, 16, 17, 100} {
		f := AllocAlignedOf[float32](n)
		assert.Len(t, f, n)
		addr := uintptr(unsafe.Pointer(&f[0]))
		assert.Zero(t, addr%Alignment)
	}
	assert.Nil(t, AllocAlignedOf[float64](0))
	assert.Nil(t, AllocAlignedOf[struct{}](4))
}
