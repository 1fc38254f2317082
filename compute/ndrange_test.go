package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKernelOptions_Validate(t *testing.T) {
	tests := []struct {
		name     string
		work     NDRange
		parallel NDRange
		ok       bool
	}{
		{"OneDimUnset", Range(10), nil, true},
		{"OneDimEven", Range(256), Range(64), true},
		{"ThreeDimEven", Range(8, 4, 2), Range(4, 2, 1), true},
		{"NoWorkDims", nil, nil, false},
		{"ZeroExtent", Range(0), nil, false},
		{"NegativeExtent", Range(4, -1), nil, false},
		{"DimCountDiffers", Range(8, 8), Range(8), false},
		{"NotDivisible", Range(10), Range(4), false},
		{"ZeroParallel", Range(8), Range(0), false},
		{"SecondDimNotDivisible", Range(8, 9), Range(2, 2), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewKernelOptions(tt.work, tt.parallel)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrRangeMismatch)
			var re *RangeError
			assert.ErrorAs(t, err, &re)
		})
	}
}

func TestKernelOptions_Groups(t *testing.T) {
	o, err := NewKernelOptions(Range(4096, 4), Range(256, 2))
	require.NoError(t, err)
	assert.Equal(t, NDRange{16, 2}, o.Groups())
	assert.Equal(t, 16384, o.WorkSize.Size())
	assert.Equal(t, "(4096,4)", o.WorkSize.String())
}

func TestNDRange_CloneIsIndependent(t *testing.T) {
	r := Range(1, 2)
	c := r.Clone()
	c[0] = 9
	assert.Equal(t, 1, r[0])
	assert.True(t, r.Equal(Range(1, 2)))
	assert.False(t, r.Equal(c))
}
