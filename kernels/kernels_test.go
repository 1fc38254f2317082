package kernels

import (
	"testing"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/primitivedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func group(name string, g, groups, local int, args ...any) *compute.WorkGroup {
	return compute.NewWorkGroup(name, compute.Range(g), compute.Range(groups), compute.Range(local), compute.Range(groups*local), args)
}

func floats(v ...float32) []byte { return compute.AsBytes(v) }

func TestRegister(t *testing.T) {
	db := primitivedb.New()
	require.NoError(t, Register(db))

	for _, name := range []string{ScoreDotProduct, SdotNaive, SdotPartial, SumReduce} {
		p, err := db.Lookup("", name)
		require.NoError(t, err, name)
		assert.NotNil(t, p.Func)
	}
	assert.Equal(t, []string{CommonHeader}, db.Headers())

	src, err := db.Get(SdotPartial)
	require.NoError(t, err)
	assert.Contains(t, src, `#include "common.h"`)
}

func TestScoreDotProduct(t *testing.T) {
	scores := make([]float32, 4)
	args := []any{4, 2,
		floats(1, 2, 3, 4),
		floats(1, 0, 0, 0, 0, 1, 1, 0),
		compute.AsBytes(scores),
	}

	// Work size padded to 4 items; items beyond count are ignored.
	require.NoError(t, scoreDotProduct(group(ScoreDotProduct, 0, 1, 4, args...)))
	assert.Equal(t, []float32{1, 5, 0, 0}, scores)
}

func TestScoreDotProduct_BufferTooSmall(t *testing.T) {
	scores := make([]float32, 1)
	err := scoreDotProduct(group(ScoreDotProduct, 0, 1, 2, 4, 2,
		floats(1, 2, 3, 4), floats(1, 0, 0, 0, 0, 1, 1, 0), compute.AsBytes(scores)))
	require.Error(t, err)
}

func TestSdotNaive(t *testing.T) {
	result := make([]float32, 1)
	err := sdotNaive(group(SdotNaive, 0, 1, 1,
		int32(3), floats(1, 0, 2, 0, 3), int32(2), floats(4, 5, 6), int32(1), compute.AsBytes(result)))
	require.NoError(t, err)
	assert.Equal(t, float32(4+10+18), result[0])

	err = sdotNaive(group(SdotNaive, 0, 1, 1,
		int32(3), floats(1, 2), int32(1), floats(4, 5, 6), int32(1), compute.AsBytes(result)))
	require.Error(t, err, "x shorter than n")

	err = sdotNaive(group(SdotNaive, 0, 1, 1,
		int32(3), floats(1, 2, 3), int32(0), floats(4, 5, 6), int32(1), compute.AsBytes(result)))
	require.Error(t, err, "zero stride")
}

func TestSdotPartialThenSum(t *testing.T) {
	const n, groups = 1000, 16
	x := make([]float32, n)
	y := make([]float32, n)
	var want float32
	for i := range x {
		x[i] = float32(i%7) - 3
		y[i] = float32(i%5) * 0.5
		want += x[i] * y[i]
	}

	partial := make([]float32, groups)
	for g := range groups {
		err := sdotPartial(group(SdotPartial, g, groups, 256,
			n, compute.AsBytes(x), 1, compute.AsBytes(y), 1, compute.AsBytes(partial)))
		require.NoError(t, err)
	}

	result := make([]float32, 1)
	require.NoError(t, sumReduce(group(SumReduce, 0, 1, groups, groups, compute.AsBytes(partial), compute.AsBytes(result))))
	assert.InDelta(t, want, result[0], 1e-2)
}

func TestSdotPartial_NegativeStride(t *testing.T) {
	x := []float32{1, 2, 3, 4}
	y := []float32{1, 1, 1, 10}
	partial := make([]float32, 2)
	for g := range 2 {
		require.NoError(t, sdotPartial(group(SdotPartial, g, 2, 1,
			4, compute.AsBytes(x), 1, compute.AsBytes(y), -1, compute.AsBytes(partial))))
	}
	// y is read backwards: 10,1,1,1.
	assert.Equal(t, float32(1*10+2*1+3*1+4*1), partial[0]+partial[1])
}
