package host

import (
	"testing"
	"time"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/simd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_ShadowBuffersReleasedAfterKernel(t *testing.T) {
	env := newTestEnv(t, WithMemoryLimit(4096))
	e := env.engine

	k, err := e.GetKernel("fill", compute.WithOptions(compute.KernelOptions{WorkSize: compute.Range(256)}))
	require.NoError(t, err)

	for i := range 150 {
		out := make([]float32, 256)
		blob := compute.NewBlob[float32, compute.Out](out)
		b, err := compute.OutputBinding(blob, 256)
		require.NoError(t, err)

		require.NoError(t, k.SetArg(0, float32(i)))
		require.NoError(t, k.SetBufferArg(1, b))
		ev, err := k.Submit(compute.DefaultQueue)
		require.NoError(t, err, "call %d", i)
		_, err = ev.Wait()
		require.NoError(t, err, "call %d", i)

		assert.Equal(t, float32(i), out[255])
		require.Zero(t, e.MemoryUsage(), "call %d", i)
	}
}

func TestEngine_ReleaseTempAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	e := env.engine

	k, err := e.GetKernel("fill", compute.WithOptions(compute.KernelOptions{WorkSize: compute.Range(16)}))
	require.NoError(t, err)
	require.NoError(t, k.SetArg(0, float32(2)))

	for i := range 200 {
		tb, err := compute.TempBufferOf[float32](e, 16)
		require.NoError(t, err)
		_, err = tb.SetDirection(compute.DirectionOutput)
		require.NoError(t, err)

		require.NoError(t, k.SetBufferArg(1, tb))
		ev, err := k.Submit(compute.DefaultQueue)
		require.NoError(t, err)
		_, err = ev.Wait()
		require.NoError(t, err)

		e.ReleaseTemp(tb, ev)
		live, free := e.temps.stats()
		require.Zero(t, live, "call %d", i)
		require.Equal(t, 1, free, "call %d", i)
		require.Equal(t, int64(64), e.MemoryUsage(), "call %d", i)
	}
}

func TestEngine_ReleaseTempWaitsForEvents(t *testing.T) {
	env := newTestEnv(t)
	e := env.engine
	release := env.gate(1)

	ev, err := env.record(t, 1).Submit(compute.DefaultQueue)
	require.NoError(t, err)

	tb, err := e.TempBuffer(64)
	require.NoError(t, err)
	e.ReleaseTemp(tb, ev)

	time.Sleep(20 * time.Millisecond)
	live, _ := e.temps.stats()
	assert.Equal(t, 1, live, "buffer stays live while the event is pending")

	close(release)
	_, err = ev.Wait()
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		live, free := e.temps.stats()
		return live == 0 && free == 1
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_StaleTempReleaseIgnored(t *testing.T) {
	env := newTestEnv(t)
	e := env.engine

	first, err := e.TempBuffer(64)
	require.NoError(t, err)
	require.NoError(t, e.Finish(t.Context()))

	second, err := e.TempBuffer(64)
	require.NoError(t, err)
	bufFirst, _ := first.BufferFor(e)
	bufSecond, _ := second.BufferFor(e)
	require.Same(t, bufFirst, bufSecond, "recycled buffer is handed out again")

	e.ReleaseTemp(first)
	live, free := e.temps.stats()
	assert.Equal(t, 1, live, "stale binding must not free the new lease")
	assert.Zero(t, free)

	e.ReleaseTemp(second)
	e.ReleaseTemp(second)
	live, free = e.temps.stats()
	assert.Zero(t, live)
	assert.Equal(t, 1, free)
}

func TestEngine_SequenceCheckedBeforeSubmission(t *testing.T) {
	env := newTestEnv(t, WithConfig(Config{MaxWorkGroupSize: 16}))
	e := env.engine

	bad, err := e.GetKernel("record", compute.WithOptions(compute.KernelOptions{WorkSize: compute.Range(1, 1, 1, 1)}))
	require.NoError(t, err)
	require.NoError(t, bad.SetArg(0, 2))
	require.ErrorIs(t, e.CheckKernel(bad), compute.ErrUnsupported)

	ev, err := e.CommandsSequence(env.record(t, 1), bad).Submit(compute.DefaultQueue)
	require.ErrorIs(t, err, compute.ErrUnsupported)
	assert.Nil(t, ev)

	ev, err = e.CommandsParallel(env.record(t, 3), bad).Submit(compute.DefaultQueue)
	require.ErrorIs(t, err, compute.ErrUnsupported)
	assert.Nil(t, ev)

	require.NoError(t, e.Finish(t.Context()))
	assert.Empty(t, env.rec.snapshot(), "no child of a rejected composite may run")

	wide, err := e.GetKernel("record", compute.WithOptions(compute.KernelOptions{
		WorkSize:     compute.Range(64),
		ParallelSize: compute.Range(32),
	}))
	require.NoError(t, err)
	require.NoError(t, wide.SetArg(0, 4))
	require.ErrorIs(t, e.CheckKernel(wide), compute.ErrUnsupported)
	require.NoError(t, e.CheckKernel(env.record(t, 5)))
}

func TestEngine_InfoReportsActiveISA(t *testing.T) {
	env := newTestEnv(t)
	info := env.engine.Info()
	isa := simd.ActiveISA()
	assert.Equal(t, isa.String(), info.ISA)
	assert.Equal(t, isa.Lanes(), info.VectorWidth)
	assert.Positive(t, info.VectorWidth)
}
