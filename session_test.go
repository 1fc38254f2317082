package clgpu

import (
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intel/clGPU/blobstore"
	"github.com/intel/clGPU/catalog"
	"github.com/intel/clGPU/codec"
	"github.com/intel/clGPU/functions"
	"github.com/intel/clGPU/host"
	"github.com/intel/clGPU/kernels"
	"github.com/intel/clGPU/testutil"
)

func openSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	sess, err := Open(t.Context(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func TestSession_Score(t *testing.T) {
	sess := openSession(t)

	scores, err := sess.Score(t.Context(), []float32{1, 2, 3, 4}, []float32{1, 0, 0, 0, 0, 1, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 5}, scores)

	rng := testutil.NewRNG(7)
	query := rng.UniformRange(33)
	cands := rng.Matrix(150, 33)
	scores, err = sess.Score(t.Context(), query, cands)
	require.NoError(t, err)
	testutil.RequireClose(t, testutil.ReferenceScores(query, cands, 33), scores, testutil.Tolerance)

	empty, err := sess.Score(t.Context(), query, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSession_ScoreErrors(t *testing.T) {
	sess := openSession(t)

	_, err := sess.Score(t.Context(), nil, []float32{1})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = sess.Score(t.Context(), []float32{1, 2}, []float32{1, 2, 3})
	var wm *ErrWidthMismatch
	require.ErrorAs(t, err, &wm)
	assert.Equal(t, 2, wm.Width)
	assert.Equal(t, 3, wm.CandidatesLen)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSession_Select(t *testing.T) {
	sess := openSession(t)
	query := []float32{1, 2, 3, 4}
	cands := []float32{1, 0, 0, 0, 0, 1, 1, 0}

	sel, err := sess.Select(t.Context(), query, cands, 5, functions.Inclusive)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, sel.AcceptedIndices())
	assert.Equal(t, []int{0}, sel.Rejected)
	assert.Equal(t, []float32{1, 5}, sel.Scores)

	sel, err = sess.Select(t.Context(), query, cands, 5, functions.Exclusive)
	require.NoError(t, err)
	assert.Empty(t, sel.AcceptedIndices())
	assert.Equal(t, 2, sel.Len())
}

func TestSession_SelectNoCandidates(t *testing.T) {
	sess := openSession(t)

	scores, err := sess.Score(t.Context(), []float32{1, 2}, nil)
	require.NoError(t, err)
	sel, err := sess.Select(t.Context(), []float32{1, 2}, nil, 3, functions.Inclusive)
	require.NoError(t, err)
	assert.Equal(t, scores, sel.Scores)
	assert.NotNil(t, sel.Accepted)
	assert.Empty(t, sel.AcceptedIndices())
	assert.Empty(t, sel.Rejected)
	assert.Zero(t, sel.Len())

	_, err = sess.Select(t.Context(), nil, []float32{1}, 3, functions.Inclusive)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSession_ScoreRepeatedUnderMemoryLimit(t *testing.T) {
	sess := openSession(t, WithHostConfig(host.Config{MemoryLimitBytes: 64 << 10}))
	rng := testutil.NewRNG(11)
	query := rng.UniformRange(64)
	cands := rng.Matrix(16, 64)
	want := testutil.ReferenceScores(query, cands, 64)

	for i := range 150 {
		scores, err := sess.Score(t.Context(), query, cands)
		require.NoError(t, err, "call %d", i)
		testutil.RequireClose(t, want, scores, testutil.Tolerance)
	}

	e, err := sess.Engine(EngineHost)
	require.NoError(t, err)
	assert.Zero(t, e.(*host.Engine).MemoryUsage())
}

func TestSession_SdotTempBuffersReused(t *testing.T) {
	sess := openSession(t)
	rng := testutil.NewRNG(5)
	x, y := rng.UniformRange(1000), rng.UniformRange(1000)

	for i := range 200 {
		_, err := sess.Sdot(t.Context(), 1000, x, 1, y, 1)
		require.NoError(t, err, "call %d", i)
	}

	e, err := sess.Engine(EngineHost)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		return e.(*host.Engine).MemoryUsage() <= 4*64
	}, time.Second, 5*time.Millisecond)
}

func TestSession_Sdot(t *testing.T) {
	sess := openSession(t)
	rng := testutil.NewRNG(3)

	tests := []struct {
		name       string
		n          int
		incx, incy int
	}{
		{"Small", 17, 1, 1},
		{"TwoStage", 1000, 1, 1},
		{"Strided", 300, 2, -3},
		{"Empty", 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := rng.Strided(tt.n, tt.incx)
			y := rng.Strided(tt.n, tt.incy)
			got, err := sess.Sdot(t.Context(), tt.n, x, tt.incx, y, tt.incy)
			require.NoError(t, err)
			testutil.RequireClose(t, []float64{testutil.ReferenceDot(tt.n, x, tt.incx, y, tt.incy)}, []float32{got}, 1e-4)
		})
	}

	_, err := sess.Sdot(t.Context(), 4, make([]float32, 4), 0, make([]float32, 4), 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSession_Engines(t *testing.T) {
	sess := openSession(t)

	def, err := sess.Engine(EngineDefault)
	require.NoError(t, err)
	h, err := sess.Engine(EngineHost)
	require.NoError(t, err)
	assert.Same(t, def, h, "default resolves to the host engine")
	assert.Equal(t, "host", def.(*host.Engine).Info().Name)

	d1, err := sess.Dispatcher(EngineDefault)
	require.NoError(t, err)
	d2, err := sess.Dispatcher(EngineHost)
	require.NoError(t, err)
	assert.Same(t, d1, d2)
	assert.Same(t, def, d1.Engine())

	_, err = sess.Engine(EngineType(42))
	var ue *ErrUnknownEngine
	require.ErrorAs(t, err, &ue)
	require.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, "engine(42)", EngineType(42).String())
}

func TestSession_ConcurrentEngineCreation(t *testing.T) {
	sess := openSession(t)

	var wg sync.WaitGroup
	got := make([]any, 16)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := sess.Engine(EngineDefault)
			if err == nil {
				got[i] = e
			}
		}()
	}
	wg.Wait()
	for _, e := range got {
		assert.Same(t, got[0], e)
	}
}

func TestSession_HostConfig(t *testing.T) {
	sess := openSession(t, WithHostConfig(host.Config{Queues: 3, MaxWorkGroupSize: 128}))
	e, err := sess.Engine(EngineHost)
	require.NoError(t, err)

	info := e.(*host.Engine).Info()
	assert.Equal(t, 3, info.Queues)
	assert.Equal(t, 128, info.MaxWorkGroupSize)

	// Group limit rules out the two-stage kernel; the dispatcher falls back.
	rng := testutil.NewRNG(1)
	x, y := rng.UniformRange(1024), rng.UniformRange(1024)
	got, err := sess.Sdot(t.Context(), 1024, x, 1, y, 1)
	require.NoError(t, err)
	testutil.RequireClose(t, []float64{testutil.ReferenceDot(1024, x, 1, y, 1)}, []float32{got}, 1e-4)
}

func TestSession_Close(t *testing.T) {
	sess, err := Open(t.Context())
	require.NoError(t, err)
	_, err = sess.Engine(EngineHost)
	require.NoError(t, err)

	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())

	_, err = sess.Engine(EngineHost)
	require.ErrorIs(t, err, ErrClosed)
	_, err = sess.Score(t.Context(), []float32{1}, []float32{1})
	require.ErrorIs(t, err, ErrClosed)
}

func TestSession_Catalog(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()

	sess := openSession(t, WithCatalogStore(store), WithCodec(codec.JSON{}), WithCompression(catalog.CompressionLZ4))
	require.NoError(t, sess.PrimitiveDB().InsertSource(kernels.SdotNaive, "// tuned sdot"))

	v, err := sess.SaveCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)

	restored := openSession(t, WithCatalogStore(store))
	src, err := restored.PrimitiveDB().Get(kernels.SdotNaive)
	require.NoError(t, err)
	assert.Equal(t, "// tuned sdot", src)

	// Restored sources keep the builtin host programs.
	got, err := restored.Sdot(ctx, 3, []float32{1, 2, 3}, 1, []float32{4, 5, 6}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 32, got, 1e-5)

	fresh := openSession(t, WithCatalogStore(store), WithCatalogLoad(false))
	src, err = fresh.PrimitiveDB().Get(kernels.SdotNaive)
	require.NoError(t, err)
	assert.NotEqual(t, "// tuned sdot", src)

	v, err = fresh.LoadCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), v)
}

func TestSession_CatalogErrors(t *testing.T) {
	ctx := t.Context()

	sess := openSession(t)
	_, err := sess.SaveCatalog(ctx)
	require.ErrorIs(t, err, ErrNoCatalogStore)
	_, err = sess.LoadCatalog(ctx)
	require.ErrorIs(t, err, ErrNoCatalogStore)

	store := blobstore.NewMemoryStore()
	empty := openSession(t, WithCatalogStore(store))
	_, err = empty.LoadCatalog(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, catalog.CurrentName, []byte(catalog.SnapshotName(1))))
	require.NoError(t, store.Put(ctx, catalog.SnapshotName(1), []byte("not a catalog")))
	_, err = Open(ctx, WithCatalogStore(store))
	require.ErrorIs(t, err, ErrCorruptCatalog)
}

func TestSession_Observability(t *testing.T) {
	var buf syncBuffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	metrics := &BasicMetricsCollector{}

	sess := openSession(t, WithLogger(logger), WithMetricsCollector(metrics))
	_, err := sess.Score(t.Context(), []float32{1, 2}, []float32{1, 1, 2, 2})
	require.NoError(t, err)
	_, err = sess.Select(t.Context(), []float32{1, 2}, []float32{1, 1, 2, 2}, 4, functions.Inclusive)
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.DispatchCount)
	assert.Zero(t, stats.DispatchErrors)
	assert.Equal(t, int64(1), stats.SelectCount)
	assert.Equal(t, int64(2), stats.SelectCandidates)
	assert.Equal(t, int64(1), stats.SelectAccepted)
	assert.Positive(t, stats.HostToDeviceBytes)
	assert.Positive(t, stats.DeviceToHostBytes)

	// Kernel completions are reported after the event fires.
	assert.Eventually(t, func() bool {
		return metrics.GetStats().KernelCount >= 2
	}, time.Second, 5*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "engine created")
	assert.Contains(t, out, "dispatch completed")
	assert.Contains(t, out, "select completed")
	assert.Contains(t, out, "engine=host")
}
