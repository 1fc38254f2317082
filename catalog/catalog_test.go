package catalog

import (
	"bytes"
	"context"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intel/clGPU/blobstore"
	"github.com/intel/clGPU/codec"
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/kernels"
	"github.com/intel/clGPU/primitivedb"
)

func newDB(t *testing.T) *primitivedb.DB {
	t.Helper()
	db := primitivedb.New()
	require.NoError(t, kernels.Register(db))
	return db
}

func TestSaveLoad(t *testing.T) {
	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(comp.String(), func(t *testing.T) {
			ctx := t.Context()
			store := blobstore.NewMemoryStore()
			src := newDB(t)
			require.NoError(t, src.SetSource("blas", "saxpy", "__kernel void saxpy() {}"))

			v, err := Save(ctx, store, src, WithCompression(comp))
			require.NoError(t, err)
			assert.Equal(t, uint32(1), v)

			dst := primitivedb.New()
			snap, err := Load(ctx, store, dst)
			require.NoError(t, err)
			assert.Equal(t, uint32(1), snap.Version)
			assert.Len(t, snap.Entries, src.Len())

			for _, e := range src.Entries() {
				got, ok := dst.Entry(e.Module, e.Name)
				require.True(t, ok, e.Name)
				assert.Equal(t, e.Source, got.Source)
				assert.False(t, got.Executable(), "host programs are not persisted")
			}
		})
	}
}

func TestLoadKeepsPrograms(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()

	edited := newDB(t)
	require.NoError(t, edited.InsertSource(kernels.SdotNaive, "// tuned"))
	_, err := Save(ctx, store, edited)
	require.NoError(t, err)

	db := newDB(t)
	_, err = Load(ctx, store, db)
	require.NoError(t, err)

	src, err := db.Get(kernels.SdotNaive)
	require.NoError(t, err)
	assert.Equal(t, "// tuned", src)

	_, err = db.Lookup("", kernels.SdotNaive)
	require.NoError(t, err)
}

func TestSaveVersions(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()
	db := newDB(t)

	for want := uint32(1); want <= 3; want++ {
		v, err := Save(ctx, store, db, WithCodec(codec.JSON{}))
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	current, err := Current(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, "catalog-000003.bin", current)

	headers, err := Versions(ctx, store, WithConcurrency(2))
	require.NoError(t, err)
	require.Len(t, headers, 3)
	for i, h := range headers {
		assert.Equal(t, uint32(i+1), h.Version)
		assert.Equal(t, "json", h.Codec)
	}

	snap, err := LoadVersion(ctx, store, primitivedb.New(), 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), snap.Version)
}

func TestLoadEmptyStore(t *testing.T) {
	_, err := Load(t.Context(), blobstore.NewMemoryStore(), primitivedb.New())
	require.ErrorIs(t, err, ErrNoSnapshot)
}

func TestLoadCorrupt(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()
	_, err := Save(ctx, store, newDB(t))
	require.NoError(t, err)

	data, err := blobstore.ReadAll(ctx, store, SnapshotName(1))
	require.NoError(t, err)

	flipped := bytes.Clone(data)
	flipped[len(flipped)-1] ^= 0xff
	require.NoError(t, store.Put(ctx, SnapshotName(1), flipped))

	db := primitivedb.New()
	_, err = Load(ctx, store, db)
	require.ErrorIs(t, err, ErrCorrupt)
	assert.Zero(t, db.Len(), "nothing applied from a corrupt snapshot")

	require.NoError(t, store.Put(ctx, CurrentName, []byte("garbage")))
	_, err = Load(ctx, store, db)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestDecode(t *testing.T) {
	snap := &Snapshot{
		Version: 7,
		Entries: []Entry{{Name: "k", Source: strings.Repeat("__kernel void k() {}\n", 64)}},
	}
	data, err := Encode(snap, nil, CompressionLZ4)
	require.NoError(t, err)

	h, err := ReadHeader(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), h.Version)
	assert.Equal(t, CompressionLZ4, h.Compression)
	assert.Equal(t, codec.Default.Name(), h.Codec)
	assert.Less(t, h.PayloadLen, h.RawLen)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"Short", func(b []byte) []byte { return b[:10] }},
		{"Magic", func(b []byte) []byte { b[0] = 'X'; return b }},
		{"Format", func(b []byte) []byte { b[4] = 9; return b }},
		{"Truncated", func(b []byte) []byte { return b[:len(b)-1] }},
		{"Checksum", func(b []byte) []byte { b[12] ^= 1; return b }},
		{"Codec", func(b []byte) []byte { b[headerSize] = 'x'; return b }},
		{"Compression", func(b []byte) []byte { b[5] = 9; return b }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.mutate(bytes.Clone(data)))
			require.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestCompressIncompressible(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(rng.Uint32())
	}

	for _, comp := range []Compression{CompressionLZ4, CompressionZstd} {
		out, applied, err := compress(data, comp)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, applied, comp.String())
		assert.Equal(t, data, out)
	}

	_, _, err := compress(data, Compression(9))
	require.Error(t, err)
}

func TestPrune(t *testing.T) {
	ctx := t.Context()
	store := blobstore.NewMemoryStore()
	db := newDB(t)
	for range 4 {
		_, err := Save(ctx, store, db)
		require.NoError(t, err)
	}

	deleted, err := Prune(ctx, store, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{SnapshotName(1), SnapshotName(2)}, deleted)

	// CURRENT survives even when keep is zero.
	deleted, err = Prune(ctx, store, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{SnapshotName(3)}, deleted)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{CurrentName, SnapshotName(4)}, names)

	v, err := Save(ctx, store, db)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
}

func TestSnapshotName(t *testing.T) {
	assert.Equal(t, "catalog-000042.bin", SnapshotName(42))

	v, ok := ParseSnapshotName("catalog-000042.bin")
	require.True(t, ok)
	assert.Equal(t, uint32(42), v)

	for _, bad := range []string{"CURRENT", "catalog-.bin", "catalog-abc.bin", "catalog-000000.bin", "catalog-1.txt"} {
		_, ok := ParseSnapshotName(bad)
		assert.False(t, ok, bad)
	}
}

func TestSaveLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := blobstore.NewMemoryStore()
	_, err := Save(t.Context(), store, newDB(t), WithLogger(logger), func(o *options) { o.now = func() time.Time { return fixed } })
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "catalog published")

	snap, err := Load(t.Context(), store, primitivedb.New(), WithLogger(logger))
	require.NoError(t, err)
	assert.True(t, fixed.Equal(snap.Created))
	assert.Contains(t, buf.String(), "catalog loaded")
}

func TestApplyRejectsUnnamed(t *testing.T) {
	err := Apply(primitivedb.New(), &Snapshot{Entries: []Entry{{Source: "x"}}})
	require.ErrorIs(t, err, ErrCorrupt)
	require.NotErrorIs(t, err, compute.ErrInvalidArgument)
}

func TestSaveCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Save(ctx, blobstore.NewMemoryStore(), primitivedb.New())
	require.ErrorIs(t, err, context.Canceled)
}
