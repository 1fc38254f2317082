package catalog

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/intel/clGPU/blobstore"
	"github.com/intel/clGPU/codec"
	"github.com/intel/clGPU/primitivedb"
)

// CurrentName is the pointer blob naming the latest snapshot.
const CurrentName = "CURRENT"

const (
	snapshotPrefix = "catalog-"
	snapshotSuffix = ".bin"
)

// SnapshotName returns the blob name of version v.
func SnapshotName(v uint32) string {
	return fmt.Sprintf("%s%06d%s", snapshotPrefix, v, snapshotSuffix)
}

// ParseSnapshotName extracts the version from a snapshot blob name.
func ParseSnapshotName(name string) (uint32, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	v, err := strconv.ParseUint(digits, 10, 32)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint32(v), true
}

type options struct {
	codec       codec.Codec
	compression Compression
	logger      *slog.Logger
	concurrency int
	now         func() time.Time
}

// Option configures catalog operations.
type Option func(*options)

// WithCodec sets the codec used by Save. Load reads the codec from the header.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the payload compression used by Save.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithConcurrency bounds the parallel header reads of Versions.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func applyOptions(opts []Option) options {
	o := options{
		codec:       codec.Default,
		compression: CompressionZstd,
		concurrency: 8,
		now:         time.Now,
	}
	for _, fn := range opts {
		fn(&o)
	}
	if o.codec == nil {
		o.codec = codec.Default
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}

// Capture builds a snapshot of every entry of db that carries source text.
func Capture(db *primitivedb.DB, version uint32) *Snapshot {
	s := &Snapshot{Version: version}
	for _, e := range db.Entries() {
		if e.Source == "" {
			continue
		}
		s.Entries = append(s.Entries, Entry{Module: e.Module, Name: e.Name, Source: e.Source})
	}
	return s
}

// Apply inserts the sources of s into db, overriding existing sources.
func Apply(db *primitivedb.DB, s *Snapshot) error {
	for _, e := range s.Entries {
		if err := db.SetSource(e.Module, e.Name, e.Source); err != nil {
			return fmt.Errorf("%w: entry %q: %v", ErrCorrupt, e.Name, err)
		}
	}
	return nil
}

// Save writes a new snapshot of db and moves CURRENT to it. It returns the
// new version.
func Save(ctx context.Context, store blobstore.BlobStore, db *primitivedb.DB, opts ...Option) (uint32, error) {
	o := applyOptions(opts)

	latest, err := latestVersion(ctx, store)
	if err != nil {
		return 0, err
	}
	snap := Capture(db, latest+1)
	snap.Created = o.now().UTC()

	data, err := Encode(snap, o.codec, o.compression)
	if err != nil {
		return 0, err
	}

	name := SnapshotName(snap.Version)
	if err := write(ctx, store, name, data); err != nil {
		return 0, fmt.Errorf("catalog: write %s: %w", name, err)
	}
	if err := store.Put(ctx, CurrentName, []byte(name)); err != nil {
		return 0, fmt.Errorf("catalog: commit %s: %w", name, err)
	}

	if o.logger != nil {
		o.logger.InfoContext(ctx, "catalog published",
			"version", snap.Version,
			"entries", len(snap.Entries),
			"bytes", len(data),
		)
	}
	return snap.Version, nil
}

func write(ctx context.Context, store blobstore.BlobStore, name string, data []byte) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Current returns the snapshot name CURRENT points to.
func Current(ctx context.Context, store blobstore.BlobStore) (string, error) {
	data, err := blobstore.ReadAll(ctx, store, CurrentName)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoSnapshot
		}
		return "", err
	}
	name := strings.TrimSpace(string(data))
	if _, ok := ParseSnapshotName(name); !ok {
		return "", fmt.Errorf("%w: CURRENT names %q", ErrCorrupt, name)
	}
	return name, nil
}

// Load reads the snapshot CURRENT points to and applies it to db.
func Load(ctx context.Context, store blobstore.BlobStore, db *primitivedb.DB, opts ...Option) (*Snapshot, error) {
	name, err := Current(ctx, store)
	if err != nil {
		return nil, err
	}
	return load(ctx, store, db, name, applyOptions(opts))
}

// LoadVersion applies snapshot v regardless of CURRENT.
func LoadVersion(ctx context.Context, store blobstore.BlobStore, db *primitivedb.DB, v uint32, opts ...Option) (*Snapshot, error) {
	return load(ctx, store, db, SnapshotName(v), applyOptions(opts))
}

func load(ctx context.Context, store blobstore.BlobStore, db *primitivedb.DB, name string, o options) (*Snapshot, error) {
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", name, err)
	}
	snap, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if v, _ := ParseSnapshotName(name); v != snap.Version {
		return nil, fmt.Errorf("%w: %s holds version %d", ErrCorrupt, name, snap.Version)
	}
	if err := Apply(db, snap); err != nil {
		return nil, err
	}

	if o.logger != nil {
		o.logger.InfoContext(ctx, "catalog loaded",
			"version", snap.Version,
			"entries", len(snap.Entries),
		)
	}
	return snap, nil
}

// Versions reads the headers of every stored snapshot, oldest first.
func Versions(ctx context.Context, store blobstore.BlobStore, opts ...Option) ([]Header, error) {
	o := applyOptions(opts)
	names, err := snapshotNames(ctx, store)
	if err != nil {
		return nil, err
	}

	headers := make([]Header, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, name := range names {
		g.Go(func() error {
			h, err := readHeader(gctx, store, name)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			headers[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return headers, nil
}

func readHeader(ctx context.Context, store blobstore.BlobStore, name string) (Header, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return Header{}, err
	}
	defer b.Close()

	buf := make([]byte, min(b.Size(), headerSize+255))
	n, err := b.ReadAt(ctx, buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return Header{}, err
	}
	return ReadHeader(buf[:n])
}

// Prune deletes all but the newest keep snapshots. The snapshot CURRENT
// points to is never deleted. It returns the deleted names.
func Prune(ctx context.Context, store blobstore.BlobStore, keep int) ([]string, error) {
	names, err := snapshotNames(ctx, store)
	if err != nil {
		return nil, err
	}
	current, err := Current(ctx, store)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}

	keep = max(keep, 0)
	if len(names) <= keep {
		return nil, nil
	}
	var deleted []string
	for _, name := range names[:len(names)-keep] {
		if name == current {
			continue
		}
		if err := store.Delete(ctx, name); err != nil {
			return deleted, err
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}

// snapshotNames returns the stored snapshot names ordered by version.
func snapshotNames(ctx context.Context, store blobstore.BlobStore) ([]string, error) {
	all, err := store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, name := range all {
		if _, ok := ParseSnapshotName(name); ok {
			names = append(names, name)
		}
	}
	slices.SortFunc(names, func(a, b string) int {
		va, _ := ParseSnapshotName(a)
		vb, _ := ParseSnapshotName(b)
		return cmp.Compare(va, vb)
	})
	return names, nil
}

func latestVersion(ctx context.Context, store blobstore.BlobStore) (uint32, error) {
	names, err := snapshotNames(ctx, store)
	if err != nil {
		return 0, err
	}
	var latest uint32
	if len(names) > 0 {
		latest, _ = ParseSnapshotName(names[len(names)-1])
	}

	current, err := Current(ctx, store)
	switch {
	case errors.Is(err, ErrNoSnapshot):
	case err != nil:
		return 0, err
	default:
		v, _ := ParseSnapshotName(current)
		latest = max(latest, v)
	}
	return latest, nil
}
