package clgpu

import (
	"log/slog"

	"github.com/intel/clGPU/blobstore"
	"github.com/intel/clGPU/catalog"
	"github.com/intel/clGPU/codec"
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/host"
)

type options struct {
	codec            codec.Codec
	compression      catalog.Compression
	catalogStore     blobstore.BlobStore
	loadCatalog      bool
	hostConfig       host.Config
	queue            compute.CommandQueue
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Open.
type Option func(*options)

// WithCodec sets the codec used for new catalog snapshots.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression sets the compression of new catalog snapshots.
func WithCompression(c catalog.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithCatalogStore sets the blobstore kernel catalogs are saved to. Open
// restores the current snapshot from it unless WithCatalogLoad(false) is
// given.
func WithCatalogStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.catalogStore = store
	}
}

// WithCatalogLoad controls whether Open restores the current catalog.
func WithCatalogLoad(enabled bool) Option {
	return func(o *options) {
		o.loadCatalog = enabled
	}
}

// WithHostConfig sets the limits of host engines.
//
// Example:
//
//	sess, _ := clgpu.Open(ctx, clgpu.WithHostConfig(host.Config{
//	    Queues:           2,
//	    MemoryLimitBytes: 256 << 20,
//	}))
func WithHostConfig(cfg host.Config) Option {
	return func(o *options) {
		o.hostConfig = cfg
	}
}

// WithQueue sets the queue the session's dispatchers submit to.
func WithQueue(q compute.CommandQueue) Option {
	return func(o *options) {
		o.queue = q
	}
}

// WithMetricsCollector configures a metrics collector.
// Pass nil to disable metrics collection.
//
//	metrics := &clgpu.BasicMetricsCollector{}
//	sess, _ := clgpu.Open(ctx, clgpu.WithMetricsCollector(metrics))
//	// ... use sess ...
//	stats := metrics.GetStats()
//	fmt.Printf("kernels: %d, avg latency: %dns\n", stats.KernelCount, stats.KernelAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      catalog.CompressionZstd,
		loadCatalog:      true,
		queue:            compute.DefaultQueue,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
