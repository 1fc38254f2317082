package host

import (
	"log/slog"
	"runtime"

	"github.com/intel/clGPU/internal/resource"
)

// Device limits.
const (
	MaxDimensions           = 3
	DefaultMaxWorkGroupSize = 1024
	DefaultGroupSize        = 64
)

// Config holds engine limits. Zero values select defaults.
type Config struct {
	// Queues is the number of command queues. Default 1.
	Queues int

	// Workers bounds concurrently executing work-groups. Default GOMAXPROCS.
	Workers int

	// MemoryLimitBytes caps buffer memory. Default unlimited.
	MemoryLimitBytes int64

	// TransferBytesPerSec caps host/device copies. Default unlimited.
	TransferBytesPerSec int64

	// MaxWorkGroupSize caps the work items of one group. Default 1024.
	MaxWorkGroupSize int

	// DefaultGroupSize bounds the first dimension of engine-chosen groups. Default 64.
	DefaultGroupSize int
}

func (c Config) withDefaults() Config {
	if c.Queues <= 0 {
		c.Queues = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.MaxWorkGroupSize <= 0 {
		c.MaxWorkGroupSize = DefaultMaxWorkGroupSize
	}
	if c.DefaultGroupSize <= 0 {
		c.DefaultGroupSize = DefaultGroupSize
	}
	return c
}

// Option defines a configuration option for the Engine.
type Option func(*Engine)

// WithConfig sets the engine limits.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithQueues sets the number of command queues.
func WithQueues(n int) Option {
	return func(e *Engine) {
		e.cfg.Queues = n
	}
}

// WithWorkers bounds concurrently executing work-groups.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.cfg.Workers = n
	}
}

// WithMemoryLimit sets the memory limit for the engine in bytes.
// If set to 0, memory is unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(e *Engine) {
		e.cfg.MemoryLimitBytes = bytes
	}
}

// WithResourceController shares rc with the engine. It takes precedence
// over the limits in Config.
func WithResourceController(rc *resource.Controller) Option {
	return func(e *Engine) {
		e.rc = rc
	}
}

// WithLogger sets the logger for the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetricsObserver sets the metrics observer for the engine.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(e *Engine) {
		e.metrics = observer
	}
}

// WithName sets the device name reported by Info.
func WithName(name string) Option {
	return func(e *Engine) {
		e.name = name
	}
}
