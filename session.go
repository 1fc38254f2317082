package clgpu

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/intel/clGPU/blas"
	"github.com/intel/clGPU/catalog"
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/functions"
	"github.com/intel/clGPU/host"
	"github.com/intel/clGPU/kernels"
	"github.com/intel/clGPU/primitivedb"
)

// EngineType selects an engine implementation.
type EngineType int

const (
	// EngineDefault is the best engine available in this build.
	EngineDefault EngineType = iota
	// EngineHost runs kernels on the host CPU.
	EngineHost
)

func (t EngineType) String() string {
	switch t {
	case EngineDefault:
		return "default"
	case EngineHost:
		return "host"
	default:
		return fmt.Sprintf("engine(%d)", int(t))
	}
}

// Session owns the kernel registry and the engines created from it.
// It is safe for concurrent use.
type Session struct {
	opts options
	db   *primitivedb.DB

	mu          sync.Mutex
	engines     map[EngineType]*host.Engine
	dispatchers map[EngineType]*functions.Dispatcher
	closed      bool
}

// Open creates a session with the builtin kernels registered. With a
// catalog store configured, the current snapshot is applied on top.
func Open(ctx context.Context, optFns ...Option) (*Session, error) {
	o := applyOptions(optFns)

	db := primitivedb.New()
	if err := kernels.Register(db); err != nil {
		return nil, err
	}

	s := &Session{
		opts:        o,
		db:          db,
		engines:     make(map[EngineType]*host.Engine),
		dispatchers: make(map[EngineType]*functions.Dispatcher),
	}

	if o.catalogStore != nil && o.loadCatalog {
		if _, err := s.LoadCatalog(ctx); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}
	return s, nil
}

// PrimitiveDB returns the kernel registry shared by every engine.
func (s *Session) PrimitiveDB() *primitivedb.DB { return s.db }

// Logger returns the session logger.
func (s *Session) Logger() *Logger { return s.opts.logger }

func resolve(t EngineType) (EngineType, error) {
	switch t {
	case EngineDefault, EngineHost:
		return EngineHost, nil
	default:
		return t, &ErrUnknownEngine{Type: t}
	}
}

// Engine returns the engine of type t, creating it on first use.
func (s *Session) Engine(t EngineType) (compute.Engine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.engineLocked(t)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Session) engineLocked(t EngineType) (*host.Engine, error) {
	if s.closed {
		return nil, ErrClosed
	}
	key, err := resolve(t)
	if err != nil {
		return nil, err
	}
	if e, ok := s.engines[key]; ok {
		return e, nil
	}

	e, err := host.New(s.db,
		host.WithConfig(s.opts.hostConfig),
		host.WithName(key.String()),
		host.WithLogger(s.opts.logger.WithEngine(key.String()).Logger),
		host.WithMetricsObserver(engineObserver{mc: s.opts.metricsCollector}),
	)
	s.opts.logger.LogEngine(context.Background(), key, err)
	if err != nil {
		return nil, err
	}
	s.engines[key] = e
	return e, nil
}

// Dispatcher returns the function dispatcher bound to the engine of type t.
func (s *Session) Dispatcher(t EngineType) (*functions.Dispatcher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.engineLocked(t)
	if err != nil {
		return nil, err
	}
	key, _ := resolve(t)
	if d, ok := s.dispatchers[key]; ok {
		return d, nil
	}
	d := functions.NewDispatcher(e,
		functions.WithQueue(s.opts.queue),
		functions.WithLogger(s.opts.logger.WithQueue(s.opts.queue).Logger),
	)
	s.dispatchers[key] = d
	return d, nil
}

func scoreArgs(query, candidates []float32) (functions.ScoreArgs, error) {
	if len(query) == 0 {
		return functions.ScoreArgs{}, fmt.Errorf("%w: empty query", ErrInvalidArgument)
	}
	if len(candidates)%len(query) != 0 {
		return functions.ScoreArgs{}, &ErrWidthMismatch{Width: len(query), CandidatesLen: len(candidates), cause: ErrInvalidArgument}
	}
	scores := make([]float32, len(candidates)/len(query))
	return functions.NewScoreArgs(query, candidates, scores)
}

// Score returns the dot product of query with every row of candidates,
// a row-major matrix of len(query)-wide rows.
func (s *Session) Score(ctx context.Context, query, candidates []float32) ([]float32, error) {
	if len(query) > 0 && len(candidates) == 0 {
		return []float32{}, nil
	}
	args, err := scoreArgs(query, candidates)
	if err != nil {
		return nil, err
	}
	d, err := s.Dispatcher(EngineDefault)
	if err != nil {
		return nil, translateError(err)
	}

	fn := functions.DotProduct()
	start := time.Now()
	err = run(ctx, d, fn, args)
	s.opts.metricsCollector.RecordDispatch(fn.Name, time.Since(start), err)
	s.opts.logger.LogDispatch(ctx, fn.Name, args.Count, err)
	if err != nil {
		return nil, translateError(err)
	}
	return args.Scores.Data(), nil
}

func run[P any](ctx context.Context, d *functions.Dispatcher, fn functions.Function[P], params P) error {
	ev, err := functions.Execute(ctx, d, fn, params)
	if err != nil {
		return err
	}
	_, err = ev.WaitContext(ctx)
	return err
}

// Select scores candidates against query on the device and admits those
// passing threshold under policy. No candidates yields an empty Selection.
func (s *Session) Select(ctx context.Context, query, candidates []float32, threshold float32, policy functions.Policy) (functions.Selection, error) {
	selector := functions.NewSelectorAccept(functions.NewScoreBuilderDotProduct(functions.DotProductKernel{}), threshold)
	selector.Policy = policy
	if len(query) > 0 && len(candidates) == 0 {
		return selector.Apply(nil), nil
	}

	args, err := scoreArgs(query, candidates)
	if err != nil {
		return functions.Selection{}, err
	}
	e, err := s.Engine(EngineDefault)
	if err != nil {
		return functions.Selection{}, translateError(err)
	}

	start := time.Now()
	sel, err := selector.Select(ctx, e, s.opts.queue, args)
	accepted := 0
	if err == nil {
		accepted = int(sel.Accepted.GetCardinality())
	}
	s.opts.metricsCollector.RecordSelect(args.Count, accepted, time.Since(start))
	s.opts.logger.LogSelect(ctx, args.Count, accepted, err)
	if err != nil {
		return functions.Selection{}, translateError(err)
	}
	return sel, nil
}

// Sdot returns sum x[i*incx] * y[i*incy] for i < n. Negative strides walk
// the vectors backwards.
func (s *Session) Sdot(ctx context.Context, n int, x []float32, incx int, y []float32, incy int) (float32, error) {
	result := make([]float32, 1)
	params := blas.NewSdotParams(n, x, incx, y, incy, result)
	if err := params.Validate(); err != nil {
		return 0, err
	}
	d, err := s.Dispatcher(EngineDefault)
	if err != nil {
		return 0, translateError(err)
	}

	fn := blas.Sdot()
	start := time.Now()
	err = run(ctx, d, fn, params)
	s.opts.metricsCollector.RecordDispatch(fn.Name, time.Since(start), err)
	s.opts.logger.LogDispatch(ctx, fn.Name, n, err)
	if err != nil {
		return 0, translateError(err)
	}
	return params.Result.Data()[0], nil
}

// SaveCatalog persists the kernel sources to the catalog store and returns
// the new version.
func (s *Session) SaveCatalog(ctx context.Context) (uint32, error) {
	if s.opts.catalogStore == nil {
		return 0, ErrNoCatalogStore
	}
	version, err := catalog.Save(ctx, s.opts.catalogStore, s.db,
		catalog.WithCodec(s.opts.codec),
		catalog.WithCompression(s.opts.compression),
	)
	s.opts.logger.LogCatalog(ctx, "saved", version, err)
	return version, translateError(err)
}

// LoadCatalog applies the current snapshot of the catalog store and
// returns its version.
func (s *Session) LoadCatalog(ctx context.Context) (uint32, error) {
	if s.opts.catalogStore == nil {
		return 0, ErrNoCatalogStore
	}
	snap, err := catalog.Load(ctx, s.opts.catalogStore, s.db)
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrNotFound) {
			s.opts.logger.LogCatalog(ctx, "loaded", 0, err)
		}
		return 0, err
	}
	s.opts.logger.LogCatalog(ctx, "loaded", snap.Version, nil)
	return snap.Version, nil
}

// Close closes every engine. Pending commands are drained first.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, key := range slices.Sorted(maps.Keys(s.engines)) {
		if err := s.engines[key].Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	clear(s.engines)
	clear(s.dispatchers)
	return errors.Join(errs...)
}
