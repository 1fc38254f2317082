package functions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/intel/clGPU/compute"
)

// Dispatcher routes function calls to the best implementation on one engine.
type Dispatcher struct {
	engine  compute.Engine
	queue   compute.CommandQueue
	builder *ScoreBuilderDotProduct
	logger  *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithQueue sets the queue commands are submitted to.
func WithQueue(q compute.CommandQueue) DispatcherOption {
	return func(d *Dispatcher) {
		d.queue = q
	}
}

// WithScoreBuilder sets the builder that ranks implementations.
func WithScoreBuilder(b *ScoreBuilderDotProduct) DispatcherOption {
	return func(d *Dispatcher) {
		d.builder = b
	}
}

// WithLogger sets the logger for the dispatcher.
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// NewDispatcher returns a dispatcher for e. A nil engine restricts dispatch
// to implementations that run on the host.
func NewDispatcher(e compute.Engine, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		engine:  e,
		queue:   compute.DefaultQueue,
		builder: &ScoreBuilderDotProduct{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Engine returns the engine implementations run on.
func (d *Dispatcher) Engine() compute.Engine { return d.engine }

// Queue returns the queue commands are submitted to.
func (d *Dispatcher) Queue() compute.CommandQueue { return d.queue }

// Select ranks the implementations of fn for params.
func Select[P any](ctx context.Context, d *Dispatcher, fn Function[P], params P) ([]Scored[P], error) {
	return SelectImplementations(ctx, fn, params, d.builder)
}

// Execute runs the best implementation of fn after deps. An implementation
// that refuses at run time with compute.ErrUnsupported hands over to the
// next one.
func Execute[P any](ctx context.Context, d *Dispatcher, fn Function[P], params P, deps ...compute.Event) (compute.Event, error) {
	ranked, err := Select(ctx, d, fn, params)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, s := range ranked {
		ev, err := runImpl(ctx, d, s.Impl, params, deps)
		if err == nil {
			if d.logger != nil {
				d.logger.Debug("function dispatched", "function", fn.Name, "impl", s.Impl.Name(), "score", s.Score)
			}
			return ev, nil
		}
		if !errors.Is(err, compute.ErrUnsupported) {
			return nil, fmt.Errorf("%s: %w", s.Impl.FullName(), err)
		}
		if d.logger != nil {
			d.logger.Debug("implementation refused", "function", fn.Name, "impl", s.Impl.Name(), "error", err)
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func runImpl[P any](ctx context.Context, d *Dispatcher, impl Impl[P], params P, deps []compute.Event) (compute.Event, error) {
	switch impl := impl.(type) {
	case ExecuteImpl[P]:
		return impl.Execute(ctx, d.engine, d.queue, params, deps)
	case CommandImpl[P]:
		if d.engine == nil {
			return nil, fmt.Errorf("%w: %s needs an engine", compute.ErrUnsupported, impl.FullName())
		}
		cmd, err := impl.Selected(d.engine, params)
		if err != nil {
			return nil, err
		}
		return cmd.Submit(d.queue, deps...)
	default:
		return nil, fmt.Errorf("%w: %s neither executes nor builds a command", compute.ErrUnimplemented, impl.FullName())
	}
}
