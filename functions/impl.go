package functions

import (
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/intel/clGPU/compute"
)

// Impl is one implementation of a function taking parameters P.
type Impl[P any] interface {
	// Name identifies the implementation within its function.
	Name() string

	// FullName is the function and implementation name.
	FullName() string

	// Accept reports whether the implementation supports params and may
	// adjust score to rank itself.
	Accept(params P, score *FunctionScore) bool
}

// ExecuteImpl runs directly and returns the event of its last step.
type ExecuteImpl[P any] interface {
	Impl[P]
	Execute(ctx context.Context, e compute.Engine, queue compute.CommandQueue, params P, deps []compute.Event) (compute.Event, error)
}

// CommandImpl builds a command that the caller submits.
type CommandImpl[P any] interface {
	Impl[P]
	Selected(e compute.Engine, params P) (compute.Command, error)
}

// Function groups the implementations of one operation.
type Function[P any] struct {
	Name string

	// ScoreWidth is the number of score channels, one per parameter.
	ScoreWidth int

	Impls []Impl[P]
}

// Scored pairs an implementation with its computed score.
type Scored[P any] struct {
	Score float32
	Impl  Impl[P]
}

// SelectImplementations asks every implementation of fn to accept params
// and returns those that did, best first. Ties keep registration order.
func SelectImplementations[P any](ctx context.Context, fn Function[P], params P, builder *ScoreBuilderDotProduct) ([]Scored[P], error) {
	if len(fn.Impls) == 0 {
		return nil, fmt.Errorf("%w: function %s has no implementations", compute.ErrUnimplemented, fn.Name)
	}

	accepted := make([]bool, len(fn.Impls))
	scores := make([]float32, len(fn.Impls))
	g, ctx := errgroup.WithContext(ctx)
	for i, impl := range fn.Impls {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			score := NewFunctionScore(fn.ScoreWidth)
			if impl.Accept(params, score) {
				accepted[i] = true
				scores[i] = builder.CalculateScoreValue(score)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []Scored[P]
	for i, impl := range fn.Impls {
		if accepted[i] {
			result = append(result, Scored[P]{Score: scores[i], Impl: impl})
		}
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%w: function %s parameters are not supported", compute.ErrUnsupported, fn.Name)
	}
	slices.SortStableFunc(result, func(a, b Scored[P]) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return result, nil
}
