package functions

import (
	"context"
	"fmt"

	"github.com/intel/clGPU/compute"
)

// Computation is the result of ScoreBuilderDotProduct.Compute. A device
// computation carries a Command that still has to be submitted. A host
// computation is already complete and Done reports true.
type Computation struct {
	Command compute.Command
	args    ScoreArgs
}

// OnDevice reports whether the scores are produced by Command.
func (c Computation) OnDevice() bool { return c.Command != nil }

// Done reports whether the scores can be read without submitting anything.
func (c Computation) Done() bool { return c.Command == nil }

// Scores returns the score vector. For device computations the event of the
// submitted command must be waited on first.
func (c Computation) Scores() []float32 {
	return c.args.Scores.Data()[:c.args.Count]
}

// ScoreBuilderDotProduct computes dot-product scores of candidates against a
// query with Func, and reduces FunctionScore vectors to a scalar with Bias.
type ScoreBuilderDotProduct struct {
	Func ScoreFunction

	// Bias weighs the channels in CalculateScoreValue. Nil weighs every
	// channel with 1.0.
	Bias *FunctionScore
}

// NewScoreBuilderDotProduct returns a builder computing with fn.
func NewScoreBuilderDotProduct(fn ScoreFunction) *ScoreBuilderDotProduct {
	return &ScoreBuilderDotProduct{Func: fn}
}

// Compute prepares the scores of args. A host function runs immediately; a
// device function returns the command to submit.
func (b *ScoreBuilderDotProduct) Compute(e compute.Engine, args ScoreArgs) (Computation, error) {
	switch fn := b.Func.(type) {
	case DeviceScoreFunction:
		if e == nil {
			return Computation{}, fmt.Errorf("%w: %s needs an engine", compute.ErrUnsupported, fn.Name())
		}
		cmd, err := fn.Command(e, args)
		if err != nil {
			return Computation{}, err
		}
		return Computation{Command: cmd, args: args}, nil
	case HostScoreFunction:
		if err := fn.Execute(args); err != nil {
			return Computation{}, err
		}
		return Computation{args: args}, nil
	case nil:
		return Computation{}, fmt.Errorf("%w: no score function", compute.ErrInvalidArgument)
	default:
		return Computation{}, fmt.Errorf("%w: score function %s is neither device nor host", compute.ErrUnimplemented, fn.Name())
	}
}

// Run computes the scores after deps and waits for them. Waiting honours ctx
// but never cancels a submitted command.
func (b *ScoreBuilderDotProduct) Run(ctx context.Context, e compute.Engine, queue compute.CommandQueue, args ScoreArgs, deps ...compute.Event) ([]float32, error) {
	if _, ok := b.Func.(HostScoreFunction); ok {
		if err := compute.WaitAll(ctx, deps...); err != nil {
			return nil, err
		}
	}
	c, err := b.Compute(e, args)
	if err != nil {
		return nil, err
	}
	if c.OnDevice() {
		ev, err := c.Command.Submit(queue, deps...)
		if err != nil {
			return nil, err
		}
		if _, err := ev.WaitContext(ctx); err != nil {
			return nil, err
		}
	}
	return c.Scores(), nil
}

// CalculateScoreValue reduces score to dot(bias, score). Channels beyond the
// bias width are weighed with 1.0.
func (b *ScoreBuilderDotProduct) CalculateScoreValue(score *FunctionScore) float32 {
	if score == nil {
		return 0
	}
	var total float32
	for i, v := range score.values {
		w := float32(1)
		if b != nil && b.Bias != nil && i < b.Bias.Width() {
			w = b.Bias.Get(i)
		}
		total += w * v
	}
	return total
}
