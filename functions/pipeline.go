package functions

import (
	"context"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/kernels"
)

// Score channels of the dot-product scoring function.
const (
	ScoreChannelWidth = iota
	ScoreChannelCount
	ScoreChannelQuery
	ScoreChannelCandidates
	ScoreChannelScores
	scoreChannels
)

// DotProduct returns the dot-product scoring function with a device and a
// host implementation. The device one ranks higher and the host one takes
// over when no engine is available.
func DotProduct() Function[ScoreArgs] {
	return Function[ScoreArgs]{
		Name:       kernels.ScoreDotProduct,
		ScoreWidth: scoreChannels,
		Impls: []Impl[ScoreArgs]{
			dotProductDevice{},
			dotProductHost{},
		},
	}
}

type dotProductDevice struct {
	fn DotProductKernel
}

func (dotProductDevice) Name() string     { return "kernel" }
func (dotProductDevice) FullName() string { return kernels.ScoreDotProduct + "/kernel" }

func (dotProductDevice) Accept(args ScoreArgs, score *FunctionScore) bool {
	if args.Validate() != nil {
		return false
	}
	score.Add(ScoreChannelCandidates, 1)
	return true
}

func (i dotProductDevice) Selected(e compute.Engine, args ScoreArgs) (compute.Command, error) {
	return i.fn.Command(e, args)
}

type dotProductHost struct {
	fn DotProductHost
}

func (dotProductHost) Name() string     { return "host" }
func (dotProductHost) FullName() string { return kernels.ScoreDotProduct + "/host" }

func (dotProductHost) Accept(args ScoreArgs, _ *FunctionScore) bool {
	return args.Validate() == nil
}

func (i dotProductHost) Execute(ctx context.Context, e compute.Engine, _ compute.CommandQueue, args ScoreArgs, deps []compute.Event) (compute.Event, error) {
	if err := compute.WaitAll(ctx, deps...); err != nil {
		return nil, err
	}
	ev := compute.NewCompletion(e)
	ev.Complete(i.fn.Execute(args))
	return ev, nil
}
