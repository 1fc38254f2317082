package functions

import (
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/internal/simd"
	"github.com/intel/clGPU/kernels"
)

// ScoreFunction computes score[i] = dot(query, candidate[i]). Concrete
// functions implement exactly one of DeviceScoreFunction or HostScoreFunction.
type ScoreFunction interface {
	Name() string
}

// DeviceScoreFunction builds a command that computes the scores on an engine.
type DeviceScoreFunction interface {
	ScoreFunction
	Command(e compute.Engine, args ScoreArgs) (compute.Command, error)
}

// HostScoreFunction computes the scores synchronously on the calling goroutine.
type HostScoreFunction interface {
	ScoreFunction
	Execute(args ScoreArgs) error
}

// DotProductKernel runs the score_dot_product kernel, one work item per
// candidate.
type DotProductKernel struct {
	// Module selects the primitive module. Empty means the builtin one.
	Module string

	// GroupSize sets the work-group size. Zero lets the engine choose.
	GroupSize int
}

var _ DeviceScoreFunction = DotProductKernel{}

// Name implements ScoreFunction.
func (DotProductKernel) Name() string { return kernels.ScoreDotProduct }

// Command implements DeviceScoreFunction.
func (f DotProductKernel) Command(e compute.Engine, args ScoreArgs) (compute.Command, error) {
	if err := args.Validate(); err != nil {
		return nil, err
	}
	opts := compute.KernelOptions{WorkSize: compute.Range(args.Count)}
	if f.GroupSize > 0 {
		opts.ParallelSize = compute.Range(f.GroupSize)
	}
	k, err := e.GetKernel(kernels.ScoreDotProduct, compute.InModule(f.Module), compute.WithOptions(opts))
	if err != nil {
		return nil, err
	}

	query, err := compute.InputBinding(args.Query, args.Width)
	if err != nil {
		return nil, err
	}
	cands, err := compute.InputBinding(args.Candidates, args.Width*args.Count)
	if err != nil {
		return nil, err
	}
	scores, err := compute.OutputBinding(args.Scores, args.Count)
	if err != nil {
		return nil, err
	}

	for _, arg := range []struct {
		name string
		v    any
	}{
		{"width", args.Width},
		{"count", args.Count},
		{"query", query},
		{"candidates", cands},
		{"scores", scores},
	} {
		if err := k.SetNamedArg(arg.name, arg.v); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// DotProductHost computes the scores with the host SIMD kernels.
type DotProductHost struct{}

var _ HostScoreFunction = DotProductHost{}

// Name implements ScoreFunction.
func (DotProductHost) Name() string { return "score_dot_product_host" }

// Execute implements HostScoreFunction.
func (DotProductHost) Execute(args ScoreArgs) error {
	if err := args.Validate(); err != nil {
		return err
	}
	query := args.Query.Data()[:args.Width]
	cands := args.Candidates.Data()[:args.Width*args.Count]
	out := args.Scores.Data()[:args.Count]
	simd.DotBatch(query, cands, args.Width, out)
	return nil
}
