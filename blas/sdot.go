package blas

import (
	"context"
	"fmt"

	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/functions"
	"github.com/intel/clGPU/internal/simd"
	"github.com/intel/clGPU/kernels"
)

// Score channels of Sdot, one per parameter.
const (
	sdotChannelN = iota
	sdotChannelX
	sdotChannelIncX
	sdotChannelY
	sdotChannelIncY
	sdotChannelResult
	sdotChannels
)

// Two-stage reduction shape: TwoStageGroups partial sums of TwoStageGroupSize
// work items each.
const (
	TwoStageGroups    = 16
	TwoStageGroupSize = 256
	TwoStageMinN      = 256
)

// SdotParams are the arguments of result = sum x[i*incx] * y[i*incy].
type SdotParams struct {
	N      int
	X      compute.Blob[float32, compute.In]
	IncX   int
	Y      compute.Blob[float32, compute.In]
	IncY   int
	Result compute.Blob[float32, compute.Out]
}

// NewSdotParams wraps host slices.
func NewSdotParams(n int, x []float32, incx int, y []float32, incy int, result []float32) SdotParams {
	return SdotParams{
		N:      n,
		X:      compute.NewBlob[float32, compute.In](x),
		IncX:   incx,
		Y:      compute.NewBlob[float32, compute.In](y),
		IncY:   incy,
		Result: compute.NewBlob[float32, compute.Out](result),
	}
}

// Validate checks strides and that the blobs cover n strided elements.
func (p SdotParams) Validate() error {
	if p.IncX == 0 || p.IncY == 0 {
		return fmt.Errorf("%w: zero stride", compute.ErrInvalidArgument)
	}
	if p.Result.Binding() == nil || p.Result.Binding().Capacity() < 4 {
		return fmt.Errorf("%w: result holds no element", compute.ErrInvalidArgument)
	}
	if p.N <= 0 {
		return nil
	}
	if p.X.Binding() == nil || p.X.Binding().Capacity() < span(p.N, p.IncX)*4 {
		return fmt.Errorf("%w: x holds fewer than %d elements", compute.ErrInvalidArgument, span(p.N, p.IncX))
	}
	if p.Y.Binding() == nil || p.Y.Binding().Capacity() < span(p.N, p.IncY)*4 {
		return fmt.Errorf("%w: y holds fewer than %d elements", compute.ErrInvalidArgument, span(p.N, p.IncY))
	}
	return nil
}

func span(n, inc int) int {
	if inc < 0 {
		inc = -inc
	}
	return (n-1)*inc + 1
}

// Sdot returns the single precision dot product function.
func Sdot() functions.Function[SdotParams] {
	return functions.Function[SdotParams]{
		Name:       "Sdot",
		ScoreWidth: sdotChannels,
		Impls: []functions.Impl[SdotParams]{
			sdotNaive{},
			sdotTwoStage{},
			sdotHost{},
		},
	}
}

// bindSdot binds the common arguments of the sdot kernels; out is bound as
// the last argument.
func bindSdot(k *compute.KernelCommand, p SdotParams, out *compute.BufferBinding) error {
	x, err := compute.InputBinding(p.X, span(p.N, p.IncX))
	if err != nil {
		return err
	}
	y, err := compute.InputBinding(p.Y, span(p.N, p.IncY))
	if err != nil {
		return err
	}
	for i, v := range []any{p.N, x, p.IncX, y, p.IncY, out} {
		if err := k.SetArg(i, v); err != nil {
			return err
		}
	}
	return nil
}

type sdotNaive struct{}

func (sdotNaive) Name() string     { return "naive" }
func (sdotNaive) FullName() string { return "Sdot/naive" }

func (sdotNaive) Accept(p SdotParams, _ *functions.FunctionScore) bool {
	return p.N > 0 && p.Validate() == nil
}

func (sdotNaive) Selected(e compute.Engine, p SdotParams) (compute.Command, error) {
	k, err := e.GetKernel(kernels.SdotNaive, compute.WithOptions(compute.KernelOptions{WorkSize: compute.Range(1)}))
	if err != nil {
		return nil, err
	}
	result, err := compute.OutputBinding(p.Result, 1)
	if err != nil {
		return nil, err
	}
	if err := bindSdot(k, p, result); err != nil {
		return nil, err
	}
	return k, nil
}

// sdotTwoStage reduces into TwoStageGroups partial sums held in a temp
// buffer and sums them with a second kernel.
type sdotTwoStage struct{}

func (sdotTwoStage) Name() string     { return "two_stage" }
func (sdotTwoStage) FullName() string { return "Sdot/two_stage" }

func (sdotTwoStage) Accept(p SdotParams, score *functions.FunctionScore) bool {
	if p.N < TwoStageMinN || p.Validate() != nil {
		return false
	}
	score.Add(sdotChannelN, 6)
	return true
}

func (sdotTwoStage) Execute(_ context.Context, e compute.Engine, queue compute.CommandQueue, p SdotParams, deps []compute.Event) (compute.Event, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: Sdot/two_stage needs an engine", compute.ErrUnsupported)
	}
	partial, err := compute.TempBufferOf[float32](e, TwoStageGroups)
	if err != nil {
		return nil, err
	}
	ev, err := submitTwoStage(e, queue, p, partial, deps)
	if err != nil {
		e.ReleaseTemp(partial)
		return nil, err
	}
	e.ReleaseTemp(partial, ev)
	return ev, nil
}

func submitTwoStage(e compute.Engine, queue compute.CommandQueue, p SdotParams, partial *compute.BufferBinding, deps []compute.Event) (compute.Event, error) {
	if _, err := partial.SetDirection(compute.DirectionInOut); err != nil {
		return nil, err
	}

	stage1, err := e.GetKernel(kernels.SdotPartial, compute.WithOptions(compute.KernelOptions{
		WorkSize:     compute.Range(TwoStageGroups * TwoStageGroupSize),
		ParallelSize: compute.Range(TwoStageGroupSize),
	}))
	if err != nil {
		return nil, err
	}
	if err := bindSdot(stage1, p, partial); err != nil {
		return nil, err
	}

	stage2, err := e.GetKernel(kernels.SumReduce, compute.WithOptions(compute.KernelOptions{
		WorkSize:     compute.Range(TwoStageGroups),
		ParallelSize: compute.Range(TwoStageGroups),
	}))
	if err != nil {
		return nil, err
	}
	result, err := compute.OutputBinding(p.Result, 1)
	if err != nil {
		return nil, err
	}
	for i, v := range []any{TwoStageGroups, partial, result} {
		if err := stage2.SetArg(i, v); err != nil {
			return nil, err
		}
	}

	return e.CommandsSequence(stage1, stage2).Submit(queue, deps...)
}

// sdotHost computes on the calling goroutine. It ranks below the device
// implementations and is the only one accepting n <= 0.
type sdotHost struct{}

func (sdotHost) Name() string     { return "host" }
func (sdotHost) FullName() string { return "Sdot/host" }

func (sdotHost) Accept(p SdotParams, score *functions.FunctionScore) bool {
	if p.Validate() != nil {
		return false
	}
	score.Set(sdotChannelX, 0)
	score.Set(sdotChannelY, 0)
	return true
}

func (sdotHost) Execute(ctx context.Context, e compute.Engine, _ compute.CommandQueue, p SdotParams, deps []compute.Event) (compute.Event, error) {
	if err := compute.WaitAll(ctx, deps...); err != nil {
		return nil, err
	}
	out := p.Result.Data()
	if p.N <= 0 {
		out[0] = 0
	} else {
		out[0] = simd.DotStrided(p.N, p.X.Data(), p.IncX, p.Y.Data(), p.IncY)
	}
	ev := compute.NewCompletion(e)
	ev.Complete(nil)
	return ev, nil
}
