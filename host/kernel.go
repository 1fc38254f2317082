package host

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/intel/clGPU/compute"
)

type kernelPlan struct {
	name   string
	fn     compute.KernelFunc
	args   []compute.Arg
	work   compute.NDRange
	local  compute.NDRange
	groups compute.NDRange
}

// plan checks a launch against the device limits and fixes its group size.
func (e *Engine) plan(l compute.KernelLaunch) (*kernelPlan, error) {
	work := l.Options.WorkSize
	if work.Dims() > MaxDimensions {
		return nil, &compute.UnsupportedError{Feature: fmt.Sprintf("%d-dimensional range (max %d)", work.Dims(), MaxDimensions)}
	}
	local := l.Options.ParallelSize.Clone()
	if local.Dims() == 0 {
		local = e.defaultLocal(work)
	}
	if local.Size() > e.cfg.MaxWorkGroupSize {
		return nil, &compute.UnsupportedError{Feature: fmt.Sprintf("work-group of %d items (max %d)", local.Size(), e.cfg.MaxWorkGroupSize)}
	}
	opts := compute.KernelOptions{WorkSize: work, ParallelSize: local}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &kernelPlan{
		name:   l.Program.Name,
		fn:     l.Program.Func,
		args:   l.Args,
		work:   work.Clone(),
		local:  local,
		groups: opts.Groups(),
	}, nil
}

// defaultLocal picks the largest divisor of the first extent not above
// DefaultGroupSize and a single item in the other dimensions.
func (e *Engine) defaultLocal(work compute.NDRange) compute.NDRange {
	local := make(compute.NDRange, work.Dims())
	for i := range local {
		local[i] = 1
	}
	for d := min(work[0], e.cfg.DefaultGroupSize); d >= 1; d-- {
		if work[0]%d == 0 {
			local[0] = d
			break
		}
	}
	return local
}

type copyBack struct {
	binding *compute.BufferBinding
	device  []byte
}

func (e *Engine) runKernel(p *kernelPlan) error {
	ctx := context.Background()

	args := make([]any, len(p.args))
	var outputs []copyBack
	var held []*compute.BufferBinding
	defer func() {
		for _, b := range held {
			b.ReleaseBuffer(e)
		}
	}()
	for i, a := range p.args {
		if !a.IsBuffer() {
			args[i] = a.Scalar
			continue
		}
		dev, out, err := e.stage(ctx, a.Binding)
		if err != nil {
			return fmt.Errorf("kernel %q argument %d: %w", p.name, i, err)
		}
		held = append(held, a.Binding)
		if out {
			outputs = append(outputs, copyBack{binding: a.Binding, device: dev})
		}
		args[i] = dev
	}

	total := p.groups.Size()
	g := new(errgroup.Group)
	g.SetLimit(e.rc.MaxWorkers())
	for idx := range total {
		gid := unflatten(idx, p.groups)
		g.Go(func() error {
			if err := e.rc.AcquireWorker(ctx); err != nil {
				return err
			}
			defer e.rc.ReleaseWorker()
			return runGroup(p, compute.NewWorkGroup(p.name, gid, p.groups, p.local, p.work, args))
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, o := range outputs {
		host := o.binding.HostBytes()
		if err := e.rc.AcquireTransfer(ctx, len(host)); err != nil {
			return err
		}
		n := copy(host, o.device)
		e.metrics.OnThroughput(TransferDeviceToHost, int64(n))
	}
	return nil
}

// stage returns the device view of b, copying input data in when the engine
// does not own the storage. out reports whether data must be copied back.
// On success the caller holds b's buffer until it calls ReleaseBuffer.
func (e *Engine) stage(ctx context.Context, b *compute.BufferBinding) (dev []byte, out bool, err error) {
	buf, err := b.AcquireBuffer(e)
	if err != nil {
		return nil, false, err
	}
	dev = buf.Bytes()[:b.Size()]
	if b.OwningEngine() == compute.Engine(e) {
		return dev, false, nil
	}
	dir := b.Direction()
	if dir.IsInput() {
		host := b.HostBytes()
		if err := e.rc.AcquireTransfer(ctx, len(host)); err != nil {
			b.ReleaseBuffer(e)
			return nil, false, err
		}
		n := copy(dev, host)
		e.metrics.OnThroughput(TransferHostToDevice, int64(n))
	}
	return dev, dir.IsOutput(), nil
}

func runGroup(p *kernelPlan, wg *compute.WorkGroup) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("kernel %q group %s panicked: %v", p.name, wg.GroupID, r)
		}
	}()
	return p.fn(wg)
}

// unflatten maps a linear group index to per-dimension ids, first dimension fastest.
func unflatten(idx int, groups compute.NDRange) compute.NDRange {
	id := make(compute.NDRange, groups.Dims())
	for d := range id {
		id[d] = idx % groups[d]
		idx /= groups[d]
	}
	return id
}
