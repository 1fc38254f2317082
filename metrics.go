package clgpu

import (
	"sync/atomic"
	"time"

	"github.com/intel/clGPU/host"
)

// MetricsCollector receives runtime and pipeline activity.
// Implement it to integrate with monitoring systems like Prometheus.
//
//	type PrometheusCollector struct {
//	    kernels prometheus.Counter
//	}
//
//	func (p *PrometheusCollector) RecordKernel(name string, d time.Duration, err error) {
//	    p.kernels.Inc()
//	}
type MetricsCollector interface {
	// RecordKernel is called when a kernel command completes on an engine.
	RecordKernel(name string, duration time.Duration, err error)

	// RecordAllocation is called for every buffer request.
	RecordAllocation(bytes int64, err error)

	// RecordTransfer is called for host/device copies.
	// direction is "host_to_device" or "device_to_host".
	RecordTransfer(direction string, bytes int64)

	// RecordDispatch is called after a function ran through the dispatcher.
	RecordDispatch(function string, duration time.Duration, err error)

	// RecordSelect is called after a selection.
	RecordSelect(candidates, accepted int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordKernel(string, time.Duration, error)   {}
func (NoopMetricsCollector) RecordAllocation(int64, error)               {}
func (NoopMetricsCollector) RecordTransfer(string, int64)                {}
func (NoopMetricsCollector) RecordDispatch(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordSelect(int, int, time.Duration)        {}

// BasicMetricsCollector keeps in-memory counters.
type BasicMetricsCollector struct {
	KernelCount        atomic.Int64
	KernelErrors       atomic.Int64
	KernelTotalNanos   atomic.Int64
	AllocationCount    atomic.Int64
	AllocationErrors   atomic.Int64
	AllocatedBytes     atomic.Int64
	HostToDeviceBytes  atomic.Int64
	DeviceToHostBytes  atomic.Int64
	DispatchCount      atomic.Int64
	DispatchErrors     atomic.Int64
	DispatchTotalNanos atomic.Int64
	SelectCount        atomic.Int64
	SelectCandidates   atomic.Int64
	SelectAccepted     atomic.Int64
}

// RecordKernel implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKernel(_ string, duration time.Duration, err error) {
	b.KernelCount.Add(1)
	b.KernelTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.KernelErrors.Add(1)
	}
}

// RecordAllocation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAllocation(bytes int64, err error) {
	b.AllocationCount.Add(1)
	if err != nil {
		b.AllocationErrors.Add(1)
		return
	}
	b.AllocatedBytes.Add(bytes)
}

// RecordTransfer implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransfer(direction string, bytes int64) {
	switch direction {
	case host.TransferHostToDevice:
		b.HostToDeviceBytes.Add(bytes)
	case host.TransferDeviceToHost:
		b.DeviceToHostBytes.Add(bytes)
	}
}

// RecordDispatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDispatch(_ string, duration time.Duration, err error) {
	b.DispatchCount.Add(1)
	b.DispatchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DispatchErrors.Add(1)
	}
}

// RecordSelect implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSelect(candidates, accepted int, _ time.Duration) {
	b.SelectCount.Add(1)
	b.SelectCandidates.Add(int64(candidates))
	b.SelectAccepted.Add(int64(accepted))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		KernelCount:       b.KernelCount.Load(),
		KernelErrors:      b.KernelErrors.Load(),
		KernelAvgNanos:    avg(b.KernelTotalNanos.Load(), b.KernelCount.Load()),
		AllocationCount:   b.AllocationCount.Load(),
		AllocationErrors:  b.AllocationErrors.Load(),
		AllocatedBytes:    b.AllocatedBytes.Load(),
		HostToDeviceBytes: b.HostToDeviceBytes.Load(),
		DeviceToHostBytes: b.DeviceToHostBytes.Load(),
		DispatchCount:     b.DispatchCount.Load(),
		DispatchErrors:    b.DispatchErrors.Load(),
		DispatchAvgNanos:  avg(b.DispatchTotalNanos.Load(), b.DispatchCount.Load()),
		SelectCount:       b.SelectCount.Load(),
		SelectCandidates:  b.SelectCandidates.Load(),
		SelectAccepted:    b.SelectAccepted.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	KernelCount       int64
	KernelErrors      int64
	KernelAvgNanos    int64
	AllocationCount   int64
	AllocationErrors  int64
	AllocatedBytes    int64
	HostToDeviceBytes int64
	DeviceToHostBytes int64
	DispatchCount     int64
	DispatchErrors    int64
	DispatchAvgNanos  int64
	SelectCount       int64
	SelectCandidates  int64
	SelectAccepted    int64
}

// engineObserver forwards host engine events to a MetricsCollector.
type engineObserver struct {
	host.NoopMetricsObserver
	mc MetricsCollector
}

func (o engineObserver) OnKernel(name string, duration time.Duration, _ int, err error) {
	o.mc.RecordKernel(name, duration, err)
}

func (o engineObserver) OnAllocation(bytes int64, err error) {
	o.mc.RecordAllocation(bytes, err)
}

func (o engineObserver) OnThroughput(direction string, bytes int64) {
	o.mc.RecordTransfer(direction, bytes)
}
