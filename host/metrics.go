package host

import "time"

// MetricsObserver receives engine activity.
type MetricsObserver interface {
	// OnKernel is called when a kernel completes.
	OnKernel(name string, duration time.Duration, groups int, err error)

	// OnMarker is called when a raise-event marker completes.
	OnMarker(duration time.Duration, err error)

	// OnAllocation is called for every buffer request.
	OnAllocation(bytes int64, err error)

	// OnQueueDepth reports the pending commands of a queue after a submission.
	OnQueueDepth(queue int, depth int)

	// OnThroughput reports bytes copied in a Transfer direction.
	OnThroughput(name string, bytes int64)
}

// NoopMetricsObserver is a no-op implementation of MetricsObserver.
type NoopMetricsObserver struct{}

func (NoopMetricsObserver) OnKernel(string, time.Duration, int, error) {}
func (NoopMetricsObserver) OnMarker(time.Duration, error)              {}
func (NoopMetricsObserver) OnAllocation(int64, error)                  {}
func (NoopMetricsObserver) OnQueueDepth(int, int)                      {}
func (NoopMetricsObserver) OnThroughput(string, int64)                 {}

// Transfer directions reported through OnThroughput.
const (
	TransferHostToDevice = "host_to_device"
	TransferDeviceToHost = "device_to_host"
)
