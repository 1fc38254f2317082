// Package resource governs the resources an engine hands out.
//
// A Controller tracks three things:
//
//   - Memory: buffer allocations are reserved against a hard limit. Reservation
//     is non-blocking and fails with ErrMemoryLimitExceeded.
//   - Workers: the number of work-groups executing at the same time.
//   - Transfers: a token bucket limiting host/device copy throughput.
//
// All methods are safe on a nil *Controller, which imposes no limits:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:    256 << 20,
//	    MaxWorkers:          8,
//	    TransferBytesPerSec: 1 << 30,
//	})
//
//	if err := rc.AcquireMemory(size); err != nil {
//	    return err
//	}
//	defer rc.ReleaseMemory(size)
package resource
