// Package host implements compute.Engine on the host CPU.
//
// Each command queue is an in-order lane served by one goroutine. A command
// starts when its dependencies and every earlier command of its lane have
// completed. Kernels run one goroutine per work-group, bounded by the
// configured worker count.
//
// Buffers are 64-byte aligned host allocations reserved against the memory
// limit of a resource.Controller. Bindings backed by host memory or by
// another engine are copied in before a kernel runs and copied out after it
// completes; copies are throttled by the controller's transfer limit.
package host
