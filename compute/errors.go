package compute

import (
	"errors"
	"fmt"
)

var (
	// ErrAllocation is returned when a buffer request cannot be satisfied.
	ErrAllocation = errors.New("allocation failed")

	// ErrKernelNotFound is returned when no program matches a kernel name.
	ErrKernelNotFound = errors.New("kernel not found")

	// ErrArgumentBinding is returned when a kernel argument is missing or invalid.
	ErrArgumentBinding = errors.New("argument binding error")

	// ErrRangeMismatch is returned when a work partition does not fit its range.
	ErrRangeMismatch = errors.New("range mismatch")

	// ErrDirectionAlreadySet is returned when the direction of a defined binding is changed.
	ErrDirectionAlreadySet = errors.New("direction already set")

	// ErrCapacityExceeded is returned when a binding is resized beyond its capacity.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrUnimplemented is returned for capabilities the backend does not provide.
	ErrUnimplemented = errors.New("unimplemented")

	// ErrUnsupported is returned for configurations the backend refuses.
	ErrUnsupported = errors.New("unsupported")

	// ErrInvalidQueue is returned when a queue id is unknown to the engine.
	ErrInvalidQueue = errors.New("invalid command queue")

	// ErrWaitTimeout is returned by a bounded wait that expired before completion.
	// The command keeps running.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrEngineClosed is returned for submissions to a closed engine.
	ErrEngineClosed = errors.New("engine closed")

	// ErrDependencyFailed is reported by a command whose dependency failed.
	ErrDependencyFailed = errors.New("dependency failed")

	// ErrInvalidArgument is returned for malformed factory arguments.
	ErrInvalidArgument = errors.New("invalid argument")
)

// ArgumentError describes a kernel argument that cannot be bound or is missing.
type ArgumentError struct {
	Kernel string
	Index  int
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("kernel %q argument %d: %s", e.Kernel, e.Index, e.Reason)
}

func (e *ArgumentError) Unwrap() error { return ErrArgumentBinding }

// RangeError describes a work partition that is not legal for its range.
type RangeError struct {
	WorkSize     NDRange
	ParallelSize NDRange
	Reason       string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range mismatch: work %s, parallel %s: %s", e.WorkSize, e.ParallelSize, e.Reason)
}

func (e *RangeError) Unwrap() error { return ErrRangeMismatch }

// CapacityError is returned when a binding is resized beyond its capacity.
type CapacityError struct {
	Requested int
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("size %d exceeds capacity %d", e.Requested, e.Capacity)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// KernelNotFoundError names the kernel that could not be resolved.
type KernelNotFoundError struct {
	Module string
	Name   string
}

func (e *KernelNotFoundError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("kernel not found: %s", e.Name)
	}
	return fmt.Sprintf("kernel not found: %s/%s", e.Module, e.Name)
}

func (e *KernelNotFoundError) Unwrap() error { return ErrKernelNotFound }

// AllocationError describes a buffer request the backend refused.
//
// The original cause (if any) can be accessed via errors.Unwrap.
type AllocationError struct {
	Requested int64
	Limit     int64
	cause     error
}

// NewAllocationError returns an AllocationError wrapping cause.
func NewAllocationError(requested, limit int64, cause error) *AllocationError {
	return &AllocationError{Requested: requested, Limit: limit, cause: cause}
}

func (e *AllocationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("allocation of %d bytes failed (limit %d)", e.Requested, e.Limit)
	}
	return fmt.Sprintf("allocation of %d bytes failed", e.Requested)
}

func (e *AllocationError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrAllocation}
	}
	return []error{ErrAllocation, e.cause}
}

// UnsupportedError names a configuration the backend refuses to schedule.
type UnsupportedError struct {
	Feature string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported: %s", e.Feature)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupported }
