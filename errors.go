package clgpu

import (
	"errors"
	"fmt"

	"github.com/intel/clGPU/catalog"
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/primitivedb"
)

var (
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")

	// ErrNotFound is returned for missing kernels, primitives and catalogs.
	ErrNotFound = errors.New("not found")

	// ErrNoCatalogStore is returned by catalog operations when no store is configured.
	ErrNoCatalogStore = errors.New("no catalog store configured")

	// ErrCorruptCatalog is returned when a stored catalog fails validation.
	ErrCorruptCatalog = errors.New("corrupt catalog")

	// ErrUnsupported is returned when no implementation can serve a request.
	ErrUnsupported = compute.ErrUnsupported

	// ErrInvalidArgument is returned for malformed inputs.
	ErrInvalidArgument = compute.ErrInvalidArgument
)

// ErrWidthMismatch indicates a candidate matrix whose length is not a
// multiple of the query width.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrWidthMismatch struct {
	Width         int
	CandidatesLen int
	cause         error
}

func (e *ErrWidthMismatch) Error() string {
	return fmt.Sprintf("width mismatch: %d candidate values are not a multiple of query width %d", e.CandidatesLen, e.Width)
}

func (e *ErrWidthMismatch) Unwrap() error { return e.cause }

// ErrUnknownEngine indicates an EngineType this build cannot create.
type ErrUnknownEngine struct {
	Type EngineType
}

func (e *ErrUnknownEngine) Error() string {
	return fmt.Sprintf("unknown engine type: %d", int(e.Type))
}

func (e *ErrUnknownEngine) Unwrap() error { return compute.ErrUnsupported }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, compute.ErrKernelNotFound) ||
		errors.Is(err, primitivedb.ErrNotFound) ||
		errors.Is(err, catalog.ErrNoSnapshot) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if errors.Is(err, catalog.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorruptCatalog, err)
	}
	if errors.Is(err, compute.ErrEngineClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
