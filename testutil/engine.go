package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intel/clGPU/host"
	"github.com/intel/clGPU/kernels"
	"github.com/intel/clGPU/primitivedb"
)

// NewEngine returns a host engine serving the builtin kernels. The engine is
// closed when the test ends.
func NewEngine(t testing.TB, opts ...host.Option) *host.Engine {
	t.Helper()
	db := primitivedb.New()
	require.NoError(t, kernels.Register(db))
	e, err := host.New(db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}
