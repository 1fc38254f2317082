package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// RequireClose fails the test unless every got[i] is Close to want[i].
func RequireClose(t testing.TB, want []float64, got []float32, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.Truef(t, Close(want[i], got[i], tol), "element %d: want %g, got %g", i, want[i], got[i])
	}
}
