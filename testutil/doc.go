// Package testutil provides testing utilities for clGPU.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded random inputs, float64 reference results and a host
// engine preloaded with the builtin kernels.
//
// # Random Inputs
//
//	rng := testutil.NewRNG(seed)
//	x := rng.UniformRange(256)        // uniform [-1, 1)
//	m := rng.Matrix(rows, cols)       // row-major, uniform [-1, 1)
//
// # Reference Results
//
//	want := testutil.ReferenceScores(query, candidates, width)
//	testutil.RequireClose(t, want, got, testutil.Tolerance)
package testutil
