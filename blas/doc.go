// Package blas implements BLAS level 1 functions on top of the functions
// dispatcher. Each function registers several implementations and the
// dispatcher runs the best one accepting the call.
package blas
