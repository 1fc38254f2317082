// Package simd holds the vector arithmetic used by the host kernels.
//
// The loops are written in portable Go and unrolled by four; the compiler
// vectorizes them where it can. ActiveISA reports the instruction set the
// host CPU offers (overridable with CLGPU_SIMD) so engines can describe the
// device they run on.
package simd
