// Package mem allocates host-visible device memory.
//
// Buffers start on a 64-byte boundary so kernels can reinterpret them as
// any element type and vector loads never straddle a cache line.
package mem
