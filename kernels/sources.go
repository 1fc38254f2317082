package kernels

const commonHeaderSource = `#ifndef COMMON_H
#define COMMON_H
#define GROUP_SIZE 256
#define GROUP_COUNT 16
#endif
`

const scoreDotProductSource = `__kernel void score_dot_product(uint width, uint count,
                                __global const float* query,
                                __global const float* candidates,
                                __global float* scores)
{
    const uint i = get_global_id(0);
    if (i >= count) return;
    float s = 0.0f;
    for (uint k = 0; k < width; ++k)
        s += query[k] * candidates[i * width + k];
    scores[i] = s;
}
`

const sdotNaiveSource = `__kernel void sdot_naive(int n, __global const float* x, int incx,
                         __global const float* y, int incy, __global float* result)
{
    int ix = incx < 0 ? (1 - n) * incx : 0;
    int iy = incy < 0 ? (1 - n) * incy : 0;
    float s = 0.0f;
    for (int k = 0; k < n; ++k, ix += incx, iy += incy)
        s += x[ix] * y[iy];
    result[0] = s;
}
`

const sdotPartialSource = `#include "common.h"
__kernel __attribute__((reqd_work_group_size(GROUP_SIZE, 1, 1)))
void sdot_partial(int n, __global const float* x, int incx,
                  __global const float* y, int incy, __global float* partial)
{
    __local float acc[GROUP_SIZE];
    const int groups = get_num_groups(0);
    const int g = get_group_id(0);
    const int l = get_local_id(0);
    const int chunk = (n + groups - 1) / groups;
    const int lo = min(g * chunk, n);
    const int hi = min(lo + chunk, n);
    int ox = incx < 0 ? (1 - n) * incx : 0;
    int oy = incy < 0 ? (1 - n) * incy : 0;
    float s = 0.0f;
    for (int k = lo + l; k < hi; k += GROUP_SIZE)
        s += x[ox + k * incx] * y[oy + k * incy];
    acc[l] = s;
    barrier(CLK_LOCAL_MEM_FENCE);
    for (int w = GROUP_SIZE / 2; w > 0; w >>= 1) {
        if (l < w) acc[l] += acc[l + w];
        barrier(CLK_LOCAL_MEM_FENCE);
    }
    if (l == 0) partial[g] = acc[0];
}
`

const sumReduceSource = `#include "common.h"
__kernel void sum_reduce(int count, __global const float* values, __global float* result)
{
    if (get_global_id(0) != 0) return;
    float s = 0.0f;
    for (int i = 0; i < count; ++i)
        s += values[i];
    result[0] = s;
}
`
