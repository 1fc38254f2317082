// Package kernels contains the builtin kernel library.
//
// Every kernel is registered with its device source text and a host
// program that executes one work-group at a time.
package kernels

import (
	"github.com/intel/clGPU/compute"
	"github.com/intel/clGPU/primitivedb"
)

// Builtin kernel names.
const (
	ScoreDotProduct = "score_dot_product"
	SdotNaive       = "sdot_naive"
	SdotPartial     = "sdot_partial"
	SumReduce       = "sum_reduce"
	CommonHeader    = "common.h"
)

// Entries returns the builtin primitives.
func Entries() []primitivedb.Entry {
	return []primitivedb.Entry{
		{Name: CommonHeader, Source: commonHeaderSource},
		{
			Name:   ScoreDotProduct,
			Source: scoreDotProductSource,
			Params: []compute.Param{
				{Name: "width", Kind: compute.ParamScalar},
				{Name: "count", Kind: compute.ParamScalar},
				{Name: "query", Kind: compute.ParamBuffer},
				{Name: "candidates", Kind: compute.ParamBuffer},
				{Name: "scores", Kind: compute.ParamBuffer},
			},
			Func: scoreDotProduct,
		},
		{
			Name:   SdotNaive,
			Source: sdotNaiveSource,
			Params: sdotParams("result"),
			Func:   sdotNaive,
		},
		{
			Name:   SdotPartial,
			Source: sdotPartialSource,
			Params: sdotParams("partial"),
			Func:   sdotPartial,
		},
		{
			Name:   SumReduce,
			Source: sumReduceSource,
			Params: []compute.Param{
				{Name: "count", Kind: compute.ParamScalar},
				{Name: "values", Kind: compute.ParamBuffer},
				{Name: "result", Kind: compute.ParamBuffer},
			},
			Func: sumReduce,
		},
	}
}

// Register inserts the builtin primitives into db.
func Register(db *primitivedb.DB) error {
	return db.InsertRange(Entries()...)
}

func sdotParams(out string) []compute.Param {
	return []compute.Param{
		{Name: "n", Kind: compute.ParamScalar},
		{Name: "x", Kind: compute.ParamBuffer},
		{Name: "incx", Kind: compute.ParamScalar},
		{Name: "y", Kind: compute.ParamBuffer},
		{Name: "incy", Kind: compute.ParamScalar},
		{Name: out, Kind: compute.ParamBuffer},
	}
}
