package functions

import (
	"fmt"

	"github.com/intel/clGPU/compute"
)

// ScoreArgs describes one scoring request: Count candidates of Width
// elements stored row-major, compared against a query of Width elements.
type ScoreArgs struct {
	Query      compute.Blob[float32, compute.In]
	Candidates compute.Blob[float32, compute.In]
	Scores     compute.Blob[float32, compute.Out]
	Width      int
	Count      int
}

// NewScoreArgs wraps host slices. count is derived from len(candidates)/len(query)
// and scores must hold at least count elements.
func NewScoreArgs(query, candidates, scores []float32) (ScoreArgs, error) {
	width := len(query)
	if width == 0 {
		return ScoreArgs{}, fmt.Errorf("%w: empty query", compute.ErrInvalidArgument)
	}
	if len(candidates)%width != 0 {
		return ScoreArgs{}, fmt.Errorf("%w: %d candidate elements are not a multiple of width %d", compute.ErrInvalidArgument, len(candidates), width)
	}
	args := ScoreArgs{
		Query:      compute.NewBlob[float32, compute.In](query),
		Candidates: compute.NewBlob[float32, compute.In](candidates),
		Scores:     compute.NewBlob[float32, compute.Out](scores),
		Width:      width,
		Count:      len(candidates) / width,
	}
	return args, args.Validate()
}

// Validate checks that every blob covers the declared shape.
func (a ScoreArgs) Validate() error {
	switch {
	case a.Width <= 0:
		return fmt.Errorf("%w: width %d", compute.ErrInvalidArgument, a.Width)
	case a.Count <= 0:
		return fmt.Errorf("%w: count %d", compute.ErrInvalidArgument, a.Count)
	case a.Query.Binding() == nil || a.Query.Binding().Capacity() < a.Width*4:
		return fmt.Errorf("%w: query holds fewer than %d elements", compute.ErrInvalidArgument, a.Width)
	case a.Candidates.Binding() == nil || a.Candidates.Binding().Capacity() < a.Width*a.Count*4:
		return fmt.Errorf("%w: candidates hold fewer than %d elements", compute.ErrInvalidArgument, a.Width*a.Count)
	case a.Scores.Binding() == nil || a.Scores.Binding().Capacity() < a.Count*4:
		return fmt.Errorf("%w: scores hold fewer than %d elements", compute.ErrInvalidArgument, a.Count)
	}
	return nil
}
