package functions

import (
	"context"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/intel/clGPU/compute"
)

// Policy decides how a score equal to the threshold is treated.
type Policy uint8

const (
	// Inclusive accepts scores >= threshold.
	Inclusive Policy = iota
	// Exclusive accepts scores > threshold.
	Exclusive
)

func (p Policy) String() string {
	switch p {
	case Inclusive:
		return "inclusive"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

// Selection is the outcome of SelectorAccept.Apply.
type Selection struct {
	// Accepted holds the indices of accepted candidates.
	Accepted *roaring.Bitmap
	// Rejected lists the indices of rejected candidates in ascending order.
	Rejected []int
	// Scores are the scores the decision was made on.
	Scores []float32
}

// IsAccepted reports whether candidate i was accepted.
func (s Selection) IsAccepted(i int) bool {
	return i >= 0 && s.Accepted != nil && s.Accepted.Contains(uint32(i))
}

// AcceptedIndices returns the accepted candidates in ascending order.
func (s Selection) AcceptedIndices() []int {
	if s.Accepted == nil {
		return nil
	}
	out := make([]int, 0, s.Accepted.GetCardinality())
	it := s.Accepted.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// Len returns the number of candidates the selection covers.
func (s Selection) Len() int { return len(s.Scores) }

// SelectorAccept admits the candidates whose score passes Threshold.
type SelectorAccept struct {
	Threshold float32
	Policy    Policy

	// Builder computes the scores consumed by Select.
	Builder *ScoreBuilderDotProduct
}

// NewSelectorAccept returns an inclusive selector scoring with builder.
func NewSelectorAccept(builder *ScoreBuilderDotProduct, threshold float32) *SelectorAccept {
	return &SelectorAccept{Threshold: threshold, Builder: builder}
}

// Accepts reports whether a single score passes. NaN never passes.
func (s *SelectorAccept) Accepts(score float32) bool {
	if math.IsNaN(float64(score)) {
		return false
	}
	if s.Policy == Exclusive {
		return score > s.Threshold
	}
	return score >= s.Threshold
}

// Apply partitions scores into accepted and rejected candidates.
func (s *SelectorAccept) Apply(scores []float32) Selection {
	sel := Selection{
		Accepted: roaring.New(),
		Scores:   append(make([]float32, 0, len(scores)), scores...),
	}
	for i, v := range scores {
		if s.Accepts(v) {
			sel.Accepted.Add(uint32(i))
		} else {
			sel.Rejected = append(sel.Rejected, i)
		}
	}
	return sel
}

// Select runs the builder on args after deps, waits for the scores and
// applies the threshold.
func (s *SelectorAccept) Select(ctx context.Context, e compute.Engine, queue compute.CommandQueue, args ScoreArgs, deps ...compute.Event) (Selection, error) {
	if s.Builder == nil {
		return Selection{}, fmt.Errorf("%w: selector has no score builder", compute.ErrInvalidArgument)
	}
	scores, err := s.Builder.Run(ctx, e, queue, args, deps...)
	if err != nil {
		return Selection{}, err
	}
	return s.Apply(scores), nil
}
