package functions

import (
	"fmt"
	"strings"
)

// FunctionScore holds one score channel per function parameter. Every
// channel starts at 1.0.
type FunctionScore struct {
	values []float32
}

// NewFunctionScore returns a score of width channels set to 1.0.
func NewFunctionScore(width int) *FunctionScore {
	values := make([]float32, max(width, 0))
	for i := range values {
		values[i] = 1
	}
	return &FunctionScore{values: values}
}

// Width returns the number of channels.
func (s *FunctionScore) Width() int { return len(s.values) }

// Values returns a copy of the channels.
func (s *FunctionScore) Values() []float32 {
	return append([]float32(nil), s.values...)
}

// Get returns channel i.
func (s *FunctionScore) Get(i int) float32 { return s.values[i] }

// Set overwrites channel i.
func (s *FunctionScore) Set(i int, v float32) { s.values[i] = v }

// Add adds v to channel i.
func (s *FunctionScore) Add(i int, v float32) { s.values[i] += v }

func (s *FunctionScore) String() string {
	parts := make([]string, len(s.values))
	for i, v := range s.values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
