package engine

import "github.com/johngerving/3D-Building-Map-sub000/internal/document"

// HeightForIndex returns the vertical offset of floor index in a stack: the
// sum of ExtrudeDepth*Scale + VerticalGap*3 over every earlier floor that has
// both a positive depth and at least one extruded section. Floors without
// extrusion add nothing, so a building of flat floors stacks everything at 0.
// Indexes past the end return the height of the whole stack.
func HeightForIndex(floors []document.FloorSpec, index int) float64 {
	if index > len(floors) {
		index = len(floors)
	}
	var h float64
	for i := 0; i < index; i++ {
		h += floors[i].StackHeight()
	}
	return h
}

// Stack caches the prefix sums of HeightForIndex for repeated queries, such
// as camera framing during an animation.
type Stack struct {
	offsets []float64
}

// NewStack precomputes the offset of every floor.
func NewStack(floors []document.FloorSpec) Stack {
	offsets := make([]float64, len(floors)+1)
	for i, f := range floors {
		offsets[i+1] = offsets[i] + f.StackHeight()
	}
	return Stack{offsets: offsets}
}

// Height returns the offset of floor index, clamped to the stack.
func (s Stack) Height(index int) float64 {
	if len(s.offsets) == 0 || index <= 0 {
		return 0
	}
	if index >= len(s.offsets) {
		index = len(s.offsets) - 1
	}
	return s.offsets[index]
}

// Len returns the number of floors in the stack.
func (s Stack) Len() int {
	if len(s.offsets) == 0 {
		return 0
	}
	return len(s.offsets) - 1
}

// Total returns the height of the whole stack.
func (s Stack) Total() float64 {
	return s.Height(s.Len())
}
