package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

func TestHeightForIndex_TwoFloors(t *testing.T) {
	floors := []document.FloorSpec{floorA(), floorB()}

	assert.InDelta(t, 0, HeightForIndex(floors, 0), 0)
	assert.InDelta(t, 0.3, HeightForIndex(floors, 1), 1e-12)
	assert.InDelta(t, 0.3, HeightForIndex(floors, 2), 1e-12)
	assert.InDelta(t, 0.3, HeightForIndex(floors, 10), 1e-12, "clamped to the stack")
}

func TestHeightForIndex_GapCountsThreeTimes(t *testing.T) {
	a := floorA()
	a.VerticalGap = 0.02
	floors := []document.FloorSpec{a, a, a}

	assert.InDelta(t, 0.36, HeightForIndex(floors, 1), 1e-12)
	assert.InDelta(t, 0.72, HeightForIndex(floors, 2), 1e-12)
}

func TestStack_MatchesHeightForIndex(t *testing.T) {
	floors := []document.FloorSpec{floorA(), floorB(), floorA()}
	s := NewStack(floors)

	assert.Equal(t, 3, s.Len())
	for i := -1; i <= 4; i++ {
		assert.InDelta(t, HeightForIndex(floors, i), s.Height(i), 1e-12, "index %d", i)
	}
	assert.InDelta(t, 0.6, s.Total(), 1e-12)

	var empty Stack
	assert.Zero(t, empty.Len())
	assert.Zero(t, empty.Height(3))
}

func randomFloor(t *rapid.T, extruded bool) document.FloorSpec {
	f := document.FloorSpec{
		ID:          "f",
		SVGSource:   "f.svg",
		Scale:       rapid.Float64Range(0.001, 1).Draw(t, "scale"),
		VerticalGap: rapid.Float64Range(0, 1).Draw(t, "gap"),
	}
	if extruded {
		f.ExtrudeDepth = rapid.Float64Range(0.1, 100).Draw(t, "depth")
		f.ExtrudedSectionIDs = []string{"walls"}
	} else if rapid.Bool().Draw(t, "sections") {
		f.ExtrudedSectionIDs = []string{"walls"}
	}
	return f
}

func TestHeightForIndex_StrictlyIncreasing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 12).Draw(t, "n")
		floors := make([]document.FloorSpec, n)
		for i := range floors {
			floors[i] = randomFloor(t, true)
		}
		for i := 1; i <= n; i++ {
			if HeightForIndex(floors, i) <= HeightForIndex(floors, i-1) {
				t.Fatalf("height not increasing at index %d", i)
			}
		}
	})
}

func TestHeightForIndex_FlatFloorsStayAtZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		floors := make([]document.FloorSpec, n)
		for i := range floors {
			floors[i] = randomFloor(t, false)
		}
		for i := 0; i <= n; i++ {
			if h := HeightForIndex(floors, i); h != 0 {
				t.Fatalf("height %g at index %d, want 0", h, i)
			}
		}
	})
}
