package svgdoc

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizePath(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"M10,20L30 40", []string{"M", "10", "20", "L", "30", "40"}},
		{"m-5-5.5.5", []string{"m", "-5", "-5.5", ".5"}},
		{"L1e-3,2E2", []string{"L", "1e-3", "2E2"}},
		{"M 0 0 z", []string{"M", "0", "0", "z"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenizePath(tt.in), tt.in)
	}
}

func TestParsePathData_LinesAndClose(t *testing.T) {
	subs, err := ParsePathData("M0 0 L10 0 L10 10 L0 10 Z")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.True(t, subs[0].Closed)
	assert.Equal(t, []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, subs[0].Points)
}

func TestParsePathData_RelativeAndImplicit(t *testing.T) {
	// Coordinates after a moveto are implicit linetos.
	subs, err := ParsePathData("m5 5 10 0 0 10h-10v-10z")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	assert.Equal(t, []orb.Point{{5, 5}, {15, 5}, {15, 15}, {5, 15}}, subs[0].Points)
	assert.True(t, subs[0].Closed)
}

func TestParsePathData_MultipleSubPaths(t *testing.T) {
	subs, err := ParsePathData("M0 0 L1 1 M5 5 L6 6 L7 5 Z")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.False(t, subs[0].Closed)
	assert.Len(t, subs[0].Points, 2)
	assert.True(t, subs[1].Closed)
	assert.Len(t, subs[1].Points, 3)
}

func TestParsePathData_DrawAfterCloseStartsAtSubPathStart(t *testing.T) {
	subs, err := ParsePathData("M0 0 L10 0 L10 10 Z L-10 0")
	require.NoError(t, err)
	require.Len(t, subs, 2)

	assert.Equal(t, []orb.Point{{0, 0}, {-10, 0}}, subs[1].Points)
}

func TestParsePathData_Curves(t *testing.T) {
	subs, err := ParsePathData("M0 0 C0 10 10 10 10 0 S20 -10 20 0 Q25 5 30 0 T40 0")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	pts := subs[0].Points
	assert.Len(t, pts, 1+4*CurveDivisions)
	assert.Equal(t, orb.Point{10, 0}, pts[CurveDivisions])
	assert.Equal(t, orb.Point{40, 0}, pts[len(pts)-1])

	// The cubic bulges toward its control points.
	mid := pts[CurveDivisions/2]
	assert.InDelta(t, 5, mid[0], 1e-9)
	assert.InDelta(t, 7.5, mid[1], 1e-9)
}

func TestParsePathData_Arc(t *testing.T) {
	subs, err := ParsePathData("M0 0 A10 10 0 0 1 20 0")
	require.NoError(t, err)
	require.Len(t, subs, 1)

	pts := subs[0].Points
	require.Len(t, pts, 1+CurveDivisions)
	assert.Equal(t, orb.Point{20, 0}, pts[len(pts)-1])

	// A half circle of radius 10 centered on (10, 0).
	for _, p := range pts {
		assert.InDelta(t, 10, math.Hypot(p[0]-10, p[1]), 1e-9)
	}
	// sweep=1 in a y-down system passes through negative y.
	assert.Less(t, pts[CurveDivisions/2][1], 0.0)
}

func TestParsePathData_ArcRadiusTooSmallIsScaledUp(t *testing.T) {
	subs, err := ParsePathData("M0 0 A1 1 0 0 0 20 0")
	require.NoError(t, err)

	pts := subs[0].Points
	mid := pts[CurveDivisions/2]
	assert.InDelta(t, 10, math.Hypot(mid[0]-10, mid[1]), 1e-9)
}

func TestParsePathData_Errors(t *testing.T) {
	_, err := ParsePathData("L10 10")
	assert.Error(t, err)

	_, err = ParsePathData("M0 0 L10")
	assert.Error(t, err)

	_, err = ParsePathData("M0 0 X10 10")
	assert.Error(t, err)

	subs, err := ParsePathData("   ")
	assert.NoError(t, err)
	assert.Empty(t, subs)
}

func TestParseTransform(t *testing.T) {
	m := ParseTransform("translate(10 20) scale(2)")
	assert.Equal(t, orb.Point{12, 22}, m.Apply(orb.Point{1, 1}))

	m = ParseTransform("rotate(90 5 5)")
	p := m.Apply(orb.Point{10, 5})
	assert.InDelta(t, 5, p[0], 1e-9)
	assert.InDelta(t, 10, p[1], 1e-9)

	m = ParseTransform("matrix(1,0,0,1,3,4)")
	assert.Equal(t, orb.Point{3, 4}, m.Apply(orb.Point{}))

	assert.True(t, ParseTransform("bogus(1)").IsIdentity())
	assert.InDelta(t, 2, ParseTransform("scale(2)").ScaleFactor(), 1e-12)
}
