package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

const tolerance = 1e-6

func meshNames(g *FloorGroup) []string {
	names := make([]string, len(g.Meshes))
	for i, m := range g.Meshes {
		names[i] = m.Name
	}
	return names
}

func TestAssemble_ExtrudedFloor(t *testing.T) {
	spec := floorA()
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{})

	assert.Equal(t, "a", g.Name)
	assert.True(t, g.Visible)
	assert.Equal(t, []string{MeshOther, MeshExtruded, MeshExtrudedPath, MeshLowerFloor, MeshUpperFloor}, meshNames(g))
	assert.InDelta(t, FloorRotationX, g.Rotation[0], 0)

	for _, m := range g.Meshes {
		assert.InDelta(t, 0.01, m.Scale[0], 0)
		assert.InDelta(t, -0.01, m.Scale[1], 0)
		assert.InDelta(t, 0.01, m.Scale[2], 0)
		assert.Equal(t, "cw", m.FrontFace, "y flip mirrors %s", m.Name)
		assert.True(t, m.Visible)
	}

	assert.InDelta(t, 0, g.Mesh(MeshExtruded).Position[2], tolerance)
	assert.InDelta(t, 0.3, g.Mesh(MeshExtrudedPath).Position[2], tolerance)
	assert.InDelta(t, 0, g.Mesh(MeshLowerFloor).Position[2], tolerance)
	assert.InDelta(t, 0.3, g.Mesh(MeshUpperFloor).Position[2], tolerance)
	assert.Same(t, g.Mesh(MeshLowerFloor).Geometry, g.Mesh(MeshUpperFloor).Geometry)

	require.Equal(t, MarkersGroup, g.Markers.Name)
	require.Len(t, g.Markers.Markers, 1)
	marker := g.Markers.Markers[0]
	assert.InDelta(t, 0.25, marker.Position[0], tolerance)
	assert.InDelta(t, -0.25, marker.Position[1], tolerance)
	assert.InDelta(t, 0.3+markerLift, marker.Position[2], tolerance)
}

func TestAssemble_VerticalGap(t *testing.T) {
	spec := floorA()
	spec.VerticalGap = 0.02
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{})

	assert.InDelta(t, 0, g.Mesh(MeshOther).Position[2], tolerance)
	assert.InDelta(t, 0.02, g.Mesh(MeshExtruded).Position[2], tolerance)
	assert.InDelta(t, 0.32, g.Mesh(MeshExtrudedPath).Position[2], tolerance)
	assert.InDelta(t, 0.02, g.Mesh(MeshLowerFloor).Position[2], tolerance)
	assert.InDelta(t, 0.34, g.Mesh(MeshUpperFloor).Position[2], tolerance)
}

func TestAssemble_Focused(t *testing.T) {
	spec := floorA()
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{Focused: true})

	upper := g.Mesh(MeshUpperFloor)
	require.NotNil(t, upper)
	assert.False(t, upper.Visible)
	assert.True(t, g.Focused())

	g.SetFocused(false)
	assert.True(t, upper.Visible)
}

func TestAssemble_FlatFloor(t *testing.T) {
	spec := floorB()
	g := Assemble(buildMerged(t, floorBSVG, spec), spec, 1.5, AssembleOptions{})

	assert.Equal(t, []string{MeshOther, MeshLowerFloor}, meshNames(g))
	assert.InDelta(t, 1.5, g.Position[1], 0)
	assert.InDelta(t, 1.5, g.StackY(), 0)
	require.Empty(t, g.Markers.Markers)
}

func TestAssemble_OmitsEmptyGeometry(t *testing.T) {
	spec := floorA()
	g := Assemble(MergeBatches(Batches{}), spec, 0, AssembleOptions{})

	assert.Empty(t, g.Meshes)
	assert.True(t, g.LocalBounds().IsEmpty())
	assert.InDelta(t, 0, g.Position[0], 0)
	assert.InDelta(t, 0, g.Position[2], 0)
}

func TestAssemble_Centering(t *testing.T) {
	spec := floorA()
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{})

	// The floor spans 100x60 svg units at scale 0.01.
	assert.InDelta(t, -0.5, g.Position[0], tolerance)
	assert.InDelta(t, -0.3, g.Position[2], tolerance)

	c := g.Bounds().Center()
	assert.InDelta(t, 0, c[0], tolerance)
	assert.InDelta(t, 0, c[2], tolerance)

	// Everything sits on or above the floor plane.
	assert.GreaterOrEqual(t, g.Bounds().Min[1], -tolerance)
	assert.InDelta(t, 0.3, g.Bounds().Max[1], tolerance)
}

func TestAssemble_PositionOffset(t *testing.T) {
	spec := floorA()
	spec.Position = document.Position{X: 2, Z: 3}
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{})

	c := g.Bounds().Center()
	assert.InDelta(t, 2, c[0], tolerance, "x adds")
	assert.InDelta(t, -3, c[2], tolerance, "z subtracts")

	g.SetPosition(document.Position{})
	c = g.Bounds().Center()
	assert.InDelta(t, 0, c[0], tolerance)
	assert.InDelta(t, 0, c[2], tolerance)
	assert.Equal(t, document.Position{}, g.Spec().Position)
}

func TestAssemble_CenteringProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		spec := document.FloorSpec{
			ID:                 "r",
			SVGSource:          "r.svg",
			Scale:              rapid.Float64Range(0.001, 2).Draw(rt, "scale"),
			VerticalGap:        rapid.Float64Range(0, 1).Draw(rt, "gap"),
			ExtrudedSectionIDs: []string{"layer0"},
			ExtrudeDepth:       rapid.Float64Range(0, 50).Draw(rt, "depth"),
			FloorLayer:         document.FloorLayer{ID: "layer1", Enabled: true},
		}
		pos := document.Position{
			X: rapid.Float64Range(-100, 100).Draw(rt, "x"),
			Z: rapid.Float64Range(-100, 100).Draw(rt, "z"),
		}

		g := Assemble(buildMerged(t, randomPlan(rt), spec), spec, 0, AssembleOptions{})
		g.SetPosition(pos)
		if len(g.Meshes) == 0 {
			return
		}
		c := g.Bounds().Center()
		if math.Abs(c[0]-pos.X) > 1e-6 || math.Abs(c[2]+pos.Z) > 1e-6 {
			rt.Fatalf("center %v not at offset %v", c, pos)
		}
	})
}

func TestFloorGroup_Clone(t *testing.T) {
	spec := floorA()
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 0, AssembleOptions{})
	c := g.Clone()

	c.Mesh(MeshUpperFloor).Visible = false
	c.Markers.Markers[0].Label = "changed"
	assert.True(t, g.Mesh(MeshUpperFloor).Visible)
	assert.Equal(t, "Room", g.Markers.Markers[0].Label)
}

func TestMarkerWorldPosition(t *testing.T) {
	spec := floorA()
	g := Assemble(buildMerged(t, floorASVG, spec), spec, 2, AssembleOptions{})
	p := g.MarkerWorldPosition(g.Markers.Markers[0])

	// svg (25, 25) on a 100x60 plan centered at (50, 30).
	assert.InDelta(t, -0.25, p[0], tolerance)
	assert.InDelta(t, 2+0.3+markerLift, p[1], tolerance)
	assert.InDelta(t, -0.05, p[2], tolerance)
}
