package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

func TestRoleFor(t *testing.T) {
	spec := floorA()

	tests := []struct {
		name string
		id   SectionID
		spec func(document.FloorSpec) document.FloorSpec
		want Role
	}{
		{"extruded section", "walls", nil, RoleWall},
		{"floor layer", "floor", nil, RoleOutline},
		{"other layer", "rooms", nil, RoleMap},
		{"zero depth demotes walls", "walls", func(s document.FloorSpec) document.FloorSpec {
			s.ExtrudeDepth = 0
			return s
		}, RoleMap},
		{"disabled floor layer", "floor", func(s document.FloorSpec) document.FloorSpec {
			s.FloorLayer.Enabled = false
			return s
		}, RoleMap},
		{"extruded wins over floor layer", "floor", func(s document.FloorSpec) document.FloorSpec {
			s.ExtrudedSectionIDs = []string{"floor"}
			return s
		}, RoleWall},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec
			if tt.spec != nil {
				s = tt.spec(s)
			}
			assert.Equal(t, tt.want, RoleFor(tt.id, s))
		})
	}
}

func TestBuild_Partition(t *testing.T) {
	c, _ := ClassifyDocument(mustParse(t, floorASVG), nil)
	b := NewBuilder(nil).Build(c, floorA())

	require.Equal(t, 2, b.Extrude.Len(), "one extrusion per wall fill")
	for _, p := range b.Extrude.Primitives {
		assert.Equal(t, KindExtrude, p.Kind)
		assert.Equal(t, SectionID("walls"), p.Section)
	}

	// Wall fills keep their flat shape alongside the extrusion, then strokes.
	require.Equal(t, 3, b.Wall.Len())
	for i, p := range b.Wall.Primitives[:2] {
		assert.Equal(t, KindFill, p.Kind)
		assert.Equal(t, b.Extrude.Primitives[i].PathID, p.PathID)
	}
	assert.Equal(t, "wall-trim", b.Wall.Primitives[2].PathID)
	assert.Equal(t, KindStroke, b.Wall.Primitives[2].Kind)

	require.Equal(t, 1, b.Outline.Len())
	assert.Equal(t, "slab", b.Outline.Primitives[0].PathID)

	require.Equal(t, 2, b.Map.Len())
	assert.Equal(t, KindFill, b.Map.Primitives[0].Kind)
	assert.Equal(t, KindStroke, b.Map.Primitives[1].Kind)
}

func TestBuild_ExtrusionGating(t *testing.T) {
	noDepth := floorA()
	noDepth.ExtrudeDepth = 0

	noSections := floorA()
	noSections.ExtrudedSectionIDs = nil

	for name, spec := range map[string]document.FloorSpec{
		"zero depth":          noDepth,
		"no extruded section": noSections,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := ClassifyDocument(mustParse(t, floorASVG), nil)
			b := NewBuilder(nil).Build(c, spec)

			assert.Zero(t, b.Extrude.Len())
			assert.Zero(t, b.Wall.Len())
			// Walls are drawn flat with the rest of the map.
			assert.Equal(t, 2+2+1, b.Map.Len())

			g := Assemble(MergeBatches(b), spec, 0, AssembleOptions{})
			assert.Nil(t, g.Mesh(MeshExtruded))
			assert.Nil(t, g.Mesh(MeshExtrudedPath))
			assert.Nil(t, g.Mesh(MeshUpperFloor))
			assert.NotNil(t, g.Mesh(MeshLowerFloor))
		})
	}
}

func TestBuild_ExtrusionShape(t *testing.T) {
	merged := buildMerged(t, floorASVG, floorA())
	ext := merged.Extrude
	require.False(t, ext.IsEmpty())

	assert.InDelta(t, 0, ext.BoundingBox.Min[2], 1e-6)
	assert.InDelta(t, 30, ext.BoundingBox.Max[2], 1e-6)
	assert.Len(t, ext.Normals, len(ext.Positions))

	for i := 0; i < ext.VertexCount(); i++ {
		n := ext.Normals[3*i : 3*i+3]
		l := float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		assert.InDelta(t, 1, l, 1e-5)
	}
}

func TestBuild_SkipsDegenerateStrokes(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg">
  <g id="lines"><g fill="none" stroke="#000" stroke-width="2">
    <path id="multi" d="M0 0 L0 0 M5 5 L15 5"/>
  </g></g>
</svg>`
	spec := document.FloorSpec{ID: "x", SVGSource: "x.svg", Scale: 1}
	c, _ := ClassifyDocument(mustParse(t, svg), nil)
	b := NewBuilder(nil).Build(c, spec)

	require.Equal(t, 1, b.Map.Len())
	assert.Equal(t, "multi", b.Map.Primitives[0].PathID)
}

func TestBuild_Deterministic(t *testing.T) {
	first := buildMerged(t, floorASVG, floorA())
	for i := 0; i < 5; i++ {
		again := buildMerged(t, floorASVG, floorA())
		assert.Equal(t, first.Map.Positions, again.Map.Positions)
		assert.Equal(t, first.Wall.Positions, again.Wall.Positions)
		assert.Equal(t, first.Outline.Positions, again.Outline.Positions)
		assert.Equal(t, first.Extrude.Positions, again.Extrude.Positions)
		assert.Equal(t, first.Extrude.Normals, again.Extrude.Normals)
	}
}

func randomPlan(t *rapid.T) string {
	var sb strings.Builder
	sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg">`)
	layers := rapid.IntRange(1, 4).Draw(t, "layers")
	for l := 0; l < layers; l++ {
		fmt.Fprintf(&sb, `<g id="layer%d"><g fill="#888" stroke="#000" stroke-width="%d">`, l, rapid.IntRange(0, 3).Draw(t, "width"))
		shapes := rapid.IntRange(0, 4).Draw(t, "shapes")
		for s := 0; s < shapes; s++ {
			x := rapid.IntRange(0, 100).Draw(t, "x")
			y := rapid.IntRange(0, 100).Draw(t, "y")
			w := rapid.IntRange(1, 50).Draw(t, "w")
			h := rapid.IntRange(1, 50).Draw(t, "h")
			fmt.Fprintf(&sb, `<rect x="%d" y="%d" width="%d" height="%d"/>`, x, y, w, h)
		}
		sb.WriteString(`</g></g>`)
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

func TestBuild_DeterministicProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svg := randomPlan(rt)
		spec := document.FloorSpec{
			ID:                 "r",
			SVGSource:          "r.svg",
			Scale:              0.01,
			ExtrudedSectionIDs: []string{"layer0"},
			ExtrudeDepth:       float64(rapid.IntRange(0, 40).Draw(rt, "depth")),
			FloorLayer:         document.FloorLayer{ID: "layer1", Enabled: true},
		}

		a := buildMerged(t, svg, spec)
		b := buildMerged(t, svg, spec)
		for _, pair := range [][2]*Geometry{
			{a.Map, b.Map}, {a.Wall, b.Wall}, {a.Outline, b.Outline}, {a.Extrude, b.Extrude},
		} {
			if pair[0].VertexCount() != pair[1].VertexCount() {
				rt.Fatalf("vertex counts differ: %d vs %d", pair[0].VertexCount(), pair[1].VertexCount())
			}
			for i := range pair[0].Positions {
				if pair[0].Positions[i] != pair[1].Positions[i] {
					rt.Fatalf("position %d differs", i)
				}
			}
		}
		if spec.ExtrudeDepth == 0 && !a.Extrude.IsEmpty() {
			rt.Fatalf("extrusion built with zero depth")
		}
	})
}
