package svgdoc

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layeredSVG = `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 100">
  <defs><path id="ignored" d="M0 0 L1 1"/></defs>
  <g id="walls" fill="#888">
    <g class="wrapper" transform="translate(10 0)">
      <rect id="w1" x="0" y="0" width="20" height="10"/>
      <path id="w2" d="M0 20 L20 20 L20 30 Z" stroke="#000" stroke-width="2"/>
    </g>
  </g>
  <g id="rooms">
    <g style="fill:none;stroke:#333;stroke-linejoin:round">
      <polyline id="r1" points="0,50 50,50 50,90"/>
    </g>
  </g>
  <path id="orphan" d="M0 0 L5 0 L5 5 Z"/>
  <g id="hidden" display="none"><g><rect width="5" height="5"/></g></g>
</svg>`

func TestParse_PathsInDocumentOrder(t *testing.T) {
	doc, err := ParseString(layeredSVG)
	require.NoError(t, err)

	ids := make([]string, len(doc.Paths))
	for i, p := range doc.Paths {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"w1", "w2", "r1", "orphan"}, ids)
	assert.Equal(t, orb.Bound{Max: orb.Point{200, 100}}, doc.ViewBox)
	assert.Empty(t, doc.Warnings)
}

func TestParse_StyleInheritance(t *testing.T) {
	doc, err := ParseString(layeredSVG)
	require.NoError(t, err)

	w1, w2, r1, orphan := doc.Paths[0], doc.Paths[1], doc.Paths[2], doc.Paths[3]

	assert.Equal(t, "#888", w1.Fill())
	assert.Equal(t, "none", w1.Stroke())
	assert.True(t, w1.Style.HasFill())
	assert.False(t, w1.Style.HasStroke())

	assert.Equal(t, "#888", w2.Fill())
	assert.Equal(t, "#000", w2.Stroke())
	assert.Equal(t, 2.0, w2.Style.StrokeWidth)

	assert.Equal(t, "none", r1.Fill())
	assert.Equal(t, "#333", r1.Stroke())
	assert.Equal(t, "round", r1.Style.LineJoin)
	assert.False(t, r1.SubPaths[0].Closed)

	// Unstyled shapes are painted black.
	assert.Equal(t, "#000", orphan.Fill())
}

func TestParse_AppliesAncestorTransforms(t *testing.T) {
	doc, err := ParseString(layeredSVG)
	require.NoError(t, err)

	w1 := doc.Paths[0]
	require.Len(t, w1.SubPaths, 1)
	assert.Equal(t, []orb.Point{{10, 0}, {30, 0}, {30, 10}, {10, 10}}, w1.SubPaths[0].Points)
	assert.True(t, w1.SubPaths[0].Closed)
}

func TestParentLayerID(t *testing.T) {
	doc, err := ParseString(layeredSVG)
	require.NoError(t, err)

	id, ok := doc.Paths[0].ParentLayerID()
	assert.True(t, ok)
	assert.Equal(t, "walls", id)

	id, ok = doc.Paths[2].ParentLayerID()
	assert.True(t, ok)
	assert.Equal(t, "rooms", id)

	// Direct child of the root has no layer two levels up.
	_, ok = doc.Paths[3].ParentLayerID()
	assert.False(t, ok)
}

func TestParse_ShapeWarnings(t *testing.T) {
	doc, err := ParseString(`<svg xmlns="http://www.w3.org/2000/svg">
  <rect id="bad" width="0" height="10"/>
  <path id="broken" d="L 1 1"/>
  <circle id="c" cx="5" cy="5" r="5"/>
</svg>`)
	require.NoError(t, err)

	require.Len(t, doc.Paths, 1)
	assert.Equal(t, "c", doc.Paths[0].ID)
	assert.Len(t, doc.Paths[0].SubPaths[0].Points, CurveDivisions*4)

	require.Len(t, doc.Warnings, 2)
	assert.Equal(t, "bad", doc.Warnings[0].PathID)
	assert.Equal(t, "broken", doc.Warnings[1].PathID)
}

func TestParse_Errors(t *testing.T) {
	_, err := ParseString(`<svg><g></svg>`)
	assert.Error(t, err)

	_, err = ParseString(`<html></html>`)
	assert.Error(t, err)

	_, err = ParseString(``)
	assert.Error(t, err)
}

func TestParse_RoundedRect(t *testing.T) {
	doc, err := ParseString(`<svg><rect x="0" y="0" width="20" height="10" rx="2"/></svg>`)
	require.NoError(t, err)
	require.Len(t, doc.Paths, 1)

	b := doc.Paths[0].Bounds()
	assert.InDelta(t, 0, b.Min[0], 1e-9)
	assert.InDelta(t, 20, b.Max[0], 1e-9)
	assert.InDelta(t, 10, b.Max[1], 1e-9)
	assert.Greater(t, len(doc.Paths[0].SubPaths[0].Points), 8)
}

func TestElementByID(t *testing.T) {
	doc, err := ParseString(layeredSVG)
	require.NoError(t, err)

	el := doc.ElementByID("rooms")
	require.NotNil(t, el)
	assert.Equal(t, "g", el.Tag)
	assert.Nil(t, doc.ElementByID("nope"))
}
