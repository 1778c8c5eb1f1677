package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

// floorASVG has an extruded walls layer with two fills and one stroke, a
// floor outline layer, a rooms layer and one path outside any layer.
const floorASVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 60">
  <g id="floor">
    <g fill="#eee">
      <rect id="slab" x="0" y="0" width="100" height="60"/>
    </g>
  </g>
  <g id="walls">
    <g fill="#555">
      <rect id="wall-n" x="0" y="0" width="100" height="4"/>
      <rect id="wall-s" x="0" y="56" width="100" height="4"/>
      <path id="wall-trim" d="M0 30 H100" fill="none" stroke="#000" stroke-width="2"/>
    </g>
  </g>
  <g id="rooms">
    <g fill="#abc" stroke="#345" stroke-width="1">
      <rect id="room" x="10" y="10" width="30" height="30"/>
    </g>
  </g>
  <path id="stray" d="M0 0 L1 0 L1 1 Z"/>
</svg>`

const floorBSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 80 40">
  <g id="floor">
    <g fill="#eee">
      <rect id="slab" x="0" y="0" width="80" height="40"/>
    </g>
  </g>
  <g id="rooms">
    <g fill="#abc">
      <rect id="b-room" x="5" y="5" width="20" height="20"/>
    </g>
  </g>
</svg>`

func floorA() document.FloorSpec {
	return document.FloorSpec{
		ID:                 "a",
		Name:               "Floor A",
		SVGSource:          "a.svg",
		Scale:              0.01,
		VerticalGap:        0,
		ExtrudedSectionIDs: []string{"walls"},
		ExtrudeDepth:       30,
		FloorLayer:         document.FloorLayer{ID: "floor", Enabled: true},
		Locations: []document.Location{
			{ID: "loc-room", Name: "Room", X: 25, Y: 25},
		},
	}
}

func floorB() document.FloorSpec {
	return document.FloorSpec{
		ID:         "b",
		Name:       "Floor B",
		SVGSource:  "b.svg",
		Scale:      0.01,
		FloorLayer: document.FloorLayer{ID: "floor", Enabled: true},
	}
}

func testSources() StaticFetcher {
	return StaticFetcher{
		"a.svg": floorASVG,
		"b.svg": floorBSVG,
	}
}

func mustParse(t *testing.T, svg string) *svgdoc.Document {
	t.Helper()
	doc, err := svgdoc.ParseString(svg)
	require.NoError(t, err)
	return doc
}

func buildMerged(t *testing.T, svg string, spec document.FloorSpec) MergedBatches {
	t.Helper()
	c, _ := ClassifyDocument(mustParse(t, svg), nil)
	return MergeBatches(NewBuilder(nil).Build(c, spec))
}
