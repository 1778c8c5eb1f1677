package document

// Sample floor plans follow the <g layer><g wrapper><shape/></g></g> layout
// the classifier expects.
const (
	SampleGroundFloorSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300">
  <g id="floor">
    <g fill="#e8e4da">
      <rect x="0" y="0" width="400" height="300"/>
    </g>
  </g>
  <g id="rooms">
    <g fill="#cfe3f7" stroke="#5b7da3" stroke-width="2">
      <rect id="lobby" x="20" y="20" width="180" height="120"/>
      <rect id="office" x="220" y="20" width="160" height="120"/>
      <path id="hall" d="M20 160 H380 V280 H20 Z M180 200 H220 V240 H180 Z"/>
    </g>
  </g>
  <g id="walls">
    <g fill="#6b6b6b">
      <path id="outer-wall" d="M0 0 H400 V300 H0 Z M8 8 V292 H392 V8 Z"/>
      <rect id="divider" x="200" y="8" width="8" height="140"/>
    </g>
  </g>
  <g id="labels">
    <g stroke="#333" stroke-width="1" fill="none" stroke-linecap="round">
      <polyline points="40,60 80,60 80,90"/>
    </g>
  </g>
</svg>`

	SampleUpperFloorSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 300">
  <g id="floor">
    <g fill="#ece7dc">
      <rect x="0" y="0" width="400" height="300"/>
    </g>
  </g>
  <g id="rooms">
    <g fill="#f7e3cf" stroke="#a37d5b" stroke-width="2">
      <rect id="lab" x="20" y="20" width="360" height="260" rx="12"/>
    </g>
  </g>
  <g id="walls">
    <g fill="#6b6b6b" stroke="#222" stroke-width="1">
      <path id="outer-wall" d="M0 0 H400 V300 H0 Z M8 8 V292 H392 V8 Z"/>
    </g>
  </g>
</svg>`
)

// SampleSources maps the sample floor svgSource references to their markup.
var SampleSources = map[string]string{
	"sample://ground.svg": SampleGroundFloorSVG,
	"sample://upper.svg":  SampleUpperFloorSVG,
}

// NewSampleBuilding returns a two-storey building whose floors reference
// SampleSources.
func NewSampleBuilding(buildingID string) *Building {
	return &Building{
		ID:       buildingID,
		Name:     "Sample Hall",
		Revision: 1,
		Floors: []FloorSpec{
			{
				ID:                 "ground",
				Name:               "Ground Floor",
				SVGSource:          "sample://ground.svg",
				Scale:              0.01,
				VerticalGap:        0.02,
				ExtrudedSectionIDs: []string{"walls"},
				ExtrudeDepth:       30,
				FloorLayer:         FloorLayer{ID: "floor", Enabled: true},
				Locations: []Location{
					{ID: "loc-lobby", Name: "Lobby", Kind: "room", X: 110, Y: 80},
					{ID: "loc-office", Name: "Office", Kind: "room", X: 300, Y: 80},
				},
			},
			{
				ID:                 "upper",
				Name:               "First Floor",
				SVGSource:          "sample://upper.svg",
				Scale:              0.01,
				VerticalGap:        0.02,
				ExtrudedSectionIDs: []string{"walls"},
				ExtrudeDepth:       30,
				FloorLayer:         FloorLayer{ID: "floor", Enabled: true},
				Locations: []Location{
					{ID: "loc-lab", Name: "Lab", Kind: "room", X: 200, Y: 150},
				},
			},
		},
	}
}
