package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
)

// markerLift raises location markers slightly above the top surface.
const markerLift = 0.05

// AssembleOptions carries viewer state that affects assembly.
type AssembleOptions struct {
	Focused bool
}

// Assemble composes a floor's merged geometries into one positioned group.
//
// Every mesh is scaled by (s, -s, s), flipping the SVG y axis. The group is
// rotated once to lie horizontally, centered on its own bounds, offset by the
// floor position and lifted to stackY. Empty geometries are omitted rather
// than added as zero-volume meshes.
func Assemble(merged MergedBatches, spec document.FloorSpec, stackY float64, opts AssembleOptions) *FloorGroup {
	g := &FloorGroup{
		Name:     spec.ID,
		Rotation: mgl64.Vec3{FloorRotationX, 0, 0},
		Visible:  true,
		Markers:  MarkerGroup{Name: MarkersGroup},
		spec:     spec,
		stackY:   stackY,
	}

	s := spec.Scale
	top := spec.ExtrudeDepth * s
	extruded := spec.ExtrusionActive()

	add := func(name string, role Role, geom *Geometry, z float64) *Mesh {
		if geom == nil || geom.IsEmpty() {
			return nil
		}
		m := &Mesh{
			Name:     name,
			Role:     role,
			Geometry: geom,
			Position: mgl64.Vec3{0, 0, z},
			Scale:    mgl64.Vec3{s, -s, s},
			Visible:  true,
		}
		m.FrontFace = "ccw"
		if m.Matrix().Det() < 0 {
			m.FrontFace = "cw"
		}
		g.Meshes = append(g.Meshes, m)
		return m
	}

	add(MeshOther, RoleMap, merged.Map, 0)
	if extruded {
		add(MeshExtruded, RoleExtrude, merged.Extrude, spec.VerticalGap)
		add(MeshExtrudedPath, RoleWall, merged.Wall, top+spec.VerticalGap)
	}
	add(MeshLowerFloor, RoleOutline, merged.Outline, spec.VerticalGap)
	if extruded {
		add(MeshUpperFloor, RoleOutline, merged.Outline, top+spec.VerticalGap*2)
	}

	markerZ := spec.VerticalGap + markerLift
	if extruded {
		markerZ = top + spec.VerticalGap*2 + markerLift
	}
	for _, loc := range spec.Locations {
		g.Markers.Markers = append(g.Markers.Markers, Marker{
			ID:       loc.ID,
			Label:    loc.Name,
			Kind:     loc.Kind,
			Position: mgl64.Vec3{loc.X * s, -loc.Y * s, markerZ},
		})
	}

	g.SetFocused(opts.Focused)
	g.SetPosition(spec.Position)
	return g
}

// MarkerWorldPosition returns a marker's position in world space.
func (g *FloorGroup) MarkerWorldPosition(m Marker) mgl64.Vec3 {
	return mgl64.TransformCoordinate(m.Position, g.Matrix())
}
