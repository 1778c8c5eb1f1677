package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/johngerving/3D-Building-Map-sub000/internal/document"
	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

// Mesh names the renderer looks up to toggle visibility.
const (
	MeshExtruded     = "extruded_mesh"
	MeshExtrudedPath = "extruded_path"
	MeshOther        = "other_path"
	MeshLowerFloor   = "lower_floor"
	MeshUpperFloor   = "upper_floor"

	MarkersGroup = "markers"
)

// FloorRotationX turns the SVG plane horizontal. It is applied once per
// floor group, never per mesh.
const FloorRotationX = -math.Pi / 2

// Mesh is a named, positioned geometry inside a floor group. Position and
// Scale are in the group's local (pre-rotation) frame.
type Mesh struct {
	Name      string     `json:"name"`
	Role      Role       `json:"role"`
	Geometry  *Geometry  `json:"geometry"`
	Position  mgl64.Vec3 `json:"position"`
	Scale     mgl64.Vec3 `json:"scale"`
	Visible   bool       `json:"visible"`
	FrontFace string     `json:"frontFace"`
}

// Matrix returns the mesh's local transform (translate * scale).
func (m *Mesh) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(m.Position[0], m.Position[1], m.Position[2]).
		Mul4(mgl64.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2]))
}

// Marker is a location label anchored above a floor.
type Marker struct {
	ID       string     `json:"id"`
	Label    string     `json:"label"`
	Kind     string     `json:"kind,omitempty"`
	Position mgl64.Vec3 `json:"position"`
}

// MarkerGroup is the nested container of a floor's location markers.
type MarkerGroup struct {
	Name    string   `json:"name"`
	Markers []Marker `json:"markers"`
}

// FloorGroup is the positioned container for one floor. It is pure data; a
// renderer decides how to draw it.
type FloorGroup struct {
	Name     string           `json:"name"`
	Position mgl64.Vec3       `json:"position"`
	Rotation mgl64.Vec3       `json:"rotation"`
	Visible  bool             `json:"visible"`
	Meshes   []*Mesh          `json:"meshes"`
	Markers  MarkerGroup      `json:"markers"`
	Warnings []svgdoc.Warning `json:"warnings,omitempty"`

	spec    document.FloorSpec
	stackY  float64
	focused bool
}

// Spec returns the floor spec the group was assembled from.
func (g *FloorGroup) Spec() document.FloorSpec { return g.spec }

// StackY returns the floor's vertical offset in the building.
func (g *FloorGroup) StackY() float64 { return g.stackY }

// Focused reports whether the floor is the one currently being edited.
func (g *FloorGroup) Focused() bool { return g.focused }

// Mesh returns the named child mesh, or nil.
func (g *FloorGroup) Mesh(name string) *Mesh {
	for _, m := range g.Meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (g *FloorGroup) rotationMatrix() mgl64.Mat4 {
	return mgl64.HomogRotate3DX(g.Rotation[0]).
		Mul4(mgl64.HomogRotate3DY(g.Rotation[1])).
		Mul4(mgl64.HomogRotate3DZ(g.Rotation[2]))
}

// Matrix returns the group's transform (translate * rotate).
func (g *FloorGroup) Matrix() mgl64.Mat4 {
	return mgl64.Translate3D(g.Position[0], g.Position[1], g.Position[2]).Mul4(g.rotationMatrix())
}

// MeshWorldMatrix returns the full transform of a child mesh.
func (g *FloorGroup) MeshWorldMatrix(m *Mesh) mgl64.Mat4 {
	return g.Matrix().Mul4(m.Matrix())
}

// LocalBounds returns the axis-aligned bounds of all meshes after the group
// rotation but before its translation. Always recomputed from geometry.
func (g *FloorGroup) LocalBounds() Box3 {
	rot := g.rotationMatrix()
	box := EmptyBox()
	for _, m := range g.Meshes {
		if m.Geometry == nil {
			continue
		}
		box = box.Union(m.Geometry.BoundingBox.Transform(rot.Mul4(m.Matrix())))
	}
	return box
}

// Bounds returns the world-space bounds of the group.
func (g *FloorGroup) Bounds() Box3 {
	b := g.LocalBounds()
	if b.IsEmpty() {
		return b
	}
	return Box3{Min: b.Min.Add(g.Position), Max: b.Max.Add(g.Position)}
}

// SetPosition applies a new horizontal offset. The centering translation is
// recomputed from the current geometry, then x is added and z subtracted.
func (g *FloorGroup) SetPosition(pos document.Position) {
	g.spec.Position = pos
	c := g.LocalBounds().Center()
	if g.LocalBounds().IsEmpty() {
		c = mgl64.Vec3{}
	}
	g.Position = mgl64.Vec3{-c[0] + pos.X, g.stackY, -c[2] - pos.Z}
}

// SetStackY moves the group to a new vertical offset.
func (g *FloorGroup) SetStackY(y float64) {
	g.stackY = y
	g.Position[1] = y
}

// SetFocused shows or hides the upper floor outline so a focused floor can be
// seen into.
func (g *FloorGroup) SetFocused(focused bool) {
	g.focused = focused
	if m := g.Mesh(MeshUpperFloor); m != nil {
		m.Visible = !focused
	}
}

// Clone copies the group and its meshes. Geometry buffers are shared and
// must be treated as read-only.
func (g *FloorGroup) Clone() *FloorGroup {
	out := *g
	out.Meshes = make([]*Mesh, len(g.Meshes))
	for i, m := range g.Meshes {
		mc := *m
		out.Meshes[i] = &mc
	}
	out.Markers.Markers = append([]Marker(nil), g.Markers.Markers...)
	out.Warnings = append([]svgdoc.Warning(nil), g.Warnings...)
	return &out
}
