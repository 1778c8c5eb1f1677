package engine

import (
	"encoding/json"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Geometry is a triangle mesh buffer. Positions, normals and uvs are flat
// attribute arrays (3, 3 and 2 floats per vertex). When Indices is nil the
// mesh is non-indexed and every three vertices form a triangle.
type Geometry struct {
	Positions []float32 `json:"positions"`
	Normals   []float32 `json:"normals,omitempty"`
	UVs       []float32 `json:"uvs,omitempty"`
	Indices   []uint32  `json:"indices,omitempty"`

	BoundingBox    Box3   `json:"boundingBox"`
	BoundingSphere Sphere `json:"boundingSphere"`
}

// NewGeometry returns an empty geometry with empty bounds.
func NewGeometry() *Geometry {
	return &Geometry{
		BoundingBox:    EmptyBox(),
		BoundingSphere: Sphere{Radius: -1},
	}
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g == nil {
		return 0
	}
	return len(g.Positions) / 3
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	if g == nil {
		return 0
	}
	if g.Indices != nil {
		return len(g.Indices) / 3
	}
	return g.VertexCount() / 3
}

// IsEmpty returns true if the geometry has no vertices.
func (g *Geometry) IsEmpty() bool {
	return g.VertexCount() == 0
}

// Indexed reports whether triangles are described by an index buffer.
func (g *Geometry) Indexed() bool {
	return g != nil && g.Indices != nil
}

// Vertex returns the position of vertex i.
func (g *Geometry) Vertex(i int) mgl64.Vec3 {
	return mgl64.Vec3{
		float64(g.Positions[3*i]),
		float64(g.Positions[3*i+1]),
		float64(g.Positions[3*i+2]),
	}
}

func (g *Geometry) addVertex(p mgl64.Vec3, n mgl64.Vec3, u, v float64) {
	g.Positions = append(g.Positions, float32(p[0]), float32(p[1]), float32(p[2]))
	g.Normals = append(g.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	g.UVs = append(g.UVs, float32(u), float32(v))
}

// ComputeBoundingBox recomputes the axis-aligned bounds from positions.
func (g *Geometry) ComputeBoundingBox() {
	box := EmptyBox()
	for i := 0; i < g.VertexCount(); i++ {
		box = box.ExpandByPoint(g.Vertex(i))
	}
	g.BoundingBox = box
}

// ComputeBoundingSphere recomputes the bounding sphere. The center is the
// bounding box center and the radius the largest distance to any vertex.
// An empty geometry gets radius -1.
func (g *Geometry) ComputeBoundingSphere() {
	if g.IsEmpty() {
		g.BoundingSphere = Sphere{Radius: -1}
		return
	}
	box := EmptyBox()
	for i := 0; i < g.VertexCount(); i++ {
		box = box.ExpandByPoint(g.Vertex(i))
	}
	center := box.Center()
	maxSq := 0.0
	for i := 0; i < g.VertexCount(); i++ {
		d := g.Vertex(i).Sub(center)
		maxSq = math.Max(maxSq, d.Dot(d))
	}
	g.BoundingSphere = Sphere{Center: center, Radius: math.Sqrt(maxSq)}
}

// ComputeBounds recomputes both the bounding box and sphere.
func (g *Geometry) ComputeBounds() {
	g.ComputeBoundingBox()
	g.ComputeBoundingSphere()
}

// ComputeVertexNormals assigns per-vertex normals. Non-indexed meshes get
// the face normal on each of a triangle's vertices; indexed meshes average
// the normals of the faces sharing a vertex.
func (g *Geometry) ComputeVertexNormals() {
	n := g.VertexCount()
	acc := make([]mgl64.Vec3, n)
	face := func(a, b, c int) {
		pa, pb, pc := g.Vertex(a), g.Vertex(b), g.Vertex(c)
		fn := pc.Sub(pb).Cross(pa.Sub(pb))
		acc[a] = acc[a].Add(fn)
		acc[b] = acc[b].Add(fn)
		acc[c] = acc[c].Add(fn)
	}
	if g.Indices != nil {
		for i := 0; i+2 < len(g.Indices); i += 3 {
			face(int(g.Indices[i]), int(g.Indices[i+1]), int(g.Indices[i+2]))
		}
	} else {
		for i := 0; i+2 < n; i += 3 {
			face(i, i+1, i+2)
		}
	}

	g.Normals = make([]float32, 3*n)
	for i, v := range acc {
		if l := v.Len(); l > 0 {
			v = v.Mul(1 / l)
		}
		g.Normals[3*i] = float32(v[0])
		g.Normals[3*i+1] = float32(v[1])
		g.Normals[3*i+2] = float32(v[2])
	}
}

// ToNonIndexed expands an indexed geometry so every triangle has its own
// three vertices. Non-indexed geometry is returned as a copy.
func (g *Geometry) ToNonIndexed() *Geometry {
	if g.Indices == nil {
		return g.Clone()
	}
	out := &Geometry{
		Positions:      make([]float32, 0, 3*len(g.Indices)),
		BoundingBox:    g.BoundingBox,
		BoundingSphere: g.BoundingSphere,
	}
	if g.Normals != nil {
		out.Normals = make([]float32, 0, 3*len(g.Indices))
	}
	if g.UVs != nil {
		out.UVs = make([]float32, 0, 2*len(g.Indices))
	}
	for _, idx := range g.Indices {
		i := int(idx)
		out.Positions = append(out.Positions, g.Positions[3*i:3*i+3]...)
		if g.Normals != nil {
			out.Normals = append(out.Normals, g.Normals[3*i:3*i+3]...)
		}
		if g.UVs != nil {
			out.UVs = append(out.UVs, g.UVs[2*i:2*i+2]...)
		}
	}
	return out
}

// Clone returns a deep copy.
func (g *Geometry) Clone() *Geometry {
	return &Geometry{
		Positions:      cloneFloats(g.Positions),
		Normals:        cloneFloats(g.Normals),
		UVs:            cloneFloats(g.UVs),
		Indices:        cloneIndices(g.Indices),
		BoundingBox:    g.BoundingBox,
		BoundingSphere: g.BoundingSphere,
	}
}

func cloneFloats(s []float32) []float32 {
	if s == nil {
		return nil
	}
	return append(make([]float32, 0, len(s)), s...)
}

func cloneIndices(s []uint32) []uint32 {
	if s == nil {
		return nil
	}
	return append(make([]uint32, 0, len(s)), s...)
}

// Box3 is an axis-aligned bounding box. A box with Min > Max on any axis is
// empty.
type Box3 struct {
	Min mgl64.Vec3 `json:"min"`
	Max mgl64.Vec3 `json:"max"`
}

// EmptyBox returns a box that contains nothing.
func EmptyBox() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: mgl64.Vec3{inf, inf, inf},
		Max: mgl64.Vec3{-inf, -inf, -inf},
	}
}

// IsEmpty checks if the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint returns the smallest box containing b and p.
func (b Box3) ExpandByPoint(p mgl64.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = math.Min(b.Min[i], p[i])
		b.Max[i] = math.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing both boxes.
func (b Box3) Union(other Box3) Box3 {
	if b.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return b
	}
	return b.ExpandByPoint(other.Min).ExpandByPoint(other.Max)
}

// Center returns the center point of the box.
func (b Box3) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent on each axis.
func (b Box3) Size() mgl64.Vec3 {
	if b.IsEmpty() {
		return mgl64.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// Corners returns the eight corner points.
func (b Box3) Corners() [8]mgl64.Vec3 {
	return [8]mgl64.Vec3{
		{b.Min[0], b.Min[1], b.Min[2]},
		{b.Min[0], b.Min[1], b.Max[2]},
		{b.Min[0], b.Max[1], b.Min[2]},
		{b.Min[0], b.Max[1], b.Max[2]},
		{b.Max[0], b.Min[1], b.Min[2]},
		{b.Max[0], b.Min[1], b.Max[2]},
		{b.Max[0], b.Max[1], b.Min[2]},
		{b.Max[0], b.Max[1], b.Max[2]},
	}
}

// Transform returns the axis-aligned bounds of the box after applying m.
func (b Box3) Transform(m mgl64.Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for _, c := range b.Corners() {
		out = out.ExpandByPoint(mgl64.TransformCoordinate(c, m))
	}
	return out
}

type boxJSON struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// MarshalJSON encodes an empty box as null since its infinite bounds have no
// JSON representation.
func (b Box3) MarshalJSON() ([]byte, error) {
	if b.IsEmpty() {
		return []byte("null"), nil
	}
	return json.Marshal(boxJSON{Min: b.Min, Max: b.Max})
}

func (b *Box3) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = EmptyBox()
		return nil
	}
	var v boxJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	b.Min, b.Max = v.Min, v.Max
	return nil
}

// Sphere is a bounding sphere. A negative radius means empty.
type Sphere struct {
	Center mgl64.Vec3 `json:"center"`
	Radius float64    `json:"radius"`
}

// IsEmpty reports whether the sphere bounds nothing.
func (s Sphere) IsEmpty() bool {
	return s.Radius < 0
}
