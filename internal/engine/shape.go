package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulmach/orb"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/johngerving/3D-Building-Map-sub000/internal/svgdoc"
)

var (
	upNormal   = mgl64.Vec3{0, 0, 1}
	downNormal = mgl64.Vec3{0, 0, -1}
)

// ShapesForPath converts every sub-path of a fill-bearing path into shapes.
// Open sub-paths are implicitly closed, as SVG does when filling.
func ShapesForPath(p *svgdoc.Path) []Shape {
	rings := make([][]orb.Point, 0, len(p.SubPaths))
	for _, sp := range p.SubPaths {
		rings = append(rings, sp.Points)
	}
	return ShapesFromRings(rings)
}

// ShapeGeometry triangulates shapes into a flat, non-indexed geometry on the
// z=0 plane facing +z. Returns nil if nothing could be triangulated.
func ShapeGeometry(shapes []Shape) *Geometry {
	g := NewGeometry()
	for _, s := range shapes {
		tris := Triangulate(s)
		for _, p := range tris {
			g.addVertex(mgl64.Vec3{p[0], p[1], 0}, upNormal, p[0], p[1])
		}
	}
	if g.IsEmpty() {
		return nil
	}
	g.ComputeBounds()
	return g
}

// StrokeGeometry builds a flat ribbon for one sub-path. Degenerate sub-paths
// (a single point, zero length or zero width) yield nil.
func StrokeGeometry(sp svgdoc.SubPath, style svgdoc.Style) *Geometry {
	if subPathLength(sp) == 0 {
		return nil
	}
	tris := StrokeTriangles(sp.Points, sp.Closed, StrokeStyle{
		Width:      style.StrokeWidth,
		Join:       style.LineJoin,
		Cap:        style.LineCap,
		MiterLimit: style.MiterLimit,
	})
	if len(tris) == 0 {
		return nil
	}
	g := NewGeometry()
	for _, p := range tris {
		g.addVertex(mgl64.Vec3{p[0], p[1], 0}, upNormal, p[0], p[1])
	}
	g.ComputeBounds()
	return g
}

// subPathLength returns the drawn length of a sub-path including the closing
// segment, or 0 when it has fewer than two distinct points.
func subPathLength(sp svgdoc.SubPath) float64 {
	pts := sp.Points
	if sp.Closed && len(pts) > 0 {
		pts = append(append([]orb.Point(nil), pts...), pts[0])
	}
	if len(pts) < 2 {
		return 0
	}
	coords := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		coords = append(coords, p[0], p[1])
	}
	ls, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return 0
	}
	return ls.Length()
}

// ExtrudeGeometry extrudes shapes from z=0 to z=depth with flat caps. The
// result is non-indexed with per-face normals.
func ExtrudeGeometry(shapes []Shape, depth float64) *Geometry {
	if depth <= 0 {
		return nil
	}
	g := NewGeometry()
	for _, s := range shapes {
		tris := Triangulate(s)
		if len(tris) == 0 {
			continue
		}

		// Bottom cap faces down, so its winding is reversed.
		for i := 0; i+2 < len(tris); i += 3 {
			for _, p := range []orb.Point{tris[i], tris[i+2], tris[i+1]} {
				g.addVertex(mgl64.Vec3{p[0], p[1], 0}, downNormal, p[0], p[1])
			}
		}
		for _, p := range tris {
			g.addVertex(mgl64.Vec3{p[0], p[1], depth}, upNormal, p[0], p[1])
		}

		sideWalls(g, s.Outer, depth)
		for _, h := range s.Holes {
			sideWalls(g, h, depth)
		}
	}
	if g.IsEmpty() {
		return nil
	}
	g.ComputeVertexNormals()
	g.ComputeBounds()
	return g
}

// sideWalls adds one quad per ring edge. For a counter-clockwise outer ring
// (or clockwise hole) the quads face away from the solid.
func sideWalls(g *Geometry, ring []orb.Point, depth float64) {
	var along float64
	for i := range ring {
		a, b := ring[i], ring[(i+1)%len(ring)]
		edge := math.Hypot(b[0]-a[0], b[1]-a[1])
		if edge == 0 {
			continue
		}
		a0 := mgl64.Vec3{a[0], a[1], 0}
		b0 := mgl64.Vec3{b[0], b[1], 0}
		b1 := mgl64.Vec3{b[0], b[1], depth}
		a1 := mgl64.Vec3{a[0], a[1], depth}
		n := b0.Sub(a0).Cross(a1.Sub(a0)).Normalize()

		u0, u1 := along, along+edge
		g.addVertex(a0, n, u0, 0)
		g.addVertex(b0, n, u1, 0)
		g.addVertex(b1, n, u1, depth)
		g.addVertex(a0, n, u0, 0)
		g.addVertex(b1, n, u1, depth)
		g.addVertex(a1, n, u0, depth)
		along = u1
	}
}
