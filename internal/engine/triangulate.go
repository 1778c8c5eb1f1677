package engine

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// Shape is a simple polygon with optional holes. Outer is counter-clockwise
// and holes are clockwise; rings are implicitly closed.
type Shape struct {
	Outer []orb.Point
	Holes [][]orb.Point
}

const areaEpsilon = 1e-9

// ShapesFromRings groups rings into shapes using containment parity: a ring
// nested inside an odd number of other rings is a hole of its innermost
// container. Degenerate rings (fewer than three distinct points or zero area)
// are dropped. Output order follows the input order of the outer rings.
func ShapesFromRings(rings [][]orb.Point) []Shape {
	type ringInfo struct {
		ring  orb.Ring
		area  float64
		depth int
		owner int
	}

	infos := make([]ringInfo, 0, len(rings))
	for _, pts := range rings {
		r := cleanRing(pts)
		if r == nil {
			continue
		}
		infos = append(infos, ringInfo{ring: r, area: math.Abs(signedArea(r)), owner: -1})
	}

	for i := range infos {
		probe := infos[i].ring[0]
		smallest := -1
		for j := range infos {
			if i == j || infos[j].area <= infos[i].area {
				continue
			}
			if !planar.RingContains(infos[j].ring, probe) {
				continue
			}
			infos[i].depth++
			if smallest < 0 || infos[j].area < infos[smallest].area {
				smallest = j
			}
		}
		infos[i].owner = smallest
	}

	var shapes []Shape
	outerIndex := make(map[int]int)
	for i, info := range infos {
		if info.depth%2 != 0 {
			continue
		}
		outerIndex[i] = len(shapes)
		shapes = append(shapes, Shape{Outer: orient(info.ring, orb.CCW)})
	}
	for _, info := range infos {
		if info.depth%2 == 0 || info.owner < 0 {
			continue
		}
		if si, ok := outerIndex[info.owner]; ok {
			shapes[si].Holes = append(shapes[si].Holes, orient(info.ring, orb.CW))
		}
	}
	return shapes
}

// cleanRing drops repeated and collinear points and returns an open ring, or
// nil when nothing with area remains.
func cleanRing(pts []orb.Point) orb.Ring {
	if len(pts) < 3 {
		return nil
	}
	ls := make(orb.LineString, 0, len(pts)+1)
	for _, p := range pts {
		if len(ls) > 0 && ls[len(ls)-1] == p {
			continue
		}
		ls = append(ls, p)
	}
	if len(ls) > 1 && ls[0] == ls[len(ls)-1] {
		ls = ls[:len(ls)-1]
	}
	if len(ls) < 3 {
		return nil
	}
	ls = append(ls, ls[0])

	simplified, ok := simplify.DouglasPeucker(areaEpsilon).Simplify(ls.Clone()).(orb.LineString)
	if !ok || len(simplified) < 4 {
		return nil
	}
	ring := orb.Ring(simplified[:len(simplified)-1])
	if math.Abs(signedArea(ring)) < areaEpsilon {
		return nil
	}
	return ring
}

// orient returns an open ring wound in the requested direction (y up).
func orient(r orb.Ring, want orb.Orientation) []orb.Point {
	out := append([]orb.Point(nil), r...)
	closed := append(orb.Ring(append([]orb.Point(nil), r...)), r[0])
	if closed.Orientation() != want {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// signedArea is positive for counter-clockwise rings (y up).
func signedArea(pts []orb.Point) float64 {
	var a float64
	for i := range pts {
		j := (i + 1) % len(pts)
		a += pts[i][0]*pts[j][1] - pts[j][0]*pts[i][1]
	}
	return a / 2
}

// Triangulate ear-clips a shape into counter-clockwise triangles. Holes are
// first bridged into the outer ring. The result holds three points per
// triangle.
func Triangulate(s Shape) []orb.Point {
	if len(s.Outer) < 3 {
		return nil
	}
	poly := append([]orb.Point(nil), s.Outer...)
	if signedArea(poly) < 0 {
		reverse(poly)
	}

	holes := make([][]orb.Point, 0, len(s.Holes))
	for _, h := range s.Holes {
		if len(h) < 3 {
			continue
		}
		h = append([]orb.Point(nil), h...)
		if signedArea(h) > 0 {
			reverse(h)
		}
		holes = append(holes, h)
	}
	// Bridge holes right to left so earlier bridges never cross later holes.
	sort.SliceStable(holes, func(i, j int) bool {
		return maxX(holes[i]) > maxX(holes[j])
	})
	for _, h := range holes {
		poly = bridgeHole(poly, h)
	}

	return earClip(poly)
}

func earClip(pts []orb.Point) []orb.Point {
	n := len(pts)
	if n < 3 {
		return nil
	}

	V := make([]int, n)
	for i := range V {
		V[i] = i
	}

	out := make([]orb.Point, 0, 3*(n-2))
	for len(V) > 2 {
		earFound := false
		for i := 0; i < len(V); i++ {
			i0 := V[(i+len(V)-1)%len(V)]
			i1 := V[i]
			i2 := V[(i+1)%len(V)]
			a, b, c := pts[i0], pts[i1], pts[i2]
			if cross(a, b, c) <= 0 {
				continue
			}

			contains := false
			for _, j := range V {
				if j == i0 || j == i1 || j == i2 {
					continue
				}
				p := pts[j]
				// Bridge seams duplicate vertices; a coincident point does not block an ear.
				if p == a || p == b || p == c {
					continue
				}
				if pointInTriangle(p, a, b, c) {
					contains = true
					break
				}
			}
			if contains {
				continue
			}

			out = append(out, a, b, c)
			V = append(V[:i], V[i+1:]...)
			earFound = true
			break
		}
		if earFound {
			continue
		}

		// No clean ear: drop the flattest vertex so clipping always makes progress.
		best, bestCross := 0, math.Inf(1)
		for i := range V {
			i0 := V[(i+len(V)-1)%len(V)]
			i2 := V[(i+1)%len(V)]
			if c := math.Abs(cross(pts[i0], pts[V[i]], pts[i2])); c < bestCross {
				best, bestCross = i, c
			}
		}
		i0 := V[(best+len(V)-1)%len(V)]
		i2 := V[(best+1)%len(V)]
		if c := cross(pts[i0], pts[V[best]], pts[i2]); c > areaEpsilon {
			out = append(out, pts[i0], pts[V[best]], pts[i2])
		}
		V = append(V[:best], V[best+1:]...)
	}
	return out
}

// bridgeHole splices a clockwise hole into a counter-clockwise polygon by
// connecting the hole's rightmost vertex to a visible polygon vertex.
func bridgeHole(poly, hole []orb.Point) []orb.Point {
	hi := 0
	for i, p := range hole {
		if p[0] > hole[hi][0] {
			hi = i
		}
	}
	m := hole[hi]

	// Cast a ray to +x and find the closest edge it hits.
	bestX := math.Inf(1)
	bestEdge := -1
	for i := range poly {
		a, b := poly[i], poly[(i+1)%len(poly)]
		if (a[1] > m[1]) == (b[1] > m[1]) {
			continue
		}
		x := a[0] + (m[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
		if x >= m[0] && x < bestX {
			bestX, bestEdge = x, i
		}
	}

	var pi int
	if bestEdge < 0 {
		// Hole not enclosed along the ray; fall back to the nearest vertex.
		pi = nearestVertex(poly, m)
	} else {
		a, b := poly[bestEdge], poly[(bestEdge+1)%len(poly)]
		pi = bestEdge
		if b[0] > a[0] {
			pi = (bestEdge + 1) % len(poly)
		}
		hit := orb.Point{bestX, m[1]}
		cand := poly[pi]

		// A reflex vertex inside the triangle (m, hit, cand) would block the
		// bridge; pick the one with the smallest angle to the ray instead.
		bestAngle := math.Inf(1)
		for i, p := range poly {
			if i == pi || p == cand {
				continue
			}
			if !pointInTriangle(p, m, hit, cand) {
				continue
			}
			angle := math.Abs(math.Atan2(p[1]-m[1], p[0]-m[0]))
			if angle < bestAngle {
				bestAngle, pi = angle, i
			}
		}
	}

	out := make([]orb.Point, 0, len(poly)+len(hole)+2)
	out = append(out, poly[:pi+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(hi+k)%len(hole)])
	}
	out = append(out, poly[pi])
	out = append(out, poly[pi+1:]...)
	return out
}

func nearestVertex(poly []orb.Point, p orb.Point) int {
	best, bestD := 0, math.Inf(1)
	for i, q := range poly {
		if d := planar.DistanceSquared(p, q); d < bestD {
			best, bestD = i, d
		}
	}
	return best
}

func cross(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func pointInTriangle(p, a, b, c orb.Point) bool {
	d1 := cross(a, b, p)
	d2 := cross(b, c, p)
	d3 := cross(c, a, p)
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func maxX(pts []orb.Point) float64 {
	m := math.Inf(-1)
	for _, p := range pts {
		m = math.Max(m, p[0])
	}
	return m
}

func reverse(pts []orb.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
