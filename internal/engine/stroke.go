package engine

import (
	"math"

	"github.com/paulmach/orb"
)

// StrokeStyle controls how a polyline is widened into a ribbon.
type StrokeStyle struct {
	Width      float64
	Join       string // miter, round, bevel
	Cap        string // butt, round, square
	MiterLimit float64
}

const collinearThreshold = 1e-9

// StrokeTriangles widens a polyline into counter-clockwise triangles, three
// points per triangle. Sub-paths that collapse to a single point or have no
// width yield nil.
func StrokeTriangles(pts []orb.Point, closed bool, st StrokeStyle) []orb.Point {
	hw := st.Width / 2
	if hw <= 0 {
		return nil
	}
	pts = dedupePoints(pts)
	if closed && len(pts) > 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) < 2 {
		return nil
	}
	if len(pts) == 2 {
		closed = false
	}

	r := &ribbon{hw: hw, style: st}

	n := len(pts)
	segCount := n - 1
	if closed {
		segCount = n
	}
	dirs := make([]orb.Point, segCount)
	for i := 0; i < segCount; i++ {
		a, b := pts[i], pts[(i+1)%n]
		dirs[i] = unit(orb.Point{b[0] - a[0], b[1] - a[1]})
		nrm := orb.Point{-dirs[i][1], dirs[i][0]}
		a0, a1 := offset(a, nrm, hw), offset(a, nrm, -hw)
		b0, b1 := offset(b, nrm, hw), offset(b, nrm, -hw)
		r.tri(a1, b1, b0)
		r.tri(a1, b0, a0)
	}

	// Joins between consecutive segments.
	for i := 1; i < segCount; i++ {
		r.join(pts[i], dirs[i-1], dirs[i])
	}
	if closed {
		r.join(pts[0], dirs[segCount-1], dirs[0])
		return r.out
	}

	first, last := dirs[0], dirs[segCount-1]
	r.cap(pts[0], orb.Point{-first[0], -first[1]})
	r.cap(pts[n-1], last)
	return r.out
}

type ribbon struct {
	hw    float64
	style StrokeStyle
	out   []orb.Point
}

// tri appends a triangle, flipping it to counter-clockwise and dropping it
// when it has no area.
func (r *ribbon) tri(a, b, c orb.Point) {
	cr := cross(a, b, c)
	if math.Abs(cr) < collinearThreshold {
		return
	}
	if cr < 0 {
		b, c = c, b
	}
	r.out = append(r.out, a, b, c)
}

func (r *ribbon) join(p, d0, d1 orb.Point) {
	turn := d0[0]*d1[1] - d0[1]*d1[0]
	dot := d0[0]*d1[0] + d0[1]*d1[1]
	if math.Abs(turn) < collinearThreshold && dot > 0 {
		return
	}

	// The outer side of a left turn is the right-hand normal.
	n0 := orb.Point{-d0[1], d0[0]}
	n1 := orb.Point{-d1[1], d1[0]}
	if turn > 0 {
		n0 = orb.Point{-n0[0], -n0[1]}
		n1 = orb.Point{-n1[0], -n1[1]}
	}
	o0, o1 := offset(p, n0, r.hw), offset(p, n1, r.hw)

	switch r.style.Join {
	case "round":
		r.fan(p, n0, signedAngle(n0, n1))
	case "bevel":
		r.tri(p, o0, o1)
	default:
		mid := unit(orb.Point{n0[0] + n1[0], n0[1] + n1[1]})
		cosHalf := mid[0]*n0[0] + mid[1]*n0[1]
		limit := r.style.MiterLimit
		if limit <= 0 {
			limit = 4
		}
		if cosHalf <= 0 || 1/cosHalf > limit {
			r.tri(p, o0, o1)
			return
		}
		tip := offset(p, mid, r.hw/cosHalf)
		r.tri(p, o0, tip)
		r.tri(p, tip, o1)
	}
}

// cap closes an open end at p; out points away from the line.
func (r *ribbon) cap(p, out orb.Point) {
	nrm := orb.Point{-out[1], out[0]}
	switch r.style.Cap {
	case "square":
		ext := offset(p, out, r.hw)
		a, b := offset(p, nrm, r.hw), offset(p, nrm, -r.hw)
		c, d := offset(ext, nrm, -r.hw), offset(ext, nrm, r.hw)
		r.tri(a, b, c)
		r.tri(a, c, d)
	case "round":
		r.fan(p, nrm, -math.Pi)
	}
}

// fan appends a triangle fan around center starting at direction from and
// sweeping by the given signed angle.
func (r *ribbon) fan(center, from orb.Point, sweep float64) {
	steps := int(math.Ceil(math.Abs(sweep) / (math.Pi / 8)))
	if steps < 1 {
		return
	}
	start := math.Atan2(from[1], from[0])
	prev := offset(center, from, r.hw)
	for i := 1; i <= steps; i++ {
		a := start + sweep*float64(i)/float64(steps)
		next := orb.Point{center[0] + r.hw*math.Cos(a), center[1] + r.hw*math.Sin(a)}
		r.tri(center, prev, next)
		prev = next
	}
}

func signedAngle(a, b orb.Point) float64 {
	return math.Atan2(a[0]*b[1]-a[1]*b[0], a[0]*b[0]+a[1]*b[1])
}

func unit(v orb.Point) orb.Point {
	l := math.Hypot(v[0], v[1])
	if l == 0 {
		return orb.Point{}
	}
	return orb.Point{v[0] / l, v[1] / l}
}

func offset(p, dir orb.Point, d float64) orb.Point {
	return orb.Point{p[0] + dir[0]*d, p[1] + dir[1]*d}
}

func dedupePoints(pts []orb.Point) []orb.Point {
	out := make([]orb.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}
