package svgdoc

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// CurveDivisions is the number of line segments each bezier or arc segment is
// flattened into.
const CurveDivisions = 12

// SubPath is one continuous run of points produced by a moveto.
// Closed sub-paths do not repeat their first point at the end.
type SubPath struct {
	Points []orb.Point
	Closed bool
}

type pathParser struct {
	tokens []string
	pos    int

	out      []SubPath
	points   []orb.Point
	cur      orb.Point
	start    orb.Point
	lastCtrl orb.Point
	lastCmd  byte
}

// ParsePathData parses an SVG path "d" attribute into flattened sub-paths.
// Supports M, L, H, V, C, S, Q, T, A, Z in absolute and relative forms,
// including implicit command repetition.
func ParsePathData(d string) ([]SubPath, error) {
	p := &pathParser{tokens: tokenizePath(d)}
	if len(p.tokens) == 0 {
		return nil, nil
	}
	if c := p.tokens[0]; c != "M" && c != "m" {
		return nil, fmt.Errorf("path data must begin with moveto, got %q", c)
	}

	for p.pos < len(p.tokens) {
		tok := p.tokens[p.pos]
		var cmd byte
		if isNumber(tok) {
			// Implicit repeat; coordinates after a moveto are linetos.
			switch p.lastCmd {
			case 0, 'Z', 'z':
				return nil, fmt.Errorf("unexpected number %q at token %d", tok, p.pos)
			case 'M':
				cmd = 'L'
			case 'm':
				cmd = 'l'
			default:
				cmd = p.lastCmd
			}
		} else {
			cmd = tok[0]
			p.pos++
		}
		if err := p.command(cmd); err != nil {
			return nil, err
		}
	}
	p.flush(false)
	return p.out, nil
}

func (p *pathParser) command(cmd byte) error {
	relative := cmd >= 'a' && cmd <= 'z'
	upper := cmd
	if relative {
		upper = cmd - ('a' - 'A')
	}
	rel := func(pt orb.Point) orb.Point {
		if relative {
			return orb.Point{pt[0] + p.cur[0], pt[1] + p.cur[1]}
		}
		return pt
	}

	switch upper {
	case 'M':
		pts, ok := p.numbers(2)
		if !ok {
			return fmt.Errorf("moveto needs 2 coordinates")
		}
		p.flush(false)
		p.cur = rel(orb.Point{pts[0], pts[1]})
		p.start = p.cur
		p.points = []orb.Point{p.cur}
		p.lastCtrl = p.cur

	case 'L':
		pts, ok := p.numbers(2)
		if !ok {
			return fmt.Errorf("lineto needs 2 coordinates")
		}
		p.lineTo(rel(orb.Point{pts[0], pts[1]}))
		p.lastCtrl = p.cur

	case 'H':
		pts, ok := p.numbers(1)
		if !ok {
			return fmt.Errorf("horizontal lineto needs 1 coordinate")
		}
		x := pts[0]
		if relative {
			x += p.cur[0]
		}
		p.lineTo(orb.Point{x, p.cur[1]})
		p.lastCtrl = p.cur

	case 'V':
		pts, ok := p.numbers(1)
		if !ok {
			return fmt.Errorf("vertical lineto needs 1 coordinate")
		}
		y := pts[0]
		if relative {
			y += p.cur[1]
		}
		p.lineTo(orb.Point{p.cur[0], y})
		p.lastCtrl = p.cur

	case 'C':
		pts, ok := p.numbers(6)
		if !ok {
			return fmt.Errorf("curveto needs 6 coordinates")
		}
		c1 := rel(orb.Point{pts[0], pts[1]})
		c2 := rel(orb.Point{pts[2], pts[3]})
		end := rel(orb.Point{pts[4], pts[5]})
		p.appendCurve(cubicBezier(p.cur, c1, c2, end, CurveDivisions))
		p.cur, p.lastCtrl = end, c2

	case 'S':
		pts, ok := p.numbers(4)
		if !ok {
			return fmt.Errorf("smooth curveto needs 4 coordinates")
		}
		c1 := p.reflectCtrl('C', 'S')
		c2 := rel(orb.Point{pts[0], pts[1]})
		end := rel(orb.Point{pts[2], pts[3]})
		p.appendCurve(cubicBezier(p.cur, c1, c2, end, CurveDivisions))
		p.cur, p.lastCtrl = end, c2

	case 'Q':
		pts, ok := p.numbers(4)
		if !ok {
			return fmt.Errorf("quadratic curveto needs 4 coordinates")
		}
		c := rel(orb.Point{pts[0], pts[1]})
		end := rel(orb.Point{pts[2], pts[3]})
		p.appendCurve(quadBezier(p.cur, c, end, CurveDivisions))
		p.cur, p.lastCtrl = end, c

	case 'T':
		pts, ok := p.numbers(2)
		if !ok {
			return fmt.Errorf("smooth quadratic curveto needs 2 coordinates")
		}
		c := p.reflectCtrl('Q', 'T')
		end := rel(orb.Point{pts[0], pts[1]})
		p.appendCurve(quadBezier(p.cur, c, end, CurveDivisions))
		p.cur, p.lastCtrl = end, c

	case 'A':
		pts, ok := p.numbers(7)
		if !ok {
			return fmt.Errorf("arc needs 7 parameters")
		}
		end := rel(orb.Point{pts[5], pts[6]})
		p.appendCurve(arcPoints(p.cur, pts[0], pts[1], pts[2], pts[3] != 0, pts[4] != 0, end, CurveDivisions))
		p.cur, p.lastCtrl = end, end

	case 'Z':
		p.flush(true)
		p.cur = p.start
		p.lastCtrl = p.cur

	default:
		return fmt.Errorf("unsupported path command %q", string(cmd))
	}

	p.lastCmd = cmd
	return nil
}

// reflectCtrl returns the reflection of the previous control point when the
// previous command was one of the given curve kinds, otherwise the current point.
func (p *pathParser) reflectCtrl(kinds ...byte) orb.Point {
	prev := p.lastCmd
	if prev >= 'a' && prev <= 'z' {
		prev -= 'a' - 'A'
	}
	for _, k := range kinds {
		if prev == k {
			return orb.Point{2*p.cur[0] - p.lastCtrl[0], 2*p.cur[1] - p.lastCtrl[1]}
		}
	}
	return p.cur
}

func (p *pathParser) lineTo(pt orb.Point) {
	if p.points == nil {
		// Drawing after a closepath starts a new sub-path at the previous start.
		p.points = []orb.Point{p.start}
	}
	p.points = append(p.points, pt)
	p.cur = pt
}

func (p *pathParser) appendCurve(pts []orb.Point) {
	if p.points == nil {
		p.points = []orb.Point{p.start}
	}
	if len(pts) > 0 {
		// The first sample repeats the current point.
		p.points = append(p.points, pts[1:]...)
	}
}

func (p *pathParser) flush(closed bool) {
	if len(p.points) == 0 {
		p.points = nil
		return
	}
	pts := p.points
	if closed && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	p.out = append(p.out, SubPath{Points: pts, Closed: closed})
	p.points = nil
}

func (p *pathParser) numbers(n int) ([]float64, bool) {
	if p.pos+n > len(p.tokens) {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		tok := p.tokens[p.pos+i]
		if !isNumber(tok) {
			return nil, false
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	p.pos += n
	return out, true
}

// tokenizePath splits a path "d" attribute into command letters and numbers.
func tokenizePath(d string) []string {
	var tokens []string
	var current strings.Builder
	hasDot, hasExp := false, false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
		hasDot, hasExp = false, false
	}

	for i := 0; i < len(d); i++ {
		c := d[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			flush()
		case c == 'e' || c == 'E':
			if current.Len() > 0 && !hasExp {
				current.WriteByte(c)
				hasExp = true
				continue
			}
			flush()
			tokens = append(tokens, string(c))
		case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
			flush()
			tokens = append(tokens, string(c))
		case c == '-' || c == '+':
			if current.Len() > 0 {
				s := current.String()
				last := s[len(s)-1]
				if last != 'e' && last != 'E' {
					flush()
				}
			}
			current.WriteByte(c)
		case c == '.':
			if hasDot || hasExp {
				flush()
			}
			current.WriteByte(c)
			hasDot = true
		default:
			current.WriteByte(c)
		}
	}
	flush()

	return tokens
}

func isNumber(s string) bool {
	if len(s) == 0 {
		return false
	}
	c := s[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '.' || c == '+'
}

func cubicBezier(p0, p1, p2, p3 orb.Point, segments int) []orb.Point {
	pts := make([]orb.Point, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		mt := 1 - t
		a := mt * mt * mt
		b := 3 * mt * mt * t
		c := 3 * mt * t * t
		d := t * t * t
		pts[i] = orb.Point{
			a*p0[0] + b*p1[0] + c*p2[0] + d*p3[0],
			a*p0[1] + b*p1[1] + c*p2[1] + d*p3[1],
		}
	}
	pts[segments] = p3
	return pts
}

func quadBezier(p0, p1, p2 orb.Point, segments int) []orb.Point {
	pts := make([]orb.Point, segments+1)
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		mt := 1 - t
		pts[i] = orb.Point{
			mt*mt*p0[0] + 2*mt*t*p1[0] + t*t*p2[0],
			mt*mt*p0[1] + 2*mt*t*p1[1] + t*t*p2[1],
		}
	}
	pts[segments] = p2
	return pts
}

// arcPoints flattens an SVG elliptical arc using the endpoint-to-center
// conversion from the SVG implementation notes. The returned slice starts at
// the current point.
func arcPoints(from orb.Point, rx, ry, xRotDeg float64, largeArc, sweep bool, to orb.Point, segments int) []orb.Point {
	if from == to {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []orb.Point{from, to}
	}

	phi := xRotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx2 := (from[0] - to[0]) / 2
	dy2 := (from[1] - to[1]) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	if lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := 0.0
	if den != 0 {
		coef = math.Sqrt(math.Max(0, num/den))
	}
	if largeArc == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := coef * -ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (from[0]+to[0])/2
	cy := sinPhi*cxp + cosPhi*cyp + (from[1]+to[1])/2

	ux, uy := (x1p-cxp)/rx, (y1p-cyp)/ry
	vx, vy := (-x1p-cxp)/rx, (-y1p-cyp)/ry
	theta1 := vectorAngle(1, 0, ux, uy)
	dTheta := vectorAngle(ux, uy, vx, vy)
	if !sweep && dTheta > 0 {
		dTheta -= 2 * math.Pi
	} else if sweep && dTheta < 0 {
		dTheta += 2 * math.Pi
	}

	pts := make([]orb.Point, segments+1)
	pts[0] = from
	for i := 1; i <= segments; i++ {
		t := theta1 + dTheta*float64(i)/float64(segments)
		cosT, sinT := math.Cos(t), math.Sin(t)
		pts[i] = orb.Point{
			cx + rx*cosT*cosPhi - ry*sinT*sinPhi,
			cy + rx*cosT*sinPhi + ry*sinT*cosPhi,
		}
	}
	pts[segments] = to
	return pts
}

func vectorAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}
