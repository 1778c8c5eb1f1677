package svgdoc

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// Matrix2D represents a 2D affine transformation matrix.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
//
// This is the same ordering SVG uses for matrix(a b c d e f).
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// RotateDegrees returns a rotation matrix (angle in degrees, SVG convention).
func RotateDegrees(degrees float64) Matrix2D {
	rad := degrees * math.Pi / 180.0
	cos := math.Cos(rad)
	sin := math.Sin(rad)
	return Matrix2D{cos, sin, -sin, cos, 0, 0}
}

// Multiply multiplies this matrix by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p orb.Point) orb.Point {
	return orb.Point{m[0]*p[0] + m[2]*p[1] + m[4], m[1]*p[0] + m[3]*p[1] + m[5]}
}

// ScaleFactor returns the geometric mean of the axis scales, used to carry
// stroke widths through non-uniform transforms.
func (m Matrix2D) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m[0]*m[3] - m[1]*m[2]))
}

// IsIdentity checks if this is the identity matrix (within epsilon).
func (m Matrix2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}

// ParseTransform parses an SVG transform attribute such as
// "translate(10 20) rotate(45) scale(2)". Functions compose left to right.
// Unknown functions are ignored.
func ParseTransform(s string) Matrix2D {
	result := Identity()
	s = strings.TrimSpace(s)
	for s != "" {
		open := strings.IndexByte(s, '(')
		closeIdx := strings.IndexByte(s, ')')
		if open < 0 || closeIdx < open {
			break
		}
		name := strings.TrimSpace(strings.Trim(s[:open], ", \t\n"))
		args := parseNumberList(s[open+1 : closeIdx])
		s = strings.TrimSpace(s[closeIdx+1:])

		var m Matrix2D
		switch name {
		case "matrix":
			if len(args) != 6 {
				continue
			}
			m = Matrix2D{args[0], args[1], args[2], args[3], args[4], args[5]}
		case "translate":
			switch len(args) {
			case 1:
				m = Translate(args[0], 0)
			case 2:
				m = Translate(args[0], args[1])
			default:
				continue
			}
		case "scale":
			switch len(args) {
			case 1:
				m = Scale(args[0], args[0])
			case 2:
				m = Scale(args[0], args[1])
			default:
				continue
			}
		case "rotate":
			switch len(args) {
			case 1:
				m = RotateDegrees(args[0])
			case 3:
				m = Translate(args[1], args[2]).
					Multiply(RotateDegrees(args[0])).
					Multiply(Translate(-args[1], -args[2]))
			default:
				continue
			}
		case "skewX":
			if len(args) != 1 {
				continue
			}
			m = Matrix2D{1, 0, math.Tan(args[0] * math.Pi / 180), 1, 0, 0}
		case "skewY":
			if len(args) != 1 {
				continue
			}
			m = Matrix2D{1, math.Tan(args[0] * math.Pi / 180), 0, 1, 0, 0}
		default:
			continue
		}
		result = result.Multiply(m)
	}
	return result
}

func parseNumberList(s string) []float64 {
	var out []float64
	for _, tok := range tokenizePath(s) {
		if !isNumber(tok) {
			continue
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
