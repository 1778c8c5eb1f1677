package engine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Easing names an interpolation curve for camera moves between floors.
type Easing string

const (
	EasingLinear     Easing = "linear"
	EasingEaseIn     Easing = "easeIn"
	EasingEaseOut    Easing = "easeOut"
	EasingEaseInOut  Easing = "easeInOut"
	EasingCubicIn    Easing = "cubicIn"
	EasingCubicOut   Easing = "cubicOut"
	EasingCubicInOut Easing = "cubicInOut"
	EasingBackOut    Easing = "backOut"
	EasingElasticOut Easing = "elasticOut"
	EasingBounceOut  Easing = "bounceOut"
)

// DefaultCameraEase is used when a move does not name an easing.
const DefaultCameraEase = EasingCubicInOut

// applyEasing maps a linear factor t (0-1) onto the easing curve.
func applyEasing(t float64, easing Easing) float64 {
	switch easing {
	case EasingEaseIn:
		return t * t

	case EasingEaseOut:
		return t * (2 - t)

	case EasingEaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t

	case EasingCubicIn:
		return t * t * t

	case EasingCubicOut:
		t2 := 1 - t
		return 1 - t2*t2*t2

	case EasingCubicInOut:
		if t < 0.5 {
			return 4 * t * t * t
		}
		t2 := -2*t + 2
		return 1 - t2*t2*t2/2

	case EasingBackOut:
		c1 := 1.70158
		c3 := c1 + 1
		t2 := t - 1
		return 1 + c3*t2*t2*t2 + c1*t2*t2

	case EasingElasticOut:
		if t == 0 || t == 1 {
			return t
		}
		c4 := (2 * math.Pi) / 3
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1

	case EasingBounceOut:
		return bounceOut(t)

	default: // linear
		return t
	}
}

func bounceOut(t float64) float64 {
	n1 := 7.5625
	d1 := 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	} else {
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// CameraMove interpolates the camera between two floor targets.
type CameraMove struct {
	From   CameraTarget `json:"from"`
	To     CameraTarget `json:"to"`
	Frames int          `json:"frames"`
	Easing Easing       `json:"easing"`
}

// At returns the interpolated target at frame. Frames before the start hold
// From and frames past the end hold To.
func (c CameraMove) At(frame int) CameraTarget {
	if c.Frames <= 0 || frame >= c.Frames {
		return c.To
	}
	if frame <= 0 {
		return c.From
	}
	easing := c.Easing
	if easing == "" {
		easing = DefaultCameraEase
	}
	t := applyEasing(float64(frame)/float64(c.Frames), easing)

	out := c.To
	out.Center = lerpVec(c.From.Center, c.To.Center, t)
	out.Height = c.From.Height + (c.To.Height-c.From.Height)*t
	out.Radius = c.From.Radius + (c.To.Radius-c.From.Radius)*t
	return out
}

func lerpVec(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

// EyePosition places the camera above and behind a target so the whole floor
// fits a vertical field of view (radians).
func (t CameraTarget) EyePosition(fov float64) mgl64.Vec3 {
	r := t.Radius
	if r <= 0 {
		r = 1
	}
	dist := r / math.Sin(fov/2)
	// 45 degrees above the horizon, looking toward -z.
	d := dist / math.Sqrt2
	return t.Center.Add(mgl64.Vec3{0, d, d})
}

// ViewMatrix returns a look-at matrix for framing the target.
func (t CameraTarget) ViewMatrix(fov float64) mgl64.Mat4 {
	eye := t.EyePosition(fov)
	return mgl64.LookAtV(eye, t.Center, mgl64.Vec3{0, 1, 0})
}
