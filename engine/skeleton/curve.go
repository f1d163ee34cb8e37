package skeleton

// CurveType selects how a keyframe segment is interpolated.
type CurveType uint8

const (
	CurveLinear CurveType = iota
	CurveStepped
	CurveBezier
)

// Curve describes the interpolation from one keyframe to the next.
// Bezier control points are normalized so that time and value both run from 0 to 1.
type Curve struct {
	Type     CurveType
	CX1, CY1 float32
	CX2, CY2 float32
}

// Linear is the default segment curve.
var Linear = Curve{Type: CurveLinear}

// Stepped holds the first keyframe's value until the next keyframe.
var Stepped = Curve{Type: CurveStepped}

// NewBezier creates a cubic bezier curve from normalized control points.
func NewBezier(cx1, cy1, cx2, cy2 float32) Curve {
	return Curve{Type: CurveBezier, CX1: cx1, CY1: cy1, CX2: cx2, CY2: cy2}
}

const bezierIterations = 16

// Apply maps a linear segment progress in [0, 1] to an eased progress.
func (c Curve) Apply(t float32) float32 {
	switch c.Type {
	case CurveStepped:
		return 0
	case CurveBezier:
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		lo, hi := float32(0), float32(1)
		s := t
		for i := 0; i < bezierIterations; i++ {
			x := bezier(s, c.CX1, c.CX2)
			if x < t {
				lo = s
			} else {
				hi = s
			}
			s = (lo + hi) / 2
		}
		return bezier(s, c.CY1, c.CY2)
	default:
		return t
	}
}

// bezier evaluates a 1D cubic with endpoints 0 and 1 and control points p1 and p2.
func bezier(s, p1, p2 float32) float32 {
	inv := 1 - s
	return 3*inv*inv*s*p1 + 3*inv*s*s*p2 + s*s*s
}
