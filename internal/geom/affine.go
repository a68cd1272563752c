package geom

import "math"

// Affine2D represents a 2D affine transformation in canvas-local coordinates.
// Layout: [a, b, c, d, e, f] representing:
// | a  c  e |
// | b  d  f |
// | 0  0  1 |
type Affine2D [6]float64

// Identity returns the identity transform.
func Identity() Affine2D {
	return Affine2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation transform.
func Translate(tx, ty float64) Affine2D {
	return Affine2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale transform.
func Scale(sx, sy float64) Affine2D {
	return Affine2D{sx, 0, 0, sy, 0, 0}
}

// Rotate returns a rotation transform (angle in radians).
func Rotate(radians float64) Affine2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Affine2D{cos, sin, -sin, cos, 0, 0}
}

// About conjugates m so that it acts around (cx, cy) instead of the origin.
func About(m Affine2D, cx, cy float64) Affine2D {
	return Translate(cx, cy).Multiply(m).Multiply(Translate(-cx, -cy))
}

// Multiply multiplies this transform by another: result = m * other
// This applies 'other' first, then 'm'.
func (m Affine2D) Multiply(other Affine2D) Affine2D {
	return Affine2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// TransformPoint applies the transform to a point.
func (m Affine2D) TransformPoint(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Determinant returns the determinant of the linear part.
func (m Affine2D) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse transform, or Identity if not invertible.
func (m Affine2D) Invert() Affine2D {
	det := m.Determinant()
	if det == 0 {
		return Identity()
	}

	invDet := 1.0 / det
	return Affine2D{
		m[3] * invDet,
		-m[1] * invDet,
		-m[2] * invDet,
		m[0] * invDet,
		(m[2]*m[5] - m[3]*m[4]) * invDet,
		(m[1]*m[4] - m[0]*m[5]) * invDet,
	}
}

// Placement composes Translate(x, y) * Rotate(r) * Scale(sx, sy), the
// transform of an image centered at (x, y).
func Placement(x, y, sx, sy, radians float64) Affine2D {
	cos := math.Cos(radians)
	sin := math.Sin(radians)
	return Affine2D{cos * sx, sin * sx, -sin * sy, cos * sy, x, y}
}

// ToSlice returns the transform as a float64 slice for JSON serialization.
func (m Affine2D) ToSlice() []float64 {
	return []float64{m[0], m[1], m[2], m[3], m[4], m[5]}
}

// IsIdentity checks if this is the identity transform (within epsilon).
func (m Affine2D) IsIdentity() bool {
	const eps = 1e-10
	return math.Abs(m[0]-1) < eps &&
		math.Abs(m[1]) < eps &&
		math.Abs(m[2]) < eps &&
		math.Abs(m[3]-1) < eps &&
		math.Abs(m[4]) < eps &&
		math.Abs(m[5]) < eps
}
