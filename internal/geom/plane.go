// Package geom holds the 3D frame math shared by canvases and edit commands:
// planes, rotation decomposition and eye-ray reprojection between canvases.
package geom

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon bounds what is treated as zero in plane and rotation tests.
const Epsilon = 1e-9

var (
	ErrRayParallel = errors.New("eye ray is parallel to target plane")
	ErrDegenerate  = errors.New("degenerate projection")
)

// Plane is the set of points x with Normal·x + Offset = 0.
type Plane struct {
	Normal mgl64.Vec3
	Offset float64
}

// PlaneFromPoint builds the plane through point with the given normal.
func PlaneFromPoint(normal, point mgl64.Vec3) Plane {
	n := normal
	if l := n.Len(); l > Epsilon {
		n = n.Mul(1 / l)
	}
	return Plane{Normal: n, Offset: -n.Dot(point)}
}

// DotNormal returns the component of v along the plane normal.
func (p Plane) DotNormal(v mgl64.Vec3) float64 {
	return p.Normal.Dot(v)
}

// Distance returns the signed distance of point from the plane.
func (p Plane) Distance(point mgl64.Vec3) float64 {
	return p.Normal.Dot(point) + p.Offset
}

// AngleAxis decomposes a rotation quaternion into its angle (radians) and unit
// axis. The identity rotation reports angle 0 about +Z.
func AngleAxis(q mgl64.Quat) (float64, mgl64.Vec3) {
	if q.Len() < Epsilon {
		return 0, mgl64.Vec3{0, 0, 1}
	}
	q = q.Normalize()
	w := math.Max(-1, math.Min(1, q.W))
	angle := 2 * math.Acos(w)
	s := math.Sqrt(1 - w*w)
	if s < Epsilon {
		return 0, mgl64.Vec3{0, 0, 1}
	}
	return angle, q.V.Mul(1 / s)
}

// InverseRotation returns the rotation by the negated angle about the same
// axis as q.
func InverseRotation(q mgl64.Quat) mgl64.Quat {
	angle, axis := AngleAxis(q)
	return mgl64.QuatRotate(-angle, axis)
}

// Finite reports whether every component of v is a finite number.
func Finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
