package geom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Frame is an oriented planar coordinate system placed in world space.
type Frame interface {
	Transform() mgl64.Mat4
	Plane() Plane
	Center() mgl64.Vec3
}

// Reproject re-expresses points local to src in the local frame of dst so that
// each one lies on the eye ray through its original world position. The z
// component of every result is exactly zero.
//
// The operation is all-or-nothing: if any ray misses the target plane, or the
// target transform cannot be inverted, no points are returned.
func Reproject(points []mgl64.Vec3, src, dst Frame, eye mgl64.Vec3) ([]mgl64.Vec3, error) {
	target := dst.Transform()
	if math.Abs(target.Det()) < Epsilon {
		return nil, fmt.Errorf("%w: target transform is singular", ErrDegenerate)
	}

	m := src.Transform()
	inv := target.Inv()
	plane := dst.Plane()
	center := dst.Center()

	out := make([]mgl64.Vec3, len(points))
	for i, p := range points {
		q, err := reprojectPoint(p, m, inv, plane, center, eye)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		out[i] = q
	}
	return out, nil
}

func reprojectPoint(p mgl64.Vec3, m, inv mgl64.Mat4, plane Plane, center, eye mgl64.Vec3) (mgl64.Vec3, error) {
	world := mgl64.TransformCoordinate(p, m)
	dir := world.Sub(eye)

	denom := plane.DotNormal(dir)
	if math.Abs(denom) <= Epsilon {
		return mgl64.Vec3{}, ErrRayParallel
	}
	t := plane.DotNormal(center.Sub(world)) / denom

	hit := world.Add(dir.Mul(t))
	local := mgl64.TransformCoordinate(hit, inv)
	local[2] = 0
	if !Finite(local) {
		return mgl64.Vec3{}, ErrDegenerate
	}
	return local, nil
}
