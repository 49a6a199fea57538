package geo

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Ray is a half-line in 3D space starting at Origin and extending along
// Direction. Direction is normalized on construction.
type Ray struct {
	Origin    r3.Vector
	Direction r3.Vector
}

// NewRay creates a ray from an origin and a direction. The direction is
// normalized; a zero direction is kept as-is and yields a degenerate ray.
func NewRay(origin, direction r3.Vector) Ray {
	if direction.Norm2() > 0 {
		direction = direction.Normalize()
	}
	return Ray{Origin: origin, Direction: direction}
}

// String returns a human readable representation of the ray.
func (r Ray) String() string {
	return fmt.Sprintf("Ray(origin: %.2f %.2f %.2f, direction: %.2f %.2f %.2f)",
		r.Origin.X, r.Origin.Y, r.Origin.Z, r.Direction.X, r.Direction.Y, r.Direction.Z)
}

// Point returns the point at the given distance along the ray.
func (r Ray) Point(distance float64) r3.Vector {
	return r.Origin.Add(r.Direction.Mul(distance))
}

// SqDistToPoint returns the squared distance from the point to the infinite
// line through the ray. The cross product of the direction with the vector to
// the point has magnitude |d||v|sin(theta), which divided by |d| is the
// perpendicular distance.
func (r Ray) SqDistToPoint(pt r3.Vector) float64 {
	d2 := r.Direction.Norm2()
	if d2 == 0 {
		return pt.Sub(r.Origin).Norm2()
	}
	return r.Direction.Cross(pt.Sub(r.Origin)).Norm2() / d2
}
