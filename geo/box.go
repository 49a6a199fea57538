// Package geo provides the axis-aligned geometry primitives used by the
// octree: 3D boxes built on r3 vectors and rays with origin and direction.
package geo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"
)

const floatEpsilon = 1e-9

// Box is an axis-aligned box described by its center and its full size along
// each axis. The zero value is a degenerate box at the origin.
type Box struct {
	Center r3.Vector
	Size   r3.Vector
}

// NewBox creates a box from a center point and a full (not half) size.
func NewBox(center, size r3.Vector) Box {
	return Box{Center: center, Size: size}
}

// NewBoxFromMinMax creates the box spanning the two given corners.
func NewBoxFromMinMax(min, max r3.Vector) Box {
	return Box{
		Center: min.Add(max).Mul(0.5),
		Size:   max.Sub(min),
	}
}

// String returns a human readable representation of the box.
func (b Box) String() string {
	return fmt.Sprintf("Box(center: %.2f %.2f %.2f, size: %.2f %.2f %.2f)",
		b.Center.X, b.Center.Y, b.Center.Z, b.Size.X, b.Size.Y, b.Size.Z)
}

// Min returns the corner of the box with the smallest coordinates.
func (b Box) Min() r3.Vector {
	return b.Center.Sub(b.Size.Mul(0.5))
}

// Max returns the corner of the box with the largest coordinates.
func (b Box) Max() r3.Vector {
	return b.Center.Add(b.Size.Mul(0.5))
}

// Contains reports whether the point lies inside the box, boundary included.
func (b Box) Contains(pt r3.Vector) bool {
	min, max := b.Min(), b.Max()
	return pt.X >= min.X && pt.X <= max.X &&
		pt.Y >= min.Y && pt.Y <= max.Y &&
		pt.Z >= min.Z && pt.Z <= max.Z
}

// ContainsBox reports whether other is fully encapsulated by the box, tested
// by containment of both of its corners.
func (b Box) ContainsBox(other Box) bool {
	return b.Contains(other.Min()) && b.Contains(other.Max())
}

// Intersects reports whether the two boxes overlap, boundary contact included.
func (b Box) Intersects(other Box) bool {
	aMin, aMax := b.Min(), b.Max()
	bMin, bMax := other.Min(), other.Max()
	return aMin.X <= bMax.X && aMax.X >= bMin.X &&
		aMin.Y <= bMax.Y && aMax.Y >= bMin.Y &&
		aMin.Z <= bMax.Z && aMax.Z >= bMin.Z
}

// Expanded returns a copy of the box grown by amount along each axis. The
// receiver is unchanged, so callers can prune against a widened box without
// having to restore any shared state afterwards.
func (b Box) Expanded(amount float64) Box {
	return Box{
		Center: b.Center,
		Size:   b.Size.Add(r3.Vector{X: amount, Y: amount, Z: amount}),
	}
}

// IntersectRay reports whether the ray hits the box using the slab method,
// returning the distance along the ray to the entry point. A ray starting
// inside the box hits at distance zero.
func (b Box) IntersectRay(ray Ray) (float64, bool) {
	min, max := b.Min(), b.Max()
	tMin, tMax := 0.0, math.MaxFloat64

	if !slabIntersect(min.X, max.X, ray.Origin.X, ray.Direction.X, &tMin, &tMax) {
		return 0, false
	}
	if !slabIntersect(min.Y, max.Y, ray.Origin.Y, ray.Direction.Y, &tMin, &tMax) {
		return 0, false
	}
	if !slabIntersect(min.Z, max.Z, ray.Origin.Z, ray.Direction.Z, &tMin, &tMax) {
		return 0, false
	}
	return tMin, true
}

// slabIntersect narrows [tMin, tMax] to the parameter interval in which the
// ray lies between the two planes of one axis-aligned slab.
func slabIntersect(slabMin, slabMax, origin, dir float64, tMin, tMax *float64) bool {
	if dir > -floatEpsilon && dir < floatEpsilon {
		// Ray is parallel to the slab; it intersects only if the origin is
		// already between the planes.
		return origin >= slabMin && origin <= slabMax
	}
	t1 := (slabMin - origin) / dir
	t2 := (slabMax - origin) / dir
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	if t1 > *tMin {
		*tMin = t1
	}
	if t2 < *tMax {
		*tMax = t2
	}
	return *tMin <= *tMax
}

// ApproxEqual compares two boxes component-wise within a fixed tolerance.
func (b Box) ApproxEqual(other Box) bool {
	return vectorApproxEqual(b.Center, other.Center) && vectorApproxEqual(b.Size, other.Size)
}

func vectorApproxEqual(a, b r3.Vector) bool {
	const tol = 1e-8
	return scalar.EqualWithinAbs(a.X, b.X, tol) &&
		scalar.EqualWithinAbs(a.Y, b.Y, tol) &&
		scalar.EqualWithinAbs(a.Z, b.Z, tol)
}
