package geo

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBoxCorners(t *testing.T) {
	b := NewBox(r3.Vector{X: 1, Y: 2, Z: 3}, r3.Vector{X: 2, Y: 4, Z: 6})
	test.That(t, b.Min(), test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})
	test.That(t, b.Max(), test.ShouldResemble, r3.Vector{X: 2, Y: 4, Z: 6})

	round := NewBoxFromMinMax(b.Min(), b.Max())
	test.That(t, round.ApproxEqual(b), test.ShouldBeTrue)
}

func TestBoxContains(t *testing.T) {
	b := NewBox(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})

	test.That(t, b.Contains(r3.Vector{}), test.ShouldBeTrue)
	test.That(t, b.Contains(r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldBeTrue) // boundary is inclusive
	test.That(t, b.Contains(r3.Vector{X: -1, Y: -1, Z: -1}), test.ShouldBeTrue)
	test.That(t, b.Contains(r3.Vector{X: 1.01, Y: 0, Z: 0}), test.ShouldBeFalse)
	test.That(t, b.Contains(r3.Vector{X: 0, Y: -1.01, Z: 0}), test.ShouldBeFalse)
}

func TestBoxContainsBox(t *testing.T) {
	outer := NewBox(r3.Vector{}, r3.Vector{X: 4, Y: 4, Z: 4})

	test.That(t, outer.ContainsBox(NewBox(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 1, Y: 1, Z: 1})), test.ShouldBeTrue)
	test.That(t, outer.ContainsBox(outer), test.ShouldBeTrue)
	// Shares the center but pokes out of one face.
	test.That(t, outer.ContainsBox(NewBox(r3.Vector{}, r3.Vector{X: 5, Y: 1, Z: 1})), test.ShouldBeFalse)
	// Center inside, box partially outside.
	test.That(t, outer.ContainsBox(NewBox(r3.Vector{X: 1.5, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})), test.ShouldBeFalse)
}

func TestBoxIntersects(t *testing.T) {
	a := NewBox(r3.Vector{}, r3.Vector{X: 2, Y: 2, Z: 2})

	test.That(t, a.Intersects(NewBox(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 2, Y: 2, Z: 2})), test.ShouldBeTrue)
	// Boundary contact counts as an intersection.
	test.That(t, a.Intersects(NewBox(r3.Vector{X: 2, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})), test.ShouldBeTrue)
	test.That(t, a.Intersects(NewBox(r3.Vector{X: 2.01, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})), test.ShouldBeFalse)
	test.That(t, a.Intersects(NewBox(r3.Vector{X: 0, Y: 5, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})), test.ShouldBeFalse)
}

func TestBoxExpandedIsPure(t *testing.T) {
	b := NewBox(r3.Vector{X: 1, Y: 1, Z: 1}, r3.Vector{X: 2, Y: 2, Z: 2})
	e := b.Expanded(4)

	test.That(t, e.Size, test.ShouldResemble, r3.Vector{X: 6, Y: 6, Z: 6})
	test.That(t, e.Center, test.ShouldResemble, b.Center)
	// The receiver must be untouched so pruning never corrupts node state.
	test.That(t, b.Size, test.ShouldResemble, r3.Vector{X: 2, Y: 2, Z: 2})

	test.That(t, e.Contains(r3.Vector{X: 3.5, Y: 1, Z: 1}), test.ShouldBeTrue)
	test.That(t, b.Contains(r3.Vector{X: 3.5, Y: 1, Z: 1}), test.ShouldBeFalse)
}

func TestBoxIntersectRay(t *testing.T) {
	b := NewBox(r3.Vector{X: 10, Y: 0, Z: 0}, r3.Vector{X: 2, Y: 2, Z: 2})

	t.Run("hit from outside", func(t *testing.T) {
		dist, hit := b.IntersectRay(NewRay(r3.Vector{}, r3.Vector{X: 1, Y: 0, Z: 0}))
		test.That(t, hit, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 9)
	})

	t.Run("origin inside hits at zero", func(t *testing.T) {
		dist, hit := b.IntersectRay(NewRay(r3.Vector{X: 10, Y: 0, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}))
		test.That(t, hit, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 0)
	})

	t.Run("pointing away misses", func(t *testing.T) {
		_, hit := b.IntersectRay(NewRay(r3.Vector{}, r3.Vector{X: -1, Y: 0, Z: 0}))
		test.That(t, hit, test.ShouldBeFalse)
	})

	t.Run("parallel outside the slab misses", func(t *testing.T) {
		_, hit := b.IntersectRay(NewRay(r3.Vector{X: 0, Y: 5, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}))
		test.That(t, hit, test.ShouldBeFalse)
	})

	t.Run("parallel inside the slab hits", func(t *testing.T) {
		dist, hit := b.IntersectRay(NewRay(r3.Vector{X: 0, Y: 0.5, Z: 0}, r3.Vector{X: 1, Y: 0, Z: 0}))
		test.That(t, hit, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 9)
	})

	t.Run("diagonal hit", func(t *testing.T) {
		start := r3.Vector{X: 10, Y: 5, Z: 0}
		dist, hit := b.IntersectRay(NewRay(start, r3.Vector{X: 0, Y: -1, Z: 0}))
		test.That(t, hit, test.ShouldBeTrue)
		test.That(t, dist, test.ShouldAlmostEqual, 4)
	})
}
