package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mcserep/octree/geo"
)

// BoundsOctree is a loose octree indexing objects of type T by axis-aligned
// bounding boxes. It owns the current root node, grows the tree when an
// object falls outside the root and shrinks it back down on request. Objects
// are compared by value equality and assumed unique within one tree.
//
// A BoundsOctree is not safe for concurrent use.
type BoundsOctree[T comparable] struct {
	logger      golog.Logger
	root        *boundsNode[T]
	initialSize float64
	minSize     float64
	looseness   float64
	count       int
}

// NewBoundsOctree creates a loose octree covering a cube of initialWorldSize
// centered at initialWorldPos. Nodes are never subdivided below minNodeSize.
// The looseness multiplier widens every node's bounds beyond its nominal grid
// cell to reduce thrashing near octant borders; it is clamped to [1, 2].
func NewBoundsOctree[T comparable](
	initialWorldSize float64,
	initialWorldPos r3.Vector,
	minNodeSize float64,
	looseness float64,
	logger golog.Logger,
) (*BoundsOctree[T], error) {
	if initialWorldSize <= 0 {
		return nil, errors.Errorf("invalid initial world size (%.2f) for octree", initialWorldSize)
	}
	if minNodeSize > initialWorldSize {
		return nil, errors.Errorf(
			"minimum node size (%.2f) must not exceed the initial world size (%.2f)", minNodeSize, initialWorldSize)
	}
	if looseness < 1 {
		looseness = 1
	} else if looseness > 2 {
		looseness = 2
	}

	return &BoundsOctree[T]{
		logger:      logger,
		root:        newBoundsNode[T](initialWorldSize, minNodeSize, looseness, initialWorldPos, logger),
		initialSize: initialWorldSize,
		minSize:     minNodeSize,
		looseness:   looseness,
		count:       0,
	}, nil
}

// Count returns the number of objects currently stored in the tree.
func (o *BoundsOctree[T]) Count() int {
	return o.count
}

// Add inserts an object keyed by its bounding box, growing the tree toward
// the object until it fits. Reports false only if growing is abandoned after
// too many attempts.
func (o *BoundsOctree[T]) Add(obj T, objBounds geo.Box) bool {
	attempts := 0
	for !o.root.add(obj, objBounds) {
		o.grow(objBounds.Center.Sub(o.root.center))
		attempts++
		if attempts > growAttemptsAllowed {
			o.logger.Errorf("aborting add after growing the octree %d times without fitting %v", attempts-1, objBounds)
			return false
		}
	}
	o.count++
	return true
}

// Remove removes the object, searching the whole tree for it. Reports
// whether it was found; removing an absent object is not an error.
func (o *BoundsOctree[T]) Remove(obj T) bool {
	removed := o.root.remove(obj)
	if removed {
		o.count--
	}
	return removed
}

// RemoveAt removes the object using the bounds it was added with to descend
// directly to the right octant, avoiding the full-tree search.
func (o *BoundsOctree[T]) RemoveAt(obj T, objBounds geo.Box) bool {
	removed := o.root.removeAt(obj, objBounds)
	if removed {
		o.count--
	}
	return removed
}

// IsColliding reports whether any stored object's bounds intersect
// checkBounds, short-circuiting on the first hit.
func (o *BoundsOctree[T]) IsColliding(checkBounds geo.Box) bool {
	return o.root.isColliding(checkBounds)
}

// IsCollidingRay reports whether the ray hits any stored object's bounds
// within maxDistance along the ray.
func (o *BoundsOctree[T]) IsCollidingRay(ray geo.Ray, maxDistance float64) bool {
	return o.root.isCollidingRay(ray, maxDistance)
}

// GetColliding returns every object whose bounds intersect checkBounds, a
// node's direct objects before its children, children in octant order.
func (o *BoundsOctree[T]) GetColliding(checkBounds geo.Box) []T {
	var result []T
	o.root.getColliding(checkBounds, &result)
	return result
}

// GetCollidingRay returns every object whose bounds the ray hits within
// maxDistance along the ray.
func (o *BoundsOctree[T]) GetCollidingRay(ray geo.Ray, maxDistance float64) []T {
	var result []T
	o.root.getCollidingRay(ray, maxDistance, &result)
	return result
}

// GetAll returns every stored object in pre-order.
func (o *BoundsOctree[T]) GetAll() []T {
	result := make([]T, 0, o.count)
	o.root.getAll(&result)
	return result
}

// ShrinkIfPossible contracts the tree as far as its content allows, never
// below the construction-time initial size. Each step either promotes the
// single content-bearing child to root or resizes a childless root in place;
// the loop runs until a step makes no progress.
func (o *BoundsOctree[T]) ShrinkIfPossible() {
	for {
		prev, prevLength := o.root, o.root.baseLength
		o.root = o.root.shrinkIfPossible(o.initialSize)
		if o.root == prev && o.root.baseLength == prevLength {
			return
		}
	}
}

// grow doubles the root's extent toward direction, grafting the old root in
// as the child octant it occupies within the grown node.
func (o *BoundsOctree[T]) grow(direction r3.Vector) {
	oldRoot := o.root
	half := oldRoot.baseLength / 2
	newCenter := o.root.center.Add(r3.Vector{
		X: axisSign(direction.X) * half,
		Y: axisSign(direction.Y) * half,
		Z: axisSign(direction.Z) * half,
	})

	newRoot := newBoundsNode[T](oldRoot.baseLength*2, o.minSize, o.looseness, newCenter, o.logger)
	if !oldRoot.hasAnyObjects() {
		o.root = newRoot
		return
	}

	rootPos := bestFitOctant(newCenter, oldRoot.center)
	children := make([]*boundsNode[T], 8)
	for i := range children {
		if i == rootPos {
			children[i] = oldRoot
		} else {
			children[i] = newBoundsNode[T](oldRoot.baseLength, o.minSize, o.looseness, newRoot.childBounds[i].Center, o.logger)
		}
	}
	if err := newRoot.setChildren(children); err != nil {
		o.logger.Errorw("failed to graft old root while growing octree", "error", err)
		return
	}
	o.root = newRoot
}

// axisSign maps a direction component to the +1/-1 growth sign for its axis.
// A zero component grows positive.
func axisSign(v float64) float64 {
	if v >= 0 {
		return 1
	}
	return -1
}
