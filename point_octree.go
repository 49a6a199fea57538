package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/mcserep/octree/geo"
)

// PointOctree is an octree indexing objects of type T by a single position.
// It owns the current root node, grows the tree when an object falls outside
// the root and shrinks it back down on request. Objects are compared by value
// equality and assumed unique within one tree.
//
// A PointOctree is not safe for concurrent use.
type PointOctree[T comparable] struct {
	logger      golog.Logger
	root        *pointNode[T]
	initialSize float64
	minSize     float64
	count       int
}

// NewPointOctree creates an octree covering a cube of initialWorldSize
// centered at initialWorldPos. Nodes are never subdivided below minNodeSize.
func NewPointOctree[T comparable](
	initialWorldSize float64,
	initialWorldPos r3.Vector,
	minNodeSize float64,
	logger golog.Logger,
) (*PointOctree[T], error) {
	if initialWorldSize <= 0 {
		return nil, errors.Errorf("invalid initial world size (%.2f) for octree", initialWorldSize)
	}
	if minNodeSize > initialWorldSize {
		return nil, errors.Errorf(
			"minimum node size (%.2f) must not exceed the initial world size (%.2f)", minNodeSize, initialWorldSize)
	}

	return &PointOctree[T]{
		logger:      logger,
		root:        newPointNode[T](initialWorldSize, minNodeSize, initialWorldPos, logger),
		initialSize: initialWorldSize,
		minSize:     minNodeSize,
		count:       0,
	}, nil
}

// Count returns the number of objects currently stored in the tree.
func (o *PointOctree[T]) Count() int {
	return o.count
}

// Add inserts an object keyed by its position, growing the tree toward the
// object until it fits. Reports false only if growing is abandoned after too
// many attempts.
func (o *PointOctree[T]) Add(obj T, objPos r3.Vector) bool {
	attempts := 0
	for !o.root.add(obj, objPos) {
		o.grow(objPos.Sub(o.root.center))
		attempts++
		if attempts > growAttemptsAllowed {
			o.logger.Errorf("aborting add after growing the octree %d times without fitting %v", attempts-1, objPos)
			return false
		}
	}
	o.count++
	return true
}

// Remove removes the object, searching the whole tree for it. Reports
// whether it was found; removing an absent object is not an error.
func (o *PointOctree[T]) Remove(obj T) bool {
	removed := o.root.remove(obj)
	if removed {
		o.count--
	}
	return removed
}

// RemoveAt removes the object using the position it was added with to
// descend directly to the right octant, avoiding the full-tree search.
func (o *PointOctree[T]) RemoveAt(obj T, objPos r3.Vector) bool {
	removed := o.root.removeAt(obj, objPos)
	if removed {
		o.count--
	}
	return removed
}

// GetNearby returns every object within maxDistance of the given position.
func (o *PointOctree[T]) GetNearby(position r3.Vector, maxDistance float64) []T {
	var result []T
	o.root.getNearby(position, maxDistance, &result)
	return result
}

// GetNearbyRay returns every object within maxDistance of the ray.
func (o *PointOctree[T]) GetNearbyRay(ray geo.Ray, maxDistance float64) []T {
	var result []T
	o.root.getNearbyRay(ray, maxDistance, &result)
	return result
}

// GetAll returns every stored object in pre-order.
func (o *PointOctree[T]) GetAll() []T {
	result := make([]T, 0, o.count)
	o.root.getAll(&result)
	return result
}

// ShrinkIfPossible contracts the tree as far as its content allows, never
// below the construction-time initial size.
func (o *PointOctree[T]) ShrinkIfPossible() {
	for {
		prev, prevLength := o.root, o.root.sideLength
		o.root = o.root.shrinkIfPossible(o.initialSize)
		if o.root == prev && o.root.sideLength == prevLength {
			return
		}
	}
}

// grow doubles the root's extent toward direction, grafting the old root in
// as the child octant it occupies within the grown node.
func (o *PointOctree[T]) grow(direction r3.Vector) {
	oldRoot := o.root
	half := oldRoot.sideLength / 2
	newCenter := o.root.center.Add(r3.Vector{
		X: axisSign(direction.X) * half,
		Y: axisSign(direction.Y) * half,
		Z: axisSign(direction.Z) * half,
	})

	newRoot := newPointNode[T](oldRoot.sideLength*2, o.minSize, newCenter, o.logger)
	if !oldRoot.hasAnyObjects() {
		o.root = newRoot
		return
	}

	rootPos := bestFitOctant(newCenter, oldRoot.center)
	children := make([]*pointNode[T], 8)
	for i := range children {
		if i == rootPos {
			children[i] = oldRoot
		} else {
			children[i] = newPointNode[T](oldRoot.sideLength, o.minSize, newRoot.childBounds[i].Center, o.logger)
		}
	}
	if err := newRoot.setChildren(children); err != nil {
		o.logger.Errorw("failed to graft old root while growing octree", "error", err)
		return
	}
	o.root = newRoot
}
