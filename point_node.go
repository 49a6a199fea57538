package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/mcserep/octree/geo"
)

// pointObject pairs a stored object with the position it is keyed by.
type pointObject[T comparable] struct {
	object   T
	position r3.Vector
}

// pointNode is a node of an octree keyed by positions. Unlike the bounds
// variant there is no looseness: every position classifies into exactly one
// octant, so a split always pushes every held object down.
type pointNode[T comparable] struct {
	logger golog.Logger

	center     r3.Vector
	sideLength float64
	minSize    float64

	bounds      geo.Box
	childBounds [8]geo.Box

	objects  []pointObject[T]
	children []*pointNode[T] // nil for a leaf, exactly 8 otherwise
}

func newPointNode[T comparable](sideLength, minSize float64, center r3.Vector, logger golog.Logger) *pointNode[T] {
	n := &pointNode[T]{logger: logger}
	n.setValues(sideLength, minSize, center)
	return n
}

func (n *pointNode[T]) setValues(sideLength, minSize float64, center r3.Vector) {
	n.sideLength = sideLength
	n.minSize = minSize
	n.center = center

	n.bounds = geo.NewBox(center, r3.Vector{X: sideLength, Y: sideLength, Z: sideLength})

	quarter := sideLength / 4
	childSide := sideLength / 2
	childSize := r3.Vector{X: childSide, Y: childSide, Z: childSide}
	for i := range n.childBounds {
		n.childBounds[i] = geo.NewBox(center.Add(octantOffset(i, quarter)), childSize)
	}
}

func (n *pointNode[T]) hasChildren() bool {
	return n.children != nil
}

// add stores the object if its position lies within this node, reporting
// whether it was accepted.
func (n *pointNode[T]) add(obj T, objPos r3.Vector) bool {
	if !n.bounds.Contains(objPos) {
		return false
	}
	n.subAdd(obj, objPos)
	return true
}

func (n *pointNode[T]) subAdd(obj T, objPos r3.Vector) {
	if !n.hasChildren() {
		if len(n.objects) < numObjectsAllowed || n.sideLength/2 < n.minSize {
			n.objects = append(n.objects, pointObject[T]{object: obj, position: objPos})
			return
		}

		n.split()
		if !n.hasChildren() {
			n.logger.Errorf("octant creation failed on split, dropping insertion at %v", n.center)
			return
		}

		// Points always fit exactly one octant, push everything down.
		for i := len(n.objects) - 1; i >= 0; i-- {
			existing := n.objects[i]
			best := bestFitOctant(n.center, existing.position)
			n.children[best].subAdd(existing.object, existing.position)
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
		}
	}

	best := bestFitOctant(n.center, objPos)
	n.children[best].subAdd(obj, objPos)
}

// remove searches the whole subtree for the object, assumed to occur at most
// once, and reports whether it was found and removed.
func (n *pointNode[T]) remove(obj T) bool {
	removed := false
	for i := range n.objects {
		if n.objects[i].object == obj {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			removed = true
			break
		}
	}
	if !removed && n.hasChildren() {
		for _, child := range n.children {
			if child.remove(obj) {
				removed = true
				break
			}
		}
	}
	if removed && n.hasChildren() && n.shouldMerge() {
		n.merge()
	}
	return removed
}

// removeAt removes the object using its position to descend directly into
// the matching octant instead of fanning out.
func (n *pointNode[T]) removeAt(obj T, objPos r3.Vector) bool {
	if !n.bounds.Contains(objPos) {
		return false
	}
	return n.subRemove(obj, objPos)
}

func (n *pointNode[T]) subRemove(obj T, objPos r3.Vector) bool {
	removed := false
	for i := range n.objects {
		if n.objects[i].object == obj {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			removed = true
			break
		}
	}
	if !removed && n.hasChildren() {
		best := bestFitOctant(n.center, objPos)
		removed = n.children[best].subRemove(obj, objPos)
	}
	if removed && n.hasChildren() && n.shouldMerge() {
		n.merge()
	}
	return removed
}

// split allocates the eight children using the precomputed octant geometry.
func (n *pointNode[T]) split() {
	if n.hasChildren() {
		return
	}
	childSide := n.sideLength / 2
	children := make([]*pointNode[T], 8)
	for i := range children {
		children[i] = newPointNode[T](childSide, n.minSize, n.childBounds[i].Center, n.logger)
	}
	n.children = children
}

// shouldMerge reports whether the children can be collapsed into this node.
func (n *pointNode[T]) shouldMerge() bool {
	total := len(n.objects)
	for _, child := range n.children {
		if child.hasChildren() {
			return false
		}
		total += len(child.objects)
	}
	return total <= numObjectsAllowed
}

// merge hoists every child's objects into this node and discards the children.
func (n *pointNode[T]) merge() {
	for _, child := range n.children {
		n.objects = append(n.objects, child.objects...)
	}
	n.children = nil
}

// setChildren grafts a pre-built set of eight children onto this node. On a
// malformed set the error is reported and the node is left untouched.
func (n *pointNode[T]) setChildren(children []*pointNode[T]) error {
	var nilAt []int
	for i, child := range children {
		if child == nil {
			nilAt = append(nilAt, i)
		}
	}
	if err := validateChildSet(len(children), nilAt); err != nil {
		return err
	}
	n.children = children
	return nil
}

// hasAnyObjects reports whether this node or any descendant holds an object.
func (n *pointNode[T]) hasAnyObjects() bool {
	if len(n.objects) > 0 {
		return true
	}
	for _, child := range n.children {
		if child.hasAnyObjects() {
			return true
		}
	}
	return false
}

// shrinkIfPossible returns the subtree root after at most one level of
// shrinking, mirroring the bounds variant minus the encapsulation check:
// positions only need to classify into a single common octant.
func (n *pointNode[T]) shrinkIfPossible(minLength float64) *pointNode[T] {
	if n.sideLength < 2*minLength {
		return n
	}
	if len(n.objects) == 0 && !n.hasChildren() {
		return n
	}

	bestFit := -1
	for i := range n.objects {
		newBestFit := bestFitOctant(n.center, n.objects[i].position)
		if i != 0 && newBestFit != bestFit {
			return n
		}
		if bestFit < 0 {
			bestFit = newBestFit
		}
	}

	if n.hasChildren() {
		childHadContent := false
		for i, child := range n.children {
			if !child.hasAnyObjects() {
				continue
			}
			if childHadContent {
				return n
			}
			if bestFit >= 0 && bestFit != i {
				return n
			}
			childHadContent = true
			bestFit = i
		}
		if bestFit < 0 {
			return n
		}
		return n.children[bestFit]
	}

	n.setValues(n.sideLength/2, n.minSize, n.childBounds[bestFit].Center)
	return n
}

// getNearbyRay appends every object within maxDistance of the ray. The prune
// test widens a copy of the node bounds by 2*maxDistance per axis, a cheap
// conservative proxy for a true distance-to-box test; the node's own cached
// bounds are never touched.
func (n *pointNode[T]) getNearbyRay(ray geo.Ray, maxDistance float64, result *[]T) {
	if _, hit := n.bounds.Expanded(2 * maxDistance).IntersectRay(ray); !hit {
		return
	}
	sqMaxDistance := maxDistance * maxDistance
	for i := range n.objects {
		if ray.SqDistToPoint(n.objects[i].position) <= sqMaxDistance {
			*result = append(*result, n.objects[i].object)
		}
	}
	for _, child := range n.children {
		child.getNearbyRay(ray, maxDistance, result)
	}
}

// getNearby appends every object within maxDistance of the given position,
// pruning with the same widened-copy test as getNearbyRay.
func (n *pointNode[T]) getNearby(position r3.Vector, maxDistance float64, result *[]T) {
	if !n.bounds.Expanded(2 * maxDistance).Contains(position) {
		return
	}
	sqMaxDistance := maxDistance * maxDistance
	for i := range n.objects {
		if position.Sub(n.objects[i].position).Norm2() <= sqMaxDistance {
			*result = append(*result, n.objects[i].object)
		}
	}
	for _, child := range n.children {
		child.getNearby(position, maxDistance, result)
	}
}

// getAll appends every object in this subtree in pre-order.
func (n *pointNode[T]) getAll(result *[]T) {
	for i := range n.objects {
		*result = append(*result, n.objects[i].object)
	}
	for _, child := range n.children {
		child.getAll(result)
	}
}
