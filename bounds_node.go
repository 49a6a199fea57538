package octree

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"

	"github.com/mcserep/octree/geo"
)

// boundsObject pairs a stored object with the axis-aligned box it is keyed by.
type boundsObject[T comparable] struct {
	object T
	bounds geo.Box
}

// boundsNode is a node of a loose octree keyed by bounding boxes. Its actual
// bounds are the nominal cube scaled by the looseness factor, so an object
// near an octant border can still be fully encapsulated by a child. An object
// that no single child can encapsulate stays at this node instead of being
// pushed deeper.
type boundsNode[T comparable] struct {
	logger golog.Logger

	center     r3.Vector
	baseLength float64
	looseness  float64
	minSize    float64

	// bounds is the looseness-adjusted cube this node covers; childBounds
	// caches the eight octant boxes so every insert can classify against
	// them without recomputing.
	bounds      geo.Box
	childBounds [8]geo.Box

	objects  []boundsObject[T]
	children []*boundsNode[T] // nil for a leaf, exactly 8 otherwise
}

func newBoundsNode[T comparable](baseLength, minSize, looseness float64, center r3.Vector, logger golog.Logger) *boundsNode[T] {
	n := &boundsNode[T]{logger: logger}
	n.setValues(baseLength, minSize, looseness, center)
	return n
}

// setValues recomputes the node's geometry. Called at construction and when a
// childless root shrinks in place onto one of its octants.
func (n *boundsNode[T]) setValues(baseLength, minSize, looseness float64, center r3.Vector) {
	n.baseLength = baseLength
	n.minSize = minSize
	n.looseness = looseness
	n.center = center

	adjusted := looseness * baseLength
	n.bounds = geo.NewBox(center, r3.Vector{X: adjusted, Y: adjusted, Z: adjusted})

	quarter := baseLength / 4
	childActual := looseness * baseLength / 2
	childSize := r3.Vector{X: childActual, Y: childActual, Z: childActual}
	for i := range n.childBounds {
		n.childBounds[i] = geo.NewBox(center.Add(octantOffset(i, quarter)), childSize)
	}
}

func (n *boundsNode[T]) hasChildren() bool {
	return n.children != nil
}

// add stores the object if its bounds fit within this node, reporting whether
// it was accepted. Rejection means the caller should grow the tree.
func (n *boundsNode[T]) add(obj T, objBounds geo.Box) bool {
	if !n.bounds.ContainsBox(objBounds) {
		return false
	}
	n.subAdd(obj, objBounds)
	return true
}

// subAdd places an object known to fit within this node, splitting and
// redistributing if this node is over capacity.
func (n *boundsNode[T]) subAdd(obj T, objBounds geo.Box) {
	if !n.hasChildren() {
		if len(n.objects) < numObjectsAllowed || n.baseLength/2 < n.minSize {
			n.objects = append(n.objects, boundsObject[T]{object: obj, bounds: objBounds})
			return
		}

		n.split()
		if !n.hasChildren() {
			n.logger.Errorf("octant creation failed on split, dropping insertion at %v", n.center)
			return
		}

		// One-time redistribution after the split: push each held object
		// into the child that can fully encapsulate it. Objects straddling
		// an octant border stay here.
		for i := len(n.objects) - 1; i >= 0; i-- {
			existing := n.objects[i]
			best := bestFitOctant(n.center, existing.bounds.Center)
			if n.childBounds[best].ContainsBox(existing.bounds) {
				n.children[best].subAdd(existing.object, existing.bounds)
				n.objects = append(n.objects[:i], n.objects[i+1:]...)
			}
		}
	}

	best := bestFitOctant(n.center, objBounds.Center)
	if n.childBounds[best].ContainsBox(objBounds) {
		n.children[best].subAdd(obj, objBounds)
	} else {
		n.objects = append(n.objects, boundsObject[T]{object: obj, bounds: objBounds})
	}
}

// remove searches the whole subtree for the object, assumed to occur at most
// once, and reports whether it was found and removed.
func (n *boundsNode[T]) remove(obj T) bool {
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

// removeAt removes the object using its bounds to descend directly into the
// matching octant instead of fanning out. Rejected if the bounds lie outside
// this node.
func (n *boundsNode[T]) removeAt(obj T, objBounds geo.Box) bool {
	if !n.bounds.ContainsBox(objBounds) {
		return false
	}
	return n.subRemove(obj, objBounds)
}

func (n *boundsNode[T]) subRemove(obj T, objBounds geo.Box) bool {
	removed := false
	// The object may be held here as a straddler even when children exist.
	for i := range n.objects {
		if n.objects[i].object == obj {
			n.objects = append(n.objects[:i], n.objects[i+1:]...)
			removed = true
			break
		}
	}
	if !removed && n.hasChildren() {
		best := bestFitOctant(n.center, objBounds.Center)
		removed = n.children[best].subRemove(obj, objBounds)
	}
	if removed && n.hasChildren() && n.shouldMerge() {
		n.merge()
	}
	return removed
}

// split allocates the eight children using the precomputed octant geometry.
// It moves no objects; subAdd performs the redistribution pass.
func (n *boundsNode[T]) split() {
	if n.hasChildren() {
		return
	}
	newLength := n.baseLength / 2
	children := make([]*boundsNode[T], 8)
	for i := range children {
		children[i] = newBoundsNode[T](newLength, n.minSize, n.looseness, n.childBounds[i].Center, n.logger)
	}
	n.children = children
}

// shouldMerge reports whether the children can be collapsed into this node:
// no grandchildren may exist and the combined object count must be within
// the capacity threshold.
func (n *boundsNode[T]) shouldMerge() bool {
	total := len(n.objects)
	for _, child := range n.children {
		if child.hasChildren() {
			return false
		}
		total += len(child.objects)
	}
	return total <= numObjectsAllowed
}

// merge hoists every child's objects into this node and discards the
// children. Callers must have established shouldMerge; merge itself only
// looks one level down.
func (n *boundsNode[T]) merge() {
	for _, child := range n.children {
		n.objects = append(n.objects, child.objects...)
	}
	n.children = nil
}

// setChildren grafts a pre-built set of eight children onto this node. On a
// malformed set the error is reported and the node is left untouched.
func (n *boundsNode[T]) setChildren(children []*boundsNode[T]) error {
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
func (n *boundsNode[T]) hasAnyObjects() bool {
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
// shrinking: either this node resized in place onto the single octant all of
// its content classifies into, or the one content-bearing child promoted in
// this node's stead. Returns the node unchanged whenever content spans more
// than one octant, an object straddles the qualifying octant's bounds, or
// the node is already within a factor of two of minLength.
func (n *boundsNode[T]) shrinkIfPossible(minLength float64) *boundsNode[T] {
	if n.baseLength < 2*minLength {
		return n
	}
	if len(n.objects) == 0 && !n.hasChildren() {
		return n
	}

	bestFit := -1
	for i := range n.objects {
		newBestFit := bestFitOctant(n.center, n.objects[i].bounds.Center)
		if i != 0 && newBestFit != bestFit {
			return n
		}
		// Center agreement is not enough here; the object must be fully
		// encapsulated by the candidate octant to survive the resize.
		if !n.childBounds[newBestFit].ContainsBox(n.objects[i].bounds) {
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
				return n // more than one octant has content
			}
			if bestFit >= 0 && bestFit != i {
				return n // child content disagrees with this node's objects
			}
			childHadContent = true
			bestFit = i
		}
		if bestFit < 0 {
			return n
		}
		return n.children[bestFit]
	}

	// Leaf: everything already fits the qualifying octant, resize in place.
	n.setValues(n.baseLength/2, n.minSize, n.looseness, n.childBounds[bestFit].Center)
	return n
}

// isColliding reports whether anything in this subtree intersects checkBounds.
func (n *boundsNode[T]) isColliding(checkBounds geo.Box) bool {
	if !n.bounds.Intersects(checkBounds) {
		return false
	}
	for i := range n.objects {
		if n.objects[i].bounds.Intersects(checkBounds) {
			return true
		}
	}
	for _, child := range n.children {
		if child.isColliding(checkBounds) {
			return true
		}
	}
	return false
}

// isCollidingRay reports whether the ray hits anything in this subtree within
// maxDistance along the ray.
func (n *boundsNode[T]) isCollidingRay(ray geo.Ray, maxDistance float64) bool {
	if distance, hit := n.bounds.IntersectRay(ray); !hit || distance > maxDistance {
		return false
	}
	for i := range n.objects {
		if distance, hit := n.objects[i].bounds.IntersectRay(ray); hit && distance <= maxDistance {
			return true
		}
	}
	for _, child := range n.children {
		if child.isCollidingRay(ray, maxDistance) {
			return true
		}
	}
	return false
}

// getColliding appends every object in this subtree whose bounds intersect
// checkBounds, direct objects before children, children in octant order.
func (n *boundsNode[T]) getColliding(checkBounds geo.Box, result *[]T) {
	if !n.bounds.Intersects(checkBounds) {
		return
	}
	for i := range n.objects {
		if n.objects[i].bounds.Intersects(checkBounds) {
			*result = append(*result, n.objects[i].object)
		}
	}
	for _, child := range n.children {
		child.getColliding(checkBounds, result)
	}
}

// getCollidingRay appends every object in this subtree the ray hits within
// maxDistance.
func (n *boundsNode[T]) getCollidingRay(ray geo.Ray, maxDistance float64, result *[]T) {
	if distance, hit := n.bounds.IntersectRay(ray); !hit || distance > maxDistance {
		return
	}
	for i := range n.objects {
		if distance, hit := n.objects[i].bounds.IntersectRay(ray); hit && distance <= maxDistance {
			*result = append(*result, n.objects[i].object)
		}
	}
	for _, child := range n.children {
		child.getCollidingRay(ray, maxDistance, result)
	}
}

// getAll appends every object in this subtree in pre-order.
func (n *boundsNode[T]) getAll(result *[]T) {
	for i := range n.objects {
		*result = append(*result, n.objects[i].object)
	}
	for _, child := range n.children {
		child.getAll(result)
	}
}
