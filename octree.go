// Package octree implements a loose octree spatial index over 3D content in
// two variants: a PointOctree indexing objects by a single position, and a
// BoundsOctree indexing objects by an axis-aligned bounding box. Both
// recursively partition space into octants, splitting a node once it holds
// more than a fixed number of objects and merging octants back together as
// objects are removed.
package octree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

const (
	// numObjectsAllowed is the number of objects a node may hold directly
	// before an insertion forces it to split into octants. Merging back is
	// allowed once the combined content drops to this count, so split and
	// merge share one threshold.
	numObjectsAllowed = 8

	// growAttemptsAllowed caps the number of times an add may double the
	// root before the insertion is abandoned.
	growAttemptsAllowed = 20
)

// bestFitOctant returns the index of the octant of a node centered at center
// that pos classifies into. Children are laid out so that octant index i has
// its X offset negative when i%2 == 0, its Y offset positive when i < 4 and
// its Z offset negative when i%4 < 2. Positions exactly on a dividing plane
// always resolve toward octant 0's axis signs; insert, keyed removal, shrink
// and grow all rely on that tie policy being identical.
func bestFitOctant(center, pos r3.Vector) int {
	index := 0
	if pos.X > center.X {
		index++
	}
	if pos.Y < center.Y {
		index += 4
	}
	if pos.Z > center.Z {
		index += 2
	}
	return index
}

// octantOffset returns the offset of octant index i's center from its parent
// center, where quarter is a quarter of the parent's nominal side length.
func octantOffset(i int, quarter float64) r3.Vector {
	offset := r3.Vector{X: -quarter, Y: quarter, Z: -quarter}
	if i%2 != 0 {
		offset.X = quarter
	}
	if i >= 4 {
		offset.Y = -quarter
	}
	if i%4 >= 2 {
		offset.Z = quarter
	}
	return offset
}

// validateChildSet checks that a child set being grafted onto a node has
// exactly one child per octant and no nil slots.
func validateChildSet(n int, nilAt []int) error {
	if n != 8 {
		return errors.Errorf("child node array must hold exactly 8 octants, got %d", n)
	}
	var err error
	for _, i := range nilAt {
		err = multierr.Append(err, errors.Errorf("child node for octant %d is nil", i))
	}
	return err
}
