// Command spatialbench exercises both octree variants with a randomized
// insert/query/remove workload and reports latency statistics.
package main

import (
	"flag"
	"math/rand"
	"sort"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/mcserep/octree"
	"github.com/mcserep/octree/geo"
)

func main() {
	var (
		numObjects = flag.Int("objects", 10000, "number of objects to insert into each tree")
		numQueries = flag.Int("queries", 2000, "number of queries to run against each tree")
		worldSize  = flag.Float64("world", 1000, "side length of the initial world cube")
		looseness  = flag.Float64("looseness", 1.25, "looseness factor for the bounds tree")
		seed       = flag.Int64("seed", 1, "seed for the workload generator")
	)
	flag.Parse()

	logger := golog.NewDevelopmentLogger("spatialbench")
	rnd := rand.New(rand.NewSource(*seed)) //nolint:gosec // deterministic workload, not crypto

	boundsTree, err := octree.NewBoundsOctree[uuid.UUID](*worldSize, r3.Vector{}, 1, *looseness, logger)
	if err != nil {
		logger.Fatal(err)
	}
	pointTree, err := octree.NewPointOctree[uuid.UUID](*worldSize, r3.Vector{}, 1, logger)
	if err != nil {
		logger.Fatal(err)
	}

	half := *worldSize / 2
	randPos := func() r3.Vector {
		return r3.Vector{
			X: (rnd.Float64()*2 - 1) * half,
			Y: (rnd.Float64()*2 - 1) * half,
			Z: (rnd.Float64()*2 - 1) * half,
		}
	}

	type entry struct {
		id     uuid.UUID
		bounds geo.Box
		pos    r3.Vector
	}
	entries := make([]entry, 0, *numObjects)

	insertStart := time.Now()
	for i := 0; i < *numObjects; i++ {
		e := entry{id: uuid.New(), pos: randPos()}
		side := 1 + rnd.Float64()*(*worldSize/100)
		e.bounds = geo.NewBox(e.pos, r3.Vector{X: side, Y: side, Z: side})

		if !boundsTree.Add(e.id, e.bounds) || !pointTree.Add(e.id, e.pos) {
			logger.Fatalf("failed to insert object %d", i)
		}
		entries = append(entries, e)
	}
	logger.Infow("inserted objects",
		"count", *numObjects,
		"elapsed", time.Since(insertStart),
		"bounds_tree", boundsTree.Count(),
		"point_tree", pointTree.Count(),
	)

	boundsLatencies := make([]float64, 0, *numQueries)
	boundsHits := 0
	for i := 0; i < *numQueries; i++ {
		q := geo.NewBox(randPos(), r3.Vector{X: half / 10, Y: half / 10, Z: half / 10})
		start := time.Now()
		boundsHits += len(boundsTree.GetColliding(q))
		boundsLatencies = append(boundsLatencies, float64(time.Since(start).Microseconds()))
	}
	report(logger, "bounds GetColliding", boundsLatencies, boundsHits)

	rayLatencies := make([]float64, 0, *numQueries)
	rayHits := 0
	for i := 0; i < *numQueries; i++ {
		ray := geo.NewRay(randPos(), randPos())
		start := time.Now()
		rayHits += len(boundsTree.GetCollidingRay(ray, *worldSize))
		rayLatencies = append(rayLatencies, float64(time.Since(start).Microseconds()))
	}
	report(logger, "bounds GetCollidingRay", rayLatencies, rayHits)

	nearbyLatencies := make([]float64, 0, *numQueries)
	nearbyHits := 0
	for i := 0; i < *numQueries; i++ {
		start := time.Now()
		nearbyHits += len(pointTree.GetNearby(randPos(), half/10))
		nearbyLatencies = append(nearbyLatencies, float64(time.Since(start).Microseconds()))
	}
	report(logger, "point GetNearby", nearbyLatencies, nearbyHits)

	// Remove half the objects through both entry points, then let the trees
	// contract.
	removeStart := time.Now()
	for i, e := range entries {
		if i%2 == 0 {
			if !boundsTree.RemoveAt(e.id, e.bounds) || !pointTree.RemoveAt(e.id, e.pos) {
				logger.Fatalf("failed to remove object %d", i)
			}
		}
	}
	boundsTree.ShrinkIfPossible()
	pointTree.ShrinkIfPossible()
	logger.Infow("removed half of the objects",
		"elapsed", time.Since(removeStart),
		"bounds_tree", boundsTree.Count(),
		"point_tree", pointTree.Count(),
	)
}

func report(logger golog.Logger, name string, latenciesUS []float64, hits int) {
	sort.Float64s(latenciesUS)
	logger.Infow(name,
		"queries", len(latenciesUS),
		"hits", hits,
		"mean_us", stat.Mean(latenciesUS, nil),
		"stddev_us", stat.StdDev(latenciesUS, nil),
		"p99_us", stat.Quantile(0.99, stat.Empirical, latenciesUS, nil),
	)
}
