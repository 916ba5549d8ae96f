package tessellate

import (
	"sync"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
	"github.com/chazu/stepmesh/pkg/step"
	"github.com/chazu/stepmesh/pkg/topo"
)

// edgeCache holds the per-edge boundary sample sequences, keyed by
// edge entity id. Every edge is sampled exactly once; both faces
// adjacent to an edge observe the identical slice, which is what makes
// seams crack-free by construction.
//
// First access wins: the first goroutine to request an edge computes
// its samples under a per-entry latch, later requesters block on the
// latch and read the published result. The cache owns each sequence
// once written; consumers only read.
type edgeCache struct {
	tol float64

	mu      sync.Mutex
	entries map[step.EntityID]*edgeEntry
}

type edgeEntry struct {
	ready chan struct{}
	pts   []vec3.T
}

func newEdgeCache(tol float64) *edgeCache {
	return &edgeCache{tol: tol, entries: make(map[step.EntityID]*edgeEntry)}
}

// samples returns the edge's polyline, ordered Start to End. The first
// and last entries are exactly the welded vertex positions.
func (c *edgeCache) samples(e *topo.Edge) []vec3.T {
	c.mu.Lock()
	en := c.entries[e.ID]
	if en != nil {
		c.mu.Unlock()
		<-en.ready
		return en.pts
	}
	en = &edgeEntry{ready: make(chan struct{})}
	c.entries[e.ID] = en
	c.mu.Unlock()

	en.pts = sampleEdge(e, c.tol)
	close(en.ready)
	return en.pts
}

// sampleEdge discretizes the edge's curve over its trim interval
// within the chord tolerance and normalizes the result to run from
// Start to End, pinning the endpoints to the topological vertex
// positions so vertex welding is exact rather than approximate.
func sampleEdge(e *topo.Edge, tol float64) []vec3.T {
	pts, _ := geom.SampleCurve(e.Curve, e.T0, e.T1, tol)
	if !e.Sense {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	pts[0] = e.Start.Point
	pts[len(pts)-1] = e.End.Point
	return pts
}
