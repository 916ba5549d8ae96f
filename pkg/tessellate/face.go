package tessellate

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/step"
	"github.com/chazu/stepmesh/pkg/topo"
)

// weldKind tags how a patch vertex is identified for global welding.
type weldKind int8

const (
	// weldInterior vertices are private to one patch and always get a
	// fresh global index.
	weldInterior weldKind = iota
	// weldVertex is a topological vertex, identified by its entity id.
	weldVertex
	// weldEdgeSample is an interior sample of a shared edge,
	// identified by (edge id, sample index).
	weldEdgeSample
)

// weldKey is the identity used by the assembler to merge patch
// vertices. Identity comes from BREP topology, never from spatial
// distance, which makes welding deterministic.
type weldKey struct {
	kind weldKind
	id   step.EntityID
	idx  int32
}

type patchVert struct {
	u, v float64
	pos  vec3.T
	key  weldKey
}

// patch is the tessellation of one face: local vertices (parameter and
// world coordinates) and a triangulation over them, with boundary
// vertices tagged for stitching.
type patch struct {
	face  *topo.Face
	verts []patchVert
	tris  [][3]int
}

func (p *patch) addVert(u, v float64, pos vec3.T, key weldKey) int {
	p.verts = append(p.verts, patchVert{u: u, v: v, pos: pos, key: key})
	return len(p.verts) - 1
}

// tessellateFace samples the face's loops (through the shared edge
// cache), projects them into the surface's parameter space,
// triangulates the polygon-with-holes, and refines the interior of
// curved faces until the chord tolerance holds.
func tessellateFace(face *topo.Face, cache *edgeCache, opts kernel.Options) (*patch, error) {
	if len(face.Loops) == 0 {
		return nil, &TessellationError{Face: face.ID, Msg: "face has no loops"}
	}

	p := &patch{face: face}
	rings := make([][]int, 0, len(face.Loops))
	for _, loop := range face.Loops {
		ring, err := boundaryRing(p, face, loop, cache)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}

	if err := unwrapRings(face, p, rings); err != nil {
		return nil, err
	}
	if err := orientRings(face, p, rings); err != nil {
		return nil, err
	}
	for _, ring := range rings {
		if selfIntersects(p, ring) {
			return nil, &TessellationError{Face: face.ID,
				Msg: "self-intersecting loop in parameter space"}
		}
	}

	tris, err := triangulateRings(face, p, rings)
	if err != nil {
		return nil, err
	}

	if _, planar := face.Surface.(*geom.Plane); !planar {
		tris = refineInterior(p, tris, rings, face.Surface, opts)
	}

	// Parameter-space CCW triangles have normals along du x dv, the
	// surface normal. A reversed face flips the winding so normals
	// point along the solid's outward direction.
	if !face.SameSense {
		for i := range tris {
			tris[i][1], tris[i][2] = tris[i][2], tris[i][1]
		}
	}
	p.tris = tris
	return p, nil
}

// boundaryRing concatenates the loop's edge polylines into one cyclic
// ring of patch vertices. Each edge contributes its cached samples in
// traversal order minus the trailing junction vertex, which the next
// edge supplies again.
func boundaryRing(p *patch, face *topo.Face, loop *topo.Loop, cache *edgeCache) ([]int, error) {
	var ring []int
	for _, use := range loop.Uses {
		pts := cache.samples(use.Edge)
		n := len(pts)
		for k := 0; k < n-1; k++ {
			j := k
			if use.Reversed {
				j = n - 1 - k
			}
			u, v := face.Surface.UV(pts[j])
			if math.IsNaN(u) || math.IsInf(u, 0) || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &TessellationError{Face: face.ID,
					Msg: "boundary point has no parameter-space image"}
			}
			ring = append(ring, p.addVert(u, v, pts[j], sampleKey(use.Edge, j, n)))
		}
	}
	if len(ring) < 3 {
		return nil, &TessellationError{Face: face.ID, Msg: "degenerate boundary loop"}
	}
	return ring, nil
}

// sampleKey returns the welding identity of sample j of an edge's
// canonical (Start to End) polyline. Endpoints weld by topological
// vertex, interior samples by (edge, index).
func sampleKey(e *topo.Edge, j, n int) weldKey {
	switch j {
	case 0:
		return weldKey{kind: weldVertex, id: e.Start.ID}
	case n - 1:
		return weldKey{kind: weldVertex, id: e.End.ID}
	default:
		return weldKey{kind: weldEdgeSample, id: e.ID, idx: int32(j)}
	}
}

// unwrapRings removes period jumps from rings on periodic surfaces so
// each loop lives in one continuous parameter window, and shifts inner
// loops into the outer loop's window.
func unwrapRings(face *topo.Face, p *patch, rings [][]int) error {
	pu, pv := face.Surface.Periods()
	if pu == 0 && pv == 0 {
		return nil
	}

	for _, ring := range rings {
		for i := 1; i < len(ring); i++ {
			prev, cur := &p.verts[ring[i-1]], &p.verts[ring[i]]
			if pu > 0 {
				cur.u = unwrapNear(prev.u, cur.u, pu)
			}
			if pv > 0 {
				cur.v = unwrapNear(prev.v, cur.v, pv)
			}
		}
		// A loop that winds around the period without returning to
		// its start has no seam edge; it is not a planar polygon.
		first, last := p.verts[ring[0]], p.verts[ring[len(ring)-1]]
		if pu > 0 && math.Abs(last.u-first.u) > pu/2 ||
			pv > 0 && math.Abs(last.v-first.v) > pv/2 {
			return &TessellationError{Face: face.ID,
				Msg: "loop wraps a periodic surface without a seam edge"}
		}
	}

	// Align hole windows with the outer ring.
	if len(rings) > 1 {
		ocu, ocv := ringCenter(p, rings[0])
		for _, hole := range rings[1:] {
			hcu, hcv := ringCenter(p, hole)
			du, dv := 0.0, 0.0
			if pu > 0 {
				du = math.Round((ocu-hcu)/pu) * pu
			}
			if pv > 0 {
				dv = math.Round((ocv-hcv)/pv) * pv
			}
			if du != 0 || dv != 0 {
				for _, i := range hole {
					p.verts[i].u += du
					p.verts[i].v += dv
				}
			}
		}
	}
	return nil
}

// unwrapNear shifts cur by whole periods so it lies within half a
// period of prev.
func unwrapNear(prev, cur, period float64) float64 {
	d := cur - prev
	d -= period * math.Round(d/period)
	return prev + d
}

func ringCenter(p *patch, ring []int) (cu, cv float64) {
	for _, i := range ring {
		cu += p.verts[i].u
		cv += p.verts[i].v
	}
	n := float64(len(ring))
	return cu / n, cv / n
}

// orientRings normalizes ring direction in parameter space: outer loop
// counter-clockwise, holes clockwise. Zero-area rings are rejected.
func orientRings(face *topo.Face, p *patch, rings [][]int) error {
	for ri, ring := range rings {
		area := ringArea(p, ring)
		if math.Abs(area) < 1e-12 {
			return &TessellationError{Face: face.ID, Msg: "zero-area loop in parameter space"}
		}
		wantCCW := ri == 0
		if (ringOrientation(p, ring) == orb.CCW) != wantCCW {
			reverseInts(ring)
		}
	}
	return nil
}

func ringOrientation(p *patch, ring []int) orb.Orientation {
	r := make(orb.Ring, 0, len(ring)+1)
	for _, i := range ring {
		r = append(r, orb.Point{p.verts[i].u, p.verts[i].v})
	}
	r = append(r, r[0])
	return r.Orientation()
}

// ringArea is the shoelace signed area of the ring.
func ringArea(p *patch, ring []int) float64 {
	sum := 0.0
	for i, vi := range ring {
		vj := ring[(i+1)%len(ring)]
		a, b := p.verts[vi], p.verts[vj]
		sum += a.u*b.v - b.u*a.v
	}
	return sum / 2
}

func reverseInts(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// selfIntersects reports whether any two non-adjacent ring segments
// properly cross.
func selfIntersects(p *patch, ring []int) bool {
	n := len(ring)
	for i := 0; i < n; i++ {
		a1 := p.verts[ring[i]]
		a2 := p.verts[ring[(i+1)%n]]
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue // adjacent around the wrap
			}
			b1 := p.verts[ring[j]]
			b2 := p.verts[ring[(j+1)%n]]
			if segmentsCross(a1.u, a1.v, a2.u, a2.v, b1.u, b1.v, b2.u, b2.v) {
				return true
			}
		}
	}
	return false
}

// segmentsCross is a strict proper-intersection test; touching
// endpoints do not count.
func segmentsCross(ax, ay, bx, by, cx, cy, dx, dy float64) bool {
	d1 := cross2(cx-ax, cy-ay, bx-ax, by-ay)
	d2 := cross2(dx-ax, dy-ay, bx-ax, by-ay)
	d3 := cross2(ax-cx, ay-cy, dx-cx, dy-cy)
	d4 := cross2(bx-cx, by-cy, dx-cx, dy-cy)
	return d1*d2 < 0 && d3*d4 < 0
}

func cross2(ax, ay, bx, by float64) float64 {
	return ax*by - ay*bx
}
