package tessellate

import (
	"math"
	"sort"

	"github.com/chazu/stepmesh/pkg/topo"
)

// areaEps rejects parameter-space triangles with no usable area.
const areaEps = 1e-12

// triangulateRings triangulates the parameter-space polygon-with-holes
// by bridging every hole into the outer ring and ear-clipping the
// result. Triangle edges never cross loop boundaries because loop
// segments are polygon edges of the clipped polygon. All triangles
// come out counter-clockwise.
func triangulateRings(face *topo.Face, p *patch, rings [][]int) ([][3]int, error) {
	poly := append([]int(nil), rings[0]...)

	// Bridge holes right-to-left so each cut sees the polygon merged
	// so far. Order is by the hole's maximum u, descending.
	holes := make([][]int, len(rings)-1)
	copy(holes, rings[1:])
	sort.SliceStable(holes, func(i, j int) bool {
		_, ui := maxUVert(p, holes[i])
		_, uj := maxUVert(p, holes[j])
		return ui > uj
	})

	for _, hole := range holes {
		var err error
		poly, err = bridgeHole(face, p, poly, hole)
		if err != nil {
			return nil, err
		}
	}
	return earClip(face, p, poly)
}

// maxUVert returns the ring position and u of the ring's rightmost
// vertex (ties broken by larger v, keeping the choice deterministic).
func maxUVert(p *patch, ring []int) (pos int, u float64) {
	pos = 0
	for i := 1; i < len(ring); i++ {
		a, b := p.verts[ring[i]], p.verts[ring[pos]]
		if a.u > b.u || a.u == b.u && a.v > b.v {
			pos = i
		}
	}
	return pos, p.verts[ring[pos]].u
}

// bridgeHole splices a hole ring (clockwise) into the outer polygon
// (counter-clockwise) with a zero-width cut from the hole's rightmost
// vertex to a visible outer vertex, the classic ear-clipping hole
// elimination.
func bridgeHole(face *topo.Face, p *patch, poly, hole []int) ([]int, error) {
	mi, _ := maxUVert(p, hole)
	m := p.verts[hole[mi]]

	// Cast a ray from m in +u and find the nearest crossing polygon
	// edge.
	bestX := math.Inf(1)
	bestEdge := -1
	n := len(poly)
	for i := 0; i < n; i++ {
		a := p.verts[poly[i]]
		b := p.verts[poly[(i+1)%n]]
		if a.v == b.v {
			continue // horizontal edge cannot straddle the ray
		}
		if m.v < math.Min(a.v, b.v) || m.v > math.Max(a.v, b.v) {
			continue
		}
		x := a.u + (m.v-a.v)*(b.u-a.u)/(b.v-a.v)
		if x >= m.u-areaEps && x < bestX {
			bestX = x
			bestEdge = i
		}
	}
	if bestEdge < 0 {
		return nil, &TessellationError{Face: face.ID,
			Msg: "hole lies outside the outer loop in parameter space"}
	}

	// Candidate connection vertex: the crossing edge's endpoint with
	// the larger u. If a reflex polygon vertex sits inside the
	// triangle (m, intersection, candidate) it would be occluded, so
	// connect to the occluder closest in angle to the ray instead.
	ci := bestEdge
	cn := (bestEdge + 1) % n
	if p.verts[poly[cn]].u > p.verts[poly[ci]].u {
		ci = cn
	}
	c := p.verts[poly[ci]]

	bestAngle := math.Inf(1)
	bestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		q := p.verts[poly[i]]
		if i == ci || !isReflex(p, poly, i) {
			continue
		}
		if !pointInTriangleLoose(m.u, m.v, bestX, m.v, c.u, c.v, q.u, q.v) {
			continue
		}
		ang := math.Abs(math.Atan2(q.v-m.v, q.u-m.u))
		dist := math.Hypot(q.u-m.u, q.v-m.v)
		if ang < bestAngle || ang == bestAngle && dist < bestDist {
			bestAngle, bestDist = ang, dist
			ci = i
		}
	}

	// Splice: outer up to the bridge vertex, around the hole starting
	// at m, back to m, back to the bridge vertex, rest of the outer.
	merged := make([]int, 0, len(poly)+len(hole)+2)
	merged = append(merged, poly[:ci+1]...)
	merged = append(merged, hole[mi:]...)
	merged = append(merged, hole[:mi+1]...)
	merged = append(merged, poly[ci:]...)
	return merged, nil
}

// isReflex reports whether polygon vertex i turns clockwise in the
// counter-clockwise polygon.
func isReflex(p *patch, poly []int, i int) bool {
	n := len(poly)
	a := p.verts[poly[(i+n-1)%n]]
	b := p.verts[poly[i]]
	c := p.verts[poly[(i+1)%n]]
	return cross2(b.u-a.u, b.v-a.v, c.u-b.u, c.v-b.v) < 0
}

// earClip triangulates a simple counter-clockwise polygon (possibly
// containing coincident bridge vertices) by repeated ear removal.
func earClip(face *topo.Face, p *patch, poly []int) ([][3]int, error) {
	idx := append([]int(nil), poly...)
	var tris [][3]int

	for len(idx) > 3 {
		clipped := false
		for i := 0; i < len(idx); i++ {
			if !isEar(p, idx, i) {
				continue
			}
			n := len(idx)
			a, b, c := idx[(i+n-1)%n], idx[i], idx[(i+1)%n]
			if triArea(p, a, b, c) > areaEps {
				tris = append(tris, [3]int{a, b, c})
			}
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			// With no ear left, the only valid leftover is a zero-area
			// chain of collinear boundary samples: all real area has
			// been emitted, and every chain vertex already sits in a
			// neighboring triangle. Anything with area remaining is a
			// genuinely bad boundary.
			if math.Abs(polyArea(p, idx)) > areaEps {
				return nil, &TessellationError{Face: face.ID,
					Msg: "unable to triangulate trimmed region (degenerate or self-intersecting boundary)"}
			}
			idx = idx[:0]
			break
		}
	}
	if len(idx) == 3 && triArea(p, idx[0], idx[1], idx[2]) > areaEps {
		tris = append(tris, [3]int{idx[0], idx[1], idx[2]})
	}
	if len(tris) == 0 {
		return nil, &TessellationError{Face: face.ID, Msg: "trimmed region has no area"}
	}
	return tris, nil
}

// isEar: vertex i is convex (or a removable degenerate sliver) and no
// other polygon vertex lies strictly inside its triangle or on its
// clip diagonal.
func isEar(p *patch, idx []int, i int) bool {
	n := len(idx)
	a := p.verts[idx[(i+n-1)%n]]
	b := p.verts[idx[i]]
	c := p.verts[idx[(i+1)%n]]

	area2 := cross2(b.u-a.u, b.v-a.v, c.u-a.u, c.v-a.v)
	if area2 < -areaEps {
		return false // reflex corner
	}
	if area2 <= areaEps {
		// Zero-width spikes and coincident bridge duplicates are
		// removable. A straight collinear vertex is not: clipping it
		// would drop a boundary sample and crack the stitched seam.
		return samePoint(a.u, a.v, c.u, c.v) ||
			samePoint(a.u, a.v, b.u, b.v) ||
			samePoint(b.u, b.v, c.u, c.v)
	}
	for j := 0; j < n; j++ {
		if idx[j] == idx[(i+n-1)%n] || idx[j] == idx[i] || idx[j] == idx[(i+1)%n] {
			continue
		}
		q := p.verts[idx[j]]
		if samePoint(q.u, q.v, a.u, a.v) || samePoint(q.u, q.v, b.u, b.v) || samePoint(q.u, q.v, c.u, c.v) {
			continue // bridge duplicate
		}
		if pointInTriangleStrict(a.u, a.v, b.u, b.v, c.u, c.v, q.u, q.v) {
			return false
		}
		// The clip diagonal a-c must not pass over another boundary
		// sample: the triangle edge would then span the sample and leave
		// a T-junction against the neighboring face.
		if pointOnSegment(a.u, a.v, c.u, c.v, q.u, q.v) {
			return false
		}
	}
	return true
}

func samePoint(ax, ay, bx, by float64) bool {
	return math.Abs(ax-bx) < areaEps && math.Abs(ay-by) < areaEps
}

// pointOnSegment: q lies on segment ab, strictly between the endpoints.
func pointOnSegment(ax, ay, bx, by, qx, qy float64) bool {
	if math.Abs(cross2(bx-ax, by-ay, qx-ax, qy-ay)) > areaEps {
		return false
	}
	d := (qx-ax)*(bx-ax) + (qy-ay)*(by-ay)
	l2 := (bx-ax)*(bx-ax) + (by-ay)*(by-ay)
	return d > areaEps && d < l2-areaEps
}

// polyArea is the signed shoelace area of the working polygon.
func polyArea(p *patch, idx []int) float64 {
	area := 0.0
	n := len(idx)
	for i := 0; i < n; i++ {
		a := p.verts[idx[i]]
		b := p.verts[idx[(i+1)%n]]
		area += a.u*b.v - b.u*a.v
	}
	return area / 2
}

func triArea(p *patch, a, b, c int) float64 {
	va, vb, vc := p.verts[a], p.verts[b], p.verts[c]
	return cross2(vb.u-va.u, vb.v-va.v, vc.u-va.u, vc.v-va.v) / 2
}

// pointInTriangleStrict: q strictly inside CCW triangle abc.
func pointInTriangleStrict(ax, ay, bx, by, cx, cy, qx, qy float64) bool {
	d1 := cross2(bx-ax, by-ay, qx-ax, qy-ay)
	d2 := cross2(cx-bx, cy-by, qx-bx, qy-by)
	d3 := cross2(ax-cx, ay-cy, qx-cx, qy-cy)
	return d1 > areaEps && d2 > areaEps && d3 > areaEps
}

// pointInTriangleLoose: q inside or on the boundary of triangle abc
// (either orientation).
func pointInTriangleLoose(ax, ay, bx, by, cx, cy, qx, qy float64) bool {
	d1 := cross2(bx-ax, by-ay, qx-ax, qy-ay)
	d2 := cross2(cx-bx, cy-by, qx-bx, qy-by)
	d3 := cross2(ax-cx, ay-cy, qx-cx, qy-cy)
	neg := d1 < -areaEps || d2 < -areaEps || d3 < -areaEps
	pos := d1 > areaEps || d2 > areaEps || d3 > areaEps
	return !(neg && pos)
}
