package tessellate

import (
	"sort"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
	"github.com/chazu/stepmesh/pkg/kernel"
)

// refineInterior drives the chord deviation of curved-face interiors
// below the tolerance. Each pass marks the interior edges of offending
// triangles for a midpoint split; the marks are global per edge, so
// neighboring triangles split consistently and the patch stays
// conforming. Boundary (loop) edges are never split, which keeps the
// stitched seams exact.
func refineInterior(p *patch, tris [][3]int, rings [][]int, s geom.Surface, opts kernel.Options) [][3]int {
	tol := opts.ChordTol

	constrained := make(map[[2]int]bool)
	for _, ring := range rings {
		for i := range ring {
			constrained[edgeKey(ring[i], ring[(i+1)%len(ring)])] = true
		}
	}

	for pass := 0; pass < opts.MaxRefine; pass++ {
		marked := make(map[[2]int]bool)
		centroid := make(map[int]bool)

		for ti, t := range tris {
			if triDeviation(p, s, t) <= tol {
				continue
			}
			// Split the longest splittable edge; a triangle boxed in
			// by constrained edges splits at its centroid instead.
			best := -1
			bestLen := 0.0
			for e := 0; e < 3; e++ {
				a, b := t[e], t[(e+1)%3]
				if constrained[edgeKey(a, b)] {
					continue
				}
				d := vec3.Sub(&p.verts[a].pos, &p.verts[b].pos)
				if l := d.LengthSqr(); best < 0 || l > bestLen {
					best, bestLen = e, l
				}
			}
			if best < 0 {
				centroid[ti] = true
				continue
			}
			marked[edgeKey(t[best], t[(best+1)%3])] = true
		}
		if len(marked) == 0 && len(centroid) == 0 {
			break
		}

		// Allocate midpoints in sorted edge order so refinement is
		// deterministic run to run.
		keys := make([][2]int, 0, len(marked))
		for k := range marked {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			return keys[i][0] < keys[j][0] || keys[i][0] == keys[j][0] && keys[i][1] < keys[j][1]
		})
		mids := make(map[[2]int]int, len(keys))
		for _, k := range keys {
			a, b := p.verts[k[0]], p.verts[k[1]]
			mu, mv := (a.u+b.u)/2, (a.v+b.v)/2
			mids[k] = p.addVert(mu, mv, s.Point(mu, mv), weldKey{kind: weldInterior})
		}

		var out [][3]int
		for ti, t := range tris {
			out = appendSplit(out, p, s, t, mids, centroid[ti])
		}
		tris = out
	}
	return tris
}

// triDeviation probes the triangle's edge midpoints and centroid
// against the analytic surface and returns the largest distance.
func triDeviation(p *patch, s geom.Surface, t [3]int) float64 {
	a, b, c := p.verts[t[0]], p.verts[t[1]], p.verts[t[2]]
	dev := 0.0
	probe := func(u, v float64, chord vec3.T) {
		sp := s.Point(u, v)
		d := vec3.Sub(&sp, &chord)
		if l := d.Length(); l > dev {
			dev = l
		}
	}
	probe((a.u+b.u)/2, (a.v+b.v)/2, midpoint(a.pos, b.pos))
	probe((b.u+c.u)/2, (b.v+c.v)/2, midpoint(b.pos, c.pos))
	probe((c.u+a.u)/2, (c.v+a.v)/2, midpoint(c.pos, a.pos))

	cu, cv := (a.u+b.u+c.u)/3, (a.v+b.v+c.v)/3
	g := a.pos
	g.Add(&b.pos)
	g.Add(&c.pos)
	g.Scale(1.0 / 3.0)
	probe(cu, cv, g)
	return dev
}

func midpoint(a, b vec3.T) vec3.T {
	a.Add(&b)
	a.Scale(0.5)
	return a
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// appendSplit emits the triangle split according to which of its edges
// carry midpoints; the standard 1-, 2- and 3-edge patterns preserve
// orientation. A centroid-split triangle fans into three.
func appendSplit(out [][3]int, p *patch, s geom.Surface, t [3]int, mids map[[2]int]int, centroidSplit bool) [][3]int {
	m := [3]int{-1, -1, -1}
	count := 0
	for e := 0; e < 3; e++ {
		if id, ok := mids[edgeKey(t[e], t[(e+1)%3])]; ok {
			m[e] = id
			count++
		}
	}

	switch count {
	case 0:
		if centroidSplit {
			a, b, c := p.verts[t[0]], p.verts[t[1]], p.verts[t[2]]
			gu, gv := (a.u+b.u+c.u)/3, (a.v+b.v+c.v)/3
			g := p.addVert(gu, gv, s.Point(gu, gv), weldKey{kind: weldInterior})
			return append(out, [3]int{t[0], t[1], g}, [3]int{t[1], t[2], g}, [3]int{t[2], t[0], g})
		}
		return append(out, t)

	case 1:
		// Rotate so the split edge is t0-t1.
		for m[0] < 0 {
			t, m = rot3(t), rot3(m)
		}
		return append(out, [3]int{t[0], m[0], t[2]}, [3]int{m[0], t[1], t[2]})

	case 2:
		// Rotate so the split edges are t0-t1 and t1-t2.
		for m[0] < 0 || m[1] < 0 {
			t, m = rot3(t), rot3(m)
		}
		return append(out,
			[3]int{m[0], t[1], m[1]},
			[3]int{t[0], m[0], m[1]},
			[3]int{t[0], m[1], t[2]})

	default:
		return append(out,
			[3]int{t[0], m[0], m[2]},
			[3]int{m[0], t[1], m[1]},
			[3]int{m[2], m[1], t[2]},
			[3]int{m[0], m[1], m[2]})
	}
}

func rot3(t [3]int) [3]int {
	return [3]int{t[1], t[2], t[0]}
}
