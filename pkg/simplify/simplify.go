// Package simplify reduces a triangle mesh's triangle count by
// iterative quadric-error edge collapse. Boundary vertices are locked
// so open edges keep their exact shape, and the collapse order is
// fully deterministic for a given input.
package simplify

import (
	"container/heap"
	"fmt"
	"math"
	"sort"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/kernel"
)

// SimplifyError reports an invalid simplification request.
type SimplifyError struct {
	Msg string
}

func (e *SimplifyError) Error() string {
	return "simplify: " + e.Msg
}

// Simplify collapses edges of m until at most ceil(targetRatio *
// original triangle count) triangles remain, or no collapse can be
// performed for less than maxError. maxError is a world-space distance
// bound: a collapse is admitted while the merged vertex's area-weighted
// RMS distance to its accumulated support planes stays below it. Pass 0
// for no bound. The result may therefore stop above the target ratio
// when maxError binds, or when every remaining edge touches a locked
// boundary. m is not modified.
func Simplify(m *kernel.Mesh, targetRatio, maxError float64) (*kernel.Mesh, error) {
	if targetRatio <= 0 || targetRatio > 1 {
		return nil, &SimplifyError{Msg: fmt.Sprintf("target ratio %g outside (0, 1]", targetRatio)}
	}
	if maxError < 0 {
		return nil, &SimplifyError{Msg: fmt.Sprintf("negative max error %g", maxError)}
	}
	if m.TriangleCount() == 0 || targetRatio == 1 {
		return m.Clone(), nil
	}

	s := newState(m, maxError)
	target := int(math.Ceil(targetRatio * float64(s.aliveTris)))
	s.run(target)
	return s.extract(m.Name), nil
}

// quadric is a symmetric 4x4 error matrix stored as its 10 distinct
// coefficients. Evaluating it at a point gives the sum of squared
// distances to the planes accumulated into it.
type quadric struct {
	a2, ab, ac, ad float64
	b2, bc, bd     float64
	c2, cd         float64
	d2             float64
}

func (q *quadric) add(o *quadric) {
	q.a2 += o.a2
	q.ab += o.ab
	q.ac += o.ac
	q.ad += o.ad
	q.b2 += o.b2
	q.bc += o.bc
	q.bd += o.bd
	q.c2 += o.c2
	q.cd += o.cd
	q.d2 += o.d2
}

func (q *quadric) eval(p vec3.T) float64 {
	x, y, z := p[0], p[1], p[2]
	return q.a2*x*x + 2*q.ab*x*y + 2*q.ac*x*z + 2*q.ad*x +
		q.b2*y*y + 2*q.bc*y*z + 2*q.bd*y +
		q.c2*z*z + 2*q.cd*z +
		q.d2
}

// planeQuadric builds the quadric of the plane (n, d) scaled by w.
func planeQuadric(n vec3.T, d, w float64) quadric {
	return quadric{
		a2: w * n[0] * n[0], ab: w * n[0] * n[1], ac: w * n[0] * n[2], ad: w * n[0] * d,
		b2: w * n[1] * n[1], bc: w * n[1] * n[2], bd: w * n[1] * d,
		c2: w * n[2] * n[2], cd: w * n[2] * d,
		d2: w * d * d,
	}
}

type collapse struct {
	cost  float64
	errSq float64 // cost normalized by accumulated plane weight
	a, b  int     // a < b
	gen   int     // sum of endpoint generations at push time
}

type collapseHeap []collapse

func (h collapseHeap) Len() int { return len(h) }
func (h collapseHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].a != h[j].a {
		return h[i].a < h[j].a
	}
	return h[i].b < h[j].b
}
func (h collapseHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *collapseHeap) Push(x any)   { *h = append(*h, x.(collapse)) }
func (h *collapseHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

type state struct {
	pos      []vec3.T
	quadrics []quadric
	weight   []float64 // accumulated plane weight per vertex
	locked   []bool
	gen      []int // bumped on every change touching the vertex
	faces    [][3]int
	alive    []bool
	incident [][]int // vertex -> alive face indices (may hold stale entries)

	aliveTris int
	maxErrSq  float64 // 0 means unbounded
	h         collapseHeap
}

func newState(m *kernel.Mesh, maxError float64) *state {
	nv := m.VertexCount()
	nt := m.TriangleCount()

	s := &state{
		pos:       make([]vec3.T, nv),
		quadrics:  make([]quadric, nv),
		weight:    make([]float64, nv),
		locked:    make([]bool, nv),
		gen:       make([]int, nv),
		faces:     make([][3]int, nt),
		alive:     make([]bool, nt),
		incident:  make([][]int, nv),
		aliveTris: nt,
		maxErrSq:  maxError * maxError,
	}
	for i := 0; i < nv; i++ {
		s.pos[i] = vec3.T{
			float64(m.Vertices[i*3]),
			float64(m.Vertices[i*3+1]),
			float64(m.Vertices[i*3+2]),
		}
	}

	edgeTris := make(map[[2]int]int)
	for t := 0; t < nt; t++ {
		f := [3]int{int(m.Indices[t*3]), int(m.Indices[t*3+1]), int(m.Indices[t*3+2])}
		s.faces[t] = f
		s.alive[t] = true
		for e := 0; e < 3; e++ {
			s.incident[f[e]] = append(s.incident[f[e]], t)
			edgeTris[edgeKey(f[e], f[(e+1)%3])]++
		}

		n, area2 := faceNormal(s.pos[f[0]], s.pos[f[1]], s.pos[f[2]])
		if area2 <= 0 {
			continue
		}
		d := -vec3.Dot(&n, &s.pos[f[0]])
		q := planeQuadric(n, d, area2)
		for e := 0; e < 3; e++ {
			s.quadrics[f[e]].add(&q)
			s.weight[f[e]] += area2
		}
	}

	// An edge with a single incident triangle is a mesh boundary; its
	// endpoints never move so open silhouettes survive simplification.
	edges := make([][2]int, 0, len(edgeTris))
	for k, n := range edgeTris {
		edges = append(edges, k)
		if n == 1 {
			s.locked[k[0]] = true
			s.locked[k[1]] = true
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		return edges[i][0] < edges[j][0] ||
			edges[i][0] == edges[j][0] && edges[i][1] < edges[j][1]
	})
	for _, e := range edges {
		if c, ok := s.edgeCollapse(e[0], e[1]); ok {
			s.h = append(s.h, c)
		}
	}
	heap.Init(&s.h)
	return s
}

func edgeKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

func faceNormal(a, b, c vec3.T) (vec3.T, float64) {
	ab := vec3.Sub(&b, &a)
	ac := vec3.Sub(&c, &a)
	n := vec3.Cross(&ab, &ac)
	l := n.Length()
	if l < 1e-30 {
		return vec3.T{}, 0
	}
	n.Scale(1 / l)
	return n, l / 2
}

// bestTarget picks the collapse position among the two endpoints and
// the midpoint, whichever minimizes the combined quadric. A locked
// endpoint forces the position onto itself.
func (s *state) bestTarget(a, b int) (vec3.T, float64, bool) {
	if s.locked[a] && s.locked[b] {
		return vec3.T{}, 0, false
	}
	q := s.quadrics[a]
	q.add(&s.quadrics[b])

	if s.locked[a] {
		return s.pos[a], q.eval(s.pos[a]), true
	}
	if s.locked[b] {
		return s.pos[b], q.eval(s.pos[b]), true
	}

	mid := vec3.Interpolate(&s.pos[a], &s.pos[b], 0.5)
	best, cost := mid, q.eval(mid)
	if c := q.eval(s.pos[a]); c < cost {
		best, cost = s.pos[a], c
	}
	if c := q.eval(s.pos[b]); c < cost {
		best, cost = s.pos[b], c
	}
	return best, cost, true
}

func (s *state) edgeCollapse(a, b int) (collapse, bool) {
	if a > b {
		a, b = b, a
	}
	_, cost, ok := s.bestTarget(a, b)
	if !ok {
		return collapse{}, false
	}
	// The raw quadric cost is an area-weighted sum of squared plane
	// distances; dividing out the weight yields a squared RMS distance
	// that is comparable against maxError across mesh scales.
	errSq := cost
	if w := s.weight[a] + s.weight[b]; w > 0 {
		errSq = cost / w
	}
	return collapse{cost: cost, errSq: errSq, a: a, b: b, gen: s.gen[a] + s.gen[b]}, true
}

func (s *state) run(target int) {
	for s.aliveTris > target && s.h.Len() > 0 {
		c := heap.Pop(&s.h).(collapse)
		if c.gen != s.gen[c.a]+s.gen[c.b] {
			continue // stale entry, a fresher one is queued
		}
		if s.maxErrSq > 0 && c.errSq > s.maxErrSq {
			continue // this collapse exceeds the error bound
		}
		s.tryCollapse(c.a, c.b)
	}
}

// tryCollapse merges b into a at the best target position, dropping
// the faces shared by both. The collapse is rejected when it would
// produce a non-manifold fan or flip a surviving triangle.
func (s *state) tryCollapse(a, b int) {
	pos, _, ok := s.bestTarget(a, b)
	if !ok {
		return
	}

	shared := 0
	for _, t := range s.incident[b] {
		if !s.alive[t] {
			continue
		}
		if hasVertex(s.faces[t], a) {
			shared++
		}
	}
	if shared == 0 || shared > 2 {
		return
	}
	// Link condition: the only vertices adjacent to both endpoints
	// must be the shared faces' opposite corners, otherwise the
	// collapse pinches the surface.
	if s.commonNeighbors(a, b) != shared {
		return
	}
	if s.wouldFlip(a, b, pos) || s.wouldFlip(b, a, pos) {
		return
	}

	s.pos[a] = pos
	q := s.quadrics[b]
	s.quadrics[a].add(&q)
	s.weight[a] += s.weight[b]
	s.locked[a] = s.locked[a] || s.locked[b]

	for _, t := range s.incident[b] {
		if !s.alive[t] {
			continue
		}
		if hasVertex(s.faces[t], a) {
			s.alive[t] = false
			s.aliveTris--
			continue
		}
		for e := 0; e < 3; e++ {
			if s.faces[t][e] == b {
				s.faces[t][e] = a
			}
		}
		s.incident[a] = append(s.incident[a], t)
	}
	s.incident[b] = nil
	s.gen[a]++
	s.gen[b]++

	// Requeue the surviving vertex's edges in sorted order so equal
	// costs pop identically run to run.
	for _, n := range s.neighbors(a) {
		if c, ok := s.edgeCollapse(a, n); ok {
			heap.Push(&s.h, c)
		}
	}
}

func hasVertex(f [3]int, v int) bool {
	return f[0] == v || f[1] == v || f[2] == v
}

func (s *state) neighbors(v int) []int {
	seen := make(map[int]bool)
	for _, t := range s.incident[v] {
		if !s.alive[t] {
			continue
		}
		for _, w := range s.faces[t] {
			if w != v {
				seen[w] = true
			}
		}
	}
	out := make([]int, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

func (s *state) commonNeighbors(a, b int) int {
	na := s.neighbors(a)
	inA := make(map[int]bool, len(na))
	for _, v := range na {
		inA[v] = true
	}
	n := 0
	for _, v := range s.neighbors(b) {
		if inA[v] {
			n++
		}
	}
	return n
}

// wouldFlip reports whether moving v to pos inverts or degenerates any
// of v's surviving triangles (those not collapsed away with the edge).
func (s *state) wouldFlip(v, other int, pos vec3.T) bool {
	for _, t := range s.incident[v] {
		if !s.alive[t] || hasVertex(s.faces[t], other) {
			continue
		}
		f := s.faces[t]
		var p [3]vec3.T
		for e := 0; e < 3; e++ {
			if f[e] == v {
				p[e] = pos
			} else {
				p[e] = s.pos[f[e]]
			}
		}
		before, areaB := faceNormal(s.pos[f[0]], s.pos[f[1]], s.pos[f[2]])
		after, areaA := faceNormal(p[0], p[1], p[2])
		if areaA <= 0 {
			return true
		}
		if areaB > 0 && vec3.Dot(&before, &after) < 0 {
			return true
		}
	}
	return false
}

// extract compacts the surviving vertices and triangles into a fresh
// mesh and rebuilds area-weighted vertex normals.
func (s *state) extract(name string) *kernel.Mesh {
	remap := make([]int, len(s.pos))
	for i := range remap {
		remap[i] = -1
	}
	var order []int
	for t, f := range s.faces {
		if !s.alive[t] {
			continue
		}
		for _, v := range f {
			if remap[v] < 0 {
				remap[v] = len(order)
				order = append(order, v)
			}
		}
	}

	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, len(order)*3),
		Normals:  make([]float32, len(order)*3),
		Indices:  make([]uint32, 0, s.aliveTris*3),
		Name:     name,
	}
	accum := make([]vec3.T, len(order))
	for _, v := range order {
		p := s.pos[v]
		mesh.Vertices = append(mesh.Vertices, float32(p[0]), float32(p[1]), float32(p[2]))
	}
	for t, f := range s.faces {
		if !s.alive[t] {
			continue
		}
		a, b, c := remap[f[0]], remap[f[1]], remap[f[2]]
		mesh.Indices = append(mesh.Indices, uint32(a), uint32(b), uint32(c))

		ab := vec3.Sub(&s.pos[f[1]], &s.pos[f[0]])
		ac := vec3.Sub(&s.pos[f[2]], &s.pos[f[0]])
		fn := vec3.Cross(&ab, &ac)
		accum[a].Add(&fn)
		accum[b].Add(&fn)
		accum[c].Add(&fn)
	}
	for i, n := range accum {
		if n.LengthSqr() > 0 {
			n.Normalize()
		}
		mesh.Normals[i*3] = float32(n[0])
		mesh.Normals[i*3+1] = float32(n[1])
		mesh.Normals[i*3+2] = float32(n[2])
	}
	return mesh
}
