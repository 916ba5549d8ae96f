package tessellate

import (
	"fmt"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/kernel"
)

// assemble merges all per-face patches into one global indexed mesh.
// Vertices with the same weld key (topological vertex, or the same
// sample of a shared edge) collapse to a single global index; interior
// vertices always get fresh indices. Vertex normals are the normalized
// sum of un-normalized incident face normals, which weights each face
// by its area.
func assemble(patches []*patch) (*kernel.Mesh, error) {
	var positions []vec3.T
	var accum []vec3.T
	var indices []uint32
	welded := make(map[weldKey]uint32)

	push := func(p vec3.T) uint32 {
		positions = append(positions, p)
		accum = append(accum, vec3.T{})
		return uint32(len(positions) - 1)
	}

	expected := 0
	for _, p := range patches {
		expected += len(p.tris)

		local := make([]uint32, len(p.verts))
		for i, v := range p.verts {
			if v.key.kind == weldInterior {
				local[i] = push(v.pos)
				continue
			}
			g, ok := welded[v.key]
			if !ok {
				g = push(v.pos)
				welded[v.key] = g
			}
			local[i] = g
		}

		for _, t := range p.tris {
			ia, ib, ic := local[t[0]], local[t[1]], local[t[2]]
			ab := vec3.Sub(&positions[ib], &positions[ia])
			ac := vec3.Sub(&positions[ic], &positions[ia])
			fn := vec3.Cross(&ab, &ac)
			if fn.LengthSqr() < 1e-24 {
				return nil, &TessellationError{Face: p.face.ID,
					Msg: fmt.Sprintf("degenerate triangle (%d,%d,%d) after welding", ia, ib, ic)}
			}
			accum[ia].Add(&fn)
			accum[ib].Add(&fn)
			accum[ic].Add(&fn)
			indices = append(indices, ia, ib, ic)
		}
	}

	if len(indices)/3 != expected {
		return nil, fmt.Errorf("tessellate: internal error: %d triangles assembled, %d expected",
			len(indices)/3, expected)
	}

	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, len(positions)*3),
		Normals:  make([]float32, 0, len(positions)*3),
		Indices:  indices,
	}
	for i, pos := range positions {
		n := accum[i]
		if n.LengthSqr() > 0 {
			n.Normalize()
		}
		mesh.Vertices = append(mesh.Vertices, float32(pos[0]), float32(pos[1]), float32(pos[2]))
		mesh.Normals = append(mesh.Normals, float32(n[0]), float32(n[1]), float32(n[2]))
	}
	return mesh, nil
}
