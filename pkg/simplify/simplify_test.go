package simplify_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	"github.com/stretchr/testify/require"

	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/simplify"
)

// marchedCylinder renders an SDF cylinder with marching cubes and
// indexes the triangle soup into a dense closed mesh, the kind of
// over-tessellated input the simplifier exists for.
func marchedCylinder(t *testing.T) *kernel.Mesh {
	t.Helper()
	s, err := sdf.Cylinder3D(20, 8, 0)
	require.NoError(t, err)

	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(40))
	require.NotEmpty(t, triangles)

	m := &kernel.Mesh{}
	index := make(map[[3]float32]uint32)
	for _, tri := range triangles {
		for j := 0; j < 3; j++ {
			key := [3]float32{float32(tri[j].X), float32(tri[j].Y), float32(tri[j].Z)}
			idx, ok := index[key]
			if !ok {
				idx = uint32(len(index))
				index[key] = idx
				m.Vertices = append(m.Vertices, key[0], key[1], key[2])
				m.Normals = append(m.Normals, 0, 0, 1)
			}
			m.Indices = append(m.Indices, idx)
		}
	}
	return m
}

// gridPlane builds an open (n+1)x(n+1) vertex grid of 2*n*n triangles
// in the z=0 plane.
func gridPlane(n int) *kernel.Mesh {
	m := &kernel.Mesh{}
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			m.Vertices = append(m.Vertices, float32(i), float32(j), 0)
			m.Normals = append(m.Normals, 0, 0, 1)
		}
	}
	at := func(i, j int) uint32 { return uint32(j*(n+1) + i) }
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			m.Indices = append(m.Indices,
				at(i, j), at(i+1, j), at(i+1, j+1),
				at(i, j), at(i+1, j+1), at(i, j+1))
		}
	}
	return m
}

func edgeUseCounts(m *kernel.Mesh) map[[2]uint32]int {
	counts := make(map[[2]uint32]int)
	for i := 0; i < len(m.Indices); i += 3 {
		tri := [3]uint32{m.Indices[i], m.Indices[i+1], m.Indices[i+2]}
		for e := 0; e < 3; e++ {
			a, b := tri[e], tri[(e+1)%3]
			if a > b {
				a, b = b, a
			}
			counts[[2]uint32{a, b}]++
		}
	}
	return counts
}

func TestSimplifyReachesTarget(t *testing.T) {
	m := marchedCylinder(t)
	before := m.TriangleCount()

	out, err := simplify.Simplify(m, 0.25, 0)
	require.NoError(t, err)
	require.LessOrEqual(t, out.TriangleCount(), int(math.Ceil(0.25*float64(before))))
	require.Greater(t, out.TriangleCount(), 0)
	require.Equal(t, before, m.TriangleCount(), "input must not be mutated")
}

func TestSimplifyKeepsManifold(t *testing.T) {
	out, err := simplify.Simplify(marchedCylinder(t), 0.25, 0)
	require.NoError(t, err)

	for e, n := range edgeUseCounts(out) {
		require.Equal(t, 2, n, "edge %v", e)
	}
	for i := 0; i < len(out.Indices); i += 3 {
		a, b, c := out.Indices[i], out.Indices[i+1], out.Indices[i+2]
		require.True(t, a != b && b != c && a != c,
			"degenerate triangle at %d: (%d,%d,%d)", i/3, a, b, c)
	}
}

func TestSimplifyDeterministic(t *testing.T) {
	a, err := simplify.Simplify(marchedCylinder(t), 0.3, 0)
	require.NoError(t, err)
	b, err := simplify.Simplify(marchedCylinder(t), 0.3, 0)
	require.NoError(t, err)
	require.True(t, reflect.DeepEqual(a, b), "runs differ")
}

func TestSimplifyBorderLocked(t *testing.T) {
	m := gridPlane(6)
	out, err := simplify.Simplify(m, 0.25, 0)
	require.NoError(t, err)

	// Every boundary position of the open grid must survive exactly.
	want := make(map[[2]float32]bool)
	for i := 0; i < m.VertexCount(); i++ {
		x, y := m.Vertices[i*3], m.Vertices[i*3+1]
		if x == 0 || y == 0 || x == 6 || y == 6 {
			want[[2]float32{x, y}] = true
		}
	}
	got := make(map[[2]float32]bool)
	for i := 0; i < out.VertexCount(); i++ {
		got[[2]float32{out.Vertices[i*3], out.Vertices[i*3+1]}] = true
	}
	for p := range want {
		require.True(t, got[p], "boundary vertex %v collapsed away", p)
	}
}

func TestSimplifyMaxErrorBinds(t *testing.T) {
	m := marchedCylinder(t)
	free, err := simplify.Simplify(m, 0.1, 0)
	require.NoError(t, err)
	tight, err := simplify.Simplify(m, 0.1, 1e-6)
	require.NoError(t, err)
	// A near-zero error budget admits only the zero-cost collapses, so
	// the bounded run cannot go further than the unbounded one.
	require.GreaterOrEqual(t, tight.TriangleCount(), free.TriangleCount())
	require.Greater(t, tight.TriangleCount(), int(math.Ceil(0.1*float64(m.TriangleCount()))),
		"curved-region collapses should exceed a 1e-6 error budget")
}

func TestSimplifyMaxErrorScaleInvariant(t *testing.T) {
	m := marchedCylinder(t)
	big := m.Clone()
	for i := range big.Vertices {
		big.Vertices[i] *= 4
	}

	// A distance bound must scale with the geometry: the same mesh at
	// 4x size with a 4x bound has to collapse identically. The scale is
	// a power of two so every float operation scales exactly.
	const maxErr = 1.0 / 1024
	a, err := simplify.Simplify(m, 0.1, maxErr)
	require.NoError(t, err)
	b, err := simplify.Simplify(big, 0.1, 4*maxErr)
	require.NoError(t, err)
	require.Equal(t, a.TriangleCount(), b.TriangleCount())
}

func TestSimplifyInvalidArgs(t *testing.T) {
	m := gridPlane(2)
	var serr *simplify.SimplifyError

	_, err := simplify.Simplify(m, 0, 0)
	require.ErrorAs(t, err, &serr)
	_, err = simplify.Simplify(m, 1.5, 0)
	require.ErrorAs(t, err, &serr)
	_, err = simplify.Simplify(m, 0.5, -1)
	require.ErrorAs(t, err, &serr)
}

func TestSimplifyRatioOneClones(t *testing.T) {
	m := gridPlane(2)
	out, err := simplify.Simplify(m, 1, 0)
	require.NoError(t, err)
	require.Equal(t, m.Vertices, out.Vertices)
	require.Equal(t, m.Indices, out.Indices)
	out.Vertices[0] = 99
	require.NotEqual(t, m.Vertices[0], out.Vertices[0], "clone must not alias input")
}
