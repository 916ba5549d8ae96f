// Package stl writes indexed triangle meshes as binary STL.
package stl

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/chazu/stepmesh/pkg/kernel"
)

const headerSize = 80

// tri is the 50-byte binary STL triangle record.
type tri struct {
	N, V1, V2, V3 [3]float32
	_             uint16 // attribute byte count
}

// Write encodes m as a binary STL file. STL carries per-facet normals,
// so each record gets the triangle's face normal rather than the
// mesh's per-vertex normals. The mesh name (truncated to 80 bytes)
// becomes the header comment.
func Write(w io.Writer, m *kernel.Mesh) error {
	var header [headerSize]byte
	copy(header[:], m.Name)
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("stl: write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.TriangleCount())); err != nil {
		return fmt.Errorf("stl: write triangle count: %w", err)
	}

	var t tri
	for i := 0; i < m.TriangleCount(); i++ {
		a := m.Indices[i*3]
		b := m.Indices[i*3+1]
		c := m.Indices[i*3+2]
		t.V1 = vertex(m, a)
		t.V2 = vertex(m, b)
		t.V3 = vertex(m, c)
		t.N = facetNormal(t.V1, t.V2, t.V3)
		if err := binary.Write(w, binary.LittleEndian, &t); err != nil {
			return fmt.Errorf("stl: write triangle %d: %w", i, err)
		}
	}
	return nil
}

func vertex(m *kernel.Mesh, i uint32) [3]float32 {
	return [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// facetNormal is the normalized cross product of the triangle's edges,
// or zero for a degenerate facet, which STL readers accept.
func facetNormal(a, b, c [3]float32) [3]float32 {
	ux := float64(b[0] - a[0])
	uy := float64(b[1] - a[1])
	uz := float64(b[2] - a[2])
	vx := float64(c[0] - a[0])
	vy := float64(c[1] - a[1])
	vz := float64(c[2] - a[2])

	nx := uy*vz - uz*vy
	ny := uz*vx - ux*vz
	nz := ux*vy - uy*vx
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l < 1e-30 {
		return [3]float32{}
	}
	return [3]float32{float32(nx / l), float32(ny / l), float32(nz / l)}
}
