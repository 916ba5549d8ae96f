package stl_test

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/stl"
)

func TestWriteSingleTriangle(t *testing.T) {
	m := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
		Name:     "tri",
	}

	var buf bytes.Buffer
	require.NoError(t, stl.Write(&buf, m))
	out := buf.Bytes()
	require.Len(t, out, 80+4+50)

	require.Equal(t, byte('t'), out[0])
	require.Equal(t, byte('r'), out[1])
	require.Equal(t, byte('i'), out[2])
	require.Equal(t, byte(0), out[3])

	count := binary.LittleEndian.Uint32(out[80:])
	require.Equal(t, uint32(1), count)

	f32 := func(off int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(out[off:]))
	}
	// Facet normal of the CCW triangle in the xy plane is +z.
	require.InDelta(t, 0.0, f32(84), 1e-7)
	require.InDelta(t, 0.0, f32(88), 1e-7)
	require.InDelta(t, 1.0, f32(92), 1e-7)
	// First vertex.
	require.InDelta(t, 0.0, f32(96), 1e-7)
	// Second vertex x.
	require.InDelta(t, 1.0, f32(108), 1e-7)
	// Attribute byte count.
	require.Equal(t, uint16(0), binary.LittleEndian.Uint16(out[130:]))
}

func TestWriteDegenerateNormal(t *testing.T) {
	m := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 0, 0, 0, 0, 0, 0},
		Normals:  []float32{0, 0, 0, 0, 0, 0, 0, 0, 0},
		Indices:  []uint32{0, 1, 2},
	}
	var buf bytes.Buffer
	require.NoError(t, stl.Write(&buf, m))
	normal := buf.Bytes()[84:96]
	require.Equal(t, make([]byte, 12), normal)
}

func TestWriteLongNameTruncated(t *testing.T) {
	m := &kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  make([]float32, 9),
		Indices:  []uint32{0, 1, 2},
		Name:     string(bytes.Repeat([]byte{'x'}, 200)),
	}
	var buf bytes.Buffer
	require.NoError(t, stl.Write(&buf, m))
	require.Len(t, buf.Bytes(), 80+4+50)
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf.Bytes()[80:]))
}

func TestWriteEmptyMesh(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, stl.Write(&buf, &kernel.Mesh{}))
	require.Len(t, buf.Bytes(), 84)
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf.Bytes()[80:]))
}
