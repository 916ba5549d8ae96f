package kernel

import (
	"context"
	"testing"

	"github.com/chazu/stepmesh/pkg/topo"
)

// --- Mesh helper method tests ---

func TestMeshVertexCount(t *testing.T) {
	tests := []struct {
		name     string
		vertices []float32
		want     int
	}{
		{"empty", nil, 0},
		{"one vertex", []float32{1, 2, 3}, 1},
		{"four vertices", []float32{0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Vertices: tt.vertices}
			if got := m.VertexCount(); got != tt.want {
				t.Errorf("VertexCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshTriangleCount(t *testing.T) {
	tests := []struct {
		name    string
		indices []uint32
		want    int
	}{
		{"empty", nil, 0},
		{"one triangle", []uint32{0, 1, 2}, 1},
		{"two triangles", []uint32{0, 1, 2, 2, 3, 0}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Mesh{Indices: tt.indices}
			if got := m.TriangleCount(); got != tt.want {
				t.Errorf("TriangleCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMeshIsEmpty(t *testing.T) {
	t.Run("empty mesh", func(t *testing.T) {
		m := &Mesh{}
		if !m.IsEmpty() {
			t.Error("IsEmpty() = false for empty mesh, want true")
		}
	})
	t.Run("non-empty mesh", func(t *testing.T) {
		m := &Mesh{Vertices: []float32{1, 2, 3}}
		if m.IsEmpty() {
			t.Error("IsEmpty() = true for non-empty mesh, want false")
		}
	})
}

func TestMeshClone(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{1, 2, 3},
		Normals:  []float32{0, 0, 1},
		Indices:  []uint32{0},
		Name:     "part",
	}
	c := m.Clone()
	c.Vertices[0] = 42
	c.Indices[0] = 7
	if m.Vertices[0] != 1 || m.Indices[0] != 0 {
		t.Error("Clone aliases the original slices")
	}
	if c.Name != "part" {
		t.Errorf("Clone name %q, want %q", c.Name, "part")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.ChordTol != DefaultChordTol {
		t.Errorf("ChordTol = %g, want %g", opts.ChordTol, DefaultChordTol)
	}
	if opts.MaxRefine != DefaultMaxRefine {
		t.Errorf("MaxRefine = %d, want %d", opts.MaxRefine, DefaultMaxRefine)
	}
	if opts.NonManifold != topo.RejectNonManifold {
		t.Error("default policy should reject non-manifold topology")
	}
}

// --- Compile-time interface check with a stub kernel ---

// stubKernel is a minimal Kernel implementation that proves the
// interface is satisfiable without any real geometry behind it.
type stubKernel struct{}

func (k *stubKernel) Triangulate(_ context.Context, _ []byte, _ Options) (*Mesh, error) {
	return &Mesh{}, nil
}

func (k *stubKernel) Name() string { return "stub" }

var _ Kernel = (*stubKernel)(nil)

func TestStubKernelTriangulate(t *testing.T) {
	var k Kernel = &stubKernel{}
	m, err := k.Triangulate(context.Background(), nil, DefaultOptions())
	if err != nil {
		t.Fatalf("Triangulate() error = %v", err)
	}
	if m == nil {
		t.Fatal("Triangulate() returned nil mesh")
	}
	if !m.IsEmpty() {
		t.Error("stub Triangulate() should return empty mesh")
	}
}
