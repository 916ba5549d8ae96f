// Package kernel defines the abstract tessellation kernel interface.
// Implementations (native, occt) convert raw STEP bytes into triangle
// meshes behind this interface. The kernel abstraction allows swapping
// backends without changing the rest of the system: callers pick an
// implementation via configuration, and the mesh contract is identical
// regardless of backend.
package kernel

import (
	"context"

	"github.com/chazu/stepmesh/pkg/topo"
)

// Default tolerances, in model units. All of these are configuration
// inputs; nothing downstream hardcodes them.
const (
	// DefaultChordTol is the default chord-deviation tolerance: the
	// maximum distance between analytic geometry and its polyline or
	// triangle approximation.
	DefaultChordTol = 0.1

	// DefaultMaxRefine bounds interior refinement passes per face.
	DefaultMaxRefine = 6
)

// Options configures a tessellation run.
type Options struct {
	// ChordTol is the chord-deviation tolerance. Smaller values force
	// more sample points, primarily near high curvature.
	ChordTol float64

	// MaxRefine bounds interior refinement passes per face.
	MaxRefine int

	// NonManifold selects how edges used by more than two face loops
	// are handled.
	NonManifold topo.NonManifoldPolicy
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		ChordTol:    DefaultChordTol,
		MaxRefine:   DefaultMaxRefine,
		NonManifold: topo.RejectNonManifold,
	}
}

// Kernel is the abstract tessellation backend.
type Kernel interface {
	// Triangulate converts the bytes of a STEP file into a triangle
	// mesh. The call blocks; it performs pure CPU work and honors
	// ctx cancellation between internal work units. A cancelled run
	// returns ctx's error and no partial mesh.
	Triangulate(ctx context.Context, data []byte, opts Options) (*Mesh, error)

	// Name identifies the backend ("native", "occt").
	Name() string
}
