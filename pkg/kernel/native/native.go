// Package native implements the kernel.Kernel interface with the pure
// Go pipeline: STEP parsing, BREP topology construction, and analytic
// surface tessellation. It has no C dependencies and is the default
// backend.
package native

import (
	"context"

	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/step"
	"github.com/chazu/stepmesh/pkg/tessellate"
	"github.com/chazu/stepmesh/pkg/topo"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel is the pure Go tessellation backend.
type Kernel struct{}

// New returns a new native Kernel.
func New() *Kernel {
	return &Kernel{}
}

// Name identifies the backend in logs and CLI output.
func (k *Kernel) Name() string {
	return "native"
}

// Triangulate runs the full pipeline on a STEP exchange file: parse,
// build topology, tessellate every face within the chord tolerance.
// Errors from each stage keep their stage-specific type, so callers
// can tell a malformed file from an unsound topology.
func (k *Kernel) Triangulate(ctx context.Context, data []byte, opts kernel.Options) (*kernel.Mesh, error) {
	mesh, _, err := k.TriangulateWarnings(ctx, data, opts)
	return mesh, err
}

// TriangulateWarnings is Triangulate plus the topology warnings
// collected under the skip-non-manifold policy (empty under the
// default reject policy, which turns the condition into an error).
func (k *Kernel) TriangulateWarnings(ctx context.Context, data []byte, opts kernel.Options) (*kernel.Mesh, []string, error) {
	f, err := step.Parse(data)
	if err != nil {
		return nil, nil, err
	}

	solids, warnings, err := topo.Build(f, opts.NonManifold)
	if err != nil {
		return nil, warnings, err
	}

	mesh, err := tessellate.Tessellate(ctx, solids, opts)
	if err != nil {
		return nil, warnings, err
	}
	mesh.Name = f.Name
	return mesh, warnings, nil
}
