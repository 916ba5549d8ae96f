// Package tessellate turns a BREP topology into one watertight
// triangle mesh. Each face is tessellated independently (and in
// parallel); faces sharing a topological edge consume the exact same
// cached sample sequence along it, so adjacent patches weld without
// cracks. One mesh is produced per pipeline invocation.
package tessellate

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/stepmesh/pkg/kernel"
	"github.com/chazu/stepmesh/pkg/step"
	"github.com/chazu/stepmesh/pkg/topo"
)

// TessellationError reports degenerate or self-intersecting
// parameter-space geometry for a specific face. The whole load fails
// rather than emitting silently broken triangles.
type TessellationError struct {
	Face step.EntityID
	Msg  string
}

func (e *TessellationError) Error() string {
	return fmt.Sprintf("tessellate: face #%d: %s", e.Face, e.Msg)
}

// Tessellate converts the solids into a single indexed triangle mesh.
// The call blocks until every face is done or ctx is cancelled; a
// cancelled run returns ctx's error and no partial mesh. All state is
// scoped to the invocation.
func Tessellate(ctx context.Context, solids []*topo.Solid, opts kernel.Options) (*kernel.Mesh, error) {
	if opts.ChordTol <= 0 {
		opts.ChordTol = kernel.DefaultChordTol
	}
	if opts.MaxRefine <= 0 {
		opts.MaxRefine = kernel.DefaultMaxRefine
	}

	var faces []*topo.Face
	for _, s := range solids {
		for _, sh := range s.Shells {
			faces = append(faces, sh.Faces...)
		}
	}
	if len(faces) == 0 {
		return nil, &TessellationError{Msg: "no faces to tessellate"}
	}

	cache := newEdgeCache(opts.ChordTol)
	patches := make([]*patch, len(faces))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, face := range faces {
		i, face := i, face
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := tessellateFace(face, cache, opts)
			if err != nil {
				return err
			}
			patches[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return assemble(patches)
}
