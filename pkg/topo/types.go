// Package topo reconstructs the BREP hierarchy from a parsed STEP
// entity arena: solids, shells, oriented faces, edge loops, edges with
// endpoint vertices and an underlying curve, faces with an underlying
// surface and trimming loops. The builder normalizes all direction
// flags so downstream consumers see absolute traversal order.
package topo

import (
	"fmt"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
	"github.com/chazu/stepmesh/pkg/step"
)

// Vertex is a topological vertex. Identity (the entity id) is what
// welds coincident patch corners, never spatial distance.
type Vertex struct {
	ID    step.EntityID
	Point vec3.T
}

// Edge is a curve restricted to [T0, T1], with endpoint vertices.
// Start and End are the edge's own logical endpoints; Sense records
// whether that logical direction agrees with the curve direction.
// Samples taken over [T0, T1] run Start to End when Sense is true and
// End to Start otherwise.
type Edge struct {
	ID         step.EntityID
	Curve      geom.Curve
	T0, T1     float64
	Start, End *Vertex
	Sense      bool

	// Uses counts loop uses across all faces; more than two is
	// non-manifold.
	Uses int
}

// EdgeUse is one traversal of an edge by a loop, with the direction
// flag already resolved through ORIENTED_EDGE and FACE_BOUND
// orientation.
type EdgeUse struct {
	Edge     *Edge
	Reversed bool // traversal runs End to Start
}

// StartVertex returns the vertex this use departs from.
func (u EdgeUse) StartVertex() *Vertex {
	if u.Reversed {
		return u.Edge.End
	}
	return u.Edge.Start
}

// EndVertex returns the vertex this use arrives at.
func (u EdgeUse) EndVertex() *Vertex {
	if u.Reversed {
		return u.Edge.Start
	}
	return u.Edge.End
}

// Loop is a closed cyclic sequence of edge uses bounding a region of a
// face's parameter space.
type Loop struct {
	ID   step.EntityID
	Uses []EdgeUse
}

// Face is a surface with trimming loops. Loops[0] is the outer bound.
// SameSense is false when the face normal opposes the surface normal.
type Face struct {
	ID        step.EntityID
	Surface   geom.Surface
	SameSense bool
	Loops     []*Loop
}

// Shell is a connected face set.
type Shell struct {
	ID     step.EntityID
	Faces  []*Face
	Closed bool
}

// Solid is one or more shells; Shells[0] is the outer boundary, the
// rest are voids.
type Solid struct {
	ID     step.EntityID
	Shells []*Shell
}

// NonManifoldPolicy decides what happens when an edge is used by more
// than two face loops.
type NonManifoldPolicy int

const (
	// RejectNonManifold fails the whole build.
	RejectNonManifold NonManifoldPolicy = iota
	// SkipNonManifold drops offending faces and records a warning.
	SkipNonManifold
)

// TopologyError reports a structurally invalid BREP graph. Entity is
// the offending record.
type TopologyError struct {
	Entity step.EntityID
	Msg    string
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("topo: invalid BREP at #%d: %s", e.Entity, e.Msg)
}
