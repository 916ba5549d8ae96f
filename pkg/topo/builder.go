package topo

import (
	"fmt"
	"sort"

	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
	"github.com/chazu/stepmesh/pkg/step"
)

// Build walks every MANIFOLD_SOLID_BREP (and BREP_WITH_VOIDS) root in
// the arena and reconstructs the solid/shell/face/loop/edge/vertex
// graph. Curves, surfaces, vertices and edges are memoized by entity
// id, so anything the file shares by reference stays shared here.
//
// The returned warnings are only populated under SkipNonManifold.
func Build(f *step.File, policy NonManifoldPolicy) ([]*Solid, []string, error) {
	b := &builder{
		f:        f,
		curves:   make(map[step.EntityID]geom.Curve),
		surfaces: make(map[step.EntityID]geom.Surface),
		vertices: make(map[step.EntityID]*Vertex),
		edges:    make(map[step.EntityID]*Edge),
	}

	roots := f.OfType("MANIFOLD_SOLID_BREP")
	roots = append(roots, f.OfType("BREP_WITH_VOIDS")...)
	sort.Slice(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	if len(roots) == 0 {
		return nil, nil, &TopologyError{Msg: "no manifold solid roots in file"}
	}

	var solids []*Solid
	for _, root := range roots {
		s, err := b.solid(root)
		if err != nil {
			return nil, nil, err
		}
		solids = append(solids, s)
	}

	solids, warnings, err := b.auditManifold(solids, policy)
	if err != nil {
		return nil, nil, err
	}
	return solids, warnings, nil
}

type builder struct {
	f        *step.File
	curves   map[step.EntityID]geom.Curve
	surfaces map[step.EntityID]geom.Surface
	vertices map[step.EntityID]*Vertex
	edges    map[step.EntityID]*Edge
}

// auditManifold enforces the at-most-two-face-uses invariant.
func (b *builder) auditManifold(solids []*Solid, policy NonManifoldPolicy) ([]*Solid, []string, error) {
	var offending []step.EntityID
	for id, e := range b.edges {
		if e.Uses > 2 {
			offending = append(offending, id)
		}
	}
	if len(offending) == 0 {
		return solids, nil, nil
	}
	sort.Slice(offending, func(i, j int) bool { return offending[i] < offending[j] })

	if policy == RejectNonManifold {
		return nil, nil, &TopologyError{Entity: offending[0],
			Msg: fmt.Sprintf("edge used by %d face loops (non-manifold)", b.edges[offending[0]].Uses)}
	}

	bad := make(map[step.EntityID]bool, len(offending))
	for _, id := range offending {
		bad[id] = true
	}
	var warnings []string
	for _, s := range solids {
		for _, sh := range s.Shells {
			kept := sh.Faces[:0]
			for _, face := range sh.Faces {
				if id, ok := faceUsesEdge(face, bad); ok {
					warnings = append(warnings,
						fmt.Sprintf("face #%d dropped: non-manifold edge #%d", face.ID, id))
					continue
				}
				kept = append(kept, face)
			}
			sh.Faces = kept
		}
	}
	return solids, warnings, nil
}

func faceUsesEdge(f *Face, bad map[step.EntityID]bool) (step.EntityID, bool) {
	for _, l := range f.Loops {
		for _, u := range l.Uses {
			if bad[u.Edge.ID] {
				return u.Edge.ID, true
			}
		}
	}
	return 0, false
}

// ref resolves a value that must be an entity reference.
func (b *builder) ref(v step.Value, ctx string) (*step.Entity, error) {
	if v.Kind != step.KindRef {
		return nil, &TopologyError{Msg: "expected entity reference in " + ctx}
	}
	e := b.f.Get(v.Ref)
	if e == nil {
		return nil, &TopologyError{Entity: v.Ref, Msg: "dangling reference in " + ctx}
	}
	return e, nil
}

// typedRef resolves a reference and checks its entity type.
func (b *builder) typedRef(v step.Value, ctx string, types ...string) (*step.Entity, error) {
	e, err := b.ref(v, ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range types {
		if e.Type == t {
			return e, nil
		}
	}
	return nil, &TopologyError{Entity: e.ID,
		Msg: fmt.Sprintf("entity is %s, want %v (in %s)", e.Type, types, ctx)}
}

func arg(e *step.Entity, i int) (step.Value, error) {
	if i >= len(e.Args) {
		return step.Value{}, &TopologyError{Entity: e.ID,
			Msg: fmt.Sprintf("%s has %d args, need at least %d", e.Type, len(e.Args), i+1)}
	}
	return e.Args[i], nil
}

func argBool(e *step.Entity, i int) (bool, error) {
	v, err := arg(e, i)
	if err != nil {
		return false, err
	}
	if v.Kind != step.KindEnum || (v.Str != "T" && v.Str != "F") {
		return false, &TopologyError{Entity: e.ID, Msg: fmt.Sprintf("%s arg %d is not a boolean flag", e.Type, i)}
	}
	return v.Str == "T", nil
}

func argNum(e *step.Entity, i int) (float64, error) {
	v, err := arg(e, i)
	if err != nil {
		return 0, err
	}
	if v.Kind != step.KindNumber {
		return 0, &TopologyError{Entity: e.ID, Msg: fmt.Sprintf("%s arg %d is not a number", e.Type, i)}
	}
	return v.Num, nil
}

func argList(e *step.Entity, i int) ([]step.Value, error) {
	v, err := arg(e, i)
	if err != nil {
		return nil, err
	}
	if v.Kind != step.KindList {
		return nil, &TopologyError{Entity: e.ID, Msg: fmt.Sprintf("%s arg %d is not a list", e.Type, i)}
	}
	return v.List, nil
}

// part returns the argument list of the named part of a complex
// instance, or nil.
func part(e *step.Entity, kw string) []step.Value {
	if e.Type != "" {
		return nil
	}
	for _, v := range e.Args {
		if v.Kind == step.KindTyped && v.Str == kw {
			return v.List
		}
	}
	return nil
}

// typeName names an entity for error messages; complex instances carry
// no single type keyword.
func typeName(e *step.Entity) string {
	if e.Type == "" {
		return "complex instance"
	}
	return e.Type
}

func valNum(e *step.Entity, v step.Value, what string) (float64, error) {
	if v.Kind != step.KindNumber {
		return 0, &TopologyError{Entity: e.ID, Msg: what + " is not a number"}
	}
	return v.Num, nil
}

func valList(e *step.Entity, v step.Value, what string) ([]step.Value, error) {
	if v.Kind != step.KindList {
		return nil, &TopologyError{Entity: e.ID, Msg: what + " is not a list"}
	}
	return v.List, nil
}

// xyz reads a CARTESIAN_POINT or DIRECTION coordinate triple.
func xyz(e *step.Entity) (vec3.T, error) {
	coords, err := argList(e, 1)
	if err != nil {
		return vec3.T{}, err
	}
	var p vec3.T
	if len(coords) < 2 || len(coords) > 3 {
		return p, &TopologyError{Entity: e.ID, Msg: "coordinate list must have 2 or 3 components"}
	}
	for i, c := range coords {
		if c.Kind != step.KindNumber {
			return p, &TopologyError{Entity: e.ID, Msg: "non-numeric coordinate"}
		}
		p[i] = c.Num
	}
	return p, nil
}

func (b *builder) point(v step.Value, ctx string) (vec3.T, error) {
	e, err := b.typedRef(v, ctx, "CARTESIAN_POINT")
	if err != nil {
		return vec3.T{}, err
	}
	return xyz(e)
}

func (b *builder) direction(v step.Value, ctx string) (vec3.T, error) {
	e, err := b.typedRef(v, ctx, "DIRECTION")
	if err != nil {
		return vec3.T{}, err
	}
	return xyz(e)
}

// axis2 builds a placement frame from an AXIS2_PLACEMENT_3D. Absent
// axis or reference direction fall back to +Z / +X as the schema
// prescribes.
func (b *builder) axis2(v step.Value, ctx string) (geom.Frame, error) {
	e, err := b.typedRef(v, ctx, "AXIS2_PLACEMENT_3D")
	if err != nil {
		return geom.Frame{}, err
	}
	locV, err := arg(e, 1)
	if err != nil {
		return geom.Frame{}, err
	}
	origin, err := b.point(locV, e.Type)
	if err != nil {
		return geom.Frame{}, err
	}

	axis := vec3.T{0, 0, 1}
	if v, err := arg(e, 2); err == nil && v.Kind == step.KindRef {
		if axis, err = b.direction(v, e.Type); err != nil {
			return geom.Frame{}, err
		}
	}
	refX := vec3.T{1, 0, 0}
	if v, err := arg(e, 3); err == nil && v.Kind == step.KindRef {
		if refX, err = b.direction(v, e.Type); err != nil {
			return geom.Frame{}, err
		}
	}
	return geom.NewFrame(origin, axis, refX), nil
}

// vector reads a VECTOR as direction scaled by magnitude.
func (b *builder) vector(v step.Value, ctx string) (vec3.T, error) {
	e, err := b.typedRef(v, ctx, "VECTOR")
	if err != nil {
		return vec3.T{}, err
	}
	dirV, err := arg(e, 1)
	if err != nil {
		return vec3.T{}, err
	}
	d, err := b.direction(dirV, e.Type)
	if err != nil {
		return vec3.T{}, err
	}
	mag, err := argNum(e, 2)
	if err != nil {
		return vec3.T{}, err
	}
	d.Normalize()
	d.Scale(mag)
	return d, nil
}

func (b *builder) vertex(v step.Value, ctx string) (*Vertex, error) {
	e, err := b.typedRef(v, ctx, "VERTEX_POINT")
	if err != nil {
		return nil, err
	}
	if vx := b.vertices[e.ID]; vx != nil {
		return vx, nil
	}
	pv, err := arg(e, 1)
	if err != nil {
		return nil, err
	}
	p, err := b.point(pv, e.Type)
	if err != nil {
		return nil, err
	}
	vx := &Vertex{ID: e.ID, Point: p}
	b.vertices[e.ID] = vx
	return vx, nil
}

func (b *builder) curve(v step.Value, ctx string) (geom.Curve, error) {
	e, err := b.ref(v, ctx)
	if err != nil {
		return nil, err
	}
	if c := b.curves[e.ID]; c != nil {
		return c, nil
	}

	var c geom.Curve
	switch e.Type {
	case "LINE":
		pv, err := arg(e, 1)
		if err != nil {
			return nil, err
		}
		origin, err := b.point(pv, e.Type)
		if err != nil {
			return nil, err
		}
		dv, err := arg(e, 2)
		if err != nil {
			return nil, err
		}
		dir, err := b.vector(dv, e.Type)
		if err != nil {
			return nil, err
		}
		c = &geom.Line{Origin: origin, Dir: dir}

	case "CIRCLE", "ELLIPSE":
		av, err := arg(e, 1)
		if err != nil {
			return nil, err
		}
		frame, err := b.axis2(av, e.Type)
		if err != nil {
			return nil, err
		}
		r1, err := argNum(e, 2)
		if err != nil {
			return nil, err
		}
		if e.Type == "CIRCLE" {
			c = &geom.Circle{F: frame, R: r1}
		} else {
			r2, err := argNum(e, 3)
			if err != nil {
				return nil, err
			}
			c = &geom.Ellipse{F: frame, A: r1, B: r2}
		}

	case "B_SPLINE_CURVE_WITH_KNOTS":
		// (name, degree, ctrl points, form, closed, self_intersect,
		//  knot_multiplicities, knots, knot_spec)
		if len(e.Args) < 8 {
			return nil, &TopologyError{Entity: e.ID,
				Msg: fmt.Sprintf("%s has %d args, need at least 8", e.Type, len(e.Args))}
		}
		bs, err := b.bsplineCurve(e, e.Args[1], e.Args[2], e.Args[6], e.Args[7], step.Value{})
		if err != nil {
			return nil, err
		}
		c = bs

	default:
		bs, err := b.complexBSplineCurve(e)
		if err != nil {
			return nil, err
		}
		if bs == nil {
			return nil, &step.ParseError{Offset: e.Offset, Entity: e.ID,
				Msg: "unsupported curve type " + typeName(e)}
		}
		c = bs
	}
	b.curves[e.ID] = c
	return c, nil
}

// complexBSplineCurve recognizes the complex-instance spelling of a
// (usually rational) B-spline curve, where the attributes of the
// simple type are spread over the B_SPLINE_CURVE,
// B_SPLINE_CURVE_WITH_KNOTS and RATIONAL_B_SPLINE_CURVE parts. Returns
// nil when e is not of that shape.
func (b *builder) complexBSplineCurve(e *step.Entity) (*geom.BSplineCurve, error) {
	base := part(e, "B_SPLINE_CURVE")
	knots := part(e, "B_SPLINE_CURVE_WITH_KNOTS")
	if base == nil || knots == nil {
		return nil, nil
	}
	if len(base) < 2 || len(knots) < 2 {
		return nil, &TopologyError{Entity: e.ID, Msg: "malformed complex B-spline curve"}
	}
	weights := step.Value{}
	if rat := part(e, "RATIONAL_B_SPLINE_CURVE"); rat != nil {
		if len(rat) < 1 {
			return nil, &TopologyError{Entity: e.ID, Msg: "rational B-spline curve without weights"}
		}
		weights = rat[0]
	}
	return b.bsplineCurve(e, base[0], base[1], knots[0], knots[1], weights)
}

// bsplineCurve assembles a B-spline curve from its positional pieces.
// weightsV is the null Value for a polynomial curve.
func (b *builder) bsplineCurve(e *step.Entity, degV, ctrlV, multsV, knotsV, weightsV step.Value) (*geom.BSplineCurve, error) {
	deg, err := valNum(e, degV, "B-spline degree")
	if err != nil {
		return nil, err
	}
	ctrlRefs, err := valList(e, ctrlV, "control point list")
	if err != nil {
		return nil, err
	}
	ctrl := make([]vec3.T, len(ctrlRefs))
	for i, cv := range ctrlRefs {
		if ctrl[i], err = b.point(cv, "B-spline control point"); err != nil {
			return nil, err
		}
	}
	mults, err := valList(e, multsV, "knot multiplicity list")
	if err != nil {
		return nil, err
	}
	knotVals, err := valList(e, knotsV, "knot list")
	if err != nil {
		return nil, err
	}
	knots, err := expandKnots(e, mults, knotVals)
	if err != nil {
		return nil, err
	}
	bs := &geom.BSplineCurve{Degree: int(deg), Ctrl: ctrl, Knots: knots}
	if weightsV.Kind != step.KindNull {
		if bs.Weights, err = weightVector(e, weightsV, len(ctrl)); err != nil {
			return nil, err
		}
	}
	if len(bs.Knots) != len(ctrl)+bs.Degree+1 {
		return nil, &TopologyError{Entity: e.ID, Msg: "inconsistent B-spline knot count"}
	}
	return bs, nil
}

// weightVector reads a rational weight list of the given length.
func weightVector(e *step.Entity, v step.Value, want int) ([]float64, error) {
	vals, err := valList(e, v, "weight list")
	if err != nil {
		return nil, err
	}
	if len(vals) != want {
		return nil, &TopologyError{Entity: e.ID,
			Msg: fmt.Sprintf("%d weights for %d control points", len(vals), want)}
	}
	ws := make([]float64, len(vals))
	for i, wv := range vals {
		if ws[i], err = valNum(e, wv, "weight"); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// expandKnots repeats each knot value by its multiplicity.
func expandKnots(e *step.Entity, mults, vals []step.Value) ([]float64, error) {
	if len(mults) != len(vals) {
		return nil, &TopologyError{Entity: e.ID, Msg: "knot multiplicity list length mismatch"}
	}
	var knots []float64
	for i := range vals {
		if mults[i].Kind != step.KindNumber || vals[i].Kind != step.KindNumber {
			return nil, &TopologyError{Entity: e.ID, Msg: "non-numeric knot data"}
		}
		for k := 0; k < int(mults[i].Num); k++ {
			knots = append(knots, vals[i].Num)
		}
	}
	return knots, nil
}

func (b *builder) surface(v step.Value, ctx string) (geom.Surface, error) {
	e, err := b.ref(v, ctx)
	if err != nil {
		return nil, err
	}
	if s := b.surfaces[e.ID]; s != nil {
		return s, nil
	}

	frameAt := func(i int) (geom.Frame, error) {
		av, err := arg(e, i)
		if err != nil {
			return geom.Frame{}, err
		}
		return b.axis2(av, e.Type)
	}

	var s geom.Surface
	switch e.Type {
	case "PLANE":
		f, err := frameAt(1)
		if err != nil {
			return nil, err
		}
		s = &geom.Plane{F: f}

	case "CYLINDRICAL_SURFACE":
		f, err := frameAt(1)
		if err != nil {
			return nil, err
		}
		r, err := argNum(e, 2)
		if err != nil {
			return nil, err
		}
		s = &geom.Cylinder{F: f, R: r}

	case "CONICAL_SURFACE":
		f, err := frameAt(1)
		if err != nil {
			return nil, err
		}
		r, err := argNum(e, 2)
		if err != nil {
			return nil, err
		}
		ang, err := argNum(e, 3)
		if err != nil {
			return nil, err
		}
		s = &geom.Cone{F: f, R: r, SemiAngle: ang}

	case "SPHERICAL_SURFACE":
		f, err := frameAt(1)
		if err != nil {
			return nil, err
		}
		r, err := argNum(e, 2)
		if err != nil {
			return nil, err
		}
		s = &geom.Sphere{F: f, R: r}

	case "TOROIDAL_SURFACE":
		f, err := frameAt(1)
		if err != nil {
			return nil, err
		}
		major, err := argNum(e, 2)
		if err != nil {
			return nil, err
		}
		minor, err := argNum(e, 3)
		if err != nil {
			return nil, err
		}
		s = &geom.Torus{F: f, R: major, Rm: minor}

	case "B_SPLINE_SURFACE_WITH_KNOTS":
		// (name, degU, degV, ctrl grid, form, u_closed, v_closed,
		//  self_intersect, u_mults, v_mults, u_knots, v_knots, knot_spec)
		if len(e.Args) < 12 {
			return nil, &TopologyError{Entity: e.ID,
				Msg: fmt.Sprintf("%s has %d args, need at least 12", e.Type, len(e.Args))}
		}
		bs, err := b.bsplineSurface(e,
			e.Args[1], e.Args[2], e.Args[3],
			e.Args[8], e.Args[9], e.Args[10], e.Args[11], step.Value{})
		if err != nil {
			return nil, err
		}
		s = bs

	default:
		bs, err := b.complexBSplineSurface(e)
		if err != nil {
			return nil, err
		}
		if bs == nil {
			return nil, &step.ParseError{Offset: e.Offset, Entity: e.ID,
				Msg: "unsupported surface type " + typeName(e)}
		}
		s = bs
	}
	b.surfaces[e.ID] = s
	return s, nil
}

// complexBSplineSurface recognizes the complex-instance spelling of a
// rational B-spline surface, the surface analogue of
// complexBSplineCurve. Returns nil when e is not of that shape.
func (b *builder) complexBSplineSurface(e *step.Entity) (*geom.BSplineSurface, error) {
	base := part(e, "B_SPLINE_SURFACE")
	knots := part(e, "B_SPLINE_SURFACE_WITH_KNOTS")
	if base == nil || knots == nil {
		return nil, nil
	}
	if len(base) < 3 || len(knots) < 4 {
		return nil, &TopologyError{Entity: e.ID, Msg: "malformed complex B-spline surface"}
	}
	weights := step.Value{}
	if rat := part(e, "RATIONAL_B_SPLINE_SURFACE"); rat != nil {
		if len(rat) < 1 {
			return nil, &TopologyError{Entity: e.ID, Msg: "rational B-spline surface without weights"}
		}
		weights = rat[0]
	}
	return b.bsplineSurface(e,
		base[0], base[1], base[2],
		knots[0], knots[1], knots[2], knots[3], weights)
}

// bsplineSurface assembles a B-spline surface from its positional
// pieces. weightsV is the null Value for a polynomial surface.
func (b *builder) bsplineSurface(e *step.Entity, degUV, degVV, ctrlV, uMultsV, vMultsV, uKnotsV, vKnotsV, weightsV step.Value) (*geom.BSplineSurface, error) {
	degU, err := valNum(e, degUV, "B-spline u degree")
	if err != nil {
		return nil, err
	}
	degV, err := valNum(e, degVV, "B-spline v degree")
	if err != nil {
		return nil, err
	}
	rows, err := valList(e, ctrlV, "control point grid")
	if err != nil {
		return nil, err
	}
	ctrl := make([][]vec3.T, len(rows))
	for i, row := range rows {
		if row.Kind != step.KindList {
			return nil, &TopologyError{Entity: e.ID, Msg: "control point grid row is not a list"}
		}
		ctrl[i] = make([]vec3.T, len(row.List))
		for j, cv := range row.List {
			if ctrl[i][j], err = b.point(cv, "B-spline control point"); err != nil {
				return nil, err
			}
		}
	}
	uMults, err := valList(e, uMultsV, "u knot multiplicity list")
	if err != nil {
		return nil, err
	}
	vMults, err := valList(e, vMultsV, "v knot multiplicity list")
	if err != nil {
		return nil, err
	}
	uVals, err := valList(e, uKnotsV, "u knot list")
	if err != nil {
		return nil, err
	}
	vVals, err := valList(e, vKnotsV, "v knot list")
	if err != nil {
		return nil, err
	}
	knotsU, err := expandKnots(e, uMults, uVals)
	if err != nil {
		return nil, err
	}
	knotsV, err := expandKnots(e, vMults, vVals)
	if err != nil {
		return nil, err
	}
	bs := &geom.BSplineSurface{
		DegreeU: int(degU), DegreeV: int(degV),
		Ctrl: ctrl, KnotsU: knotsU, KnotsV: knotsV,
	}
	if weightsV.Kind != step.KindNull {
		wrows, err := valList(e, weightsV, "weight grid")
		if err != nil {
			return nil, err
		}
		if len(wrows) != len(ctrl) {
			return nil, &TopologyError{Entity: e.ID,
				Msg: fmt.Sprintf("%d weight rows for %d control point rows", len(wrows), len(ctrl))}
		}
		bs.Weights = make([][]float64, len(wrows))
		for i, wr := range wrows {
			if bs.Weights[i], err = weightVector(e, wr, len(ctrl[i])); err != nil {
				return nil, err
			}
		}
	}
	return bs, nil
}

// edge builds (or returns the memoized) EDGE_CURVE:
// (name, start vertex, end vertex, curve, same_sense)
func (b *builder) edge(v step.Value, ctx string) (*Edge, error) {
	e, err := b.typedRef(v, ctx, "EDGE_CURVE")
	if err != nil {
		return nil, err
	}
	if ed := b.edges[e.ID]; ed != nil {
		return ed, nil
	}

	sv, err := arg(e, 1)
	if err != nil {
		return nil, err
	}
	start, err := b.vertex(sv, e.Type)
	if err != nil {
		return nil, err
	}
	ev, err := arg(e, 2)
	if err != nil {
		return nil, err
	}
	end, err := b.vertex(ev, e.Type)
	if err != nil {
		return nil, err
	}
	cv, err := arg(e, 3)
	if err != nil {
		return nil, err
	}
	c, err := b.curve(cv, e.Type)
	if err != nil {
		return nil, err
	}
	sense, err := argBool(e, 4)
	if err != nil {
		return nil, err
	}

	t0, t1, err := trimParams(e, c, start, end, sense)
	if err != nil {
		return nil, err
	}
	ed := &Edge{ID: e.ID, Curve: c, T0: t0, T1: t1, Start: start, End: end, Sense: sense}
	b.edges[e.ID] = ed
	return ed, nil
}

// trimParams derives the parameter interval of an edge from its
// endpoint vertices. A closed edge (identical vertices) takes the
// curve's full period.
func trimParams(e *step.Entity, c geom.Curve, start, end *Vertex, sense bool) (float64, float64, error) {
	a, z := start, end
	if !sense {
		a, z = end, start
	}
	if start == end {
		t0, t1 := c.Domain()
		if t1-t0 < geom.Epsilon {
			return 0, 0, &TopologyError{Entity: e.ID, Msg: "closed edge on an unbounded curve"}
		}
		return t0, t1, nil
	}
	t0 := c.Param(a.Point)
	t1 := c.Param(z.Point)
	if p := c.Period(); p > 0 && t1 <= t0+geom.Epsilon {
		t1 += p
	}
	if t1 <= t0+geom.Epsilon {
		return 0, 0, &TopologyError{Entity: e.ID, Msg: "degenerate edge trim interval"}
	}
	for _, chk := range [2]struct {
		t float64
		v *Vertex
	}{{t0, a}, {t1, z}} {
		q := c.Point(chk.t)
		d := vec3.Sub(&q, &chk.v.Point)
		if d.Length() > 1e-4*(1+chk.v.Point.Length()) {
			return 0, 0, &TopologyError{Entity: e.ID,
				Msg: fmt.Sprintf("vertex #%d does not lie on the edge curve", chk.v.ID)}
		}
	}
	return t0, t1, nil
}

// loop builds an EDGE_LOOP with all direction flags resolved. When
// boundReversed is set (FACE_BOUND orientation .F.) the traversal
// order is inverted and every use flips.
func (b *builder) loop(v step.Value, boundReversed bool) (*Loop, error) {
	e, err := b.typedRef(v, "face bound", "EDGE_LOOP")
	if err != nil {
		return nil, err
	}
	items, err := argList(e, 1)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &TopologyError{Entity: e.ID, Msg: "empty edge loop"}
	}

	uses := make([]EdgeUse, 0, len(items))
	for _, it := range items {
		oe, err := b.typedRef(it, e.Type, "ORIENTED_EDGE")
		if err != nil {
			return nil, err
		}
		ev, err := arg(oe, 3)
		if err != nil {
			return nil, err
		}
		ed, err := b.edge(ev, oe.Type)
		if err != nil {
			return nil, err
		}
		fwd, err := argBool(oe, 4)
		if err != nil {
			return nil, err
		}
		uses = append(uses, EdgeUse{Edge: ed, Reversed: !fwd})
	}

	if boundReversed {
		for i, j := 0, len(uses)-1; i < j; i, j = i+1, j-1 {
			uses[i], uses[j] = uses[j], uses[i]
		}
		for i := range uses {
			uses[i].Reversed = !uses[i].Reversed
		}
	}

	for i := range uses {
		next := uses[(i+1)%len(uses)]
		if uses[i].EndVertex() != next.StartVertex() {
			return nil, &TopologyError{Entity: e.ID,
				Msg: fmt.Sprintf("edge loop not closed between #%d and #%d",
					uses[i].Edge.ID, next.Edge.ID)}
		}
		uses[i].Edge.Uses++
	}
	return &Loop{ID: e.ID, Uses: uses}, nil
}

// face builds an ADVANCED_FACE: (name, bounds, surface, same_sense).
func (b *builder) face(v step.Value, ctx string) (*Face, error) {
	e, err := b.typedRef(v, ctx, "ADVANCED_FACE", "FACE_SURFACE")
	if err != nil {
		return nil, err
	}
	bounds, err := argList(e, 1)
	if err != nil {
		return nil, err
	}
	if len(bounds) == 0 {
		return nil, &TopologyError{Entity: e.ID, Msg: "face references zero loops"}
	}

	surfV, err := arg(e, 2)
	if err != nil {
		return nil, err
	}
	surf, err := b.surface(surfV, e.Type)
	if err != nil {
		return nil, err
	}
	sameSense, err := argBool(e, 3)
	if err != nil {
		return nil, err
	}

	var outer []*Loop
	var inner []*Loop
	for _, bv := range bounds {
		be, err := b.typedRef(bv, e.Type, "FACE_OUTER_BOUND", "FACE_BOUND")
		if err != nil {
			return nil, err
		}
		lv, err := arg(be, 1)
		if err != nil {
			return nil, err
		}
		orient, err := argBool(be, 2)
		if err != nil {
			return nil, err
		}
		l, err := b.loop(lv, !orient)
		if err != nil {
			return nil, err
		}
		if be.Type == "FACE_OUTER_BOUND" {
			outer = append(outer, l)
		} else {
			inner = append(inner, l)
		}
	}
	// Files without an explicit outer bound: first loop is outer.
	if len(outer) == 0 {
		outer, inner = inner[:1], inner[1:]
	}
	if len(outer) > 1 {
		return nil, &TopologyError{Entity: e.ID, Msg: "face has multiple outer bounds"}
	}

	return &Face{ID: e.ID, Surface: surf, SameSense: sameSense,
		Loops: append(outer, inner...)}, nil
}

// shell builds a CLOSED_SHELL or OPEN_SHELL.
func (b *builder) shell(v step.Value, ctx string) (*Shell, error) {
	e, err := b.typedRef(v, ctx, "CLOSED_SHELL", "OPEN_SHELL", "ORIENTED_CLOSED_SHELL")
	if err != nil {
		return nil, err
	}
	if e.Type == "ORIENTED_CLOSED_SHELL" {
		// (name, *, shell, orientation): unwrap to the target shell.
		sv, err := arg(e, 2)
		if err != nil {
			return nil, err
		}
		return b.shell(sv, e.Type)
	}

	faceRefs, err := argList(e, 1)
	if err != nil {
		return nil, err
	}
	sh := &Shell{ID: e.ID, Closed: e.Type == "CLOSED_SHELL"}
	for _, fv := range faceRefs {
		face, err := b.face(fv, e.Type)
		if err != nil {
			return nil, err
		}
		sh.Faces = append(sh.Faces, face)
	}
	return sh, nil
}

// solid builds MANIFOLD_SOLID_BREP (one outer shell) or
// BREP_WITH_VOIDS (outer shell plus void shells).
func (b *builder) solid(e *step.Entity) (*Solid, error) {
	outerV, err := arg(e, 1)
	if err != nil {
		return nil, err
	}
	outer, err := b.shell(outerV, e.Type)
	if err != nil {
		return nil, err
	}
	s := &Solid{ID: e.ID, Shells: []*Shell{outer}}

	if e.Type == "BREP_WITH_VOIDS" {
		voids, err := argList(e, 2)
		if err != nil {
			return nil, err
		}
		for _, vv := range voids {
			sh, err := b.shell(vv, e.Type)
			if err != nil {
				return nil, err
			}
			s.Shells = append(s.Shells, sh)
		}
	}
	return s, nil
}
