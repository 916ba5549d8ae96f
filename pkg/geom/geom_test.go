package geom_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ungerik/go3d/float64/vec3"

	"github.com/chazu/stepmesh/pkg/geom"
)

func frameAt(origin vec3.T) geom.Frame {
	return geom.NewFrame(origin, vec3.T{0, 0, 1}, vec3.T{1, 0, 0})
}

func assertVec(t *testing.T, want, got vec3.T, tol float64) {
	t.Helper()
	assert.InDelta(t, want[0], got[0], tol)
	assert.InDelta(t, want[1], got[1], tol)
	assert.InDelta(t, want[2], got[2], tol)
}

func TestFrameOrthogonalization(t *testing.T) {
	// A reference direction not perpendicular to the axis must be
	// squared up, keeping the frame right-handed and orthonormal.
	f := geom.NewFrame(vec3.T{1, 2, 3}, vec3.T{0, 0, 2}, vec3.T{1, 0, 0.5})
	assert.InDelta(t, 1.0, f.X.Length(), 1e-12)
	assert.InDelta(t, 1.0, f.Y.Length(), 1e-12)
	assert.InDelta(t, 1.0, f.Z.Length(), 1e-12)
	assert.InDelta(t, 0.0, vec3.Dot(&f.X, &f.Z), 1e-12)
	assert.InDelta(t, 0.0, vec3.Dot(&f.X, &f.Y), 1e-12)
	cr := vec3.Cross(&f.X, &f.Y)
	assertVec(t, f.Z, cr, 1e-12)
}

func TestFrameDegenerateRef(t *testing.T) {
	// Reference parallel to the axis: a perpendicular fallback is
	// chosen instead of a zero X axis.
	f := geom.NewFrame(vec3.T{}, vec3.T{0, 0, 1}, vec3.T{0, 0, 1})
	assert.InDelta(t, 1.0, f.X.Length(), 1e-12)
	assert.InDelta(t, 0.0, vec3.Dot(&f.X, &f.Z), 1e-12)
}

func TestFrameLocalAbsRoundTrip(t *testing.T) {
	f := geom.NewFrame(vec3.T{5, -2, 1}, vec3.T{1, 1, 0}, vec3.T{0, 0, 1})
	p := f.Abs(1.5, -0.25, 3)
	x, y, z := f.Local(p)
	assert.InDelta(t, 1.5, x, 1e-12)
	assert.InDelta(t, -0.25, y, 1e-12)
	assert.InDelta(t, 3.0, z, 1e-12)
}

func TestLineParam(t *testing.T) {
	// Dir magnitude 2: parameter advances half as fast as distance.
	l := &geom.Line{Origin: vec3.T{1, 0, 0}, Dir: vec3.T{2, 0, 0}}
	assert.InDelta(t, 3.0, l.Param(vec3.T{7, 0, 0}), 1e-12)
	assertVec(t, vec3.T{7, 0, 0}, l.Point(3), 1e-12)
}

func TestCircleParamRoundTrip(t *testing.T) {
	c := &geom.Circle{F: frameAt(vec3.T{1, 1, 0}), R: 4}
	for _, tt := range []float64{0, 0.5, math.Pi, 4.7} {
		p := c.Point(tt)
		assert.InDelta(t, tt, c.Param(p), 1e-9, "t=%g", tt)
	}
}

func TestEllipseParamRoundTrip(t *testing.T) {
	e := &geom.Ellipse{F: frameAt(vec3.T{}), A: 10, B: 2}
	for _, tt := range []float64{0, 1, math.Pi / 2, 3, 5.9} {
		p := e.Point(tt)
		assert.InDelta(t, tt, e.Param(p), 1e-9, "t=%g", tt)
	}
}

func TestCylinderUVRoundTrip(t *testing.T) {
	c := &geom.Cylinder{F: frameAt(vec3.T{0, 0, -5}), R: 3}
	for _, uv := range [][2]float64{{0, 0}, {1, 2}, {math.Pi, -1}, {5, 10}} {
		p := c.Point(uv[0], uv[1])
		u, v := c.UV(p)
		assert.InDelta(t, uv[0], u, 1e-9)
		assert.InDelta(t, uv[1], v, 1e-9)
	}
}

func TestCylinderNormalOutward(t *testing.T) {
	c := &geom.Cylinder{F: frameAt(vec3.T{}), R: 3}
	n := c.Normal(math.Pi/3, 7)
	want := vec3.T{math.Cos(math.Pi / 3), math.Sin(math.Pi / 3), 0}
	assertVec(t, want, n, 1e-12)
}

func TestConeUVRoundTrip(t *testing.T) {
	c := &geom.Cone{F: frameAt(vec3.T{}), R: 2, SemiAngle: math.Pi / 6}
	for _, uv := range [][2]float64{{0, 0}, {2, 3}, {4, 1.5}} {
		p := c.Point(uv[0], uv[1])
		u, v := c.UV(p)
		assert.InDelta(t, uv[0], u, 1e-9)
		assert.InDelta(t, uv[1], v, 1e-9)
	}
}

func TestConeNormalPerpendicularToSurface(t *testing.T) {
	c := &geom.Cone{F: frameAt(vec3.T{}), R: 2, SemiAngle: 0.4}
	const h = 1e-6
	u, v := 1.2, 0.7
	n := c.Normal(u, v)

	p0 := c.Point(u, v)
	pu := c.Point(u+h, v)
	pv := c.Point(u, v+h)
	du := vec3.Sub(&pu, &p0)
	dv := vec3.Sub(&pv, &p0)
	assert.InDelta(t, 0.0, vec3.Dot(&n, &du)/h, 1e-5)
	assert.InDelta(t, 0.0, vec3.Dot(&n, &dv)/h, 1e-5)
}

func TestSphereUVRoundTrip(t *testing.T) {
	s := &geom.Sphere{F: frameAt(vec3.T{2, 0, 0}), R: 6}
	for _, uv := range [][2]float64{{0, 0}, {1, 1}, {4, -1.2}} {
		p := s.Point(uv[0], uv[1])
		u, v := s.UV(p)
		assert.InDelta(t, uv[0], u, 1e-9)
		assert.InDelta(t, uv[1], v, 1e-9)
	}
}

func TestSphereNormalRadial(t *testing.T) {
	s := &geom.Sphere{F: frameAt(vec3.T{1, 2, 3}), R: 6}
	p := s.Point(2.1, 0.8)
	n := s.Normal(2.1, 0.8)
	d := vec3.Sub(&p, &vec3.T{1, 2, 3})
	d.Normalize()
	assertVec(t, d, n, 1e-12)
}

func TestTorusUVRoundTrip(t *testing.T) {
	tor := &geom.Torus{F: frameAt(vec3.T{}), R: 10, Rm: 2}
	for _, uv := range [][2]float64{{0, 0}, {1, 2}, {3, 5.5}, {6, 0.1}} {
		p := tor.Point(uv[0], uv[1])
		u, v := tor.UV(p)
		assert.InDelta(t, uv[0], u, 1e-9)
		assert.InDelta(t, uv[1], v, 1e-9)
	}
}

func TestPeriods(t *testing.T) {
	var (
		pl  geom.Surface = &geom.Plane{F: frameAt(vec3.T{})}
		cyl geom.Surface = &geom.Cylinder{F: frameAt(vec3.T{}), R: 1}
		tor geom.Surface = &geom.Torus{F: frameAt(vec3.T{}), R: 2, Rm: 1}
	)
	u, v := pl.Periods()
	require.Zero(t, u)
	require.Zero(t, v)
	u, v = cyl.Periods()
	require.InDelta(t, 2*math.Pi, u, 1e-12)
	require.Zero(t, v)
	u, v = tor.Periods()
	require.InDelta(t, 2*math.Pi, u, 1e-12)
	require.InDelta(t, 2*math.Pi, v, 1e-12)
}
