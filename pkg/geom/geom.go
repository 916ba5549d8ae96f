// Package geom provides analytic curve and surface evaluation for the
// BREP pipeline: placement frames, the curve/surface interfaces, the
// concrete geometries found in STEP files, and chord-tolerance
// polyline sampling.
package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Epsilon is the general numeric tolerance for coincidence tests.
const Epsilon = 1e-9

// Curve is a parametric 3D curve.
type Curve interface {
	// Point evaluates the curve at parameter t.
	Point(t float64) vec3.T

	// Param returns the parameter of p, which is assumed to lie on
	// (or very near) the curve. For periodic curves the result is in
	// [0, Period).
	Param(p vec3.T) float64

	// Domain returns the natural parameter range of the curve. For
	// unbounded curves (lines) the range is degenerate and edges are
	// trimmed purely by their endpoint parameters.
	Domain() (t0, t1 float64)

	// Period returns the parametric period, or 0 for open curves.
	Period() float64
}

// Surface is a parametric 3D surface.
type Surface interface {
	// Point evaluates the surface at (u, v).
	Point(u, v float64) vec3.T

	// Normal returns the unit normal at (u, v), oriented along
	// dP/du x dP/dv.
	Normal(u, v float64) vec3.T

	// UV inverts the parametrization for a point assumed to lie on
	// the surface. Periodic parameters are returned in [0, period).
	UV(p vec3.T) (u, v float64)

	// Periods returns the parametric periods, 0 for aperiodic
	// directions.
	Periods() (uPeriod, vPeriod float64)
}

// Frame is a right-handed placement: an origin with orthonormal axes.
// It corresponds to a STEP AXIS2_PLACEMENT_3D.
type Frame struct {
	Origin vec3.T
	X, Y, Z vec3.T
}

// NewFrame builds a frame from an origin, a Z axis and an approximate
// X direction. X is re-orthogonalized against Z and Y completes the
// right-handed set.
func NewFrame(origin, axis, refX vec3.T) Frame {
	z := axis
	z.Normalize()

	x := refX
	d := vec3.Dot(&x, &z)
	scaled := z.Scaled(d)
	x.Sub(&scaled)
	if x.LengthSqr() < Epsilon {
		x = perpendicular(z)
	}
	x.Normalize()

	y := vec3.Cross(&z, &x)
	return Frame{Origin: origin, X: x, Y: y, Z: z}
}

// perpendicular returns an arbitrary unit vector perpendicular to z.
func perpendicular(z vec3.T) vec3.T {
	ref := vec3.T{1, 0, 0}
	if math.Abs(z[0]) > 0.9 {
		ref = vec3.T{0, 1, 0}
	}
	p := vec3.Cross(&z, &ref)
	p.Normalize()
	return p
}

// Local returns the coordinates of p in the frame.
func (f Frame) Local(p vec3.T) (x, y, z float64) {
	d := vec3.Sub(&p, &f.Origin)
	return vec3.Dot(&d, &f.X), vec3.Dot(&d, &f.Y), vec3.Dot(&d, &f.Z)
}

// Abs maps local frame coordinates back to world space.
func (f Frame) Abs(x, y, z float64) vec3.T {
	p := f.Origin
	sx := f.X.Scaled(x)
	sy := f.Y.Scaled(y)
	sz := f.Z.Scaled(z)
	p.Add(&sx)
	p.Add(&sy)
	p.Add(&sz)
	return p
}

// wrapAngle maps an angle into [0, 2*pi).
func wrapAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
