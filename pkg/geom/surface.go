package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Plane is parametrized as O + u*X + v*Y with constant normal Z.
type Plane struct {
	F Frame
}

func (p *Plane) Point(u, v float64) vec3.T { return p.F.Abs(u, v, 0) }

func (p *Plane) Normal(u, v float64) vec3.T { return p.F.Z }

func (p *Plane) UV(q vec3.T) (float64, float64) {
	x, y, _ := p.F.Local(q)
	return x, y
}

func (p *Plane) Periods() (float64, float64) { return 0, 0 }

// Cylinder is a right circular cylinder of radius R around the frame
// Z axis: P(u,v) = O + R*(cos u X + sin u Y) + v*Z.
type Cylinder struct {
	F Frame
	R float64
}

func (c *Cylinder) Point(u, v float64) vec3.T {
	return c.F.Abs(c.R*math.Cos(u), c.R*math.Sin(u), v)
}

func (c *Cylinder) Normal(u, v float64) vec3.T {
	return radial(c.F, u, 1, 0)
}

func (c *Cylinder) UV(q vec3.T) (float64, float64) {
	x, y, z := c.F.Local(q)
	return wrapAngle(math.Atan2(y, x)), z
}

func (c *Cylinder) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Cone: P(u,v) = O + (R + v sin a)*(cos u X + sin u Y) + v cos a * Z,
// where R is the radius at v=0 and a the half-angle.
type Cone struct {
	F         Frame
	R         float64
	SemiAngle float64
}

func (c *Cone) Point(u, v float64) vec3.T {
	r := c.R + v*math.Sin(c.SemiAngle)
	return c.F.Abs(r*math.Cos(u), r*math.Sin(u), v*math.Cos(c.SemiAngle))
}

func (c *Cone) Normal(u, v float64) vec3.T {
	// du x dv is proportional to cos(a)*rhat - sin(a)*Z.
	return radial(c.F, u, math.Cos(c.SemiAngle), -math.Sin(c.SemiAngle))
}

func (c *Cone) UV(q vec3.T) (float64, float64) {
	x, y, z := c.F.Local(q)
	return wrapAngle(math.Atan2(y, x)), z / math.Cos(c.SemiAngle)
}

func (c *Cone) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Sphere: P(u,v) = O + R cos v*(cos u X + sin u Y) + R sin v * Z,
// with v in [-pi/2, pi/2].
type Sphere struct {
	F Frame
	R float64
}

func (s *Sphere) Point(u, v float64) vec3.T {
	return s.F.Abs(s.R*math.Cos(v)*math.Cos(u), s.R*math.Cos(v)*math.Sin(u), s.R*math.Sin(v))
}

func (s *Sphere) Normal(u, v float64) vec3.T {
	return radial(s.F, u, math.Cos(v), math.Sin(v))
}

func (s *Sphere) UV(q vec3.T) (float64, float64) {
	x, y, z := s.F.Local(q)
	v := math.Asin(clamp(z/s.R, -1, 1))
	return wrapAngle(math.Atan2(y, x)), v
}

// Periods: u is periodic; v is bounded, not periodic.
func (s *Sphere) Periods() (float64, float64) { return 2 * math.Pi, 0 }

// Torus: P(u,v) = O + (R + r cos v)*(cos u X + sin u Y) + r sin v * Z.
// R is the major radius, r the minor.
type Torus struct {
	F    Frame
	R, Rm float64
}

func (t *Torus) Point(u, v float64) vec3.T {
	w := t.R + t.Rm*math.Cos(v)
	return t.F.Abs(w*math.Cos(u), w*math.Sin(u), t.Rm*math.Sin(v))
}

func (t *Torus) Normal(u, v float64) vec3.T {
	return radial(t.F, u, math.Cos(v), math.Sin(v))
}

func (t *Torus) UV(q vec3.T) (float64, float64) {
	x, y, z := t.F.Local(q)
	u := math.Atan2(y, x)
	w := math.Hypot(x, y) - t.R
	return wrapAngle(u), wrapAngle(math.Atan2(z, w))
}

func (t *Torus) Periods() (float64, float64) { return 2 * math.Pi, 2 * math.Pi }

// radial returns the unit vector cr*rhat(u) + cz*Z in the frame, the
// common normal form of the rotational surfaces.
func radial(f Frame, u, cr, cz float64) vec3.T {
	n := f.Abs(cr*math.Cos(u), cr*math.Sin(u), cz)
	n.Sub(&f.Origin)
	n.Normalize()
	return n
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Compile-time interface checks.
var (
	_ Surface = (*Plane)(nil)
	_ Surface = (*Cylinder)(nil)
	_ Surface = (*Cone)(nil)
	_ Surface = (*Sphere)(nil)
	_ Surface = (*Torus)(nil)
)
