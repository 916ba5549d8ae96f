package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// Line is an unbounded straight line O + t*Dir. Dir carries the STEP
// vector magnitude, so the parameter is in multiples of |Dir|.
type Line struct {
	Origin vec3.T
	Dir    vec3.T
}

func (l *Line) Point(t float64) vec3.T {
	p := l.Origin
	s := l.Dir.Scaled(t)
	p.Add(&s)
	return p
}

func (l *Line) Param(p vec3.T) float64 {
	d := vec3.Sub(&p, &l.Origin)
	return vec3.Dot(&d, &l.Dir) / l.Dir.LengthSqr()
}

// Domain of a line is degenerate; line edges are trimmed by their
// endpoint parameters only.
func (l *Line) Domain() (float64, float64) { return 0, 0 }

func (l *Line) Period() float64 { return 0 }

// Circle is a full circle of radius R in the XY plane of its frame.
type Circle struct {
	F Frame
	R float64
}

func (c *Circle) Point(t float64) vec3.T {
	return c.F.Abs(c.R*math.Cos(t), c.R*math.Sin(t), 0)
}

func (c *Circle) Param(p vec3.T) float64 {
	x, y, _ := c.F.Local(p)
	return wrapAngle(math.Atan2(y, x))
}

func (c *Circle) Domain() (float64, float64) { return 0, 2 * math.Pi }

func (c *Circle) Period() float64 { return 2 * math.Pi }

// Ellipse has semi-axes A along frame X and B along frame Y.
type Ellipse struct {
	F    Frame
	A, B float64
}

func (e *Ellipse) Point(t float64) vec3.T {
	return e.F.Abs(e.A*math.Cos(t), e.B*math.Sin(t), 0)
}

func (e *Ellipse) Param(p vec3.T) float64 {
	x, y, _ := e.F.Local(p)
	return wrapAngle(math.Atan2(y/e.B, x/e.A))
}

func (e *Ellipse) Domain() (float64, float64) { return 0, 2 * math.Pi }

func (e *Ellipse) Period() float64 { return 2 * math.Pi }
