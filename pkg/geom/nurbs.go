package geom

import (
	"math"

	"github.com/ungerik/go3d/float64/vec3"
)

// knotSpan locates the knot span containing u (The NURBS Book,
// algorithm 2.1). n is the number of basis functions minus one.
func knotSpan(knots []float64, degree int, u float64) int {
	n := len(knots) - degree - 2
	if u >= knots[n+1] {
		return n
	}
	if u <= knots[degree] {
		return degree
	}
	low, high := degree, n+1
	mid := (low + high) / 2
	for u < knots[mid] || u >= knots[mid+1] {
		if u < knots[mid] {
			high = mid
		} else {
			low = mid
		}
		mid = (low + high) / 2
	}
	return mid
}

// basisFuns evaluates the degree+1 nonzero B-spline basis functions at
// u for the given span (The NURBS Book, algorithm 2.2).
func basisFuns(span int, u float64, degree int, knots []float64) []float64 {
	out := make([]float64, degree+1)
	left := make([]float64, degree+1)
	right := make([]float64, degree+1)
	out[0] = 1
	for j := 1; j <= degree; j++ {
		left[j] = u - knots[span+1-j]
		right[j] = knots[span+j] - u
		saved := 0.0
		for r := 0; r < j; r++ {
			tmp := out[r] / (right[r+1] + left[j-r])
			out[r] = saved + right[r+1]*tmp
			saved = left[j-r] * tmp
		}
		out[j] = saved
	}
	return out
}

// BSplineCurve is a (possibly rational) B-spline curve. A nil Weights
// slice means the curve is polynomial.
type BSplineCurve struct {
	Degree  int
	Ctrl    []vec3.T
	Weights []float64
	Knots   []float64
}

func (c *BSplineCurve) Point(t float64) vec3.T {
	t0, t1 := c.Domain()
	t = clamp(t, t0, t1)
	span := knotSpan(c.Knots, c.Degree, t)
	basis := basisFuns(span, t, c.Degree, c.Knots)

	var p vec3.T
	wsum := 0.0
	for j := 0; j <= c.Degree; j++ {
		i := span - c.Degree + j
		w := 1.0
		if c.Weights != nil {
			w = c.Weights[i]
		}
		s := c.Ctrl[i].Scaled(basis[j] * w)
		p.Add(&s)
		wsum += basis[j] * w
	}
	if c.Weights != nil && wsum != 0 {
		p.Scale(1 / wsum)
	}
	return p
}

// Param inverts the curve by coarse scan followed by ternary
// refinement of the squared distance. Deterministic for a given input.
func (c *BSplineCurve) Param(p vec3.T) float64 {
	t0, t1 := c.Domain()
	const scan = 128
	best, bestD := t0, math.Inf(1)
	for i := 0; i <= scan; i++ {
		t := t0 + (t1-t0)*float64(i)/scan
		q := c.Point(t)
		if d := vec3.SquareDistance(&p, &q); d < bestD {
			best, bestD = t, d
		}
	}
	step := (t1 - t0) / scan
	lo := math.Max(t0, best-step)
	hi := math.Min(t1, best+step)
	for i := 0; i < 60; i++ {
		m1 := lo + (hi-lo)/3
		m2 := hi - (hi-lo)/3
		q1 := c.Point(m1)
		q2 := c.Point(m2)
		if vec3.SquareDistance(&p, &q1) < vec3.SquareDistance(&p, &q2) {
			hi = m2
		} else {
			lo = m1
		}
	}
	return (lo + hi) / 2
}

func (c *BSplineCurve) Domain() (float64, float64) {
	return c.Knots[c.Degree], c.Knots[len(c.Knots)-c.Degree-1]
}

func (c *BSplineCurve) Period() float64 { return 0 }

// BSplineSurface is a (possibly rational) tensor-product B-spline
// surface. Ctrl is indexed [u][v].
type BSplineSurface struct {
	DegreeU, DegreeV int
	Ctrl             [][]vec3.T
	Weights          [][]float64
	KnotsU, KnotsV   []float64
}

// DomainUV returns the parameter rectangle of the surface.
func (s *BSplineSurface) DomainUV() (u0, u1, v0, v1 float64) {
	return s.KnotsU[s.DegreeU], s.KnotsU[len(s.KnotsU)-s.DegreeU-1],
		s.KnotsV[s.DegreeV], s.KnotsV[len(s.KnotsV)-s.DegreeV-1]
}

func (s *BSplineSurface) Point(u, v float64) vec3.T {
	u0, u1, v0, v1 := s.DomainUV()
	u = clamp(u, u0, u1)
	v = clamp(v, v0, v1)
	spanU := knotSpan(s.KnotsU, s.DegreeU, u)
	spanV := knotSpan(s.KnotsV, s.DegreeV, v)
	bu := basisFuns(spanU, u, s.DegreeU, s.KnotsU)
	bv := basisFuns(spanV, v, s.DegreeV, s.KnotsV)

	var p vec3.T
	wsum := 0.0
	for j := 0; j <= s.DegreeU; j++ {
		iu := spanU - s.DegreeU + j
		for k := 0; k <= s.DegreeV; k++ {
			iv := spanV - s.DegreeV + k
			w := 1.0
			if s.Weights != nil {
				w = s.Weights[iu][iv]
			}
			f := bu[j] * bv[k] * w
			sc := s.Ctrl[iu][iv].Scaled(f)
			p.Add(&sc)
			wsum += f
		}
	}
	if s.Weights != nil && wsum != 0 {
		p.Scale(1 / wsum)
	}
	return p
}

// Normal is computed from central-difference partials. The step is
// scaled to the parameter domain.
func (s *BSplineSurface) Normal(u, v float64) vec3.T {
	u0, u1, v0, v1 := s.DomainUV()
	hu := (u1 - u0) * 1e-5
	hv := (v1 - v0) * 1e-5
	pu1 := s.Point(u+hu, v)
	pu0 := s.Point(u-hu, v)
	pv1 := s.Point(u, v+hv)
	pv0 := s.Point(u, v-hv)
	du := vec3.Sub(&pu1, &pu0)
	dv := vec3.Sub(&pv1, &pv0)
	n := vec3.Cross(&du, &dv)
	if n.LengthSqr() > 0 {
		n.Normalize()
	}
	return n
}

// UV projects p onto the surface: coarse grid seed, then Gauss-Newton
// with numeric partials. p is assumed to lie on the surface; the
// iteration only polishes the grid seed.
func (s *BSplineSurface) UV(p vec3.T) (float64, float64) {
	u0, u1, v0, v1 := s.DomainUV()
	const grid = 24
	bu, bv := u0, v0
	bd := math.Inf(1)
	for i := 0; i <= grid; i++ {
		u := u0 + (u1-u0)*float64(i)/grid
		for j := 0; j <= grid; j++ {
			v := v0 + (v1-v0)*float64(j)/grid
			q := s.Point(u, v)
			if d := vec3.SquareDistance(&p, &q); d < bd {
				bu, bv, bd = u, v, d
			}
		}
	}

	hu := (u1 - u0) * 1e-6
	hv := (v1 - v0) * 1e-6
	u, v := bu, bv
	for i := 0; i < 24; i++ {
		q := s.Point(u, v)
		r := vec3.Sub(&q, &p)
		qu1 := s.Point(u+hu, v)
		qu0 := s.Point(u-hu, v)
		qv1 := s.Point(u, v+hv)
		qv0 := s.Point(u, v-hv)
		du := vec3.Sub(&qu1, &qu0)
		dv := vec3.Sub(&qv1, &qv0)
		du.Scale(1 / (2 * hu))
		dv.Scale(1 / (2 * hv))

		// Solve the 2x2 normal equations J^T J d = -J^T r.
		a := vec3.Dot(&du, &du)
		b := vec3.Dot(&du, &dv)
		c := vec3.Dot(&dv, &dv)
		f := -vec3.Dot(&du, &r)
		g := -vec3.Dot(&dv, &r)
		det := a*c - b*b
		if math.Abs(det) < Epsilon {
			break
		}
		stepU := (f*c - g*b) / det
		stepV := (g*a - f*b) / det
		u = clamp(u+stepU, u0, u1)
		v = clamp(v+stepV, v0, v1)
		if math.Abs(stepU) < 1e-12 && math.Abs(stepV) < 1e-12 {
			break
		}
	}
	return u, v
}

func (s *BSplineSurface) Periods() (float64, float64) { return 0, 0 }

// Compile-time interface checks.
var (
	_ Curve   = (*BSplineCurve)(nil)
	_ Surface = (*BSplineSurface)(nil)
)
