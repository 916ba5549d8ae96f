package geom

import (
	"github.com/ungerik/go3d/float64/vec3"
)

// maxSampleDepth bounds adaptive bisection so pathological curves
// terminate. 2^24 segments is far beyond any sensible tolerance.
const maxSampleDepth = 24

// SampleCurve approximates c over [t0, t1] with a polyline whose chord
// deviation from the true curve stays below tol. The result always
// contains both endpoints, parameters are strictly increasing, and the
// output is deterministic for identical inputs.
func SampleCurve(c Curve, t0, t1, tol float64) (pts []vec3.T, params []float64) {
	if tol <= 0 {
		tol = 1e-3
	}

	// Seed with four uniform spans so closed and symmetric curves
	// cannot alias the deviation probe.
	const seed = 4
	type sample struct {
		t float64
		p vec3.T
	}
	prev := sample{t0, c.Point(t0)}
	pts = append(pts, prev.p)
	params = append(params, prev.t)

	var refine func(a, b sample, depth int)
	refine = func(a, b sample, depth int) {
		tm := (a.t + b.t) / 2
		m := sample{tm, c.Point(tm)}
		if depth < maxSampleDepth && chordDeviation(c, a.t, b.t, a.p, b.p) > tol {
			refine(a, m, depth+1)
			refine(m, b, depth+1)
			return
		}
		pts = append(pts, b.p)
		params = append(params, b.t)
	}

	for i := 1; i <= seed; i++ {
		t := t0 + (t1-t0)*float64(i)/seed
		next := sample{t, c.Point(t)}
		refine(prev, next, 0)
		prev = next
	}
	return pts, params
}

// chordDeviation probes the curve at the quarter points of [a, b] and
// returns the largest distance to the chord pa-pb.
func chordDeviation(c Curve, a, b float64, pa, pb vec3.T) float64 {
	dev := 0.0
	for _, f := range [3]float64{0.25, 0.5, 0.75} {
		t := a + (b-a)*f
		p := c.Point(t)
		if d := distPointSegment(p, pa, pb); d > dev {
			dev = d
		}
	}
	return dev
}

// distPointSegment returns the distance from p to segment ab. A
// degenerate segment falls back to point distance.
func distPointSegment(p, a, b vec3.T) float64 {
	ab := vec3.Sub(&b, &a)
	ap := vec3.Sub(&p, &a)
	l2 := ab.LengthSqr()
	if l2 < Epsilon*Epsilon {
		return ap.Length()
	}
	t := clamp(vec3.Dot(&ap, &ab)/l2, 0, 1)
	q := ab.Scaled(t)
	q.Add(&a)
	return vec3.Distance(&p, &q)
}
