// seehuhn.de/go/terrain - road-aware heightmap deformation
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package spline fits smooth interpolating curves through ordered 2D
// polylines and exposes arc-length parameterized sampling.
package spline

import (
	"errors"
	"math"
	"sort"

	"seehuhn.de/go/geom/vec"
)

// ErrTooFewPoints is returned when a curve is constructed from fewer
// than two control points.
var ErrTooFewPoints = errors.New("spline: need at least two control points")

// Sample is one point on a curve with its local frame.
type Sample struct {
	Point    vec.Vec2
	Tangent  vec.Vec2 // unit length
	Normal   vec.Vec2 // tangent rotated +90 degrees
	Distance float64  // cumulative arc length from the curve start
}

// Spline is a Catmull-Rom curve through a polyline, in the
// Kochanek-Bartels form with per-curve tension and continuity.
// Tension in [0,1] tightens the curve toward the control polyline;
// continuity in [-1,1] sharpens (negative) or smooths corners.
//
// The curve is immutable after construction and safe for concurrent
// reads.
type Spline struct {
	pts     []vec.Vec2
	mOut    []vec.Vec2 // outgoing tangent at each control point
	mIn     []vec.Vec2 // incoming tangent at each control point
	segLen  []float64  // cumulative arc length at each fine sample
	segPos  []float64  // curve parameter of each fine sample
	total   float64
	subdivs int
}

// subdivisions per control segment used for the arc-length table.
const arcSubdivs = 24

// New constructs a spline through the given control points. The point
// slice is copied. At least two points are required.
func New(pts []vec.Vec2, tension, continuity float64) (*Spline, error) {
	if len(pts) < 2 {
		return nil, ErrTooFewPoints
	}

	s := &Spline{
		pts:     append([]vec.Vec2(nil), pts...),
		subdivs: arcSubdivs,
	}
	s.computeTangents(tension, continuity)
	s.buildArcTable()
	return s, nil
}

// computeTangents fills mOut and mIn with Kochanek-Bartels tangents.
// Endpoint tangents use one-sided differences.
func (s *Spline) computeTangents(tension, continuity float64) {
	n := len(s.pts)
	s.mOut = make([]vec.Vec2, n)
	s.mIn = make([]vec.Vec2, n)

	for i := range s.pts {
		var prev, next vec.Vec2
		if i == 0 {
			prev = s.pts[0].Mul(2).Sub(s.pts[1]) // mirror
		} else {
			prev = s.pts[i-1]
		}
		if i == n-1 {
			next = s.pts[n-1].Mul(2).Sub(s.pts[n-2])
		} else {
			next = s.pts[i+1]
		}

		d0 := s.pts[i].Sub(prev)
		d1 := next.Sub(s.pts[i])

		t := tension
		c := continuity
		s.mOut[i] = d0.Mul((1 - t) * (1 + c) / 2).Add(d1.Mul((1 - t) * (1 - c) / 2))
		s.mIn[i] = d0.Mul((1 - t) * (1 - c) / 2).Add(d1.Mul((1 - t) * (1 + c) / 2))
	}
}

// eval returns the curve position at global parameter u in [0, n-1],
// where integer values coincide with control points.
func (s *Spline) eval(u float64) vec.Vec2 {
	seg, t := s.splitParam(u)
	p0, p1 := s.pts[seg], s.pts[seg+1]
	m0, m1 := s.mOut[seg], s.mIn[seg+1]

	t2 := t * t
	t3 := t2 * t
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2
	return p0.Mul(h00).Add(m0.Mul(h10)).Add(p1.Mul(h01)).Add(m1.Mul(h11))
}

// deriv returns the curve derivative with respect to the segment
// parameter at global parameter u.
func (s *Spline) deriv(u float64) vec.Vec2 {
	seg, t := s.splitParam(u)
	p0, p1 := s.pts[seg], s.pts[seg+1]
	m0, m1 := s.mOut[seg], s.mIn[seg+1]

	t2 := t * t
	dh00 := 6*t2 - 6*t
	dh10 := 3*t2 - 4*t + 1
	dh01 := -6*t2 + 6*t
	dh11 := 3*t2 - 2*t
	return p0.Mul(dh00).Add(m0.Mul(dh10)).Add(p1.Mul(dh01)).Add(m1.Mul(dh11))
}

func (s *Spline) splitParam(u float64) (seg int, t float64) {
	nSeg := len(s.pts) - 1
	if u <= 0 {
		return 0, 0
	}
	if u >= float64(nSeg) {
		return nSeg - 1, 1
	}
	seg = int(u)
	return seg, u - float64(seg)
}

// buildArcTable samples the curve finely and accumulates chord lengths
// so that arc-length positions can be inverted by binary search.
func (s *Spline) buildArcTable() {
	nSeg := len(s.pts) - 1
	n := nSeg*s.subdivs + 1
	s.segPos = make([]float64, n)
	s.segLen = make([]float64, n)

	prev := s.eval(0)
	acc := 0.0
	for i := 0; i < n; i++ {
		u := float64(i) / float64(s.subdivs)
		if i == n-1 {
			u = float64(nSeg)
		}
		p := s.eval(u)
		acc += p.Sub(prev).Length()
		s.segPos[i] = u
		s.segLen[i] = acc
		prev = p
	}
	s.total = acc
}

// Length returns the total arc length of the curve.
func (s *Spline) Length() float64 {
	return s.total
}

// paramAtDistance inverts the arc-length table.
func (s *Spline) paramAtDistance(d float64) float64 {
	if d <= 0 {
		return 0
	}
	if d >= s.total {
		return s.segPos[len(s.segPos)-1]
	}
	i := sort.SearchFloat64s(s.segLen, d)
	if i == 0 {
		return 0
	}
	l0, l1 := s.segLen[i-1], s.segLen[i]
	u0, u1 := s.segPos[i-1], s.segPos[i]
	if l1 <= l0 {
		return u0
	}
	f := (d - l0) / (l1 - l0)
	return u0 + f*(u1-u0)
}

// SampleByDistance returns the curve sample at arc-length position d,
// clamped to [0, Length()]. Near degenerate control clusters, where
// the derivative vanishes, the orientation of the nearest preceding
// valid sample is reused.
func (s *Spline) SampleByDistance(d float64) Sample {
	d = max(0, min(d, s.total))
	u := s.paramAtDistance(d)

	smp := Sample{
		Point:    s.eval(u),
		Distance: d,
	}
	smp.Tangent, smp.Normal = s.frameAt(u)
	return smp
}

// frameAt returns the unit tangent and normal at parameter u. When
// the local derivative is degenerate (repeated control points, full
// tension at a knot) the nearest usable orientation is reused:
// backwards along the curve first, then forwards from u.
func (s *Spline) frameAt(u float64) (tangent, normal vec.Vec2) {
	const tinyStep = 1e-3
	uMax := float64(len(s.pts) - 1)

	frame := func(v float64) (vec.Vec2, bool) {
		t := s.deriv(v)
		l := t.Length()
		if l <= 1e-9 {
			return vec.Vec2{}, false
		}
		return t.Mul(1 / l), true
	}

	for v := u; v >= 0; v -= tinyStep {
		if t, ok := frame(v); ok {
			return t, vec.Vec2{X: -t.Y, Y: t.X}
		}
	}
	for v := u + tinyStep; v <= uMax; v += tinyStep {
		if t, ok := frame(v); ok {
			return t, vec.Vec2{X: -t.Y, Y: t.X}
		}
	}
	// fully degenerate curve
	return vec.Vec2{X: 1}, vec.Vec2{Y: 1}
}

// SamplePointsAtInterval returns samples at arc-length positions
// 0, interval, 2*interval, ... with the final sample clamped to the
// curve end. The interval must be positive; the result is never empty
// and always includes both endpoints.
func (s *Spline) SamplePointsAtInterval(interval float64) []Sample {
	if interval <= 0 {
		panic("spline: interval must be positive")
	}
	n := int(math.Floor(s.total/interval)) + 1
	out := make([]Sample, 0, n+1)
	for i := 0; i < n; i++ {
		out = append(out, s.SampleByDistance(float64(i)*interval))
	}
	// clamp the final sample to the curve end unless it is already there
	if s.total-out[len(out)-1].Distance > 1e-9 {
		out = append(out, s.SampleByDistance(s.total))
	}
	return out
}
