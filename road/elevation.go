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

package road

import (
	"math"
	"sort"
)

// maxSlopeIterations bounds the longitudinal slope relaxation.
const maxSlopeIterations = 200

// ElevationStats counts recovered anomalies of the elevation pass.
type ElevationStats struct {
	SlopeAdjustments int // cross-section pairs pulled toward their mean
}

// Terrain is the read-only view of the original heightmap the
// elevation calculator samples from.
type Terrain interface {
	// SampleWorld returns the terrain height at a world position,
	// clamped to the grid bounds.
	SampleWorld(x, y float64) float64
}

// CalculateElevations assigns every cross-section its target
// elevation: the median of terrain samples across the road width,
// relaxed to the longitudinal slope cap, low-pass filtered along the
// spline, and optionally leveled toward the network mean.
func CalculateElevations(net *Network, terrain Terrain) ElevationStats {
	var stats ElevationStats

	// reusable sample buffer for the transverse median
	var samples []float64

	for si := range net.Splines {
		s := &net.Splines[si]
		secs := net.SectionsOf(s)

		for i := range secs {
			c := &secs[i]
			c.TerrainElevation = terrain.SampleWorld(c.Center.X, c.Center.Y)
			if c.Excluded {
				continue
			}

			k := transverseSampleCount(c.RoadWidth, net.MPP)
			samples = samples[:0]
			for j := 0; j < k; j++ {
				t := -c.HalfWidth() + c.RoadWidth*float64(j)/float64(k-1)
				p := c.Center.Add(c.Normal.Mul(t))
				samples = append(samples, terrain.SampleWorld(p.X, p.Y))
			}
			c.TargetElevation = median(samples)
		}

		stats.SlopeAdjustments += relaxSlope(secs, s.Params.RoadMaxSlopeDeg)
		filterElevations(secs, &s.Params)
	}

	applyGlobalLeveling(net)
	return stats
}

// transverseSampleCount returns the odd number of samples (>= 5) used
// for the transverse median, roughly one per pixel across the road.
func transverseSampleCount(width, mpp float64) int {
	k := int(math.Round(width / mpp))
	if k < 5 {
		k = 5
	}
	if k%2 == 0 {
		k++
	}
	return k
}

// median returns the median of the values. The slice is reordered.
func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

// relaxSlope iteratively pulls consecutive elevations toward their
// mean until no pair exceeds the longitudinal slope cap. Returns the
// number of adjustments made.
func relaxSlope(secs []CrossSection, maxSlopeDeg float64) int {
	maxTan := math.Tan(maxSlopeDeg * math.Pi / 180)
	adjustments := 0

	for iter := 0; iter < maxSlopeIterations; iter++ {
		adjusted := false
		prev := -1
		for i := range secs {
			if secs[i].Excluded || !secs[i].HasValidElevation() {
				continue
			}
			if prev < 0 {
				prev = i
				continue
			}
			a, b := &secs[prev], &secs[i]
			d := b.Center.Sub(a.Center).Length()
			prev = i
			if d < 1e-9 {
				continue
			}
			diff := b.TargetElevation - a.TargetElevation
			limit := maxTan * d
			if math.Abs(diff) <= limit {
				continue
			}
			mid := (a.TargetElevation + b.TargetElevation) / 2
			half := limit / 2
			if diff > 0 {
				a.TargetElevation = mid - half
				b.TargetElevation = mid + half
			} else {
				a.TargetElevation = mid + half
				b.TargetElevation = mid - half
			}
			adjusted = true
			adjustments++
		}
		if !adjusted {
			break
		}
	}
	return adjustments
}

// filterElevations applies the configured 1D low-pass filter to the
// spline's elevation sequence in arc-length order, with reflection at
// the boundaries. Excluded sections keep their values and do not
// participate.
func filterElevations(secs []CrossSection, p *Params) {
	// collect the participating elevations
	idx := make([]int, 0, len(secs))
	for i := range secs {
		if !secs[i].Excluded && secs[i].HasValidElevation() {
			idx = append(idx, i)
		}
	}
	if len(idx) < 3 {
		return
	}
	e := make([]float64, len(idx))
	for j, i := range idx {
		e[j] = secs[i].TargetElevation
	}

	if p.UseButterworthFilter {
		cutoff := 1.0 / float64(max(p.SmoothingWindowSize, 2))
		filtfiltButterworth(e, p.ButterworthFilterOrder, cutoff)
	} else if p.SmoothingWindowSize > 1 {
		boxFilterReflect(e, p.SmoothingWindowSize)
	}

	for j, i := range idx {
		secs[i].TargetElevation = e[j]
	}
}

// reflectIndex maps an out-of-range index into [0, n) by reflection
// about the boundaries.
func reflectIndex(i, n int) int {
	for i < 0 || i >= n {
		if i < 0 {
			i = -i - 1
		}
		if i >= n {
			i = 2*n - i - 1
		}
	}
	return i
}

// boxFilterReflect replaces e with its moving average over a window
// of the given odd size, using prefix sums over the
// reflection-extended sequence.
func boxFilterReflect(e []float64, window int) {
	n := len(e)
	half := window / 2

	// prefix sums of the sequence extended by half on both sides
	ext := make([]float64, n+2*half)
	for i := range ext {
		ext[i] = e[reflectIndex(i-half, n)]
	}
	prefix := make([]float64, len(ext)+1)
	for i, v := range ext {
		prefix[i+1] = prefix[i] + v
	}

	for i := 0; i < n; i++ {
		lo := i // == (i - half) + half
		hi := i + 2*half + 1
		e[i] = (prefix[hi] - prefix[lo]) / float64(window)
	}
}

// biquad is one second-order IIR filter section.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

func (s *biquad) run(x []float64) {
	var w1, w2 float64 // direct form II state
	if len(x) > 0 {
		// start in the steady state of the first sample, so that a
		// constant input passes through unchanged
		w1 = x[0] / (1 + s.a1 + s.a2)
		w2 = w1
	}
	for i, v := range x {
		w0 := v - s.a1*w1 - s.a2*w2
		x[i] = s.b0*w0 + s.b1*w1 + s.b2*w2
		w2, w1 = w1, w0
	}
}

// firstOrder is a one-pole low-pass section used for odd filter
// orders.
type firstOrder struct {
	b0, b1 float64
	a1     float64
}

func (s *firstOrder) run(x []float64) {
	var w1 float64
	if len(x) > 0 {
		w1 = x[0] / (1 + s.a1) // steady state of the first sample
	}
	for i, v := range x {
		w0 := v - s.a1*w1
		x[i] = s.b0*w0 + s.b1*w1
		w1 = w0
	}
}

// butterworthSections builds the second-order (plus at most one
// first-order) sections of a digital Butterworth low-pass of the
// given order with cutoff as a fraction of the Nyquist frequency.
func butterworthSections(order int, cutoff float64) ([]biquad, *firstOrder) {
	cutoff = max(1e-4, min(0.99, cutoff))
	w0 := math.Pi * cutoff // digital cutoff in radians
	cosw := math.Cos(w0)
	sinw := math.Sin(w0)

	var sections []biquad
	nPairs := order / 2
	for k := 0; k < nPairs; k++ {
		// pole-pair quality factor of the Butterworth prototype
		q := 1 / (2 * math.Sin(math.Pi*float64(2*k+1)/float64(2*order)))
		alpha := sinw / (2 * q)

		a0 := 1 + alpha
		s := biquad{
			b0: (1 - cosw) / 2 / a0,
			b1: (1 - cosw) / a0,
			b2: (1 - cosw) / 2 / a0,
			a1: -2 * cosw / a0,
			a2: (1 - alpha) / a0,
		}
		sections = append(sections, s)
	}

	var fo *firstOrder
	if order%2 == 1 {
		wt := math.Tan(w0 / 2)
		a0 := 1 + wt
		fo = &firstOrder{
			b0: wt / a0,
			b1: wt / a0,
			a1: (wt - 1) / a0,
		}
	}
	return sections, fo
}

// filtfiltButterworth applies a zero-phase Butterworth low-pass:
// forward pass, reverse, backward pass, reverse. The signal is padded
// by reflection to suppress edge transients.
func filtfiltButterworth(e []float64, order int, cutoff float64) {
	n := len(e)
	pad := min(3*(order+1), n-1)

	buf := make([]float64, n+2*pad)
	for i := range buf {
		buf[i] = e[reflectIndex(i-pad, n)]
	}

	sections, fo := butterworthSections(order, cutoff)
	runAll := func(x []float64) {
		for i := range sections {
			s := sections[i]
			s.run(x)
		}
		if fo != nil {
			f := *fo
			f.run(x)
		}
	}

	runAll(buf)
	reverse(buf)
	runAll(buf)
	reverse(buf)

	copy(e, buf[pad:pad+n])
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// applyGlobalLeveling lerps every target elevation toward the mean
// elevation of all non-excluded cross-sections, per spline strength.
func applyGlobalLeveling(net *Network) {
	any := false
	for i := range net.Splines {
		if net.Splines[i].Params.GlobalLevelingStrength > 0 {
			any = true
			break
		}
	}
	if !any {
		return
	}

	sum := 0.0
	count := 0
	for i := range net.Sections {
		c := &net.Sections[i]
		if c.Excluded || !c.HasValidElevation() {
			continue
		}
		sum += c.TargetElevation
		count++
	}
	if count == 0 {
		return
	}
	mean := sum / float64(count)

	for si := range net.Splines {
		s := &net.Splines[si]
		strength := s.Params.GlobalLevelingStrength
		if strength <= 0 {
			continue
		}
		secs := net.SectionsOf(s)
		for i := range secs {
			c := &secs[i]
			if c.Excluded || !c.HasValidElevation() {
				continue
			}
			c.TargetElevation += strength * (mean - c.TargetElevation)
		}
	}
}
