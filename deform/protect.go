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

// Package deform applies the road network to the terrain: it
// rasterizes protected road cores with priority-aware ownership,
// interpolates per-pixel target elevations, blends road elevations
// into the original heightmap under slope constraints, and smooths
// the result around each road.
package deform

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/morph"
	"seehuhn.de/go/terrain/road"
)

// Protection holds the road-core artifacts: which pixels are paved,
// who owns them, the core target elevation, and the owning priority.
// All planes are size*size, row-major, bottom-origin.
type Protection struct {
	Size      int
	Mask      []bool
	Owner     []int32   // spline id, -1 = none
	Elevation []float64 // NaN = none
	Priority  []int32   // math.MinInt32 = none

	// Overwrites counts pixels claimed from a lower-priority spline.
	Overwrites int
	// SkippedSections counts cross-sections dropped for invalid
	// elevations and consecutive section pairs dropped for degenerate
	// normals.
	SkippedSections int
}

// BuildProtection rasterizes the trapezoidal road-core polygon of
// every consecutive pair of non-excluded cross-sections. Splines are
// processed in stable id order and sections in LocalIndex order so
// consecutive quadrilaterals meet edge to edge; priority-based
// overwrite makes the result independent of the spline order.
func BuildProtection(net *road.Network) *Protection {
	size := net.Size
	p := &Protection{
		Size:      size,
		Mask:      make([]bool, size*size),
		Owner:     make([]int32, size*size),
		Elevation: make([]float64, size*size),
		Priority:  make([]int32, size*size),
	}
	for i := range p.Owner {
		p.Owner[i] = -1
		p.Elevation[i] = math.NaN()
		p.Priority[i] = math.MinInt32
	}

	quad := make([]vec.Vec2, 4)
	for si := range net.Splines {
		s := &net.Splines[si]
		secs := net.SectionsOf(s)
		buffer := s.Params.EdgeProtectionBuffer

		prev := -1
		for i := range secs {
			c := &secs[i]
			if c.Excluded || !c.HasValidElevation() {
				if !c.Excluded {
					p.SkippedSections++
				}
				continue
			}
			if prev < 0 {
				prev = i
				continue
			}
			a, b := &secs[prev], &secs[i]
			prev = i

			if !coreCorners(a, b, buffer, net.MPP, quad) {
				p.SkippedSections++
				continue
			}
			p.fillQuad(a, b, s, quad, net.MPP)
		}
	}
	return p
}

// coreCorners computes the four pixel-space corners of the core
// polygon between sections a and b: left and right edge points at
// each section, offset by the protection buffer. Returns false when a
// normal is degenerate.
func coreCorners(a, b *road.CrossSection, buffer, mpp float64, quad []vec.Vec2) bool {
	na := a.Normal.Length()
	nb := b.Normal.Length()
	if na < 1e-9 || nb < 1e-9 {
		return false
	}

	wa := a.HalfWidth() + buffer
	wb := b.HalfWidth() + buffer

	la := a.Center.Sub(a.Normal.Mul(wa / na))
	ra := a.Center.Add(a.Normal.Mul(wa / na))
	lb := b.Center.Sub(b.Normal.Mul(wb / nb))
	rb := b.Center.Add(b.Normal.Mul(wb / nb))

	// world -> fill space, ordered L_a, R_a, R_b, L_b. Pixel (x, y)
	// sits at world (x*mpp, y*mpp); the scanline filler samples pixel
	// centers at half-integer positions, hence the half-pixel shift.
	half := vec.Vec2{X: 0.5, Y: 0.5}
	quad[0] = la.Mul(1 / mpp).Add(half)
	quad[1] = ra.Mul(1 / mpp).Add(half)
	quad[2] = rb.Mul(1 / mpp).Add(half)
	quad[3] = lb.Mul(1 / mpp).Add(half)
	return true
}

// fillQuad scanline-fills one core quadrilateral, applying the
// priority overwrite rules per covered pixel.
func (p *Protection) fillQuad(a, b *road.CrossSection, s *road.Spline, quad []vec.Vec2, mpp float64) {
	prio := int32(s.Priority)
	banked := a.Banking != nil || b.Banking != nil
	avg := (a.TargetElevation + b.TargetElevation) / 2

	morph.FillConvex(quad, p.Size, p.Size, func(x, y int) {
		i := y*p.Size + x

		elev := avg
		if banked {
			// pixel position in world meters
			wp := vec.Vec2{X: float64(x), Y: float64(y)}.Mul(mpp)
			if e := road.SegmentElevationAt(a, b, wp); !math.IsNaN(e) {
				elev = e
			}
		}

		switch {
		case p.Owner[i] < 0:
			p.Mask[i] = true
			p.Owner[i] = int32(a.SplineID)
			p.Elevation[i] = elev
			p.Priority[i] = prio
		case prio > p.Priority[i]:
			p.Owner[i] = int32(a.SplineID)
			p.Elevation[i] = elev
			p.Priority[i] = prio
			p.Overwrites++
		}
	})
}
