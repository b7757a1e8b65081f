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

// Package road builds the unified road network from raster masks and
// vector polylines, computes per-road target elevation profiles, and
// harmonizes elevations at junctions.
//
// Coordinates are world meters with y increasing northwards; pixel
// (x, y) of an S-by-S terrain at mpp meters per pixel is centered on
// the world position (x*mpp, y*mpp).
package road

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/spline"
)

// Banking is an optional transverse tilt of a road cross-section,
// given as elevation offsets (meters) of the left and right road edge
// relative to the untilted road surface. Left is the side in the
// direction of the negative normal.
type Banking struct {
	Left, Right float64
}

// CrossSection is a transverse sample of a road spline: a center
// point with its local frame, the effective road geometry at that
// point, and the target elevation mutated by the elevation,
// harmonization, and smoothing passes.
type CrossSection struct {
	SplineID   int
	LocalIndex int // position along the owning spline, 0-based

	Center  vec.Vec2 // world meters
	Tangent vec.Vec2 // unit
	Normal  vec.Vec2 // unit, tangent rotated +90 degrees

	RoadWidth  float64 // effective full width, meters
	BlendRange float64 // effective blend distance beyond the edge, meters

	// TargetElevation is NaN until the elevation calculator runs.
	// After calculation it is finite and > -1000.
	TargetElevation  float64
	TerrainElevation float64 // original terrain height at Center

	Priority int
	Excluded bool
	Banking  *Banking
}

// HalfWidth returns half the effective road width at this section.
func (c *CrossSection) HalfWidth() float64 {
	return c.RoadWidth / 2
}

// HasValidElevation reports whether the target elevation has been
// computed and is usable by the deformation passes.
func (c *CrossSection) HasValidElevation() bool {
	return !math.IsNaN(c.TargetElevation) && c.TargetElevation > -1000
}

// Spline is one parameterized road. Cross-sections live in the owning
// Network's flat section list; FirstSection and NumSections locate the
// spline's contiguous, LocalIndex-ordered slice of it.
type Spline struct {
	ID        int
	SourceTag string // empty: raster-derived; non-empty: vector-derived
	Material  string
	Priority  int
	Params    Params

	ControlPoints []vec.Vec2 // world meters
	Curve         *spline.Spline
	TotalLength   float64
	Start, End    vec.Vec2

	FirstSection, NumSections int
}

// Network is the unified road network: all splines and the flat list
// of their cross-sections, contiguous per spline and ordered by
// LocalIndex.
type Network struct {
	Size     int     // terrain side length, pixels
	MPP      float64 // meters per pixel
	Splines  []Spline
	Sections []CrossSection
}

// SectionsOf returns the cross-sections of spline s as a slice into
// the network's flat list.
func (n *Network) SectionsOf(s *Spline) []CrossSection {
	return n.Sections[s.FirstSection : s.FirstSection+s.NumSections]
}

// SplineByID returns the spline with the given id, or nil.
func (n *Network) SplineByID(id int) *Spline {
	if id < 0 || id >= len(n.Splines) {
		return nil
	}
	return &n.Splines[id]
}

// Empty reports whether the network contains no usable splines.
func (n *Network) Empty() bool {
	return len(n.Splines) == 0
}

// MaxInfluence returns the largest halfWidth+blendRange over all
// non-excluded cross-sections, the radius beyond which no pixel can be
// affected by any road.
func (n *Network) MaxInfluence() float64 {
	m := 0.0
	for i := range n.Sections {
		c := &n.Sections[i]
		if c.Excluded {
			continue
		}
		m = max(m, c.HalfWidth()+c.BlendRange)
	}
	return m
}

// SegmentElevationAt returns the road surface elevation at world
// position p for the road segment between consecutive cross-sections
// a and b, taking banking into account. Without banking this is the
// elevation interpolated along the segment. Returns NaN when the
// segment is degenerate.
func SegmentElevationAt(a, b *CrossSection, p vec.Vec2) float64 {
	ab := b.Center.Sub(a.Center)
	l2 := ab.Dot(ab)
	if l2 < 1e-12 {
		return math.NaN()
	}
	t := p.Sub(a.Center).Dot(ab) / l2
	t = max(0, min(1, t))

	base := a.TargetElevation + t*(b.TargetElevation-a.TargetElevation)
	if a.Banking == nil && b.Banking == nil {
		return base
	}

	// lateral offset of p from the segment axis, positive toward the
	// normal side
	on := a.Center.Add(ab.Mul(t))
	nrm := a.Normal.Add(b.Normal.Sub(a.Normal).Mul(t))
	nl := nrm.Length()
	if nl < 1e-9 {
		return base
	}
	lateral := p.Sub(on).Dot(nrm.Mul(1 / nl))

	hw := a.HalfWidth() + t*(b.HalfWidth()-a.HalfWidth())
	if hw < 1e-9 {
		return base
	}

	var left, right float64
	if a.Banking != nil {
		left += (1 - t) * a.Banking.Left
		right += (1 - t) * a.Banking.Right
	}
	if b.Banking != nil {
		left += t * b.Banking.Left
		right += t * b.Banking.Right
	}

	// tilt varies linearly across the width: left edge offset at
	// lateral=-hw, right edge offset at lateral=+hw
	f := (lateral + hw) / (2 * hw)
	return base + left + f*(right-left)
}
