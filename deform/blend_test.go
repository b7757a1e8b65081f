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

package deform

import (
	"math"
	"testing"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/edt"
	"seehuhn.de/go/terrain/morph"
	"seehuhn.de/go/terrain/road"
)

// tiltTerrain returns a heightmap tilted northwards: h = 10 + 0.1*y.
func tiltTerrain(size int) []float64 {
	h := make([]float64, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			h[y*size+x] = 10 + 0.1*float64(y)
		}
	}
	return h
}

// buildStraightRoad builds the scenario 1 network: one horizontal
// road from (32,128) to (224,128), width 8, blend range 10, with all
// target elevations already set to the road profile height.
func buildStraightRoad(t *testing.T, sideSlopeDeg float64) *road.Network {
	t.Helper()
	p := road.DefaultParams()
	p.CrossSectionInterval = 2
	p.RoadWidth = 8
	p.TerrainAffectedRange = 10
	p.SideMaxSlopeDeg = sideSlopeDeg
	p.BlendFunc = road.BlendLinear

	net, err := road.BuildNetwork(testSize, 1, []road.Material{{
		Name: "m", SourceTag: "highway:test", Params: p,
		Polylines: [][]vec.Vec2{{{X: 32, Y: 128}, {X: 224, Y: 128}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range net.Sections {
		net.Sections[i].TargetElevation = 10 + 0.1*128
	}
	return net
}

// runDeform executes protection, elevation map, and blending.
func runDeform(t *testing.T, net *road.Network, h0 []float64, withField bool) ([]float64, *ElevationMap) {
	t.Helper()

	var distField []float64
	if withField {
		fg := make([]byte, testSize*testSize)
		for i := range net.Splines {
			s := &net.Splines[i]
			for k := 1; k < len(s.ControlPoints); k++ {
				a := s.ControlPoints[k-1].Mul(1 / net.MPP)
				b := s.ControlPoints[k].Mul(1 / net.MPP)
				morph.DrawLine(fg, testSize, testSize,
					int(a.X), int(a.Y), int(b.X), int(b.Y))
			}
		}
		var err error
		distField, err = edt.Transform(fg, testSize, testSize, net.MPP)
		if err != nil {
			t.Fatal(err)
		}
	}

	prot := BuildProtection(net)
	idx := road.NewIndex(net)
	sidx := road.NewSplineIndex(net)
	pidx := road.NewProtectionIndex(net)
	em := BuildElevationMap(net, prot, idx, sidx, distField)
	h1, _ := Blend(net, em, sidx, pidx, distField, h0)
	return h1, em
}

func TestBlendStraightRoadOnTilt(t *testing.T) {
	net := buildStraightRoad(t, 30)
	h0 := tiltTerrain(testSize)
	h1, _ := runDeform(t, net, h0, false)

	roadHeight := 10 + 0.1*128
	maxSlope := math.Tan(30 * math.Pi / 180)

	for x := 48; x <= 208; x++ {
		for y := 100; y < 156; y++ {
			i := y*testSize + x
			d := math.Abs(float64(y) - 128) // distance to the road axis

			switch {
			case d <= 4:
				// road surface is level at the road height
				if math.Abs(h1[i]-roadHeight) > 1e-3 {
					t.Fatalf("core pixel (%d,%d): %g, want %g", x, y, h1[i], roadHeight)
				}
			case d >= 15:
				// outside the influence zone the terrain is untouched
				if h1[i] != h0[i] {
					t.Fatalf("outside pixel (%d,%d) changed: %g != %g", x, y, h1[i], h0[i])
				}
			}
		}

		// transverse slope of the result is bounded by the side cap
		for y := 101; y < 156; y++ {
			i := y*testSize + x
			slope := math.Abs(h1[i] - h1[i-testSize]) // mpp = 1
			if slope > maxSlope+1e-3 {
				t.Fatalf("slope %g at (%d,%d) exceeds cap %g", slope, x, y, maxSlope)
			}
		}
	}
}

func TestBlendMeetsTerrainAtEdge(t *testing.T) {
	net := buildStraightRoad(t, 60) // cap loose enough not to bind
	h0 := tiltTerrain(testSize)
	h1, _ := runDeform(t, net, h0, false)

	// at the far edge of the blend zone the heights converge to the
	// terrain
	x := 128
	for _, y := range []int{114, 115, 141, 142} { // d = 13..14
		i := y*testSize + x
		if math.Abs(h1[i]-h0[i]) > 0.35 {
			t.Errorf("blend edge (%d,%d): |h1-h0| = %g", x, y, math.Abs(h1[i]-h0[i]))
		}
	}
}

func TestBlendCrossingPriorities(t *testing.T) {
	// the crossing: inside A's blend zone but within B's protection
	// buffer (half width 3 + buffer 2), the height equals B's target
	net := buildCross(t, "ab")
	h0 := make([]float64, testSize*testSize) // flat zero terrain
	h1, _ := runDeform(t, net, h0, false)

	probes := []struct{ x, y int }{
		{125, 134}, // 3 m from B's axis, 6 m from A's
		{126, 135}, // 2 m from B's axis, 7 m from A's
		{131, 122}, // other quadrant
	}
	for _, p := range probes {
		i := p.y*testSize + p.x
		if math.Abs(h1[i]-30) > 1e-3 {
			t.Errorf("protected pixel (%d,%d): %g, want B target 30", p.x, p.y, h1[i])
		}
	}

	// core of A away from the crossing keeps A's target
	if i := 128*testSize + 60; math.Abs(h1[i]-20) > 1e-3 {
		t.Errorf("A core pixel: %g, want 20", h1[i])
	}
}

func TestBlendProtectionIndexPath(t *testing.T) {
	// force a pixel's ownership to the lower-priority road and check
	// that the higher-priority road's protection still wins
	net := buildCross(t, "ab")
	h0 := make([]float64, testSize*testSize)

	prot := BuildProtection(net)
	idx := road.NewIndex(net)
	sidx := road.NewSplineIndex(net)
	pidx := road.NewProtectionIndex(net)
	em := BuildElevationMap(net, prot, idx, sidx, nil)

	// a pixel 5 m from A's axis (in A's blend zone) and 4 m from B's
	// axis (inside B's protection radius of 5)
	x, y := 124, 133
	i := y*testSize + x
	em.Owner[i] = 0 // road A
	em.Elevation[i] = 20
	em.BlendRange[i] = net.Splines[0].Params.TerrainAffectedRange
	em.Distance[i] = 5

	h1, _ := Blend(net, em, sidx, pidx, nil, h0)
	if math.Abs(h1[i]-30) > 1e-3 {
		t.Errorf("pixel (%d,%d): %g, want higher-priority target 30", x, y, h1[i])
	}
}

func TestElevationMapFieldEquivalence(t *testing.T) {
	// the distance field only skips pixels with no
	// influence; the assignment must be bit-identical with and
	// without it
	net := buildStraightRoad(t, 30)
	h0 := tiltTerrain(testSize)

	_, emWith := runDeform(t, net, h0, true)
	_, emWithout := runDeform(t, net, h0, false)

	if emWith.EarlyRejects == 0 {
		t.Error("distance field rejected nothing")
	}
	for i := range emWith.Elevation {
		a, b := emWith.Elevation[i], emWithout.Elevation[i]
		if math.IsNaN(a) != math.IsNaN(b) || (!math.IsNaN(a) && a != b) {
			t.Fatalf("pixel %d: elevation %g vs %g", i, a, b)
		}
		if emWith.Owner[i] != emWithout.Owner[i] {
			t.Fatalf("pixel %d: owner %d vs %d", i, emWith.Owner[i], emWithout.Owner[i])
		}
	}
}
