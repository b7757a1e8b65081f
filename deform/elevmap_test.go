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

	"seehuhn.de/go/terrain/road"
)

// hairpinNet builds a U-shaped road whose two legs run close
// together, with target elevations rising along the arc length. An
// empty source tag selects the raster interpolation policy.
func hairpinNet(t *testing.T) *road.Network {
	t.Helper()
	p := road.DefaultParams()
	p.CrossSectionInterval = 2
	p.RoadWidth = 4
	p.TerrainAffectedRange = 6

	// legs at y=120 and y=132, joined at x=200
	pts := []vec.Vec2{
		{X: 60, Y: 120}, {X: 140, Y: 120}, {X: 196, Y: 120},
		{X: 204, Y: 126},
		{X: 196, Y: 132}, {X: 140, Y: 132}, {X: 60, Y: 132},
	}
	net, err := road.BuildNetwork(testSize, 1, []road.Material{{
		Name: "hairpin", Params: p,
		Polylines: [][]vec.Vec2{pts},
	}})
	if err != nil {
		t.Fatal(err)
	}

	// elevation grows with arc length: the far leg is much higher
	s := &net.Splines[0]
	for i := range net.Sections {
		c := &net.Sections[i]
		frac := float64(c.LocalIndex) / float64(s.NumSections-1)
		c.TargetElevation = 10 + 40*frac
	}
	return net
}

func TestRasterPolicyFollowsArcLength(t *testing.T) {
	net := hairpinNet(t)

	prot := BuildProtection(net)
	idx := road.NewIndex(net)
	sidx := road.NewSplineIndex(net)
	em := BuildElevationMap(net, prot, idx, sidx, nil)

	// probe next to the first leg: its elevation must match the
	// early part of the spline (low values), not an average with the
	// geometrically close returning leg
	probe := func(x, y int) float64 {
		return em.Elevation[y*testSize+x]
	}

	early := probe(100, 118) // beside the outgoing leg
	late := probe(100, 134)  // beside the returning leg

	if math.IsNaN(early) || math.IsNaN(late) {
		t.Fatal("probe pixels not assigned")
	}
	// the outgoing leg near x=100 is ~15% along the arc, the
	// returning leg ~85%; the two sides must stay distinct
	if late-early < 20 {
		t.Errorf("leg elevations %g and %g blur together; arc-length policy broken",
			early, late)
	}

	// no spike: along the outgoing leg the assigned elevations vary
	// smoothly
	prev := math.NaN()
	for x := 70; x <= 130; x++ {
		e := probe(x, 118)
		if math.IsNaN(e) {
			continue
		}
		if !math.IsNaN(prev) && math.Abs(e-prev) > 0.5 {
			t.Fatalf("spike of %g between x=%d and x=%d", math.Abs(e-prev), x-1, x)
		}
		prev = e
	}
}

func TestVectorPolicyBlendsNeighbors(t *testing.T) {
	// vector-tagged roads interpolate across all nearby sections
	p := road.DefaultParams()
	p.CrossSectionInterval = 2

	net, err := road.BuildNetwork(testSize, 1, []road.Material{{
		Name: "v", SourceTag: "highway:v", Params: p,
		Polylines: [][]vec.Vec2{{{X: 32, Y: 128}, {X: 224, Y: 128}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range net.Sections {
		net.Sections[i].TargetElevation = 42
	}

	prot := BuildProtection(net)
	idx := road.NewIndex(net)
	sidx := road.NewSplineIndex(net)
	em := BuildElevationMap(net, prot, idx, sidx, nil)

	// inside the blend zone the interpolated elevation equals the
	// uniform target
	i := 135*testSize + 128
	if math.Abs(em.Elevation[i]-42) > 1e-9 {
		t.Errorf("blend zone elevation %g, want 42", em.Elevation[i])
	}
	if em.Owner[i] != 0 {
		t.Errorf("owner %d, want 0", em.Owner[i])
	}
	if em.Distance[i] <= 0 {
		t.Error("blend zone distance must be positive")
	}
}
