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
	"testing"

	"seehuhn.de/go/geom/vec"
)

func buildCrossNet(t *testing.T) *Network {
	t.Helper()
	p := DefaultParams()
	p.CrossSectionInterval = 2

	pb := p
	pb.RoadWidth = 6
	pb.EdgeProtectionBuffer = 2

	net, err := BuildNetwork(256, 1, []Material{
		horizontalMaterial("a", 0, 32, 224, 128, p),
		{
			Name:      "b",
			Priority:  1,
			SourceTag: "highway:b",
			Params:    pb,
			Polylines: [][]vec.Vec2{{{X: 128, Y: 32}, {X: 128, Y: 224}}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func TestIndexFindNearest(t *testing.T) {
	net := buildCrossNet(t)
	idx := NewIndex(net)

	// near the horizontal road, away from the crossing
	pos := vec.Vec2{X: 60.7, Y: 126.2}
	si, d := idx.FindNearest(pos)
	if si < 0 {
		t.Fatal("no nearest section found")
	}
	c := &net.Sections[si]
	if c.SplineID != 0 {
		t.Errorf("nearest section belongs to spline %d, want 0", c.SplineID)
	}

	// verify against a full scan
	bestD := math.Inf(1)
	for i := range net.Sections {
		bestD = min(bestD, net.Sections[i].Center.Sub(pos).Length())
	}
	if math.Abs(d-bestD) > 1e-9 {
		t.Errorf("nearest distance %g, full scan %g", d, bestD)
	}
}

func TestIndexRadiusForms(t *testing.T) {
	net := buildCrossNet(t)
	idx := NewIndex(net)

	pos := vec.Vec2{X: 128, Y: 128}
	const radius = 12.0

	// streaming form
	var streamed []int
	idx.VisitWithinRadius(pos, radius, func(s int, d float64) {
		if d > radius {
			t.Fatalf("section %d at distance %g > radius", s, d)
		}
		streamed = append(streamed, s)
	})

	// buffer-filling form
	buf := make([]int32, 256)
	n := idx.FillWithinRadius(pos, radius, buf)
	if n != len(streamed) {
		t.Fatalf("buffer form found %d, streaming form %d", n, len(streamed))
	}

	// exactness: every section within the radius is reported
	want := 0
	for i := range net.Sections {
		if net.Sections[i].Center.Sub(pos).Length() <= radius {
			want++
		}
	}
	if n != want {
		t.Errorf("radius query found %d sections, want %d", n, want)
	}

	// a tiny buffer truncates without error
	tiny := make([]int32, 2)
	if got := idx.FillWithinRadius(pos, radius, tiny); got != 2 {
		t.Errorf("tiny buffer returned %d, want 2", got)
	}
}

func TestIndexSkipsExcluded(t *testing.T) {
	net := buildCrossNet(t)
	for i := range net.Sections {
		net.Sections[i].Excluded = true
	}
	idx := NewIndex(net)
	if si, _ := idx.FindNearest(vec.Vec2{X: 128, Y: 128}); si >= 0 {
		t.Error("excluded sections must not be indexed")
	}
}

func TestSplineIndex(t *testing.T) {
	net := buildCrossNet(t)
	sidx := NewSplineIndex(net)

	// at the crossing, the nearest section of spline 0 must still be
	// from spline 0
	pos := vec.Vec2{X: 128.3, Y: 129.1}
	si, d := sidx.FindNearestForSpline(pos, 0, 20)
	if si < 0 {
		t.Fatal("no section found")
	}
	if net.Sections[si].SplineID != 0 {
		t.Fatalf("got section of spline %d, want 0", net.Sections[si].SplineID)
	}
	if d > 3 {
		t.Errorf("distance %g unexpectedly large", d)
	}

	if si, _ := sidx.FindNearestForSpline(pos, 99, 20); si >= 0 {
		t.Error("unknown spline id must return -1")
	}
}

func TestProtectionIndex(t *testing.T) {
	net := buildCrossNet(t)
	pidx := NewProtectionIndex(net)

	// cells along the vertical road must list spline 1 with its
	// protection radius halfWidth+buffer = 3+2 = 5
	cands := pidx.Candidates(128, 60)
	foundB := false
	for _, c := range cands {
		if c.SplineID == 1 {
			foundB = true
			if math.Abs(c.ProtectionRadius-5) > 1e-9 {
				t.Errorf("protection radius %g, want 5", c.ProtectionRadius)
			}
			if c.Priority != 1 {
				t.Errorf("priority %d, want 1", c.Priority)
			}
		}
	}
	if !foundB {
		t.Fatal("spline 1 missing from its own protection cells")
	}

	// far corner: no candidates
	if cands := pidx.Candidates(10, 10); len(cands) != 0 {
		t.Errorf("far corner has %d candidates, want 0", len(cands))
	}
}
