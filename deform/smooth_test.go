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
	"math/rand"
	"testing"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/road"
)

// noisyTerrain returns a rough random heightmap.
func noisyTerrain(size int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	h := make([]float64, size*size)
	for i := range h {
		h[i] = 50 + rng.Float64()*10
	}
	return h
}

// smoothingNet builds one straight road with the given smoothing
// parameters.
func smoothingNet(t *testing.T, enable bool, smoothType road.SmoothingType, iters int) *road.Network {
	t.Helper()
	p := road.DefaultParams()
	p.CrossSectionInterval = 2
	p.EnableSmoothing = enable
	p.SmoothingType = smoothType
	p.SmoothingKernel = 5
	p.SmoothingSigma = 1.5
	p.SmoothingExtension = 4
	p.SmoothingIters = iters

	net, err := road.BuildNetwork(testSize, 1, []road.Material{{
		Name: "m", SourceTag: "x", Params: p,
		Polylines: [][]vec.Vec2{{{X: 32, Y: 128}, {X: 224, Y: 128}}},
	}})
	if err != nil {
		t.Fatal(err)
	}
	for i := range net.Sections {
		net.Sections[i].TargetElevation = 50
	}
	return net
}

func TestSmoothDisabledIsNoop(t *testing.T) {
	net := smoothingNet(t, false, road.SmoothGaussian, 1)
	h := noisyTerrain(testSize, 1)
	orig := append([]float64(nil), h...)

	if n := Smooth(net, h); n != 0 {
		t.Errorf("disabled smoothing touched %d pixels", n)
	}
	for i := range h {
		if h[i] != orig[i] {
			t.Fatal("disabled smoothing modified the heightmap")
		}
	}
}

func TestSmoothReducesRoughness(t *testing.T) {
	net := smoothingNet(t, true, road.SmoothGaussian, 1)
	h := noisyTerrain(testSize, 2)
	orig := append([]float64(nil), h...)

	n := Smooth(net, h)
	if n == 0 {
		t.Fatal("smoothing touched nothing")
	}

	// roughness near the road center line must drop
	rough := func(data []float64) float64 {
		var sum float64
		for x := 40; x < 216; x++ {
			sum += math.Abs(data[128*testSize+x] - data[128*testSize+x+1])
		}
		return sum
	}
	if rough(h) > rough(orig)*0.7 {
		t.Errorf("roughness %g not reduced from %g", rough(h), rough(orig))
	}

	// pixels far from the road are untouched
	for x := 0; x < testSize; x++ {
		i := 20*testSize + x
		if h[i] != orig[i] {
			t.Fatal("smoothing leaked outside its mask")
		}
	}
}

func TestSmoothIterationComposition(t *testing.T) {
	// two runs of one iteration equal one run of two iterations up to
	// floating-point reordering
	hA := noisyTerrain(testSize, 3)
	hB := append([]float64(nil), hA...)

	netOnce := smoothingNet(t, true, road.SmoothGaussian, 1)
	Smooth(netOnce, hA)
	Smooth(netOnce, hA)

	netTwice := smoothingNet(t, true, road.SmoothGaussian, 2)
	Smooth(netTwice, hB)

	for i := range hA {
		if math.Abs(hA[i]-hB[i]) > 1e-9 {
			t.Fatalf("pixel %d: 1+1 iterations %g, 2 iterations %g", i, hA[i], hB[i])
		}
	}
}

func TestSmoothBoxAndBilateral(t *testing.T) {
	for _, typ := range []road.SmoothingType{road.SmoothBox, road.SmoothBilateral} {
		net := smoothingNet(t, true, typ, 1)
		h := noisyTerrain(testSize, 4)
		if n := Smooth(net, h); n == 0 {
			t.Errorf("%v smoothing touched nothing", typ)
		}
		for _, v := range h {
			if math.IsNaN(v) {
				t.Fatalf("%v smoothing produced NaN", typ)
			}
		}
	}
}

func TestSmoothGroupsShareJunction(t *testing.T) {
	// two roads with different kernels meeting at a T; after mask
	// expansion both groups cover the junction
	pa := road.DefaultParams()
	pa.CrossSectionInterval = 2
	pa.EnableSmoothing = true
	pa.SmoothingKernel = 5
	pa.SmoothingSigma = 1.5
	pa.SmoothingExtension = 4
	pa.SmoothingIters = 1

	pb := pa
	pb.SmoothingKernel = 7 // different key -> different group

	net, err := road.BuildNetwork(testSize, 1, []road.Material{
		{
			Name: "a", SourceTag: "x", Params: pa,
			Polylines: [][]vec.Vec2{{{X: 32, Y: 128}, {X: 224, Y: 128}}},
		},
		{
			Name: "b", SourceTag: "x", Params: pb,
			Polylines: [][]vec.Vec2{{{X: 128, Y: 32}, {X: 128, Y: 126}}},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := range net.Sections {
		net.Sections[i].TargetElevation = 50
	}

	groups := buildGroups(net)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	expandJunctionMasks(net, groups)

	// both groups must cover the junction area after expansion
	j := 126*testSize + 128
	if !groups[0].mask[j] || !groups[1].mask[j] {
		t.Error("junction pixel not covered by both groups")
	}

	h := noisyTerrain(testSize, 5)
	if n := Smooth(net, h); n == 0 {
		t.Fatal("smoothing touched nothing")
	}
}
