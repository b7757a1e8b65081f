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

package terrain

import (
	"math"
	"testing"
)

func flatHeightmap(t *testing.T, v float64) *Heightmap {
	t.Helper()
	h, err := NewHeightmap(256)
	if err != nil {
		t.Fatal(err)
	}
	for i := range h.Data {
		h.Data[i] = v
	}
	return h
}

func TestValidateSpike(t *testing.T) {
	const maxHeight = 512.0
	h := flatHeightmap(t, 15)
	h.Set(100, 100, maxHeight) // saturated spike over 15 m neighbors

	n := ValidateHeights(h, maxHeight)
	if n != 1 {
		t.Errorf("repaired %d cells, want 1", n)
	}
	if got := h.At(100, 100); math.Abs(got-15) > 1e-9 {
		t.Errorf("spike replaced with %g, want neighborhood average 15", got)
	}
}

func TestValidateNearMaxSpike(t *testing.T) {
	const maxHeight = 512.0
	h := flatHeightmap(t, 15)
	h.Set(100, 100, 0.995*maxHeight) // below maxHeight but a spike

	if n := ValidateHeights(h, maxHeight); n != 1 {
		t.Errorf("repaired %d cells, want 1", n)
	}
	if got := h.At(100, 100); math.Abs(got-15) > 1e-9 {
		t.Errorf("near-max spike replaced with %g, want 15", got)
	}
}

func TestValidateNearMaxPlateau(t *testing.T) {
	// a legitimate high plateau is not a spike
	const maxHeight = 512.0
	h := flatHeightmap(t, 0.995*maxHeight)

	if n := ValidateHeights(h, maxHeight); n != 0 {
		t.Errorf("repaired %d cells of a valid plateau, want 0", n)
	}
}

func TestValidateBrokenValues(t *testing.T) {
	const maxHeight = 512.0
	h := flatHeightmap(t, 20)
	h.Set(10, 10, math.NaN())
	h.Set(20, 20, math.Inf(1))
	h.Set(30, 30, -4)
	h.Set(40, 40, maxHeight+100)

	if n := ValidateHeights(h, maxHeight); n != 4 {
		t.Errorf("repaired %d cells, want 4", n)
	}
	for _, v := range h.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= maxHeight {
			t.Fatalf("invalid value %g survived validation", v)
		}
	}
	if got := h.At(10, 10); math.Abs(got-20) > 1e-9 {
		t.Errorf("NaN replaced with %g, want 20", got)
	}
}

func TestValidateAllBroken(t *testing.T) {
	const maxHeight = 512.0
	h := flatHeightmap(t, 20)
	for i := range h.Data {
		h.Data[i] = math.NaN()
	}

	ValidateHeights(h, maxHeight)
	for _, v := range h.Data {
		if math.IsNaN(v) || v < 0 || v >= maxHeight {
			t.Fatal("fallback repair failed")
		}
	}
	if h.At(5, 5) != fallbackHeight {
		t.Errorf("got %g, want the default %g", h.At(5, 5), fallbackHeight)
	}
}
