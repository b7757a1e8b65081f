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

package morph

import (
	"testing"
)

// fatRect builds a w*h image with a filled axis-aligned rectangle.
func fatRect(w, h, x0, y0, x1, y1 int) []byte {
	img := make([]byte, w*h)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			img[y*w+x] = 255
		}
	}
	return img
}

func countForeground(img []byte) int {
	n := 0
	for _, v := range img {
		if v != 0 {
			n++
		}
	}
	return n
}

// neighbors8 counts the foreground 8-neighbors of (x, y).
func neighbors8(img []byte, w, h, x, y int) int {
	n := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if img[ny*w+nx] != 0 {
				n++
			}
		}
	}
	return n
}

func TestThinHorizontalBar(t *testing.T) {
	const w, h = 64, 32
	img := fatRect(w, h, 8, 10, 55, 16) // 48 wide, 7 tall

	Thin(img, w, h)

	got := countForeground(img)
	if got == 0 {
		t.Fatal("thinning removed the whole bar")
	}
	// a 48-pixel bar thins to roughly one pixel per column
	if got > 60 {
		t.Errorf("skeleton has %d pixels, want close to 48", got)
	}

	// the skeleton must be one pixel wide: no pixel has more than two
	// skeleton neighbors except at most a few junction artifacts
	wide := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if img[y*w+x] != 0 && neighbors8(img, w, h, x, y) > 2 {
				wide++
			}
		}
	}
	if wide > 2 {
		t.Errorf("%d skeleton pixels have more than 2 neighbors", wide)
	}
}

func TestThinPreservesConnectivity(t *testing.T) {
	const w, h = 48, 48
	// an L-shaped thick stroke
	img := fatRect(w, h, 10, 10, 14, 40)
	for y := 10; y <= 14; y++ {
		for x := 10; x <= 40; x++ {
			img[y*w+x] = 255
		}
	}

	Thin(img, w, h)

	// flood fill from any skeleton pixel must reach all of them
	var start Point
	found := false
	for y := 0; y < h && !found; y++ {
		for x := 0; x < w && !found; x++ {
			if img[y*w+x] != 0 {
				start = Point{x, y}
				found = true
			}
		}
	}
	if !found {
		t.Fatal("empty skeleton")
	}

	seen := make([]bool, w*h)
	stack := []Point{start}
	seen[start.Y*w+start.X] = true
	reached := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached++
		for _, d := range nbOffsets {
			nx, ny := p.X+d.X, p.Y+d.Y
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			i := ny*w + nx
			if img[i] != 0 && !seen[i] {
				seen[i] = true
				stack = append(stack, Point{nx, ny})
			}
		}
	}

	if total := countForeground(img); reached != total {
		t.Errorf("skeleton is disconnected: reached %d of %d pixels", reached, total)
	}
}

func TestThinIdempotent(t *testing.T) {
	const w, h = 64, 32
	img := fatRect(w, h, 8, 10, 55, 16)
	Thin(img, w, h)

	before := append([]byte(nil), img...)
	Thin(img, w, h)
	for i := range img {
		if img[i] != before[i] {
			t.Fatal("thinning a skeleton changed it")
		}
	}
}
