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

// Package morph provides binary-image morphology and integer raster
// geometry: skeleton thinning, path tracing, polyline simplification,
// convex polygon filling, and line drawing. All images are flat
// row-major byte slices with y=0 at the bottom edge; a pixel is
// foreground when its value is non-zero.
package morph

// Thin reduces the foreground of a binary image to a one-pixel-wide
// skeleton using the Zhang-Suen algorithm. The input slice is modified
// in place; any non-zero byte counts as foreground and surviving pixels
// are set to 1. Pixels in the outermost rows and columns are never
// removed.
func Thin(img []byte, w, h int) {
	for i, v := range img {
		if v != 0 {
			img[i] = 1
		}
	}

	// marks collects the pixels deleted in the current sub-iteration,
	// so that every decision in a sub-iteration sees the same image.
	marks := make([]int, 0, 256)

	for {
		removed := 0
		for sub := 0; sub < 2; sub++ {
			marks = marks[:0]
			for y := 1; y < h-1; y++ {
				row := y * w
				for x := 1; x < w-1; x++ {
					i := row + x
					if img[i] == 0 {
						continue
					}
					if thinRemovable(img, w, i, sub) {
						marks = append(marks, i)
					}
				}
			}
			for _, i := range marks {
				img[i] = 0
			}
			removed += len(marks)
		}
		if removed == 0 {
			return
		}
	}
}

// thinRemovable reports whether the pixel at index i may be deleted in
// sub-iteration sub (0 or 1). The neighbors P2..P9 are read clockwise
// starting at north; with bottom-origin images north is y+1.
func thinRemovable(img []byte, w, i, sub int) bool {
	p2 := img[i+w]   // N
	p3 := img[i+w+1] // NE
	p4 := img[i+1]   // E
	p5 := img[i-w+1] // SE
	p6 := img[i-w]   // S
	p7 := img[i-w-1] // SW
	p8 := img[i-1]   // W
	p9 := img[i+w-1] // NW

	b := int(p2) + int(p3) + int(p4) + int(p5) + int(p6) + int(p7) + int(p8) + int(p9)
	if b < 2 || b > 6 {
		return false
	}

	// number of 0->1 transitions in the cyclic sequence P2,P3,...,P9,P2
	a := 0
	if p2 == 0 && p3 != 0 {
		a++
	}
	if p3 == 0 && p4 != 0 {
		a++
	}
	if p4 == 0 && p5 != 0 {
		a++
	}
	if p5 == 0 && p6 != 0 {
		a++
	}
	if p6 == 0 && p7 != 0 {
		a++
	}
	if p7 == 0 && p8 != 0 {
		a++
	}
	if p8 == 0 && p9 != 0 {
		a++
	}
	if p9 == 0 && p2 != 0 {
		a++
	}
	if a != 1 {
		return false
	}

	if sub == 0 {
		return p2*p4*p6 == 0 && p4*p6*p8 == 0
	}
	return p2*p4*p8 == 0 && p2*p6*p8 == 0
}
