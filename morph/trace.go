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

// Point is an integer pixel position.
type Point struct {
	X, Y int
}

// neighbor offsets in 8-connectivity, axis-aligned steps first so that
// traced paths prefer straight continuations over diagonal ones.
var nbOffsets = [8]Point{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// TracePaths extracts ordered pixel paths from a thinned skeleton.
// Every 8-connected run between two endpoints or branch nodes becomes
// one path. Paths shorter than minLen pixels are dropped. The skeleton
// is consumed: visited pixels are cleared.
func TracePaths(skel []byte, w, h, minLen int) [][]Point {
	var paths [][]Point

	degree := func(x, y int) int {
		n := 0
		for _, d := range nbOffsets {
			nx, ny := x+d.X, y+d.Y
			if nx < 0 || nx >= w || ny < 0 || ny >= h {
				continue
			}
			if skel[ny*w+nx] != 0 {
				n++
			}
		}
		return n
	}

	// walk follows the skeleton from (x,y), clearing pixels as it goes,
	// and stops after consuming a branch node or running out of
	// neighbors.
	walk := func(x, y int) []Point {
		path := []Point{{x, y}}
		skel[y*w+x] = 0
		for {
			cx, cy := x, y
			found := false
			for _, d := range nbOffsets {
				nx, ny := cx+d.X, cy+d.Y
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				if skel[ny*w+nx] == 0 {
					continue
				}
				branch := degree(nx, ny) >= 3
				path = append(path, Point{nx, ny})
				skel[ny*w+nx] = 0
				x, y = nx, ny
				found = true
				if branch {
					return path
				}
				break
			}
			if !found {
				return path
			}
		}
	}

	emit := func(p []Point) {
		if len(p) >= minLen && len(p) >= 2 {
			paths = append(paths, p)
		}
	}

	// First pass: start from endpoints (exactly one neighbor), so open
	// runs are traced end to end.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if skel[y*w+x] != 0 && degree(x, y) == 1 {
				emit(walk(x, y))
			}
		}
	}

	// Second pass: remaining pixels belong to closed loops or to runs
	// between branch nodes whose endpoints were consumed; start
	// anywhere.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if skel[y*w+x] != 0 {
				emit(walk(x, y))
			}
		}
	}

	return paths
}
