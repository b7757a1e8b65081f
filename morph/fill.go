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
	"math"

	"seehuhn.de/go/geom/vec"
)

// FillConvex rasterizes the convex polygon with the given ordered
// vertices (pixel coordinates, either winding) and calls visit for
// every covered pixel. A pixel is covered when its center (x+0.5,
// y+0.5) lies between the polygon's edge crossings on its scan row.
// Output is clamped to the image rectangle [0,w) x [0,h).
func FillConvex(verts []vec.Vec2, w, h int, visit func(x, y int)) {
	if len(verts) < 3 {
		return
	}

	yMinF, yMaxF := verts[0].Y, verts[0].Y
	for _, v := range verts[1:] {
		yMinF = min(yMinF, v.Y)
		yMaxF = max(yMaxF, v.Y)
	}
	yMin := max(int(math.Floor(yMinF)), 0)
	yMax := min(int(math.Ceil(yMaxF)), h)

	for y := yMin; y < yMax; y++ {
		yc := float64(y) + 0.5

		// A convex polygon crosses a scan row at most twice; track the
		// leftmost and rightmost crossing.
		xLo := math.Inf(1)
		xHi := math.Inf(-1)
		n := 0
		for i := range verts {
			a := verts[i]
			b := verts[(i+1)%len(verts)]
			if a.Y == b.Y {
				continue
			}
			if (yc < a.Y) == (yc < b.Y) {
				continue
			}
			x := a.X + (b.X-a.X)*(yc-a.Y)/(b.Y-a.Y)
			xLo = min(xLo, x)
			xHi = max(xHi, x)
			n++
		}
		if n < 2 {
			continue
		}

		x0 := max(int(math.Floor(xLo+0.5)), 0)
		x1 := min(int(math.Floor(xHi-0.5)), w-1)
		for x := x0; x <= x1; x++ {
			visit(x, y)
		}
	}
}

// InsideConvex reports whether p lies inside (or on the boundary of)
// the convex polygon with the given ordered vertices. Both windings
// are accepted.
func InsideConvex(p vec.Vec2, verts []vec.Vec2) bool {
	if len(verts) < 3 {
		return false
	}
	sign := 0
	for i := range verts {
		a := verts[i]
		b := verts[(i+1)%len(verts)]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross > 1e-12 {
			if sign < 0 {
				return false
			}
			sign = 1
		} else if cross < -1e-12 {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}
