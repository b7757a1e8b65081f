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

// Simplify reduces a polyline using the Ramer-Douglas-Peucker
// algorithm with the given perpendicular tolerance. The first and last
// points are always kept. The input is not modified.
func Simplify(pts []vec.Vec2, tol float64) []vec.Vec2 {
	if len(pts) <= 2 {
		return append([]vec.Vec2(nil), pts...)
	}
	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	rdp(pts, 0, len(pts)-1, tol, keep)

	out := make([]vec.Vec2, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func rdp(pts []vec.Vec2, lo, hi int, tol float64, keep []bool) {
	if hi-lo < 2 {
		return
	}
	maxDist := 0.0
	maxIdx := -1
	for i := lo + 1; i < hi; i++ {
		d := perpDistance(pts[i], pts[lo], pts[hi])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}
	if maxDist > tol {
		keep[maxIdx] = true
		rdp(pts, lo, maxIdx, tol, keep)
		rdp(pts, maxIdx, hi, tol, keep)
	}
}

// perpDistance returns the distance from p to the line through a and b.
// When a and b coincide, the distance to a is returned.
func perpDistance(p, a, b vec.Vec2) float64 {
	ab := b.Sub(a)
	l := ab.Length()
	if l < 1e-12 {
		return p.Sub(a).Length()
	}
	// area of the parallelogram divided by the base length
	cross := ab.X*(p.Y-a.Y) - ab.Y*(p.X-a.X)
	return math.Abs(cross) / l
}

// Densify inserts evenly spaced intermediate points so that no two
// consecutive points are farther apart than maxSpacing. maxSpacing
// must be positive.
func Densify(pts []vec.Vec2, maxSpacing float64) []vec.Vec2 {
	if len(pts) < 2 {
		return append([]vec.Vec2(nil), pts...)
	}
	out := make([]vec.Vec2, 0, len(pts))
	out = append(out, pts[0])
	for i := 1; i < len(pts); i++ {
		a, b := pts[i-1], pts[i]
		d := b.Sub(a).Length()
		if d > maxSpacing {
			n := int(math.Ceil(d / maxSpacing))
			for k := 1; k < n; k++ {
				t := float64(k) / float64(n)
				out = append(out, a.Add(b.Sub(a).Mul(t)))
			}
		}
		out = append(out, b)
	}
	return out
}
