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

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/road"
)

// junctionMaskReach is the distance, in meters, within which two
// smoothing groups are considered to share a junction, and both
// groups' masks are expanded to cover it.
const junctionMaskReach = 15.0

// SmoothingKey identifies one smoothing parameter group. Splines with
// equal keys are smoothed together under one mask.
type SmoothingKey struct {
	Type      road.SmoothingType
	Kernel    int
	Sigma     float64
	Iters     int
	RoadWidth float64
	Extension float64
}

// smoothingGroup is the splines of one key plus their pixel mask.
type smoothingGroup struct {
	key     SmoothingKey
	splines []int
	mask    []bool
}

// Smooth applies the per-group 2D smoothing pass to the heightmap in
// place. Each group of splines with identical smoothing parameters is
// smoothed inside a mask of dilated disks around its cross-sections;
// a global already-smoothed mask prevents double application where
// groups meet at junctions (first group wins). Returns the number of
// pixels smoothed.
func Smooth(net *road.Network, h []float64) int {
	size := net.Size

	groups := buildGroups(net)
	if len(groups) == 0 {
		return 0
	}
	expandJunctionMasks(net, groups)

	smoothed := make([]bool, size*size)
	total := 0

	scratch := make([]float64, size*size)
	for _, g := range groups {
		// claim this group's not-yet-smoothed pixels, tracking their
		// bounding box so the filter only walks the relevant rows
		claimed := 0
		clip := rect.Rect{
			LLx: float64(size), LLy: float64(size),
			URx: 0, URy: 0,
		}
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				i := y*size + x
				if !g.mask[i] {
					continue
				}
				if smoothed[i] {
					g.mask[i] = false
					continue
				}
				smoothed[i] = true
				claimed++
				clip.LLx = min(clip.LLx, float64(x))
				clip.LLy = min(clip.LLy, float64(y))
				clip.URx = max(clip.URx, float64(x+1))
				clip.URy = max(clip.URy, float64(y+1))
			}
		}
		if claimed == 0 {
			continue
		}
		total += claimed

		var kernel []float64
		if g.key.Type != road.SmoothBox {
			kernel = gaussianKernel2D(g.key.Kernel, g.key.Sigma)
		}
		for iter := 0; iter < g.key.Iters; iter++ {
			smoothMasked(h, scratch, g.mask, size, clip, &g.key, kernel)
		}
	}
	return total
}

// buildGroups clusters splines with smoothing enabled by their
// parameter key and stamps each group's dilated-disk mask.
func buildGroups(net *road.Network) []*smoothingGroup {
	byKey := make(map[SmoothingKey]*smoothingGroup)
	var order []*smoothingGroup // stable spline-id order

	for si := range net.Splines {
		s := &net.Splines[si]
		p := &s.Params
		if !p.EnableSmoothing {
			continue
		}
		key := SmoothingKey{
			Type:      p.SmoothingType,
			Kernel:    p.SmoothingKernel,
			Sigma:     p.SmoothingSigma,
			Iters:     p.SmoothingIters,
			RoadWidth: p.RoadWidth,
			Extension: p.SmoothingExtension,
		}
		g, ok := byKey[key]
		if !ok {
			g = &smoothingGroup{
				key:  key,
				mask: make([]bool, net.Size*net.Size),
			}
			byKey[key] = g
			order = append(order, g)
		}
		g.splines = append(g.splines, si)

		radius := (p.RoadWidth/2 + p.SmoothingExtension) / net.MPP
		secs := net.SectionsOf(s)
		for i := range secs {
			c := &secs[i]
			if c.Excluded {
				continue
			}
			stampDisk(g.mask, net.Size,
				c.Center.X/net.MPP, c.Center.Y/net.MPP, radius)
		}
	}
	return order
}

// stampDisk sets all mask pixels within radius (pixels) of (cx, cy).
func stampDisk(mask []bool, size int, cx, cy, radius float64) {
	r2 := radius * radius
	y0 := max(int(math.Floor(cy-radius)), 0)
	y1 := min(int(math.Ceil(cy+radius)), size-1)
	x0 := max(int(math.Floor(cx-radius)), 0)
	x1 := min(int(math.Ceil(cx+radius)), size-1)

	for y := y0; y <= y1; y++ {
		dy := float64(y) - cy
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			if dx*dx+dy*dy <= r2 {
				mask[y*size+x] = true
			}
		}
	}
}

// expandJunctionMasks grows each group's mask where splines of two
// different groups meet, so both groups cover the junction area.
func expandJunctionMasks(net *road.Network, groups []*smoothingGroup) {
	groupOf := make(map[int]*smoothingGroup)
	for _, g := range groups {
		for _, si := range g.splines {
			groupOf[si] = g
		}
	}

	for ai := range net.Splines {
		ga := groupOf[ai]
		if ga == nil {
			continue
		}
		a := &net.Splines[ai]
		for bi := ai + 1; bi < len(net.Splines); bi++ {
			gb := groupOf[bi]
			if gb == nil || gb == ga {
				continue
			}
			b := &net.Splines[bi]
			p, ok := junctionPoint(net, a, b)
			if !ok {
				continue
			}
			px, py := p.X/net.MPP, p.Y/net.MPP
			ra := (a.Params.RoadWidth/2 + a.Params.SmoothingExtension) / net.MPP
			rb := (b.Params.RoadWidth/2 + b.Params.SmoothingExtension) / net.MPP
			r := max(ra, rb)
			stampDisk(ga.mask, net.Size, px, py, r)
			stampDisk(gb.mask, net.Size, px, py, r)
		}
	}
}

// junctionPoint reports where splines a and b meet: endpoints within
// junctionMaskReach of each other, or an endpoint of one within reach
// of a cross-section of the other.
func junctionPoint(net *road.Network, a, b *road.Spline) (vec.Vec2, bool) {
	aEnds := [2]vec.Vec2{a.Start, a.End}
	bEnds := [2]vec.Vec2{b.Start, b.End}

	for _, pa := range aEnds {
		for _, pb := range bEnds {
			if pa.Sub(pb).Length() <= junctionMaskReach {
				return pa.Add(pb.Sub(pa).Mul(0.5)), true
			}
		}
	}
	for _, pa := range aEnds {
		for _, c := range net.SectionsOf(b) {
			if !c.Excluded && pa.Sub(c.Center).Length() <= junctionMaskReach {
				return c.Center, true
			}
		}
	}
	for _, pb := range bEnds {
		for _, c := range net.SectionsOf(a) {
			if !c.Excluded && pb.Sub(c.Center).Length() <= junctionMaskReach {
				return c.Center, true
			}
		}
	}
	return vec.Vec2{}, false
}

// smoothMasked runs one filter iteration: heights are read from a
// snapshot of h, filtered values are written into scratch for the
// masked pixels inside the clip rectangle, then copied back. Kernel
// weights falling outside the grid are dropped and the remainder
// renormalized.
func smoothMasked(h, scratch []float64, mask []bool, size int, clip rect.Rect, key *SmoothingKey, kernel []float64) {
	half := key.Kernel / 2
	n := key.Kernel

	rowLo := max(int(clip.LLy), 0)
	rowHi := min(int(clip.URy), size)
	colLo := max(int(clip.LLx), 0)
	colHi := min(int(clip.URx), size)

	forEachRowStrip(rowHi-rowLo, func(lo, hi int) {
		for y := rowLo + lo; y < rowLo+hi; y++ {
			row := y * size
			for x := colLo; x < colHi; x++ {
				i := row + x
				if !mask[i] {
					continue
				}

				var sum, wSum float64
				switch key.Type {
				case road.SmoothBox:
					for ky := -half; ky <= half; ky++ {
						yy := y + ky
						if yy < 0 || yy >= size {
							continue
						}
						for kx := -half; kx <= half; kx++ {
							xx := x + kx
							if xx < 0 || xx >= size {
								continue
							}
							sum += h[yy*size+xx]
							wSum++
						}
					}
				case road.SmoothBilateral:
					sigmaS := key.Sigma
					sigmaR := key.Sigma / 2
					center := h[i]
					for ky := -half; ky <= half; ky++ {
						yy := y + ky
						if yy < 0 || yy >= size {
							continue
						}
						for kx := -half; kx <= half; kx++ {
							xx := x + kx
							if xx < 0 || xx >= size {
								continue
							}
							v := h[yy*size+xx]
							ds := float64(kx*kx + ky*ky)
							dr := v - center
							w := math.Exp(-ds/(2*sigmaS*sigmaS)) *
								math.Exp(-dr*dr/(2*sigmaR*sigmaR))
							sum += w * v
							wSum += w
						}
					}
				default: // Gaussian
					for ky := -half; ky <= half; ky++ {
						yy := y + ky
						if yy < 0 || yy >= size {
							continue
						}
						for kx := -half; kx <= half; kx++ {
							xx := x + kx
							if xx < 0 || xx >= size {
								continue
							}
							w := kernel[(ky+half)*n+kx+half]
							sum += w * h[yy*size+xx]
							wSum += w
						}
					}
				}

				if wSum > 0 {
					scratch[i] = sum / wSum
				} else {
					scratch[i] = h[i]
				}
			}
		}
	})

	// copy the masked region back
	for i, m := range mask {
		if m {
			h[i] = scratch[i]
		}
	}
}

// gaussianKernel2D returns an n*n kernel with the given sigma,
// normalized to sum 1.
func gaussianKernel2D(n int, sigma float64) []float64 {
	k := make([]float64, n*n)
	half := n / 2
	sum := 0.0
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			dx := float64(x - half)
			dy := float64(y - half)
			v := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			k[y*n+x] = v
			sum += v
		}
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}
