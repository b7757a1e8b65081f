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
	"sync/atomic"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/road"
)

// commitThreshold is the minimum height change, in meters, that is
// written to the output; smaller deltas keep the original terrain.
const commitThreshold = 0.001

// BlendStats counts the outcomes of the blending pass.
type BlendStats struct {
	CorePixels      int64
	BlendPixels     int64
	ProtectedPixels int64 // resolved to a higher-priority road's elevation
	AnomalySkips    int64
}

// Blend computes the final heightmap: road cores take their target
// elevation, blend-zone pixels transition toward the original terrain
// under the side-slope cap, and pixels inside a higher-priority
// road's protection buffer take that road's elevation instead. h0 is
// the original terrain; the result is a new slice of the same length.
//
// The pass is data-parallel over row strips; all shared inputs are
// read-only.
func Blend(net *road.Network, em *ElevationMap, sidx *road.SplineIndex, pidx *road.ProtectionIndex, distField, h0 []float64) ([]float64, BlendStats) {
	size := net.Size
	h1 := make([]float64, len(h0))
	copy(h1, h0)

	var stats BlendStats

	forEachRowStrip(size, func(lo, hi int) {
		var local BlendStats

		for y := lo; y < hi; y++ {
			row := y * size
			for x := 0; x < size; x++ {
				i := row + x
				ownerID := em.Owner[i]
				if ownerID < 0 {
					continue
				}
				target := em.Elevation[i]
				if math.IsNaN(target) {
					local.AnomalySkips++
					continue
				}

				pos := vec.Vec2{
					X: float64(x) * net.MPP,
					Y: float64(y) * net.MPP,
				}
				out, kind := blendPixel(net, sidx, pidx, distField, h0, em, i, x, y, pos, int(ownerID), target)
				switch kind {
				case pixelCore:
					local.CorePixels++
				case pixelBlend:
					local.BlendPixels++
				case pixelProtected:
					local.ProtectedPixels++
				case pixelAnomaly:
					local.AnomalySkips++
					continue
				case pixelUntouched:
					continue
				}

				if math.Abs(out-h0[i]) > commitThreshold {
					h1[i] = out
				}
			}
		}

		atomic.AddInt64(&stats.CorePixels, local.CorePixels)
		atomic.AddInt64(&stats.BlendPixels, local.BlendPixels)
		atomic.AddInt64(&stats.ProtectedPixels, local.ProtectedPixels)
		atomic.AddInt64(&stats.AnomalySkips, local.AnomalySkips)
	})

	return h1, stats
}

type pixelKind int

const (
	pixelUntouched pixelKind = iota
	pixelCore
	pixelBlend
	pixelProtected
	pixelAnomaly
)

// blendPixel resolves the final height of one owned pixel.
func blendPixel(net *road.Network, sidx *road.SplineIndex, pidx *road.ProtectionIndex, distField, h0 []float64, em *ElevationMap, i, x, y int, pos vec.Vec2, ownerID int, target float64) (float64, pixelKind) {
	owner := net.SplineByID(ownerID)
	if owner == nil {
		return 0, pixelAnomaly
	}
	halfWidth := owner.Params.HalfWidth()
	blendRange := em.BlendRange[i]

	// pixels inside the rasterized core polygon (which includes the
	// protection buffer) take the target directly
	if em.Distance[i] == 0 {
		return target, pixelCore
	}

	// perpendicular distance to the owner's nearest cross-section,
	// measured along its normal
	searchRadius := halfWidth + blendRange + float64(road.IndexCellSize)*net.MPP
	nIdx, _ := sidx.FindNearestForSpline(pos, ownerID, searchRadius)
	if nIdx < 0 {
		return 0, pixelAnomaly
	}
	nc := &net.Sections[nIdx]
	if nc.Normal.Length() < 1e-9 {
		return 0, pixelAnomaly
	}
	dOwner := math.Abs(pos.Sub(nc.Center).Dot(nc.Normal))

	dGlobal := math.Inf(1)
	if distField != nil {
		dGlobal = distField[i]
	}
	eff := min(dOwner, dGlobal)

	if eff <= halfWidth {
		return target, pixelCore
	}

	if dOwner <= halfWidth+blendRange {
		// a higher-priority road's protection buffer wins over the
		// blend
		if e, ok := protectedElevation(net, sidx, pidx, pos, x, y, owner.Priority); ok {
			return e, pixelProtected
		}

		t := (dOwner - halfWidth) / blendRange
		f := owner.Params.BlendFunc.Apply(t)
		blended := target*(1-f) + h0[i]*f

		// side-slope cap: never rise or drop faster than the
		// transverse limit away from the road edge
		maxDelta := (dOwner - halfWidth) * math.Tan(owner.Params.SideMaxSlopeDeg*math.Pi/180)
		if math.Abs(blended-target) > maxDelta {
			if h0[i] >= target {
				blended = target + maxDelta
			} else {
				blended = target - maxDelta
			}
		}
		return blended, pixelBlend
	}

	return 0, pixelUntouched
}

// protectedElevation consults the priority-protection index: when a
// spline with priority above ownerPriority has a cross-section within
// its protection radius of pos, its banking-aware elevation is
// returned. The highest such priority wins.
func protectedElevation(net *road.Network, sidx *road.SplineIndex, pidx *road.ProtectionIndex, pos vec.Vec2, x, y, ownerPriority int) (float64, bool) {
	best := ownerPriority
	bestElev := math.NaN()

	for _, cand := range pidx.Candidates(x, y) {
		if int(cand.Priority) <= best {
			continue
		}
		ci, cd := sidx.FindNearestForSpline(pos, int(cand.SplineID), cand.ProtectionRadius)
		if ci < 0 || cd > cand.ProtectionRadius {
			continue
		}
		c := &net.Sections[ci]
		if !c.HasValidElevation() {
			continue
		}
		e := elevationAtPixel(net, c, pos)
		if math.IsNaN(e) {
			continue
		}
		best = int(cand.Priority)
		bestElev = e
	}

	if math.IsNaN(bestElev) {
		return 0, false
	}
	return bestElev, true
}
