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

// ElevationMap assigns every influenced pixel a target elevation, an
// owning spline, and the blend range that applies there. Distance
// holds the meters to the nearest cross-section used for the
// assignment and implements "first writer wins if closer".
type ElevationMap struct {
	Size       int
	Elevation  []float64 // NaN = unassigned
	Owner      []int32   // -1 = none
	BlendRange []float64
	Distance   []float64 // +Inf = unassigned

	// EarlyRejects counts pixels skipped via the distance field.
	EarlyRejects int64
	// AnomalySkips counts pixels dropped for NaN elevations or missing
	// neighbors.
	AnomalySkips int64
}

// localIndexReach is how far, in local cross-section indices, the
// raster-source interpolation looks around the nearest section.
// Skeleton-derived normals are noisy; restricting to arc-length
// neighbors prevents spikes where distant parts of the same spline
// are geometrically close (hairpins).
const localIndexReach = 2

// candidateBufferSize bounds the per-worker buffer for radius
// queries. Overflowing candidates beyond this are ignored; with
// cross-sections spaced at least a fraction of a meter apart this is
// far above any realistic density.
const candidateBufferSize = 256

// BuildElevationMap fills the per-pixel elevation assignment. Core
// pixels copy from the protection artifacts; pixels in the blend zone
// interpolate from nearby cross-sections, with the owner policy
// selected by the nearest spline's source tag (see interpolateVector
// and interpolateRaster). distField, when non-nil, is the meters-to-road
// distance field used for early rejection; passing nil only disables
// the optimization, never changes the result.
func BuildElevationMap(net *road.Network, prot *Protection, idx *road.Index, sidx *road.SplineIndex, distField []float64) *ElevationMap {
	size := net.Size
	em := &ElevationMap{
		Size:       size,
		Elevation:  make([]float64, size*size),
		Owner:      make([]int32, size*size),
		BlendRange: make([]float64, size*size),
		Distance:   make([]float64, size*size),
	}
	for i := range em.Owner {
		em.Elevation[i] = math.NaN()
		em.Owner[i] = -1
		em.Distance[i] = math.Inf(1)
	}

	maxInfluence := net.MaxInfluence()
	var earlyRejects, anomalySkips int64

	forEachRowStrip(size, func(lo, hi int) {
		buf := make([]int32, candidateBufferSize)
		var localER, localAS int64

		for y := lo; y < hi; y++ {
			row := y * size
			for x := 0; x < size; x++ {
				i := row + x

				// road-core pixels copy the protection result
				if prot.Mask[i] && prot.Owner[i] >= 0 {
					s := net.SplineByID(int(prot.Owner[i]))
					em.Elevation[i] = prot.Elevation[i]
					em.Owner[i] = prot.Owner[i]
					em.BlendRange[i] = s.Params.TerrainAffectedRange
					em.Distance[i] = 0
					continue
				}

				if distField != nil && distField[i] > maxInfluence {
					localER++
					continue
				}

				pos := vec.Vec2{
					X: float64(x) * net.MPP,
					Y: float64(y) * net.MPP,
				}
				if !assignPixel(net, idx, sidx, em, i, pos, maxInfluence, buf) {
					localAS++
				}
			}
		}

		atomic.AddInt64(&earlyRejects, localER)
		atomic.AddInt64(&anomalySkips, localAS)
	})

	em.EarlyRejects = earlyRejects
	em.AnomalySkips = anomalySkips
	return em
}

// assignPixel computes the blend-zone assignment for one pixel.
// Returns false when the pixel was skipped for an anomaly (no
// neighbors, invalid elevations); out-of-influence pixels return
// true without writing.
func assignPixel(net *road.Network, idx *road.Index, sidx *road.SplineIndex, em *ElevationMap, i int, pos vec.Vec2, maxSearchRadius float64, buf []int32) bool {
	nearest, nearestDist := idx.FindNearest(pos)
	if nearest < 0 {
		return true
	}
	if nearestDist > maxSearchRadius {
		return true // beyond every road's influence
	}
	nc := &net.Sections[nearest]

	var elev float64
	var ok bool
	if net.SplineByID(nc.SplineID).SourceTag != "" {
		elev, nearest, nearestDist, ok = interpolateVector(net, idx, pos, maxSearchRadius, buf)
		if ok {
			nc = &net.Sections[nearest]
		}
	} else {
		elev, ok, nearest, nearestDist = interpolateRaster(net, sidx, pos, nearest, nearestDist, maxSearchRadius)
		nc = &net.Sections[nearest]
	}
	if !ok {
		return false
	}

	if nearestDist > nc.HalfWidth()+nc.BlendRange {
		return true // outside this road's influence
	}

	// first writer wins if closer
	if nearestDist < em.Distance[i] {
		em.Elevation[i] = elev
		em.Owner[i] = int32(nc.SplineID)
		em.BlendRange[i] = nc.BlendRange
		em.Distance[i] = nearestDist
	}
	return true
}

// elevationAtPixel is the banking-aware elevation of cross-section c
// at the world position, falling back to the plain target elevation.
func elevationAtPixel(net *road.Network, c *road.CrossSection, pos vec.Vec2) float64 {
	s := net.SplineByID(c.SplineID)
	secs := net.SectionsOf(s)
	li := c.LocalIndex

	// pair c with its forward neighbor, or backward at the spline end
	var a, b *road.CrossSection
	switch {
	case li+1 < len(secs):
		a, b = c, &secs[li+1]
	case li > 0:
		a, b = &secs[li-1], c
	default:
		return c.TargetElevation
	}

	if e := road.SegmentElevationAt(a, b, pos); !math.IsNaN(e) {
		return e
	}
	return c.TargetElevation
}

// interpolateVector implements the vector-source policy: all
// cross-sections within the search radius contribute with
// inverse-square-distance weights. The dominant owner is the
// candidate with the highest priority, ties broken by smallest
// distance.
func interpolateVector(net *road.Network, idx *road.Index, pos vec.Vec2, radius float64, buf []int32) (elev float64, dominant int, dominantDist float64, ok bool) {
	n := idx.FillWithinRadius(pos, radius, buf)
	if n == 0 {
		return 0, -1, 0, false
	}

	dominant = -1
	dominantDist = math.Inf(1)
	dominantPrio := math.MinInt

	var wSum, ewSum float64
	for _, si := range buf[:n] {
		c := &net.Sections[si]
		if !c.HasValidElevation() {
			continue
		}
		d := c.Center.Sub(pos)
		d2 := d.Dot(d)
		w := 1 / max(d2, 0.01)
		e := elevationAtPixel(net, c, pos)
		if math.IsNaN(e) {
			continue
		}
		wSum += w
		ewSum += w * e

		dist := math.Sqrt(d2)
		if c.Priority > dominantPrio ||
			(c.Priority == dominantPrio && dist < dominantDist) {
			dominantPrio = c.Priority
			dominantDist = dist
			dominant = int(si)
		}
	}
	if wSum <= 0 || dominant < 0 {
		return 0, -1, 0, false
	}
	return ewSum / wSum, dominant, dominantDist, true
}

// interpolateRaster implements the raster-source policy: only
// cross-sections of the nearest section's spline whose LocalIndex is
// within localIndexReach contribute, weighted by index distance and
// inverse squared distance.
func interpolateRaster(net *road.Network, sidx *road.SplineIndex, pos vec.Vec2, globalNearest int, globalDist, radius float64) (elev float64, ok bool, nearest int, nearestDist float64) {
	gc := &net.Sections[globalNearest]

	// nearest section of the same spline as the globally nearest
	sn, sd := sidx.FindNearestForSpline(pos, gc.SplineID, radius)
	if sn < 0 {
		sn, sd = globalNearest, globalDist
	}
	nc := &net.Sections[sn]
	s := net.SplineByID(nc.SplineID)
	secs := net.SectionsOf(s)

	var wSum, ewSum float64
	for li := nc.LocalIndex - localIndexReach; li <= nc.LocalIndex+localIndexReach; li++ {
		if li < 0 || li >= len(secs) {
			continue
		}
		c := &secs[li]
		if c.Excluded || !c.HasValidElevation() {
			continue
		}
		d := c.Center.Sub(pos)
		dIdx := li - nc.LocalIndex
		if dIdx < 0 {
			dIdx = -dIdx
		}
		w := 1 / float64(1+dIdx) / max(d.Dot(d), 0.01)
		e := elevationAtPixel(net, c, pos)
		if math.IsNaN(e) {
			continue
		}
		wSum += w
		ewSum += w * e
	}
	if wSum <= 0 {
		return 0, false, sn, sd
	}
	return ewSum / wSum, true, sn, sd
}
