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

package road

import (
	"seehuhn.de/go/geom/vec"
)

// JunctionKind distinguishes the two detected junction geometries.
type JunctionKind int

const (
	JunctionEndToEnd JunctionKind = iota
	JunctionT
)

// Junction is a detected meeting point of two splines.
type Junction struct {
	Kind     JunctionKind
	SplineA  int // the spline whose endpoint initiated the detection
	SplineB  int
	Position vec.Vec2 // representative world position

	// BlendDistance is the harmonization reach, resolved from the two
	// splines' junction settings.
	BlendDistance float64
}

// effectiveJunction resolves a spline's junction settings against the
// pipeline-wide override.
func effectiveJunction(s *Spline, global *JunctionSettings) JunctionSettings {
	j := s.Params.Junction
	if j.UseGlobalSettings && global != nil {
		j.DetectionRadius = global.DetectionRadius
		j.BlendDistance = global.BlendDistance
	}
	return j
}

// DetectJunctions finds end-to-end and T junctions between all pairs
// of splines, including across materials. Endpoint counts are small,
// so the pairwise scan is quadratic over splines without a spatial
// index.
//
// The detection radius and blend distance of a junction are the
// larger of the two splines' effective settings, so that the wider
// road's transition always covers the junction.
func DetectJunctions(net *Network, global *JunctionSettings) []Junction {
	var junctions []Junction

	for ai := range net.Splines {
		a := &net.Splines[ai]
		ja := effectiveJunction(a, global)
		if !ja.Enabled {
			continue
		}
		for bi := range net.Splines {
			b := &net.Splines[bi]
			if bi == ai {
				continue
			}
			jb := effectiveJunction(b, global)
			if !jb.Enabled {
				continue
			}
			radius := max(ja.DetectionRadius, jb.DetectionRadius)
			blend := max(ja.BlendDistance, jb.BlendDistance)

			// end-to-end: compare endpoint pairs once per spline pair
			if ai < bi {
				for _, pa := range [2]vec.Vec2{a.Start, a.End} {
					for _, pb := range [2]vec.Vec2{b.Start, b.End} {
						if pa.Sub(pb).Length() <= radius {
							junctions = append(junctions, Junction{
								Kind:          JunctionEndToEnd,
								SplineA:       ai,
								SplineB:       bi,
								Position:      pa.Add(pb.Sub(pa).Mul(0.5)),
								BlendDistance: blend,
							})
						}
					}
				}
			}

			// T: an endpoint of a near a non-endpoint section of b
			secs := net.SectionsOf(b)
			for _, pa := range [2]vec.Vec2{a.Start, a.End} {
				bestIdx := -1
				bestD := radius
				for i := 1; i < len(secs)-1; i++ {
					c := &secs[i]
					if c.Excluded {
						continue
					}
					d := c.Center.Sub(pa).Length()
					if d <= bestD {
						bestD = d
						bestIdx = i
					}
				}
				if bestIdx >= 0 {
					junctions = append(junctions, Junction{
						Kind:          JunctionT,
						SplineA:       ai,
						SplineB:       bi,
						Position:      secs[bestIdx].Center,
						BlendDistance: blend,
					})
				}
			}
		}
	}

	return junctions
}

// HarmonizeJunctions unifies target elevations around every junction:
// cross-sections of both incident splines within the blend distance
// are pulled toward the junction target, with weight 1 - d/blend so
// the pull fades to zero at the far end of the transition. The
// junction target averages the two splines symmetrically (each
// spline's weighted mean counts once), so a through road with
// sections on both sides of a T junction does not outweigh the
// terminating road. Runs as a single pass over the detected
// junctions.
//
// Returns the number of cross-sections whose elevation changed.
func HarmonizeJunctions(net *Network, junctions []Junction) int {
	changed := 0

	// affected collects (section index, weight) pairs per junction
	type affected struct {
		section int
		weight  float64
	}
	var buf []affected

	for _, j := range junctions {
		if j.BlendDistance <= 0 {
			continue
		}
		buf = buf[:0]

		var target, targetWeight float64
		for _, si := range [2]int{j.SplineA, j.SplineB} {
			s := net.SplineByID(si)
			secs := net.SectionsOf(s)

			var wSum, ewSum float64
			for i := range secs {
				c := &secs[i]
				if c.Excluded || !c.HasValidElevation() {
					continue
				}
				d := c.Center.Sub(j.Position).Length()
				if d > j.BlendDistance {
					continue
				}
				w := max(0, min(1, 1-d/j.BlendDistance))
				buf = append(buf, affected{s.FirstSection + i, w})
				wSum += w
				ewSum += w * c.TargetElevation
			}
			if wSum > 0 {
				target += ewSum / wSum
				targetWeight++
			}
		}
		if targetWeight == 0 {
			continue
		}
		target /= targetWeight

		for _, a := range buf {
			c := &net.Sections[a.section]
			next := c.TargetElevation + a.weight*(target-c.TargetElevation)
			if next != c.TargetElevation {
				c.TargetElevation = next
				changed++
			}
		}
	}

	return changed
}
