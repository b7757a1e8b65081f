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
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/vec"

	"seehuhn.de/go/terrain/morph"
	"seehuhn.de/go/terrain/spline"
)

// Material describes one road material: either a binary raster mask
// (road pixels > 127) or a list of polylines in pixel coordinates,
// plus the parameter block and a priority. Higher priority wins where
// roads overlap.
type Material struct {
	Name      string
	Priority  int
	SourceTag string // non-empty marks vector-derived geometry
	Params    Params

	// Exactly one of Mask and Polylines should be set. Mask is a
	// size*size byte image.
	Mask      []byte
	Polylines [][]vec.Vec2
}

// BuildNetwork extracts splines from all materials and materializes
// their cross-sections. Splines are numbered in stable input order;
// the section list is contiguous per spline and ordered by LocalIndex.
//
// A material that yields no usable paths contributes nothing; the
// caller decides how to treat an overall empty network.
func BuildNetwork(size int, mpp float64, materials []Material) (*Network, error) {
	if size < 1 {
		return nil, errors.New("road: terrain size must be positive")
	}
	if mpp <= 0 {
		return nil, errors.New("road: meters per pixel must be positive")
	}

	net := &Network{
		Size: size,
		MPP:  mpp,
	}

	for mi := range materials {
		m := &materials[mi]
		if err := m.Params.Validate(); err != nil {
			return nil, fmt.Errorf("road: material %q: %w", m.Name, err)
		}

		var polylines [][]vec.Vec2
		switch {
		case m.Mask != nil:
			if len(m.Mask) != size*size {
				return nil, fmt.Errorf("road: material %q: mask is %d bytes, want %d",
					m.Name, len(m.Mask), size*size)
			}
			polylines = extractMaskPaths(m.Mask, size, &m.Params)
		case m.Polylines != nil:
			for pi, pl := range m.Polylines {
				if len(pl) < 2 {
					return nil, fmt.Errorf("road: material %q: polyline %d has %d points, want >= 2",
						m.Name, pi, len(pl))
				}
				for _, p := range pl {
					if !isFinite(p) || p.X < 0 || p.X >= float64(size) || p.Y < 0 || p.Y >= float64(size) {
						return nil, fmt.Errorf("road: material %q: polyline %d leaves the %d px terrain",
							m.Name, pi, size)
					}
				}
			}
			polylines = m.Polylines
		default:
			return nil, fmt.Errorf("road: material %q has neither mask nor polylines", m.Name)
		}

		sourceTag := m.SourceTag
		if m.Mask != nil {
			sourceTag = ""
		}

		for _, pl := range polylines {
			if err := net.addSpline(pl, m, sourceTag); err != nil {
				return nil, err
			}
		}
	}

	return net, nil
}

// extractMaskPaths turns a binary mask into simplified pixel
// polylines: threshold, Zhang-Suen thinning, path tracing, optional
// densification, and RDP simplification.
func extractMaskPaths(mask []byte, size int, p *Params) [][]vec.Vec2 {
	bin := make([]byte, len(mask))
	for i, v := range mask {
		if v > 127 {
			bin[i] = 1
		}
	}
	morph.Thin(bin, size, size)
	paths := morph.TracePaths(bin, size, size, p.MinPathLength)

	out := make([][]vec.Vec2, 0, len(paths))
	for _, path := range paths {
		pts := make([]vec.Vec2, len(path))
		for i, q := range path {
			pts[i] = vec.Vec2{X: float64(q.X), Y: float64(q.Y)}
		}
		if p.DensifyMaxSpacing > 0 {
			pts = morph.Densify(pts, p.DensifyMaxSpacing)
		}
		if p.SimplifyTolerance > 0 {
			pts = morph.Simplify(pts, p.SimplifyTolerance)
		}
		if len(pts) >= 2 {
			out = append(out, pts)
		}
	}
	return out
}

// addSpline fits a curve through one pixel polyline and appends the
// spline with its cross-sections to the network.
func (n *Network) addSpline(pixelPts []vec.Vec2, m *Material, sourceTag string) error {
	world := make([]vec.Vec2, len(pixelPts))
	for i, p := range pixelPts {
		world[i] = p.Mul(n.MPP)
	}

	curve, err := spline.New(world, m.Params.SplineTension, m.Params.SplineContinuity)
	if err != nil {
		return fmt.Errorf("road: material %q: %w", m.Name, err)
	}

	id := len(n.Splines)
	s := Spline{
		ID:            id,
		SourceTag:     sourceTag,
		Material:      m.Name,
		Priority:      m.Priority,
		Params:        m.Params,
		ControlPoints: world,
		Curve:         curve,
		TotalLength:   curve.Length(),
		Start:         world[0],
		End:           world[len(world)-1],
		FirstSection:  len(n.Sections),
	}

	samples := curve.SamplePointsAtInterval(m.Params.CrossSectionInterval)
	for i, smp := range samples {
		n.Sections = append(n.Sections, CrossSection{
			SplineID:        id,
			LocalIndex:      i,
			Center:          smp.Point,
			Tangent:         smp.Tangent,
			Normal:          smp.Normal,
			RoadWidth:       m.Params.RoadWidth,
			BlendRange:      m.Params.TerrainAffectedRange,
			TargetElevation: math.NaN(),
			Priority:        m.Priority,
		})
	}
	s.NumSections = len(samples)

	n.Splines = append(n.Splines, s)
	return nil
}

func isFinite(p vec.Vec2) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
