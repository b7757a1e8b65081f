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
	"fmt"
	"math"
)

// BlendFunction selects the transition shape between a road's target
// elevation and the surrounding terrain.
type BlendFunction int

const (
	BlendLinear BlendFunction = iota
	BlendCosine
	BlendCubic   // smoothstep
	BlendQuintic // smootherstep
)

// Apply evaluates the blend function at t in [0,1]. The result is 0 at
// the road edge and 1 at the far edge of the blend zone.
func (b BlendFunction) Apply(t float64) float64 {
	t = max(0, min(1, t))
	switch b {
	case BlendCosine:
		return (1 - math.Cos(t*math.Pi)) / 2
	case BlendCubic:
		return t * t * (3 - 2*t)
	case BlendQuintic:
		return t * t * t * (t*(t*6-15) + 10)
	default:
		return t
	}
}

func (b BlendFunction) String() string {
	switch b {
	case BlendLinear:
		return "linear"
	case BlendCosine:
		return "cosine"
	case BlendCubic:
		return "cubic"
	case BlendQuintic:
		return "quintic"
	}
	return fmt.Sprintf("BlendFunction(%d)", int(b))
}

// SmoothingType selects the post-processing smoothing kernel.
type SmoothingType int

const (
	SmoothGaussian SmoothingType = iota
	SmoothBox
	SmoothBilateral
)

func (t SmoothingType) String() string {
	switch t {
	case SmoothGaussian:
		return "gaussian"
	case SmoothBox:
		return "box"
	case SmoothBilateral:
		return "bilateral"
	}
	return fmt.Sprintf("SmoothingType(%d)", int(t))
}

// JunctionSettings controls junction detection and elevation
// harmonization for one material, or globally when overridden.
type JunctionSettings struct {
	Enabled           bool
	UseGlobalSettings bool    // take radii from the pipeline-wide settings
	DetectionRadius   float64 // meters
	BlendDistance     float64 // meters
}

// Params is the per-road parameter block. All lengths are meters, all
// angles degrees.
type Params struct {
	RoadWidth            float64 // full paved width, >= 1
	TerrainAffectedRange float64 // blend distance beyond the road edge, >= 0
	CrossSectionInterval float64 // arc-length step between cross-sections, > 0
	RoadMaxSlopeDeg      float64 // longitudinal slope cap, (0, 45]
	SideMaxSlopeDeg      float64 // transverse slope cap, (0, 89)
	EdgeProtectionBuffer float64 // extra protected width beyond the road edge, >= 0

	BlendFunc BlendFunction

	// 1D low-pass filter over each spline's cross-section elevations.
	SmoothingWindowSize    int // odd, >= 1
	UseButterworthFilter   bool
	ButterworthFilterOrder int // [1, 8]

	// GlobalLevelingStrength interpolates target elevations toward the
	// network mean. [0, 1].
	GlobalLevelingStrength float64

	SplineTension    float64 // [0, 1]
	SplineContinuity float64 // [-1, 1]

	// Raster extraction controls, in pixels.
	DensifyMaxSpacing float64
	SimplifyTolerance float64
	MinPathLength     int

	// Post-processing smoothing block.
	EnableSmoothing    bool
	SmoothingType      SmoothingType
	SmoothingKernel    int     // odd, >= 3
	SmoothingSigma     float64 // > 0
	SmoothingExtension float64 // mask growth beyond the road edge, meters, >= 0
	SmoothingIters     int     // [1, 8]

	Junction JunctionSettings
}

// DefaultParams returns a parameter block with conservative defaults
// for a two-lane road on a 1 m/px terrain.
func DefaultParams() Params {
	return Params{
		RoadWidth:            8,
		TerrainAffectedRange: 10,
		CrossSectionInterval: 2,
		RoadMaxSlopeDeg:      12,
		SideMaxSlopeDeg:      35,
		EdgeProtectionBuffer: 0,

		BlendFunc: BlendCubic,

		SmoothingWindowSize:    5,
		UseButterworthFilter:   false,
		ButterworthFilterOrder: 2,

		SplineTension:    0,
		SplineContinuity: 0,

		DensifyMaxSpacing: 4,
		SimplifyTolerance: 1.5,
		MinPathLength:     8,

		EnableSmoothing:    false,
		SmoothingType:      SmoothGaussian,
		SmoothingKernel:    5,
		SmoothingSigma:     1.5,
		SmoothingExtension: 4,
		SmoothingIters:     1,

		Junction: JunctionSettings{
			Enabled:         true,
			DetectionRadius: 10,
			BlendDistance:   30,
		},
	}
}

// Validate checks all parameter ranges and returns a descriptive error
// for the first violation found.
func (p *Params) Validate() error {
	switch {
	case p.RoadWidth < 1:
		return fmt.Errorf("road width %g m is below the 1 m minimum", p.RoadWidth)
	case p.TerrainAffectedRange < 0:
		return fmt.Errorf("terrain affected range %g m is negative", p.TerrainAffectedRange)
	case p.CrossSectionInterval <= 0:
		return fmt.Errorf("cross-section interval %g m must be positive", p.CrossSectionInterval)
	case p.RoadMaxSlopeDeg <= 0 || p.RoadMaxSlopeDeg > 45:
		return fmt.Errorf("road max slope %g deg is outside (0, 45]", p.RoadMaxSlopeDeg)
	case p.SideMaxSlopeDeg <= 0 || p.SideMaxSlopeDeg >= 89:
		return fmt.Errorf("side max slope %g deg is outside (0, 89)", p.SideMaxSlopeDeg)
	case p.EdgeProtectionBuffer < 0:
		return fmt.Errorf("edge protection buffer %g m is negative", p.EdgeProtectionBuffer)
	case p.BlendFunc < BlendLinear || p.BlendFunc > BlendQuintic:
		return fmt.Errorf("unknown blend function %d", int(p.BlendFunc))
	case p.SmoothingWindowSize < 1 || p.SmoothingWindowSize%2 == 0:
		return fmt.Errorf("smoothing window size %d must be odd and >= 1", p.SmoothingWindowSize)
	case p.ButterworthFilterOrder < 1 || p.ButterworthFilterOrder > 8:
		return fmt.Errorf("butterworth filter order %d is outside [1, 8]", p.ButterworthFilterOrder)
	case p.GlobalLevelingStrength < 0 || p.GlobalLevelingStrength > 1:
		return fmt.Errorf("global leveling strength %g is outside [0, 1]", p.GlobalLevelingStrength)
	case p.SplineTension < 0 || p.SplineTension > 1:
		return fmt.Errorf("spline tension %g is outside [0, 1]", p.SplineTension)
	case p.SplineContinuity < -1 || p.SplineContinuity > 1:
		return fmt.Errorf("spline continuity %g is outside [-1, 1]", p.SplineContinuity)
	}

	if p.EnableSmoothing {
		switch {
		case p.SmoothingType < SmoothGaussian || p.SmoothingType > SmoothBilateral:
			return fmt.Errorf("unknown smoothing type %d", int(p.SmoothingType))
		case p.SmoothingKernel < 3 || p.SmoothingKernel%2 == 0:
			return fmt.Errorf("smoothing kernel size %d must be odd and >= 3", p.SmoothingKernel)
		case p.SmoothingSigma <= 0:
			return fmt.Errorf("smoothing sigma %g must be positive", p.SmoothingSigma)
		case p.SmoothingExtension < 0:
			return fmt.Errorf("smoothing mask extension %g m is negative", p.SmoothingExtension)
		case p.SmoothingIters < 1 || p.SmoothingIters > 8:
			return fmt.Errorf("smoothing iterations %d is outside [1, 8]", p.SmoothingIters)
		}
	}

	return nil
}

// HalfWidth returns half the paved road width.
func (p *Params) HalfWidth() float64 {
	return p.RoadWidth / 2
}

// ProtectionRadius returns the distance from the road center line
// within which the road claims protection against lower-priority
// roads.
func (p *Params) ProtectionRadius() float64 {
	return p.HalfWidth() + p.EdgeProtectionBuffer
}
