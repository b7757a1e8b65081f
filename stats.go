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

package terrain

import "time"

// Stats is the diagnostic bundle of one pipeline run. All recovered
// anomalies are counted here; none of them fail the run.
type Stats struct {
	// EmptyNetwork is set when no splines could be extracted from any
	// material; the run is then a no-op.
	EmptyNetwork bool

	Splines       int
	CrossSections int
	Junctions     int

	// elevation pass
	SlopeAdjustments   int
	HarmonizedSections int

	// protection and elevation map
	PriorityOverwrites int
	SkippedSections    int
	EarlyRejects       int64
	AnomalySkips       int64

	// blender
	CorePixels      int64
	BlendPixels     int64
	ProtectedPixels int64

	// smoother and validator
	SmoothedPixels int
	RepairedCells  int

	// per-stage wall-clock durations
	StageDurations map[string]time.Duration
}
