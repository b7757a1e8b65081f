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

import (
	"math"
	"sort"
)

// fallbackHeight replaces a broken cell when neither its neighborhood
// nor the global median yields a valid value.
const fallbackHeight = 0.23

// spikeThreshold marks cells at or above this fraction of maxHeight
// as spike candidates.
const spikeThreshold = 0.99

// ValidateHeights scans the heightmap for NaN, infinite, negative,
// saturated, and spike values and replaces them with local
// neighborhood averages (or the global median of valid cells as a
// fallback). Returns the number of repaired cells.
//
// After the call every cell is finite, non-negative, and strictly
// below maxHeight.
func ValidateHeights(h *Heightmap, maxHeight float64) int {
	size := h.Size

	isBroken := func(v float64) bool {
		return math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v >= maxHeight
	}

	// neighborhood average over the valid 8-neighbors, reading the
	// pre-repair values
	neighborAvg := func(x, y int) (float64, bool) {
		var sum float64
		n := 0
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				nx, ny := x+dx, y+dy
				if nx < 0 || nx >= size || ny < 0 || ny >= size {
					continue
				}
				v := h.Data[ny*size+nx]
				if isBroken(v) || v >= spikeThreshold*maxHeight {
					continue
				}
				sum += v
				n++
			}
		}
		if n == 0 {
			return 0, false
		}
		return sum / float64(n), true
	}

	// global median of valid cells, computed lazily
	globalMedian := math.NaN()
	median := func() float64 {
		if !math.IsNaN(globalMedian) {
			return globalMedian
		}
		valid := make([]float64, 0, len(h.Data))
		for _, v := range h.Data {
			if !isBroken(v) {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			globalMedian = fallbackHeight
		} else {
			sort.Float64s(valid)
			globalMedian = valid[len(valid)/2]
		}
		return globalMedian
	}

	repaired := 0
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := h.Data[y*size+x]

			broken := isBroken(v)
			if !broken && v >= spikeThreshold*maxHeight {
				// spike signature: a near-max cell surrounded by much
				// lower terrain
				if avg, ok := neighborAvg(x, y); ok && avg < 0.5*maxHeight {
					broken = true
				}
			}
			if !broken {
				continue
			}

			if avg, ok := neighborAvg(x, y); ok && !isBroken(avg) {
				h.Data[y*size+x] = avg
			} else if m := median(); !isBroken(m) {
				h.Data[y*size+x] = m
			} else {
				h.Data[y*size+x] = fallbackHeight
			}
			repaired++
		}
	}
	return repaired
}
