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
	"math"

	"seehuhn.de/go/geom/vec"
)

// IndexCellSize is the edge length of one spatial hash cell, in
// pixels.
const IndexCellSize = 32

// Index is a uniform grid hash over cross-section centers. It is
// built once and immutable afterwards, and therefore safe for
// concurrent reads. Queries come in a streaming form and a
// buffer-filling form; the latter performs no allocation and is meant
// for per-pixel hot loops.
type Index struct {
	net      *Network
	cellSize float64 // meters
	cols     int
	cells    [][]int32 // section indices per cell
}

// NewIndex builds the flat index over all non-excluded cross-sections
// of the network.
func NewIndex(net *Network) *Index {
	idx := &Index{
		net:      net,
		cellSize: float64(IndexCellSize) * net.MPP,
		cols:     (net.Size + IndexCellSize - 1) / IndexCellSize,
	}
	idx.cells = make([][]int32, idx.cols*idx.cols)
	for i := range net.Sections {
		c := &net.Sections[i]
		if c.Excluded {
			continue
		}
		cell := idx.cellOf(c.Center)
		if cell >= 0 {
			idx.cells[cell] = append(idx.cells[cell], int32(i))
		}
	}
	return idx
}

func (idx *Index) cellOf(p vec.Vec2) int {
	cx := int(p.X / idx.cellSize)
	cy := int(p.Y / idx.cellSize)
	if cx < 0 || cx >= idx.cols || cy < 0 || cy >= idx.cols {
		return -1
	}
	return cy*idx.cols + cx
}

// FindNearest returns the index (into the network's section list) of
// the nearest cross-section within the 3x3 cell neighborhood of pos,
// or -1 when the neighborhood is empty. The second result is the
// distance in meters.
func (idx *Index) FindNearest(pos vec.Vec2) (int, float64) {
	cx := int(pos.X / idx.cellSize)
	cy := int(pos.Y / idx.cellSize)

	best := -1
	bestD2 := math.Inf(1)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := cx+dx, cy+dy
			if nx < 0 || nx >= idx.cols || ny < 0 || ny >= idx.cols {
				continue
			}
			for _, si := range idx.cells[ny*idx.cols+nx] {
				c := &idx.net.Sections[si]
				d := c.Center.Sub(pos)
				d2 := d.Dot(d)
				if d2 < bestD2 {
					bestD2 = d2
					best = int(si)
				}
			}
		}
	}
	if best < 0 {
		return -1, math.Inf(1)
	}
	return best, math.Sqrt(bestD2)
}

// VisitWithinRadius calls visit for every cross-section within radius
// meters of pos, with the exact distance.
func (idx *Index) VisitWithinRadius(pos vec.Vec2, radius float64, visit func(section int, dist float64)) {
	idx.scanRadius(pos, radius, func(si int32, d float64) bool {
		visit(int(si), d)
		return true
	})
}

// FillWithinRadius writes the section indices within radius meters of
// pos into buf and returns the count. When buf fills up, the
// remaining candidates are dropped; callers size buf for the worst
// case they care about.
func (idx *Index) FillWithinRadius(pos vec.Vec2, radius float64, buf []int32) int {
	n := 0
	idx.scanRadius(pos, radius, func(si int32, d float64) bool {
		if n >= len(buf) {
			return false
		}
		buf[n] = si
		n++
		return true
	})
	return n
}

func (idx *Index) scanRadius(pos vec.Vec2, radius float64, visit func(si int32, d float64) bool) {
	reach := int(math.Ceil(radius/idx.cellSize)) + 1
	cx := int(pos.X / idx.cellSize)
	cy := int(pos.Y / idx.cellSize)
	r2 := radius * radius

	for dy := -reach; dy <= reach; dy++ {
		ny := cy + dy
		if ny < 0 || ny >= idx.cols {
			continue
		}
		for dx := -reach; dx <= reach; dx++ {
			nx := cx + dx
			if nx < 0 || nx >= idx.cols {
				continue
			}
			for _, si := range idx.cells[ny*idx.cols+nx] {
				c := &idx.net.Sections[si]
				d := c.Center.Sub(pos)
				d2 := d.Dot(d)
				if d2 > r2 {
					continue
				}
				if !visit(si, math.Sqrt(d2)) {
					return
				}
			}
		}
	}
}

// SplineIndex groups a flat index per spline, for nearest-neighbor
// queries restricted to one road.
type SplineIndex struct {
	net     *Network
	indices []*Index
}

// NewSplineIndex builds one sub-index per spline.
func NewSplineIndex(net *Network) *SplineIndex {
	si := &SplineIndex{
		net:     net,
		indices: make([]*Index, len(net.Splines)),
	}
	for id := range net.Splines {
		sub := &Index{
			net:      net,
			cellSize: float64(IndexCellSize) * net.MPP,
			cols:     (net.Size + IndexCellSize - 1) / IndexCellSize,
		}
		sub.cells = make([][]int32, sub.cols*sub.cols)
		si.indices[id] = sub
	}
	for i := range net.Sections {
		c := &net.Sections[i]
		if c.Excluded {
			continue
		}
		sub := si.indices[c.SplineID]
		cell := sub.cellOf(c.Center)
		if cell >= 0 {
			sub.cells[cell] = append(sub.cells[cell], int32(i))
		}
	}
	return si
}

// FindNearestForSpline returns the nearest cross-section of the given
// spline within radius meters of pos, or -1.
func (si *SplineIndex) FindNearestForSpline(pos vec.Vec2, splineID int, radius float64) (int, float64) {
	if splineID < 0 || splineID >= len(si.indices) {
		return -1, math.Inf(1)
	}
	sub := si.indices[splineID]

	best := -1
	bestD := math.Inf(1)
	sub.scanRadius(pos, radius, func(s int32, d float64) bool {
		if d < bestD {
			bestD = d
			best = int(s)
		}
		return true
	})
	return best, bestD
}

// ProtectionCandidate is one spline whose protection zone touches a
// grid cell.
type ProtectionCandidate struct {
	SplineID         int32
	Priority         int32
	ProtectionRadius float64
	HalfWidth        float64
}

// ProtectionIndex maps grid cells to the splines whose protection
// zone touches the cell. It is built once before the blending pass
// and read concurrently.
type ProtectionIndex struct {
	cellSize float64
	cols     int
	cells    [][]ProtectionCandidate
}

// NewProtectionIndex expands every non-excluded cross-section center
// by its spline's protection radius and records the covered cells.
func NewProtectionIndex(net *Network) *ProtectionIndex {
	pi := &ProtectionIndex{
		cellSize: float64(IndexCellSize) * net.MPP,
		cols:     (net.Size + IndexCellSize - 1) / IndexCellSize,
	}
	pi.cells = make([][]ProtectionCandidate, pi.cols*pi.cols)

	for i := range net.Sections {
		c := &net.Sections[i]
		if c.Excluded {
			continue
		}
		s := &net.Splines[c.SplineID]
		radius := s.Params.ProtectionRadius()

		c0x := int((c.Center.X - radius) / pi.cellSize)
		c1x := int((c.Center.X + radius) / pi.cellSize)
		c0y := int((c.Center.Y - radius) / pi.cellSize)
		c1y := int((c.Center.Y + radius) / pi.cellSize)
		for cy := max(c0y, 0); cy <= min(c1y, pi.cols-1); cy++ {
			for cx := max(c0x, 0); cx <= min(c1x, pi.cols-1); cx++ {
				cell := cy*pi.cols + cx
				if hasCandidate(pi.cells[cell], int32(c.SplineID)) {
					continue
				}
				pi.cells[cell] = append(pi.cells[cell], ProtectionCandidate{
					SplineID:         int32(c.SplineID),
					Priority:         int32(s.Priority),
					ProtectionRadius: radius,
					HalfWidth:        s.Params.HalfWidth(),
				})
			}
		}
	}
	return pi
}

func hasCandidate(list []ProtectionCandidate, id int32) bool {
	for _, c := range list {
		if c.SplineID == id {
			return true
		}
	}
	return false
}

// Candidates returns the splines whose protection zone touches the
// grid cell containing pixel (x, y). The returned slice is shared and
// must not be modified.
func (pi *ProtectionIndex) Candidates(x, y int) []ProtectionCandidate {
	cx := x / IndexCellSize
	cy := y / IndexCellSize
	if cx < 0 || cx >= pi.cols || cy < 0 || cy >= pi.cols {
		return nil
	}
	return pi.cells[cy*pi.cols+cx]
}
