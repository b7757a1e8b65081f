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
	"runtime"

	"golang.org/x/sync/errgroup"
)

// minParallelRows is the row count below which per-pixel passes run
// single-threaded; small terrains are not worth the scheduling
// overhead.
const minParallelRows = 64

// rowsPerStrip is the granularity of the parallel work queue. Strips
// keep workers load-balanced when road influence clusters in a few
// rows.
const rowsPerStrip = 32

// forEachRowStrip runs fn over contiguous row ranges [lo, hi) of an
// image with the given number of rows, distributing strips over
// GOMAXPROCS workers. fn owns its rows exclusively and may write to
// them without synchronization.
func forEachRowStrip(rows int, fn func(lo, hi int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers <= 1 || rows < minParallelRows {
		fn(0, rows)
		return
	}

	numStrips := (rows + rowsPerStrip - 1) / rowsPerStrip
	work := make(chan int, numStrips)
	for s := 0; s < numStrips; s++ {
		work <- s
	}
	close(work)

	var g errgroup.Group
	for w := 0; w < min(workers, numStrips); w++ {
		g.Go(func() error {
			for s := range work {
				lo := s * rowsPerStrip
				hi := min(lo+rowsPerStrip, rows)
				fn(lo, hi)
			}
			return nil
		})
	}
	g.Wait()
}
