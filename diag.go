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
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"seehuhn.de/go/terrain/road"
)

// diagPreviewSize caps the edge length of diagnostic images; larger
// terrains are scaled down.
const diagPreviewSize = 1024

// DiagnosticImages are optional visualizations of a pipeline run.
type DiagnosticImages struct {
	// JunctionDebug shows cross-section centers: gray for untouched,
	// green for sections moved by harmonization, red for junction
	// positions.
	JunctionDebug *image.RGBA

	// ChangedArea shows the final terrain in grayscale with every
	// modified pixel tinted.
	ChangedArea *image.RGBA
}

// JunctionDebugImage renders the junction diagnostic. preElevations
// holds each cross-section's target elevation before harmonization,
// in section order.
func JunctionDebugImage(net *road.Network, junctions []road.Junction, preElevations []float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, net.Size, net.Size))

	set := func(px, py int, c color.RGBA) {
		if px >= 0 && px < net.Size && py >= 0 && py < net.Size {
			// flip to top-origin for viewing
			img.SetRGBA(px, net.Size-1-py, c)
		}
	}

	gray := color.RGBA{90, 90, 90, 255}
	green := color.RGBA{0, 200, 0, 255}
	red := color.RGBA{220, 0, 0, 255}

	for i := range net.Sections {
		c := &net.Sections[i]
		px := int(math.Round(c.Center.X / net.MPP))
		py := int(math.Round(c.Center.Y / net.MPP))
		col := gray
		if i < len(preElevations) && preElevations[i] != c.TargetElevation {
			col = green
		}
		set(px, py, col)
	}
	for _, j := range junctions {
		px := int(math.Round(j.Position.X / net.MPP))
		py := int(math.Round(j.Position.Y / net.MPP))
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				set(px+dx, py+dy, red)
			}
		}
	}
	return shrinkDiag(img)
}

// ChangedAreaImage renders h1 as grayscale and tints every pixel that
// differs from h0.
func ChangedAreaImage(h0, h1 *Heightmap, maxHeight float64) *image.RGBA {
	size := h1.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	for py := 0; py < size; py++ {
		y := size - 1 - py
		for x := 0; x < size; x++ {
			v := h1.Data[y*size+x] / maxHeight
			g := uint8(max(0, min(255, math.Round(v*255))))
			c := color.RGBA{g, g, g, 255}
			if h0.Data[y*size+x] != h1.Data[y*size+x] {
				c = color.RGBA{g, uint8(min(255, int(g)+60)), g, 255}
			}
			img.SetRGBA(x, py, c)
		}
	}
	return shrinkDiag(img)
}

// shrinkDiag scales a diagnostic image down to the preview size when
// needed.
func shrinkDiag(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	if b.Dx() <= diagPreviewSize {
		return img
	}
	out := image.NewRGBA(image.Rect(0, 0, diagPreviewSize, diagPreviewSize))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	return out
}
