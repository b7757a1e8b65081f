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
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
)

// ValidSizes lists the allowed terrain side lengths, in pixels.
var ValidSizes = []int{256, 512, 1024, 2048, 4096, 8192, 16384}

// ValidSize reports whether s is an allowed terrain side length.
func ValidSize(s int) bool {
	for _, v := range ValidSizes {
		if s == v {
			return true
		}
	}
	return false
}

// Heightmap is a square grid of elevations in meters, indexed
// [y][x] with y = 0 at the southern (bottom) edge.
type Heightmap struct {
	Size int
	Data []float64 // row-major, len Size*Size
}

// NewHeightmap returns a zero-initialized heightmap. The size must be
// one of ValidSizes.
func NewHeightmap(size int) (*Heightmap, error) {
	if !ValidSize(size) {
		return nil, invalidInput("terrain size %d is not one of %v", size, ValidSizes)
	}
	return &Heightmap{
		Size: size,
		Data: make([]float64, size*size),
	}, nil
}

// Clone returns a deep copy.
func (h *Heightmap) Clone() *Heightmap {
	d := make([]float64, len(h.Data))
	copy(d, h.Data)
	return &Heightmap{Size: h.Size, Data: d}
}

// At returns the height at pixel (x, y) without bounds checking.
func (h *Heightmap) At(x, y int) float64 {
	return h.Data[y*h.Size+x]
}

// Set writes the height at pixel (x, y) without bounds checking.
func (h *Heightmap) Set(x, y int, v float64) {
	h.Data[y*h.Size+x] = v
}

// SampleBilinear returns the bilinearly interpolated height at the
// fractional pixel position (fx, fy), clamped to the grid. Pixel
// centers are at integer coordinates.
func (h *Heightmap) SampleBilinear(fx, fy float64) float64 {
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	clamp := func(v, hi int) int {
		return max(0, min(v, hi))
	}
	x1 := clamp(x0+1, h.Size-1)
	y1 := clamp(y0+1, h.Size-1)
	x0 = clamp(x0, h.Size-1)
	y0 = clamp(y0, h.Size-1)

	v00 := h.Data[y0*h.Size+x0]
	v10 := h.Data[y0*h.Size+x1]
	v01 := h.Data[y1*h.Size+x0]
	v11 := h.Data[y1*h.Size+x1]
	return v00*(1-tx)*(1-ty) + v10*tx*(1-ty) + v01*(1-tx)*ty + v11*tx*ty
}

// Mask is a square 8-bit image; values > 127 are foreground.
type Mask struct {
	Size int
	Data []byte
}

// LoadHeightmapPNG decodes a 16-bit grayscale PNG into a heightmap.
// Pixel values scale linearly to [base, base+maxHeight]; the image is
// top-origin and is flipped so that the result is bottom-origin. The
// image must be square with an allowed size.
func LoadHeightmapPNG(r io.Reader, maxHeight, base float64) (*Heightmap, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("terrain: decoding heightmap: %w", err)
	}
	bounds := img.Bounds()
	w, hh := bounds.Dx(), bounds.Dy()
	if w != hh {
		return nil, invalidInput("heightmap is %dx%d, want square", w, hh)
	}
	hm, err := NewHeightmap(w)
	if err != nil {
		return nil, err
	}

	gray, ok := img.(*image.Gray16)
	if !ok {
		return nil, invalidInput("heightmap must be 16-bit grayscale, got %T", img)
	}

	for py := 0; py < hh; py++ {
		y := hh - 1 - py // flip: PNG rows are top-origin
		for x := 0; x < w; x++ {
			o := gray.PixOffset(x+bounds.Min.X, py+bounds.Min.Y)
			v := uint16(gray.Pix[o])<<8 | uint16(gray.Pix[o+1])
			hm.Data[y*w+x] = float64(v)/65535*maxHeight + base
		}
	}
	return hm, nil
}

// WriteHeightmapPNG encodes the heightmap as a 16-bit grayscale PNG,
// flipping back to top-origin. Heights are scaled by maxHeight after
// subtracting base and clamped to the 16-bit range.
func WriteHeightmapPNG(w io.Writer, h *Heightmap, maxHeight, base float64) error {
	img := image.NewGray16(image.Rect(0, 0, h.Size, h.Size))
	for py := 0; py < h.Size; py++ {
		y := h.Size - 1 - py
		for x := 0; x < h.Size; x++ {
			f := (h.Data[y*h.Size+x] - base) / maxHeight
			v := uint16(max(0, min(65535, math.Round(f*65535))))
			o := img.PixOffset(x, py)
			img.Pix[o] = byte(v >> 8)
			img.Pix[o+1] = byte(v)
		}
	}
	return png.Encode(w, img)
}

// LoadMaskPNG decodes an 8-bit grayscale PNG layer mask. The image
// must be square and match the given terrain size; a mismatch is a
// fatal input error.
func LoadMaskPNG(r io.Reader, size int) (*Mask, error) {
	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("terrain: decoding mask: %w", err)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w != size || h != size {
		return nil, invalidInput("mask is %dx%d, want %dx%d", w, h, size, size)
	}

	m := &Mask{
		Size: size,
		Data: make([]byte, size*size),
	}
	for py := 0; py < h; py++ {
		y := h - 1 - py
		for x := 0; x < w; x++ {
			r16, g16, b16, _ := img.At(x+bounds.Min.X, py+bounds.Min.Y).RGBA()
			// luma in 8 bits; grayscale images have r == g == b
			m.Data[y*w+x] = byte((r16 + g16 + b16) / 3 >> 8)
		}
	}
	return m, nil
}
