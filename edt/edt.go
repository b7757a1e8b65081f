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

// Package edt computes the exact Euclidean distance transform of
// binary images using the two-pass linear-time algorithm of
// Felzenszwalb and Huttenlocher.
package edt

import (
	"errors"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidShape is returned when the image width or height is < 1.
var ErrInvalidShape = errors.New("edt: image width and height must be >= 1")

// minParallelPixels is the image size below which the transform runs
// single-threaded.
const minParallelPixels = 1 << 16

// TransformSquared returns the squared Euclidean distance, in pixels,
// from every cell to the nearest foreground cell (mask value non-zero).
// Cells of an image with no foreground are +Inf.
func TransformSquared(mask []byte, w, h int) ([]float64, error) {
	if w < 1 || h < 1 {
		return nil, ErrInvalidShape
	}

	f := make([]float64, w*h)
	for i, v := range mask {
		if v != 0 {
			f[i] = 0
		} else {
			f[i] = math.Inf(1)
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if w*h < minParallelPixels {
		workers = 1
	}

	// Row pass: 1D transform along x for every row.
	parallelStrips(h, workers, func(lo, hi int) {
		s := newScratch(max(w, h))
		for y := lo; y < hi; y++ {
			row := f[y*w : (y+1)*w]
			copy(s.f, row)
			dt1d(s.f[:w], row, s.v, s.z)
		}
	})

	// Column pass: 1D transform along y on the row-pass result.
	parallelStrips(w, workers, func(lo, hi int) {
		s := newScratch(max(w, h))
		col := make([]float64, h)
		for x := lo; x < hi; x++ {
			for y := 0; y < h; y++ {
				s.f[y] = f[y*w+x]
			}
			dt1d(s.f[:h], col, s.v, s.z)
			for y := 0; y < h; y++ {
				f[y*w+x] = col[y]
			}
		}
	})

	return f, nil
}

// Transform returns the Euclidean distance in meters from every cell
// to the nearest foreground cell, for a grid with mpp meters per
// pixel.
func Transform(mask []byte, w, h int, mpp float64) ([]float64, error) {
	d, err := TransformSquared(mask, w, h)
	if err != nil {
		return nil, err
	}
	for i, v := range d {
		d[i] = math.Sqrt(v) * mpp
	}
	return d, nil
}

// scratch holds the per-worker buffers of the 1D transform, sized once
// to max(W, H) so that no allocation happens per row.
type scratch struct {
	f []float64
	v []int
	z []float64
}

func newScratch(n int) *scratch {
	return &scratch{
		f: make([]float64, n),
		v: make([]int, n),
		z: make([]float64, n+1),
	}
}

// dt1d computes the 1D squared distance transform of f into out using
// the lower envelope of parabolas. Cells with f = +Inf contribute no
// parabola. v and z are caller-provided scratch of length >= len(f)
// and len(f)+1.
func dt1d(f, out []float64, v []int, z []float64) {
	n := len(f)
	k := -1 // index of the rightmost parabola in the envelope

	for q := 0; q < n; q++ {
		if math.IsInf(f[q], 1) {
			continue
		}
		fq := f[q] + float64(q*q)
		var s float64
		for k >= 0 {
			p := v[k]
			s = (fq - (f[p] + float64(p*p))) / float64(2*q-2*p)
			if s > z[k] {
				break
			}
			k--
		}
		if k < 0 {
			k = 0
			v[0] = q
			z[0] = math.Inf(-1)
		} else {
			k++
			v[k] = q
			z[k] = s
		}
		z[k+1] = math.Inf(1)
	}

	if k < 0 {
		// no foreground in this line
		for q := range out[:n] {
			out[q] = math.Inf(1)
		}
		return
	}

	k = 0
	for q := 0; q < n; q++ {
		for z[k+1] < float64(q) {
			k++
		}
		p := v[k]
		d := float64(q - p)
		out[q] = d*d + f[p]
	}
}

// parallelStrips runs fn over [0,n) split into contiguous strips, one
// goroutine per worker. With a single worker fn runs inline.
func parallelStrips(n, workers int, fn func(lo, hi int)) {
	if workers <= 1 || n < workers {
		fn(0, n)
		return
	}
	var g errgroup.Group
	per := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += per {
		hi := min(lo+per, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	g.Wait()
}
