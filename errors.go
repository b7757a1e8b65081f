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
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by all input validation errors. It is
// the only error class the pipeline surfaces during normal operation;
// everything else is recovered locally and reported via Stats.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes a rejected input in detail.
type InputError struct {
	Detail string
}

func (e *InputError) Error() string {
	return "terrain: invalid input: " + e.Detail
}

// Unwrap makes errors.Is(err, ErrInvalidInput) succeed.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(format string, args ...any) error {
	return &InputError{Detail: fmt.Sprintf(format, args...)}
}
