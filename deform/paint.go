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

// PaintMaterials produces the per-pixel material index plane from the
// protection artifacts: every owned core pixel takes the material
// index of its owning spline, everything else the default index 0.
// materialIndex maps spline id to the index of its material in the
// stable material-name list.
func PaintMaterials(prot *Protection, materialIndex []uint8) []uint8 {
	out := make([]uint8, prot.Size*prot.Size)
	for i, owner := range prot.Owner {
		if owner >= 0 && int(owner) < len(materialIndex) {
			out[i] = materialIndex[owner]
		}
	}
	return out
}
