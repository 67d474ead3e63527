// go-nameplate
// Copyright (c) 2025 The go-nameplate Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nameplate.
//
// go-nameplate is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nameplate is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nameplate; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package epd

import (
	"fmt"
	"image"
)

// Unpack renders a packed buffer back into a paletted image using Palette.
// Codes the panel does not define are shown as white.
func Unpack(buf []byte) (*image.Paletted, error) {
	if len(buf) != BufferSize {
		return nil, fmt.Errorf("%w: got %d", ErrBufferSize, len(buf))
	}

	img := image.NewPaletted(image.Rect(0, 0, Width, Height), Palette)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			idx, ok := paletteIndexForCode(CodeAt(buf, x, y))
			if !ok {
				idx = White
			}
			img.Pix[y*img.Stride+x] = uint8(idx)
		}
	}
	return img, nil
}
