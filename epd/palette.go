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

// Package epd converts images into the packed pixel buffer understood by the
// six-colour 800x480 e-paper nameplate.
package epd

import (
	"image/color"
)

// Panel geometry
const (
	Width      = 800
	Height     = 480
	BufferSize = Width * Height / 2
)

// Palette ordinals
const (
	Black = iota
	White
	Green
	Blue
	Red
	Yellow
)

// Palette holds the reference colours in palette order. Nearest-colour
// matching walks this slice front to back.
var Palette = color.Palette{
	color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xFF},
	color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	color.RGBA{R: 0x00, G: 0xFF, B: 0x00, A: 0xFF},
	color.RGBA{R: 0x00, G: 0x00, B: 0xFF, A: 0xFF},
	color.RGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF},
	color.RGBA{R: 0xFF, G: 0xFF, B: 0x00, A: 0xFF},
}

// DeviceCodes maps a palette ordinal to the colour code the panel expects.
// The codes do not follow the palette order.
var DeviceCodes = [len(rgbPalette)]byte{
	Black:  0,
	White:  1,
	Green:  6,
	Blue:   5,
	Red:    3,
	Yellow: 2,
}

// rgbPalette mirrors Palette as plain 8-bit triples for the packing loop.
var rgbPalette = [...][3]int32{
	{0x00, 0x00, 0x00},
	{0xFF, 0xFF, 0xFF},
	{0x00, 0xFF, 0x00},
	{0x00, 0x00, 0xFF},
	{0xFF, 0x00, 0x00},
	{0xFF, 0xFF, 0x00},
}

// Nearest returns the palette ordinal closest to c in RGB space. Ties keep
// the lower ordinal.
func Nearest(c color.Color) int {
	r, g, b, _ := c.RGBA()
	return nearestRGB(int32(r>>8), int32(g>>8), int32(b>>8))
}

// DeviceCode returns the panel colour code for c.
func DeviceCode(c color.Color) byte {
	return DeviceCodes[Nearest(c)]
}

func nearestRGB(r, g, b int32) int {
	best := 0
	bestDist := distance(r, g, b, rgbPalette[0])
	for i := 1; i < len(rgbPalette); i++ {
		if d := distance(r, g, b, rgbPalette[i]); d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// distance is the squared Euclidean distance; it orders the same as the
// true distance without the square root.
func distance(r, g, b int32, p [3]int32) int32 {
	dr := r - p[0]
	dg := g - p[1]
	db := b - p[2]
	return dr*dr + dg*dg + db*db
}

// paletteIndexForCode maps a device code back to a palette ordinal.
func paletteIndexForCode(code byte) (int, bool) {
	for i, c := range DeviceCodes {
		if c == code {
			return i, true
		}
	}
	return 0, false
}
