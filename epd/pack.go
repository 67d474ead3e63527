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
	"errors"
	"fmt"
	"image"
)

var (
	// ErrMalformedInput is returned when an image is not exactly 800x480.
	ErrMalformedInput = errors.New("epd: image must be 800x480")
	// ErrBufferSize is returned when a packed buffer has the wrong length.
	ErrBufferSize = errors.New("epd: packed buffer must be 192000 bytes")
)

// Pack converts img into a freshly allocated packed buffer of BufferSize
// bytes. img must already be 800x480; resizing is the caller's job (see Load).
func Pack(img image.Image) ([]byte, error) {
	buf := make([]byte, BufferSize)
	if err := PackInto(buf, img); err != nil {
		return nil, err
	}
	return buf, nil
}

// PackInto packs img into dst without clearing it first.
//
// Each byte carries two pixels: even x in bits 6..4, odd x in bits 2..0.
// Only two bits of the target nibble are cleared before the new code is
// OR-ed in, matching the panel vendor's encoder. Green (code 6) needs three
// bits, so when dst holds older content the third bit survives. Pack always
// starts from a zeroed buffer and is unaffected.
func PackInto(dst []byte, img image.Image) error {
	if len(dst) != BufferSize {
		return fmt.Errorf("%w: got %d", ErrBufferSize, len(dst))
	}
	b := img.Bounds()
	if b.Dx() != Width || b.Dy() != Height {
		return fmt.Errorf("%w: got %dx%d", ErrMalformedInput, b.Dx(), b.Dy())
	}

	if rgba, ok := img.(*image.RGBA); ok {
		packRGBA(dst, rgba)
		return nil
	}

	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			idx := nearestRGB(int32(r>>8), int32(g>>8), int32(bl>>8))
			setPixel(dst, x, y, DeviceCodes[idx])
		}
	}
	return nil
}

func packRGBA(dst []byte, img *image.RGBA) {
	for y := 0; y < Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < Width; x++ {
			p := row[x*4 : x*4+3]
			idx := nearestRGB(int32(p[0]), int32(p[1]), int32(p[2]))
			setPixel(dst, x, y, DeviceCodes[idx])
		}
	}
}

// setPixel stores code for pixel (x, y). The clear mask is two bits wide.
func setPixel(dst []byte, x, y int, code byte) {
	pos := (y*Width + x) / 2
	shift := pixelShift(x)
	dst[pos] = (dst[pos] &^ (3 << shift)) | code<<shift
}

func pixelShift(x int) uint {
	if x%2 == 0 {
		return 4
	}
	return 0
}

// CodeAt returns the three-bit code stored for pixel (x, y) of a packed
// buffer.
func CodeAt(buf []byte, x, y int) byte {
	pos := (y*Width + x) / 2
	return (buf[pos] >> pixelShift(x)) & 0x07
}
