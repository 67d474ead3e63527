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
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnpack_RoundTrip(t *testing.T) {
	t.Parallel()

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			img.Set(x, y, Palette[(x/7+y/5)%len(Palette)])
		}
	}

	buf, err := Pack(img)
	require.NoError(t, err)

	out, err := Unpack(buf)
	require.NoError(t, err)
	for _, p := range []image.Point{{0, 0}, {1, 0}, {13, 4}, {400, 240}, {799, 479}} {
		assert.Equal(t, img.At(p.X, p.Y), out.At(p.X, p.Y), "pixel %v", p)
	}
}

func TestUnpack_UnknownCode(t *testing.T) {
	t.Parallel()

	buf := make([]byte, BufferSize)
	buf[0] = 0x74 // codes 7 and 4 are not used by the panel

	out, err := Unpack(buf)
	require.NoError(t, err)
	assert.Equal(t, uint8(White), out.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(White), out.ColorIndexAt(1, 0))
	assert.Equal(t, uint8(Black), out.ColorIndexAt(2, 0))
}

func TestUnpack_BufferSize(t *testing.T) {
	t.Parallel()

	_, err := Unpack(make([]byte, 10))
	require.ErrorIs(t, err, ErrBufferSize)
}

func TestDecode_ScalesAndFlattens(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 400, 240))
	for y := 0; y < 240; y++ {
		for x := 0; x < 400; x++ {
			if x < 200 {
				src.Set(x, y, color.NRGBA{255, 0, 0, 255})
			}
			// right half stays fully transparent
		}
	}

	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, src))

	img, err := Decode(&encoded)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())
	assert.Equal(t, Red, Nearest(img.At(100, 240)))
	assert.Equal(t, White, Nearest(img.At(700, 240)))
}

func TestPrepare_KeepsNativeSize(t *testing.T) {
	t.Parallel()

	src := solid(color.RGBA{0, 0, 255, 255})
	out := Prepare(src)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, src.Pix, out.Pix)
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	_, err := Decode(bytes.NewReader([]byte("not an image")))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load("testdata/does-not-exist.png")
	require.Error(t, err)
}
