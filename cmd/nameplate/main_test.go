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

package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/hamastar/go-nameplate/epd"
)

func testApp(out *bytes.Buffer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestPackAndPreview(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "red.png")
	packed := filepath.Join(dir, "red.bin")
	preview := filepath.Join(dir, "preview.png")
	writePNG(t, in, epd.Width, epd.Height, color.RGBA{R: 0xF0, A: 0xFF})

	var out bytes.Buffer
	require.NoError(t, testApp(&out).Run([]string{"nameplate", "pack", in, packed}))

	buf, err := os.ReadFile(packed)
	require.NoError(t, err)
	require.Len(t, buf, epd.BufferSize)
	assert.Equal(t, byte(0x33), buf[0])
	assert.Equal(t, byte(0x33), buf[len(buf)-1])

	require.NoError(t, testApp(&out).Run([]string{"nameplate", "preview", packed, preview}))

	f, err := os.Open(preview)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, epd.Width, epd.Height), img.Bounds())
	r, g, b, _ := img.At(400, 240).RGBA()
	assert.Equal(t, [3]uint32{0xFFFF, 0, 0}, [3]uint32{r, g, b})
}

func TestPack_ScalesSmallImage(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "small.png")
	packed := filepath.Join(dir, "small.bin")
	writePNG(t, in, 400, 240, color.White)

	var out bytes.Buffer
	require.NoError(t, testApp(&out).Run([]string{"nameplate", "pack", in, packed}))

	buf, err := os.ReadFile(packed)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0x11}, epd.BufferSize), buf)
}

func TestPack_MissingArgs(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"nameplate", "pack", "only-one"})
	require.Error(t, err)
}

func TestPreview_BadBuffer(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "short.bin")
	require.NoError(t, os.WriteFile(in, make([]byte, 10), 0o600))

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"nameplate", "preview", in, filepath.Join(dir, "out.png")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "192000")
}

func TestOpenTransport_Unknown(t *testing.T) {
	_, err := openTransport(context.Background(), "carrier-pigeon", "coop")
	require.ErrorIs(t, err, errUnknownTransport)

	_, err = openTransport(context.Background(), "serial", "")
	require.Error(t, err)
}

func TestCast_RequiresAddress(t *testing.T) {
	var out bytes.Buffer
	err := testApp(&out).Run([]string{"nameplate", "cast", "image.png"})
	require.Error(t, err)
}

func TestCast_NegativeRetries(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "white.png")
	writePNG(t, in, epd.Width, epd.Height, color.White)

	var out bytes.Buffer
	err := testApp(&out).Run([]string{"nameplate", "--retries", "-1", "cast", "--address", "ws://127.0.0.1:1", in})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "negative")
}

func TestCast_InterruptCutsRetryDelay(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "white.png")
	writePNG(t, in, epd.Width, epd.Height, color.White)

	// Nothing listens on a closed server's address, so every dial fails
	// with a retryable error.
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	time.AfterFunc(100*time.Millisecond, cancel)

	var out bytes.Buffer
	start := time.Now()
	err := testApp(&out).RunContext(ctx, []string{
		"nameplate", "--retries", "5",
		"cast", "--transport", "ws", "--address", addr, in,
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), retryDelay)
	assert.Contains(t, out.String(), "retrying from the start (1/5)")
	assert.Contains(t, err.Error(), context.Canceled.Error())
}
