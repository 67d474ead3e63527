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

// Package frame provides frame construction and protocol constants for the
// nameplate image-cast protocol
package frame

// Frame markers and command bytes
const (
	Header1 = 0xFE // First header byte of every frame
	Header2 = 0xEF // Second header byte of every frame
	Command = 0x57 // Image command family
)

// Sub-commands following the command byte
const (
	SubRequest = 0x01 // Request to write a whole face
	SubData    = 0x02 // Image data package
	SubRefresh = 0x05 // Refresh the panel
)

// Image geometry
const (
	BufferSize = 192000 // 800 * 480 pixels, two pixels per byte
	BlockCount = 6
	BlockSize  = BufferSize / BlockCount // 32000
)

// Frame sizes
const (
	DefaultMTU = 247

	// ATTOverhead is the per-write overhead of the link layer.
	ATTOverhead = 3
	// DataOverhead is header(5) + sequence(2) + ack flag(1) + crc(1).
	DataOverhead = 9

	RequestLength = 9
	RefreshLength = 7

	// MaxFrameLength is bounded by the one-byte length field.
	MaxFrameLength = 0xFF
	// MaxPackages is bounded by the two-byte package count and sequence fields.
	MaxPackages = 0xFFFF
)

// Ack flag values carried in data frames
const (
	AckNotRequired = 0x00
	AckRequired    = 0x01
)

// Acknowledgment notification layout
const (
	AckStatusOffset = 5
	AckBlockDone    = 0x01
)
