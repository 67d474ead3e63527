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

package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrMTUTooSmall is returned when the MTU cannot carry a data header.
	ErrMTUTooSmall = errors.New("mtu too small for data frames")
	// ErrMTUTooLarge is returned when a data frame would overflow the length byte.
	ErrMTUTooLarge = errors.New("mtu too large for one-byte frame length")
	// ErrPayloadTooLarge is returned when a payload does not fit a data frame.
	ErrPayloadTooLarge = errors.New("payload too large for data frame")
	// ErrShortFrame is returned when parsing a truncated frame.
	ErrShortFrame = errors.New("frame too short")
	// ErrNotDataFrame is returned when parsing a frame that is not a data frame.
	ErrNotDataFrame = errors.New("not a data frame")
)

// Layout describes how one image buffer is cut into packages for a given MTU.
type Layout struct {
	MTU              int
	ChunkSize        int // payload bytes in every non-final package
	PackagesPerBlock int
	TotalPackages    int
	LastChunkSize    int // payload bytes in the final package of a block
}

// NewLayout computes the package layout for mtu.
//
// The package count is always BlockSize/ChunkSize + 1, even when the division
// is exact; the device is told that count up front, so an exact division
// produces an empty final package rather than one fewer package.
func NewLayout(mtu int) (Layout, error) {
	chunk := mtu - ATTOverhead - DataOverhead
	if chunk <= 0 {
		return Layout{}, fmt.Errorf("%w: %d", ErrMTUTooSmall, mtu)
	}
	if chunk+DataOverhead > MaxFrameLength {
		return Layout{}, fmt.Errorf("%w: %d", ErrMTUTooLarge, mtu)
	}

	perBlock := BlockSize/chunk + 1
	if perBlock*BlockCount > MaxPackages {
		return Layout{}, fmt.Errorf("%w: %d needs %d packages", ErrMTUTooSmall, mtu, perBlock*BlockCount)
	}
	return Layout{
		MTU:              mtu,
		ChunkSize:        chunk,
		PackagesPerBlock: perBlock,
		TotalPackages:    perBlock * BlockCount,
		LastChunkSize:    BlockSize - (perBlock-1)*chunk,
	}, nil
}

// PayloadSize returns the payload length of package index within a block.
func (l Layout) PayloadSize(index int) int {
	if l.IsFinal(index) {
		return l.LastChunkSize
	}
	return l.ChunkSize
}

// IsFinal reports whether index is the last package of its block.
func (l Layout) IsFinal(index int) bool {
	return index == l.PackagesPerBlock-1
}

// BuildRequest builds the request frame announcing a full-face write.
func BuildRequest(side byte, totalPackages uint16) []byte {
	frm := []byte{
		Header1, Header2, RequestLength, Command, SubRequest,
		side,
		byte(totalPackages),
		byte(totalPackages >> 8),
		0,
	}
	frm[RequestLength-1] = CRC8(frm[:RequestLength-1])
	return frm
}

// BuildRefresh builds the refresh frame for side.
func BuildRefresh(side byte) []byte {
	frm := []byte{Header1, Header2, RefreshLength, Command, SubRefresh, side, 0}
	frm[RefreshLength-1] = CRC8(frm[:RefreshLength-1])
	return frm
}

// BuildData builds one image data frame carrying payload.
func BuildData(seq uint16, ackRequired bool, payload []byte) ([]byte, error) {
	size := len(payload) + DataOverhead
	if size > MaxFrameLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	frm := make([]byte, size)
	frm[0] = Header1
	frm[1] = Header2
	frm[2] = byte(size)
	frm[3] = Command
	frm[4] = SubData
	frm[5] = byte(seq)
	frm[6] = byte(seq >> 8)
	if ackRequired {
		frm[7] = AckRequired
	} else {
		frm[7] = AckNotRequired
	}
	copy(frm[8:], payload)
	frm[size-1] = CRC8(frm[:size-1])
	return frm, nil
}

// Data is a decoded image data frame.
type Data struct {
	Payload     []byte
	Seq         uint16
	AckRequired bool
}

// SubCommand returns the sub-command byte of frm, or 0 if frm is not a
// nameplate image frame.
func SubCommand(frm []byte) byte {
	if len(frm) < 5 || frm[0] != Header1 || frm[1] != Header2 || frm[3] != Command {
		return 0
	}
	return frm[4]
}

// ParseData decodes a data frame built by BuildData.
func ParseData(frm []byte) (Data, error) {
	if len(frm) < DataOverhead {
		return Data{}, ErrShortFrame
	}
	if SubCommand(frm) != SubData {
		return Data{}, ErrNotDataFrame
	}
	if int(frm[2]) != len(frm) {
		return Data{}, fmt.Errorf("%w: length byte %d, frame %d", ErrShortFrame, frm[2], len(frm))
	}
	return Data{
		Seq:         uint16(frm[5]) | uint16(frm[6])<<8,
		AckRequired: frm[7] == AckRequired,
		Payload:     frm[8 : len(frm)-1],
	}, nil
}

// IsBlockAck reports whether a notification acknowledges the final package
// of a block.
func IsBlockAck(notification []byte) bool {
	return len(notification) > AckStatusOffset && notification[AckStatusOffset] == AckBlockDone
}
