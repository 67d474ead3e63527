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

// Package bridge implements the message format spoken by BLE bridges: a
// serial dongle or a websocket gateway that owns the radio link to the
// nameplate and relays writes and notifications.
package bridge

import (
	"errors"
	"fmt"
)

// Serial framing: Sync, kind, length, payload.
const (
	Sync         byte = 0xA5
	HeaderLength      = 3
	MaxPayload        = 0xFF
)

// Message kinds. Host to bridge kinds have the high bit clear.
const (
	KindWrite          byte = 0x01 // write without response
	KindWriteConfirmed byte = 0x02 // write with response
	KindNotify         byte = 0x80 // notification from the nameplate
	KindLinkLost       byte = 0x81 // bridge lost the radio link
	KindWriteDone      byte = 0x82 // confirmed write completed
)

var (
	// ErrPayloadTooLarge is returned when a payload does not fit one message.
	ErrPayloadTooLarge = errors.New("bridge: payload too large")
	// ErrEmptyMessage is returned when a websocket message carries no kind byte.
	ErrEmptyMessage = errors.New("bridge: empty message")
)

// Message is one decoded bridge message
type Message struct {
	Payload []byte
	Kind    byte
}

// WriteKind returns the message kind for a frame write
func WriteKind(withResponse bool) byte {
	if withResponse {
		return KindWriteConfirmed
	}
	return KindWrite
}

// EncodeSerial frames a message for a serial line
func EncodeSerial(kind byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	out := make([]byte, 0, HeaderLength+len(payload))
	out = append(out, Sync, kind, byte(len(payload)))
	return append(out, payload...), nil
}

// EncodePacket builds a message for a packet transport such as a websocket,
// where the transport already delimits messages.
func EncodePacket(kind byte, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, kind)
	return append(out, payload...)
}

// DecodePacket splits a packet message into kind and payload
func DecodePacket(data []byte) (Message, error) {
	if len(data) == 0 {
		return Message{}, ErrEmptyMessage
	}
	return Message{Kind: data[0], Payload: append([]byte(nil), data[1:]...)}, nil
}

// Decoder reassembles serial messages from arbitrary read boundaries.
// Bytes before a sync byte are skipped, and so is a sync byte followed by a
// kind the decoder does not expect, which keeps a stray 0xA5 from holding
// back real messages behind a bogus length. The zero value expects the
// bridge to host kinds.
type Decoder struct {
	kinds   []byte
	buf     []byte
	skipped int
}

// inboundKinds are the kinds a bridge sends to the host
var inboundKinds = []byte{KindNotify, KindLinkLost, KindWriteDone}

// NewDecoder returns a decoder that accepts only the given kinds
func NewDecoder(kinds ...byte) *Decoder {
	return &Decoder{kinds: append([]byte(nil), kinds...)}
}

func (d *Decoder) accepts(kind byte) bool {
	kinds := d.kinds
	if len(kinds) == 0 {
		kinds = inboundKinds
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Feed appends data and returns every complete message now available
func (d *Decoder) Feed(data []byte) []Message {
	d.buf = append(d.buf, data...)

	var out []Message
	for {
		start := 0
		for start < len(d.buf) && d.buf[start] != Sync {
			start++
		}
		d.skipped += start
		d.buf = d.buf[start:]

		if len(d.buf) >= 2 && !d.accepts(d.buf[1]) {
			// Not a message start; resync from the next byte.
			d.skipped++
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < HeaderLength {
			break
		}
		end := HeaderLength + int(d.buf[2])
		if len(d.buf) < end {
			break
		}
		out = append(out, Message{
			Kind:    d.buf[1],
			Payload: append([]byte(nil), d.buf[HeaderLength:end]...),
		})
		d.buf = d.buf[end:]
	}

	// Keep only the unfinished tail so the backing array does not grow.
	d.buf = append([]byte(nil), d.buf...)
	return out
}

// Skipped returns how many bytes were discarded while looking for sync
func (d *Decoder) Skipped() int {
	return d.skipped
}
