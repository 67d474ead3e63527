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

package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeSerial(t *testing.T) {
	t.Parallel()

	msg, err := EncodeSerial(KindWrite, []byte{0xFE, 0xEF, 0x05})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x01, 0x03, 0xFE, 0xEF, 0x05}, msg)

	msg, err = EncodeSerial(KindWriteDone, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xA5, 0x82, 0x00}, msg)

	_, err = EncodeSerial(KindWrite, make([]byte, 256))
	require.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestWriteKind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, KindWrite, WriteKind(false))
	assert.Equal(t, KindWriteConfirmed, WriteKind(true))
}

func TestPacket(t *testing.T) {
	t.Parallel()

	pkt := EncodePacket(KindNotify, []byte{0x01, 0x02})
	assert.Equal(t, []byte{0x80, 0x01, 0x02}, pkt)

	msg, err := DecodePacket(pkt)
	require.NoError(t, err)
	assert.Equal(t, Message{Kind: KindNotify, Payload: []byte{0x01, 0x02}}, msg)

	msg, err = DecodePacket([]byte{KindWriteDone})
	require.NoError(t, err)
	assert.Equal(t, KindWriteDone, msg.Kind)
	assert.Empty(t, msg.Payload)

	_, err = DecodePacket(nil)
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestDecoder_SplitReads(t *testing.T) {
	t.Parallel()

	first, err := EncodeSerial(KindNotify, []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x01})
	require.NoError(t, err)
	second, err := EncodeSerial(KindWriteDone, nil)
	require.NoError(t, err)
	stream := append(append([]byte{}, first...), second...)

	var d Decoder
	var got []Message
	for _, b := range stream {
		got = append(got, d.Feed([]byte{b})...)
	}

	require.Len(t, got, 2)
	assert.Equal(t, KindNotify, got[0].Kind)
	assert.Equal(t, []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x01}, got[0].Payload)
	assert.Equal(t, KindWriteDone, got[1].Kind)
	assert.Equal(t, 0, d.Skipped())
}

func TestDecoder_SkipsNoise(t *testing.T) {
	t.Parallel()

	var d Decoder
	got := d.Feed([]byte{0x00, 0x13, 0xA5, 0x81, 0x00, 0x42})
	require.Len(t, got, 1)
	assert.Equal(t, KindLinkLost, got[0].Kind)
	assert.Equal(t, 3, d.Skipped())

	// A partial header waits for more data.
	assert.Empty(t, d.Feed([]byte{0xA5, 0x80}))
	got = d.Feed([]byte{0x01, 0x07})
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0x07}, got[0].Payload)
}

func TestDecoder_StraySyncDoesNotStall(t *testing.T) {
	t.Parallel()

	ack, err := EncodeSerial(KindNotify, []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x01})
	require.NoError(t, err)

	// 0xA5 0xFF would claim a 255 byte payload if taken as a header.
	var d Decoder
	got := d.Feed(append([]byte{0xA5, 0xFF, 0x10}, ack...))
	require.Len(t, got, 1)
	assert.Equal(t, KindNotify, got[0].Kind)
	assert.Equal(t, []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x01}, got[0].Payload)
	assert.Equal(t, 3, d.Skipped())

	// A stray sync split from its kind byte across reads.
	assert.Empty(t, d.Feed([]byte{0xA5}))
	got = d.Feed(append([]byte{0x7E}, ack...))
	require.Len(t, got, 1)
	assert.Equal(t, KindNotify, got[0].Kind)
	assert.Equal(t, 5, d.Skipped())
}

func TestDecoder_AcceptedKinds(t *testing.T) {
	t.Parallel()

	write, err := EncodeSerial(KindWriteConfirmed, []byte{0x01})
	require.NoError(t, err)
	notify, err := EncodeSerial(KindNotify, []byte{0x02})
	require.NoError(t, err)
	stream := append(append([]byte{}, write...), notify...)

	var inbound Decoder
	got := inbound.Feed(stream)
	require.Len(t, got, 1)
	assert.Equal(t, KindNotify, got[0].Kind)

	outbound := NewDecoder(KindWrite, KindWriteConfirmed)
	got = outbound.Feed(stream)
	require.Len(t, got, 1)
	assert.Equal(t, KindWriteConfirmed, got[0].Kind)
	assert.Equal(t, []byte{0x01}, got[0].Payload)
}

func TestDecoder_ManyInOneRead(t *testing.T) {
	t.Parallel()

	var stream []byte
	for i := 0; i < 10; i++ {
		msg, err := EncodeSerial(KindNotify, []byte{byte(i)})
		require.NoError(t, err)
		stream = append(stream, msg...)
	}

	var d Decoder
	got := d.Feed(stream)
	require.Len(t, got, 10)
	for i, msg := range got {
		assert.Equal(t, []byte{byte(i)}, msg.Payload)
	}
}
