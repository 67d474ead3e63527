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

/*
Package nameplate casts images to a six-colour 800x480 e-paper smart nameplate.

An image is packed into a 192,000-byte buffer (two pixels per byte, see package
epd) and sent over a write/notify link in six blocks. The device acknowledges
the transfer request and the last package of every block, then redraws the
selected face when it receives the refresh command.

Features:
  - Multiple transport support: direct BLE, serial bridge dongle, websocket gateway
  - Negotiated MTU sizing of data frames
  - Per-cast state machine with acknowledgment timeouts
  - Link loss detection and retryable error classification
  - Image decoding, scaling and palette packing

Basic Usage:

	import (
	    "github.com/hamastar/go-nameplate"
	    "github.com/hamastar/go-nameplate/epd"
	    "github.com/hamastar/go-nameplate/transport/serial"
	)

	transport, err := serial.New("/dev/ttyACM0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	caster, err := nameplate.New(transport,
	    nameplate.WithAckTimeouts(2*time.Second, 2*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	img, err := epd.Load("badge.png")
	if err != nil {
	    log.Fatal(err)
	}

	report, err := caster.CastImage(ctx, img, nameplate.SideA)
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("sent %d frames\n", report.FramesWritten)

Transport Selection:

  - BLE: talks GATT directly (Linux/BlueZ). Wrap with AsTransport.
  - Serial: a USB dongle that relays the nameplate's UART service.
  - WebSocket: a remote gateway that owns the radio link.

Error Handling:

A failed cast never resumes. The transport is closed unless the caller
cancelled, and a new attempt starts from the request frame:

	if nameplate.IsRetryable(err) {
	    // reconnect and cast again
	}

Thread Safety:

A Caster runs one cast at a time; a concurrent call fails with
ErrSessionActive. Casters on different transports are independent.
*/
package nameplate
