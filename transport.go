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

package nameplate

import (
	"context"
)

// NotificationHandler receives raw notification payloads from the device.
// The payload may be reused by the transport after the handler returns.
type NotificationHandler func(payload []byte)

// Transport defines the link to one nameplate: a command channel that takes
// framed writes and a notification channel that delivers acknowledgments.
// This can be implemented by BLE, serial bridge or websocket bridge backends.
type Transport interface {
	// Write sends one frame and returns once the link has accepted it.
	// withResponse selects a confirmed link-layer write; it does not wait
	// for a protocol acknowledgment.
	Write(ctx context.Context, frame []byte, withResponse bool) error

	// Subscribe registers the notification handler. Subscribing again is a
	// no-op and must not return an error.
	Subscribe(handler NotificationHandler) error

	// Close closes the transport connection
	Close() error

	// IsConnected returns true if the transport is connected
	IsConnected() bool

	// Type returns the transport type
	Type() TransportType
}

// TransportType represents the type of transport
type TransportType string

const (
	// TransportBLE represents a direct Bluetooth Low Energy link.
	TransportBLE TransportType = "ble"
	// TransportSerial represents a BLE bridge dongle on a serial port.
	TransportSerial TransportType = "serial"
	// TransportWebSocket represents a remote BLE gateway reached over a websocket.
	TransportWebSocket TransportType = "websocket"
	// TransportMock represents a mock transport for testing
	TransportMock TransportType = "mock"
)

// MTUReporter is implemented by transports that know the negotiated MTU
type MTUReporter interface {
	MTU() (int, error)
}

// DisconnectNotifier is implemented by transports that can signal a dropped
// link. The channel is closed when the link goes down.
type DisconnectNotifier interface {
	Disconnected() <-chan struct{}
}

func disconnectedChan(t Transport) <-chan struct{} {
	if dn, ok := t.(DisconnectNotifier); ok {
		return dn.Disconnected()
	}
	return nil
}
