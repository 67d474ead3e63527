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
	"context"
	"errors"
	"fmt"
	"strings"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/transport/ble"
	"github.com/hamastar/go-nameplate/transport/serial"
	"github.com/hamastar/go-nameplate/transport/wsbridge"
)

var errUnknownTransport = errors.New("unknown transport")

// openTransport connects to address over the named transport.
func openTransport(ctx context.Context, kind, address string) (nameplate.Transport, error) {
	if address == "" {
		return nil, errors.New("empty device address")
	}

	switch strings.ToLower(kind) {
	case "ble", "":
		t, err := ble.NewContext(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to create BLE transport: %w", err)
		}
		return nameplate.AsTransport(t), nil
	case "serial":
		t, err := serial.New(address)
		if err != nil {
			return nil, fmt.Errorf("failed to create serial transport: %w", err)
		}
		return t, nil
	case "ws", "websocket":
		t, err := wsbridge.Dial(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("failed to create websocket transport: %w", err)
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownTransport, kind)
	}
}
