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
	"fmt"
)

// BlockingTransport is a link whose writes cannot be interrupted once
// started, such as a GATT write through the operating system's Bluetooth
// stack.
type BlockingTransport interface {
	// WriteFrame sends one frame and blocks until the link accepts it
	WriteFrame(frame []byte, withResponse bool) error

	Subscribe(handler NotificationHandler) error
	Close() error
	IsConnected() bool
	Type() TransportType
}

// blockingAdapter wraps a BlockingTransport to provide context support
type blockingAdapter struct {
	BlockingTransport
}

// Write implements Transport by racing the blocking write against ctx
func (t *blockingAdapter) Write(ctx context.Context, frm []byte, withResponse bool) error {
	// Check if context is already cancelled
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled before write: %w", ctx.Err())
	default:
	}

	result := make(chan error, 1)
	go func() {
		result <- t.WriteFrame(frm, withResponse)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for write: %w", ctx.Err())
	case err := <-result:
		return err
	}
}

// MTU forwards to the wrapped transport when it reports one
func (t *blockingAdapter) MTU() (int, error) {
	if r, ok := t.BlockingTransport.(MTUReporter); ok {
		return r.MTU()
	}
	return 0, fmt.Errorf("%s transport does not report an MTU: %w", t.Type(), ErrInvalidParameter)
}

// Disconnected forwards to the wrapped transport when it can signal drops
func (t *blockingAdapter) Disconnected() <-chan struct{} {
	if dn, ok := t.BlockingTransport.(DisconnectNotifier); ok {
		return dn.Disconnected()
	}
	return nil
}

// AsTransport converts a BlockingTransport to a Transport
func AsTransport(t BlockingTransport) Transport {
	if tr, ok := t.(Transport); ok {
		return tr
	}
	return &blockingAdapter{BlockingTransport: t}
}
