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

// Package ble provides a direct Bluetooth Low Energy transport to the
// nameplate's UART-style GATT service.
//
// GATT writes go through the operating system's Bluetooth stack and cannot
// be interrupted, so Transport implements nameplate.BlockingTransport. Wrap
// it with nameplate.AsTransport before handing it to a Caster.
package ble

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/internal/logging"
)

// GATT service and characteristics of the nameplate
const (
	ServiceUUID = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	CommandUUID = "6e400002-b5a3-f393-e0a9-e50e24dcca9e"
	NotifyUUID  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// ErrUnsupportedPlatform is returned by New where no BLE backend is built in
var ErrUnsupportedPlatform = errors.New("ble: not supported on this platform")

// Config configures the BLE transport
type Config struct {
	ConnectRetries   int
	RetryDelay       time.Duration
	DiscoveryTimeout time.Duration
}

// Option configures the BLE transport
type Option func(*Config)

// DefaultConfig returns the default connection settings
func DefaultConfig() Config {
	return Config{
		ConnectRetries:   3,
		RetryDelay:       500 * time.Millisecond,
		DiscoveryTimeout: 10 * time.Second,
	}
}

// WithConnectRetries sets how many extra connection attempts are made
func WithConnectRetries(retries int, delay time.Duration) Option {
	return func(c *Config) {
		c.ConnectRetries = retries
		c.RetryDelay = delay
	}
}

// WithDiscoveryTimeout bounds GATT service discovery
func WithDiscoveryTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.DiscoveryTimeout = d
	}
}

// characteristic is the subset of a GATT client characteristic the
// transport uses
type characteristic interface {
	Write(p []byte) (int, error)
	WriteWithoutResponse(p []byte) (int, error)
	EnableNotifications(callback func(buf []byte)) error
	GetMTU() (uint16, error)
}

// Transport is a connected GATT link to one nameplate
type Transport struct {
	command    characteristic
	notify     characteristic
	disconnect func() error
	release    func()
	closeErr   error
	lost       chan struct{}
	address    string
	mu         sync.Mutex
	lostOnce   sync.Once
	closeOnce  sync.Once
	closed     atomic.Bool
	subscribed bool
}

func newTransport(address string, command, notify characteristic, disconnect func() error) *Transport {
	return &Transport{
		address:    address,
		command:    command,
		notify:     notify,
		disconnect: disconnect,
		lost:       make(chan struct{}),
	}
}

// WriteFrame writes one frame to the command characteristic. withResponse
// selects a confirmed GATT write.
func (t *Transport) WriteFrame(frm []byte, withResponse bool) error {
	if !t.IsConnected() {
		return nameplate.NewConnectionLostError("write", t.address)
	}

	var (
		n   int
		err error
	)
	if withResponse {
		n, err = t.command.Write(frm)
	} else {
		n, err = t.command.WriteWithoutResponse(frm)
	}
	if err != nil {
		return nameplate.NewWriteError("write", t.address, err)
	}
	if n != len(frm) {
		return nameplate.NewWriteError("write", t.address, fmt.Errorf("short write: %d of %d bytes", n, len(frm)))
	}
	return nil
}

// Subscribe enables notifications on the notify characteristic. Only the
// first call reaches the device.
func (t *Transport) Subscribe(handler nameplate.NotificationHandler) error {
	if handler == nil {
		return nameplate.NewTransportError("subscribe", t.address, nameplate.ErrInvalidParameter, nameplate.ErrorTypePermanent)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subscribed {
		return nil
	}
	if err := t.notify.EnableNotifications(func(buf []byte) { handler(buf) }); err != nil {
		return nameplate.NewTransportError("subscribe", t.address, err, nameplate.ErrorTypeTransient)
	}
	t.subscribed = true
	return nil
}

// MTU returns the negotiated ATT MTU
func (t *Transport) MTU() (int, error) {
	mtu, err := t.command.GetMTU()
	if err != nil {
		return 0, fmt.Errorf("failed to read MTU from %s: %w", t.address, err)
	}
	return int(mtu), nil
}

// Disconnected returns a channel closed when the link drops
func (t *Transport) Disconnected() <-chan struct{} {
	return t.lost
}

func (t *Transport) markLost() {
	t.lostOnce.Do(func() {
		debugf("%s disconnected", t.address)
		close(t.lost)
	})
}

// Close disconnects from the nameplate
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closed.Store(true)
		t.markLost()
		if t.release != nil {
			t.release()
		}
		if t.disconnect != nil {
			if err := t.disconnect(); err != nil {
				t.closeErr = fmt.Errorf("failed to disconnect %s: %w", t.address, err)
			}
		}
	})
	return t.closeErr
}

// IsConnected returns true until Close or a link drop
func (t *Transport) IsConnected() bool {
	if t.closed.Load() {
		return false
	}
	select {
	case <-t.lost:
		return false
	default:
		return true
	}
}

// Type returns the transport type
func (*Transport) Type() nameplate.TransportType {
	return nameplate.TransportBLE
}

// Address returns the device address the transport is connected to
func (t *Transport) Address() string {
	return t.address
}

func debugf(format string, args ...any) {
	logging.Debugf("ble: ", format, args...)
}
