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

// Package serial provides a transport through a USB BLE bridge dongle that
// relays the nameplate's UART service over a serial line.
package serial

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	goserial "go.bug.st/serial"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/internal/bridge"
	"github.com/hamastar/go-nameplate/internal/logging"
)

const (
	// DefaultBaudRate is the bridge firmware's line speed.
	DefaultBaudRate = 115200
	// DefaultConfirmTimeout bounds a confirmed write.
	DefaultConfirmTimeout = 2 * time.Second

	readPollInterval = 100 * time.Millisecond
	readBufferSize   = 512
)

// Config configures the serial bridge transport
type Config struct {
	BaudRate       int
	ConfirmTimeout time.Duration
}

// Option configures the serial bridge transport
type Option func(*Config)

// WithBaudRate sets the line speed
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		c.BaudRate = baud
	}
}

// WithConfirmTimeout sets how long a confirmed write may take
func WithConfirmTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.ConfirmTimeout = d
	}
}

// Transport implements nameplate.Transport over a serial BLE bridge
type Transport struct {
	port      io.ReadWriteCloser
	closeErr  error
	link      *bridge.Link
	done      chan struct{}
	portName  string
	config    Config
	writeMu   sync.Mutex
	closeOnce sync.Once
	closing   atomic.Bool
}

// New opens portName and starts relaying bridge messages
func New(portName string, opts ...Option) (*Transport, error) {
	config := Config{
		BaudRate:       DefaultBaudRate,
		ConfirmTimeout: DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.BaudRate <= 0 || config.ConfirmTimeout <= 0 {
		return nil, nameplate.NewTransportError("open", portName, nameplate.ErrInvalidParameter, nameplate.ErrorTypePermanent)
	}

	mode := &goserial.Mode{
		BaudRate: config.BaudRate,
		DataBits: 8,
		Parity:   goserial.NoParity,
		StopBits: goserial.OneStopBit,
	}
	port, err := goserial.Open(portName, mode)
	if err != nil {
		return nil, nameplate.NewTransportError("open", portName, fmt.Errorf("%w: %w", nameplate.ErrDeviceNotFound, err),
			nameplate.ErrorTypePermanent)
	}
	if err := port.SetReadTimeout(readPollInterval); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		debugf("failed to reset input buffer on %s: %v", portName, err)
	}

	return newTransport(port, portName, config), nil
}

func newTransport(port io.ReadWriteCloser, portName string, config Config) *Transport {
	t := &Transport{
		port:     port,
		portName: portName,
		config:   config,
		link:     bridge.NewLink(portName),
		done:     make(chan struct{}),
	}
	go t.readLoop()
	return t
}

func (t *Transport) readLoop() {
	defer close(t.done)

	var decoder bridge.Decoder
	buf := make([]byte, readBufferSize)
	for {
		n, err := t.port.Read(buf)
		if err != nil {
			if !t.closing.Load() {
				debugf("read from %s failed: %v", t.portName, err)
			}
			t.link.MarkLost()
			return
		}
		if n == 0 {
			if t.closing.Load() {
				return
			}
			continue
		}
		for _, msg := range decoder.Feed(buf[:n]) {
			t.link.Dispatch(msg)
		}
	}
}

// Write sends one frame through the bridge. A confirmed write returns once
// the bridge reports that the nameplate accepted it.
func (t *Transport) Write(ctx context.Context, frm []byte, withResponse bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.IsConnected() {
		return nameplate.NewConnectionLostError("write", t.portName)
	}

	msg, err := bridge.EncodeSerial(bridge.WriteKind(withResponse), frm)
	if err != nil {
		return nameplate.NewTransportError("write", t.portName, err, nameplate.ErrorTypePermanent)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if withResponse {
		t.link.DrainConfirm()
	}
	if _, err := t.port.Write(msg); err != nil {
		return nameplate.NewWriteError("write", t.portName, err)
	}
	if !withResponse {
		return nil
	}
	return t.link.AwaitConfirm(ctx, t.config.ConfirmTimeout)
}

// Subscribe registers the notification handler
func (t *Transport) Subscribe(handler nameplate.NotificationHandler) error {
	return t.link.Subscribe(handler)
}

// Disconnected returns a channel closed when the bridge loses the link
func (t *Transport) Disconnected() <-chan struct{} {
	return t.link.Lost()
}

// Close closes the serial port and waits for the reader to stop
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.closing.Store(true)
		t.link.MarkLost()
		if err := t.port.Close(); err != nil {
			t.closeErr = fmt.Errorf("failed to close %s: %w", t.portName, err)
		}
		<-t.done
	})
	return t.closeErr
}

// IsConnected returns true while the port is open and the bridge holds the link
func (t *Transport) IsConnected() bool {
	return !t.closing.Load() && !t.link.IsLost()
}

// Type returns the transport type
func (*Transport) Type() nameplate.TransportType {
	return nameplate.TransportSerial
}

// PortName returns the serial port the transport was opened on
func (t *Transport) PortName() string {
	return t.portName
}

func debugf(format string, args ...any) {
	logging.Debugf("serial: ", format, args...)
}
