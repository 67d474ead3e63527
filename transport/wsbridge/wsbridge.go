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

// Package wsbridge provides a transport to a remote BLE gateway reached over
// a websocket. Each binary message carries one bridge message: a kind byte
// followed by the payload.
package wsbridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/internal/bridge"
	"github.com/hamastar/go-nameplate/internal/logging"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultConfirmTimeout   = 2 * time.Second

	closeGracePeriod = time.Second
)

// Config configures the websocket bridge transport
type Config struct {
	Header           http.Header
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	ConfirmTimeout   time.Duration
}

// Option configures the websocket bridge transport
type Option func(*Config)

// WithHeader adds request headers to the websocket handshake
func WithHeader(header http.Header) Option {
	return func(c *Config) {
		c.Header = header
	}
}

// WithTimeouts sets the handshake, write and confirmation timeouts
func WithTimeouts(handshake, write, confirm time.Duration) Option {
	return func(c *Config) {
		c.HandshakeTimeout = handshake
		c.WriteTimeout = write
		c.ConfirmTimeout = confirm
	}
}

// Transport implements nameplate.Transport over a websocket gateway
type Transport struct {
	conn    *websocket.Conn
	link    *bridge.Link
	done    chan struct{}
	url     string
	config  Config
	writeMu sync.Mutex
	closing atomic.Bool
	once    sync.Once
}

// Dial connects to the gateway at url
func Dial(ctx context.Context, url string, opts ...Option) (*Transport, error) {
	config := Config{
		HandshakeTimeout: DefaultHandshakeTimeout,
		WriteTimeout:     DefaultWriteTimeout,
		ConfirmTimeout:   DefaultConfirmTimeout,
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.WriteTimeout <= 0 || config.ConfirmTimeout <= 0 {
		return nil, nameplate.NewTransportError("dial", url, nameplate.ErrInvalidParameter, nameplate.ErrorTypePermanent)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: config.HandshakeTimeout,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}
	conn, resp, err := dialer.DialContext(ctx, url, config.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		errType := nameplate.ErrorTypeTransient
		if resp != nil {
			// The gateway answered but refused the upgrade.
			errType = nameplate.ErrorTypePermanent
		}
		return nil, nameplate.NewTransportError("dial", url, err, errType)
	}

	t := &Transport{
		conn:   conn,
		url:    url,
		config: config,
		link:   bridge.NewLink(url),
		done:   make(chan struct{}),
	}
	go t.readLoop()
	debugf("connected to %s", url)
	return t, nil
}

func (t *Transport) readLoop() {
	defer close(t.done)
	defer t.link.MarkLost()

	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if !t.closing.Load() && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				debugf("read from %s failed: %v", t.url, err)
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			debugf("ignoring non-binary message from %s", t.url)
			continue
		}
		msg, err := bridge.DecodePacket(data)
		if err != nil {
			debugf("bad message from %s: %v", t.url, err)
			continue
		}
		t.link.Dispatch(msg)
	}
}

// Write sends one frame to the gateway. A confirmed write returns once the
// gateway reports that the nameplate accepted it.
func (t *Transport) Write(ctx context.Context, frm []byte, withResponse bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.IsConnected() {
		return nameplate.NewConnectionLostError("write", t.url)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	deadline := time.Now().Add(t.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return nameplate.NewWriteError("write", t.url, err)
	}

	if withResponse {
		t.link.DrainConfirm()
	}
	msg := bridge.EncodePacket(bridge.WriteKind(withResponse), frm)
	if err := t.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
		return nameplate.NewWriteError("write", t.url, err)
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

// Disconnected returns a channel closed when the gateway loses the link or
// the websocket closes
func (t *Transport) Disconnected() <-chan struct{} {
	return t.link.Lost()
}

// Close sends a close message and tears down the websocket
func (t *Transport) Close() error {
	var err error
	t.once.Do(func() {
		t.closing.Store(true)

		t.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if writeErr := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGracePeriod)); writeErr != nil {
			debugf("failed to send close message: %v", writeErr)
		}
		t.writeMu.Unlock()

		if closeErr := t.conn.Close(); closeErr != nil {
			err = fmt.Errorf("failed to close websocket %s: %w", t.url, closeErr)
		}
		<-t.done
	})
	return err
}

// IsConnected returns true while the websocket is open and the gateway
// holds the link
func (t *Transport) IsConnected() bool {
	return !t.closing.Load() && !t.link.IsLost()
}

// Type returns the transport type
func (*Transport) Type() nameplate.TransportType {
	return nameplate.TransportWebSocket
}

func debugf(format string, args ...any) {
	logging.Debugf("wsbridge: ", format, args...)
}
