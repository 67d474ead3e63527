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
	"sync"

	"github.com/hamastar/go-nameplate/internal/frame"
)

// MockWrite is one frame recorded by MockTransport
type MockWrite struct {
	Frame        []byte
	WithResponse bool
}

// MockTransport emulates a nameplate for tests. By default it answers the
// request frame and every block-final data frame with a notification, the
// way the panel does. Notifications are delivered synchronously from Write.
type MockTransport struct {
	handler NotificationHandler
	lost    chan struct{}
	// WriteErr, when set, is returned from every Write
	WriteErr error
	writes   []MockWrite
	// DisconnectAfterBlocks drops the link right after acknowledging that
	// many blocks; zero never disconnects
	DisconnectAfterBlocks int
	blocksAcked           int
	subscribeCalls        int
	mu                    sync.Mutex
	// AckRequest controls whether the request frame is answered
	AckRequest bool
	// AckBlocks controls whether block-final frames are answered
	AckBlocks bool
	connected bool
	closed    bool
}

// NewMockTransport creates a connected mock that acknowledges everything
func NewMockTransport() *MockTransport {
	return &MockTransport{
		lost:       make(chan struct{}),
		AckRequest: true,
		AckBlocks:  true,
		connected:  true,
	}
}

// Request acknowledgment and block acknowledgment notifications as sent by
// the panel
var (
	MockRequestAck = []byte{0xFE, 0xEF, 0x06, 0x57, 0x01, 0x00}
	MockBlockAck   = []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x01}
)

// Write records the frame and answers it like the device would
func (m *MockTransport) Write(ctx context.Context, frm []byte, withResponse bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return NewConnectionLostError("Write", "mock")
	}
	if m.WriteErr != nil {
		err := m.WriteErr
		m.mu.Unlock()
		return err
	}
	m.writes = append(m.writes, MockWrite{Frame: append([]byte(nil), frm...), WithResponse: withResponse})

	var reply []byte
	disconnect := false
	switch frame.SubCommand(frm) {
	case frame.SubRequest:
		if m.AckRequest {
			reply = MockRequestAck
		}
	case frame.SubData:
		if len(frm) > 7 && frm[7] == frame.AckRequired && m.AckBlocks {
			reply = MockBlockAck
			m.blocksAcked++
			disconnect = m.DisconnectAfterBlocks > 0 && m.blocksAcked == m.DisconnectAfterBlocks
		}
	}
	handler := m.handler
	m.mu.Unlock()

	if reply != nil && handler != nil {
		handler(append([]byte(nil), reply...))
	}
	if disconnect {
		m.Disconnect()
	}
	return nil
}

// Subscribe registers the handler; later calls are ignored
func (m *MockTransport) Subscribe(handler NotificationHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeCalls++
	if m.handler == nil {
		m.handler = handler
	}
	return nil
}

// Notify delivers an arbitrary notification to the subscribed handler
func (m *MockTransport) Notify(payload []byte) {
	m.mu.Lock()
	handler := m.handler
	m.mu.Unlock()
	if handler != nil {
		handler(payload)
	}
}

// Disconnect simulates the link dropping
func (m *MockTransport) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		m.connected = false
		close(m.lost)
	}
}

// Reconnect brings a dropped or closed link back
func (m *MockTransport) Reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		m.connected = true
		m.closed = false
		m.lost = make(chan struct{})
		m.blocksAcked = 0
		m.DisconnectAfterBlocks = 0
	}
}

// Close marks the transport as closed and disconnected
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.connected {
		m.connected = false
		close(m.lost)
	}
	return nil
}

// Closed reports whether Close was called since the last Reconnect
func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// IsConnected returns true until Close or Disconnect
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Disconnected returns a channel closed when the link drops
func (m *MockTransport) Disconnected() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lost
}

// Type returns TransportMock
func (*MockTransport) Type() TransportType {
	return TransportMock
}

// Writes returns a copy of every recorded frame
func (m *MockTransport) Writes() []MockWrite {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockWrite(nil), m.writes...)
}

// Reset forgets recorded frames
func (m *MockTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = nil
}

// SubscribeCalls returns how many times Subscribe was called
func (m *MockTransport) SubscribeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribeCalls
}

// FramesBySubCommand counts recorded frames of the given sub-command
func (m *MockTransport) FramesBySubCommand(sub byte) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, w := range m.writes {
		if frame.SubCommand(w.Frame) == sub {
			n++
		}
	}
	return n
}
