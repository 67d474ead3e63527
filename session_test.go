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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hamastar/go-nameplate/internal/frame"
)

func newTestSession(t *testing.T, transport Transport) *session {
	t.Helper()
	layout, err := frame.NewLayout(frame.DefaultMTU)
	require.NoError(t, err)
	return newSession(transport, DefaultConfig(), layout, testBuffer(), SideA)
}

func TestSession_AckLatchedBeforeWait(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, NewMockTransport())

	// The notification lands before anyone waits for it.
	s.notify(MockBlockAck)
	require.NoError(t, s.awaitAck(context.Background(), 10*time.Millisecond))
}

func TestSession_StaleAckDrained(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, NewMockTransport())
	s.signal()
	s.drainAck()

	err := s.awaitAck(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrAckTimeout)
}

func TestSession_SignalNeverBlocks(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, NewMockTransport())
	for i := 0; i < 5; i++ {
		s.signal()
	}
	require.NoError(t, s.awaitAck(context.Background(), 10*time.Millisecond))
	require.ErrorIs(t, s.awaitAck(context.Background(), 10*time.Millisecond), ErrAckTimeout)
}

func TestSession_NotifyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		payload    []byte
		acceptAny  bool
		wantSignal bool
	}{
		{name: "block ack", payload: MockBlockAck, wantSignal: true},
		{name: "block ack while requesting", payload: MockBlockAck, acceptAny: true, wantSignal: true},
		{name: "status not done", payload: []byte{0xFE, 0xEF, 0x06, 0x57, 0x02, 0x00}},
		{name: "too short", payload: []byte{0x01, 0x01, 0x01, 0x01, 0x01}},
		{name: "empty", payload: nil},
		{name: "any payload while requesting", payload: []byte{0x00}, acceptAny: true, wantSignal: true},
		{name: "request ack", payload: MockRequestAck, acceptAny: true, wantSignal: true},
		{name: "request ack outside request", payload: MockRequestAck},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(t, NewMockTransport())
			s.acceptAnyAck.Store(tt.acceptAny)
			s.notify(tt.payload)

			select {
			case <-s.ack:
				assert.True(t, tt.wantSignal, "unexpected wake-up")
			default:
				assert.False(t, tt.wantSignal, "expected wake-up")
			}
		})
	}
}

func TestSession_AwaitAckConnectionLost(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	s := newTestSession(t, mock)

	go func() {
		time.Sleep(5 * time.Millisecond)
		mock.Disconnect()
	}()

	err := s.awaitAck(context.Background(), time.Second)
	require.ErrorIs(t, err, ErrConnectionLost)
}

// silentTransport hides the mock's disconnect signal.
type silentTransport struct {
	Transport
}

func TestSession_AwaitAckLinkDroppedWithoutNotifier(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	s := newTestSession(t, silentTransport{mock})
	require.Nil(t, s.lost)

	mock.Disconnect()

	err := s.awaitAck(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrConnectionLost)
	assert.NotErrorIs(t, err, ErrAckTimeout)
}

func TestSession_AwaitAckTimeoutWhileConnected(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, silentTransport{NewMockTransport()})

	err := s.awaitAck(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, ErrAckTimeout)
}

func TestSession_AwaitAckContext(t *testing.T) {
	t.Parallel()

	s := newTestSession(t, NewMockTransport())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	err := s.awaitAck(ctx, time.Second)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSession_WriteAfterDisconnect(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	mock.Disconnect()
	s := newTestSession(t, mock)

	err := s.write(context.Background(), frame.BuildRefresh(1), false)
	require.ErrorIs(t, err, ErrConnectionLost)
	assert.Empty(t, mock.Writes())
	assert.Equal(t, 0, s.report.FramesWritten)
}

func TestSession_FailKeepsLinkOnCancel(t *testing.T) {
	t.Parallel()

	mock := NewMockTransport()
	s := newTestSession(t, mock)
	s.setState(StateTransmittingBlock)
	s.block = 2
	s.index = 17

	err := s.fail(context.Canceled)
	var castErr *CastError
	require.ErrorAs(t, err, &castErr)
	assert.Equal(t, StateTransmittingBlock, castErr.Stage)
	assert.Equal(t, 2, castErr.Block)
	assert.Equal(t, 17, castErr.Package)
	assert.Equal(t, StateFailed, s.report.State)
	assert.False(t, mock.Closed())

	_ = s.fail(ErrAckTimeout)
	assert.True(t, mock.Closed())
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), -time.Second))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

func TestState_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "awaiting initial ack", StateAwaitingInitialAck.String())
	assert.Equal(t, "awaiting block ack", StateAwaitingBlockAck.String())
	assert.Equal(t, "State(42)", State(42).String())

	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateRefreshing.IsTerminal())
}
