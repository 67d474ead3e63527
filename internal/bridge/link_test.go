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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	nameplate "github.com/hamastar/go-nameplate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLink_Notify(t *testing.T) {
	t.Parallel()

	link := NewLink("test")
	var first, second [][]byte
	require.NoError(t, link.Subscribe(func(p []byte) { first = append(first, p) }))
	require.NoError(t, link.Subscribe(func(p []byte) { second = append(second, p) }))

	link.Dispatch(Message{Kind: KindNotify, Payload: []byte{0x01}})
	assert.Equal(t, [][]byte{{0x01}}, first)
	assert.Empty(t, second)

	require.Error(t, link.Subscribe(nil))
}

func TestLink_Confirm(t *testing.T) {
	t.Parallel()

	link := NewLink("test")
	link.Dispatch(Message{Kind: KindWriteDone})
	require.NoError(t, link.AwaitConfirm(context.Background(), 10*time.Millisecond))

	err := link.AwaitConfirm(context.Background(), 10*time.Millisecond)
	require.ErrorIs(t, err, nameplate.ErrTransportTimeout)
	assert.True(t, nameplate.IsRetryable(err))

	link.Dispatch(Message{Kind: KindWriteDone})
	link.DrainConfirm()
	require.ErrorIs(t, link.AwaitConfirm(context.Background(), 10*time.Millisecond), nameplate.ErrTransportTimeout)
}

func TestLink_Lost(t *testing.T) {
	t.Parallel()

	link := NewLink("test")
	assert.False(t, link.IsLost())

	link.Dispatch(Message{Kind: KindLinkLost})
	link.MarkLost()
	assert.True(t, link.IsLost())

	select {
	case <-link.Lost():
	default:
		t.Fatal("lost channel not closed")
	}

	err := link.AwaitConfirm(context.Background(), time.Second)
	require.ErrorIs(t, err, nameplate.ErrConnectionLost)
}

func TestLink_AwaitConfirmContext(t *testing.T) {
	t.Parallel()

	link := NewLink("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, link.AwaitConfirm(ctx, time.Second), context.Canceled)
}

func TestLink_UnknownKindIgnored(t *testing.T) {
	t.Parallel()

	link := NewLink("test")
	link.Dispatch(Message{Kind: 0x7F})
	assert.False(t, link.IsLost())
}
