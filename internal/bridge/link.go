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
	"sync"
	"time"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/internal/logging"
)

// Link tracks the state a bridge transport shares between its read loop and
// its writers: the notification handler, write confirmations and link loss.
type Link struct {
	handler  nameplate.NotificationHandler
	confirm  chan struct{}
	lost     chan struct{}
	port     string
	mu       sync.Mutex
	lostOnce sync.Once
}

// NewLink creates the state for a bridge reached at port
func NewLink(port string) *Link {
	return &Link{
		port:    port,
		confirm: make(chan struct{}, 1),
		lost:    make(chan struct{}),
	}
}

// Subscribe registers handler. Only the first handler is kept.
func (l *Link) Subscribe(handler nameplate.NotificationHandler) error {
	if handler == nil {
		return nameplate.NewTransportError("subscribe", l.port, nameplate.ErrInvalidParameter, nameplate.ErrorTypePermanent)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.handler == nil {
		l.handler = handler
	}
	return nil
}

// Dispatch handles one message from the bridge
func (l *Link) Dispatch(msg Message) {
	switch msg.Kind {
	case KindNotify:
		l.mu.Lock()
		handler := l.handler
		l.mu.Unlock()
		if handler != nil {
			handler(msg.Payload)
		}
	case KindWriteDone:
		select {
		case l.confirm <- struct{}{}:
		default:
		}
	case KindLinkLost:
		logging.Debugf("bridge: ", "%s reports link lost", l.port)
		l.MarkLost()
	default:
		logging.Debugf("bridge: ", "%s sent unknown message kind 0x%02X", l.port, msg.Kind)
	}
}

// MarkLost records that the link is gone. It is safe to call more than once.
func (l *Link) MarkLost() {
	l.lostOnce.Do(func() {
		close(l.lost)
	})
}

// Lost returns a channel closed once the link is gone
func (l *Link) Lost() <-chan struct{} {
	return l.lost
}

// IsLost reports whether the link is gone
func (l *Link) IsLost() bool {
	select {
	case <-l.lost:
		return true
	default:
		return false
	}
}

// DrainConfirm discards a stale write confirmation
func (l *Link) DrainConfirm() {
	select {
	case <-l.confirm:
	default:
	}
}

// AwaitConfirm waits for the bridge to report a confirmed write
func (l *Link) AwaitConfirm(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.confirm:
		return nil
	case <-l.lost:
		return nameplate.NewConnectionLostError("confirm", l.port)
	case <-timer.C:
		return nameplate.NewTimeoutError("confirm", l.port)
	case <-ctx.Done():
		return ctx.Err()
	}
}
