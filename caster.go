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
	"image"
	"sync"
	"sync/atomic"

	"github.com/hamastar/go-nameplate/epd"
	"github.com/hamastar/go-nameplate/internal/frame"
)

// BufferSize is the length of a packed image buffer
const BufferSize = frame.BufferSize

// Caster pushes packed images to one nameplate over one transport.
//
// Thread Safety: a Caster runs at most one cast at a time. A cast started
// while another is in progress fails with ErrSessionActive instead of
// interleaving frames on the link. Casters bound to different transports
// are fully independent and may run concurrently.
type Caster struct {
	transport  Transport
	config     *Config
	active     atomic.Pointer[session]
	castMu     sync.Mutex
	subMu      sync.Mutex
	subscribed bool
}

// New creates a Caster for the given transport
func New(transport Transport, opts ...Option) (*Caster, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: nil transport", ErrInvalidParameter)
	}

	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cast config: %w", err)
	}

	return &Caster{
		transport: transport,
		config:    config,
	}, nil
}

// Transport returns the underlying transport
func (c *Caster) Transport() Transport {
	return c.transport
}

// Config returns a copy of the cast configuration
func (c *Caster) Config() *Config {
	return c.config.Clone()
}

// Cast sends a packed buffer to side and refreshes the panel
func (c *Caster) Cast(buf []byte, side Side) (*CastReport, error) {
	return c.CastContext(context.Background(), buf, side)
}

// CastImage packs an 800x480 image and casts it
func (c *Caster) CastImage(ctx context.Context, img image.Image, side Side) (*CastReport, error) {
	buf, err := epd.Pack(img)
	if err != nil {
		return &CastReport{State: StateFailed, Side: side}, fmt.Errorf("failed to pack image: %w", err)
	}
	return c.CastContext(ctx, buf, side)
}

// CastContext sends a packed buffer to side and refreshes the panel.
//
// The returned report is never nil and records how far the cast got. ctx
// cancels any wait; there is no overall cast timeout other than ctx.
//
// The device gives no signal for a frame with a bad checksum; it drops the
// frame and the cast then fails on the next acknowledgment timeout at best.
func (c *Caster) CastContext(ctx context.Context, buf []byte, side Side) (*CastReport, error) {
	if len(buf) != BufferSize {
		return &CastReport{State: StateFailed, Side: side},
			fmt.Errorf("%w: got %d", ErrInvalidPayloadSize, len(buf))
	}

	if !c.castMu.TryLock() {
		return &CastReport{State: StateFailed, Side: side}, ErrSessionActive
	}
	defer c.castMu.Unlock()

	layout, err := frame.NewLayout(c.mtu())
	if err != nil {
		return &CastReport{State: StateFailed, Side: side}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	s := newSession(c.transport, c.config, layout, buf, side)
	c.active.Store(s)
	defer c.active.Store(nil)

	if err := c.subscribe(); err != nil {
		s.setState(StateFailed)
		return &s.report, err
	}

	err = s.run(ctx)
	report := s.report
	if err != nil {
		debugf("cast failed after %d packages: %v", report.PackagesSent, err)
		return &report, err
	}
	debugf("cast complete: %d frames in %v", report.FramesWritten, report.Duration)
	return &report, nil
}

// subscribe registers the notification dispatcher once per transport
func (c *Caster) subscribe() error {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	if c.subscribed {
		return nil
	}
	if err := c.transport.Subscribe(c.dispatch); err != nil {
		return fmt.Errorf("failed to subscribe to notifications: %w", err)
	}
	c.subscribed = true
	return nil
}

// dispatch routes a notification to the cast in progress, if any
func (c *Caster) dispatch(payload []byte) {
	s := c.active.Load()
	if s == nil {
		debugf("notification with no cast in progress: % X", payload)
		return
	}
	s.notify(payload)
}

func (c *Caster) mtu() int {
	if c.config.MTU != 0 {
		return c.config.MTU
	}
	if r, ok := c.transport.(MTUReporter); ok {
		mtu, err := r.MTU()
		if err == nil && mtu > 0 {
			if _, layoutErr := frame.NewLayout(mtu); layoutErr == nil {
				return mtu
			}
			debugf("transport MTU %d unusable, using %d", mtu, frame.DefaultMTU)
		}
	}
	return frame.DefaultMTU
}
