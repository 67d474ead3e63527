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
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hamastar/go-nameplate/internal/frame"
)

// CastReport summarises one cast attempt
type CastReport struct {
	State         State
	Side          Side
	MTU           int
	BlocksSent    int // blocks acknowledged by the device
	PackagesSent  int // data frames written
	FramesWritten int // every frame written, including request and refresh
	Duration      time.Duration
}

// session is the state of one cast. It is created for a single call and
// never shared.
type session struct {
	transport    Transport
	config       *Config
	lost         <-chan struct{}
	ack          chan struct{}
	buf          []byte
	layout       frame.Layout
	report       CastReport
	started      time.Time
	block        int
	index        int
	seq          int
	offset       int
	acceptAnyAck atomic.Bool
}

func newSession(t Transport, config *Config, layout frame.Layout, buf []byte, side Side) *session {
	return &session{
		transport: t,
		config:    config,
		lost:      disconnectedChan(t),
		ack:       make(chan struct{}, 1),
		buf:       buf,
		layout:    layout,
		report: CastReport{
			State: StateIdle,
			Side:  side,
			MTU:   layout.MTU,
		},
	}
}

// notify handles a device notification. The device raises its
// acknowledgment for an instant only, so the wake-up is latched in a
// one-slot channel for the waiter instead of being polled.
func (s *session) notify(payload []byte) {
	switch {
	case frame.IsBlockAck(payload):
		debugf("block acknowledgment: % X", payload)
		s.signal()
	case s.acceptAnyAck.Load():
		debugf("request acknowledgment: % X", payload)
		s.signal()
	default:
		debugf("ignored notification: % X", payload)
	}
}

func (s *session) signal() {
	select {
	case s.ack <- struct{}{}:
	default:
	}
}

// drainAck discards a wake-up left over from an earlier stage
func (s *session) drainAck() {
	select {
	case <-s.ack:
	default:
	}
}

func (s *session) setState(state State) {
	debugf("%s -> %s", s.report.State, state)
	s.report.State = state
}

func (s *session) run(ctx context.Context) (err error) {
	s.started = time.Now()
	defer func() {
		s.report.Duration = time.Since(s.started)
		if err != nil {
			err = s.fail(err)
		}
	}()

	if err := s.request(ctx); err != nil {
		return err
	}

	for block := 1; block <= frame.BlockCount; block++ {
		if block > 1 {
			if err := sleepContext(ctx, s.config.BlockDelay); err != nil {
				return err
			}
		}
		if err := s.sendBlock(ctx, block); err != nil {
			return err
		}
	}

	return s.refresh(ctx)
}

// request announces the transfer and waits for the device to answer
func (s *session) request(ctx context.Context) error {
	s.setState(StateAwaitingInitialAck)
	total := s.layout.TotalPackages
	debugf("requesting transfer: side=%d packages=%d perBlock=%d", s.report.Side, total, s.layout.PackagesPerBlock)

	s.drainAck()
	s.acceptAnyAck.Store(true)
	defer s.acceptAnyAck.Store(false)

	if err := s.write(ctx, frame.BuildRequest(byte(s.report.Side), uint16(total)), false); err != nil {
		return err
	}
	return s.awaitAck(ctx, s.config.InitialAckTimeout)
}

func (s *session) sendBlock(ctx context.Context, block int) error {
	s.block = block
	s.setState(StateTransmittingBlock)

	for s.index = 0; s.index < s.layout.PackagesPerBlock; s.index++ {
		final := s.layout.IsFinal(s.index)
		size := s.layout.PayloadSize(s.index)

		frm, err := frame.BuildData(uint16(s.seq), final, s.buf[s.offset:s.offset+size])
		if err != nil {
			return err
		}

		mode := writeModeFor(s.report.Side, block, s.index, final)
		if final {
			s.drainAck()
		}
		if err := s.write(ctx, frm, mode.withResponse); err != nil {
			return err
		}
		s.offset += size
		s.seq++
		s.report.PackagesSent++
		s.progress()

		if final {
			s.setState(StateAwaitingBlockAck)
			if err := s.awaitAck(ctx, s.config.BlockAckTimeout); err != nil {
				return err
			}
			s.report.BlocksSent++
			debugf("block %d/%d uploaded", block, frame.BlockCount)
			return nil
		}

		if err := sleepContext(ctx, mode.pause+s.config.PacketDelay); err != nil {
			return err
		}
		if s.config.SyncEvery > 0 && (s.index+1)%s.config.SyncEvery == 0 {
			if err := sleepContext(ctx, s.config.SyncDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

// refresh tells the panel to redraw, then waits out the physical refresh
func (s *session) refresh(ctx context.Context) error {
	s.setState(StateRefreshing)
	if err := s.write(ctx, frame.BuildRefresh(byte(s.report.Side)), false); err != nil {
		return err
	}
	debugln("refresh sent, settling for", s.config.SettleDelay)
	if err := sleepContext(ctx, s.config.SettleDelay); err != nil {
		return err
	}
	s.setState(StateDone)
	return nil
}

// write sends one frame. Writes are strictly sequential: the next frame is
// built only after the transport returns from this one.
func (s *session) write(ctx context.Context, frm []byte, withResponse bool) error {
	if !s.transport.IsConnected() {
		return ErrConnectionLost
	}
	if err := s.transport.Write(ctx, frm, withResponse); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.transport.IsConnected() && !errors.Is(err, ErrConnectionLost) {
			return fmt.Errorf("%w: %w", ErrConnectionLost, err)
		}
		return err
	}
	s.report.FramesWritten++
	return nil
}

func (s *session) awaitAck(ctx context.Context, timeout time.Duration) error {
	// An acknowledgment that already arrived wins over a link drop that
	// followed it.
	select {
	case <-s.ack:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.ack:
		return nil
	case <-timer.C:
		// Transports without a disconnect signal are only caught here.
		if !s.transport.IsConnected() {
			return ErrConnectionLost
		}
		return fmt.Errorf("%w after %v", ErrAckTimeout, timeout)
	case <-s.lost:
		return ErrConnectionLost
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) progress() {
	if s.config.Progress == nil {
		return
	}
	s.config.Progress(Progress{
		Block:          s.block,
		PackageInBlock: s.index,
		Sent:           s.report.PackagesSent,
		Total:          s.layout.TotalPackages,
	})
}

// fail closes the link unless the caller cancelled, and wraps err with the
// stage it happened in. Nothing is kept for a later attempt.
func (s *session) fail(err error) error {
	stage := s.report.State
	s.setState(StateFailed)

	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		debugf("closing transport after failure: %v", err)
		if closeErr := s.transport.Close(); closeErr != nil {
			debugf("failed to close transport: %v", closeErr)
		}
	}

	return &CastError{
		Stage:   stage,
		Block:   s.block,
		Package: s.index,
		Err:     err,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
