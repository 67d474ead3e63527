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
	"fmt"
	"time"

	"github.com/hamastar/go-nameplate/internal/frame"
)

// Side selects the face of the nameplate that receives the image. The
// device defines the values; these are the ones in common use.
type Side byte

const (
	// SideBoth writes the shared image used by both faces.
	SideBoth Side = 0
	// SideA writes face A.
	SideA Side = 1
	// SideB writes face B.
	SideB Side = 2
)

// Progress reports transmission progress after each data frame
type Progress struct {
	Block          int // 1-based block number
	PackageInBlock int // 0-based package index within the block
	Sent           int // data frames written so far
	Total          int // data frames in the whole cast
}

// Config contains configuration options for a Caster
type Config struct {
	// Progress is called after every data frame, if set
	Progress func(Progress)
	// MTU is the negotiated link MTU. Zero asks the transport, falling back
	// to 247.
	MTU int
	// InitialAckTimeout bounds the wait for the device to answer the request
	InitialAckTimeout time.Duration
	// BlockAckTimeout bounds the wait for each block acknowledgment
	BlockAckTimeout time.Duration
	// SettleDelay is the fixed wait after the refresh frame; the panel gives
	// no completion signal
	SettleDelay time.Duration
	// PacketDelay is an optional pause after each data frame
	PacketDelay time.Duration
	// BlockDelay is an optional pause before every block after the first
	BlockDelay time.Duration
	// SyncDelay is the extra pause taken every SyncEvery packages
	SyncDelay time.Duration
	// SyncEvery enables a periodic pause within blocks; zero disables it
	SyncEvery int
}

// DefaultConfig returns default cast configuration
func DefaultConfig() *Config {
	return &Config{
		MTU:               0,
		InitialAckTimeout: 1 * time.Second,
		BlockAckTimeout:   1 * time.Second,
		SettleDelay:       5 * time.Second,
		SyncDelay:         100 * time.Millisecond,
	}
}

// Validate checks the configuration for values the protocol cannot use
func (c *Config) Validate() error {
	if c.MTU != 0 {
		if _, err := frame.NewLayout(c.MTU); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
		}
	}
	if c.InitialAckTimeout <= 0 {
		return fmt.Errorf("%w: initial ack timeout must be positive", ErrInvalidParameter)
	}
	if c.BlockAckTimeout <= 0 {
		return fmt.Errorf("%w: block ack timeout must be positive", ErrInvalidParameter)
	}
	if c.SettleDelay < 0 || c.PacketDelay < 0 || c.BlockDelay < 0 || c.SyncDelay < 0 {
		return fmt.Errorf("%w: delays must not be negative", ErrInvalidParameter)
	}
	if c.SyncEvery < 0 {
		return fmt.Errorf("%w: sync interval must not be negative", ErrInvalidParameter)
	}
	return nil
}

// Clone returns a copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Option is a functional option for configuring a Caster
type Option func(*Config) error

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(c *Config) error {
		if config == nil {
			return ErrInvalidParameter
		}
		*c = *config
		return nil
	}
}

// WithMTU fixes the MTU used to size data frames
func WithMTU(mtu int) Option {
	return func(c *Config) error {
		c.MTU = mtu
		return nil
	}
}

// WithAckTimeouts sets the request and block acknowledgment timeouts
func WithAckTimeouts(initial, block time.Duration) Option {
	return func(c *Config) error {
		c.InitialAckTimeout = initial
		c.BlockAckTimeout = block
		return nil
	}
}

// WithSettleDelay sets the wait after the refresh frame
func WithSettleDelay(d time.Duration) Option {
	return func(c *Config) error {
		c.SettleDelay = d
		return nil
	}
}

// WithPacketDelay sets the pause after each data frame
func WithPacketDelay(d time.Duration) Option {
	return func(c *Config) error {
		c.PacketDelay = d
		return nil
	}
}

// WithBlockDelay sets the pause before each block after the first
func WithBlockDelay(d time.Duration) Option {
	return func(c *Config) error {
		c.BlockDelay = d
		return nil
	}
}

// WithSyncEvery pauses for delay after every n packages of a block
func WithSyncEvery(n int, delay time.Duration) Option {
	return func(c *Config) error {
		c.SyncEvery = n
		c.SyncDelay = delay
		return nil
	}
}

// WithProgress registers a progress callback
func WithProgress(fn func(Progress)) Option {
	return func(c *Config) error {
		c.Progress = fn
		return nil
	}
}
