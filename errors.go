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
	"errors"
	"fmt"

	"github.com/hamastar/go-nameplate/epd"
)

// Cast errors
var (
	// ErrInvalidPayloadSize is returned when the packed buffer is not exactly
	// 192000 bytes. Nothing is sent.
	ErrInvalidPayloadSize = errors.New("packed buffer must be 192000 bytes")
	// ErrConnectionLost is returned when the link drops during a cast.
	ErrConnectionLost = errors.New("connection lost")
	// ErrAckTimeout is returned when the device does not acknowledge the
	// request or a block in time. The transport is closed.
	ErrAckTimeout = errors.New("acknowledgment timeout")
	// ErrMalformedInput is returned when an image is not 800x480.
	ErrMalformedInput = epd.ErrMalformedInput
	// ErrSessionActive is returned when a cast is already running on the
	// same transport.
	ErrSessionActive = errors.New("cast already in progress on this transport")
)

// Transport errors
var (
	ErrTransportClosed  = errors.New("transport closed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrDeviceNotFound   = errors.New("device not found")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// ErrorType classifies transport failures
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by trying again
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a fresh attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by a deadline
	ErrorTypeTimeout
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("ErrorType(%d)", int(t))
	}
}

// TransportError describes a failure of the underlying link
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a TransportError; transient and timeout errors
// are marked retryable
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewConnectionLostError reports a dropped link
func NewConnectionLostError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrConnectionLost, ErrorTypeTransient)
}

// NewWriteError reports a failed frame write
func NewWriteError(op, port string, err error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportWrite, err), ErrorTypeTransient)
}

// NewTimeoutError reports an expired transport deadline
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, ErrorTypeTimeout)
}

// CastError records where a cast stopped
type CastError struct {
	Err     error
	Stage   State
	Block   int
	Package int
}

func (e *CastError) Error() string {
	switch e.Stage {
	case StateTransmittingBlock, StateAwaitingBlockAck:
		return fmt.Sprintf("cast failed in %s (block %d, package %d): %v", e.Stage, e.Block, e.Package, e.Err)
	default:
		return fmt.Sprintf("cast failed in %s: %v", e.Stage, e.Err)
	}
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether a fresh cast attempt may succeed. Casts never
// resume, so a retry always starts from block 1.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	return errors.Is(err, ErrAckTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrTransportTimeout) ||
		errors.Is(err, ErrTransportWrite)
}

// IsFatal reports whether err is caused by the input or the setup, so that
// no further attempt can succeed without changing them
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type == ErrorTypePermanent
	}

	return errors.Is(err, ErrInvalidPayloadSize) ||
		errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrDeviceNotFound)
}

// GetErrorType classifies err
func GetErrorType(err error) ErrorType {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrAckTimeout), errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrConnectionLost), errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
