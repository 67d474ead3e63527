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

// Package transport provides internal transport utilities
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	nameplate "github.com/hamastar/go-nameplate"
)

// ErrRetriesExhausted is wrapped by the error returned when the retry budget
// runs out while attempts still fail
var ErrRetriesExhausted = errors.New("retries exhausted")

// Attempt is one try at an operation. A nil error ends the loop.
type Attempt[T any] func(ctx context.Context) (T, error)

// Policy bounds how a failing attempt is repeated
type Policy struct {
	// Retryable decides whether an attempt error is worth repeating.
	// Nil means nameplate.IsRetryable.
	Retryable func(error) bool
	// OnRetry is told about each failed attempt before it is repeated.
	OnRetry     func(attempt int, err error)
	Description string
	// MaxRetries caps the repeats after the first attempt. Negative leaves
	// the cap to Timeout or the context.
	MaxRetries int
	Delay      time.Duration
	// Timeout bounds the whole loop, attempts included. Zero means none.
	Timeout time.Duration
}

// Do runs attempt until it succeeds, fails with an error the policy does not
// retry, or the policy runs out. Cancelling ctx cuts the delay between
// attempts short. An exhausted loop returns the last attempt error wrapped
// with ErrRetriesExhausted.
func Do[T any](ctx context.Context, policy Policy, attempt Attempt[T]) (T, error) {
	var zero T

	retryable := policy.Retryable
	if retryable == nil {
		retryable = nameplate.IsRetryable
	}

	loopCtx := ctx
	if policy.Timeout > 0 {
		var cancel context.CancelFunc
		loopCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
		defer cancel()
	}

	for n := 1; ; n++ {
		result, err := attempt(loopCtx)
		if err == nil {
			return result, nil
		}

		switch {
		case ctx.Err() != nil:
			return zero, interrupted(ctx.Err(), n, err)
		case loopCtx.Err() != nil:
			return zero, policy.exhausted(n, err, true)
		case !retryable(err):
			return zero, err
		case policy.MaxRetries >= 0 && n > policy.MaxRetries:
			return zero, policy.exhausted(n, err, false)
		}

		if policy.OnRetry != nil {
			policy.OnRetry(n, err)
		}

		if sleepErr := sleepContext(loopCtx, policy.Delay); sleepErr != nil {
			if ctx.Err() != nil {
				return zero, interrupted(ctx.Err(), n, err)
			}
			return zero, policy.exhausted(n, err, true)
		}
	}
}

func (p Policy) exhausted(attempts int, last error, timedOut bool) error {
	cause := fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, last)
	if timedOut {
		return nameplate.NewTransportError("retry", p.Description,
			fmt.Errorf("%w within %v: %w", nameplate.ErrTransportTimeout, p.Timeout, cause), nameplate.ErrorTypeTimeout)
	}
	return nameplate.NewTransportError("retry", p.Description, cause, nameplate.ErrorTypeTransient)
}

func interrupted(ctxErr error, attempts int, last error) error {
	if errors.Is(last, ctxErr) {
		return last
	}
	return fmt.Errorf("%w after %d attempts: %w", ctxErr, attempts, last)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
