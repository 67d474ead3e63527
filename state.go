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

import "fmt"

// State is a stage of the cast state machine
type State int

const (
	StateIdle State = iota
	StateAwaitingInitialAck
	StateTransmittingBlock
	StateAwaitingBlockAck
	StateRefreshing
	StateDone
	StateFailed
)

// String returns the state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingInitialAck:
		return "awaiting initial ack"
	case StateTransmittingBlock:
		return "transmitting block"
	case StateAwaitingBlockAck:
		return "awaiting block ack"
	case StateRefreshing:
		return "refreshing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// IsTerminal reports whether no further transitions can happen
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}
