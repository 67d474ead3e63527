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

import "time"

// writeMode is how a single data frame goes out on the link
type writeMode struct {
	pause        time.Duration // wait after the write completes
	withResponse bool
}

// writeRule overrides the write mode for a run of non-final packages
type writeRule struct {
	side       Side
	block      int // 1-based
	firstIndex int // package index within the block, inclusive
	lastIndex  int // inclusive
	mode       writeMode
}

// writeRules lists every package that deviates from the default
// write-without-response mode. Final packages of a block are always written
// with response and are not listed here.
//
// Face B firmware drops the start of the first block unless the first six
// packages are confirmed one by one.
var writeRules = []writeRule{
	{
		side:       SideB,
		block:      1,
		firstIndex: 0,
		lastIndex:  5,
		mode:       writeMode{withResponse: true, pause: 10 * time.Millisecond},
	},
}

func (r writeRule) matches(side Side, block, index int) bool {
	return r.side == side && r.block == block && index >= r.firstIndex && index <= r.lastIndex
}

// writeModeFor returns the write mode for package index of block on side
func writeModeFor(side Side, block, index int, final bool) writeMode {
	if final {
		return writeMode{withResponse: true}
	}
	for _, r := range writeRules {
		if r.matches(side, block, index) {
			return r.mode
		}
	}
	return writeMode{}
}
