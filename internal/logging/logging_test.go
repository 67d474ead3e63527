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

package logging

import (
	"bytes"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Not parallel: the switch and sink are package state.
func TestDebugOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(log.New(&buf, "", 0))
	defer SetLogger(nil)
	defer SetEnabled(false)

	SetEnabled(false)
	Debugf("test: ", "hidden %d", 1)
	Debugln("test: ", "hidden")
	assert.Empty(t, buf.String())

	SetEnabled(true)
	assert.True(t, Enabled())
	Debugf("test: ", "block %d done", 3)
	Debugln("test: ", "refresh", "sent")
	assert.Equal(t, "[DEBUG] test: block 3 done\n[DEBUG] test: refresh sent\n", buf.String())
}
