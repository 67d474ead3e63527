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

// Package logging holds the shared debug output switch used by every package
// of the module
package logging

import (
	"log"
	"strings"
	"sync"
	"sync/atomic"
)

// Logger is the output sink for debug messages. *log.Logger satisfies it, and
// adapters for structured loggers only need these two methods.
type Logger interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

var (
	enabled atomic.Bool
	mu      sync.RWMutex
	sink    Logger = log.Default()
)

// SetEnabled turns debug output on or off
func SetEnabled(on bool) {
	enabled.Store(on)
}

// Enabled reports whether debug output is on
func Enabled() bool {
	return enabled.Load()
}

// SetLogger replaces the output sink. A nil logger restores the standard
// library default logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = log.Default()
	}
	sink = l
}

func current() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return sink
}

// Debugf prints a formatted debug message when debugging is enabled
func Debugf(prefix, format string, v ...any) {
	if !enabled.Load() {
		return
	}
	current().Printf("[DEBUG] "+prefix+format, v...)
}

// Debugln prints a debug message when debugging is enabled
func Debugln(prefix string, v ...any) {
	if !enabled.Load() {
		return
	}
	current().Println(append([]any{"[DEBUG] " + strings.TrimSuffix(prefix, " ")}, v...)...)
}
