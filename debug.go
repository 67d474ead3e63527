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

import "github.com/hamastar/go-nameplate/internal/logging"

// Logger receives debug output; *log.Logger satisfies it
type Logger = logging.Logger

// SetDebugEnabled turns debug logging on or off for the whole module
func SetDebugEnabled(enabled bool) {
	logging.SetEnabled(enabled)
}

// SetLogger redirects debug logging. Passing nil restores the standard
// library logger.
func SetLogger(l Logger) {
	logging.SetLogger(l)
}

func debugf(format string, args ...any) {
	logging.Debugf("nameplate: ", format, args...)
}

func debugln(args ...any) {
	logging.Debugln("nameplate: ", args...)
}
