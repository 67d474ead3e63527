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

// Command nameplate packs images for the six-colour e-paper nameplate and
// casts them over BLE, a serial bridge dongle or a websocket gateway.
package main

import (
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = "nameplate"
	app.Usage = "e-paper nameplate image caster"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "debug",
			EnvVars: []string{"NAMEPLATE_DEBUG"},
			Usage:   "enable debug output",
		},
		&cli.IntFlag{
			Name:    "mtu",
			EnvVars: []string{"NAMEPLATE_MTU"},
			Usage:   "link MTU used to size data frames (0 asks the transport)",
		},
		&cli.DurationFlag{
			Name:    "ack-timeout",
			EnvVars: []string{"NAMEPLATE_ACK_TIMEOUT"},
			Value:   time.Second,
			Usage:   "how long to wait for each acknowledgment",
		},
		&cli.DurationFlag{
			Name:    "settle",
			EnvVars: []string{"NAMEPLATE_SETTLE"},
			Value:   5 * time.Second,
			Usage:   "wait after the refresh command",
		},
		&cli.DurationFlag{
			Name:    "packet-delay",
			EnvVars: []string{"NAMEPLATE_PACKET_DELAY"},
			Usage:   "pause after each data frame",
		},
		&cli.IntFlag{
			Name:    "retries",
			EnvVars: []string{"NAMEPLATE_RETRIES"},
			Value:   2,
			Usage:   "extra cast attempts after a retryable failure",
		},
	}

	app.Before = func(c *cli.Context) error {
		if c.Bool("debug") {
			setDebug(true)
		}
		return nil
	}

	app.Commands = []*cli.Command{
		castCommand(),
		packCommand(),
		previewCommand(),
		portsCommand(),
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
