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

package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/epd"
	"github.com/hamastar/go-nameplate/internal/transport"
	"github.com/hamastar/go-nameplate/transport/serial"
)

const retryDelay = 2 * time.Second

func setDebug(enabled bool) {
	nameplate.SetDebugEnabled(enabled)
}

func castCommand() *cli.Command {
	return &cli.Command{
		Name:      "cast",
		Usage:     "Load an image and cast it to a nameplate",
		ArgsUsage: "IMAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "transport",
				Aliases: []string{"t"},
				EnvVars: []string{"NAMEPLATE_TRANSPORT"},
				Value:   "ble",
				Usage:   "link to use: ble, serial or ws",
			},
			&cli.StringFlag{
				Name:     "address",
				Aliases:  []string{"a"},
				EnvVars:  []string{"NAMEPLATE_ADDRESS"},
				Usage:    "BLE MAC address, serial port or websocket URL",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "side",
				Value: int(nameplate.SideBoth),
				Usage: "face to write (0 both, 1 A, 2 B)",
			},
		},
		Action: runCast,
	}
}

func packCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Write the packed 192000-byte buffer for an image",
		ArgsUsage: "IMAGE OUTPUT",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("pack needs IMAGE and OUTPUT", 1)
			}
			buf, err := loadAndPack(c.Args().Get(0))
			if err != nil {
				return cli.Exit(err, 1)
			}
			if err := os.WriteFile(c.Args().Get(1), buf, 0o600); err != nil {
				return cli.Exit(fmt.Errorf("failed to write packed buffer: %w", err), 1)
			}
			return nil
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:      "preview",
		Usage:     "Render a packed buffer as PNG",
		ArgsUsage: "PACKED OUTPUT.png",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return cli.Exit("preview needs PACKED and OUTPUT", 1)
			}
			if err := renderPreview(c.Args().Get(0), c.Args().Get(1)); err != nil {
				return cli.Exit(err, 1)
			}
			return nil
		},
	}
}

func portsCommand() *cli.Command {
	return &cli.Command{
		Name:  "ports",
		Usage: "List serial ports that may host a bridge dongle",
		Action: func(c *cli.Context) error {
			ports, err := serial.Ports()
			if err != nil {
				return cli.Exit(err, 1)
			}
			if len(ports) == 0 {
				_, _ = fmt.Fprintln(c.App.Writer, "No serial ports found")
				return nil
			}
			for _, p := range ports {
				_, _ = fmt.Fprintln(c.App.Writer, p.String())
			}
			return nil
		},
	}
}

func loadAndPack(path string) ([]byte, error) {
	img, err := epd.Load(path)
	if err != nil {
		return nil, err
	}
	return epd.Pack(img)
}

func renderPreview(in, out string) error {
	buf, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("failed to read packed buffer: %w", err)
	}
	img, err := epd.Unpack(buf)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", out, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode preview: %w", err)
	}
	return f.Close()
}

// castOptions builds caster options from the global flags.
func castOptions(c *cli.Context) []nameplate.Option {
	ack := c.Duration("ack-timeout")
	return []nameplate.Option{
		nameplate.WithMTU(c.Int("mtu")),
		nameplate.WithAckTimeouts(ack, ack),
		nameplate.WithSettleDelay(c.Duration("settle")),
		nameplate.WithPacketDelay(c.Duration("packet-delay")),
		nameplate.WithProgress(func(p nameplate.Progress) {
			if p.Sent%50 == 0 || p.Sent == p.Total {
				_, _ = fmt.Fprintf(c.App.Writer, "\rblock %d/6  %d/%d packages", p.Block, p.Sent, p.Total)
			}
		}),
	}
}

func runCast(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("cast needs IMAGE", 1)
	}
	side := c.Int("side")
	if side < 0 || side > 0xFF {
		return cli.Exit(fmt.Sprintf("side %d out of range", side), 1)
	}

	buf, err := loadAndPack(c.Args().First())
	if err != nil {
		return cli.Exit(err, 1)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
	defer stop()

	kind, address := c.String("transport"), c.String("address")
	opts := castOptions(c)

	retries := c.Int("retries")
	if retries < 0 {
		return cli.Exit(fmt.Sprintf("retries %d is negative", retries), 1)
	}
	report, err := transport.Do(ctx, transport.Policy{
		Description: address,
		MaxRetries:  retries,
		Delay:       retryDelay,
		OnRetry: func(attempt int, err error) {
			_, _ = fmt.Fprintf(c.App.ErrWriter, "\ncast failed (%v), retrying from the start (%d/%d)\n", err, attempt, retries)
		},
	}, func(ctx context.Context) (*nameplate.CastReport, error) {
		return castOnce(ctx, kind, address, buf, nameplate.Side(side), opts)
	})
	if err != nil {
		return cli.Exit(fmt.Errorf("\ncast failed: %w", err), 1)
	}

	_, _ = fmt.Fprintf(c.App.Writer, "\ncast complete: %d frames in %v\n", report.FramesWritten, report.Duration.Round(time.Millisecond))
	return nil
}

// castOnce opens a fresh link for one attempt; a failed cast closes it.
func castOnce(
	ctx context.Context,
	kind, address string,
	buf []byte,
	side nameplate.Side,
	opts []nameplate.Option,
) (*nameplate.CastReport, error) {
	t, err := openTransport(ctx, kind, address)
	if err != nil {
		return nil, err
	}
	defer func() { _ = t.Close() }()

	caster, err := nameplate.New(t, opts...)
	if err != nil {
		return nil, err
	}
	return caster.CastContext(ctx, buf, side)
}
