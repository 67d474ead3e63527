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

//go:build linux

package ble

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"

	nameplate "github.com/hamastar/go-nameplate"
	"github.com/hamastar/go-nameplate/internal/transport"
)

const discoveryInterval = 200 * time.Millisecond

var (
	errServiceMissing = errors.New("nameplate service not resolved")
	errCharsMissing   = errors.New("nameplate characteristics not resolved")
)

func always(error) bool { return true }

var (
	adapter = bluetooth.DefaultAdapter

	enableOnce sync.Once
	enableErr  error

	// Open transports by upper-case address, for the connect handler
	registryMu sync.Mutex
	registry   = make(map[string]*Transport)
)

func enableAdapter() error {
	enableOnce.Do(func() {
		adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
			if connected {
				return
			}
			registryMu.Lock()
			t := registry[strings.ToUpper(device.Address.String())]
			registryMu.Unlock()
			if t != nil {
				t.markLost()
			}
		})
		enableErr = adapter.Enable()
	})
	return enableErr
}

// New connects to the nameplate at address (a MAC address such as
// "AA:BB:CC:DD:EE:FF") through the default adapter and resolves its GATT
// service.
func New(address string, opts ...Option) (*Transport, error) {
	return NewContext(context.Background(), address, opts...)
}

// NewContext is New with a context that aborts connection retries and
// service discovery.
func NewContext(ctx context.Context, address string, opts ...Option) (*Transport, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	mac, err := bluetooth.ParseMAC(address)
	if err != nil {
		return nil, nameplate.NewTransportError("connect", address,
			fmt.Errorf("%w: %w", nameplate.ErrInvalidParameter, err), nameplate.ErrorTypePermanent)
	}
	if err := enableAdapter(); err != nil {
		return nil, nameplate.NewTransportError("enable", "adapter", err, nameplate.ErrorTypePermanent)
	}

	uuids, err := parseUUIDs()
	if err != nil {
		return nil, err
	}

	device, err := transport.Do(ctx, transport.Policy{
		Retryable:   always,
		Description: address,
		MaxRetries:  config.ConnectRetries,
		Delay:       config.RetryDelay,
		OnRetry: func(attempt int, err error) {
			debugf("connect to %s failed (attempt %d): %v", address, attempt, err)
		},
	}, func(context.Context) (bluetooth.Device, error) {
		return adapter.Connect(bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}, bluetooth.ConnectionParams{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	command, notify, err := discover(ctx, device, uuids, config.DiscoveryTimeout)
	if err != nil {
		_ = device.Disconnect()
		return nil, fmt.Errorf("failed to discover nameplate service on %s: %w", address, err)
	}

	key := strings.ToUpper(mac.String())
	t := newTransport(key, command, notify, device.Disconnect)
	t.release = func() {
		registryMu.Lock()
		defer registryMu.Unlock()
		if registry[key] == t {
			delete(registry, key)
		}
	}

	registryMu.Lock()
	registry[key] = t
	registryMu.Unlock()

	debugf("connected to %s", key)
	return t, nil
}

type serviceUUIDs struct {
	service bluetooth.UUID
	command bluetooth.UUID
	notify  bluetooth.UUID
}

func parseUUIDs() (serviceUUIDs, error) {
	var (
		u   serviceUUIDs
		err error
	)
	if u.service, err = bluetooth.ParseUUID(ServiceUUID); err != nil {
		return u, fmt.Errorf("bad service UUID: %w", err)
	}
	if u.command, err = bluetooth.ParseUUID(CommandUUID); err != nil {
		return u, fmt.Errorf("bad command UUID: %w", err)
	}
	if u.notify, err = bluetooth.ParseUUID(NotifyUUID); err != nil {
		return u, fmt.Errorf("bad notify UUID: %w", err)
	}
	return u, nil
}

// discover resolves the command and notify characteristics. BlueZ may
// report the device connected before its services are resolved, so
// discovery is retried until timeout.
func discover(ctx context.Context, device bluetooth.Device, uuids serviceUUIDs, timeout time.Duration) (command, notify characteristic, err error) {
	type pair struct {
		command, notify bluetooth.DeviceCharacteristic
	}

	found, err := transport.Do(ctx, transport.Policy{
		Retryable:   always,
		Description: "discover",
		MaxRetries:  -1,
		Delay:       discoveryInterval,
		Timeout:     timeout,
	}, func(context.Context) (pair, error) {
		services, err := device.DiscoverServices([]bluetooth.UUID{uuids.service})
		if err != nil {
			return pair{}, err
		}
		if len(services) == 0 {
			return pair{}, errServiceMissing
		}
		chars, err := services[0].DiscoverCharacteristics([]bluetooth.UUID{uuids.command, uuids.notify})
		if err != nil {
			return pair{}, err
		}

		var p pair
		var haveCommand, haveNotify bool
		for _, c := range chars {
			switch c.UUID() {
			case uuids.command:
				p.command, haveCommand = c, true
			case uuids.notify:
				p.notify, haveNotify = c, true
			}
		}
		if !haveCommand || !haveNotify {
			return pair{}, errCharsMissing
		}
		return p, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &found.command, &found.notify, nil
}
