// Copyright © 2022 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package spi

import (
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/analytics"
	"github.com/DixusSlim/spi-client-windows/internal/deviceservice"
	"github.com/DixusSlim/spi-client-windows/internal/metrics"
	"github.com/DixusSlim/spi-client-windows/pkg/wsclient"
)

// Timer is a pending callback that can be stopped
type Timer interface {
	Stop() bool
}

// Clock is the source of time for the flow logic and its timers
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option overrides a collaborator that New would otherwise build from configuration
type Option func(c *client)

func WithConnection(conn wsclient.Connection) Option {
	return func(c *client) {
		c.conn = conn
	}
}

func WithDeviceService(ds deviceservice.Service) Option {
	return func(c *client) {
		c.devices = ds
	}
}

func WithAnalytics(as analytics.Service) Option {
	return func(c *client) {
		c.analytics = as
	}
}

func WithMetrics(mm metrics.Manager) Option {
	return func(c *client) {
		c.metrics = mm
	}
}

func WithClock(clock Clock) Option {
	return func(c *client) {
		c.clock = clock
	}
}

// WithoutMonitor disables the scheduled transaction monitor. Tests drive it by hand.
func WithoutMonitor() Option {
	return func(c *client) {
		c.monitorDisabled = true
	}
}
