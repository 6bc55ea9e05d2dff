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

package liveness

import (
	"context"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// Action tells the owner of the timers what to do when a pong timeout expires
type Action int

const (
	// ActionIgnore - the timer belongs to an older connection, or the monitor is stopped
	ActionIgnore Action = iota
	// ActionWaitThenPing - the pong arrived, so sleep out the rest of the ping period
	ActionWaitThenPing
	// ActionPingNow - the pong was missed, but not often enough to give up
	ActionPingNow
	// ActionDisconnect - too many consecutive pongs were missed
	ActionDisconnect
)

func (a Action) String() string {
	switch a {
	case ActionWaitThenPing:
		return "wait_then_ping"
	case ActionPingNow:
		return "ping_now"
	case ActionDisconnect:
		return "disconnect"
	default:
		return "ignore"
	}
}

// Monitor is the ping/pong state of one connection. It owns no timers: every
// timer the owner starts is tagged with the Epoch, and expiries from an older
// epoch are ignored.
type Monitor struct {
	ctx                     context.Context
	pongTimeout             time.Duration
	pingFrequency           time.Duration
	missedPongsToDisconnect int

	epoch         int64
	running       bool
	lastPingID    string
	lastPingTime  time.Time
	pongMatched   bool
	firstPongSeen bool
	missedPongs   int
}

func New(ctx context.Context, pongTimeout, pingFrequency time.Duration, missedPongsToDisconnect int) *Monitor {
	if missedPongsToDisconnect < 1 {
		missedPongsToDisconnect = 1
	}
	return &Monitor{
		ctx:                     log.WithLogField(ctx, "role", "liveness"),
		pongTimeout:             pongTimeout,
		pingFrequency:           pingFrequency,
		missedPongsToDisconnect: missedPongsToDisconnect,
	}
}

func (m *Monitor) Epoch() int64 {
	return m.epoch
}

func (m *Monitor) Running() bool {
	return m.running
}

func (m *Monitor) PongTimeout() time.Duration {
	return m.pongTimeout
}

// NextPingDelay is the remainder of the ping period after a timely pong
func (m *Monitor) NextPingDelay() time.Duration {
	if d := m.pingFrequency - m.pongTimeout; d > 0 {
		return d
	}
	return 0
}

func (m *Monitor) MissedPongs() int {
	return m.missedPongs
}

// Start begins pinging on a new connection, or restarts on the same one.
// The first pong seen is remembered across a restart on the same connection.
func (m *Monitor) Start() int64 {
	m.epoch++
	m.running = true
	m.lastPingID = ""
	m.pongMatched = false
	m.missedPongs = 0
	return m.epoch
}

// Reset forgets everything about the connection, so the next pong is a first pong again
func (m *Monitor) Reset() {
	m.epoch++
	m.running = false
	m.lastPingID = ""
	m.pongMatched = false
	m.firstPongSeen = false
	m.missedPongs = 0
}

func (m *Monitor) PingSent(ping *spitypes.Message, now time.Time) {
	m.lastPingID = ping.ID
	m.lastPingTime = now
	m.pongMatched = false
}

// PongReceived records a pong and reports whether it is the first of this connection
func (m *Monitor) PongReceived(pong *spitypes.Message, now time.Time) (first bool) {
	first = !m.firstPongSeen
	m.firstPongSeen = true
	if m.lastPingID != "" && pong.ID == m.lastPingID {
		m.pongMatched = true
		log.L(m.ctx).Debugf("Pong latency %.2fms", log.Millis(now.Sub(m.lastPingTime)))
	}
	return first
}

// PongTimeoutExpired decides what happens when the wait for the pong of the latest ping is over
func (m *Monitor) PongTimeoutExpired(epoch int64) Action {
	if epoch != m.epoch || !m.running {
		return ActionIgnore
	}
	if m.lastPingID != "" && !m.pongMatched {
		m.missedPongs++
		log.L(m.ctx).Infof("Eftpos didn't reply to my Ping. Missed Count: %d/%d", m.missedPongs, m.missedPongsToDisconnect)
		if m.missedPongs < m.missedPongsToDisconnect {
			return ActionPingNow
		}
		m.running = false
		return ActionDisconnect
	}
	m.missedPongs = 0
	return ActionWaitThenPing
}

// ShouldPing is checked when the wait between pings is over
func (m *Monitor) ShouldPing(epoch int64) bool {
	return epoch == m.epoch && m.running
}
