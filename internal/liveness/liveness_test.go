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
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/stretchr/testify/assert"
)

func newTestMonitor() *Monitor {
	return New(context.Background(), 5*time.Second, 18*time.Second, 2)
}

func pongFor(ping *spitypes.Message) *spitypes.Message {
	return spitypes.NewMessage(ping.ID, messages.EventPong, nil, true)
}

func TestHealthyCycle(t *testing.T) {
	now := time.Now()
	m := newTestMonitor()
	epoch := m.Start()
	assert.True(t, m.Running())

	ping := messages.Ping()
	m.PingSent(ping, now)
	assert.True(t, m.PongReceived(pongFor(ping), now.Add(10*time.Millisecond)))
	assert.Equal(t, ActionWaitThenPing, m.PongTimeoutExpired(epoch))
	assert.Equal(t, 13*time.Second, m.NextPingDelay())
	assert.True(t, m.ShouldPing(epoch))

	ping = messages.Ping()
	m.PingSent(ping, now)
	assert.False(t, m.PongReceived(pongFor(ping), now))
}

func TestMissedPongsDisconnect(t *testing.T) {
	m := newTestMonitor()
	epoch := m.Start()

	m.PingSent(messages.Ping(), time.Now())
	assert.Equal(t, ActionPingNow, m.PongTimeoutExpired(epoch))
	assert.Equal(t, 1, m.MissedPongs())

	m.PingSent(messages.Ping(), time.Now())
	assert.Equal(t, ActionDisconnect, m.PongTimeoutExpired(epoch))
	assert.False(t, m.Running())
	assert.False(t, m.ShouldPing(epoch))
	assert.Equal(t, ActionIgnore, m.PongTimeoutExpired(epoch))
}

func TestPongForOlderPingDoesNotCount(t *testing.T) {
	m := newTestMonitor()
	epoch := m.Start()

	old := messages.Ping()
	m.PingSent(old, time.Now())
	m.PingSent(messages.Ping(), time.Now())
	m.PongReceived(pongFor(old), time.Now())
	assert.Equal(t, ActionPingNow, m.PongTimeoutExpired(epoch))
}

func TestMissedCountResetsOnPong(t *testing.T) {
	m := newTestMonitor()
	epoch := m.Start()

	m.PingSent(messages.Ping(), time.Now())
	assert.Equal(t, ActionPingNow, m.PongTimeoutExpired(epoch))

	ping := messages.Ping()
	m.PingSent(ping, time.Now())
	m.PongReceived(pongFor(ping), time.Now())
	assert.Equal(t, ActionWaitThenPing, m.PongTimeoutExpired(epoch))
	assert.Equal(t, 0, m.MissedPongs())
}

func TestStaleEpochIgnored(t *testing.T) {
	m := newTestMonitor()
	old := m.Start()
	m.PingSent(messages.Ping(), time.Now())

	m.Reset()
	assert.Equal(t, ActionIgnore, m.PongTimeoutExpired(old))
	assert.False(t, m.ShouldPing(old))

	current := m.Start()
	assert.NotEqual(t, old, current)
	assert.Equal(t, ActionIgnore, m.PongTimeoutExpired(old))
	assert.True(t, m.ShouldPing(current))
}

func TestFirstPongRemembered(t *testing.T) {
	m := newTestMonitor()
	assert.True(t, m.PongReceived(pongFor(messages.Ping()), time.Now()))
	m.Start()
	assert.False(t, m.PongReceived(pongFor(messages.Ping()), time.Now()))
	m.Reset()
	assert.True(t, m.PongReceived(pongFor(messages.Ping()), time.Now()))
}

func TestDefaultsAndStrings(t *testing.T) {
	m := New(context.Background(), 5*time.Second, time.Second, 0)
	assert.Equal(t, time.Duration(0), m.NextPingDelay())
	assert.Equal(t, 5*time.Second, m.PongTimeout())

	epoch := m.Start()
	m.PingSent(messages.Ping(), time.Now())
	assert.Equal(t, ActionDisconnect, m.PongTimeoutExpired(epoch))

	assert.Equal(t, "ignore", ActionIgnore.String())
	assert.Equal(t, "wait_then_ping", ActionWaitThenPing.String())
	assert.Equal(t, "ping_now", ActionPingNow.String())
	assert.Equal(t, "disconnect", ActionDisconnect.String())
}
