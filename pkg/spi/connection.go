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
	"runtime"

	"github.com/DixusSlim/spi-client-windows/internal/liveness"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/DixusSlim/spi-client-windows/pkg/wsclient"
)

func (c *client) onConnectionEvent(ev *wsclient.Event) {
	switch ev.Type {
	case wsclient.EventStateChanged:
		c.onConnectionStateChanged(ev.State)
	case wsclient.EventMessage:
		c.onMessage(ev.Message)
	case wsclient.EventError:
		log.L(c.ctx).Warnf("Received WS Error: %s", ev.Err)
	}
}

func (c *client) onConnectionStateChanged(state spitypes.ConnectionState) {
	switch state {
	case spitypes.ConnectionStateConnecting:
		log.L(c.ctx).Infof("I'm Connecting to the Eftpos at %s...", c.conn.Address())
	case spitypes.ConnectionStateConnected:
		c.onConnected()
	case spitypes.ConnectionStateDisconnected:
		c.onDisconnected()
	}
}

func (c *client) onConnected() {
	c.reconnectRetries = 0
	c.stamp.ResetConnection()
	if c.flow == spitypes.SpiFlowPairing && c.status == spitypes.SpiStatusUnpaired {
		if c.pairingFlow == nil || c.pairingFlow.Finished() {
			return
		}
		c.send(messages.PairRequest())
		if err := c.pairingFlow.PairRequestSent(c.ctx); err != nil {
			log.L(c.ctx).Warnf("Pair request sent in an unexpected state: %s", err)
			return
		}
		c.emitPairing()
		return
	}
	log.L(c.ctx).Infof("I'm Connected to %s...", c.conn.Address())
	if c.secrets == nil {
		return
	}
	_ = c.stamp.SetSecrets(c.ctx, c.secrets)
	c.startPeriodicPing()
}

// onDisconnected keeps a paired client reconnecting until it is unpaired. A pairing
// attempt is retried on a new connection a limited number of times.
func (c *client) onDisconnected() {
	log.L(c.ctx).Infof("I'm disconnected from %s...", c.conn.Address())
	c.liveness.Reset()
	c.stopTimer(&c.pingTimer)
	c.stamp.ResetConnection()

	if c.status != spitypes.SpiStatusUnpaired {
		c.setStatus(spitypes.SpiStatusPairedConnecting)
		if c.activeTx() {
			log.L(c.ctx).Warnf("Lost connection in the middle of a transaction...")
			if c.txFlow.Type() == spitypes.TransactionTypeReversal {
				_ = c.txFlow.Failed(c.ctx, nil, "We were in the middle of a reversal when a disconnection happened, let's fail the reversal.", c.clock.Now())
				c.txUpdated()
			}
		}
		if c.autoAddressResolution {
			if c.reconnectRetries >= c.conf.RetriesBeforeResolvingDeviceAddress {
				c.autoResolveEftposAddress()
				c.reconnectRetries = 0
			} else {
				c.reconnectRetries++
			}
		}
		log.L(c.ctx).Infof("Will try to reconnect in %dms ...", c.conf.SleepBeforeReconnect.Milliseconds())
		if c.metrics.IsMetricsEnabled() {
			c.metrics.Reconnecting()
		}
		c.stopTimer(&c.reconnectTimer)
		c.reconnectTimer = c.afterFunc(c.conf.SleepBeforeReconnect, func() {
			c.reconnectTimer = nil
			if c.status != spitypes.SpiStatusUnpaired {
				c.conn.Connect()
			}
		})
		return
	}

	if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil || c.pairingFlow.Finished() {
		return
	}
	if c.pairingRetries >= c.conf.RetriesBeforePairing {
		c.pairingRetries = 0
		log.L(c.ctx).Warnf("Lost Connection during pairing.")
		c.onPairingFailed()
		return
	}
	log.L(c.ctx).Infof("Will try to re-pair in %dms ...", c.conf.SleepBeforeReconnect.Milliseconds())
	c.pairingFlow.Restart()
	c.emitPairing()
	c.stopTimer(&c.reconnectTimer)
	c.reconnectTimer = c.afterFunc(c.conf.SleepBeforeReconnect, func() {
		c.reconnectTimer = nil
		if c.status != spitypes.SpiStatusPairedConnected && c.flow == spitypes.SpiFlowPairing && !c.pairingFlow.Finished() {
			c.conn.Connect()
		}
	})
	c.pairingRetries++
}

// startPeriodicPing begins a new liveness epoch. Timers of the previous epoch become no-ops.
func (c *client) startPeriodicPing() {
	c.stopTimer(&c.pingTimer)
	epoch := c.liveness.Start()
	c.doPing(epoch)
}

func (c *client) doPing(epoch int64) {
	ping := messages.Ping()
	c.send(ping)
	c.liveness.PingSent(ping, c.clock.Now())
	c.pingTimer = c.afterFunc(c.liveness.PongTimeout(), func() {
		c.onPongTimeout(epoch)
	})
}

func (c *client) onPongTimeout(epoch int64) {
	switch c.liveness.PongTimeoutExpired(epoch) {
	case liveness.ActionWaitThenPing:
		c.pingTimer = c.afterFunc(c.liveness.NextPingDelay(), func() {
			if c.liveness.ShouldPing(epoch) {
				c.doPing(epoch)
			}
		})
	case liveness.ActionPingNow:
		if c.metrics.IsMetricsEnabled() {
			c.metrics.PongMissed()
		}
		log.L(c.ctx).Infof("Trying another ping...")
		c.doPing(epoch)
	case liveness.ActionDisconnect:
		if c.metrics.IsMetricsEnabled() {
			c.metrics.PongMissed()
		}
		log.L(c.ctx).Infof("Disconnecting...")
		c.pingTimer = nil
		c.conn.Disconnect()
	}
}

// handlePong also learns the connection id and the terminal clock offset, which every later message must carry
func (c *client) handlePong(m *spitypes.Message) {
	now := c.clock.Now()
	if c.stamp.ConnID == "" {
		c.stamp.ConnID = m.ConnID
	}
	c.stamp.ServerTimeDelta = messages.ServerTimeDelta(m, now)

	if !c.liveness.PongReceived(m, now) {
		return
	}
	if c.status == spitypes.SpiStatusUnpaired {
		log.L(c.ctx).Infof("First pong of connection but pairing process not finalised yet.")
		return
	}
	log.L(c.ctx).Infof("First pong of connection and in paired state.")
	c.onReadyToTransact()
}

func (c *client) handleIncomingPing(m *spitypes.Message) {
	c.send(messages.Pong(m))
}

// onReadyToTransact runs once per connection. An interrupted transaction is resumed, otherwise the
// session setup is pushed to the terminal.
func (c *client) onReadyToTransact() {
	log.L(c.ctx).Infof("On Ready To Transact!")
	c.setStatus(spitypes.SpiStatusPairedConnected)

	if c.activeTx() {
		switch {
		case !c.txFlow.RequestSent():
			if c.send(c.txFlow.Request()) {
				c.requestSent("Sending Request Now...")
			}
		case c.txFlow.Type() == spitypes.TransactionTypeGetLastTransaction:
			if c.send(c.txFlow.Request()) {
				c.txFlow.StateRequested(c.clock.Now())
			}
		default:
			c.callGetTransaction()
		}
		c.emitTxFlow()
		return
	}

	if !c.hasSetInfo {
		c.sendPosInfo()
	}
	if c.payAtTable != nil {
		c.send(messages.PayAtTableConfigRequest(c.payAtTable))
	}
	if c.pairUsingEftposAddress {
		c.send(messages.TerminalConfigurationRequest())
	}
}

// callGetTransaction asks for the state of the active transaction by its POS reference
func (c *client) callGetTransaction() {
	gt := messages.GetTransactionRequest(c.txFlow.PosRefID())
	if err := c.txFlow.CallingGt(c.ctx, gt.ID, c.clock.Now()); err != nil {
		log.L(c.ctx).Warnf("Cannot check on transaction: %s", err)
		return
	}
	c.send(gt)
}

func (c *client) sendPosInfo() {
	c.send(messages.SetPosInfoRequest(&messages.PosInfo{
		PosVendorID:     c.posVendorID,
		PosVersion:      c.posVersion,
		LibraryLanguage: libraryLanguage,
		LibraryVersion:  LibraryVersion,
		OtherInfo: map[string]string{
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
			"go_version": runtime.Version(),
		},
	}))
}
