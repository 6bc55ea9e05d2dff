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
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/internal/pairing"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// Pair starts pairing with the terminal at the configured address. The POS id and address must be valid.
func (c *client) Pair() (ok bool) {
	c.call(func() {
		log.L(c.ctx).Warnf("Trying to pair ....")
		if c.status != spitypes.SpiStatusUnpaired {
			log.L(c.ctx).Warnf("Tried to Pair, but we're already paired. Stop pairing.")
			return
		}
		if !isPosIDValid(c.posID) || !isEftposAddressValid(c.eftposAddress) {
			log.L(c.ctx).Warnf("Invalid Pos Id or Eftpos address, stop pairing.")
			return
		}
		c.flow = spitypes.SpiFlowPairing
		c.pairingFlow = pairing.NewFlow()
		c.pairingRetries = 0
		c.emitPairing()
		c.conn.Connect()
		ok = true
	})
	return ok
}

// PairingConfirmCode records that the user has seen the same code on both screens
func (c *client) PairingConfirmCode() {
	c.call(func() {
		if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil {
			return
		}
		changed, paired := c.pairingFlow.ConfirmFromPos()
		if !changed {
			return
		}
		if !paired {
			log.L(c.ctx).Infof("Pair Code Confirmed from POS side, but am still waiting for confirmation from Eftpos.")
			c.emitPairing()
			return
		}
		log.L(c.ctx).Infof("Pair Code Confirmed from POS side, and was already confirmed from Eftpos side. Pairing finalised.")
		c.onPairingSuccess()
	})
}

func (c *client) PairingCancel() {
	c.call(func() {
		if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil || c.pairingFlow.Finished() {
			return
		}
		if c.pairingFlow.TerminalAlreadyPaired() {
			c.send(messages.DropKeysAdvice())
		}
		c.onPairingFailed()
	})
}

// Unpair tells the terminal to drop its keys and forgets ours. It is refused in the middle of a flow.
func (c *client) Unpair() (ok bool) {
	c.call(func() {
		if c.status == spitypes.SpiStatusUnpaired || c.flow != spitypes.SpiFlowIdle {
			return
		}
		c.send(messages.DropKeysAdvice())
		c.doUnpair()
		ok = true
	})
	return ok
}

func (c *client) handleKeyRequest(m *spitypes.Message) {
	if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil {
		log.L(c.ctx).Infof("Received key request but we are not pairing. ignoring.")
		return
	}
	if err := c.pairingFlow.KeyRequestReceived(c.ctx); err != nil {
		log.L(c.ctx).Warnf("Unexpected key request: %s", err)
		return
	}
	c.emitPairing()

	res, err := pairing.GenerateSecretsAndKeyResponse(c.ctx, m)
	if err != nil {
		log.L(c.ctx).Errorf("Key exchange failed: %s", err)
		c.onPairingFailed()
		return
	}
	if err := c.stamp.SetSecrets(c.ctx, res.Secrets); err != nil {
		log.L(c.ctx).Errorf("Key exchange produced unusable secrets: %s", err)
		c.onPairingFailed()
		return
	}
	c.secrets = res.Secrets
	c.send(res.KeyResponse)
}

func (c *client) handleKeyCheck(m *spitypes.Message) {
	if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil {
		return
	}
	if err := c.pairingFlow.KeyCheckReceived(c.ctx, m); err != nil {
		log.L(c.ctx).Warnf("Unexpected key check: %s", err)
		return
	}
	c.emitPairing()
}

func (c *client) handlePairResponse(m *spitypes.Message) {
	if c.flow != spitypes.SpiFlowPairing || c.pairingFlow == nil || c.pairingFlow.Finished() {
		return
	}
	if m.SuccessState() != spitypes.SuccessStateSuccess {
		c.onPairingFailed()
		return
	}
	if c.pairingFlow.Snapshot().AwaitingCheckFromPos {
		log.L(c.ctx).Infof("Confirming pairing from library.")
	} else {
		log.L(c.ctx).Infof("Got Pair Confirm from Eftpos, and already had confirm from POS. Now just waiting for first pong.")
	}
	c.pairingFlow.PairResponseReceived(true)
	c.onPairingSuccess()
	c.startPeriodicPing()
}

func (c *client) handleDropKeysAdvice() {
	log.L(c.ctx).Infof("Eftpos was Unpaired. I shall unpair from my end as well.")
	c.doUnpair()
}

// handleKeyRollRequest swaps in the next keys. The confirmation goes out under the new keys.
func (c *client) handleKeyRollRequest(m *spitypes.Message) {
	res, err := pairing.RollKeys(c.ctx, m, c.secrets)
	if err != nil {
		log.L(c.ctx).Errorf("Key roll failed: %s", err)
		return
	}
	if err := c.stamp.SetSecrets(c.ctx, res.Secrets); err != nil {
		log.L(c.ctx).Errorf("Key roll produced unusable secrets: %s", err)
		return
	}
	c.secrets = res.Secrets
	c.send(res.Confirmation)
	c.emitSecrets()
}

func (c *client) onPairingSuccess() {
	if c.metrics.IsMetricsEnabled() {
		c.metrics.PairingFinished(true)
	}
	c.setStatus(spitypes.SpiStatusPairedConnected)
	c.emitSecrets()
	c.emitPairing()
}

func (c *client) onPairingFailed() {
	if c.metrics.IsMetricsEnabled() {
		c.metrics.PairingFinished(false)
	}
	c.secrets = nil
	_ = c.stamp.SetSecrets(c.ctx, nil)
	c.conn.Disconnect()
	c.setStatus(spitypes.SpiStatusUnpaired)
	if c.pairingFlow != nil {
		c.pairingFlow.Fail()
		c.emitPairing()
	}
}

func (c *client) doUnpair() {
	c.setStatus(spitypes.SpiStatusUnpaired)
	c.conn.Disconnect()
	c.secrets = nil
	_ = c.stamp.SetSecrets(c.ctx, nil)
	c.hasSetInfo = false
	c.emitSecrets()
}
