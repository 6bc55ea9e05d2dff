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
	"context"
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/crypto"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/internal/pairing"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

// exchangeKeys plays the terminal side of the key agreement, up to the key check
func (ts *testSPI) exchangeKeys(t *testing.T) *spitypes.Message {
	ctx := context.Background()
	ts.term.connect()
	ts.term.nextSent(messages.EventPairRequest)

	encKeys, err := crypto.GenerateDHKeyPair()
	assert.NoError(t, err)
	hmacKeys, err := crypto.GenerateDHKeyPair()
	assert.NoError(t, err)
	ts.term.receive(spitypes.NewMessage("kr1", messages.EventKeyRequest, spitypes.JSONObject{
		"enc":  spitypes.JSONObject{"A": encKeys.Public},
		"hmac": spitypes.JSONObject{"A": hmacKeys.Public},
	}, false))

	keyResponse := ts.term.nextSent(messages.EventKeyResponse)
	assert.Equal(t, "kr1", keyResponse.ID)
	encKey, err := encKeys.SharedSecretKey(ctx, keyResponse.Data.GetObject("enc").GetString("B"))
	assert.NoError(t, err)
	hmacKey, err := hmacKeys.SharedSecretKey(ctx, keyResponse.Data.GetObject("hmac").GetString("B"))
	assert.NoError(t, err)
	assert.NoError(t, ts.term.stamp.SetSecrets(ctx, spitypes.NewSecrets(encKey, hmacKey)))

	keyCheck := spitypes.NewMessage("kc1", messages.EventKeyCheck, spitypes.JSONObject{}, true)
	ts.term.receive(keyCheck)
	return keyCheck
}

func TestPairEndToEnd(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	secretsSub := ts.Subscribe(spitypes.EventTypeSecretsChanged)
	assert.NoError(t, ts.Start())

	assert.True(t, ts.Pair())
	assert.Equal(t, spitypes.SpiFlowPairing, ts.CurrentFlow())
	assert.Equal(t, spitypes.PairingPhaseConnecting, ts.CurrentPairingFlowState().Phase)
	ts.term.conn.AssertCalled(t, "Connect")

	ts.exchangeKeys(t)
	state := ts.CurrentPairingFlowState()
	assert.Equal(t, spitypes.PairingPhaseAwaitingCodeConfirmation, state.Phase)
	assert.Len(t, state.ConfirmationCode, 6)
	assert.True(t, state.AwaitingCheckFromPos)
	assert.True(t, state.AwaitingCheckFromEftpos)

	ts.PairingConfirmCode()
	state = ts.CurrentPairingFlowState()
	assert.False(t, state.AwaitingCheckFromPos)
	assert.Equal(t, "Click YES on EFTPOS if code is: "+state.ConfirmationCode, state.Message)
	assert.Equal(t, spitypes.SpiStatusUnpaired, ts.CurrentStatus())

	ts.term.receive(spitypes.NewMessage("pr1", messages.EventPairResponse, spitypes.JSONObject{"success": true}, true))
	ping := ts.term.nextSent(messages.EventPing)
	state = ts.CurrentPairingFlowState()
	assert.True(t, state.Finished)
	assert.True(t, state.Successful)
	assert.Equal(t, spitypes.SpiStatusPairedConnected, ts.CurrentStatus())

	ev := nextEvent(t, secretsSub)
	assert.Equal(t, ts.term.stamp.Secrets(), ev.Secrets)
	assert.Equal(t, ts.term.stamp.Secrets(), ts.Secrets())

	ts.term.receive(messages.Pong(ping))
	ts.term.nextSent(messages.EventSetPosInfoRequest)
	assert.True(t, ts.AckFlowEndedAndBackToIdle())
	assert.Equal(t, spitypes.SpiFlowIdle, ts.CurrentFlow())
}

func TestPairResponseConfirmsForPos(t *testing.T) {
	conf := testConfig()
	conf.SerialNumber = ""
	ts, done := newTestSPI(t, conf, nil)
	defer done()
	assert.NoError(t, ts.Start())
	assert.True(t, ts.Pair())
	ts.exchangeKeys(t)

	ts.term.receive(spitypes.NewMessage("pr1", messages.EventPairResponse, spitypes.JSONObject{"success": true}, true))
	ping := ts.term.nextSent(messages.EventPing)
	assert.True(t, ts.CurrentPairingFlowState().Successful)
	ts.PairingConfirmCode()
	assert.Equal(t, "Pairing Successful!", ts.CurrentPairingFlowState().Message)

	// without a serial number the terminal is asked for it
	ts.term.receive(messages.Pong(ping))
	ts.term.nextSent(messages.EventSetPosInfoRequest)
	ts.term.nextSent(messages.EventTerminalConfigurationRequest)
	ts.term.receive(spitypes.NewMessage("cfg", messages.EventTerminalConfigurationResponse, spitypes.JSONObject{
		"success":        true,
		"serial_number":  "555-666-777",
		"terminal_model": "P400",
	}, true))
	ts.call(func() {
		assert.Equal(t, "555-666-777", ts.serialNumber)
		assert.Equal(t, "P400", ts.terminalModel)
	})
}

func pairResponseLogs(t *testing.T, posConfirmsFirst bool) []string {
	logger, hook := logtest.NewNullLogger()
	ctx := log.WithLogger(context.Background(), logrus.NewEntry(logger))
	ts, done := newTestSPIWithContext(ctx, t, testConfig(), nil)
	defer done()
	assert.NoError(t, ts.Start())
	assert.True(t, ts.Pair())
	ts.exchangeKeys(t)
	if posConfirmsFirst {
		ts.PairingConfirmCode()
	}
	hook.Reset()
	ts.term.receive(spitypes.NewMessage("pr1", messages.EventPairResponse, spitypes.JSONObject{"success": true}, true))
	ts.term.nextSent(messages.EventPing)
	ts.sync()
	var logged []string
	for _, e := range hook.AllEntries() {
		logged = append(logged, e.Message)
	}
	return logged
}

func TestPairResponseLogsWhoConfirmed(t *testing.T) {
	const fromLibrary = "Confirming pairing from library."
	const alreadyConfirmed = "Got Pair Confirm from Eftpos, and already had confirm from POS. Now just waiting for first pong."

	logged := pairResponseLogs(t, false)
	assert.Contains(t, logged, fromLibrary)
	assert.NotContains(t, logged, alreadyConfirmed)

	logged = pairResponseLogs(t, true)
	assert.Contains(t, logged, alreadyConfirmed)
	assert.NotContains(t, logged, fromLibrary)
}

func TestPairRefused(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	assert.NoError(t, ts.Start())
	assert.True(t, ts.Pair())
	ts.exchangeKeys(t)

	ts.term.receive(spitypes.NewMessage("pr1", messages.EventPairResponse, spitypes.JSONObject{"success": false}, true))
	state := ts.CurrentPairingFlowState()
	assert.True(t, state.Finished)
	assert.False(t, state.Successful)
	assert.Equal(t, spitypes.PairingPhaseFailed, state.Phase)
	assert.Nil(t, ts.Secrets())
	ts.term.conn.AssertCalled(t, "Disconnect")
}

func TestPairNotAllowed(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), testSecrets())
	defer done()
	assert.NoError(t, ts.Start())
	assert.False(t, ts.Pair())

	conf := testConfig()
	conf.EftposAddress = ""
	ts2, done2 := newTestSPI(t, conf, nil)
	defer done2()
	assert.NoError(t, ts2.Start())
	assert.False(t, ts2.Pair())
	assert.Equal(t, spitypes.SpiFlowIdle, ts2.CurrentFlow())
}

func TestPairingCancel(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	assert.NoError(t, ts.Start())
	assert.True(t, ts.Pair())
	ts.exchangeKeys(t)

	ts.PairingCancel()
	state := ts.CurrentPairingFlowState()
	assert.True(t, state.Finished)
	assert.False(t, state.Successful)
	assert.Nil(t, ts.Secrets())
	assert.Equal(t, spitypes.SpiStatusUnpaired, ts.CurrentStatus())
	ts.term.assertNothingSent()

	// nothing left to cancel or confirm
	ts.PairingCancel()
	ts.PairingConfirmCode()
	assert.False(t, ts.CurrentPairingFlowState().Successful)
	assert.True(t, ts.AckFlowEndedAndBackToIdle())
}

func TestPairingRetriesThenFails(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	sub := ts.Subscribe(spitypes.EventTypePairingFlowStateChanged)
	assert.NoError(t, ts.Start())
	assert.True(t, ts.Pair())
	assert.Equal(t, spitypes.PairingPhaseConnecting, nextEvent(t, sub).PairingFlowState.Phase)

	for i := 0; i < 3; i++ {
		ts.term.connect()
		ts.term.nextSent(messages.EventPairRequest)
		assert.Equal(t, spitypes.PairingPhaseKeyExchanging, nextEvent(t, sub).PairingFlowState.Phase)
		ts.term.drop()
		ev := nextEvent(t, sub)
		assert.Equal(t, spitypes.PairingPhaseConnecting, ev.PairingFlowState.Phase)
		ts.clock.Advance(3 * time.Second)
	}
	ts.sync()
	ts.term.conn.AssertNumberOfCalls(t, "Connect", 4)

	ts.term.drop()
	ev := nextEvent(t, sub)
	assert.Equal(t, spitypes.PairingPhaseFailed, ev.PairingFlowState.Phase)
	assert.True(t, ev.PairingFlowState.Finished)
	ts.clock.Advance(3 * time.Second)
	ts.sync()
	ts.term.conn.AssertNumberOfCalls(t, "Connect", 4)
}

func TestUnpair(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeSecretsChanged)

	assert.True(t, ts.Unpair())
	ts.term.nextSent(messages.EventDropKeys)
	ev := nextEvent(t, sub)
	assert.Nil(t, ev.Secrets)
	assert.Nil(t, ts.Secrets())
	assert.Equal(t, spitypes.SpiStatusUnpaired, ts.CurrentStatus())
	ts.term.conn.AssertCalled(t, "Disconnect")
	assert.False(t, ts.Unpair())

	// no reconnect once unpaired
	ts.term.drop()
	ts.clock.Advance(3 * time.Second)
	ts.sync()
	ts.term.conn.AssertNumberOfCalls(t, "Connect", 1)
}

func TestUnpairRefusedMidTransaction(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	assert.True(t, ts.InitiatePurchaseTx("p1", 100, nil).Initiated)
	assert.False(t, ts.Unpair())
	assert.Equal(t, spitypes.SpiStatusPairedConnected, ts.CurrentStatus())
}

func TestTerminalDropsKeys(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	ts.term.receive(spitypes.NewMessage("dk", messages.EventDropKeys, nil, true))
	assert.Equal(t, spitypes.SpiStatusUnpaired, ts.CurrentStatus())
	assert.Nil(t, ts.Secrets())
}

func TestKeyRoll(t *testing.T) {
	ctx := context.Background()
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeSecretsChanged)

	request := spitypes.NewMessage("roll1", messages.EventKeyRollRequest, nil, false)
	rolled, err := pairing.RollKeys(ctx, request, testSecrets())
	assert.NoError(t, err)
	assert.NoError(t, ts.term.stamp.SetSecrets(ctx, rolled.Secrets))

	ts.term.receive(request)
	confirmation := ts.term.nextSent(messages.EventKeyRollResponse)
	assert.Equal(t, "roll1", confirmation.ID)
	assert.Equal(t, "confirmed", confirmation.Data.GetString("status"))

	ev := nextEvent(t, sub)
	assert.Equal(t, rolled.Secrets, ev.Secrets)
	assert.Equal(t, rolled.Secrets, ts.Secrets())

	// the new keys carry on working
	assert.True(t, ts.InitiatePurchaseTx("p1", 100, nil).Initiated)
	ts.term.nextSent(messages.EventPurchaseRequest)
}
