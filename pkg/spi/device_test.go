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
	"testing"

	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/stretchr/testify/assert"
)

func TestTerminalStatus(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeTerminalStatusResponse)

	ts.GetTerminalStatus()
	ts.term.nextSent(messages.EventTerminalStatusRequest)
	ts.term.receive(spitypes.NewMessage("ts1", messages.EventTerminalStatusResponse, spitypes.JSONObject{
		"success":       true,
		"status":        "IDLE",
		"battery_level": "87",
		"charging":      true,
	}, true))
	ev := nextEvent(t, sub)
	assert.Equal(t, "87", ev.TerminalStatus.BatteryLevel)
	assert.True(t, ev.TerminalStatus.Charging)
	assert.True(t, ev.TerminalStatus.Success)
}

func TestTerminalConfigurationEvent(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeTerminalConfigurationResponse)

	ts.GetTerminalConfiguration()
	ts.term.nextSent(messages.EventTerminalConfigurationRequest)
	ts.term.receive(spitypes.NewMessage("tc1", messages.EventTerminalConfigurationResponse, spitypes.JSONObject{
		"success":        true,
		"serial_number":  "999-000-111",
		"terminal_model": "E355",
	}, true))
	ev := nextEvent(t, sub)
	assert.Equal(t, "E355", ev.TerminalConfiguration.TerminalModel)
	ts.call(func() {
		assert.Equal(t, "E355", ts.terminalModel)
		// a configured serial number is kept
		assert.Equal(t, "321-404-842", ts.serialNumber)
	})
}

func TestDeviceRequestsNeedConnection(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), testSecrets())
	defer done()
	assert.NoError(t, ts.Start())
	ts.GetTerminalStatus()
	ts.GetTerminalConfiguration()
	ts.PrintReport("key", "hello")
	ts.term.assertNothingSent()
}

func TestPrintReport(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypePrintingResponse)

	ts.PrintReport("printkey", "Hello\nWorld")
	req := ts.term.nextSent(messages.EventPrintingRequest)
	assert.Equal(t, "printkey", req.Data.GetString("key"))
	assert.Equal(t, "Hello\nWorld", req.Data.GetString("payload"))

	ts.term.receive(spitypes.NewMessage(req.ID, messages.EventPrintingResponse, spitypes.JSONObject{"success": true}, true))
	ev := nextEvent(t, sub)
	assert.Equal(t, req.ID, ev.Message.ID)
}

func TestUnsolicitedTerminalEvents(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeBatteryLevelChanged, spitypes.EventTypeTransactionUpdateMessage)

	ts.term.receive(spitypes.NewMessage("b1", messages.EventBatteryLevelChanged, spitypes.JSONObject{"battery_level": "15"}, true))
	ev := nextEvent(t, sub)
	assert.Equal(t, spitypes.EventTypeBatteryLevelChanged, ev.Type)
	assert.Equal(t, "15", ev.Message.Data.GetString("battery_level"))

	ts.term.receive(spitypes.NewMessage("u1", messages.EventTransactionUpdateMessage, spitypes.JSONObject{"display_message_text": "PIN?"}, true))
	ev = nextEvent(t, sub)
	assert.Equal(t, spitypes.EventTypeTransactionUpdateMessage, ev.Type)
	assert.Equal(t, "PIN?", ev.Message.Data.GetString("display_message_text"))
}

func TestPayAtTableConfig(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypePayAtTableConfigRequested)

	// nothing configured turns the feature off
	ts.term.receive(spitypes.NewMessage("g1", messages.EventPayAtTableGetTableConfig, nil, true))
	off := ts.term.nextSent(messages.EventPayAtTableSetTableConfig)
	assert.False(t, off.Data.GetBool("pay_at_table_enabled"))

	config := &spitypes.PayAtTableConfig{
		PayAtTableEnabled:  true,
		LabelTableID:       "Table",
		AllowedOperatorIDs: []string{"op1"},
	}
	ts.SetPayAtTableConfig(config)
	pushed := ts.term.nextSent(messages.EventPayAtTableSetTableConfig)
	assert.True(t, pushed.Data.GetBool("pay_at_table_enabled"))
	assert.Equal(t, "Table", pushed.Data.GetString("table_id_label"))
	assert.Equal(t, []string{"op1"}, pushed.Data.GetStringArray("operator_id_list"))

	// the caller's copy can change without affecting the client
	config.LabelTableID = "Changed"
	ts.term.receive(spitypes.NewMessage("g2", messages.EventPayAtTableGetTableConfig, nil, true))
	answered := ts.term.nextSent(messages.EventPayAtTableSetTableConfig)
	assert.Equal(t, "Table", answered.Data.GetString("table_id_label"))
	ev := nextEvent(t, sub)
	assert.Equal(t, "g2", ev.Message.ID)

	ts.SetPayAtTableConfig(nil)
	off = ts.term.nextSent(messages.EventPayAtTableSetTableConfig)
	assert.False(t, off.Data.GetBool("pay_at_table_enabled"))
}

func TestPayAtTableConfigPushedOnConnect(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), testSecrets())
	defer done()
	ts.SetPayAtTableConfig(&spitypes.PayAtTableConfig{PayAtTableEnabled: true, TippingEnabled: true})
	assert.NoError(t, ts.Start())
	ts.term.assertNothingSent()

	ts.ready()
	ts.term.nextSent(messages.EventSetPosInfoRequest)
	pushed := ts.term.nextSent(messages.EventPayAtTableSetTableConfig)
	assert.True(t, pushed.Data.GetBool("tipping_enabled"))
}
