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

package spitypes

// EventType is the kind of change an Event reports
type EventType = SpiEnum

var (
	// EventTypeStatusChanged - the pairing/connection status moved
	EventTypeStatusChanged EventType = spiEnum("eventtype", "status_changed")
	// EventTypePairingFlowStateChanged - the pairing flow progressed
	EventTypePairingFlowStateChanged EventType = spiEnum("eventtype", "pairing_flow_state_changed")
	// EventTypeTxFlowStateChanged - the active transaction flow progressed
	EventTypeTxFlowStateChanged EventType = spiEnum("eventtype", "tx_flow_state_changed")
	// EventTypeSecretsChanged - new secrets must be persisted by the host, or nil secrets removed
	EventTypeSecretsChanged EventType = spiEnum("eventtype", "secrets_changed")
	// EventTypeDeviceAddressChanged - a device address lookup completed
	EventTypeDeviceAddressChanged EventType = spiEnum("eventtype", "device_address_changed")
	// EventTypeTerminalStatusResponse - reply to a terminal status request
	EventTypeTerminalStatusResponse EventType = spiEnum("eventtype", "terminal_status_response")
	// EventTypeTerminalConfigurationResponse - reply to a terminal configuration request
	EventTypeTerminalConfigurationResponse EventType = spiEnum("eventtype", "terminal_configuration_response")
	// EventTypeBatteryLevelChanged - unsolicited battery notification
	EventTypeBatteryLevelChanged EventType = spiEnum("eventtype", "battery_level_changed")
	// EventTypePrintingResponse - reply to a print request
	EventTypePrintingResponse EventType = spiEnum("eventtype", "printing_response")
	// EventTypeTransactionUpdateMessage - progress text from the terminal during a transaction
	EventTypeTransactionUpdateMessage EventType = spiEnum("eventtype", "transaction_update_message")
	// EventTypePayAtTableConfigRequested - the terminal asked for the Pay-at-Table configuration
	EventTypePayAtTableConfigRequested EventType = spiEnum("eventtype", "pay_at_table_config_requested")
)

// Event is delivered to subscribers. Only the fields relevant to the Type are set,
// and they are copies that are never mutated after delivery.
type Event struct {
	Type                  EventType              `json:"type"`
	Status                SpiStatus              `json:"status,omitempty"`
	PairingFlowState      *PairingFlowState      `json:"pairingFlowState,omitempty"`
	TxFlowState           *TransactionFlowState  `json:"txFlowState,omitempty"`
	Secrets               *Secrets               `json:"secrets,omitempty"`
	DeviceAddressStatus   *DeviceAddressStatus   `json:"deviceAddressStatus,omitempty"`
	TerminalStatus        *TerminalStatus        `json:"terminalStatus,omitempty"`
	TerminalConfiguration *TerminalConfiguration `json:"terminalConfiguration,omitempty"`
	Message               *Message               `json:"message,omitempty"`
}
