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

// DeviceAddressStatus is the result of resolving the terminal address from its serial number
type DeviceAddressStatus struct {
	Address                   string                    `json:"ip"`
	LastUpdated               string                    `json:"last_udpated"`
	ResponseCode              DeviceAddressResponseCode `json:"responseCode,omitempty"`
	ResponseStatusDescription string                    `json:"responseStatusDescription,omitempty"`
	ResponseMessage           string                    `json:"responseMessage,omitempty"`
}

// Tenant is an acquirer the terminal can be configured for
type Tenant struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type TerminalStatus struct {
	Status       string `json:"status"`
	BatteryLevel string `json:"batteryLevel"`
	Charging     bool   `json:"charging"`
	Success      bool   `json:"success"`
}

type TerminalConfiguration struct {
	CommsSelected           string `json:"commsSelected"`
	MerchantID              string `json:"merchantId"`
	PAVersion               string `json:"paVersion"`
	PaymentInterfaceVersion string `json:"paymentInterfaceVersion"`
	PluginVersion           string `json:"pluginVersion"`
	SerialNumber            string `json:"serialNumber"`
	TerminalID              string `json:"terminalId"`
	TerminalModel           string `json:"terminalModel"`
	Success                 bool   `json:"success"`
}

func TerminalStatusFromMessage(m *Message) *TerminalStatus {
	return &TerminalStatus{
		Status:       m.Data.GetString("status"),
		BatteryLevel: m.Data.GetString("battery_level"),
		Charging:     m.Data.GetBool("charging"),
		Success:      m.SuccessState() == SuccessStateSuccess,
	}
}

func TerminalConfigurationFromMessage(m *Message) *TerminalConfiguration {
	return &TerminalConfiguration{
		CommsSelected:           m.Data.GetString("comms_selected"),
		MerchantID:              m.Data.GetString("merchant_id"),
		PAVersion:               m.Data.GetString("pa_version"),
		PaymentInterfaceVersion: m.Data.GetString("payment_interface_version"),
		PluginVersion:           m.Data.GetString("plugin_version"),
		SerialNumber:            m.Data.GetString("serial_number"),
		TerminalID:              m.Data.GetString("terminal_id"),
		TerminalModel:           m.Data.GetString("terminal_model"),
		Success:                 m.SuccessState() == SuccessStateSuccess,
	}
}
