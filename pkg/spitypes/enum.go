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

import (
	"strings"
)

type SpiEnum string

var enumValues = map[string][]interface{}{}

func spiEnum(t string, val string) SpiEnum {
	enumValues[t] = append(enumValues[t], val)
	return SpiEnum(val)
}

func SpiEnumValues(t string) []interface{} {
	return enumValues[t]
}

// SpiEnumParse returns the registered value of type t matching s case-insensitively
func SpiEnumParse(t string, s string) (SpiEnum, bool) {
	for _, v := range enumValues[t] {
		if strings.EqualFold(v.(string), s) {
			return SpiEnum(v.(string)), true
		}
	}
	return "", false
}

func (e SpiEnum) String() string {
	return strings.ToLower(string(e))
}

func (e SpiEnum) Equals(e2 SpiEnum) bool {
	return strings.EqualFold(string(e), string(e2))
}

func (e *SpiEnum) UnmarshalText(b []byte) error {
	*e = SpiEnum(strings.ToLower(string(b)))
	return nil
}

// SpiStatus is the pairing and connection status of the client
type SpiStatus = SpiEnum

var (
	SpiStatusUnpaired         SpiStatus = spiEnum("spistatus", "unpaired")
	SpiStatusPairedConnecting SpiStatus = spiEnum("spistatus", "paired_connecting")
	SpiStatusPairedConnected  SpiStatus = spiEnum("spistatus", "paired_connected")
)

// SpiFlow is the top-level mode of the client
type SpiFlow = SpiEnum

var (
	SpiFlowIdle        SpiFlow = spiEnum("spiflow", "idle")
	SpiFlowPairing     SpiFlow = spiEnum("spiflow", "pairing")
	SpiFlowTransaction SpiFlow = spiEnum("spiflow", "transaction")
)

// TransactionType is the kind of transaction held in a transaction flow
type TransactionType = SpiEnum

var (
	TransactionTypePurchase           TransactionType = spiEnum("txtype", "purchase")
	TransactionTypeRefund             TransactionType = spiEnum("txtype", "refund")
	TransactionTypeCashoutOnly        TransactionType = spiEnum("txtype", "cashout_only")
	TransactionTypeMOTO               TransactionType = spiEnum("txtype", "moto")
	TransactionTypeSettle             TransactionType = spiEnum("txtype", "settle")
	TransactionTypeSettlementEnquiry  TransactionType = spiEnum("txtype", "settlement_enquiry")
	TransactionTypeGetLastTransaction TransactionType = spiEnum("txtype", "get_last_transaction")
	TransactionTypeGetTransaction     TransactionType = spiEnum("txtype", "get_transaction")
	TransactionTypePreauth            TransactionType = spiEnum("txtype", "preauth")
	TransactionTypeAccountVerify      TransactionType = spiEnum("txtype", "account_verify")
	TransactionTypeReversal           TransactionType = spiEnum("txtype", "reversal")
)

// SuccessState is the outcome carried by a response, or of a finished flow
type SuccessState = SpiEnum

var (
	SuccessStateUnknown SuccessState = spiEnum("successstate", "unknown")
	SuccessStateSuccess SuccessState = spiEnum("successstate", "success")
	SuccessStateFailed  SuccessState = spiEnum("successstate", "failed")
)

// TxPhase is the main phase of a transaction flow
type TxPhase = SpiEnum

var (
	TxPhaseWaitingForConnection TxPhase = spiEnum("txphase", "waiting_for_connection")
	TxPhaseRequested            TxPhase = spiEnum("txphase", "requested")
	TxPhaseAwaitingSignature    TxPhase = spiEnum("txphase", "awaiting_signature")
	TxPhaseAwaitingPhoneAuth    TxPhase = spiEnum("txphase", "awaiting_phone_auth")
	TxPhaseFinished             TxPhase = spiEnum("txphase", "finished")
)

// PairingPhase is the phase of a pairing flow
type PairingPhase = SpiEnum

var (
	PairingPhaseNotPairing               PairingPhase = spiEnum("pairingphase", "not_pairing")
	PairingPhaseConnecting               PairingPhase = spiEnum("pairingphase", "connecting")
	PairingPhaseKeyExchanging            PairingPhase = spiEnum("pairingphase", "key_exchanging")
	PairingPhaseAwaitingCodeConfirmation PairingPhase = spiEnum("pairingphase", "awaiting_code_confirmation")
	PairingPhasePaired                   PairingPhase = spiEnum("pairingphase", "paired")
	PairingPhaseFailed                   PairingPhase = spiEnum("pairingphase", "failed")
)

// ConnectionState is the state of the terminal connection
type ConnectionState = SpiEnum

var (
	ConnectionStateDisconnected ConnectionState = spiEnum("connectionstate", "disconnected")
	ConnectionStateConnecting   ConnectionState = spiEnum("connectionstate", "connecting")
	ConnectionStateConnected    ConnectionState = spiEnum("connectionstate", "connected")
)

// DeviceAddressResponseCode is the outcome of a device address lookup
type DeviceAddressResponseCode = SpiEnum

var (
	DeviceAddressResponseCodeSuccess                DeviceAddressResponseCode = spiEnum("deviceaddressresponsecode", "success")
	DeviceAddressResponseCodeInvalidSerialNumber    DeviceAddressResponseCode = spiEnum("deviceaddressresponsecode", "invalid_serial_number")
	DeviceAddressResponseCodeAddressNotChanged      DeviceAddressResponseCode = spiEnum("deviceaddressresponsecode", "address_not_changed")
	DeviceAddressResponseCodeSerialNumberNotChanged DeviceAddressResponseCode = spiEnum("deviceaddressresponsecode", "serial_number_not_changed")
	DeviceAddressResponseCodeDeviceServiceError     DeviceAddressResponseCode = spiEnum("deviceaddressresponsecode", "device_service_error")
)
