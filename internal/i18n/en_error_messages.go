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

package i18n

//revive:disable
var (
	MsgConfigFailed             = ffe("SPI10101", "Failed to read config")
	MsgContextCanceled          = ffe("SPI10102", "Context cancelled")
	MsgInvalidURL               = ffe("SPI10103", "Invalid URL: '%s'")
	MsgWSConnectFailed          = ffe("SPI10104", "WebSocket connect to %s failed")
	MsgWSClosing                = ffe("SPI10105", "WebSocket closing")
	MsgWSUnexpectedStatus       = ffe("SPI10106", "WebSocket upgrade to %s returned status %d")
	MsgMessageParseFailed       = ffe("SPI10110", "Failed to parse incoming message: %s")
	MsgMessageEncodeFailed      = ffe("SPI10111", "Failed to encode message '%s'")
	MsgEncryptFailed            = ffe("SPI10112", "Failed to encrypt message")
	MsgDecryptFailed            = ffe("SPI10113", "Failed to decrypt message")
	MsgInvalidKeyLength         = ffe("SPI10114", "Invalid key: expected %d bytes, got %d")
	MsgInvalidPadding           = ffe("SPI10115", "Invalid PKCS7 padding on decrypted message")
	MsgInvalidHex               = ffe("SPI10116", "Invalid hex value")
	MsgInvalidDHPublicValue     = ffe("SPI10117", "Invalid Diffie-Hellman public value")
	MsgMissingSecrets           = ffe("SPI10118", "No secrets available to encrypt message '%s'")
	MsgKeyRequestMissingValue   = ffe("SPI10119", "Key request is missing the '%s' public value")
	MsgInvalidTxTransition      = ffe("SPI10120", "Transaction flow cannot move to '%s' while in phase '%s'")
	MsgTxFlowFinished           = ffe("SPI10121", "Transaction flow for '%s' is already finished")
	MsgInvalidPairingTransition = ffe("SPI10122", "Pairing flow cannot move to '%s' while in phase '%s'")
	MsgMissingPosVendorInfo     = ffe("SPI10130", "POS vendor id and POS version must be set before starting")
	MsgClientStopped            = ffe("SPI10131", "SPI client has been stopped")
	MsgClientAlreadyStarted     = ffe("SPI10132", "SPI client has already been started")
	MsgDeviceServiceError       = ffe("SPI10140", "Device address service request failed: %s")
	MsgTenantsServiceError      = ffe("SPI10141", "Tenant list request failed: %s")
	MsgAnalyticsServiceError    = ffe("SPI10142", "Transaction report request failed: %s")
	MsgMissingDeviceLookupInfo  = ffe("SPI10143", "Serial number, device API key and tenant code are required to resolve the terminal address")
	MsgInvalidOutputOption      = ffe("SPI20101", "Invalid output option '%s'")
	MsgSecretsFileReadFailed    = ffe("SPI20102", "Failed to read secrets file '%s'")
	MsgSecretsFileWriteFailed   = ffe("SPI20103", "Failed to write secrets file '%s'")
	MsgNoSecrets                = ffe("SPI20104", "No secrets found in '%s', pair with the terminal first")
	MsgWaitTimeout              = ffe("SPI20105", "Timed out waiting for %s")
	MsgPairingFailed            = ffe("SPI20106", "Pairing failed: %s")
	MsgTxNotInitiated           = ffe("SPI20107", "Transaction not initiated: %s")
	MsgInvalidTxType            = ffe("SPI20108", "Invalid transaction type '%s'")
	MsgMetricsServerFailed      = ffe("SPI20109", "Unable to start metrics listener on %s: %s")
)
