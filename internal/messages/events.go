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

package messages

import "strings"

// Event names on the wire
const (
	EventPairRequest  = "pair_request"
	EventKeyRequest   = "key_request"
	EventKeyResponse  = "key_response"
	EventKeyCheck     = "key_check"
	EventPairResponse = "pair_response"
	EventDropKeys     = "drop_keys"

	EventPing = "ping"
	EventPong = "pong"

	EventKeyRollRequest  = "request_use_next_keys"
	EventKeyRollResponse = "response_use_next_keys"

	EventSetPosInfoRequest  = "set_pos_info"
	EventSetPosInfoResponse = "set_pos_info_response"

	EventPurchaseRequest      = "purchase"
	EventPurchaseResponse     = "purchase_response"
	EventRefundRequest        = "refund"
	EventRefundResponse       = "refund_response"
	EventCashoutOnlyRequest   = "cash"
	EventCashoutOnlyResponse  = "cash_response"
	EventMotoPurchaseRequest  = "moto_purchase"
	EventMotoPurchaseResponse = "moto_purchase_response"

	EventSignatureRequired = "signature_required"
	EventSignatureDeclined = "signature_decline"
	EventSignatureAccepted = "signature_accept"

	EventAuthCodeRequired = "authorisation_code_required"
	EventAuthCodeAdvice   = "authorisation_code_advice"

	EventCancelTransactionRequest  = "cancel_transaction"
	EventCancelTransactionResponse = "cancel_response"

	EventGetTransactionRequest      = "get_transaction"
	EventGetTransactionResponse     = "get_transaction_response"
	EventGetLastTransactionRequest  = "get_last_transaction"
	EventGetLastTransactionResponse = "last_transaction"

	EventSettleRequest             = "settle"
	EventSettleResponse            = "settle_response"
	EventSettlementEnquiryRequest  = "settlement_enquiry"
	EventSettlementEnquiryResponse = "settlement_enquiry_response"

	EventReversalRequest  = "reversal"
	EventReversalResponse = "reversal_response"

	EventPrintingRequest               = "print"
	EventPrintingResponse              = "print_response"
	EventTerminalStatusRequest         = "get_terminal_status"
	EventTerminalStatusResponse        = "terminal_status"
	EventTerminalConfigurationRequest  = "get_terminal_configuration"
	EventTerminalConfigurationResponse = "terminal_configuration"
	EventBatteryLevelChanged           = "battery_level_changed"
	EventTransactionUpdateMessage      = "txn_update_message"

	EventPayAtTableGetTableConfig = "get_table_config"
	EventPayAtTableSetTableConfig = "set_table_config"

	EventAccountVerifyRequest               = "account_verify"
	EventAccountVerifyResponse              = "account_verify_response"
	EventPreauthOpenRequest                 = "preauth"
	EventPreauthOpenResponse                = "preauth_response"
	EventPreauthTopupRequest                = "preauth_topup"
	EventPreauthTopupResponse               = "preauth_topup_response"
	EventPreauthExtendRequest               = "preauth_extend"
	EventPreauthExtendResponse              = "preauth_extend_response"
	EventPreauthPartialCancellationRequest  = "preauth_partial_cancellation"
	EventPreauthPartialCancellationResponse = "preauth_partial_cancellation_response"
	EventPreauthCancellationRequest         = "preauth_cancellation"
	EventPreauthCancellationResponse        = "preauth_cancellation_response"
	EventPreauthCompleteRequest             = "completion"
	EventPreauthCompleteResponse            = "completion_response"

	EventError = "error"

	// EventInvalidHmacSignature is never sent by the terminal. The codec substitutes it for
	// any encrypted message whose signature does not verify.
	EventInvalidHmacSignature = "_INVALID_SIGNATURE_"
)

// Error reasons the flow logic branches on
const (
	ErrorReasonNoTransaction           = "NO_TRANSACTION"
	ErrorReasonPastPointOfNoReturn     = "TXN_PAST_POINT_OF_NO_RETURN"
	ErrorReasonAwaitingSignature       = "OPERATION_IN_PROGRESS_AWAITING_SIGNATURE"
	ErrorReasonAwaitingPhoneAuth       = "OPERATION_IN_PROGRESS_AWAITING_PHONE_AUTH_CODE"
	ErrorReasonTransactionInProgress   = "TRANSACTION_IN_PROGRESS"
	ErrorReasonSomethingElseInProgress = "SOMETHING_ELSE_IN_PROGRESS"
	ErrorReasonPosRefIDNotFound        = "POS_REF_ID_NOT_FOUND"
	ErrorReasonPosRefIDInvalid         = "INVALID_ARGUMENTS"
	ErrorReasonPosRefIDMissing         = "MISSING_ARGUMENTS"
	ErrorReasonTimeOutOfSync           = "TIME_OUT_OF_SYNC"
	ErrorReasonOperationInProgress     = "OPERATION_IN_PROGRESS"
)

// IsPreauthEvent covers the account verify and preauth family, which share a handler
func IsPreauthEvent(eventName string) bool {
	return strings.HasPrefix(eventName, "preauth") ||
		eventName == EventPreauthCompleteRequest ||
		eventName == EventPreauthCompleteResponse ||
		eventName == EventAccountVerifyRequest ||
		eventName == EventAccountVerifyResponse
}
