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

import (
	"strings"

	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// GetTransactionResponse reads a get_transaction_response
type GetTransactionResponse struct {
	m *spitypes.Message
}

func NewGetTransactionResponse(m *spitypes.Message) *GetTransactionResponse {
	return &GetTransactionResponse{m: m}
}

func (r *GetTransactionResponse) WasRetrievedSuccessfully() bool {
	return r.m.SuccessState() == spitypes.SuccessStateSuccess
}

func (r *GetTransactionResponse) hasReason(prefix string) bool {
	return strings.HasPrefix(r.m.ErrorReason(), prefix)
}

func (r *GetTransactionResponse) IsWaitingForSignatureResponse() bool {
	return r.hasReason(ErrorReasonAwaitingSignature)
}

func (r *GetTransactionResponse) IsWaitingForAuthCode() bool {
	return r.hasReason(ErrorReasonAwaitingPhoneAuth)
}

func (r *GetTransactionResponse) IsStillInProgress() bool {
	return r.hasReason(ErrorReasonTransactionInProgress)
}

func (r *GetTransactionResponse) IsSomethingElseBlocking() bool {
	return r.hasReason(ErrorReasonSomethingElseInProgress)
}

func (r *GetTransactionResponse) PosRefIDNotFound() bool {
	return r.hasReason(ErrorReasonPosRefIDNotFound)
}

func (r *GetTransactionResponse) PosRefIDInvalid() bool {
	return r.hasReason(ErrorReasonPosRefIDInvalid)
}

func (r *GetTransactionResponse) PosRefIDMissing() bool {
	return r.hasReason(ErrorReasonPosRefIDMissing)
}

func (r *GetTransactionResponse) Error() string {
	return r.m.ErrorReason()
}

func (r *GetTransactionResponse) ErrorDetail() string {
	return r.m.ErrorDetail()
}

func (r *GetTransactionResponse) PosRefID() string {
	return r.m.PosRefID()
}

// TxMessage extracts the embedded transaction, or nil if the terminal did not include one
func (r *GetTransactionResponse) TxMessage() *spitypes.Message {
	tx, ok := r.m.Data.GetObjectOk("tx")
	if !ok || len(tx) == 0 {
		return nil
	}
	return &spitypes.Message{
		ID:              r.m.ID,
		EventName:       EventGetTransactionResponse,
		Data:            tx,
		DateTimeStamp:   r.m.DateTimeStamp,
		PosID:           r.m.PosID,
		ConnID:          r.m.ConnID,
		NeedsEncryption: true,
	}
}

// CopyMerchantReceiptToCustomerReceipt fills the customer receipt when the terminal only sent the merchant copy
func CopyMerchantReceiptToCustomerReceipt(m *spitypes.Message) {
	if m == nil {
		return
	}
	cr := m.Data.GetString("customer_receipt")
	mr := m.Data.GetString("merchant_receipt")
	if strings.TrimSpace(cr) == "" && strings.TrimSpace(mr) != "" {
		m.Data["customer_receipt"] = mr
	}
}

// GetLastTransactionResponse reads a last_transaction
type GetLastTransactionResponse struct {
	m *spitypes.Message
}

func NewGetLastTransactionResponse(m *spitypes.Message) *GetLastTransactionResponse {
	return &GetLastTransactionResponse{m: m}
}

// WasRetrievedSuccessfully is true when the terminal had a transaction to return,
// regardless of whether that transaction itself succeeded
func (r *GetLastTransactionResponse) WasRetrievedSuccessfully() bool {
	return r.m.Data.GetString("host_response_code") != ""
}

func (r *GetLastTransactionResponse) WasTimeOutOfSyncError() bool {
	return strings.HasPrefix(r.m.ErrorReason(), ErrorReasonTimeOutOfSync)
}

func (r *GetLastTransactionResponse) WasOperationInProgressError() bool {
	return strings.HasPrefix(r.m.ErrorReason(), ErrorReasonOperationInProgress)
}

func (r *GetLastTransactionResponse) SuccessState() spitypes.SuccessState {
	return r.m.SuccessState()
}

func (r *GetLastTransactionResponse) PosRefID() string {
	return r.m.PosRefID()
}

// CancelTransactionResponse reads a cancel_response
type CancelTransactionResponse struct {
	m *spitypes.Message
}

func NewCancelTransactionResponse(m *spitypes.Message) *CancelTransactionResponse {
	return &CancelTransactionResponse{m: m}
}

func (r *CancelTransactionResponse) Success() bool {
	return r.m.SuccessState() == spitypes.SuccessStateSuccess
}

func (r *CancelTransactionResponse) PosRefID() string {
	return r.m.PosRefID()
}

func (r *CancelTransactionResponse) ErrorReason() string {
	return r.m.ErrorReason()
}

func (r *CancelTransactionResponse) ErrorDetail() string {
	return r.m.ErrorDetail()
}

func (r *CancelTransactionResponse) WasTxnPastPointOfNoReturn() bool {
	return strings.HasPrefix(r.m.ErrorReason(), ErrorReasonPastPointOfNoReturn)
}

// SignatureRequired builds the signature request held by the flow
func SignatureRequired(m *spitypes.Message) *spitypes.SignatureRequired {
	return &spitypes.SignatureRequired{
		RequestID:       m.ID,
		PosRefID:        m.PosRefID(),
		MerchantReceipt: m.Data.GetString("merchant_receipt"),
	}
}

// PhoneForAuthRequired builds the auth code request held by the flow
func PhoneForAuthRequired(m *spitypes.Message) *spitypes.PhoneForAuthRequired {
	return &spitypes.PhoneForAuthRequired{
		RequestID:   m.ID,
		PosRefID:    m.PosRefID(),
		PhoneNumber: m.Data.GetString("auth_centre_phone_number"),
		MerchantID:  m.Data.GetString("merchant_id"),
	}
}
