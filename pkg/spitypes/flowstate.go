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

import "time"

// PairingFlowState is a snapshot of an in-progress or finished pairing
type PairingFlowState struct {
	Phase                   PairingPhase `json:"phase"`
	Message                 string       `json:"message"`
	ConfirmationCode        string       `json:"confirmationCode,omitempty"`
	AwaitingCheckFromEftpos bool         `json:"awaitingCheckFromEftpos"`
	AwaitingCheckFromPos    bool         `json:"awaitingCheckFromPos"`
	Finished                bool         `json:"finished"`
	Successful              bool         `json:"successful"`
}

// SignatureRequired is what the terminal sends when the customer must sign the merchant receipt
type SignatureRequired struct {
	RequestID       string `json:"requestId"`
	PosRefID        string `json:"posRefId"`
	MerchantReceipt string `json:"merchantReceipt"`
}

// PhoneForAuthRequired is what the terminal sends when the merchant must phone for an authorisation code
type PhoneForAuthRequired struct {
	RequestID   string `json:"requestId"`
	PosRefID    string `json:"posRefId"`
	PhoneNumber string `json:"phoneNumber"`
	MerchantID  string `json:"merchantId"`
}

// TransactionFlowState is a snapshot of the single active transaction
type TransactionFlowState struct {
	PosRefID       string          `json:"posRefId"`
	Type           TransactionType `json:"type"`
	AmountCents    int64           `json:"amountCents"`
	DisplayMessage string          `json:"displayMessage"`
	Phase          TxPhase         `json:"phase"`

	RequestSent            bool   `json:"requestSent"`
	AttemptingToCancel     bool   `json:"attemptingToCancel"`
	AwaitingSignatureCheck bool   `json:"awaitingSignatureCheck"`
	AwaitingPhoneForAuth   bool   `json:"awaitingPhoneForAuth"`
	AwaitingGtResponse     bool   `json:"awaitingGtResponse"`
	LastGtRequestID        string `json:"lastGtRequestId,omitempty"`
	Finished               bool   `json:"finished"`

	Success                     SuccessState          `json:"success"`
	Request                     *Message              `json:"request,omitempty"`
	Response                    *Message              `json:"response,omitempty"`
	SignatureRequiredMessage    *SignatureRequired    `json:"signatureRequired,omitempty"`
	PhoneForAuthRequiredMessage *PhoneForAuthRequired `json:"phoneForAuthRequired,omitempty"`
	// GLTResponsePosRefID is the pos_ref_id found in a get-last-transaction response
	GLTResponsePosRefID string `json:"gltResponsePosRefId,omitempty"`

	RequestTime          time.Time `json:"requestTime"`
	LastStateRequestTime time.Time `json:"lastStateRequestTime"`
	CancelAttemptTime    time.Time `json:"cancelAttemptTime,omitempty"`
	CompletedTime        time.Time `json:"completedTime,omitempty"`
}

// InitiateTxResult is returned by every transaction initiation.
// A false Initiated is a precondition failure, not an error.
type InitiateTxResult struct {
	Initiated bool   `json:"initiated"`
	Message   string `json:"message"`
}

// MidTxResult is returned by signature and cancel actions
type MidTxResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type SubmitAuthCodeResult struct {
	ValidFormat bool   `json:"validFormat"`
	Message     string `json:"message"`
}
