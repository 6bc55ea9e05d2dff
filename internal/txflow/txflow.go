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

package txflow

import (
	"context"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// Flow is the single active transaction. Cancelling and awaiting a get-transaction
// response are orthogonal to the phase, and nothing moves a Finished flow.
type Flow struct {
	posRefID       string
	txType         spitypes.TransactionType
	amountCents    int64
	displayMessage string
	phase          spitypes.TxPhase

	cancelling      bool
	awaitingGt      bool
	lastGtRequestID string

	success             spitypes.SuccessState
	request             *spitypes.Message
	response            *spitypes.Message
	signatureRequired   *spitypes.SignatureRequired
	phoneForAuth        *spitypes.PhoneForAuthRequired
	gltResponsePosRefID string

	requestSent          bool
	requestTime          time.Time
	lastStateRequestTime time.Time
	cancelAttemptTime    time.Time
	completedTime        time.Time
}

func New(posRefID string, txType spitypes.TransactionType, amountCents int64, request *spitypes.Message, displayMessage string, now time.Time) *Flow {
	return &Flow{
		posRefID:             posRefID,
		txType:               txType,
		amountCents:          amountCents,
		displayMessage:       displayMessage,
		phase:                spitypes.TxPhaseWaitingForConnection,
		success:              spitypes.SuccessStateUnknown,
		request:              request,
		requestTime:          now,
		lastStateRequestTime: now,
	}
}

func (f *Flow) PosRefID() string { return f.posRefID }
func (f *Flow) Type() spitypes.TransactionType { return f.txType }
func (f *Flow) Phase() spitypes.TxPhase { return f.phase }
func (f *Flow) Finished() bool { return f.phase == spitypes.TxPhaseFinished }
func (f *Flow) RequestSent() bool { return f.requestSent }
func (f *Flow) Request() *spitypes.Message { return f.request }
func (f *Flow) Response() *spitypes.Message { return f.response }
func (f *Flow) Success() spitypes.SuccessState { return f.success }
func (f *Flow) Cancelling() bool { return f.cancelling }
func (f *Flow) AwaitingGtResponse() bool { return f.awaitingGt }
func (f *Flow) LastGtRequestID() string { return f.lastGtRequestID }
func (f *Flow) AwaitingSignatureCheck() bool { return f.phase == spitypes.TxPhaseAwaitingSignature }
func (f *Flow) AwaitingPhoneForAuth() bool { return f.phase == spitypes.TxPhaseAwaitingPhoneAuth }
func (f *Flow) DisplayMessage() string { return f.displayMessage }
func (f *Flow) RequestTime() time.Time { return f.requestTime }
func (f *Flow) LastStateRequestTime() time.Time { return f.lastStateRequestTime }
func (f *Flow) CancelAttemptTime() time.Time { return f.cancelAttemptTime }
func (f *Flow) CompletedTime() time.Time { return f.completedTime }
func (f *Flow) GLTResponsePosRefID() string { return f.gltResponsePosRefID }
func (f *Flow) SetGLTResponsePosRefID(posRefID string) { f.gltResponsePosRefID = posRefID }

func (f *Flow) move(ctx context.Context, to spitypes.TxPhase, from ...spitypes.TxPhase) error {
	if f.Finished() {
		return i18n.NewError(ctx, i18n.MsgTxFlowFinished, f.posRefID)
	}
	for _, p := range from {
		if f.phase == p {
			f.phase = to
			return nil
		}
	}
	return i18n.NewError(ctx, i18n.MsgInvalidTxTransition, to, f.phase)
}

var sentPhases = []spitypes.TxPhase{
	spitypes.TxPhaseRequested,
	spitypes.TxPhaseAwaitingSignature,
	spitypes.TxPhaseAwaitingPhoneAuth,
}

// Sent records that the request reached the transport
func (f *Flow) Sent(ctx context.Context, displayMessage string, now time.Time) error {
	if err := f.move(ctx, spitypes.TxPhaseRequested, spitypes.TxPhaseWaitingForConnection); err != nil {
		return err
	}
	f.requestSent = true
	f.requestTime = now
	f.lastStateRequestTime = now
	f.displayMessage = displayMessage
	return nil
}

// StartCancelling is only valid once the request is with the terminal. A request that was
// never sent is failed with Failed instead.
func (f *Flow) StartCancelling(ctx context.Context, displayMessage string, now time.Time) error {
	if err := f.move(ctx, f.phase, sentPhases...); err != nil {
		return err
	}
	f.cancelling = true
	f.cancelAttemptTime = now
	f.displayMessage = displayMessage
	return nil
}

func (f *Flow) CancelFailed(ctx context.Context, displayMessage string) error {
	if f.Finished() {
		return i18n.NewError(ctx, i18n.MsgTxFlowFinished, f.posRefID)
	}
	f.cancelling = false
	f.displayMessage = displayMessage
	return nil
}

// CallingGt records the id of the get-transaction request, so only its response is accepted
func (f *Flow) CallingGt(ctx context.Context, gtRequestID string, now time.Time) error {
	if err := f.move(ctx, f.phase, sentPhases...); err != nil {
		return err
	}
	f.awaitingGt = true
	f.lastGtRequestID = gtRequestID
	f.lastStateRequestTime = now
	return nil
}

func (f *Flow) GotGtResponse() {
	f.awaitingGt = false
}

// StateRequested restarts the silence window, after re-sending a get-last-transaction
func (f *Flow) StateRequested(now time.Time) {
	f.lastStateRequestTime = now
}

func (f *Flow) SignatureRequired(ctx context.Context, sig *spitypes.SignatureRequired, displayMessage string) error {
	if err := f.move(ctx, spitypes.TxPhaseAwaitingSignature, sentPhases...); err != nil {
		return err
	}
	f.signatureRequired = sig
	f.displayMessage = displayMessage
	return nil
}

// SignatureResponded goes back to waiting for the outcome, whether accepted or declined
func (f *Flow) SignatureResponded(ctx context.Context, displayMessage string) error {
	if err := f.move(ctx, spitypes.TxPhaseRequested, spitypes.TxPhaseAwaitingSignature); err != nil {
		return err
	}
	f.displayMessage = displayMessage
	return nil
}

func (f *Flow) PhoneForAuthRequired(ctx context.Context, p *spitypes.PhoneForAuthRequired, displayMessage string) error {
	if err := f.move(ctx, spitypes.TxPhaseAwaitingPhoneAuth, sentPhases...); err != nil {
		return err
	}
	f.phoneForAuth = p
	f.displayMessage = displayMessage
	return nil
}

func (f *Flow) AuthCodeSent(ctx context.Context, displayMessage string) error {
	if err := f.move(ctx, spitypes.TxPhaseRequested, spitypes.TxPhaseAwaitingPhoneAuth); err != nil {
		return err
	}
	f.displayMessage = displayMessage
	return nil
}

// Completed finishes the flow with the outcome the terminal reported
func (f *Flow) Completed(ctx context.Context, state spitypes.SuccessState, response *spitypes.Message, displayMessage string, now time.Time) error {
	if f.Finished() {
		return i18n.NewError(ctx, i18n.MsgTxFlowFinished, f.posRefID)
	}
	f.phase = spitypes.TxPhaseFinished
	f.success = state
	f.response = response
	f.cancelling = false
	f.awaitingGt = false
	f.displayMessage = displayMessage
	f.completedTime = now
	return nil
}

// UnknownCompleted finishes a flow whose outcome cannot be determined, which must be reconciled by hand
func (f *Flow) UnknownCompleted(ctx context.Context, displayMessage string, now time.Time) error {
	return f.Completed(ctx, spitypes.SuccessStateUnknown, nil, displayMessage, now)
}

// Failed finishes a flow that is known not to have happened
func (f *Flow) Failed(ctx context.Context, response *spitypes.Message, displayMessage string, now time.Time) error {
	return f.Completed(ctx, spitypes.SuccessStateFailed, response, displayMessage, now)
}

// Snapshot is a deep enough copy for subscribers: the messages are copied, their
// nested data is shared but never mutated after receipt
func (f *Flow) Snapshot() *spitypes.TransactionFlowState {
	s := &spitypes.TransactionFlowState{
		PosRefID:               f.posRefID,
		Type:                   f.txType,
		AmountCents:            f.amountCents,
		DisplayMessage:         f.displayMessage,
		Phase:                  f.phase,
		RequestSent:            f.requestSent,
		AttemptingToCancel:     f.cancelling,
		AwaitingSignatureCheck: f.AwaitingSignatureCheck(),
		AwaitingPhoneForAuth:   f.AwaitingPhoneForAuth(),
		AwaitingGtResponse:     f.awaitingGt,
		LastGtRequestID:        f.lastGtRequestID,
		Finished:               f.Finished(),
		Success:                f.success,
		Request:                f.request.Copy(),
		Response:               f.response.Copy(),
		GLTResponsePosRefID:    f.gltResponsePosRefID,
		RequestTime:            f.requestTime,
		LastStateRequestTime:   f.lastStateRequestTime,
		CancelAttemptTime:      f.cancelAttemptTime,
		CompletedTime:          f.completedTime,
	}
	if f.signatureRequired != nil {
		sig := *f.signatureRequired
		s.SignatureRequiredMessage = &sig
	}
	if f.phoneForAuth != nil {
		p := *f.phoneForAuth
		s.PhoneForAuthRequiredMessage = &p
	}
	return s
}
