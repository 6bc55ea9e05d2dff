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

package pairing

import (
	"context"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

const confirmationCodeLength = 6

// Flow is one pairing attempt, from the first connect to Paired or Failed.
// It holds no connection or secrets; the caller acts on what each transition returns.
type Flow struct {
	state spitypes.PairingFlowState
}

func NewFlow() *Flow {
	return &Flow{
		state: spitypes.PairingFlowState{
			Phase:   spitypes.PairingPhaseConnecting,
			Message: "Connecting...",
		},
	}
}

// Snapshot is a copy that is safe to hand to subscribers
func (f *Flow) Snapshot() *spitypes.PairingFlowState {
	s := f.state
	return &s
}

func (f *Flow) Phase() spitypes.PairingPhase {
	return f.state.Phase
}

func (f *Flow) Finished() bool {
	return f.state.Finished
}

func (f *Flow) transition(ctx context.Context, to spitypes.PairingPhase, from ...spitypes.PairingPhase) error {
	for _, p := range from {
		if f.state.Phase == p {
			f.state.Phase = to
			return nil
		}
	}
	return i18n.NewError(ctx, i18n.MsgInvalidPairingTransition, to, f.state.Phase)
}

// Restart goes back to Connecting for another attempt on a new connection. A finished flow is left alone.
func (f *Flow) Restart() {
	if f.state.Finished {
		return
	}
	f.state = spitypes.PairingFlowState{
		Phase:   spitypes.PairingPhaseConnecting,
		Message: "Connecting...",
	}
}

// PairRequestSent is called once the transport reaches Connected and the pair request has gone out
func (f *Flow) PairRequestSent(ctx context.Context) error {
	if err := f.transition(ctx, spitypes.PairingPhaseKeyExchanging, spitypes.PairingPhaseConnecting); err != nil {
		return err
	}
	f.state.Message = "Requesting to Pair..."
	return nil
}

func (f *Flow) KeyRequestReceived(ctx context.Context) error {
	if err := f.transition(ctx, spitypes.PairingPhaseKeyExchanging,
		spitypes.PairingPhaseConnecting, spitypes.PairingPhaseKeyExchanging); err != nil {
		return err
	}
	f.state.Message = "Negotiating Pairing..."
	return nil
}

// KeyCheckReceived shows the confirmation code, which both sides must now confirm
func (f *Flow) KeyCheckReceived(ctx context.Context, keyCheck *spitypes.Message) error {
	if err := f.transition(ctx, spitypes.PairingPhaseAwaitingCodeConfirmation, spitypes.PairingPhaseKeyExchanging); err != nil {
		return err
	}
	f.state.ConfirmationCode = ConfirmationCode(keyCheck)
	f.state.AwaitingCheckFromEftpos = true
	f.state.AwaitingCheckFromPos = true
	f.state.Message = "Confirm that the following Code is showing on the Terminal"
	return nil
}

// ConfirmFromPos records the user confirming the code. Paired is returned true when the
// terminal had already confirmed, so this confirmation completes the pairing.
// Changed is false when we were not waiting for the POS.
func (f *Flow) ConfirmFromPos() (changed, paired bool) {
	if f.state.Finished || !f.state.AwaitingCheckFromPos {
		return false, false
	}
	f.state.AwaitingCheckFromPos = false
	if f.state.AwaitingCheckFromEftpos {
		f.state.Message = "Click YES on EFTPOS if code is: " + f.state.ConfirmationCode
		return true, false
	}
	f.succeed()
	return true, true
}

// PairResponseReceived applies the terminal's verdict. A successful response also
// confirms on behalf of a POS that has not confirmed yet.
func (f *Flow) PairResponseReceived(success bool) {
	if f.state.Finished {
		return
	}
	f.state.AwaitingCheckFromEftpos = false
	if !success {
		f.Fail()
		return
	}
	f.state.AwaitingCheckFromPos = false
	f.succeed()
}

// TerminalAlreadyPaired is true when the terminal has confirmed but the POS has not,
// in which case cancelling must tell the terminal to drop its keys
func (f *Flow) TerminalAlreadyPaired() bool {
	return f.state.AwaitingCheckFromPos && !f.state.AwaitingCheckFromEftpos
}

func (f *Flow) succeed() {
	f.state.Phase = spitypes.PairingPhasePaired
	f.state.Successful = true
	f.state.Finished = true
	f.state.Message = "Pairing Successful!"
}

func (f *Flow) Fail() {
	f.state.Phase = spitypes.PairingPhaseFailed
	f.state.Message = "Pairing Failed"
	f.state.Finished = true
	f.state.Successful = false
	f.state.AwaitingCheckFromPos = false
}

// ConfirmationCode is the code both screens show, taken from the start of the key check signature
func ConfirmationCode(keyCheck *spitypes.Message) string {
	if len(keyCheck.IncomingHmac) < confirmationCodeLength {
		return keyCheck.IncomingHmac
	}
	return keyCheck.IncomingHmac[:confirmationCodeLength]
}
