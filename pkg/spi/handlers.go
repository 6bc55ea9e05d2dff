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
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/internal/txflow"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// onMessage decodes one frame from the terminal and routes it by event name
func (c *client) onMessage(raw string) {
	m, err := c.stamp.FromJSON(c.ctx, raw)
	if err != nil {
		log.L(c.ctx).Errorf("Dropping message that could not be read: %s", err)
		return
	}
	log.L(c.ctx).Debugf("Received: %s", m.DecryptedJSON)

	if messages.IsPreauthEvent(m.EventName) {
		c.handlePreauthMessage(m)
		return
	}

	switch m.EventName {
	case messages.EventKeyRequest:
		c.handleKeyRequest(m)
	case messages.EventKeyCheck:
		c.handleKeyCheck(m)
	case messages.EventPairResponse:
		c.handlePairResponse(m)
	case messages.EventDropKeys:
		c.handleDropKeysAdvice()
	case messages.EventPurchaseResponse:
		c.handleTxResponse(m, "Received Purchase response but I was not waiting for one.", "Purchase Transaction Ended.")
	case messages.EventRefundResponse:
		c.handleTxResponse(m, "Received Refund response but I was not waiting for this one.", "Refund Transaction Ended.")
	case messages.EventCashoutOnlyResponse:
		c.handleTxResponse(m, "Received Cashout Response but I was not waiting for one.", "Cashout Transaction Ended.")
	case messages.EventMotoPurchaseResponse:
		c.handleTxResponse(m, "Received Moto Response but I was not waiting for one.", "Moto Transaction Ended.")
	case messages.EventReversalResponse:
		c.handleTxResponse(m, "Received Reversal response but I was not waiting for this one.", "Reversal Transaction Ended.")
	case messages.EventSignatureRequired:
		c.handleSignatureRequired(m)
	case messages.EventAuthCodeRequired:
		c.handleAuthCodeRequired(m)
	case messages.EventGetTransactionResponse:
		c.handleGetTransactionResponse(m)
	case messages.EventGetLastTransactionResponse:
		c.handleGetLastTransactionResponse(m)
	case messages.EventSettleResponse:
		c.handleSettleResponse(m, "Received Settle response but I was not waiting for one. %s", "Settle Transaction Ended.")
	case messages.EventSettlementEnquiryResponse:
		c.handleSettleResponse(m, "Received Settlement Enquiry response but I was not waiting for one. %s", "Settlement Enquiry Ended.")
	case messages.EventPing:
		c.handleIncomingPing(m)
	case messages.EventPong:
		c.handlePong(m)
	case messages.EventKeyRollRequest:
		c.handleKeyRollRequest(m)
	case messages.EventCancelTransactionResponse:
		c.handleCancelTransactionResponse(m)
	case messages.EventSetPosInfoResponse:
		c.handleSetPosInfoResponse(m)
	case messages.EventPayAtTableGetTableConfig:
		c.handleGetTableConfig(m)
	case messages.EventPrintingResponse:
		c.emitMessage(spitypes.EventTypePrintingResponse, m)
	case messages.EventTerminalStatusResponse:
		c.events.Dispatch(&spitypes.Event{
			Type:           spitypes.EventTypeTerminalStatusResponse,
			TerminalStatus: spitypes.TerminalStatusFromMessage(m),
			Message:        m,
		})
	case messages.EventTerminalConfigurationResponse:
		c.handleTerminalConfigurationResponse(m)
	case messages.EventBatteryLevelChanged:
		c.emitMessage(spitypes.EventTypeBatteryLevelChanged, m)
	case messages.EventTransactionUpdateMessage:
		c.emitMessage(spitypes.EventTypeTransactionUpdateMessage, m)
	case messages.EventError:
		c.handleErrorEvent(m)
	case messages.EventInvalidHmacSignature:
		log.L(c.ctx).Infof("I could not verify message from Eftpos. You might have to Un-pair Eftpos and then reconnect.")
		if c.metrics.IsMetricsEnabled() {
			c.metrics.InvalidSignature()
		}
	default:
		log.L(c.ctx).Infof("I don't Understand Event: %s, %s. Perhaps I have not implemented it yet.", m.EventName, m.Data)
	}
}

func (c *client) emitMessage(eventType spitypes.EventType, m *spitypes.Message) {
	c.events.Dispatch(&spitypes.Event{Type: eventType, Message: m})
}

// handleTxResponse finishes the active flow with the outcome of a response keyed by pos_ref_id
func (c *client) handleTxResponse(m *spitypes.Message, notWaiting, ended string) {
	posRefID := m.PosRefID()
	if !c.matchingTx(posRefID) {
		log.L(c.ctx).Infof("%s Incoming Pos Ref ID: %s", notWaiting, posRefID)
		return
	}
	_ = c.txFlow.Completed(c.ctx, m.SuccessState(), m, ended, c.clock.Now())
	c.txUpdated()
}

func (c *client) handlePreauthMessage(m *spitypes.Message) {
	switch m.EventName {
	case messages.EventAccountVerifyResponse:
		c.handleTxResponse(m, "Received Account Verify response but I was not waiting for one.", "Account Verify Transaction Ended.")
	case messages.EventPreauthOpenResponse,
		messages.EventPreauthTopupResponse,
		messages.EventPreauthPartialCancellationResponse,
		messages.EventPreauthExtendResponse,
		messages.EventPreauthCompleteResponse,
		messages.EventPreauthCancellationResponse:
		c.handleTxResponse(m, "Received Preauth response but I was not waiting for one.", "Preauth Transaction Ended.")
	default:
		log.L(c.ctx).Infof("I don't Understand Preauth Event: %s, %s. Perhaps I have not implemented it yet.", m.EventName, m.Data)
	}
}

// handleSettleResponse has no pos_ref_id to match, so any active flow takes it
func (c *client) handleSettleResponse(m *spitypes.Message, notWaiting, ended string) {
	if !c.activeTx() {
		log.L(c.ctx).Infof(notWaiting, m.DecryptedJSON)
		return
	}
	_ = c.txFlow.Completed(c.ctx, m.SuccessState(), m, ended, c.clock.Now())
	c.txUpdated()
}

func (c *client) handleSignatureRequired(m *spitypes.Message) {
	posRefID := m.PosRefID()
	if !c.matchingTx(posRefID) {
		log.L(c.ctx).Infof("Received Signature Required but I was not waiting for one. Incoming Pos Ref ID: %s", posRefID)
		return
	}
	if err := c.txFlow.SignatureRequired(c.ctx, messages.SignatureRequired(m), "Ask Customer to Sign the Receipt"); err != nil {
		log.L(c.ctx).Warnf("Ignoring signature request: %s", err)
		return
	}
	c.emitTxFlow()
}

func (c *client) handleAuthCodeRequired(m *spitypes.Message) {
	posRefID := m.PosRefID()
	if !c.matchingTx(posRefID) {
		log.L(c.ctx).Infof("Received Auth Code Required but I was not waiting for one. Incoming Pos Ref ID: %s", posRefID)
		return
	}
	p := messages.PhoneForAuthRequired(m)
	displayMessage := "Auth Code Required. Call " + p.PhoneNumber + " and quote merchant id " + p.MerchantID
	if err := c.txFlow.PhoneForAuthRequired(c.ctx, p, displayMessage); err != nil {
		log.L(c.ctx).Warnf("Ignoring auth code request: %s", err)
		return
	}
	c.emitTxFlow()
}

// handleGetTransactionResponse resolves the active flow from the terminal's record of it. Only the
// response to the latest get-transaction request is accepted, and a terminal that is still busy
// leaves the flow waiting for the next check.
func (c *client) handleGetTransactionResponse(m *spitypes.Message) {
	if !c.activeTx() {
		log.L(c.ctx).Infof("Received gt response but we were not in the middle of a tx. ignoring.")
		return
	}
	if !c.txFlow.AwaitingGtResponse() {
		log.L(c.ctx).Infof("Received a gt response but we had not asked for one within this transaction. Perhaps leftover from previous one. ignoring.")
		return
	}
	if c.txFlow.LastGtRequestID() != m.ID {
		log.L(c.ctx).Infof("Received a gt response but the message id does not match the gt request that we sent. strange. ignoring.")
		return
	}
	log.L(c.ctx).Infof("Got Transaction response.")
	c.txFlow.GotGtResponse()

	gt := messages.NewGetTransactionResponse(m)
	now := c.clock.Now()
	posRefID := c.txFlow.PosRefID()
	if gt.WasRetrievedSuccessfully() {
		tx := gt.TxMessage()
		if tx == nil {
			log.L(c.ctx).Infof("Unexpected Response in Get Transaction. Missing TX payload... stay waiting")
			return
		}
		messages.CopyMerchantReceiptToCustomerReceipt(tx)
		if c.txFlow.Type() == spitypes.TransactionTypeGetTransaction {
			log.L(c.ctx).Infof("Retrieved Transaction as asked directly by the user.")
			_ = c.txFlow.Completed(c.ctx, tx.SuccessState(), tx, "Transaction Retrieved for "+gt.PosRefID()+".", now)
		} else {
			log.L(c.ctx).Infof("Retrieved transaction during recovery.")
			_ = c.txFlow.Completed(c.ctx, tx.SuccessState(), tx, "Transaction Recovered for "+gt.PosRefID()+".", now)
		}
		c.txUpdated()
		return
	}

	switch {
	case gt.IsWaitingForSignatureResponse():
		if c.txFlow.AwaitingSignatureCheck() {
			log.L(c.ctx).Infof("Waiting for Signature response ... stay waiting.")
			return
		}
		log.L(c.ctx).Infof("Eftpos is waiting for us to send it signature accept/decline, but we were not aware of this.")
		_ = c.txFlow.SignatureRequired(c.ctx, &spitypes.SignatureRequired{
			RequestID:       m.ID,
			PosRefID:        posRefID,
			MerchantReceipt: "MISSING RECEIPT\n DECLINE AND TRY AGAIN.",
		}, "Recovered in Signature Required but we don't have receipt. You may Decline then Retry.")
	case gt.IsWaitingForAuthCode() && !c.txFlow.AwaitingPhoneForAuth():
		log.L(c.ctx).Infof("Eftpos is waiting for us to send it auth code, but we were not aware of this.")
		_ = c.txFlow.PhoneForAuthRequired(c.ctx, &spitypes.PhoneForAuthRequired{
			RequestID:   m.ID,
			PosRefID:    posRefID,
			PhoneNumber: "UNKNOWN",
			MerchantID:  "UNKNOWN",
		}, "Recovered mid Phone-For-Auth but don't have details. You may Cancel then Retry.")
	case gt.IsStillInProgress():
		log.L(c.ctx).Infof("Transaction is currently in progress... stay waiting.")
		return
	case gt.PosRefIDNotFound():
		log.L(c.ctx).Infof("Get transaction failed, PosRefId is not found.")
		_ = c.txFlow.Failed(c.ctx, m, "PosRefId not found for "+gt.PosRefID()+".", now)
	case gt.PosRefIDInvalid():
		log.L(c.ctx).Infof("Get transaction failed, PosRefId is invalid.")
		_ = c.txFlow.Failed(c.ctx, m, "PosRefId invalid for "+gt.PosRefID()+".", now)
	case gt.PosRefIDMissing():
		log.L(c.ctx).Infof("Get transaction failed, PosRefId is missing.")
		_ = c.txFlow.Failed(c.ctx, m, "PosRefId is missing for "+gt.PosRefID()+".", now)
	case gt.IsSomethingElseBlocking():
		log.L(c.ctx).Infof("Terminal is Blocked by something else... stay waiting.")
		return
	default:
		log.L(c.ctx).Infof("Unexpected Response in Get Transaction - Received posRefId:%s Error:%s.", gt.PosRefID(), gt.Error())
		_ = c.txFlow.Failed(c.ctx, m, "Get Transaction failed, "+gt.Error()+".", now)
	}
	c.txUpdated()
}

func (c *client) handleGetLastTransactionResponse(m *spitypes.Message) {
	if !c.activeTx() || c.txFlow.Type() != spitypes.TransactionTypeGetLastTransaction {
		log.L(c.ctx).Infof("Received glt response but we were not expecting one. ignoring.")
		return
	}
	log.L(c.ctx).Infof("Got Last Transaction Response..")
	glt := messages.NewGetLastTransactionResponse(m)
	c.txFlow.SetGLTResponsePosRefID(glt.PosRefID())
	now := c.clock.Now()
	if !glt.WasRetrievedSuccessfully() {
		log.L(c.ctx).Infof("Error in Response for Get Last Transaction - Received posRefId:%s Error:%s. UnknownCompleted.", glt.PosRefID(), m.ErrorReason())
		_ = c.txFlow.UnknownCompleted(c.ctx, "Failed to Retrieve Last Transaction", now)
	} else {
		log.L(c.ctx).Infof("Retrieved Last Transaction as asked directly by the user.")
		messages.CopyMerchantReceiptToCustomerReceipt(m)
		_ = c.txFlow.Completed(c.ctx, glt.SuccessState(), m, "Last Transaction Retrieved", now)
	}
	c.txUpdated()
}

// handleCancelTransactionResponse only acts on a failed cancel. A successful cancel is
// followed by the transaction response itself.
func (c *client) handleCancelTransactionResponse(m *spitypes.Message) {
	cancel := messages.NewCancelTransactionResponse(m)
	posRefID := m.PosRefID()
	if !c.matchingTx(posRefID) && !cancel.WasTxnPastPointOfNoReturn() {
		log.L(c.ctx).Infof("Received Cancel Required but I was not waiting for one. Incoming Pos Ref ID: %s", posRefID)
		return
	}
	if cancel.Success() || c.txFlow == nil {
		return
	}
	log.L(c.ctx).Warnf("Failed to cancel transaction: reason=%s, detail=%s", cancel.ErrorReason(), cancel.ErrorDetail())
	if err := c.txFlow.CancelFailed(c.ctx, "Failed to cancel transaction: "+cancel.ErrorDetail()+". Check EFTPOS."); err != nil {
		return
	}
	c.txUpdated()
}

// handleErrorEvent covers a cancel that found nothing to cancel, in which case the outcome is asked for
func (c *client) handleErrorEvent(m *spitypes.Message) {
	if c.activeTx() && c.txFlow.Cancelling() && m.ErrorReason() == messages.ErrorReasonNoTransaction {
		log.L(c.ctx).Infof("Was trying to cancel a transaction but there is nothing to cancel. Calling GT to see what's up")
		c.callGetTransaction()
		return
	}
	log.L(c.ctx).Infof("Received Error Event But Don't know what to do with it. %s", m.DecryptedJSON)
}

func (c *client) handleSetPosInfoResponse(m *spitypes.Message) {
	if m.SuccessState() == spitypes.SuccessStateSuccess {
		c.hasSetInfo = true
		log.L(c.ctx).Infof("Setting POS info successful")
		return
	}
	log.L(c.ctx).Warnf("Setting POS info failed: reason=%s, detail=%s", m.ErrorReason(), m.ErrorDetail())
}

// handleGetTableConfig answers with the Pay-at-Table configuration, or turns the feature off when there is none
func (c *client) handleGetTableConfig(m *spitypes.Message) {
	if c.payAtTable == nil {
		c.send(messages.PayAtTableDisable())
		return
	}
	c.send(messages.PayAtTableConfigRequest(c.payAtTable))
	c.emitMessage(spitypes.EventTypePayAtTableConfigRequested, m)
}

func (c *client) handleTerminalConfigurationResponse(m *spitypes.Message) {
	config := spitypes.TerminalConfigurationFromMessage(m)
	if config.Success {
		c.terminalModel = config.TerminalModel
		if c.pairUsingEftposAddress {
			c.serialNumber = config.SerialNumber
		}
	}
	c.events.Dispatch(&spitypes.Event{
		Type:                  spitypes.EventTypeTerminalConfigurationResponse,
		TerminalConfiguration: config,
		Message:               m,
	})
}

// monitorTick runs on the scheduler. A cancel that got no answer in time leaves the outcome unknown,
// and a terminal that has been silent too long is asked for the transaction.
func (c *client) monitorTick() {
	if !c.activeTx() {
		return
	}
	now := c.clock.Now()
	switch c.txFlow.MonitorCheck(now, c.conf.MaxWaitForCancel, c.conf.CheckOnTxFrequency) {
	case txflow.MonitorCancelTimedOut:
		log.L(c.ctx).Infof("Been too long waiting for transaction to cancel.")
		_ = c.txFlow.UnknownCompleted(c.ctx, "Waited long enough for Cancel Transaction result. Check EFTPOS. ", now)
		c.txUpdated()
	case txflow.MonitorCheckOnTx:
		lastChecked := c.txFlow.LastStateRequestTime()
		if c.txFlow.Type() == spitypes.TransactionTypeGetLastTransaction {
			// a get-last-transaction cannot be recovered with a get-transaction
			c.txFlow.StateRequested(now)
			c.send(messages.GetLastTransactionRequest())
			log.L(c.ctx).Infof("Been to long waiting for GLT response. Sending another GLT. Last checked at %s...", lastChecked)
			return
		}
		log.L(c.ctx).Infof("Checking on our transaction. Last checked at %s...", lastChecked)
		c.callGetTransaction()
	}
}
