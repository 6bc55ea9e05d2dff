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
	"fmt"
	"unicode/utf8"

	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/internal/txflow"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/shopspring/decimal"
)

const (
	resultNotPaired     = "Not Paired"
	resultNotIdle       = "Not Idle"
	resultClientStopped = "Client Stopped"

	terminalModelWithoutPrinter = "E355"
)

// txInit describes one kind of initiation. build receives the options after the printer check.
type txInit struct {
	posRefID     string
	txType       spitypes.TransactionType
	amountCents  int64
	options      *spitypes.TransactionOptions
	printerCheck bool
	validate     func() string
	build        func(options *spitypes.TransactionOptions) *spitypes.Message
	waitingMsg   string
	sentMsg      string
	initiated    string
}

func formatAmount(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

func formatDecimal(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

func (c *client) initiate(t *txInit) *spitypes.InitiateTxResult {
	res := &spitypes.InitiateTxResult{Message: resultClientStopped}
	c.call(func() { res = c.doInitiate(t) })
	return res
}

func (c *client) doInitiate(t *txInit) *spitypes.InitiateTxResult {
	if c.status == spitypes.SpiStatusUnpaired {
		return &spitypes.InitiateTxResult{Message: resultNotPaired}
	}
	if t.validate != nil {
		if msg := t.validate(); msg != "" {
			return &spitypes.InitiateTxResult{Message: msg}
		}
	}
	if c.flow != spitypes.SpiFlowIdle {
		return &spitypes.InitiateTxResult{Message: resultNotIdle}
	}
	options := t.options
	if t.printerCheck {
		options = c.checkPrinterAvailability(options)
	}

	request := t.build(options)
	now := c.clock.Now()
	c.flow = spitypes.SpiFlowTransaction
	c.txFlow = txflow.New(t.posRefID, t.txType, t.amountCents, request, t.waitingMsg, now)
	if c.send(request) {
		c.requestSent(t.sentMsg)
	}
	if c.metrics.IsMetricsEnabled() {
		c.metrics.TransactionInitiated(t.txType)
	}
	c.emitTxFlow()
	return &spitypes.InitiateTxResult{Initiated: true, Message: t.initiated}
}

// requestSent records delivery of the held request. A get-transaction request is
// also the recovery query, so its id is the one the response must carry.
func (c *client) requestSent(displayMessage string) {
	now := c.clock.Now()
	if err := c.txFlow.Sent(c.ctx, displayMessage, now); err != nil {
		log.L(c.ctx).Warnf("Request sent in an unexpected state: %s", err)
		return
	}
	if request := c.txFlow.Request(); request.EventName == messages.EventGetTransactionRequest {
		_ = c.txFlow.CallingGt(c.ctx, request.ID, now)
	}
}

// checkPrinterAvailability turns printing off for good on a terminal without a printer
func (c *client) checkPrinterAvailability(options *spitypes.TransactionOptions) *spitypes.TransactionOptions {
	rc := c.receiptConfig
	printing := rc.PromptForCustomerCopyOnEftpos || rc.PrintMerchantCopy || rc.SignatureFlowOnEftpos
	if c.terminalModel != terminalModelWithoutPrinter || !printing {
		return options
	}
	c.receiptConfig = spitypes.ReceiptConfig{}
	log.L(c.ctx).Warnf("Printing is enabled on a terminal without printer. Printing options will now be disabled.")
	return &spitypes.TransactionOptions{}
}

func (c *client) InitiatePurchaseTx(posRefID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypePurchase,
		amountCents:  amountCents,
		options:      options,
		printerCheck: true,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PurchaseRequest(&messages.PurchaseParams{
				PosRefID:       posRefID,
				PurchaseAmount: amountCents,
			}, c.receiptConfig, options)
		},
		waitingMsg: fmt.Sprintf("Waiting for EFTPOS connection to make payment request for %s", formatAmount(amountCents)),
		sentMsg:    fmt.Sprintf("Asked EFTPOS to accept payment for %s", formatAmount(amountCents)),
		initiated:  "Purchase Initiated",
	})
}

// InitiatePurchaseTxV2 can carry a tip or a cashout, but not both
func (c *client) InitiatePurchaseTxV2(posRefID string, purchaseAmount, tipAmount, cashoutAmount int64, promptForCashout bool, options *spitypes.TransactionOptions, surchargeAmount int64) *spitypes.InitiateTxResult {
	summary := fmt.Sprintf("Purchase: %s; Tip: %s; Cashout: %s;",
		formatDecimal(purchaseAmount), formatDecimal(tipAmount), formatDecimal(cashoutAmount))
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypePurchase,
		amountCents:  purchaseAmount,
		options:      options,
		printerCheck: true,
		validate: func() string {
			if tipAmount > 0 && (cashoutAmount > 0 || promptForCashout) {
				return "Cannot Accept Tips and Cashout at the same time."
			}
			return ""
		},
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PurchaseRequest(&messages.PurchaseParams{
				PosRefID:         posRefID,
				PurchaseAmount:   purchaseAmount,
				TipAmount:        tipAmount,
				CashoutAmount:    cashoutAmount,
				PromptForCashout: promptForCashout,
				SurchargeAmount:  surchargeAmount,
			}, c.receiptConfig, options)
		},
		waitingMsg: "Waiting for EFTPOS connection to make payment request. " + summary,
		sentMsg:    "Asked EFTPOS to accept payment for " + summary,
		initiated:  "Purchase Initiated",
	})
}

func (c *client) InitiateRefundTx(posRefID string, amountCents int64, suppressMerchantPassword bool, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypeRefund,
		amountCents:  amountCents,
		options:      options,
		printerCheck: true,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.RefundRequest(posRefID, amountCents, suppressMerchantPassword, c.receiptConfig, options)
		},
		waitingMsg: fmt.Sprintf("Waiting for EFTPOS connection to make refund request for %s", formatAmount(amountCents)),
		sentMsg:    fmt.Sprintf("Asked EFTPOS to refund %s", formatAmount(amountCents)),
		initiated:  "Refund Initiated",
	})
}

func (c *client) InitiateCashoutOnlyTx(posRefID string, amountCents, surchargeAmount int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypeCashoutOnly,
		amountCents:  amountCents,
		options:      options,
		printerCheck: true,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.CashoutOnlyRequest(posRefID, amountCents, surchargeAmount, c.receiptConfig, options)
		},
		waitingMsg: fmt.Sprintf("Waiting for EFTPOS connection to send cashout request for %s", formatAmount(amountCents)),
		sentMsg:    fmt.Sprintf("Asked EFTPOS to do cashout for %s", formatAmount(amountCents)),
		initiated:  "Cashout Initiated",
	})
}

func (c *client) InitiateMotoPurchaseTx(posRefID string, amountCents, surchargeAmount int64, suppressMerchantPassword bool, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypeMOTO,
		amountCents:  amountCents,
		options:      options,
		printerCheck: true,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.MotoPurchaseRequest(posRefID, amountCents, surchargeAmount, suppressMerchantPassword, c.receiptConfig, options)
		},
		waitingMsg: fmt.Sprintf("Waiting for EFTPOS connection to send MOTO request for %s", formatAmount(amountCents)),
		sentMsg:    fmt.Sprintf("Asked EFTPOS do MOTO for %s", formatAmount(amountCents)),
		initiated:  "MOTO Initiated",
	})
}

func (c *client) InitiateSettleTx(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:     posRefID,
		txType:       spitypes.TransactionTypeSettle,
		options:      options,
		printerCheck: true,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.SettleRequest(c.receiptConfig, options)
		},
		waitingMsg: "Waiting for EFTPOS connection to make a settle request",
		sentMsg:    "Asked EFTPOS to settle.",
		initiated:  "Settle Initiated",
	})
}

func (c *client) InitiateSettlementEnquiry(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID: posRefID,
		txType:   spitypes.TransactionTypeSettlementEnquiry,
		options:  options,
		build: func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.SettlementEnquiryRequest(c.receiptConfig, options)
		},
		waitingMsg: "Waiting for EFTPOS connection to make a settlement enquiry",
		sentMsg:    "Asked EFTPOS to make a settlement enquiry.",
		initiated:  "Settle Initiated",
	})
}

// InitiateGetLastTx asks for whatever the terminal processed last. The flow is keyed by the request id.
func (c *client) InitiateGetLastTx() *spitypes.InitiateTxResult {
	request := messages.GetLastTransactionRequest()
	return c.initiate(&txInit{
		posRefID: request.ID,
		txType:   spitypes.TransactionTypeGetLastTransaction,
		build: func(_ *spitypes.TransactionOptions) *spitypes.Message {
			return request
		},
		waitingMsg: "Waiting for EFTPOS connection to make a Get-Last-Transaction request.",
		sentMsg:    "Asked EFTPOS for last transaction.",
		initiated:  "GLT Initiated",
	})
}

func (c *client) InitiateGetTx(posRefID string) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID: posRefID,
		txType:   spitypes.TransactionTypeGetTransaction,
		build: func(_ *spitypes.TransactionOptions) *spitypes.Message {
			return messages.GetTransactionRequest(posRefID)
		},
		waitingMsg: "Waiting for EFTPOS connection to make a Get-Transaction request.",
		sentMsg:    fmt.Sprintf("Asked EFTPOS to Get Transaction %s.", posRefID),
		initiated:  "GT Initiated",
	})
}

// InitiateRecovery finds out what happened to a transaction of the given type, after the POS lost track of it
func (c *client) InitiateRecovery(posRefID string, txType spitypes.TransactionType) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID: posRefID,
		txType:   txType,
		build: func(_ *spitypes.TransactionOptions) *spitypes.Message {
			return messages.GetTransactionRequest(posRefID)
		},
		waitingMsg: "Waiting for EFTPOS connection to attempt recovery.",
		sentMsg:    "Asked EFTPOS to recover state.",
		initiated:  "Recovery Initiated",
	})
}

// InitiateReversal cannot be recovered after a disconnect, so it fails if the connection drops
func (c *client) InitiateReversal(posRefID string) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID: posRefID,
		txType:   spitypes.TransactionTypeReversal,
		build: func(_ *spitypes.TransactionOptions) *spitypes.Message {
			return messages.ReversalRequest(posRefID)
		},
		waitingMsg: "Waiting for EFTPOS to make a reversal request",
		sentMsg:    "Asked EFTPOS reversal",
		initiated:  "Reversal Initiated",
	})
}

func (c *client) initiatePreauth(posRefID string, txType spitypes.TransactionType, amountCents int64, options *spitypes.TransactionOptions,
	build func(options *spitypes.TransactionOptions) *spitypes.Message, waitingMsg, sentMsg string) *spitypes.InitiateTxResult {
	return c.initiate(&txInit{
		posRefID:    posRefID,
		txType:      txType,
		amountCents: amountCents,
		options:     options,
		build:       build,
		waitingMsg:  waitingMsg,
		sentMsg:     sentMsg,
		initiated:   "Preauth Initiated",
	})
}

func (c *client) InitiateAccountVerifyTx(posRefID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypeAccountVerify, 0, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.AccountVerifyRequest(posRefID, c.receiptConfig, options)
		},
		"Waiting for EFTPOS connection to make account verify request",
		"Asked EFTPOS to verify account")
}

func (c *client) InitiatePreauthOpenTx(posRefID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, amountCents, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthOpenRequest(posRefID, amountCents, c.receiptConfig, options)
		},
		fmt.Sprintf("Waiting for EFTPOS connection to make preauth request for %s", formatAmount(amountCents)),
		fmt.Sprintf("Asked EFTPOS to make preauth for %s", formatAmount(amountCents)))
}

func (c *client) InitiatePreauthTopupTx(posRefID, preauthID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, amountCents, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthTopupRequest(posRefID, preauthID, amountCents, c.receiptConfig, options)
		},
		fmt.Sprintf("Waiting for EFTPOS connection to make preauth topup request for %s", formatAmount(amountCents)),
		fmt.Sprintf("Asked EFTPOS to make preauth topup for %s", formatAmount(amountCents)))
}

func (c *client) InitiatePreauthPartialCancellationTx(posRefID, preauthID string, amountCents int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, amountCents, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthPartialCancellationRequest(posRefID, preauthID, amountCents, c.receiptConfig, options)
		},
		fmt.Sprintf("Waiting for EFTPOS connection to make preauth partial cancellation request for %s", formatAmount(amountCents)),
		fmt.Sprintf("Asked EFTPOS to make preauth partial cancellation for %s", formatAmount(amountCents)))
}

func (c *client) InitiatePreauthExtendTx(posRefID, preauthID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, 0, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthExtendRequest(posRefID, preauthID, c.receiptConfig, options)
		},
		"Waiting for EFTPOS connection to make preauth Extend request",
		"Asked EFTPOS to make preauth Extend request")
}

func (c *client) InitiatePreauthCompletionTx(posRefID, preauthID string, amountCents, surchargeAmount int64, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, amountCents, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthCompletionRequest(posRefID, preauthID, amountCents, surchargeAmount, c.receiptConfig, options)
		},
		fmt.Sprintf("Waiting for EFTPOS connection to make preauth completion request for %s", formatAmount(amountCents)),
		fmt.Sprintf("Asked EFTPOS to make preauth completion for %s", formatAmount(amountCents)))
}

func (c *client) InitiatePreauthCancelTx(posRefID, preauthID string, options *spitypes.TransactionOptions) *spitypes.InitiateTxResult {
	return c.initiatePreauth(posRefID, spitypes.TransactionTypePreauth, 0, options,
		func(options *spitypes.TransactionOptions) *spitypes.Message {
			return messages.PreauthCancelRequest(posRefID, preauthID, c.receiptConfig, options)
		},
		"Waiting for EFTPOS connection to make preauth cancellation request",
		"Asked EFTPOS to make preauth cancellation request")
}

func (c *client) AcceptSignature(accepted bool) *spitypes.MidTxResult {
	res := &spitypes.MidTxResult{Message: resultClientStopped}
	c.call(func() {
		if !c.activeTx() || !c.txFlow.AwaitingSignatureCheck() {
			log.L(c.ctx).Infof("Asked to accept signature but I was not waiting for one.")
			res = &spitypes.MidTxResult{Message: "Asked to accept signature but I was not waiting for one."}
			return
		}
		displayMessage, response := "Declining Signature...", messages.SignatureDecline(c.txFlow.PosRefID())
		if accepted {
			displayMessage, response = "Accepting Signature...", messages.SignatureAccept(c.txFlow.PosRefID())
		}
		_ = c.txFlow.SignatureResponded(c.ctx, displayMessage)
		c.send(response)
		c.emitTxFlow()
		res = &spitypes.MidTxResult{Valid: true}
	})
	return res
}

func (c *client) SubmitAuthCode(authCode string) *spitypes.SubmitAuthCodeResult {
	if utf8.RuneCountInString(authCode) != 6 {
		return &spitypes.SubmitAuthCodeResult{Message: "Not a 6-digit code."}
	}
	res := &spitypes.SubmitAuthCodeResult{Message: resultClientStopped}
	c.call(func() {
		if !c.activeTx() || !c.txFlow.AwaitingPhoneForAuth() {
			log.L(c.ctx).Infof("Asked to send auth code but I was not waiting for one.")
			res = &spitypes.SubmitAuthCodeResult{Message: "Was not waiting for one."}
			return
		}
		_ = c.txFlow.AuthCodeSent(c.ctx, "Submitting Auth Code "+authCode)
		c.send(messages.AuthCodeAdvice(c.txFlow.PosRefID(), authCode))
		c.emitTxFlow()
		res = &spitypes.SubmitAuthCodeResult{ValidFormat: true, Message: "Valid Code."}
	})
	return res
}

// CancelTransaction asks the terminal to cancel. A request that never reached the terminal fails straight away.
func (c *client) CancelTransaction() *spitypes.MidTxResult {
	res := &spitypes.MidTxResult{Message: resultClientStopped}
	c.call(func() {
		if !c.activeTx() {
			log.L(c.ctx).Infof("Asked to cancel transaction but I was not in the middle of one.")
			res = &spitypes.MidTxResult{Message: "Asked to cancel transaction but I was not in the middle of one."}
			return
		}
		now := c.clock.Now()
		if c.txFlow.RequestSent() {
			_ = c.txFlow.StartCancelling(c.ctx, "Attempting to Cancel Transaction...", now)
			c.send(messages.CancelTransactionRequest())
		} else {
			_ = c.txFlow.Failed(c.ctx, nil, "Transaction Cancelled. Request Had not even been sent yet.", now)
		}
		c.txUpdated()
		res = &spitypes.MidTxResult{Valid: true}
	})
	return res
}

// txUpdated publishes the flow, and reports it. A finished flow is also counted.
func (c *client) txUpdated() {
	c.emitTxFlow()
	if c.txFlow.Finished() && c.metrics.IsMetricsEnabled() {
		c.metrics.TransactionCompleted(c.txFlow.Type(), c.txFlow.Success(), c.txFlow.CompletedTime().Sub(c.txFlow.RequestTime()))
	}
	c.reportTransaction()
}
