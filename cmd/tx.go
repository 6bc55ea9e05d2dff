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

package cmd

import (
	"fmt"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/spf13/cobra"
)

// TxResult is what a transaction command prints once the terminal is done
type TxResult struct {
	PosRefID        string                `json:"posRefId"`
	Type            spitypes.SpiEnum      `json:"type"`
	Success         spitypes.SuccessState `json:"success"`
	Message         string                `json:"message"`
	ResponseCode    string                `json:"responseCode,omitempty"`
	ResponseText    string                `json:"responseText,omitempty"`
	RetrievedRefID  string                `json:"retrievedPosRefId,omitempty"`
	MerchantReceipt string                `json:"merchantReceipt,omitempty"`
	CustomerReceipt string                `json:"customerReceipt,omitempty"`
}

func newTxResult(state *spitypes.TransactionFlowState) *TxResult {
	r := &TxResult{
		PosRefID:       state.PosRefID,
		Type:           state.Type,
		Success:        state.Success,
		Message:        state.DisplayMessage,
		RetrievedRefID: state.GLTResponsePosRefID,
	}
	if state.Response != nil {
		res := spitypes.NewTransactionResponse(state.Response)
		r.ResponseCode = res.ResponseCode()
		r.ResponseText = res.ResponseText()
		r.MerchantReceipt = res.MerchantReceipt()
		r.CustomerReceipt = res.CustomerReceipt()
	}
	return r
}

// runTx drives one transaction to completion, answering signature and phone
// authorisation prompts on the way. An interrupt asks the terminal to cancel.
func runTx(s *session, initiate func() *spitypes.InitiateTxResult) error {
	if err := s.waitReady(); err != nil {
		return err
	}
	res := initiate()
	if !res.Initiated {
		return i18n.NewError(s.ctx, i18n.MsgTxNotInitiated, res.Message)
	}

	var lastMessage, signatureFor, authFor string
	cancel := func() {
		cr := s.client.CancelTransaction()
		fmt.Fprintln(s.out, cr.Message)
	}
	return s.waitFor("the transaction", config.GetDuration(config.CLITxTimeout), cancel, func(ev *spitypes.Event) (bool, error) {
		if ev.Type != spitypes.EventTypeTxFlowStateChanged {
			return false, nil
		}
		state := ev.TxFlowState
		if state.DisplayMessage != lastMessage {
			fmt.Fprintln(s.out, state.DisplayMessage)
			lastMessage = state.DisplayMessage
		}
		switch {
		case state.Finished:
			s.client.AckFlowEndedAndBackToIdle()
			return true, render(s.ctx, s.out, newTxResult(state), output)
		case state.AwaitingSignatureCheck && state.SignatureRequiredMessage != nil && signatureFor != state.SignatureRequiredMessage.RequestID:
			signatureFor = state.SignatureRequiredMessage.RequestID
			fmt.Fprintln(s.out, state.SignatureRequiredMessage.MerchantReceipt)
			s.client.AcceptSignature(s.confirm("Does the signature match?"))
		case state.AwaitingPhoneForAuth && state.PhoneForAuthRequiredMessage != nil && authFor != state.PhoneForAuthRequiredMessage.RequestID:
			authFor = state.PhoneForAuthRequiredMessage.RequestID
			pfa := state.PhoneForAuthRequiredMessage
			for {
				code := s.prompt(fmt.Sprintf("Call %s for merchant %s and enter the auth code: ", pfa.PhoneNumber, pfa.MerchantID))
				if code == "" {
					cancel()
					break
				}
				r := s.client.SubmitAuthCode(code)
				if r.ValidFormat {
					break
				}
				fmt.Fprintln(s.out, r.Message)
			}
		}
		return false, nil
	})
}

var (
	txRef           string
	txAmount        int64
	txTip           int64
	txCashout       int64
	txSurcharge     int64
	txPromptCashout bool
	txType          string
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Runs a purchase, with optional tip, cashout and surcharge",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, func(s *session) error {
			return runTx(s, func() *spitypes.InitiateTxResult {
				return s.client.InitiatePurchaseTxV2(txRef, txAmount, txTip, txCashout, txPromptCashout, nil, txSurcharge)
			})
		})
	},
}

var refundCmd = &cobra.Command{
	Use:   "refund",
	Short: "Runs a refund",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, func(s *session) error {
			return runTx(s, func() *spitypes.InitiateTxResult {
				return s.client.InitiateRefundTx(txRef, txAmount, false, nil)
			})
		})
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Settles the terminal for the day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, func(s *session) error {
			return runTx(s, func() *spitypes.InitiateTxResult {
				return s.client.InitiateSettleTx(txRef, nil)
			})
		})
	},
}

var lastTxCmd = &cobra.Command{
	Use:   "last-tx",
	Short: "Retrieves the last transaction the terminal processed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, func(s *session) error {
			return runTx(s, s.client.InitiateGetLastTx)
		})
	},
}

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Recovers the outcome of a transaction, by its POS reference id",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, ok := spitypes.SpiEnumParse("txtype", txType)
		if !ok {
			return i18n.NewError(rootContext(), i18n.MsgInvalidTxType, txType)
		}
		return runSession(cmd, true, func(s *session) error {
			return runTx(s, func() *spitypes.InitiateTxResult {
				return s.client.InitiateRecovery(txRef, t)
			})
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{purchaseCmd, refundCmd, settleCmd, recoverCmd} {
		c.Flags().StringVarP(&txRef, "ref", "r", "", "POS reference id of the transaction")
		_ = c.MarkFlagRequired("ref")
	}
	for _, c := range []*cobra.Command{purchaseCmd, refundCmd} {
		c.Flags().Int64VarP(&txAmount, "amount", "a", 0, "amount in cents")
		_ = c.MarkFlagRequired("amount")
	}
	purchaseCmd.Flags().Int64Var(&txTip, "tip", 0, "tip amount in cents")
	purchaseCmd.Flags().Int64Var(&txCashout, "cashout", 0, "cashout amount in cents")
	purchaseCmd.Flags().Int64Var(&txSurcharge, "surcharge", 0, "surcharge amount in cents")
	purchaseCmd.Flags().BoolVar(&txPromptCashout, "prompt-cashout", false, "let the customer choose a cashout on the terminal")
	recoverCmd.Flags().StringVarP(&txType, "type", "t", "purchase", "transaction type being recovered")

	rootCmd.AddCommand(purchaseCmd)
	rootCmd.AddCommand(refundCmd)
	rootCmd.AddCommand(settleCmd)
	rootCmd.AddCommand(lastTxCmd)
	rootCmd.AddCommand(recoverCmd)
}
