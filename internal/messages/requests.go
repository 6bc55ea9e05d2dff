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
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/aidarkhanov/nanoid"
)

const shortIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// RequestID is a prefix naming the request type, followed by a short random suffix
func RequestID(prefix string) string {
	return prefix + nanoid.Must(nanoid.Generate(shortIDAlphabet, 10))
}

func PairRequest() *spitypes.Message {
	return spitypes.NewMessage(RequestID("pr"), EventPairRequest, spitypes.JSONObject{"padding": true}, false)
}

// KeyResponse answers a key request with our public values, reusing the request id
func KeyResponse(requestID, encPublic, hmacPublic string) *spitypes.Message {
	return spitypes.NewMessage(requestID, EventKeyResponse, spitypes.JSONObject{
		"enc":  spitypes.JSONObject{"B": encPublic},
		"hmac": spitypes.JSONObject{"B": hmacPublic},
	}, false)
}

func DropKeysAdvice() *spitypes.Message {
	return spitypes.NewMessage(RequestID("drpkys"), EventDropKeys, nil, true)
}

func Ping() *spitypes.Message {
	return spitypes.NewMessage(RequestID("ping"), EventPing, nil, true)
}

func Pong(ping *spitypes.Message) *spitypes.Message {
	return spitypes.NewMessage(ping.ID, EventPong, nil, true)
}

func KeyRollResponse(request *spitypes.Message) *spitypes.Message {
	return spitypes.NewMessage(request.ID, EventKeyRollResponse, spitypes.JSONObject{"status": "confirmed"}, true)
}

// PosInfo identifies the POS software to the terminal once per session
type PosInfo struct {
	PosVendorID     string
	PosVersion      string
	LibraryLanguage string
	LibraryVersion  string
	OtherInfo       map[string]string
}

func SetPosInfoRequest(info *PosInfo) *spitypes.Message {
	otherInfo := spitypes.JSONObject{}
	for k, v := range info.OtherInfo {
		otherInfo[k] = v
	}
	return spitypes.NewMessage(RequestID("prav"), EventSetPosInfoRequest, spitypes.JSONObject{
		"pos_version":      info.PosVersion,
		"pos_vendor_id":    info.PosVendorID,
		"library_language": info.LibraryLanguage,
		"library_version":  info.LibraryVersion,
		"other_info":       otherInfo,
	}, true)
}

// PurchaseParams are the amounts of a purchase, all in cents
type PurchaseParams struct {
	PosRefID         string
	PurchaseAmount   int64
	TipAmount        int64
	CashoutAmount    int64
	PromptForCashout bool
	SurchargeAmount  int64
}

func PurchaseRequest(p *PurchaseParams, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	data := spitypes.JSONObject{
		"pos_ref_id":         p.PosRefID,
		"purchase_amount":    p.PurchaseAmount,
		"tip_amount":         p.TipAmount,
		"cash_amount":        p.CashoutAmount,
		"prompt_for_cashout": p.PromptForCashout,
		"surcharge_amount":   p.SurchargeAmount,
	}
	return txRequest("prchs", EventPurchaseRequest, data, config, options)
}

func RefundRequest(posRefID string, amountCents int64, suppressMerchantPassword bool, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	data := spitypes.JSONObject{
		"pos_ref_id":                 posRefID,
		"refund_amount":              amountCents,
		"suppress_merchant_password": suppressMerchantPassword,
	}
	return txRequest("refund", EventRefundRequest, data, config, options)
}

func CashoutOnlyRequest(posRefID string, amountCents, surchargeCents int64, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	data := spitypes.JSONObject{
		"pos_ref_id":       posRefID,
		"cash_amount":      amountCents,
		"surcharge_amount": surchargeCents,
	}
	return txRequest("cshout", EventCashoutOnlyRequest, data, config, options)
}

func MotoPurchaseRequest(posRefID string, amountCents, surchargeCents int64, suppressMerchantPassword bool, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	data := spitypes.JSONObject{
		"pos_ref_id":                 posRefID,
		"purchase_amount":            amountCents,
		"surcharge_amount":           surchargeCents,
		"suppress_merchant_password": suppressMerchantPassword,
	}
	return txRequest("moto", EventMotoPurchaseRequest, data, config, options)
}

func SettleRequest(config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("settle", EventSettleRequest, spitypes.JSONObject{}, config, options)
}

func SettlementEnquiryRequest(config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("stlenq", EventSettlementEnquiryRequest, spitypes.JSONObject{}, config, options)
}

func GetLastTransactionRequest() *spitypes.Message {
	return spitypes.NewMessage(RequestID("glt"), EventGetLastTransactionRequest, nil, true)
}

func GetTransactionRequest(posRefID string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("gt"), EventGetTransactionRequest, spitypes.JSONObject{"pos_ref_id": posRefID}, true)
}

func ReversalRequest(posRefID string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("rev"), EventReversalRequest, spitypes.JSONObject{"pos_ref_id": posRefID}, true)
}

func CancelTransactionRequest() *spitypes.Message {
	return spitypes.NewMessage(RequestID("ctx"), EventCancelTransactionRequest, nil, true)
}

func SignatureAccept(posRefID string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("sigac"), EventSignatureAccepted, spitypes.JSONObject{"pos_ref_id": posRefID}, true)
}

func SignatureDecline(posRefID string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("sigdec"), EventSignatureDeclined, spitypes.JSONObject{"pos_ref_id": posRefID}, true)
}

func AuthCodeAdvice(posRefID, authCode string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("authad"), EventAuthCodeAdvice, spitypes.JSONObject{
		"pos_ref_id": posRefID,
		"auth_code":  authCode,
	}, true)
}

func TerminalStatusRequest() *spitypes.Message {
	return spitypes.NewMessage(RequestID("trmnl"), EventTerminalStatusRequest, nil, true)
}

func TerminalConfigurationRequest() *spitypes.Message {
	return spitypes.NewMessage(RequestID("trmnlcnfg"), EventTerminalConfigurationRequest, nil, true)
}

func PrintingRequest(key, payload string) *spitypes.Message {
	return spitypes.NewMessage(RequestID("print"), EventPrintingRequest, spitypes.JSONObject{
		"key":     key,
		"payload": payload,
	}, true)
}

func PayAtTableConfigRequest(config *spitypes.PayAtTableConfig) *spitypes.Message {
	return spitypes.NewMessage(RequestID("patconf"), EventPayAtTableSetTableConfig, config.ToData(), true)
}

// PayAtTableDisable is sent when the terminal asks for a configuration the POS never set
func PayAtTableDisable() *spitypes.Message {
	return spitypes.NewMessage(RequestID("patconf"), EventPayAtTableSetTableConfig, spitypes.JSONObject{"pay_at_table_enabled": false}, true)
}

func AccountVerifyRequest(posRefID string, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prav", EventAccountVerifyRequest, spitypes.JSONObject{"pos_ref_id": posRefID}, config, options)
}

func PreauthOpenRequest(posRefID string, amountCents int64, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prac", EventPreauthOpenRequest, spitypes.JSONObject{
		"pos_ref_id":     posRefID,
		"preauth_amount": amountCents,
	}, config, options)
}

func PreauthTopupRequest(posRefID, preauthID string, amountCents int64, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prtu", EventPreauthTopupRequest, spitypes.JSONObject{
		"pos_ref_id":   posRefID,
		"preauth_id":   preauthID,
		"topup_amount": amountCents,
	}, config, options)
}

func PreauthPartialCancellationRequest(posRefID, preauthID string, amountCents int64, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prpc", EventPreauthPartialCancellationRequest, spitypes.JSONObject{
		"pos_ref_id":            posRefID,
		"preauth_id":            preauthID,
		"preauth_cancel_amount": amountCents,
	}, config, options)
}

func PreauthExtendRequest(posRefID, preauthID string, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prext", EventPreauthExtendRequest, spitypes.JSONObject{
		"pos_ref_id": posRefID,
		"preauth_id": preauthID,
	}, config, options)
}

func PreauthCancelRequest(posRefID, preauthID string, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prac", EventPreauthCancellationRequest, spitypes.JSONObject{
		"pos_ref_id": posRefID,
		"preauth_id": preauthID,
	}, config, options)
}

func PreauthCompletionRequest(posRefID, preauthID string, amountCents, surchargeCents int64, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	return txRequest("prac", EventPreauthCompleteRequest, spitypes.JSONObject{
		"pos_ref_id":        posRefID,
		"preauth_id":        preauthID,
		"completion_amount": amountCents,
		"surcharge_amount":  surchargeCents,
	}, config, options)
}

func txRequest(idPrefix, eventName string, data spitypes.JSONObject, config spitypes.ReceiptConfig, options *spitypes.TransactionOptions) *spitypes.Message {
	config.AddTo(data)
	options.AddTo(data)
	return spitypes.NewMessage(RequestID(idPrefix), eventName, data, true)
}
