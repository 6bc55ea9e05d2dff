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

// TransactionResponse reads the common fields of a transaction outcome
// (purchase, refund, cashout, MOTO, preauth and retrieved transactions).
type TransactionResponse struct {
	*Message
}

func NewTransactionResponse(m *Message) *TransactionResponse {
	return &TransactionResponse{Message: m}
}

func (r *TransactionResponse) Success() bool {
	return r.SuccessState() == SuccessStateSuccess
}

func (r *TransactionResponse) RequestID() string { return r.ID }
func (r *TransactionResponse) SchemeName() string { return r.Data.GetString("scheme_name") }
func (r *TransactionResponse) SchemeAppName() string { return r.Data.GetString("scheme_app_name") }
func (r *TransactionResponse) RRN() string { return r.Data.GetString("rrn") }
func (r *TransactionResponse) PurchaseAmount() int64 { return r.Data.GetInt64("purchase_amount") }
func (r *TransactionResponse) TipAmount() int64 { return r.Data.GetInt64("tip_amount") }
func (r *TransactionResponse) SurchargeAmount() int64 { return r.Data.GetInt64("surcharge_amount") }
func (r *TransactionResponse) CashoutAmount() int64 { return r.Data.GetInt64("cash_amount") }
func (r *TransactionResponse) RefundAmount() int64 { return r.Data.GetInt64("refund_amount") }
func (r *TransactionResponse) BankNonCashAmount() int64 {
	return r.Data.GetInt64("bank_noncash_amount")
}
func (r *TransactionResponse) BankCashAmount() int64 { return r.Data.GetInt64("bank_cash_amount") }
func (r *TransactionResponse) CustomerReceipt() string { return r.Data.GetString("customer_receipt") }
func (r *TransactionResponse) MerchantReceipt() string { return r.Data.GetString("merchant_receipt") }
func (r *TransactionResponse) ResponseText() string { return r.Data.GetString("host_response_text") }
func (r *TransactionResponse) ResponseCode() string { return r.Data.GetString("host_response_code") }
func (r *TransactionResponse) TerminalRefID() string { return r.Data.GetString("terminal_ref_id") }
func (r *TransactionResponse) CardEntry() string { return r.Data.GetString("card_entry") }
func (r *TransactionResponse) AccountType() string { return r.Data.GetString("account_type") }
func (r *TransactionResponse) AuthCode() string { return r.Data.GetString("auth_code") }
func (r *TransactionResponse) BankDate() string { return r.Data.GetString("bank_date") }
func (r *TransactionResponse) BankTime() string { return r.Data.GetString("bank_time") }
func (r *TransactionResponse) MaskedPan() string { return r.Data.GetString("masked_pan") }
func (r *TransactionResponse) TerminalID() string { return r.Data.GetString("terminal_id") }
func (r *TransactionResponse) SettlementDate() string { return r.Data.GetString("bank_settlement_date") }
func (r *TransactionResponse) TxType() string { return r.Data.GetString("transaction_type") }
func (r *TransactionResponse) PreauthID() string { return r.Data.GetString("preauth_id") }
func (r *TransactionResponse) MerchantReceiptPrinted() bool {
	return r.Data.GetBool("merchant_receipt_printed")
}
func (r *TransactionResponse) CustomerReceiptPrinted() bool {
	return r.Data.GetBool("customer_receipt_printed")
}

// BankDateTime joins the bank date and time as ddMMyyyyHHmmss
func (r *TransactionResponse) BankDateTime() string {
	return r.BankDate() + r.BankTime()
}
