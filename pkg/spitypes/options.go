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

// TransactionOptions carries receipt header and footer text for a single transaction
type TransactionOptions struct {
	CustomerReceiptHeader string `json:"customerReceiptHeader,omitempty"`
	CustomerReceiptFooter string `json:"customerReceiptFooter,omitempty"`
	MerchantReceiptHeader string `json:"merchantReceiptHeader,omitempty"`
	MerchantReceiptFooter string `json:"merchantReceiptFooter,omitempty"`
}

// AddTo copies the non-empty options into a request payload
func (o *TransactionOptions) AddTo(data JSONObject) {
	if o == nil {
		return
	}
	for k, v := range map[string]string{
		"customer_receipt_header": o.CustomerReceiptHeader,
		"customer_receipt_footer": o.CustomerReceiptFooter,
		"merchant_receipt_header": o.MerchantReceiptHeader,
		"merchant_receipt_footer": o.MerchantReceiptFooter,
	} {
		if v != "" {
			data[k] = v
		}
	}
}

// ReceiptConfig controls what the terminal prints and prompts for
type ReceiptConfig struct {
	PromptForCustomerCopyOnEftpos bool `json:"promptForCustomerCopyOnEftpos"`
	SignatureFlowOnEftpos         bool `json:"signatureFlowOnEftpos"`
	PrintMerchantCopy             bool `json:"printMerchantCopy"`
}

// AddTo sets the receipt options on a request payload
func (c ReceiptConfig) AddTo(data JSONObject) {
	data["prompt_for_customer_copy"] = c.PromptForCustomerCopyOnEftpos
	data["print_for_signature_required_transactions"] = c.SignatureFlowOnEftpos
	data["print_merchant_copy"] = c.PrintMerchantCopy
}

// PayAtTableConfig is pushed to the terminal on every reconnect
type PayAtTableConfig struct {
	PayAtTableEnabled     bool     `json:"payAtTableEnabled"`
	OperatorIDEnabled     bool     `json:"operatorIdEnabled"`
	SplitByAmountEnabled  bool     `json:"splitByAmountEnabled"`
	EqualSplitEnabled     bool     `json:"equalSplitEnabled"`
	TippingEnabled        bool     `json:"tippingEnabled"`
	SummaryReportEnabled  bool     `json:"summaryReportEnabled"`
	LabelPayButton        string   `json:"labelPayButton,omitempty"`
	LabelOperatorID       string   `json:"labelOperatorId,omitempty"`
	LabelTableID          string   `json:"labelTableId,omitempty"`
	AllowedOperatorIDs    []string `json:"allowedOperatorIds,omitempty"`
	TableRetrievalEnabled bool     `json:"tableRetrievalEnabled"`
}

func (c *PayAtTableConfig) ToData() JSONObject {
	operatorIDs := c.AllowedOperatorIDs
	if operatorIDs == nil {
		operatorIDs = []string{}
	}
	return JSONObject{
		"pay_at_table_enabled":    c.PayAtTableEnabled,
		"operator_id_enabled":     c.OperatorIDEnabled,
		"split_by_amount_enabled": c.SplitByAmountEnabled,
		"equal_split_enabled":     c.EqualSplitEnabled,
		"tipping_enabled":         c.TippingEnabled,
		"summary_report_enabled":  c.SummaryReportEnabled,
		"pay_button_label":        c.LabelPayButton,
		"operator_id_label":       c.LabelOperatorID,
		"table_id_label":          c.LabelTableID,
		"operator_id_list":        operatorIDs,
		"table_retrieval_enabled": c.TableRetrievalEnabled,
	}
}
