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

	"github.com/DixusSlim/spi-client-windows/internal/analytics"
	"github.com/DixusSlim/spi-client-windows/internal/log"
)

// buildTransactionReport captures the active flow. An unfinished flow is reported as of now.
func (c *client) buildTransactionReport() *analytics.TransactionReport {
	tx := c.txFlow
	start := tx.RequestTime()
	end := tx.CompletedTime()
	if !tx.Finished() {
		end = c.clock.Now()
	}
	return &analytics.TransactionReport{
		PosVendorID:     c.posVendorID,
		PosVersion:      c.posVersion,
		LibraryLanguage: libraryLanguage,
		LibraryVersion:  LibraryVersion,
		PosRefID:        tx.PosRefID(),
		SerialNumber:    c.serialNumber,
		Event: fmt.Sprintf("Waiting for Signature: %t, Attempting to Cancel: %t, Finished: %t",
			tx.AwaitingSignatureCheck(), tx.Cancelling(), tx.Finished()),
		TxType:             tx.Type().String(),
		TxResult:           tx.Success().String(),
		TxStartTime:        start.UnixMilli(),
		TxEndTime:          end.UnixMilli(),
		DurationMs:         end.Sub(start).Milliseconds(),
		CurrentFlow:        c.flow.String(),
		CurrentTxFlowState: tx.Type().String(),
		CurrentStatus:      c.status.String(),
		SessionID:          c.sessionID,
	}
}

// reportTransaction posts the report in the background. Reports need the device API key and tenant.
func (c *client) reportTransaction() {
	if c.txFlow == nil {
		return
	}
	if c.deviceAPIKey == "" || c.tenantCode == "" {
		log.L(c.ctx).Debugf("Skipping transaction report for %s without device API key and tenant", c.txFlow.PosRefID())
		return
	}
	report := c.buildTransactionReport()
	apiKey, tenantCode, testMode := c.deviceAPIKey, c.tenantCode, c.testMode
	go func() {
		if err := c.analytics.ReportTransaction(c.ctx, report, apiKey, tenantCode, testMode); err != nil {
			log.L(c.ctx).Warnf("Transaction report for %s failed: %s", report.PosRefID, err)
		}
	}()
}
