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

package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/deviceservice"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/restclient"
	"github.com/go-resty/resty/v2"
)

// TransactionReport is posted after every finished transaction
type TransactionReport struct {
	PosVendorID        string `json:"pos_vendor_id"`
	PosVersion         string `json:"pos_version"`
	LibraryLanguage    string `json:"library_language"`
	LibraryVersion     string `json:"library_version"`
	PosRefID           string `json:"pos_ref_id"`
	SerialNumber       string `json:"serial_number"`
	Event              string `json:"event"`
	TxType             string `json:"tx_type"`
	TxResult           string `json:"tx_result"`
	TxStartTime        int64  `json:"tx_start_ts_ms"`
	TxEndTime          int64  `json:"tx_end_ts_ms"`
	DurationMs         int64  `json:"duration_ms"`
	CurrentFlow        string `json:"current_flow"`
	CurrentTxFlowState string `json:"current_tx_flow_state"`
	CurrentStatus      string `json:"current_status"`
	SessionID          string `json:"session_id"`
}

// Service receives transaction reports
type Service interface {
	ReportTransaction(ctx context.Context, report *TransactionReport, apiKey, tenantCode string, testMode bool) error
}

type analyticsService struct {
	client  *resty.Client
	baseURL string
}

func New(ctx context.Context, prefix config.Prefix) Service {
	return &analyticsService{
		client:  restclient.New(log.WithLogField(ctx, "role", "analytics"), prefix),
		baseURL: strings.TrimSuffix(prefix.GetString(restclient.HTTPConfigURL), "/"),
	}
}

func ReportURL(tenantCode string, testMode bool) string {
	if testMode {
		return fmt.Sprintf("https://spi-analytics-api-sb.%s.mspenv.io/v1/report-transaction", tenantCode)
	}
	return fmt.Sprintf("https://spi-analytics-api.%s.mspenv.io/v1/report-transaction", tenantCode)
}

func (s *analyticsService) ReportTransaction(ctx context.Context, report *TransactionReport, apiKey, tenantCode string, testMode bool) error {
	url := ReportURL(tenantCode, testMode)
	if s.baseURL != "" {
		url = s.baseURL + "/v1/report-transaction"
	}
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader(deviceservice.APIKeyHeader, apiKey).
		SetBody(report).
		Post(url)
	if err != nil || !res.IsSuccess() {
		return restclient.WrapRestErr(ctx, res, err, i18n.MsgAnalyticsServiceError)
	}
	return nil
}
