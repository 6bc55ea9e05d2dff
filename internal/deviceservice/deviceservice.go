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

package deviceservice

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/restclient"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/go-resty/resty/v2"
)

// APIKeyHeader carries the device API key on device address and analytics requests
const APIKeyHeader = "ASM-MSP-DEVICE-ADDRESS-API-KEY"

// Service looks up the current address of a terminal from its serial number
type Service interface {
	RetrieveDeviceAddress(ctx context.Context, serialNumber, apiKey, tenantCode string, testMode bool) (*AddressResponse, error)
}

// AddressResponse is the raw outcome of a lookup. StatusCode is zero when no HTTP response was received.
type AddressResponse struct {
	StatusCode        int
	StatusDescription string
	Address           string `json:"ip"`
	LastUpdated       string `json:"last_udpated"`
}

type deviceService struct {
	client  *resty.Client
	baseURL string
}

func New(ctx context.Context, prefix config.Prefix) Service {
	return &deviceService{
		client:  restclient.New(log.WithLogField(ctx, "role", "device-service"), prefix),
		baseURL: strings.TrimSuffix(prefix.GetString(restclient.HTTPConfigURL), "/"),
	}
}

// AddressURL is the lookup endpoint for a serial number, on the sandbox in test mode
func AddressURL(serialNumber, tenantCode string, testMode bool) string {
	if testMode {
		return fmt.Sprintf("https://device-address-api-sb.%s.msp.assemblypayments.com/v1/%s/ip", tenantCode, serialNumber)
	}
	return fmt.Sprintf("https://device-address-api.%s.msp.assemblypayments.com/v1/%s/ip", tenantCode, serialNumber)
}

func (s *deviceService) RetrieveDeviceAddress(ctx context.Context, serialNumber, apiKey, tenantCode string, testMode bool) (*AddressResponse, error) {
	url := AddressURL(serialNumber, tenantCode, testMode)
	if s.baseURL != "" {
		url = fmt.Sprintf("%s/v1/%s/ip", s.baseURL, serialNumber)
	}
	var result AddressResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader(APIKeyHeader, apiKey).
		ForceContentType("application/json").
		SetResult(&result).
		Get(url)
	if res != nil {
		result.StatusCode = res.StatusCode()
		result.StatusDescription = res.Status()
	}
	if err != nil || !res.IsSuccess() {
		return &result, restclient.WrapRestErr(ctx, res, err, i18n.MsgDeviceServiceError)
	}
	return &result, nil
}

// GenerateDeviceAddressStatus classifies a lookup against the address currently in use
func GenerateDeviceAddressStatus(res *AddressResponse, currentAddress string) *spitypes.DeviceAddressStatus {
	status := &spitypes.DeviceAddressStatus{}
	switch {
	case res != nil && res.StatusCode == http.StatusNotFound:
		status.ResponseCode = spitypes.DeviceAddressResponseCodeInvalidSerialNumber
	case res == nil || res.StatusCode != http.StatusOK || res.Address == "":
		status.ResponseCode = spitypes.DeviceAddressResponseCodeDeviceServiceError
		if res != nil {
			status.ResponseStatusDescription = res.StatusDescription
		}
	case res.Address == strings.TrimPrefix(currentAddress, "ws://"):
		status.ResponseCode = spitypes.DeviceAddressResponseCodeAddressNotChanged
		status.Address = res.Address
		status.LastUpdated = res.LastUpdated
	default:
		status.ResponseCode = spitypes.DeviceAddressResponseCodeSuccess
		status.ResponseStatusDescription = res.StatusDescription
		status.Address = res.Address
		status.LastUpdated = res.LastUpdated
	}
	return status
}
