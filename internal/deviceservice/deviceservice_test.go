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
	"net/http"
	"testing"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/restclient"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
)

var utConfPrefix = config.NewPluginConfig("deviceservice_unit_tests")

func newTestService(t *testing.T) (*deviceService, func()) {
	config.Reset()
	restclient.InitPrefix(utConfPrefix)
	s := New(context.Background(), utConfPrefix).(*deviceService)
	httpmock.ActivateNonDefault(s.client.GetClient())
	return s, httpmock.DeactivateAndReset
}

func TestAddressURL(t *testing.T) {
	assert.Equal(t, "https://device-address-api.wbc.msp.assemblypayments.com/v1/321-404-152/ip", AddressURL("321-404-152", "wbc", false))
	assert.Equal(t, "https://device-address-api-sb.gko.msp.assemblypayments.com/v1/321-404-152/ip", AddressURL("321-404-152", "gko", true))
}

func TestRetrieveDeviceAddressOK(t *testing.T) {
	s, done := newTestService(t)
	defer done()

	httpmock.RegisterResponder("GET", "https://device-address-api-sb.gko.msp.assemblypayments.com/v1/321-404-152/ip",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "key1", req.Header.Get(APIKeyHeader))
			return httpmock.NewJsonResponse(200, map[string]interface{}{
				"ip":           "192.168.1.20",
				"last_udpated": "2019-05-10T01:02:03Z",
			})
		})

	res, err := s.RetrieveDeviceAddress(context.Background(), "321-404-152", "key1", "gko", true)
	assert.NoError(t, err)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "192.168.1.20", res.Address)
	assert.Equal(t, "2019-05-10T01:02:03Z", res.LastUpdated)
}

func TestRetrieveDeviceAddressNotFound(t *testing.T) {
	s, done := newTestService(t)
	defer done()

	httpmock.RegisterResponder("GET", "https://device-address-api.wbc.msp.assemblypayments.com/v1/bad/ip",
		httpmock.NewStringResponder(404, `<html>not found</html>`))

	res, err := s.RetrieveDeviceAddress(context.Background(), "bad", "key1", "wbc", false)
	assert.Regexp(t, "SPI10140", err)
	assert.Equal(t, 404, res.StatusCode)

	status := GenerateDeviceAddressStatus(res, "ws://192.168.1.20")
	assert.Equal(t, spitypes.DeviceAddressResponseCodeInvalidSerialNumber, status.ResponseCode)
}

func TestRetrieveDeviceAddressConfiguredURL(t *testing.T) {
	config.Reset()
	restclient.InitPrefix(utConfPrefix)
	utConfPrefix.Set(restclient.HTTPConfigURL, "http://localhost:12345/")
	s := New(context.Background(), utConfPrefix).(*deviceService)
	httpmock.ActivateNonDefault(s.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://localhost:12345/v1/sn1/ip",
		httpmock.NewStringResponder(200, `{"ip":"10.0.0.1"}`))

	res, err := s.RetrieveDeviceAddress(context.Background(), "sn1", "key1", "wbc", false)
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.1", res.Address)
}

func TestGenerateDeviceAddressStatus(t *testing.T) {
	status := GenerateDeviceAddressStatus(nil, "")
	assert.Equal(t, spitypes.DeviceAddressResponseCodeDeviceServiceError, status.ResponseCode)

	status = GenerateDeviceAddressStatus(&AddressResponse{StatusCode: 500, StatusDescription: "500 Internal Server Error"}, "")
	assert.Equal(t, spitypes.DeviceAddressResponseCodeDeviceServiceError, status.ResponseCode)
	assert.Equal(t, "500 Internal Server Error", status.ResponseStatusDescription)

	status = GenerateDeviceAddressStatus(&AddressResponse{StatusCode: 200, Address: "10.0.0.1"}, "ws://10.0.0.1")
	assert.Equal(t, spitypes.DeviceAddressResponseCodeAddressNotChanged, status.ResponseCode)

	status = GenerateDeviceAddressStatus(&AddressResponse{StatusCode: 200, StatusDescription: "200 OK", Address: "10.0.0.2", LastUpdated: "now"}, "ws://10.0.0.1")
	assert.Equal(t, spitypes.DeviceAddressResponseCodeSuccess, status.ResponseCode)
	assert.Equal(t, "10.0.0.2", status.Address)
	assert.Equal(t, "now", status.LastUpdated)
	assert.Equal(t, "200 OK", status.ResponseStatusDescription)
}
