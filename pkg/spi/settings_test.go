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
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/deviceservice"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPosIDValidation(t *testing.T) {
	assert.True(t, isPosIDValid("POS1"))
	assert.True(t, isPosIDValid("abcdefABCDEF0123"))
	assert.False(t, isPosIDValid(""))
	assert.False(t, isPosIDValid("   "))
	assert.False(t, isPosIDValid("abcdefABCDEF01234"))
	assert.False(t, isPosIDValid("pos-1"))
}

func TestEftposAddressValidation(t *testing.T) {
	assert.True(t, isEftposAddressValid("10.20.30.40"))
	assert.True(t, isEftposAddressValid("ws://10.20.30.40"))
	assert.True(t, isEftposAddressValid("192.168.1.1:8080"))
	assert.False(t, isEftposAddressValid(""))
	assert.False(t, isEftposAddressValid("256.1.1.1"))
	assert.False(t, isEftposAddressValid("terminal.local"))
	assert.False(t, isEftposAddressValid("10.20.30"))
}

func TestSetPosIDOnlyWhileUnpaired(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	assert.True(t, ts.SetPosID("POS2"))
	ts.call(func() {
		assert.Equal(t, "POS2", ts.posID)
		assert.Equal(t, "POS2", ts.stamp.PosID)
	})

	assert.False(t, ts.SetPosID("bad id!"))
	ts.call(func() { assert.Equal(t, "", ts.posID) })

	ts2, done2 := newTestSPI(t, testConfig(), testSecrets())
	defer done2()
	assert.NoError(t, ts2.Start())
	assert.False(t, ts2.SetPosID("POS3"))
	assert.False(t, ts2.SetSerialNumber("1-2-3"))
	assert.False(t, ts2.SetTestMode(true))
	assert.False(t, ts2.SetDeviceAPIKey("k"))
	assert.False(t, ts2.SetTenantCode("gko"))
}

func TestSetEftposAddress(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()

	assert.True(t, ts.SetEftposAddress("10.0.0.2:9999"))
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.0.0.2:8080")

	assert.True(t, ts.SetEftposAddress("ws://10.0.0.3"))
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.0.0.3:8080")
	ts.call(func() { assert.Equal(t, "ws://10.0.0.3", ts.eftposAddress) })

	assert.False(t, ts.SetEftposAddress("nope"))
	ts.term.conn.AssertCalled(t, "SetAddress", "")
	ts.call(func() { assert.Equal(t, "", ts.eftposAddress) })
}

func TestTenantKeepsPort(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	assert.True(t, ts.SetTenantCode("WBC"))
	assert.True(t, ts.SetEftposAddress("10.0.0.2:9000"))
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.0.0.2:9000")

	assert.True(t, ts.SetTenantCode("gko"))
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.0.0.2:8080")
}

func TestSetEftposAddressRefusedWhenConnected(t *testing.T) {
	ts, done := newReadySPI(t, testConfig())
	defer done()
	assert.False(t, ts.SetEftposAddress("10.0.0.9"))
	assert.False(t, ts.SetAutoAddressResolution(true))
	ts.call(func() { assert.Equal(t, "10.20.30.40", ts.eftposAddress) })
}

func autoResolveConfig() *Config {
	conf := testConfig()
	conf.AutoAddressResolution = true
	conf.DeviceAPIKey = "apikey"
	conf.TenantCode = "gko"
	return conf
}

func TestSetSerialNumberResolvesAddress(t *testing.T) {
	ts, done := newTestSPI(t, autoResolveConfig(), nil)
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeDeviceAddressChanged)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "999-999-999", "apikey", "gko", false).
		Return(&deviceservice.AddressResponse{
			StatusCode:  200,
			Address:     "10.1.1.1",
			LastUpdated: "2022-05-06T07:08:09Z",
		}, nil)

	assert.True(t, ts.SetSerialNumber("999-999-999"))
	ev := nextEvent(t, sub)
	assert.Equal(t, spitypes.DeviceAddressResponseCodeSuccess, ev.DeviceAddressStatus.ResponseCode)
	assert.Equal(t, "10.1.1.1", ev.DeviceAddressStatus.Address)
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.1.1.1:8080")
	assert.Equal(t, "10.1.1.1", ts.CurrentDeviceStatus().Address)

	assert.True(t, ts.SetSerialNumber("999-999-999"))
	ev = nextEvent(t, sub)
	assert.Equal(t, spitypes.DeviceAddressResponseCodeSerialNumberNotChanged, ev.DeviceAddressStatus.ResponseCode)
	ts.devices.AssertNumberOfCalls(t, "RetrieveDeviceAddress", 1)
}

func TestResolveAddressNotChanged(t *testing.T) {
	ts, done := newTestSPI(t, autoResolveConfig(), nil)
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeDeviceAddressChanged)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "111-222-333", "apikey", "gko", false).
		Return(&deviceservice.AddressResponse{StatusCode: 200, Address: "10.20.30.40"}, nil)

	assert.True(t, ts.SetSerialNumber("111-222-333"))
	ev := nextEvent(t, sub)
	assert.Equal(t, spitypes.DeviceAddressResponseCodeAddressNotChanged, ev.DeviceAddressStatus.ResponseCode)
}

func TestResolveAddressFailuresAreQuiet(t *testing.T) {
	ts, done := newTestSPI(t, autoResolveConfig(), nil)
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeDeviceAddressChanged)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "404-404-404", "apikey", "gko", false).
		Return(&deviceservice.AddressResponse{StatusCode: 404}, nil)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "500-500-500", "apikey", "gko", false).
		Return(nil, fmt.Errorf("pop"))

	assert.True(t, ts.SetSerialNumber("404-404-404"))
	assert.Eventually(t, func() bool {
		return ts.CurrentDeviceStatus().ResponseCode == spitypes.DeviceAddressResponseCodeInvalidSerialNumber
	}, 5*time.Second, 10*time.Millisecond)

	assert.True(t, ts.SetSerialNumber("500-500-500"))
	assert.Eventually(t, func() bool {
		return ts.CurrentDeviceStatus().ResponseCode == spitypes.DeviceAddressResponseCodeDeviceServiceError
	}, 5*time.Second, 10*time.Millisecond)

	select {
	case ev := <-sub.Events():
		t.Errorf("unexpected event %+v", ev)
	default:
	}
	ts.call(func() { assert.Equal(t, "10.20.30.40", ts.eftposAddress) })
}

func TestAutoResolveNeedsSerialAndKey(t *testing.T) {
	conf := autoResolveConfig()
	conf.DeviceAPIKey = ""
	ts, done := newTestSPI(t, conf, nil)
	defer done()
	assert.True(t, ts.SetSerialNumber("1-2-3"))
	assert.True(t, ts.SetTestMode(true))
	ts.sync()
	ts.devices.AssertNotCalled(t, "RetrieveDeviceAddress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTurningOnAutoResolution(t *testing.T) {
	conf := autoResolveConfig()
	conf.AutoAddressResolution = false
	ts, done := newTestSPI(t, conf, nil)
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeDeviceAddressChanged)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "321-404-842", "apikey", "gko", true).
		Return(&deviceservice.AddressResponse{StatusCode: 200, Address: "10.9.9.9"}, nil)

	assert.True(t, ts.SetTestMode(true))
	assert.True(t, ts.SetAutoAddressResolution(true))
	ev := nextEvent(t, sub)
	assert.Equal(t, "10.9.9.9", ev.DeviceAddressStatus.Address)
	assert.True(t, ts.SetAutoAddressResolution(true))
	ts.sync()
	ts.devices.AssertNumberOfCalls(t, "RetrieveDeviceAddress", 1)
}

func TestReconnectResolvesAddressAfterRetries(t *testing.T) {
	ts, done := newTestSPI(t, autoResolveConfig(), testSecrets())
	defer done()
	sub := ts.Subscribe(spitypes.EventTypeDeviceAddressChanged)
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "321-404-842", "apikey", "gko", false).
		Return(&deviceservice.AddressResponse{StatusCode: 200, Address: "10.7.7.7"}, nil)
	assert.NoError(t, ts.Start())

	for i := 0; i < 3; i++ {
		ts.term.drop()
		ts.clock.Advance(3 * time.Second)
	}
	ts.sync()
	ts.devices.AssertNotCalled(t, "RetrieveDeviceAddress", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	ts.term.drop()
	ev := nextEvent(t, sub)
	assert.Equal(t, "10.7.7.7", ev.DeviceAddressStatus.Address)
	ts.term.conn.AssertCalled(t, "SetAddress", "ws://10.7.7.7:8080")
}

func TestGetTerminalAddress(t *testing.T) {
	ts, done := newTestSPI(t, autoResolveConfig(), nil)
	defer done()
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "321-404-842", "apikey", "gko", false).
		Return(&deviceservice.AddressResponse{StatusCode: 200, Address: "10.5.5.5"}, nil).Once()
	ts.devices.On("RetrieveDeviceAddress", mock.Anything, "321-404-842", "apikey", "gko", false).
		Return(nil, fmt.Errorf("pop")).Once()

	address, err := ts.GetTerminalAddress(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "10.5.5.5", address)
	ts.call(func() { assert.Equal(t, "10.20.30.40", ts.eftposAddress) })

	_, err = ts.GetTerminalAddress(context.Background())
	assert.Regexp(t, "pop", err)
}

func TestGetTerminalAddressMissingInfo(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	_, err := ts.GetTerminalAddress(context.Background())
	assert.Regexp(t, "SPI10143", err)
}

func TestSetPosInfoAndReceiptConfig(t *testing.T) {
	ts, done := newTestSPI(t, testConfig(), nil)
	defer done()
	ts.SetPosInfo("vendor2", "9.9")
	ts.SetReceiptConfig(spitypes.ReceiptConfig{SignatureFlowOnEftpos: true})
	ts.call(func() {
		assert.Equal(t, "vendor2", ts.posVendorID)
		assert.Equal(t, "9.9", ts.posVersion)
		assert.True(t, ts.receiptConfig.SignatureFlowOnEftpos)
	})
}
