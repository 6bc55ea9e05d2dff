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
	"regexp"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/deviceservice"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/tenants"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

const (
	maxPosIDLength  = 16
	wsScheme        = "ws://"
	terminalWSPort  = "8080"
	tenantKeepsPort = "wbc"
)

var (
	posIDRegex = regexp.MustCompile(`^[a-zA-Z0-9]*$`)
	// IPv4, with an optional port
	eftposAddressRegex = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)(:[0-9]{1,5})?$`)
)

func isPosIDValid(posID string) bool {
	return strings.TrimSpace(posID) != "" && len(posID) <= maxPosIDLength && posIDRegex.MatchString(posID)
}

func isEftposAddressValid(address string) bool {
	return eftposAddressRegex.MatchString(strings.TrimPrefix(address, wsScheme))
}

// connectionAddress is where the connection dials. Terminals listen on 8080,
// except for tenants that publish their own port.
func (c *client) connectionAddress() string {
	address := strings.TrimPrefix(c.eftposAddress, wsScheme)
	if address == "" {
		return ""
	}
	if !strings.EqualFold(c.tenantCode, tenantKeepsPort) {
		if i := strings.Index(address, ":"); i >= 0 {
			address = address[:i]
		}
		address += ":" + terminalWSPort
	}
	return wsScheme + address
}

// SetPosID is only allowed while unpaired. An invalid id leaves the POS id empty.
func (c *client) SetPosID(posID string) (ok bool) {
	c.call(func() {
		if c.status != spitypes.SpiStatusUnpaired {
			return
		}
		c.posID = ""
		c.stamp.PosID = ""
		if !isPosIDValid(posID) {
			log.L(c.ctx).Warnf("Pos Id set to null")
			return
		}
		c.posID = posID
		c.stamp.PosID = posID
		ok = true
	})
	return ok
}

// SetEftposAddress is refused while connected to a terminal. An invalid address leaves it empty.
func (c *client) SetEftposAddress(address string) (ok bool) {
	c.call(func() {
		if c.status == spitypes.SpiStatusPairedConnected {
			return
		}
		c.eftposAddress = ""
		if !isEftposAddressValid(address) {
			log.L(c.ctx).Warnf("Eftpos Address set to null")
			c.conn.SetAddress("")
			return
		}
		c.eftposAddress = wsScheme + strings.TrimPrefix(address, wsScheme)
		c.conn.SetAddress(c.connectionAddress())
		ok = true
	})
	return ok
}

func (c *client) SetSerialNumber(serialNumber string) (ok bool) {
	c.call(func() {
		if c.status != spitypes.SpiStatusUnpaired {
			return
		}
		was := c.serialNumber
		c.serialNumber = serialNumber
		if serialNumber != was {
			c.autoResolveEftposAddress()
		} else {
			c.deviceStatus.ResponseCode = spitypes.DeviceAddressResponseCodeSerialNumberNotChanged
			c.emitDeviceStatus()
		}
		ok = true
	})
	return ok
}

func (c *client) SetAutoAddressResolution(enabled bool) (ok bool) {
	c.call(func() {
		if c.status == spitypes.SpiStatusPairedConnected {
			return
		}
		turnedOn := enabled && !c.autoAddressResolution
		c.autoAddressResolution = enabled
		if turnedOn {
			c.autoResolveEftposAddress()
		}
		ok = true
	})
	return ok
}

// SetTestMode switches the address lookup between the sandbox and production services
func (c *client) SetTestMode(testMode bool) (ok bool) {
	c.call(func() {
		if c.status != spitypes.SpiStatusUnpaired {
			return
		}
		if testMode != c.testMode {
			c.testMode = testMode
			c.autoResolveEftposAddress()
		}
		ok = true
	})
	return ok
}

func (c *client) SetDeviceAPIKey(apiKey string) (ok bool) {
	c.call(func() {
		if c.status != spitypes.SpiStatusUnpaired {
			return
		}
		c.deviceAPIKey = apiKey
		ok = true
	})
	return ok
}

func (c *client) SetTenantCode(tenantCode string) (ok bool) {
	c.call(func() {
		if c.status != spitypes.SpiStatusUnpaired {
			return
		}
		c.tenantCode = tenantCode
		c.conn.SetAddress(c.connectionAddress())
		ok = true
	})
	return ok
}

func (c *client) SetPosInfo(posVendorID, posVersion string) {
	c.call(func() {
		c.posVendorID = posVendorID
		c.posVersion = posVersion
	})
}

func (c *client) SetReceiptConfig(config spitypes.ReceiptConfig) {
	c.call(func() {
		c.receiptConfig = config
	})
}

// autoResolveEftposAddress looks the address up in the background. The outcome is
// applied back on the loop.
func (c *client) autoResolveEftposAddress() {
	if !c.autoAddressResolution {
		return
	}
	if strings.TrimSpace(c.serialNumber) == "" || strings.TrimSpace(c.deviceAPIKey) == "" {
		log.L(c.ctx).Warnf("Missing serialNumber and/or deviceApiKey. Need to set them before for Auto Address to work.")
		return
	}
	serialNumber, apiKey, tenantCode, testMode := c.serialNumber, c.deviceAPIKey, c.tenantCode, c.testMode
	go func() {
		res, err := c.devices.RetrieveDeviceAddress(c.ctx, serialNumber, apiKey, tenantCode, testMode)
		if err != nil {
			log.L(c.ctx).Warnf("Device address lookup for %s failed: %s", serialNumber, err)
		}
		c.post(func() {
			c.onDeviceAddressResolved(res)
		})
	}()
}

func (c *client) onDeviceAddressResolved(res *deviceservice.AddressResponse) {
	status := deviceservice.GenerateDeviceAddressStatus(res, c.eftposAddress)
	c.deviceStatus = status
	switch status.ResponseCode {
	case spitypes.DeviceAddressResponseCodeDeviceServiceError:
		log.L(c.ctx).Warnf("Could not communicate with device address service.")
		return
	case spitypes.DeviceAddressResponseCodeInvalidSerialNumber:
		log.L(c.ctx).Warnf("Could not resolve address, invalid serial number.")
		return
	case spitypes.DeviceAddressResponseCodeAddressNotChanged:
		log.L(c.ctx).Infof("Address resolved, but device address has not changed.")
	default:
		c.eftposAddress = wsScheme + status.Address
		c.conn.SetAddress(c.connectionAddress())
		log.L(c.ctx).Infof("Address resolved to %s", status.Address)
	}
	c.emitDeviceStatus()
}

// GetTerminalAddress asks the device address service for the current address of the terminal, without applying it
func (c *client) GetTerminalAddress(ctx context.Context) (string, error) {
	var serialNumber, apiKey, tenantCode string
	var testMode bool
	if !c.call(func() {
		serialNumber, apiKey, tenantCode, testMode = c.serialNumber, c.deviceAPIKey, c.tenantCode, c.testMode
	}) {
		return "", i18n.NewError(ctx, i18n.MsgClientStopped)
	}
	if serialNumber == "" || apiKey == "" || tenantCode == "" {
		return "", i18n.NewError(ctx, i18n.MsgMissingDeviceLookupInfo)
	}
	res, err := c.devices.RetrieveDeviceAddress(ctx, serialNumber, apiKey, tenantCode, testMode)
	if err != nil {
		return "", err
	}
	return res.Address, nil
}

// GetAvailableTenants lists the tenants a POS vendor can be configured for in a country
func GetAvailableTenants(ctx context.Context, posVendorID, apiKey, countryCode string) ([]*spitypes.Tenant, error) {
	return tenants.New(ctx, tenantsConfig).RetrieveTenantsList(ctx, posVendorID, apiKey, countryCode)
}
