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
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/restclient"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/DixusSlim/spi-client-windows/pkg/wsclient"
)

var (
	spiConfig           = config.NewPluginConfig("spi")
	deviceAddressConfig = config.NewPluginConfig("deviceAddress")
	tenantsConfig       = config.NewPluginConfig("tenants")
	analyticsConfig     = config.NewPluginConfig("analytics")
)

// InitConfig registers the connection and collaborator keys. It must be called again after config.Reset()
func InitConfig() {
	wsclient.InitPrefix(spiConfig)
	restclient.InitPrefix(deviceAddressConfig)
	restclient.InitPrefix(tenantsConfig)
	restclient.InitPrefix(analyticsConfig)
}

func init() {
	InitConfig()
}

// Config is everything the client needs before Start. Most of it can be changed later
// through the setters, subject to the same rules.
type Config struct {
	PosID                 string
	SerialNumber          string
	EftposAddress         string
	DeviceAPIKey          string
	TenantCode            string
	PosVendorID           string
	PosVersion            string
	AutoAddressResolution bool
	TestMode              bool
	Receipt               spitypes.ReceiptConfig

	PongTimeout             time.Duration
	PingFrequency           time.Duration
	MissedPongsToDisconnect int

	MonitorCheckFrequency time.Duration
	CheckOnTxFrequency    time.Duration
	MaxWaitForCancel      time.Duration

	SleepBeforeReconnect                time.Duration
	RetriesBeforeResolvingDeviceAddress int
	RetriesBeforePairing                int

	EventQueueLength         int
	EventBlockedWarnInterval time.Duration

	WS *wsclient.WSConfig
}

// NewConfigFromRoot reads the spi.* keys
func NewConfigFromRoot() *Config {
	return &Config{
		PosID:                 config.GetString(config.SPIPosID),
		SerialNumber:          config.GetString(config.SPISerialNumber),
		EftposAddress:         config.GetString(config.SPIEftposAddress),
		DeviceAPIKey:          config.GetString(config.SPIDeviceAPIKey),
		TenantCode:            config.GetString(config.SPITenantCode),
		PosVendorID:           config.GetString(config.SPIPosVendorID),
		PosVersion:            config.GetString(config.SPIPosVersion),
		AutoAddressResolution: config.GetBool(config.SPIAutoAddressResolution),
		TestMode:              config.GetBool(config.SPITestMode),
		Receipt: spitypes.ReceiptConfig{
			PromptForCustomerCopyOnEftpos: config.GetBool(config.SPIReceiptPromptForCustomerCopy),
			SignatureFlowOnEftpos:         config.GetBool(config.SPIReceiptSignatureFlowOnEftpos),
			PrintMerchantCopy:             config.GetBool(config.SPIReceiptPrintMerchantCopy),
		},
		PongTimeout:                         config.GetDuration(config.SPIPingPongTimeout),
		PingFrequency:                       config.GetDuration(config.SPIPingFrequency),
		MissedPongsToDisconnect:             config.GetInt(config.SPIPingMissedPongsToDisconnect),
		MonitorCheckFrequency:               config.GetDuration(config.SPITxMonitorCheckFrequency),
		CheckOnTxFrequency:                  config.GetDuration(config.SPITxCheckOnTxFrequency),
		MaxWaitForCancel:                    config.GetDuration(config.SPITxMaxWaitForCancel),
		SleepBeforeReconnect:                config.GetDuration(config.SPIReconnectSleep),
		RetriesBeforeResolvingDeviceAddress: config.GetInt(config.SPIReconnectRetriesBeforeResolving),
		RetriesBeforePairing:                config.GetInt(config.SPIReconnectRetriesBeforePairing),
		EventQueueLength:                    config.GetInt(config.SPIEventsQueueLength),
		EventBlockedWarnInterval:            config.GetDuration(config.SPIEventsBlockedWarnInterval),
		WS:                                  wsclient.GenerateConfigFromPrefix(spiConfig),
	}
}
