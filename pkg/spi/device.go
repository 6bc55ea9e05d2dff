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
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// GetTerminalStatus asks for the battery and charging state. The answer arrives as an event.
func (c *client) GetTerminalStatus() {
	c.sendWhenReady(messages.TerminalStatusRequest())
}

func (c *client) GetTerminalConfiguration() {
	c.sendWhenReady(messages.TerminalConfigurationRequest())
}

// PrintReport prints free text on the terminal printer
func (c *client) PrintReport(key, payload string) {
	c.sendWhenReady(messages.PrintingRequest(key, payload))
}

func (c *client) sendWhenReady(m *spitypes.Message) {
	c.call(func() {
		if c.status != spitypes.SpiStatusPairedConnected {
			log.L(c.ctx).Infof("Asked to send %s, but not connected to a paired terminal", m.EventName)
			return
		}
		c.send(m)
	})
}

// SetPayAtTableConfig replaces the configuration pushed on every connect. Nil turns the feature off.
func (c *client) SetPayAtTableConfig(config *spitypes.PayAtTableConfig) {
	c.call(func() {
		if config != nil {
			cp := *config
			c.payAtTable = &cp
		} else {
			c.payAtTable = nil
		}
		if c.status != spitypes.SpiStatusPairedConnected {
			return
		}
		if c.payAtTable == nil {
			c.send(messages.PayAtTableDisable())
			return
		}
		c.send(messages.PayAtTableConfigRequest(c.payAtTable))
	})
}
