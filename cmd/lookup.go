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

package cmd

import (
	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/pkg/spi"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/spf13/cobra"
)

var countryCode string

var getAvailableTenants = spi.GetAvailableTenants

var tenantsCmd = &cobra.Command{
	Use:   "tenants",
	Short: "Lists the acquirer tenants available to this POS vendor",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := rootContext()
		if err := loadConfig(ctx); err != nil {
			return err
		}
		tenants, err := getAvailableTenants(ctx, config.GetString(config.SPIPosVendorID), config.GetString(config.SPIDeviceAPIKey), countryCode)
		if err != nil {
			return err
		}
		return render(ctx, cmd.OutOrStdout(), tenants, output)
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Looks up the terminal address from its serial number",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := rootContext()
		if err := loadConfig(ctx); err != nil {
			return err
		}
		c, err := newClient(ctx, spi.NewConfigFromRoot(), nil)
		if err != nil {
			return err
		}
		defer c.Stop()
		address, err := c.GetTerminalAddress(ctx)
		if err != nil {
			return err
		}
		return render(ctx, cmd.OutOrStdout(), map[string]string{"address": address}, output)
	},
}

var terminalCmd = &cobra.Command{
	Use:   "terminal",
	Short: "Shows the status and configuration of the paired terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, terminalInfo)
	},
}

// TerminalInfo combines the two terminal queries
type TerminalInfo struct {
	Status        *spitypes.TerminalStatus        `json:"status,omitempty"`
	Configuration *spitypes.TerminalConfiguration `json:"configuration,omitempty"`
}

func terminalInfo(s *session) error {
	if err := s.waitReady(); err != nil {
		return err
	}
	info := &TerminalInfo{}
	s.client.GetTerminalStatus()
	s.client.GetTerminalConfiguration()
	err := s.waitFor("the terminal to respond", config.GetDuration(config.CLIReadyTimeout), nil, func(ev *spitypes.Event) (bool, error) {
		switch ev.Type {
		case spitypes.EventTypeTerminalStatusResponse:
			info.Status = ev.TerminalStatus
		case spitypes.EventTypeTerminalConfigurationResponse:
			info.Configuration = ev.TerminalConfiguration
		}
		return info.Status != nil && info.Configuration != nil, nil
	})
	if err != nil {
		return err
	}
	return render(s.ctx, s.out, info, output)
}

func init() {
	tenantsCmd.Flags().StringVarP(&countryCode, "country", "c", "AU", "country code")
	rootCmd.AddCommand(tenantsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(terminalCmd)
}
