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
	"fmt"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/spf13/cobra"
)

var pairCmd = &cobra.Command{
	Use:   "pair",
	Short: "Pairs with the terminal",
	Long:  "Pairs with the terminal and saves the agreed secrets, after the code shown on both screens is confirmed",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, false, pair)
	},
}

func pair(s *session) error {
	if !s.client.Pair() {
		return i18n.NewError(s.ctx, i18n.MsgPairingFailed, "pairing could not start, check the POS id and terminal address, or unpair first")
	}
	asked := false
	var lastMessage string
	return s.waitFor("pairing", config.GetDuration(config.CLITxTimeout), s.client.PairingCancel, func(ev *spitypes.Event) (bool, error) {
		if ev.Type != spitypes.EventTypePairingFlowStateChanged {
			return false, nil
		}
		state := ev.PairingFlowState
		if state.Message != lastMessage {
			fmt.Fprintln(s.out, state.Message)
			lastMessage = state.Message
		}
		if state.AwaitingCheckFromPos && !asked {
			asked = true
			if s.confirm(fmt.Sprintf("Does the terminal show %s?", state.ConfirmationCode)) {
				s.client.PairingConfirmCode()
			} else {
				s.client.PairingCancel()
			}
		}
		if !state.Finished {
			return false, nil
		}
		s.client.AckFlowEndedAndBackToIdle()
		if !state.Successful {
			return true, i18n.NewError(s.ctx, i18n.MsgPairingFailed, state.Message)
		}
		// the secrets event may still be queued behind this one
		s.secrets.Secrets = s.client.Secrets()
		s.secrets.PosID = s.posID
		return true, saveSecrets(s.ctx, s.secretsFilename, s.secrets)
	})
}

var unpairCmd = &cobra.Command{
	Use:   "unpair",
	Short: "Unpairs from the terminal and forgets the secrets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession(cmd, true, unpair)
	},
}

func unpair(s *session) error {
	// an unreachable terminal is still forgotten locally
	if s.waitReady() == nil {
		s.client.Unpair()
	}
	s.secrets.Secrets = nil
	return saveSecrets(s.ctx, s.secretsFilename, s.secrets)
}

func init() {
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(unpairCmd)
}
