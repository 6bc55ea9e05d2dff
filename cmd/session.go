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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/spievents"
	"github.com/DixusSlim/spi-client-windows/pkg/spi"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/spf13/cobra"
)

// newClient is swapped out in unit tests
var newClient = func(ctx context.Context, conf *spi.Config, secrets *spitypes.Secrets) (spi.Client, error) {
	return spi.New(ctx, conf, secrets)
}

var output = "yaml"

// session is one CLI invocation against the terminal. All events are consumed on the
// command's goroutine, so prompts block event handling until answered.
type session struct {
	ctx             context.Context
	client          spi.Client
	sub             *spievents.Subscription
	secretsFilename string
	secrets         *secretsFile
	posID           string
	in              *bufio.Reader
	out             io.Writer
	metrics         *metricsServer
	interrupts      chan os.Signal
}

func openSession(cmd *cobra.Command, requireSecrets bool) (*session, error) {
	ctx := rootContext()
	if err := loadConfig(ctx); err != nil {
		return nil, err
	}

	s := &session{
		ctx:             ctx,
		secretsFilename: config.GetString(config.CLISecretsFile),
		in:              bufio.NewReader(cmd.InOrStdin()),
		out:             cmd.OutOrStdout(),
		interrupts:      make(chan os.Signal, 1),
	}
	var err error
	if s.secrets, err = loadSecrets(ctx, s.secretsFilename); err != nil {
		return nil, err
	}
	if requireSecrets && s.secrets.Secrets == nil {
		return nil, i18n.NewError(ctx, i18n.MsgNoSecrets, s.secretsFilename)
	}

	conf := spi.NewConfigFromRoot()
	if conf.PosID == "" {
		conf.PosID = s.secrets.PosID
	}
	if conf.EftposAddress == "" {
		conf.EftposAddress = s.secrets.EftposAddress
	}
	s.posID = conf.PosID

	if s.metrics, err = startMetricsServer(ctx); err != nil {
		return nil, err
	}
	if s.client, err = newClient(ctx, conf, s.secrets.Secrets); err != nil {
		s.metrics.close(ctx)
		return nil, err
	}
	s.sub = s.client.Subscribe()
	if err = s.client.Start(); err != nil {
		s.close()
		return nil, err
	}
	signal.Notify(s.interrupts, os.Interrupt)
	return s, nil
}

func (s *session) close() {
	signal.Stop(s.interrupts)
	s.client.Unsubscribe(s.sub)
	s.client.Stop()
	s.metrics.close(s.ctx)
}

// handleCommon keeps the secrets file current whatever the command is waiting for
func (s *session) handleCommon(ev *spitypes.Event) {
	switch ev.Type {
	case spitypes.EventTypeSecretsChanged:
		s.secrets.Secrets = ev.Secrets
		s.secrets.PosID = s.posID
		if err := saveSecrets(s.ctx, s.secretsFilename, s.secrets); err != nil {
			log.L(s.ctx).Errorf("Pairing secrets could not be saved: %s", err)
		}
	case spitypes.EventTypeDeviceAddressChanged:
		das := ev.DeviceAddressStatus
		if das.ResponseCode == spitypes.DeviceAddressResponseCodeSuccess && das.Address != "" {
			s.secrets.EftposAddress = das.Address
			if s.secrets.Secrets != nil {
				_ = saveSecrets(s.ctx, s.secretsFilename, s.secrets)
			}
		}
	case spitypes.EventTypeStatusChanged:
		log.L(s.ctx).Infof("Status: %s", ev.Status)
	}
}

// waitFor feeds events to fn until it returns true. Interrupts go to onInterrupt, if set.
func (s *session) waitFor(what string, timeout time.Duration, onInterrupt func(), fn func(ev *spitypes.Event) (bool, error)) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-s.sub.Events():
			if !ok {
				return i18n.NewError(s.ctx, i18n.MsgClientStopped)
			}
			s.handleCommon(ev)
			if done, err := fn(ev); done || err != nil {
				return err
			}
		case <-s.interrupts:
			if onInterrupt == nil {
				return i18n.NewError(s.ctx, i18n.MsgContextCanceled)
			}
			onInterrupt()
		case <-timer.C:
			return i18n.NewError(s.ctx, i18n.MsgWaitTimeout, what)
		}
	}
}

func (s *session) waitReady() error {
	if s.client.CurrentStatus() == spitypes.SpiStatusPairedConnected {
		return nil
	}
	fmt.Fprintln(s.out, "Connecting to terminal...")
	return s.waitFor("the terminal to connect", config.GetDuration(config.CLIReadyTimeout), nil, func(ev *spitypes.Event) (bool, error) {
		if ev.Type == spitypes.EventTypeStatusChanged && ev.Status == spitypes.SpiStatusUnpaired {
			return true, i18n.NewError(s.ctx, i18n.MsgNoSecrets, s.secretsFilename)
		}
		return s.client.CurrentStatus() == spitypes.SpiStatusPairedConnected, nil
	})
}

func (s *session) prompt(question string) string {
	fmt.Fprint(s.out, question)
	answer, _ := s.in.ReadString('\n')
	return strings.TrimSpace(answer)
}

func (s *session) confirm(question string) bool {
	answer := strings.ToLower(s.prompt(question + " [y/N] "))
	return answer == "y" || answer == "yes"
}

// runSession opens a session, runs fn, and always stops the client afterwards
func runSession(cmd *cobra.Command, requireSecrets bool, fn func(s *session) error) error {
	s, err := openSession(cmd, requireSecrets)
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "yaml", "output format (\"yaml\"|\"json\")")
}
