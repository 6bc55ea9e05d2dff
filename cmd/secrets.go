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
	"context"
	"io/ioutil"
	"os"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/ghodss/yaml"
)

// secretsFile is what the CLI persists between runs. The terminal address is kept alongside
// the keys, as an auto-resolved address is only known after a successful lookup.
type secretsFile struct {
	PosID         string            `json:"posId,omitempty"`
	EftposAddress string            `json:"eftposAddress,omitempty"`
	Secrets       *spitypes.Secrets `json:"secrets,omitempty"`
}

// loadSecrets returns an empty file when there is nothing on disk yet
func loadSecrets(ctx context.Context, filename string) (*secretsFile, error) {
	sf := &secretsFile{}
	b, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		log.L(ctx).Debugf("No secrets file at %s", filename)
		return sf, nil
	}
	if err == nil {
		err = yaml.Unmarshal(b, sf)
	}
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgSecretsFileReadFailed, filename)
	}
	return sf, nil
}

func saveSecrets(ctx context.Context, filename string, sf *secretsFile) error {
	b, err := yaml.Marshal(sf)
	if err == nil {
		err = ioutil.WriteFile(filename, b, 0600)
	}
	if err != nil {
		return i18n.WrapError(ctx, err, i18n.MsgSecretsFileWriteFailed, filename)
	}
	log.L(ctx).Infof("Secrets saved to %s", filename)
	return nil
}
