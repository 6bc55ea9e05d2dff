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

package pairing

import (
	"context"

	"github.com/DixusSlim/spi-client-windows/internal/crypto"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/messages"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// SecretsAndKeyResponse is the outcome of answering a key request
type SecretsAndKeyResponse struct {
	Secrets     *spitypes.Secrets
	KeyResponse *spitypes.Message
}

// GenerateSecretsAndKeyResponse runs our half of the two key agreements (one for the
// encryption key, one for the HMAC key) against the terminal's public values
func GenerateSecretsAndKeyResponse(ctx context.Context, keyRequest *spitypes.Message) (*SecretsAndKeyResponse, error) {
	encA, ok := keyRequest.Data.GetObject("enc").GetStringOk("A")
	if !ok || encA == "" {
		return nil, i18n.NewError(ctx, i18n.MsgKeyRequestMissingValue, "enc.A")
	}
	hmacA, ok := keyRequest.Data.GetObject("hmac").GetStringOk("A")
	if !ok || hmacA == "" {
		return nil, i18n.NewError(ctx, i18n.MsgKeyRequestMissingValue, "hmac.A")
	}

	encKeys, err := crypto.GenerateDHKeyPair()
	if err != nil {
		return nil, err
	}
	hmacKeys, err := crypto.GenerateDHKeyPair()
	if err != nil {
		return nil, err
	}
	encKey, err := encKeys.SharedSecretKey(ctx, encA)
	if err != nil {
		return nil, err
	}
	hmacKey, err := hmacKeys.SharedSecretKey(ctx, hmacA)
	if err != nil {
		return nil, err
	}
	return &SecretsAndKeyResponse{
		Secrets:     spitypes.NewSecrets(encKey, hmacKey),
		KeyResponse: messages.KeyResponse(keyRequest.ID, encKeys.Public, hmacKeys.Public),
	}, nil
}

// KeyRollResult holds the next secrets and the confirmation to send for them
type KeyRollResult struct {
	Secrets      *spitypes.Secrets
	Confirmation *spitypes.Message
}

// RollKeys derives the next secrets from the current ones. Each new key is the
// SHA-256 of the bytes of the old key.
func RollKeys(ctx context.Context, request *spitypes.Message, current *spitypes.Secrets) (*KeyRollResult, error) {
	if current == nil {
		return nil, i18n.NewError(ctx, i18n.MsgMissingSecrets, request.EventName)
	}
	encKey, err := crypto.DecodeKey(ctx, current.EncKey)
	if err != nil {
		return nil, err
	}
	hmacKey, err := crypto.DecodeKey(ctx, current.HMACKey)
	if err != nil {
		return nil, err
	}
	return &KeyRollResult{
		Secrets:      spitypes.NewSecrets(crypto.SHA256Hex(encKey), crypto.SHA256Hex(hmacKey)),
		Confirmation: messages.KeyRollResponse(request),
	}, nil
}
