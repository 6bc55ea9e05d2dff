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

package messages

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/crypto"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

// DateTimeFormat is the layout of the datetime field on every message
const DateTimeFormat = "2006-01-02T15:04:05.000"

// Stamp holds what is injected into every outgoing message at send time. The connection
// id is only learned from the first pong on a connection, so it starts empty.
type Stamp struct {
	PosID           string
	ConnID          string
	ServerTimeDelta time.Duration

	secrets *spitypes.Secrets
	encKey  []byte
	hmacKey []byte
	now     func() time.Time
}

func NewStamp(posID string) *Stamp {
	return &Stamp{
		PosID: posID,
		now:   time.Now,
	}
}

// SetSecrets installs (or with nil, removes) the keys used to encrypt and verify
func (s *Stamp) SetSecrets(ctx context.Context, secrets *spitypes.Secrets) error {
	if secrets == nil {
		s.secrets, s.encKey, s.hmacKey = nil, nil, nil
		return nil
	}
	encKey, err := crypto.DecodeKey(ctx, secrets.EncKey)
	if err != nil {
		return err
	}
	hmacKey, err := crypto.DecodeKey(ctx, secrets.HMACKey)
	if err != nil {
		return err
	}
	s.secrets = &spitypes.Secrets{EncKey: secrets.EncKey, HMACKey: secrets.HMACKey}
	s.encKey = encKey
	s.hmacKey = hmacKey
	return nil
}

func (s *Stamp) Secrets() *spitypes.Secrets {
	if s.secrets == nil {
		return nil
	}
	c := *s.secrets
	return &c
}

// ResetConnection clears what is specific to one connection
func (s *Stamp) ResetConnection() {
	s.ConnID = ""
	s.ServerTimeDelta = 0
}

type envelope struct {
	Message *spitypes.Message `json:"message,omitempty"`
	Enc     string            `json:"enc,omitempty"`
	Hmac    string            `json:"hmac,omitempty"`
	PosID   string            `json:"pos_id,omitempty"`
}

// ToJSON stamps the message and produces its wire form. With no secrets installed,
// or for a message that does not need encryption, the wire form is plaintext.
func (s *Stamp) ToJSON(ctx context.Context, m *spitypes.Message) (string, error) {
	m.DateTimeStamp = s.now().Add(s.ServerTimeDelta).Format(DateTimeFormat)
	m.PosID = s.PosID
	m.ConnID = s.ConnID

	plain, err := json.Marshal(&envelope{Message: m})
	if err != nil {
		return "", i18n.WrapError(ctx, err, i18n.MsgMessageEncodeFailed, m.EventName)
	}
	m.DecryptedJSON = string(plain)
	if !m.NeedsEncryption || s.secrets == nil {
		return string(plain), nil
	}

	enc, err := crypto.AESEncrypt(ctx, s.encKey, string(plain))
	if err != nil {
		return "", err
	}
	wire, err := json.Marshal(&envelope{
		Enc:   enc,
		Hmac:  crypto.HMACSignature(s.hmacKey, enc),
		PosID: s.PosID,
	})
	if err != nil {
		return "", i18n.WrapError(ctx, err, i18n.MsgMessageEncodeFailed, m.EventName)
	}
	return string(wire), nil
}

// FromJSON parses a wire frame. An encrypted frame whose signature does not verify
// is returned as a message with the EventInvalidHmacSignature event, not as an error.
func (s *Stamp) FromJSON(ctx context.Context, raw string) (*spitypes.Message, error) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgMessageParseFailed, err)
	}

	if env.Enc == "" {
		if env.Message == nil {
			return nil, i18n.NewError(ctx, i18n.MsgMessageParseFailed, "no message")
		}
		m := env.Message
		if m.Data == nil {
			m.Data = spitypes.JSONObject{}
		}
		m.DecryptedJSON = raw
		return m, nil
	}

	if s.secrets == nil {
		return nil, i18n.NewError(ctx, i18n.MsgMissingSecrets, "incoming")
	}
	if !crypto.VerifyHMAC(s.hmacKey, env.Enc, env.Hmac) {
		m := spitypes.NewMessage("_", EventInvalidHmacSignature, nil, false)
		m.IncomingHmac = env.Hmac
		return m, nil
	}

	plain, err := crypto.AESDecrypt(ctx, s.encKey, env.Enc)
	if err != nil {
		return nil, err
	}
	var inner envelope
	if err := json.Unmarshal([]byte(plain), &inner); err != nil || inner.Message == nil {
		return nil, i18n.NewError(ctx, i18n.MsgMessageParseFailed, plain)
	}
	m := inner.Message
	if m.Data == nil {
		m.Data = spitypes.JSONObject{}
	}
	m.IncomingHmac = env.Hmac
	m.DecryptedJSON = plain
	m.NeedsEncryption = true
	return m, nil
}

// ServerTimeDelta is how far the terminal clock is ahead of ours, according to the message datetime
func ServerTimeDelta(m *spitypes.Message, now time.Time) time.Duration {
	serverTime, err := time.ParseInLocation(DateTimeFormat, m.DateTimeStamp, now.Location())
	if err != nil {
		return 0
	}
	return serverTime.Sub(now)
}
