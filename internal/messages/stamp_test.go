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
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/crypto"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/stretchr/testify/assert"
)

const (
	testEncKey    = "11A1162B984FEF626ECC27C659A8B0EEAD5248CA867A6A87BEA72F8A8706109D"
	testHmacKey   = "40510175845988F13F6162ED8526F0B09F73384467FA855E1E79B44A56562A58"
	testPongFrame = `{"enc":"819A6FF34A7656DBE5274AC44A28A48DD6D723FCEF12570E4488410B83A1504084D79BA9DF05C3CE58B330C6626EA5E9EB6BAAB3BFE95345A8E9834F183A1AB2F6158E8CDC217B4970E6331B4BE0FCAA","hmac":"21FB2315E2FB5A22857F21E48D3EEC0969AD24C0E8A99C56A37B66B9E503E1EF"}`
	testBadFrame  = `{"enc":"819A6FF34A7656DBE5274AC44A28A48DD6D723FCEF12570E4488410B83A1504084D79BA9DF05C3CE58B330C6626EA5E9EB6BAAB3BFE95345A8E9834F183A1AB2F6158E8CDC217B4970E6331B4BE0FCAA","hmac":"21FB2315E2FB5A22857F21E48D3EEC0969AD24C0E8A99C56A37B66B9E503E1EA"}`
)

func newTestStamp(t *testing.T) *Stamp {
	s := NewStamp("POS1")
	err := s.SetSecrets(context.Background(), spitypes.NewSecrets(testEncKey, testHmacKey))
	assert.NoError(t, err)
	s.now = func() time.Time {
		return time.Date(2017, 11, 16, 21, 51, 50, 499000000, time.Local)
	}
	return s
}

func TestDecodeKnownPong(t *testing.T) {
	s := newTestStamp(t)
	m, err := s.FromJSON(context.Background(), testPongFrame)
	assert.NoError(t, err)
	assert.Equal(t, EventPong, m.EventName)
	assert.Equal(t, "2", m.ID)
	assert.Equal(t, "2017-11-16T21:51:50.499", m.DateTimeStamp)
	assert.Equal(t, "21FB2315E2FB5A22857F21E48D3EEC0969AD24C0E8A99C56A37B66B9E503E1EF", m.IncomingHmac)
	assert.Equal(t, `{"message":{"event":"pong","id":"2","datetime":"2017-11-16T21:51:50.499"}}`, m.DecryptedJSON)
	assert.NotNil(t, m.Data)
}

func TestDecodeBadSignature(t *testing.T) {
	s := newTestStamp(t)
	m, err := s.FromJSON(context.Background(), testBadFrame)
	assert.NoError(t, err)
	assert.Equal(t, EventInvalidHmacSignature, m.EventName)
	assert.Equal(t, "_", m.ID)
	assert.Empty(t, m.Data)
}

func TestTamperedHmacEveryPosition(t *testing.T) {
	s := newTestStamp(t)
	var env envelope
	_ = json.Unmarshal([]byte(testPongFrame), &env)
	for i := 0; i < len(env.Hmac); i++ {
		b := []byte(env.Hmac)
		if b[i] == '0' {
			b[i] = '1'
		} else {
			b[i] = '0'
		}
		raw, _ := json.Marshal(&envelope{Enc: env.Enc, Hmac: string(b)})
		m, err := s.FromJSON(context.Background(), string(raw))
		assert.NoError(t, err)
		assert.Equal(t, EventInvalidHmacSignature, m.EventName)
	}
}

func TestEncryptedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStamp(t)
	s.ConnID = "conn1"

	out := spitypes.NewMessage("prchs1", EventPurchaseRequest, spitypes.JSONObject{
		"pos_ref_id": "test",
		"flag":       true,
		"amount":     1000,
	}, true)
	wire, err := s.ToJSON(ctx, out)
	assert.NoError(t, err)
	assert.NotContains(t, wire, "prchs1")
	assert.Contains(t, wire, `"pos_id":"POS1"`)
	assert.Equal(t, "2017-11-16T21:51:50.499", out.DateTimeStamp)

	in, err := s.FromJSON(ctx, wire)
	assert.NoError(t, err)
	assert.Equal(t, "prchs1", in.ID)
	assert.Equal(t, EventPurchaseRequest, in.EventName)
	assert.Equal(t, "test", in.PosRefID())
	assert.True(t, in.Data.GetBool("flag"))
	assert.Equal(t, int64(1000), in.Data.GetInt64("amount"))
	assert.Equal(t, "POS1", in.PosID)
	assert.Equal(t, "conn1", in.ConnID)
	assert.Equal(t, out.DecryptedJSON, in.DecryptedJSON)
	assert.NotEmpty(t, in.IncomingHmac)
}

func TestPlaintextRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewStamp("POS1")

	out := spitypes.NewMessage("pr1", EventPairRequest, spitypes.JSONObject{"padding": true}, true)
	wire, err := s.ToJSON(ctx, out)
	assert.NoError(t, err)
	assert.Contains(t, wire, `"event":"pair_request"`)

	in, err := s.FromJSON(ctx, wire)
	assert.NoError(t, err)
	assert.Equal(t, "pr1", in.ID)
	assert.Equal(t, EventPairRequest, in.EventName)
	assert.True(t, in.Data.GetBool("padding"))
	assert.Empty(t, in.IncomingHmac)
}

func TestUnencryptedMessageWithSecrets(t *testing.T) {
	s := newTestStamp(t)
	wire, err := s.ToJSON(context.Background(), KeyResponse("kr1", "AA", "BB"))
	assert.NoError(t, err)
	assert.Contains(t, wire, `"event":"key_response"`)
	assert.Contains(t, wire, `"B":"AA"`)
}

func TestDecodeErrors(t *testing.T) {
	ctx := context.Background()
	s := NewStamp("POS1")

	_, err := s.FromJSON(ctx, "!json")
	assert.Regexp(t, "SPI10110", err)

	_, err = s.FromJSON(ctx, `{}`)
	assert.Regexp(t, "SPI10110", err)

	_, err = s.FromJSON(ctx, testPongFrame)
	assert.Regexp(t, "SPI10118", err)

	s = newTestStamp(t)
	_, err = s.FromJSON(ctx, `{"enc":"ABCD","hmac":"`+crypto.HMACSignature(s.hmacKey, "ABCD")+`"}`)
	assert.Regexp(t, "SPI10113", err)
}

func TestSetSecretsBadKeys(t *testing.T) {
	ctx := context.Background()
	s := NewStamp("POS1")
	assert.Regexp(t, "SPI10116", s.SetSecrets(ctx, spitypes.NewSecrets("zz", testHmacKey)))
	assert.Regexp(t, "SPI10114", s.SetSecrets(ctx, spitypes.NewSecrets(testEncKey, "ABCD")))
	assert.Nil(t, s.Secrets())

	assert.NoError(t, s.SetSecrets(ctx, spitypes.NewSecrets(testEncKey, testHmacKey)))
	assert.Equal(t, testEncKey, s.Secrets().EncKey)
	assert.NoError(t, s.SetSecrets(ctx, nil))
	assert.Nil(t, s.Secrets())
}

func TestServerTimeDelta(t *testing.T) {
	now := time.Date(2017, 11, 16, 21, 51, 40, 499000000, time.Local)
	m := &spitypes.Message{DateTimeStamp: "2017-11-16T21:51:50.499"}
	assert.Equal(t, 10*time.Second, ServerTimeDelta(m, now))
	m.DateTimeStamp = "bad"
	assert.Equal(t, time.Duration(0), ServerTimeDelta(m, now))

	s := newTestStamp(t)
	s.ServerTimeDelta = time.Second
	out := Ping()
	_, _ = s.ToJSON(context.Background(), out)
	assert.Equal(t, "2017-11-16T21:51:51.499", out.DateTimeStamp)
	s.ResetConnection()
	assert.Equal(t, time.Duration(0), s.ServerTimeDelta)
}
