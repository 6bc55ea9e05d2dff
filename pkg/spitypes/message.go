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

package spitypes

// Message is the envelope exchanged with the terminal. On the wire it is wrapped as
// {"message":{...}}, and encrypted into {"enc","hmac"} once secrets are in place.
type Message struct {
	ID            string     `json:"id"`
	EventName     string     `json:"event"`
	Data          JSONObject `json:"data,omitempty"`
	DateTimeStamp string     `json:"datetime,omitempty"`
	PosID         string     `json:"pos_id,omitempty"`
	ConnID        string     `json:"conn_id,omitempty"`

	// IncomingHmac is the signature the message arrived with, if it was encrypted
	IncomingHmac string `json:"-"`
	// DecryptedJSON is the plaintext form, kept for logging
	DecryptedJSON   string `json:"-"`
	NeedsEncryption bool   `json:"-"`
}

func NewMessage(id, eventName string, data JSONObject, needsEncryption bool) *Message {
	if data == nil {
		data = JSONObject{}
	}
	return &Message{
		ID:              id,
		EventName:       eventName,
		Data:            data,
		NeedsEncryption: needsEncryption,
	}
}

// SuccessState reads the "success" flag from the payload. A missing flag is Unknown.
func (m *Message) SuccessState() SuccessState {
	success, ok := m.Data.GetBoolOk("success")
	switch {
	case !ok:
		return SuccessStateUnknown
	case success:
		return SuccessStateSuccess
	default:
		return SuccessStateFailed
	}
}

func (m *Message) ErrorReason() string {
	return m.Data.GetString("error_reason")
}

func (m *Message) ErrorDetail() string {
	return m.Data.GetString("error_detail")
}

func (m *Message) PosRefID() string {
	return m.Data.GetString("pos_ref_id")
}

// Copy returns a message that does not share its top-level payload map with m
func (m *Message) Copy() *Message {
	if m == nil {
		return nil
	}
	c := *m
	c.Data = m.Data.Copy()
	return &c
}
