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

package i18n

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestExpand(t *testing.T) {
	lang := language.Make("en")
	ctx := WithLang(context.Background(), lang)
	str := Expand(ctx, MessageKey(MsgWSConnectFailed), "ws://192.168.1.1:8080")
	assert.Equal(t, "WebSocket connect to ws://192.168.1.1:8080 failed", str)
}

func TestExpandWithCode(t *testing.T) {
	lang := language.Make("en")
	ctx := WithLang(context.Background(), lang)
	str := ExpandWithCode(ctx, MessageKey(MsgWSConnectFailed), "ws://192.168.1.1:8080")
	assert.Equal(t, "SPI10104: WebSocket connect to ws://192.168.1.1:8080 failed", str)
}

func TestNewError(t *testing.T) {
	err := NewError(context.Background(), MsgInvalidKeyLength, 32, 16)
	assert.Regexp(t, "SPI10114.*expected 32 bytes, got 16", err)
}

func TestWrapError(t *testing.T) {
	err := WrapError(context.Background(), fmt.Errorf("pop"), MsgDecryptFailed)
	assert.Regexp(t, "SPI10113.*: pop", err)
}

func TestDuplicateKey(t *testing.T) {
	ffe("SPI99001", "test1")
	assert.Panics(t, func() {
		ffe("SPI99001", "test2")
	})
}

func TestBadPrefix(t *testing.T) {
	assert.Panics(t, func() {
		ffe("XYZ12345", "test1")
	})
}

func TestSanitizeLimit(t *testing.T) {
	assert.Equal(t, "hello", SanitizeLimit("<b>hello</b>", 100))
	assert.Equal(t, "0123456789012345678901...", SanitizeLimit("0123456789012345678901234567890123456789", 25))
	assert.Equal(t, "0123", SanitizeLimit("0123456789", 4))
}
