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

package wsclient

import (
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
)

const (
	defaultInitialConnectAttempts = 1
	defaultBufferSize             = "16Kb"
	defaultConnectTimeout         = "10s"
	defaultRetryInitialDelay      = "250ms"
	defaultRetryMaximumDelay      = "2s"
)

const (
	// WSConfigKeyWriteBufferSize is the write buffer size
	WSConfigKeyWriteBufferSize = "ws.writeBufferSize"
	// WSConfigKeyReadBufferSize is the read buffer size
	WSConfigKeyReadBufferSize = "ws.readBufferSize"
	// WSConfigKeyConnectTimeout bounds the TCP connect and WebSocket upgrade of each attempt
	WSConfigKeyConnectTimeout = "ws.connectTimeout"
	// WSConfigKeyInitialConnectAttempts sets how many dial attempts a single Connect makes before reporting Disconnected.
	// Reconnecting after that is the job of the caller, which has its own backoff
	WSConfigKeyInitialConnectAttempts = "ws.initialConnectAttempts"
	// WSConfigKeyRetryInitialDelay is the delay between dial attempts within one Connect
	WSConfigKeyRetryInitialDelay = "ws.retry.initialDelay"
	// WSConfigKeyRetryMaximumDelay caps the delay between dial attempts
	WSConfigKeyRetryMaximumDelay = "ws.retry.maximumDelay"
)

type WSConfig struct {
	Address                string        `json:"address,omitempty"`
	ReadBufferSize         int           `json:"readBufferSize,omitempty"`
	WriteBufferSize        int           `json:"writeBufferSize,omitempty"`
	ConnectTimeout         time.Duration `json:"connectTimeout,omitempty"`
	InitialConnectAttempts int           `json:"initialConnectAttempts,omitempty"`
	InitialDelay           time.Duration `json:"initialDelay,omitempty"`
	MaximumDelay           time.Duration `json:"maximumDelay,omitempty"`
}

func InitPrefix(prefix config.KeySet) {
	prefix.AddKnownKey(WSConfigKeyWriteBufferSize, defaultBufferSize)
	prefix.AddKnownKey(WSConfigKeyReadBufferSize, defaultBufferSize)
	prefix.AddKnownKey(WSConfigKeyConnectTimeout, defaultConnectTimeout)
	prefix.AddKnownKey(WSConfigKeyInitialConnectAttempts, defaultInitialConnectAttempts)
	prefix.AddKnownKey(WSConfigKeyRetryInitialDelay, defaultRetryInitialDelay)
	prefix.AddKnownKey(WSConfigKeyRetryMaximumDelay, defaultRetryMaximumDelay)
}

func GenerateConfigFromPrefix(prefix config.Prefix) *WSConfig {
	return &WSConfig{
		ReadBufferSize:         int(prefix.GetByteSize(WSConfigKeyReadBufferSize)),
		WriteBufferSize:        int(prefix.GetByteSize(WSConfigKeyWriteBufferSize)),
		ConnectTimeout:         prefix.GetDuration(WSConfigKeyConnectTimeout),
		InitialConnectAttempts: prefix.GetInt(WSConfigKeyInitialConnectAttempts),
		InitialDelay:           prefix.GetDuration(WSConfigKeyRetryInitialDelay),
		MaximumDelay:           prefix.GetDuration(WSConfigKeyRetryMaximumDelay),
	}
}
