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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var MissedPongsCounter prometheus.Counter
var ReconnectsCounter prometheus.Counter
var PairingCounter *prometheus.CounterVec
var InvalidSignatureCounter prometheus.Counter

var MissedPongsCounterName = "spi_missed_pongs_total"
var ReconnectsCounterName = "spi_reconnects_total"
var PairingCounterName = "spi_pairing_total"

// InvalidSignatureCounterName counts incoming messages dropped because their HMAC did not verify
var InvalidSignatureCounterName = "spi_invalid_signature_total"

func InitConnectionMetrics() {
	MissedPongsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: MissedPongsCounterName,
		Help: "Number of pings that did not receive a pong in time",
	})
	ReconnectsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: ReconnectsCounterName,
		Help: "Number of reconnect attempts after a disconnection",
	})
	PairingCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: PairingCounterName,
		Help: "Number of finished pairing attempts",
	}, []string{"outcome"})
	InvalidSignatureCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: InvalidSignatureCounterName,
		Help: "Number of incoming messages with an invalid signature",
	})
}

func RegisterConnectionMetrics() {
	registry.MustRegister(MissedPongsCounter)
	registry.MustRegister(ReconnectsCounter)
	registry.MustRegister(PairingCounter)
	registry.MustRegister(InvalidSignatureCounter)
}
