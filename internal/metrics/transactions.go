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

var TxInitiatedCounter *prometheus.CounterVec
var TxCompletedCounter *prometheus.CounterVec
var TxHistogram *prometheus.HistogramVec

// TxInitiatedCounterName is the prometheus metric for tracking the total number of transactions initiated
var TxInitiatedCounterName = "spi_tx_initiated_total"

// TxCompletedCounterName is the prometheus metric for tracking the total number of transactions finished, by outcome
var TxCompletedCounterName = "spi_tx_completed_total"

// TxHistogramName is the prometheus metric for tracking transaction duration - histogram
var TxHistogramName = "spi_tx_histogram"

var txTypeLabels = []string{"type"}

func InitTransactionMetrics() {
	TxInitiatedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: TxInitiatedCounterName,
		Help: "Number of initiated transactions",
	}, txTypeLabels)
	TxCompletedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: TxCompletedCounterName,
		Help: "Number of finished transactions",
	}, []string{"type", "outcome"})
	TxHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    TxHistogramName,
		Help:    "Histogram of transactions, bucketed by time to finished",
		Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 300},
	}, txTypeLabels)
}

func RegisterTransactionMetrics() {
	registry.MustRegister(TxInitiatedCounter)
	registry.MustRegister(TxCompletedCounter)
	registry.MustRegister(TxHistogram)
}
