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
	"context"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
)

type Manager interface {
	TransactionInitiated(txType spitypes.TransactionType)
	TransactionCompleted(txType spitypes.TransactionType, outcome spitypes.SuccessState, duration time.Duration)
	PongMissed()
	Reconnecting()
	PairingFinished(success bool)
	InvalidSignature()
	IsMetricsEnabled() bool
}

type metricsManager struct {
	ctx            context.Context
	metricsEnabled bool
}

func NewMetricsManager(ctx context.Context) Manager {
	mm := &metricsManager{
		ctx:            ctx,
		metricsEnabled: config.GetBool(config.MetricsEnabled),
	}
	if mm.metricsEnabled {
		Registry()
	}
	return mm
}

func (mm *metricsManager) TransactionInitiated(txType spitypes.TransactionType) {
	TxInitiatedCounter.WithLabelValues(txType.String()).Inc()
}

func (mm *metricsManager) TransactionCompleted(txType spitypes.TransactionType, outcome spitypes.SuccessState, duration time.Duration) {
	TxCompletedCounter.WithLabelValues(txType.String(), outcome.String()).Inc()
	if duration > 0 {
		TxHistogram.WithLabelValues(txType.String()).Observe(duration.Seconds())
	}
}

func (mm *metricsManager) PongMissed() {
	MissedPongsCounter.Inc()
}

func (mm *metricsManager) Reconnecting() {
	ReconnectsCounter.Inc()
}

func (mm *metricsManager) PairingFinished(success bool) {
	outcome := "failed"
	if success {
		outcome = "success"
	}
	PairingCounter.WithLabelValues(outcome).Inc()
}

func (mm *metricsManager) InvalidSignature() {
	InvalidSignatureCounter.Inc()
}

func (mm *metricsManager) IsMetricsEnabled() bool {
	return mm.metricsEnabled
}
