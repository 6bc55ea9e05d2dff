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
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func newTestMetricsManager(t *testing.T) *metricsManager {
	config.Reset()
	config.Set(config.MetricsEnabled, true)
	Clear()
	mm := NewMetricsManager(context.Background()).(*metricsManager)
	assert.True(t, mm.IsMetricsEnabled())
	return mm
}

func TestDisabledByDefault(t *testing.T) {
	config.Reset()
	mm := NewMetricsManager(context.Background())
	assert.False(t, mm.IsMetricsEnabled())
}

func TestTransactionMetrics(t *testing.T) {
	mm := newTestMetricsManager(t)
	mm.TransactionInitiated(spitypes.TransactionTypePurchase)
	mm.TransactionInitiated(spitypes.TransactionTypePurchase)
	mm.TransactionCompleted(spitypes.TransactionTypePurchase, spitypes.SuccessStateSuccess, 3*time.Second)
	mm.TransactionCompleted(spitypes.TransactionTypePurchase, spitypes.SuccessStateUnknown, 0)

	assert.Equal(t, float64(2), testutil.ToFloat64(TxInitiatedCounter.WithLabelValues("purchase")))
	assert.Equal(t, float64(1), testutil.ToFloat64(TxCompletedCounter.WithLabelValues("purchase", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(TxCompletedCounter.WithLabelValues("purchase", "unknown")))
	assert.Equal(t, 1, testutil.CollectAndCount(TxHistogram))
}

func TestConnectionMetrics(t *testing.T) {
	mm := newTestMetricsManager(t)
	mm.PongMissed()
	mm.Reconnecting()
	mm.Reconnecting()
	mm.PairingFinished(true)
	mm.PairingFinished(false)
	mm.InvalidSignature()

	assert.Equal(t, float64(1), testutil.ToFloat64(MissedPongsCounter))
	assert.Equal(t, float64(2), testutil.ToFloat64(ReconnectsCounter))
	assert.Equal(t, float64(1), testutil.ToFloat64(PairingCounter.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PairingCounter.WithLabelValues("failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(InvalidSignatureCounter))
}

func TestRegistryIsReused(t *testing.T) {
	Clear()
	r := Registry()
	assert.Equal(t, r, Registry())
	mfs, err := r.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, mfs)
}
