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

package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsServer struct {
	s *http.Server
	l net.Listener
}

func createMetricsMuxRouter() *mux.Router {
	r := mux.NewRouter()
	r.Path(config.GetString(config.MetricsPath)).Handler(promhttp.InstrumentMetricHandler(metrics.Registry(),
		promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	return r
}

// startMetricsServer returns nil when metrics are disabled
func startMetricsServer(ctx context.Context) (*metricsServer, error) {
	if !config.GetBool(config.MetricsEnabled) {
		return nil, nil
	}
	listenAddr := fmt.Sprintf("%s:%d", config.GetString(config.MetricsAddress), config.GetUint(config.MetricsPort))
	l, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, i18n.WrapError(ctx, err, i18n.MsgMetricsServerFailed, listenAddr, err)
	}
	log.L(ctx).Infof("Metrics listening on HTTP %s", l.Addr())
	ms := &metricsServer{
		l: l,
		s: &http.Server{
			Handler:      createMetricsMuxRouter(),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
	go func() {
		err := ms.s.Serve(l)
		if err != nil && err != http.ErrServerClosed {
			log.L(ctx).Errorf("Metrics listener exited: %s", err)
		}
	}()
	return ms, nil
}

func (ms *metricsServer) close(ctx context.Context) {
	if ms == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = ms.s.Shutdown(shutdownCtx)
}
