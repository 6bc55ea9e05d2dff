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

package retry

import (
	"context"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
)

const (
	DefaultFactor = 2.0
)

// Retry configures a simple backoff retry mechanism, and is safe for concurrent use
type Retry struct {
	InitialDelay time.Duration
	MaximumDelay time.Duration
	Factor       float64
}

// Do invokes the function until it returns retry=false, or the context is done.
// Each failed attempt is logged against the supplied description.
func (r *Retry) Do(ctx context.Context, logDescription string, f func(attempt int) (retry bool, err error)) error {
	return r.DoCustomLog(ctx, func(attempt int) (retry bool, err error) {
		retry, err = f(attempt)
		if err != nil {
			log.L(ctx).Errorf("%s attempt %d: %s", logDescription, attempt, err)
		}
		return retry, err
	})
}

// DoCustomLog is Do without any logging, for callers that log their own attempts
func (r *Retry) DoCustomLog(ctx context.Context, f func(attempt int) (retry bool, err error)) error {
	attempt := 0
	delay := r.InitialDelay
	factor := r.Factor
	if factor < 1 { // Can't reduce
		factor = DefaultFactor
	}
	for {
		attempt++
		retry, err := f(attempt)
		if !retry {
			return err
		}

		if r.MaximumDelay > 0 && delay > r.MaximumDelay {
			delay = r.MaximumDelay
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return i18n.NewError(ctx, i18n.MsgContextCanceled)
		case <-timer.C:
		}
		delay = time.Duration(float64(delay) * factor)
	}
}
