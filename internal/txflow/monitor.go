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

package txflow

import "time"

// MonitorAction is what the periodic monitor must do for the active flow
type MonitorAction int

const (
	// MonitorNone - nothing overdue
	MonitorNone MonitorAction = iota
	// MonitorCancelTimedOut - a cancel got no result in time, so the outcome is unknown
	MonitorCancelTimedOut
	// MonitorCheckOnTx - the terminal has been silent for too long, so ask it for the transaction
	MonitorCheckOnTx
)

// MonitorCheck decides whether the flow is overdue. A cancel timeout takes precedence over the silence check.
func (f *Flow) MonitorCheck(now time.Time, maxWaitForCancel, checkOnTxFrequency time.Duration) MonitorAction {
	if f.Finished() {
		return MonitorNone
	}
	if f.cancelling && now.After(f.cancelAttemptTime.Add(maxWaitForCancel)) {
		return MonitorCancelTimedOut
	}
	if f.requestSent && now.After(f.lastStateRequestTime.Add(checkOnTxFrequency)) {
		return MonitorCheckOnTx
	}
	return MonitorNone
}
