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

package restclient

import "github.com/DixusSlim/spi-client-windows/internal/config"

const (
	defaultRequestTimeout   = "30s"
	defaultRetryEnabled     = false
	defaultRetryCount       = 3
	defaultRetryWaitTime    = "250ms"
	defaultRetryMaxWaitTime = "10s"
)

const (
	// HTTPConfigURL overrides the service URL, which is otherwise derived from the tenant
	HTTPConfigURL = "url"
	// HTTPConfigHeaders adds static headers to every request
	HTTPConfigHeaders = "headers"
	// HTTPConfigRequestTimeout is the overall timeout for each request
	HTTPConfigRequestTimeout = "requestTimeout"
	// HTTPConfigRetryEnabled enables retry of failed requests
	HTTPConfigRetryEnabled = "retry.enabled"
	// HTTPConfigRetryCount is the maximum number of retries
	HTTPConfigRetryCount = "retry.count"
	// HTTPConfigRetryWaitTime is the initial retry delay
	HTTPConfigRetryWaitTime = "retry.waitTime"
	// HTTPConfigRetryMaxWaitTime is the maximum retry delay
	HTTPConfigRetryMaxWaitTime = "retry.maxWaitTime"

	// HTTPCustomClient is unit test only
	HTTPCustomClient = "customClient"
)

func InitPrefix(prefix config.KeySet) {
	prefix.AddKnownKey(HTTPConfigURL)
	prefix.AddKnownKey(HTTPConfigHeaders)
	prefix.AddKnownKey(HTTPConfigRequestTimeout, defaultRequestTimeout)
	prefix.AddKnownKey(HTTPConfigRetryEnabled, defaultRetryEnabled)
	prefix.AddKnownKey(HTTPConfigRetryCount, defaultRetryCount)
	prefix.AddKnownKey(HTTPConfigRetryWaitTime, defaultRetryWaitTime)
	prefix.AddKnownKey(HTTPConfigRetryMaxWaitTime, defaultRetryMaxWaitTime)

	prefix.AddKnownKey(HTTPCustomClient)
}
