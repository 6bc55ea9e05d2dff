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

package tenants

import (
	"context"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/restclient"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/go-resty/resty/v2"
)

const defaultTenantsURL = "https://spi.integration.mspenv.io"

// Service lists the acquirers available to a POS vendor in a country
type Service interface {
	RetrieveTenantsList(ctx context.Context, posVendorID, apiKey, countryCode string) ([]*spitypes.Tenant, error)
}

type tenantList struct {
	Data []*spitypes.Tenant `json:"data"`
}

type tenantsService struct {
	client  *resty.Client
	baseURL string
}

func New(ctx context.Context, prefix config.Prefix) Service {
	baseURL := strings.TrimSuffix(prefix.GetString(restclient.HTTPConfigURL), "/")
	if baseURL == "" {
		baseURL = defaultTenantsURL
	}
	return &tenantsService{
		client:  restclient.New(log.WithLogField(ctx, "role", "tenants"), prefix),
		baseURL: baseURL,
	}
}

func (s *tenantsService) RetrieveTenantsList(ctx context.Context, posVendorID, apiKey, countryCode string) ([]*spitypes.Tenant, error) {
	var result tenantList
	res, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("country-code", countryCode).
		SetQueryParam("pos-vendor-id", posVendorID).
		SetQueryParam("api-key", apiKey).
		ForceContentType("application/json").
		SetResult(&result).
		Get(s.baseURL + "/tenants")
	if err != nil || !res.IsSuccess() {
		return nil, restclient.WrapRestErr(ctx, res, err, i18n.MsgTenantsServiceError)
	}
	log.L(ctx).Debugf("Retrieved %d tenants for country '%s'", len(result.Data), countryCode)
	return result.Data, nil
}
