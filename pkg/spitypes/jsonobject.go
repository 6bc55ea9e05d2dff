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

package spitypes

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/DixusSlim/spi-client-windows/internal/log"
)

// JSONObject is the opaque payload of a message
type JSONObject map[string]interface{}

func (jd JSONObject) GetString(key string) string {
	s, _ := jd.GetStringOk(key)
	return s
}

func (jd JSONObject) GetStringOk(key string) (string, bool) {
	vInterface := jd[key]
	switch vt := vInterface.(type) {
	case string:
		return vt, true
	case bool:
		return strconv.FormatBool(vt), true
	case float64:
		return strconv.FormatFloat(vt, 'f', -1, 64), true
	case int:
		return strconv.Itoa(vt), true
	case int64:
		return strconv.FormatInt(vt, 10), true
	case json.Number:
		return vt.String(), true
	case nil:
		return "", false // no need to log for nil
	default:
		log.L(context.Background()).Errorf("Invalid string value '%+v' for key '%s'", vInterface, key)
		return "", false
	}
}

func (jd JSONObject) GetBool(key string) bool {
	b, _ := jd.GetBoolOk(key)
	return b
}

// GetBoolOk distinguishes a missing value from false
func (jd JSONObject) GetBoolOk(key string) (bool, bool) {
	switch vt := jd[key].(type) {
	case string:
		return strings.EqualFold(vt, "true"), true
	case bool:
		return vt, true
	default:
		return false, false
	}
}

// GetInt64 reads a number, which arrives as float64 after a JSON parse
func (jd JSONObject) GetInt64(key string) int64 {
	switch vt := jd[key].(type) {
	case float64:
		return int64(vt)
	case int:
		return int64(vt)
	case int64:
		return vt
	case json.Number:
		i, _ := vt.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(vt, 10, 64)
		return i
	default:
		return 0
	}
}

func (jd JSONObject) GetObject(key string) JSONObject {
	ob, _ := jd.GetObjectOk(key)
	return ob
}

func (jd JSONObject) GetObjectOk(key string) (JSONObject, bool) {
	vInterface, ok := jd[key]
	if ok && vInterface != nil {
		switch vMap := vInterface.(type) {
		case map[string]interface{}:
			return JSONObject(vMap), true
		case JSONObject:
			return vMap, true
		default:
			log.L(context.Background()).Errorf("Invalid object value '%+v' for key '%s'", vInterface, key)
			return JSONObject{}, false // Ensures a non-nil return
		}
	}
	return JSONObject{}, false // Ensures a non-nil return
}

func (jd JSONObject) GetStringArray(key string) []string {
	vArray, ok := jd[key].([]interface{})
	if !ok {
		sa, _ := jd[key].([]string)
		return sa
	}
	sa := make([]string, 0, len(vArray))
	for _, v := range vArray {
		if s, ok := v.(string); ok {
			sa = append(sa, s)
		}
	}
	return sa
}

// Copy is a shallow copy, so snapshots handed to subscribers do not share the top-level map
func (jd JSONObject) Copy() JSONObject {
	if jd == nil {
		return nil
	}
	c := make(JSONObject, len(jd))
	for k, v := range jd {
		c[k] = v
	}
	return c
}

func (jd JSONObject) String() string {
	b, _ := json.Marshal(&jd)
	return string(b)
}
