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

package wsclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/config"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/stretchr/testify/assert"
)

func nextEvent(t *testing.T, c Connection) *Event {
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for connection event")
		return nil
	}
}

func expectState(t *testing.T, c Connection, state spitypes.ConnectionState) {
	ev := nextEvent(t, c)
	assert.Equal(t, EventStateChanged, ev.Type)
	assert.Equal(t, state, ev.State)
}

func fromServer(t *testing.T, s *TestWSServer) string {
	select {
	case msg := <-s.ToServer:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for server to receive")
		return ""
	}
}

func TestConnectionE2E(t *testing.T) {
	svr := NewTestWSServer(func(req *http.Request) {
		assert.Equal(t, "/", req.URL.Path)
	})
	defer svr.Close()

	c := New(context.Background(), &WSConfig{Address: svr.URL + "/"})
	defer c.Close()
	assert.False(t, c.Send("too early"))

	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	expectState(t, c, spitypes.ConnectionStateConnected)
	assert.True(t, c.Connected())

	assert.True(t, c.Send(`{"message":{"event":"ping"}}`))
	assert.Equal(t, `{"message":{"event":"ping"}}`, fromServer(t, svr))

	svr.FromServer <- `{"message":{"event":"pong"}}`
	ev := nextEvent(t, c)
	assert.Equal(t, EventMessage, ev.Type)
	assert.Equal(t, `{"message":{"event":"pong"}}`, ev.Message)

	c.Disconnect()
	expectState(t, c, spitypes.ConnectionStateDisconnected)
	assert.Equal(t, spitypes.ConnectionStateDisconnected, c.State())
	assert.False(t, c.Send("too late"))
}

func TestConnectIgnoredWhileConnected(t *testing.T) {
	svr := NewTestWSServer(nil)
	defer svr.Close()

	c := New(context.Background(), &WSConfig{Address: svr.URL})
	defer c.Close()
	c.Connect()
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	expectState(t, c, spitypes.ConnectionStateConnected)
	c.Connect()
	assert.Equal(t, spitypes.ConnectionStateConnected, c.State())

	c.Disconnect()
	expectState(t, c, spitypes.ConnectionStateDisconnected)
}

func TestConnectRefused(t *testing.T) {
	svr := httptest.NewServer(http.NotFoundHandler())
	address := "ws://" + svr.Listener.Addr().String()
	svr.Close()

	c := New(context.Background(), &WSConfig{
		Address:                address,
		InitialConnectAttempts: 2,
		InitialDelay:           time.Millisecond,
	})
	defer c.Close()
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	ev := nextEvent(t, c)
	assert.Equal(t, EventError, ev.Type)
	assert.Regexp(t, "SPI10104", ev.Err)
	expectState(t, c, spitypes.ConnectionStateDisconnected)
}

func TestConnectUpgradeRejected(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(500)
	}))
	defer svr.Close()

	c := New(context.Background(), &WSConfig{Address: "ws://" + svr.Listener.Addr().String()})
	defer c.Close()
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	ev := nextEvent(t, c)
	assert.Equal(t, EventError, ev.Type)
	assert.Regexp(t, "SPI10106.*500", ev.Err)
	expectState(t, c, spitypes.ConnectionStateDisconnected)
}

func TestServerDropThenReconnectToNewAddress(t *testing.T) {
	svr1 := NewTestWSServer(nil)
	defer svr1.Close()
	svr2 := NewTestWSServer(nil)
	defer svr2.Close()

	c := New(context.Background(), &WSConfig{Address: svr1.URL})
	defer c.Close()
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	expectState(t, c, spitypes.ConnectionStateConnected)

	svr1.DropConnections()
	ev := nextEvent(t, c)
	assert.Equal(t, EventError, ev.Type)
	assert.Regexp(t, "SPI10105", ev.Err)
	expectState(t, c, spitypes.ConnectionStateDisconnected)

	c.SetAddress(svr2.URL)
	assert.Equal(t, svr2.URL, c.Address())
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	expectState(t, c, spitypes.ConnectionStateConnected)
	assert.True(t, c.Send("hello"))
	assert.Equal(t, "hello", fromServer(t, svr2))
}

func TestCloseStopsConnect(t *testing.T) {
	svr := NewTestWSServer(nil)
	defer svr.Close()

	c := New(context.Background(), &WSConfig{Address: svr.URL})
	c.Connect()
	expectState(t, c, spitypes.ConnectionStateConnecting)
	expectState(t, c, spitypes.ConnectionStateConnected)
	c.Close()
	c.Close()

	for c.State() != spitypes.ConnectionStateDisconnected {
		time.Sleep(time.Millisecond)
	}
	c.Connect()
	assert.Equal(t, spitypes.ConnectionStateDisconnected, c.State())
}

func TestGenerateConfigFromPrefix(t *testing.T) {
	config.Reset()
	prefix := config.NewPluginConfig("spi")
	InitPrefix(prefix)

	conf := GenerateConfigFromPrefix(prefix)
	assert.Equal(t, 16*1024, conf.ReadBufferSize)
	assert.Equal(t, 16*1024, conf.WriteBufferSize)
	assert.Equal(t, 10*time.Second, conf.ConnectTimeout)
	assert.Equal(t, 1, conf.InitialConnectAttempts)
	assert.Equal(t, 250*time.Millisecond, conf.InitialDelay)

	prefix.Set(WSConfigKeyInitialConnectAttempts, 3)
	assert.Equal(t, 3, GenerateConfigFromPrefix(prefix).InitialConnectAttempts)
}
