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
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/websocket"
)

// TestWSServer is a little terminal stand-in for unit tests. Every frame a client
// sends arrives on ToServer, and every string pushed to FromServer is written to
// the most recently connected client.
type TestWSServer struct {
	URL        string
	ToServer   chan string
	FromServer chan string

	svr     *httptest.Server
	mux     sync.Mutex
	conns   []*websocket.Conn
	wg      sync.WaitGroup
	closing chan struct{}
	closed  bool
}

func NewTestWSServer(testReq func(req *http.Request)) *TestWSServer {
	upgrader := &websocket.Upgrader{WriteBufferSize: 1024, ReadBufferSize: 1024}
	s := &TestWSServer{
		ToServer:   make(chan string, 10),
		FromServer: make(chan string, 10),
		closing:    make(chan struct{}),
	}
	s.svr = httptest.NewServer(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if testReq != nil {
			testReq(req)
		}
		ws, err := upgrader.Upgrade(res, req, http.Header{})
		if err != nil {
			return
		}
		s.mux.Lock()
		if s.closed {
			s.mux.Unlock()
			_ = ws.Close()
			return
		}
		s.conns = append(s.conns, ws)
		s.wg.Add(1)
		s.mux.Unlock()

		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			for {
				_, data, err := ws.ReadMessage()
				if err != nil {
					return
				}
				select {
				case s.ToServer <- string(data):
				case <-s.closing:
					return
				}
			}
		}()
		go func() {
			defer s.wg.Done()
			defer ws.Close()
			for {
				select {
				case data := <-s.FromServer:
					if err := ws.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
						return
					}
				case <-readerDone:
					return
				case <-s.closing:
					return
				}
			}
		}()
	}))
	s.URL = fmt.Sprintf("ws://%s", s.svr.Listener.Addr())
	return s
}

// DropConnections closes every open socket without a close handshake, as a terminal
// that lost power would
func (s *TestWSServer) DropConnections() {
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, ws := range s.conns {
		_ = ws.Close()
	}
	s.conns = nil
}

func (s *TestWSServer) Close() {
	s.mux.Lock()
	if s.closed {
		s.mux.Unlock()
		return
	}
	s.closed = true
	close(s.closing)
	s.mux.Unlock()
	s.DropConnections()
	s.svr.Close()
	s.wg.Wait()
}
