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
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/i18n"
	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/internal/retry"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/gorilla/websocket"
)

const (
	eventQueueLength = 64
	sendQueueLength  = 32
	closeWriteWait   = time.Second
)

type EventType int

const (
	// EventStateChanged reports a move between Disconnected, Connecting and Connected
	EventStateChanged EventType = iota
	// EventMessage carries one text frame from the terminal
	EventMessage
	// EventError reports a transport failure. It is always followed by EventStateChanged(Disconnected)
	EventError
)

type Event struct {
	Type    EventType
	State   spitypes.ConnectionState
	Message string
	Err     error
}

// Connection is a duplex session to one terminal address at a time.
// Connect and Disconnect never block, and all outcomes arrive on Events() in order.
type Connection interface {
	Connect()
	Disconnect()
	Send(message string) bool
	State() spitypes.ConnectionState
	Connected() bool
	Address() string
	SetAddress(address string)
	Events() <-chan *Event
	Close()
}

type wsConnection struct {
	ctx                    context.Context
	dialer                 *websocket.Dialer
	retry                  retry.Retry
	connectTimeout         time.Duration
	initialConnectAttempts int

	mux     sync.Mutex
	address string
	state   spitypes.ConnectionState
	session *session
	closed  bool

	events  chan *Event
	closing chan struct{}
}

// session is one connect attempt and, if the dial succeeds, the life of that socket
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	send   chan string
	done   chan struct{}
}

func New(ctx context.Context, config *WSConfig) Connection {
	attempts := config.InitialConnectAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &wsConnection{
		ctx: log.WithLogField(ctx, "role", "wsclient"),
		dialer: &websocket.Dialer{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			Proxy:           http.ProxyFromEnvironment,
		},
		retry: retry.Retry{
			InitialDelay: config.InitialDelay,
			MaximumDelay: config.MaximumDelay,
		},
		connectTimeout:         config.ConnectTimeout,
		initialConnectAttempts: attempts,
		address:                config.Address,
		state:                  spitypes.ConnectionStateDisconnected,
		events:                 make(chan *Event, eventQueueLength),
		closing:                make(chan struct{}),
	}
}

func (w *wsConnection) Events() <-chan *Event {
	return w.events
}

func (w *wsConnection) Address() string {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.address
}

// SetAddress changes the address used by the next Connect. A session already in flight keeps its address.
func (w *wsConnection) SetAddress(address string) {
	w.mux.Lock()
	defer w.mux.Unlock()
	w.address = address
}

func (w *wsConnection) State() spitypes.ConnectionState {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.state
}

func (w *wsConnection) Connected() bool {
	return w.State() == spitypes.ConnectionStateConnected
}

func (w *wsConnection) Connect() {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.closed || w.state != spitypes.ConnectionStateDisconnected {
		log.L(w.ctx).Debugf("WS connect ignored in state %s", w.state)
		return
	}
	prev := w.session
	sctx, cancel := context.WithCancel(w.ctx)
	s := &session{
		ctx:    sctx,
		cancel: cancel,
		send:   make(chan string, sendQueueLength),
		done:   make(chan struct{}),
	}
	w.session = s
	w.state = spitypes.ConnectionStateConnecting
	go w.runSession(s, prev, w.address)
}

// Disconnect tears down the current session. The Disconnected state is reported
// on Events() once the socket has gone.
func (w *wsConnection) Disconnect() {
	w.mux.Lock()
	s := w.session
	w.mux.Unlock()
	if s != nil {
		w.teardown(s)
	}
}

func (w *wsConnection) Close() {
	w.mux.Lock()
	if w.closed {
		w.mux.Unlock()
		return
	}
	w.closed = true
	close(w.closing)
	s := w.session
	w.mux.Unlock()
	if s != nil {
		w.teardown(s)
	}
}

// Send enqueues a frame for the writer. It returns false when there is no live socket or the queue is full.
func (w *wsConnection) Send(message string) bool {
	w.mux.Lock()
	defer w.mux.Unlock()
	if w.state != spitypes.ConnectionStateConnected || w.session == nil {
		return false
	}
	select {
	case w.session.send <- message:
		return true
	default:
		log.L(w.ctx).Warnf("WS %s send queue full", w.address)
		return false
	}
}

func (w *wsConnection) teardown(s *session) {
	s.cancel()
	w.mux.Lock()
	conn := s.conn
	w.mux.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeWriteWait))
		_ = conn.Close()
	}
}

func (w *wsConnection) emit(ev *Event) {
	select {
	case w.events <- ev:
	case <-w.closing:
	}
}

func (w *wsConnection) runSession(s *session, prev *session, address string) {
	defer close(s.done)
	if prev != nil {
		// the previous session must have reported Disconnected before we report Connecting
		<-prev.done
	}
	l := log.L(s.ctx)
	w.emit(&Event{Type: EventStateChanged, State: spitypes.ConnectionStateConnecting})

	conn, err := w.dial(s.ctx, address)
	if err != nil {
		if s.ctx.Err() == nil {
			w.emit(&Event{Type: EventError, Err: err})
		}
		w.finish(s)
		return
	}

	w.mux.Lock()
	if s.ctx.Err() != nil {
		w.mux.Unlock()
		_ = conn.Close()
		w.finish(s)
		return
	}
	s.conn = conn
	w.state = spitypes.ConnectionStateConnected
	w.mux.Unlock()
	l.Infof("WS %s connected", address)
	w.emit(&Event{Type: EventStateChanged, State: spitypes.ConnectionStateConnected})

	writerDone := make(chan struct{})
	go w.writeLoop(s, writerDone)
	w.readLoop(s, address)

	s.cancel()
	<-writerDone
	_ = conn.Close()
	w.finish(s)
}

func (w *wsConnection) finish(s *session) {
	w.mux.Lock()
	w.state = spitypes.ConnectionStateDisconnected
	if w.session == s {
		w.session = nil
	}
	w.mux.Unlock()
	w.emit(&Event{Type: EventStateChanged, State: spitypes.ConnectionStateDisconnected})
}

func (w *wsConnection) dial(ctx context.Context, address string) (conn *websocket.Conn, err error) {
	l := log.L(ctx)
	err = w.retry.DoCustomLog(ctx, func(attempt int) (retry bool, err error) {
		dialCtx := ctx
		if w.connectTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, w.connectTimeout)
			defer cancel()
		}
		var res *http.Response
		conn, res, err = w.dialer.DialContext(dialCtx, address, nil)
		if err == nil {
			return false, nil
		}
		retry = attempt < w.initialConnectAttempts && ctx.Err() == nil
		if res != nil {
			b, _ := ioutil.ReadAll(res.Body)
			res.Body.Close()
			l.Warnf("WS %s connect attempt %d failed [%d]: %s", address, attempt, res.StatusCode, string(b))
			return retry, i18n.NewError(ctx, i18n.MsgWSUnexpectedStatus, address, res.StatusCode)
		}
		l.Warnf("WS %s connect attempt %d failed: %s", address, attempt, err)
		return retry, i18n.WrapError(ctx, err, i18n.MsgWSConnectFailed, address)
	})
	return conn, err
}

func (w *wsConnection) readLoop(s *session, address string) {
	l := log.L(s.ctx)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if s.ctx.Err() == nil {
				l.Errorf("WS %s closed: %s", address, err)
				w.emit(&Event{Type: EventError, Err: i18n.WrapError(s.ctx, err, i18n.MsgWSClosing)})
			} else {
				l.Debugf("WS %s disconnected", address)
			}
			return
		}
		l.Tracef("WS %s read: %s", address, data)
		w.emit(&Event{Type: EventMessage, Message: string(data)})
	}
}

func (w *wsConnection) writeLoop(s *session, done chan struct{}) {
	l := log.L(s.ctx)
	defer close(done)
	for {
		select {
		case message := <-s.send:
			l.Tracef("WS sending: %s", message)
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				l.Errorf("WS send failed: %s", err)
				// unblocks the reader, which ends the session
				_ = s.conn.Close()
				return
			}
		case <-s.ctx.Done():
			return
		}
	}
}
