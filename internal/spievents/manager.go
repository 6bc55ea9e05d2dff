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

package spievents

import (
	"context"
	"sync"
	"time"

	"github.com/DixusSlim/spi-client-windows/internal/log"
	"github.com/DixusSlim/spi-client-windows/pkg/spitypes"
	"github.com/google/uuid"
)

// Manager fans every event out to all subscribers. Dispatch never blocks: each
// subscriber has its own bounded queue, and a full queue drops the event for that
// subscriber only.
type Manager interface {
	Subscribe(types ...spitypes.EventType) *Subscription
	Unsubscribe(s *Subscription)
	Dispatch(event *spitypes.Event)
	Close()
}

type eventManager struct {
	ctx                 context.Context
	mux                 sync.Mutex
	subscriptions       map[string]*Subscription
	dirtyReadList       []*Subscription
	closed              bool
	queueLength         int
	blockedWarnInterval time.Duration
}

func NewEventManager(ctx context.Context, queueLength int, blockedWarnInterval time.Duration) Manager {
	if queueLength < 1 {
		queueLength = 1
	}
	return &eventManager{
		ctx:                 log.WithLogField(ctx, "role", "event-manager"),
		subscriptions:       make(map[string]*Subscription),
		queueLength:         queueLength,
		blockedWarnInterval: blockedWarnInterval,
	}
}

// Subscribe registers a new listener. With no types, every event is delivered.
func (em *eventManager) Subscribe(types ...spitypes.EventType) *Subscription {
	s := &Subscription{
		ID:      uuid.New().String(),
		types:   types,
		events:  make(chan *spitypes.Event, em.queueLength),
		manager: em,
	}
	s.ctx = log.WithLogField(em.ctx, "subscription", s.ID)
	em.mux.Lock()
	defer em.mux.Unlock()
	if em.closed {
		s.close()
		return s
	}
	em.subscriptions[s.ID] = s
	em.makeDirtyReadList()
	return s
}

func (em *eventManager) Unsubscribe(s *Subscription) {
	em.mux.Lock()
	if _, ok := em.subscriptions[s.ID]; ok {
		delete(em.subscriptions, s.ID)
		em.makeDirtyReadList()
	}
	em.mux.Unlock()
	s.close()
}

// Close closes every subscriber channel, and any later subscription is closed on creation
func (em *eventManager) Close() {
	em.mux.Lock()
	em.closed = true
	subs := em.dirtyReadList
	em.subscriptions = make(map[string]*Subscription)
	em.dirtyReadList = nil
	em.mux.Unlock()
	for _, s := range subs {
		s.close()
	}
}

func (em *eventManager) makeDirtyReadList() {
	em.dirtyReadList = make([]*Subscription, 0, len(em.subscriptions))
	for _, s := range em.subscriptions {
		em.dirtyReadList = append(em.dirtyReadList, s)
	}
}

func (em *eventManager) Dispatch(event *spitypes.Event) {
	// the list is replaced, never modified, on subscribe/unsubscribe
	em.mux.Lock()
	subs := em.dirtyReadList
	em.mux.Unlock()
	for _, s := range subs {
		s.dispatch(event)
	}
}

// Subscription is one listener's view of the events
type Subscription struct {
	ID string

	ctx          context.Context
	manager      *eventManager
	types        []spitypes.EventType
	events       chan *spitypes.Event
	mux          sync.Mutex
	closed       bool
	dropped      int64
	droppedSince time.Time
	lastWarnTime time.Time
}

// Events is closed on Unsubscribe, or when the client stops
func (s *Subscription) Events() <-chan *spitypes.Event {
	return s.events
}

// Dropped is the number of events lost because this subscriber was not keeping up
func (s *Subscription) Dropped() int64 {
	s.mux.Lock()
	defer s.mux.Unlock()
	return s.dropped
}

func (s *Subscription) matches(event *spitypes.Event) bool {
	if len(s.types) == 0 {
		return true
	}
	for _, t := range s.types {
		if t == event.Type {
			return true
		}
	}
	return false
}

func (s *Subscription) dispatch(event *spitypes.Event) {
	if !s.matches(event) {
		return
	}
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.closed {
		return
	}
	select {
	case s.events <- event:
	default:
		if s.dropped == 0 {
			s.droppedSince = time.Now()
		}
		s.dropped++
		if s.lastWarnTime.IsZero() || time.Since(s.lastWarnTime) > s.manager.blockedWarnInterval {
			log.L(s.ctx).Warnf("Event listener is blocked and has missed %d events (since %s)", s.dropped, s.droppedSince.Format(time.RFC3339))
			s.lastWarnTime = time.Now()
		}
	}
}

func (s *Subscription) close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}
