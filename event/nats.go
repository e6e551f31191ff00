// Copyright 2026 Blink Labs Software
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

package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
)

// NATSSubscriber forwards bus events as JSON to NATS subjects named
// <prefix>.<event type>
type NATSSubscriber struct {
	conn    *nats.Conn
	prefix  string
	logger  *slog.Logger
	dropped atomic.Uint64
	mu      sync.Mutex
	closed  bool
}

func NewNATSSubscriber(
	conn *nats.Conn,
	prefix string,
	logger *slog.Logger,
) *NATSSubscriber {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &NATSSubscriber{
		conn:   conn,
		prefix: prefix,
		logger: logger,
	}
}

// Dropped returns how many events failed to publish on a connection that
// was still usable
func (s *NATSSubscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// Subject returns the NATS subject used for the given event type
func (s *NATSSubscriber) Subject(eventType EventType) string {
	if s.prefix == "" {
		return string(eventType)
	}
	return s.prefix + "." + string(eventType)
}

func (s *NATSSubscriber) Deliver(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("nats subscriber closed")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := s.Subject(evt.Type)
	err = s.conn.Publish(subject, data)
	if err == nil {
		return nil
	}
	// Only a closed connection stops forwarding. Anything else, such as an
	// oversized payload or a full reconnect buffer, loses just this event.
	if s.conn.IsClosed() {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	s.dropped.Add(1)
	s.logger.Warn(
		"dropped event forwarded to NATS",
		"component", "event",
		"subject", subject,
		"status", s.conn.Status().String(),
		"error", err,
	)
	return nil
}

// Close stops forwarding. The NATS connection is owned by the caller and is
// left open.
func (s *NATSSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// ForwardToNATS registers a NATSSubscriber on the bus for each of the given
// event types, or for every markstream event type if none are given
func (e *EventBus) ForwardToNATS(
	conn *nats.Conn,
	prefix string,
	eventTypes ...EventType,
) *NATSSubscriber {
	if len(eventTypes) == 0 {
		eventTypes = EventTypes
	}
	sub := NewNATSSubscriber(conn, prefix, e.logger)
	for _, eventType := range eventTypes {
		e.RegisterSubscriber(eventType, sub)
	}
	return sub
}
