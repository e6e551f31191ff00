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

// Package source defines how decoded contract events reach the indexer and
// the JSON wire format shared by the bundled sources.
package source

import (
	"context"

	"github.com/blinklabs-io/markstream/contract"
)

// Delivery is a single event handed out by a Source. Exactly one of Ack, Nak
// or Term should be called once the event has been handled.
type Delivery interface {
	Event() contract.Event
	// Ack confirms the event was committed
	Ack() error
	// Nak asks for the event to be delivered again later
	Nak() error
	// Term drops the event permanently
	Term() error
}

// Source yields events in increasing (blockNumber, logIndex) order with
// at-least-once delivery. Next returns io.EOF once a finite source is
// exhausted. An error wrapping contract.ErrMalformedEvent means the offending
// input was dropped and Next may be called again.
type Source interface {
	Next(ctx context.Context) (Delivery, error)
	Close() error
}

// StaticDelivery is a Delivery for sources without acknowledgement
type StaticDelivery struct {
	Evt contract.Event
}

func (d StaticDelivery) Event() contract.Event { return d.Evt }
func (StaticDelivery) Ack() error              { return nil }
func (StaticDelivery) Nak() error              { return nil }
func (StaticDelivery) Term() error             { return nil }
