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

package event_test

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/event"
)

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for event")
	}
	return event.Event{}
}

func requireClosed(t *testing.T, ch <-chan event.Event) {
	t.Helper()
	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			require.FailNow(t, "subscriber channel was not closed")
		}
	}
}

func TestEventTypes(t *testing.T) {
	seen := make(map[event.EventType]bool)
	for _, typ := range event.EventTypes {
		assert.True(t, strings.HasPrefix(string(typ), "markstream."), typ)
		assert.False(t, seen[typ], "duplicate event type %s", typ)
		seen[typ] = true
	}
	assert.Len(t, seen, 6)
}

func TestNotificationFanOut(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()

	payload := event.FileLabelUpdatedEvent{
		FileLabelID:        "123-1",
		FileID:             "123",
		LabelID:            "1",
		TotalUpVotes:       2,
		TotalContributions: 2,
	}
	_, ch1 := eb.Subscribe(event.FileLabelUpdatedEventType)
	_, ch2 := eb.Subscribe(event.FileLabelUpdatedEventType)
	_, otherCh := eb.Subscribe(event.FileUpdatedEventType)
	funcCh := make(chan event.Event, 1)
	eb.SubscribeFunc(event.FileLabelUpdatedEventType, func(evt event.Event) {
		funcCh <- evt
	})

	eb.Publish(
		event.FileLabelUpdatedEventType,
		event.NewEvent(event.FileLabelUpdatedEventType, payload),
	)

	for _, ch := range []<-chan event.Event{ch1, ch2, funcCh} {
		evt := receive(t, ch)
		assert.Equal(t, event.FileLabelUpdatedEventType, evt.Type)
		assert.False(t, evt.Timestamp.IsZero())
		got, ok := evt.Data.(event.FileLabelUpdatedEvent)
		require.True(t, ok, "unexpected payload type %T", evt.Data)
		assert.Equal(t, payload, got)
	}
	select {
	case evt := <-otherCh:
		t.Fatalf("subscriber of another type received %v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subID, ch := eb.Subscribe(event.LabelDeletedEventType)
	eb.Unsubscribe(event.LabelDeletedEventType, subID)
	eb.Publish(
		event.LabelDeletedEventType,
		event.NewEvent(
			event.LabelDeletedEventType,
			event.LabelEvent{LabelID: "1", Status: "deleted"},
		),
	)
	requireClosed(t, ch)
}

func TestStopClosesSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	typ := event.EventAppliedEventType
	_, ch := eb.Subscribe(typ)
	var handled atomic.Int32
	eb.SubscribeFunc(typ, func(event.Event) { handled.Add(1) })

	eb.Publish(typ, event.NewEvent(typ, event.EventAppliedEvent{BlockNumber: 1}))
	require.Eventually(t, func() bool { return handled.Load() == 1 },
		time.Second, 5*time.Millisecond)

	eb.Stop()
	requireClosed(t, ch)

	// Handlers registered before Stop no longer run
	eb.Publish(typ, event.NewEvent(typ, event.EventAppliedEvent{BlockNumber: 2}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), handled.Load())

	// The bus can be subscribed to again after Stop
	_, ch = eb.Subscribe(typ)
	eb.Publish(typ, event.NewEvent(typ, event.EventAppliedEvent{BlockNumber: 3}))
	evt := receive(t, ch)
	assert.Equal(t, uint64(3), evt.Data.(event.EventAppliedEvent).BlockNumber)
	eb.Stop()
	requireClosed(t, ch)
}

func TestSubscribeFuncSurvivesPanic(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	typ := event.OwnerChangedEventType

	var received atomic.Int32
	eb.SubscribeFunc(typ, func(event.Event) {
		if received.Add(1) == 1 {
			panic("handler failure")
		}
	})
	eb.Publish(typ, event.NewEvent(typ, event.OwnerChangedEvent{NewOwner: "0x01"}))
	eb.Publish(typ, event.NewEvent(typ, event.OwnerChangedEvent{NewOwner: "0x02"}))

	require.Eventually(t, func() bool { return received.Load() >= 2 },
		2*time.Second, 10*time.Millisecond,
		"handler should keep receiving events after a panic",
	)
}
