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

package indexer

import (
	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/event"
)

// applyOwnerChanged only records the event. No aggregate tracks ownership.
func applyOwnerChanged(
	store Store,
	evt contract.OwnerChanged,
	eventID string,
) ([]event.Event, error) {
	rec := &models.OwnerChanged{
		EventMeta: eventMeta(eventID, evt.Meta),
		NewOwner:  evt.NewOwner.Hex(),
	}
	if err := store.AddEventRecord(rec); err != nil {
		return nil, err
	}
	return []event.Event{
		event.NewEvent(
			event.OwnerChangedEventType,
			event.OwnerChangedEvent{
				NewOwner: rec.NewOwner,
				EventID:  eventID,
			},
		),
	}, nil
}
