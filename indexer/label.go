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

// applyLabelAdded records the event and creates the label if it is unknown.
// An existing label, active or deleted, is left untouched.
func applyLabelAdded(
	store Store,
	evt contract.LabelAdded,
	eventID string,
) ([]event.Event, error) {
	labelID := LabelID(evt.Label)
	rec := &models.LabelAdded{
		EventMeta:   eventMeta(eventID, evt.Meta),
		Contributor: evt.Contributor.Hex(),
		Label:       labelID,
		Description: evt.Description,
	}
	if err := store.AddEventRecord(rec); err != nil {
		return nil, err
	}
	label, err := store.GetLabel(labelID)
	if err != nil {
		return nil, err
	}
	if label != nil {
		return nil, nil
	}
	label = &models.Label{
		ID:           labelID,
		Creator:      evt.Contributor.Hex(),
		Description:  evt.Description,
		Status:       models.LabelStatusActive,
		CreationMeta: creationMeta(evt.Meta),
	}
	if err := store.SetLabel(label); err != nil {
		return nil, err
	}
	return []event.Event{
		event.NewEvent(
			event.LabelCreatedEventType,
			event.LabelEvent{
				LabelID: label.ID,
				Creator: label.Creator,
				Status:  string(label.Status),
				EventID: eventID,
			},
		),
	}, nil
}

// applyLabelRemoved records the event and marks an active label deleted.
// Removing an unknown or already deleted label changes nothing else.
func applyLabelRemoved(
	store Store,
	evt contract.LabelRemoved,
	eventID string,
) ([]event.Event, error) {
	labelID := LabelID(evt.Label)
	rec := &models.LabelRemoved{
		EventMeta:   eventMeta(eventID, evt.Meta),
		Contributor: evt.Contributor.Hex(),
		Label:       labelID,
	}
	if err := store.AddEventRecord(rec); err != nil {
		return nil, err
	}
	label, err := store.GetLabel(labelID)
	if err != nil {
		return nil, err
	}
	if label == nil || label.Status == models.LabelStatusDeleted {
		return nil, nil
	}
	label.Status = models.LabelStatusDeleted
	if err := store.SetLabel(label); err != nil {
		return nil, err
	}
	return []event.Event{
		event.NewEvent(
			event.LabelDeletedEventType,
			event.LabelEvent{
				LabelID: label.ID,
				Creator: label.Creator,
				Status:  string(label.Status),
				EventID: eventID,
			},
		),
	}, nil
}
