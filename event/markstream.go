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

// Read-model change notifications published after each indexed event commits
const (
	LabelCreatedEventType     = EventType("markstream.label.created")
	LabelDeletedEventType     = EventType("markstream.label.deleted")
	FileUpdatedEventType      = EventType("markstream.file.updated")
	FileLabelUpdatedEventType = EventType("markstream.filelabel.updated")
	OwnerChangedEventType     = EventType("markstream.owner.changed")
	EventAppliedEventType     = EventType("markstream.event.applied")
)

// EventTypes lists every notification the indexer publishes
var EventTypes = []EventType{
	LabelCreatedEventType,
	LabelDeletedEventType,
	FileUpdatedEventType,
	FileLabelUpdatedEventType,
	OwnerChangedEventType,
	EventAppliedEventType,
}

// EventAppliedEvent is published once for every contract event that was
// committed, including events that changed no aggregate
type EventAppliedEvent struct {
	EventID         string `json:"eventId"`
	Kind            string `json:"kind"`
	BlockNumber     uint64 `json:"blockNumber"`
	LogIndex        uint32 `json:"logIndex"`
	TransactionHash string `json:"transactionHash"`
}

// LabelEvent is published when a label is created or transitions to deleted
type LabelEvent struct {
	LabelID string `json:"labelId"`
	Creator string `json:"creator,omitempty"`
	Status  string `json:"status"`
	EventID string `json:"eventId"`
}

// FileUpdatedEvent carries the file counters after a vote
type FileUpdatedEvent struct {
	FileID             string `json:"fileId"`
	TotalLabels        uint64 `json:"totalLabels"`
	TotalContributions uint64 `json:"totalContributions"`
	EventID            string `json:"eventId"`
}

// FileLabelUpdatedEvent carries the file label counters after a vote
type FileLabelUpdatedEvent struct {
	FileLabelID        string `json:"fileLabelId"`
	FileID             string `json:"fileId"`
	LabelID            string `json:"labelId"`
	TotalUpVotes       uint64 `json:"totalUpVotes"`
	TotalDownVotes     uint64 `json:"totalDownVotes"`
	TotalContributions uint64 `json:"totalContributions"`
	Created            bool   `json:"created"`
	EventID            string `json:"eventId"`
}

// OwnerChangedEvent is published when contract ownership changes
type OwnerChangedEvent struct {
	NewOwner string `json:"newOwner"`
	EventID  string `json:"eventId"`
}
