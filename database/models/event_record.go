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

package models

import (
	"errors"
	"fmt"
)

var ErrEventRecordNotFound = errors.New("event record not found")

const (
	EventKindLabelAdded     = "LabelAdded"
	EventKindLabelRemoved   = "LabelRemoved"
	EventKindLabelUpVoted   = "LabelUpVoted"
	EventKindLabelDownVoted = "LabelDownVoted"
	EventKindOwnerChanged   = "OwnerChanged"
)

// EventRecord is an append-only audit row for a single contract log
type EventRecord interface {
	TableName() string
	RecordKind() string
	RecordID() string
	RecordMeta() EventMeta
}

// EventMeta holds the fields shared by all event records. ID is the
// 0x-prefixed hex form of the transaction hash followed by the big-endian
// log index.
type EventMeta struct {
	ID              string `gorm:"primaryKey;size:74"`
	BlockNumber     uint64 `gorm:"index"`
	BlockTimestamp  uint64
	TransactionHash string `gorm:"size:66;index"`
	LogIndex        uint32
}

func (m EventMeta) RecordID() string {
	return m.ID
}

func (m EventMeta) RecordMeta() EventMeta {
	return m
}

type LabelAdded struct {
	EventMeta
	Contributor string `gorm:"size:42"`
	Label       string `gorm:"size:78;index"`
	Description string
}

func (LabelAdded) TableName() string  { return "label_added" }
func (LabelAdded) RecordKind() string { return EventKindLabelAdded }

type LabelRemoved struct {
	EventMeta
	Contributor string `gorm:"size:42"`
	Label       string `gorm:"size:78;index"`
}

func (LabelRemoved) TableName() string  { return "label_removed" }
func (LabelRemoved) RecordKind() string { return EventKindLabelRemoved }

type LabelUpVoted struct {
	EventMeta
	Contributor string `gorm:"size:42"`
	Label       string `gorm:"size:78;index"`
	FileHash    string `gorm:"size:78;index"`
}

func (LabelUpVoted) TableName() string  { return "label_up_voted" }
func (LabelUpVoted) RecordKind() string { return EventKindLabelUpVoted }

type LabelDownVoted struct {
	EventMeta
	Contributor string `gorm:"size:42"`
	Label       string `gorm:"size:78;index"`
	FileHash    string `gorm:"size:78;index"`
}

func (LabelDownVoted) TableName() string  { return "label_down_voted" }
func (LabelDownVoted) RecordKind() string { return EventKindLabelDownVoted }

type OwnerChanged struct {
	EventMeta
	NewOwner string `gorm:"size:42"`
}

func (OwnerChanged) TableName() string  { return "owner_changed" }
func (OwnerChanged) RecordKind() string { return EventKindOwnerChanged }

// NewEventRecord returns an empty record model for the given event kind
func NewEventRecord(kind string) (EventRecord, error) {
	switch kind {
	case EventKindLabelAdded:
		return &LabelAdded{}, nil
	case EventKindLabelRemoved:
		return &LabelRemoved{}, nil
	case EventKindLabelUpVoted:
		return &LabelUpVoted{}, nil
	case EventKindLabelDownVoted:
		return &LabelDownVoted{}, nil
	case EventKindOwnerChanged:
		return &OwnerChanged{}, nil
	default:
		return nil, fmt.Errorf("unknown event record kind: %s", kind)
	}
}
