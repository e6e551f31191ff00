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

import "time"

const CheckpointRowId = 1

// Checkpoint holds the position of the last applied event
type Checkpoint struct {
	ID          uint `gorm:"primarykey"`
	BlockNumber uint64
	LogIndex    uint32
	EventID     string `gorm:"size:74"`
	UpdatedAt   time.Time
}

func (Checkpoint) TableName() string {
	return "checkpoint"
}
