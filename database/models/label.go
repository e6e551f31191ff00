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

	"github.com/blinklabs-io/markstream/database/types"
)

var ErrLabelNotFound = errors.New("label not found")

type LabelStatus string

const (
	LabelStatusActive  LabelStatus = "active"
	LabelStatusDeleted LabelStatus = "deleted"
)

// Label is the aggregate for a protocol label. Rows are never deleted; only
// Status changes after creation.
type Label struct {
	ID                 string `gorm:"primaryKey;size:78"`
	Creator            string `gorm:"size:42;index"`
	Description        string
	Status             LabelStatus  `gorm:"size:16;index"`
	TotalContributions types.Uint64 `gorm:"type:text"`
	CreationMeta
}

func (Label) TableName() string {
	return "label"
}
