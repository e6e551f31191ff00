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

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrFileLabelNotFound = errors.New("file label not found")
)

// File tracks the votes received by a file hash
type File struct {
	ID                 string       `gorm:"primaryKey;size:78"`
	TotalLabels        types.Uint64 `gorm:"type:text"`
	TotalContributions types.Uint64 `gorm:"type:text"`
	CreationMeta
}

func (File) TableName() string {
	return "file"
}

// FileLabel tracks the votes for one label on one file
type FileLabel struct {
	ID                 string       `gorm:"primaryKey;size:157"`
	FileID             string       `gorm:"size:78;index"`
	LabelID            string       `gorm:"size:78;index"`
	TotalUpVotes       types.Uint64 `gorm:"type:text"`
	TotalDownVotes     types.Uint64 `gorm:"type:text"`
	TotalContributions types.Uint64 `gorm:"type:text"`
	CreationMeta
}

func (FileLabel) TableName() string {
	return "file_label"
}
