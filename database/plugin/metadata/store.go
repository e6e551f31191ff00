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

package metadata

import (
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/database/types"
	"gorm.io/gorm"
)

// MetadataStore holds the queryable read-model. Getters return a nil entity
// and no error when the entity does not exist.
type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Aggregates
	GetLabel(string, types.Txn) (*models.Label, error)
	SetLabel(*models.Label, types.Txn) error
	ListLabels(int, int, types.Txn) ([]models.Label, error)
	GetFile(string, types.Txn) (*models.File, error)
	SetFile(*models.File, types.Txn) error
	ListFiles(int, int, types.Txn) ([]models.File, error)
	GetFileLabel(string, types.Txn) (*models.FileLabel, error)
	SetFileLabel(*models.FileLabel, types.Txn) error
	ListFileLabelsByFile(string, int, int, types.Txn) ([]models.FileLabel, error)

	// Audit log
	AddEventRecord(models.EventRecord, types.Txn) error
	GetEventRecord(string, string, types.Txn) (models.EventRecord, error)

	// Progress
	GetCheckpoint(types.Txn) (*models.Checkpoint, error)
	SetCheckpoint(*models.Checkpoint, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string, rt plugin.Runtime) (MetadataStore, error) {
	return plugin.StartAs[MetadataStore](plugin.PluginTypeMetadata, pluginName, rt)
}
