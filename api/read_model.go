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

package api

import (
	"github.com/blinklabs-io/markstream/database"
	"github.com/blinklabs-io/markstream/database/models"
)

// ReadModel is what the API server queries. Getters return the models
// package not-found errors for unknown ids. This decouples the HTTP server
// from the concrete database and enables testing with mock implementations.
type ReadModel interface {
	GetLabel(id string) (*models.Label, error)
	ListLabels(limit int, offset int) ([]models.Label, error)
	GetFile(id string) (*models.File, error)
	ListFiles(limit int, offset int) ([]models.File, error)
	GetFileLabel(id string) (*models.FileLabel, error)
	ListFileLabelsByFile(fileID string, limit int, offset int) ([]models.FileLabel, error)
	GetEventRecord(id string) (models.EventRecord, error)
	// GetCheckpoint returns nil before the first event is applied
	GetCheckpoint() (*models.Checkpoint, error)
}

// DatabaseReadModel implements ReadModel on top of a database.Database. Each
// call runs in its own read transaction.
type DatabaseReadModel struct {
	db *database.Database
}

func NewDatabaseReadModel(db *database.Database) *DatabaseReadModel {
	if db == nil {
		panic("NewDatabaseReadModel: database must not be nil")
	}
	return &DatabaseReadModel{db: db}
}

func (r *DatabaseReadModel) GetLabel(id string) (*models.Label, error) {
	return r.db.GetLabel(id, nil)
}

func (r *DatabaseReadModel) ListLabels(
	limit int,
	offset int,
) ([]models.Label, error) {
	return r.db.ListLabels(limit, offset, nil)
}

func (r *DatabaseReadModel) GetFile(id string) (*models.File, error) {
	return r.db.GetFile(id, nil)
}

func (r *DatabaseReadModel) ListFiles(
	limit int,
	offset int,
) ([]models.File, error) {
	return r.db.ListFiles(limit, offset, nil)
}

func (r *DatabaseReadModel) GetFileLabel(id string) (*models.FileLabel, error) {
	return r.db.GetFileLabel(id, nil)
}

func (r *DatabaseReadModel) ListFileLabelsByFile(
	fileID string,
	limit int,
	offset int,
) ([]models.FileLabel, error) {
	return r.db.ListFileLabelsByFile(fileID, limit, offset, nil)
}

func (r *DatabaseReadModel) GetEventRecord(id string) (models.EventRecord, error) {
	return r.db.GetEventRecord(id, nil)
}

func (r *DatabaseReadModel) GetCheckpoint() (*models.Checkpoint, error) {
	return r.db.GetCheckpoint(nil)
}
