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

package gormstore

import (
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
)

const positionOrder = "block_number, log_index, id"

// GetLabel returns the label with the given id, or nil if it does not exist
func (s *Store) GetLabel(id string, txn types.Txn) (*models.Label, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Label{}
	found, err := getByID(db, ret, id)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

func (s *Store) SetLabel(label *models.Label, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return upsert(db, label)
}

// ListLabels returns labels in creation order
func (s *Store) ListLabels(
	limit int,
	offset int,
	txn types.Txn,
) ([]models.Label, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.Label
	result := db.Order(positionOrder).Limit(limit).Offset(offset).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetFile returns the file with the given id, or nil if it does not exist
func (s *Store) GetFile(id string, txn types.Txn) (*models.File, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.File{}
	found, err := getByID(db, ret, id)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

func (s *Store) SetFile(file *models.File, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return upsert(db, file)
}

// ListFiles returns files in creation order
func (s *Store) ListFiles(
	limit int,
	offset int,
	txn types.Txn,
) ([]models.File, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.File
	result := db.Order(positionOrder).Limit(limit).Offset(offset).Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// GetFileLabel returns the file label with the given composite id, or nil if
// it does not exist
func (s *Store) GetFileLabel(
	id string,
	txn types.Txn,
) (*models.FileLabel, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.FileLabel{}
	found, err := getByID(db, ret, id)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

func (s *Store) SetFileLabel(fileLabel *models.FileLabel, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return upsert(db, fileLabel)
}

// ListFileLabelsByFile returns the file labels attached to a file in creation
// order
func (s *Store) ListFileLabelsByFile(
	fileID string,
	limit int,
	offset int,
	txn types.Txn,
) ([]models.FileLabel, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.FileLabel
	result := db.Where("file_id = ?", fileID).
		Order(positionOrder).
		Limit(limit).
		Offset(offset).
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddEventRecord inserts an event record. Existing records are never
// overwritten.
func (s *Store) AddEventRecord(rec models.EventRecord, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	var count int64
	result := db.Table(rec.TableName()).
		Where("id = ?", rec.RecordID()).
		Count(&count)
	if result.Error != nil {
		return result.Error
	}
	if count > 0 {
		return types.ErrEventRecordExists
	}
	return db.Create(rec).Error
}

// GetEventRecord returns the event record of the given kind and id, or nil if
// it does not exist
func (s *Store) GetEventRecord(
	kind string,
	id string,
	txn types.Txn,
) (models.EventRecord, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret, err := models.NewEventRecord(kind)
	if err != nil {
		return nil, err
	}
	found, err := getByID(db, ret, id)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

// GetCheckpoint returns the position of the last applied event, or nil if no
// event has been applied
func (s *Store) GetCheckpoint(txn types.Txn) (*models.Checkpoint, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	ret := &models.Checkpoint{}
	found, err := getByID(db, ret, models.CheckpointRowId)
	if err != nil || !found {
		return nil, err
	}
	return ret, nil
}

func (s *Store) SetCheckpoint(cp *models.Checkpoint, txn types.Txn) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	cp.ID = models.CheckpointRowId
	return upsert(db, cp)
}
