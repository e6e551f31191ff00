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

package database

import (
	"errors"

	"github.com/blinklabs-io/markstream/database/models"
)

// TxnStore binds the entity operations to a single transaction. Getters
// return a nil entity rather than a not-found error.
type TxnStore struct {
	db  *Database
	txn *Txn
}

// Store returns the entity operations bound to txn
func (d *Database) Store(txn *Txn) *TxnStore {
	return &TxnStore{db: d, txn: txn}
}

func (s *TxnStore) HasEventRecord(id string) (bool, error) {
	return s.db.HasEventRecord(id, s.txn)
}

func (s *TxnStore) AddEventRecord(rec models.EventRecord) error {
	return s.db.AddEventRecord(rec, s.txn)
}

func (s *TxnStore) GetLabel(id string) (*models.Label, error) {
	ret, err := s.db.GetLabel(id, s.txn)
	if errors.Is(err, models.ErrLabelNotFound) {
		return nil, nil
	}
	return ret, err
}

func (s *TxnStore) SetLabel(label *models.Label) error {
	return s.db.SetLabel(label, s.txn)
}

func (s *TxnStore) GetFile(id string) (*models.File, error) {
	ret, err := s.db.GetFile(id, s.txn)
	if errors.Is(err, models.ErrFileNotFound) {
		return nil, nil
	}
	return ret, err
}

func (s *TxnStore) SetFile(file *models.File) error {
	return s.db.SetFile(file, s.txn)
}

func (s *TxnStore) GetFileLabel(id string) (*models.FileLabel, error) {
	ret, err := s.db.GetFileLabel(id, s.txn)
	if errors.Is(err, models.ErrFileLabelNotFound) {
		return nil, nil
	}
	return ret, err
}

func (s *TxnStore) SetFileLabel(fileLabel *models.FileLabel) error {
	return s.db.SetFileLabel(fileLabel, s.txn)
}

func (s *TxnStore) GetCheckpoint() (*models.Checkpoint, error) {
	return s.db.GetCheckpoint(s.txn)
}

func (s *TxnStore) SetCheckpoint(cp *models.Checkpoint) error {
	return s.db.SetCheckpoint(cp, s.txn)
}
