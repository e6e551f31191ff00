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
	"github.com/blinklabs-io/markstream/database/models"
)

// GetFile returns a file by its canonical id
func (d *Database) GetFile(id string, txn *Txn) (*models.File, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.metadata.GetFile(id, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrFileNotFound
	}
	return ret, nil
}

// SetFile creates or replaces a file
func (d *Database) SetFile(file *models.File, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetFile(file, txn.Metadata())
		})
	}
	return d.metadata.SetFile(file, txn.Metadata())
}

// ListFiles returns a page of files in creation order
func (d *Database) ListFiles(
	limit int,
	offset int,
	txn *Txn,
) ([]models.File, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.ListFiles(limit, offset, txn.Metadata())
}

// GetFileLabel returns a file label by its composite id
func (d *Database) GetFileLabel(
	id string,
	txn *Txn,
) (*models.FileLabel, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.metadata.GetFileLabel(id, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrFileLabelNotFound
	}
	return ret, nil
}

// SetFileLabel creates or replaces a file label
func (d *Database) SetFileLabel(fileLabel *models.FileLabel, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetFileLabel(fileLabel, txn.Metadata())
		})
	}
	return d.metadata.SetFileLabel(fileLabel, txn.Metadata())
}

// ListFileLabelsByFile returns a page of the file labels attached to a file
func (d *Database) ListFileLabelsByFile(
	fileID string,
	limit int,
	offset int,
	txn *Txn,
) ([]models.FileLabel, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.ListFileLabelsByFile(fileID, limit, offset, txn.Metadata())
}
