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

// GetLabel returns a label by its canonical id
func (d *Database) GetLabel(id string, txn *Txn) (*models.Label, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	ret, err := d.metadata.GetLabel(id, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, models.ErrLabelNotFound
	}
	return ret, nil
}

// SetLabel creates or replaces a label
func (d *Database) SetLabel(label *models.Label, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.metadata.SetLabel(label, txn.Metadata())
		})
	}
	return d.metadata.SetLabel(label, txn.Metadata())
}

// ListLabels returns a page of labels in creation order
func (d *Database) ListLabels(
	limit int,
	offset int,
	txn *Txn,
) ([]models.Label, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.ListLabels(limit, offset, txn.Metadata())
}
