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

package indexer

import (
	"context"

	"github.com/blinklabs-io/markstream/database/models"
)

// Store is the entity repository the event handlers read and write. Getters
// return a nil entity when the id is unknown.
type Store interface {
	HasEventRecord(id string) (bool, error)
	AddEventRecord(rec models.EventRecord) error
	GetLabel(id string) (*models.Label, error)
	SetLabel(label *models.Label) error
	GetFile(id string) (*models.File, error)
	SetFile(file *models.File) error
	GetFileLabel(id string) (*models.FileLabel, error)
	SetFileLabel(fileLabel *models.FileLabel) error
	GetCheckpoint() (*models.Checkpoint, error)
	SetCheckpoint(cp *models.Checkpoint) error
}

// Transactor runs fn against a Store inside a single atomic transaction.
// Nothing fn wrote is visible if it returns an error.
type Transactor interface {
	Update(ctx context.Context, fn func(Store) error) error
}
