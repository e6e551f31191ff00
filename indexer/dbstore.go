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

	"github.com/blinklabs-io/markstream/database"
)

// DatabaseTransactor runs indexer transactions against a database.Database
type DatabaseTransactor struct {
	db *database.Database
}

func NewDatabaseTransactor(db *database.Database) *DatabaseTransactor {
	return &DatabaseTransactor{db: db}
}

func (t *DatabaseTransactor) Update(
	ctx context.Context,
	fn func(Store) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.db.Transaction(true).Do(func(txn *database.Txn) error {
		return fn(t.db.Store(txn))
	})
}
