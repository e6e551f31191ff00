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
	"fmt"
	"sync"

	"github.com/blinklabs-io/markstream/database/types"
)

// PartialCommitError is returned when the journal committed but the
// metadata store did not. The journal then claims an event whose aggregate
// writes were lost, so the stores must be rebuilt.
type PartialCommitError struct {
	Err error
}

func (e PartialCommitError) Error() string {
	return fmt.Sprintf(
		"partial commit: journal committed but metadata did not: %s",
		e.Err,
	)
}

func (e PartialCommitError) Unwrap() error {
	return e.Err
}

// Txn spans the journal and the metadata store so that one event's writes
// become visible together. Commit, Rollback and Release may each be called
// more than once.
type Txn struct {
	db          *Database
	blobTxn     types.Txn
	metadataTxn types.Txn
	lock        sync.Mutex
	finished    bool
	readWrite   bool
}

func newTxn(db *Database, readWrite bool) *Txn {
	t := &Txn{
		db:        db,
		readWrite: readWrite,
		blobTxn:   db.blob.NewTransaction(readWrite),
	}
	if t.metadataTxn = db.metadata.Transaction(); t.metadataTxn == nil {
		db.logger.Warn(
			"metadata store returned no transaction",
			"component", "database",
		)
	}
	return t
}

// newJournalTxn covers only the journal, for scans that never touch the
// read-model
func newJournalTxn(db *Database) *Txn {
	return &Txn{db: db, blobTxn: db.blob.NewTransaction(false)}
}

func (t *Txn) DB() *Database {
	return t.db
}

// Metadata returns the metadata transaction handle
func (t *Txn) Metadata() types.Txn {
	return t.metadataTxn
}

// Blob returns the journal transaction handle
func (t *Txn) Blob() types.Txn {
	return t.blobTxn
}

// Do runs fn inside the transaction, committing if it succeeds and rolling
// back otherwise
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return fmt.Errorf(
				"rollback failed: %w: original error: %w",
				rbErr,
				err,
			)
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Commit stamps both stores with the same commit timestamp, then commits the
// journal followed by the metadata store. A read-only transaction is
// released instead.
func (t *Txn) Commit() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.finished {
		return nil
	}
	if !t.readWrite {
		return t.rollback()
	}
	if t.blobTxn == nil || t.metadataTxn == nil {
		_ = t.rollback()
		return types.ErrNoStoreAvailable
	}
	if err := t.db.updateCommitTimestamp(t, t.db.nextCommitTimestamp()); err != nil {
		_ = t.rollback()
		return fmt.Errorf("update commit timestamp: %w", err)
	}
	t.finished = true
	// A failed journal commit leaves nothing behind in either store
	if err := t.blobTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		return fmt.Errorf("journal commit: %w", err)
	}
	if err := t.metadataTxn.Commit(); err != nil {
		_ = t.metadataTxn.Rollback()
		t.db.logger.Error(
			"journal and metadata store diverged",
			"component", "database",
			"error", err,
		)
		return PartialCommitError{Err: err}
	}
	return nil
}

func (t *Txn) Rollback() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.rollback()
}

func (t *Txn) rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	var errs []error
	if t.blobTxn != nil {
		if err := t.blobTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("journal rollback: %w", err))
		}
	}
	if t.metadataTxn != nil {
		if err := t.metadataTxn.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("metadata rollback: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Release rolls back anything not yet committed and logs rather than
// returns failures, for use with defer
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
			"read_write", t.readWrite,
		)
	}
}
