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
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
	"github.com/fxamacker/cbor/v2"
)

// journalIteratorBatchSize controls how many journal entries are read per
// blob transaction
const journalIteratorBatchSize = 1000

type journalBatchEntry struct {
	key []byte
	val []byte
}

// JournalIterator walks the event journal in key order. Entries are read in
// batches so that no blob transaction is held open between calls to Next.
type JournalIterator struct {
	db        *Database
	mu        sync.Mutex
	batch     []journalBatchEntry
	batchIdx  int
	resumeKey []byte
	exhausted bool
	closed    bool
	count     uint64
}

// JournalRecords returns an iterator over all journaled event records
func (d *Database) JournalRecords() *JournalIterator {
	return &JournalIterator{db: d}
}

// Next returns the next event record. It returns (nil, nil) when iteration is
// complete.
func (it *JournalIterator) Next() (models.EventRecord, error) {
	it.mu.Lock()
	defer it.mu.Unlock()

	if it.closed {
		return nil, nil
	}
	// Refill batch if needed
	if it.batchIdx >= len(it.batch) {
		if it.exhausted {
			return nil, nil
		}
		if err := it.fetchBatch(); err != nil {
			return nil, err
		}
		if len(it.batch) == 0 {
			it.exhausted = true
			return nil, nil
		}
	}
	entry := it.batch[it.batchIdx]
	it.batchIdx++
	var journalEntry JournalEntry
	if err := cbor.Unmarshal(entry.val, &journalEntry); err != nil {
		return nil, fmt.Errorf(
			"decode journal entry %s: %w",
			hex.EncodeToString(types.EventRecordIdFromBlobKey(entry.key)),
			err,
		)
	}
	rec, err := journalEntry.Decode()
	if err != nil {
		return nil, err
	}
	it.count++
	return rec, nil
}

// Count returns the number of records returned so far
func (it *JournalIterator) Count() uint64 {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.count
}

// Close releases any resources held by the iterator. It is safe to call
// Close multiple times.
func (it *JournalIterator) Close() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.closed = true
	it.batch = nil
	it.resumeKey = nil
}

// fetchBatch reads the next batch of journal entries from the blob store.
// Must be called with it.mu held.
func (it *JournalIterator) fetchBatch() error {
	if it.db.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	txn := newJournalTxn(it.db)
	defer txn.Release()

	entries, err := it.db.Blob().Scan(
		txn.Blob(),
		[]byte(types.EventRecordBlobKeyPrefix),
		it.resumeKey,
		journalIteratorBatchSize,
	)
	if err != nil {
		return fmt.Errorf("scanning journal: %w", err)
	}
	batch := make([]journalBatchEntry, 0, len(entries))
	for _, entry := range entries {
		batch = append(batch, journalBatchEntry{key: entry.Key, val: entry.Value})
	}

	it.batch = batch
	it.batchIdx = 0
	if len(batch) > 0 {
		it.resumeKey = batch[len(batch)-1].key
	}
	// If we got fewer than a full batch, we've exhausted the journal
	if len(batch) < journalIteratorBatchSize {
		it.exhausted = true
	}
	return nil
}
