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
	"errors"
	"fmt"
	"strings"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
	"github.com/fxamacker/cbor/v2"
)

// JournalEntry is the blob store encoding of an event record. The journal
// doubles as the dedup index for incoming events.
type JournalEntry struct {
	Kind   string          `cbor:"1,keyasint"`
	Record cbor.RawMessage `cbor:"2,keyasint"`
}

// Decode returns the event record held by the entry
func (e *JournalEntry) Decode() (models.EventRecord, error) {
	rec, err := models.NewEventRecord(e.Kind)
	if err != nil {
		return nil, err
	}
	if err := cbor.Unmarshal(e.Record, rec); err != nil {
		return nil, fmt.Errorf("decode %s journal record: %w", e.Kind, err)
	}
	return rec, nil
}

func encodeJournalEntry(rec models.EventRecord) ([]byte, error) {
	recCbor, err := cbor.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(
		&JournalEntry{
			Kind:   rec.RecordKind(),
			Record: recCbor,
		},
	)
}

// journalKey converts a 0x-prefixed hex event record id to its blob key
func journalKey(id string) ([]byte, error) {
	idBytes, err := hex.DecodeString(strings.TrimPrefix(id, "0x"))
	if err != nil || len(idBytes) == 0 {
		return nil, fmt.Errorf("invalid event record id %q", id)
	}
	return types.EventRecordBlobKey(idBytes), nil
}

func (d *Database) getJournalEntry(
	id string,
	txn *Txn,
) (*JournalEntry, error) {
	if txn.Blob() == nil {
		return nil, types.ErrBlobStoreUnavailable
	}
	key, err := journalKey(id)
	if err != nil {
		return nil, err
	}
	val, err := d.blob.Get(txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var entry JournalEntry
	if err := cbor.Unmarshal(val, &entry); err != nil {
		return nil, fmt.Errorf("decode journal entry %s: %w", id, err)
	}
	return &entry, nil
}

// HasEventRecord reports whether an event record with the given id has been
// journaled
func (d *Database) HasEventRecord(id string, txn *Txn) (bool, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return false, types.ErrBlobStoreUnavailable
	}
	key, err := journalKey(id)
	if err != nil {
		return false, err
	}
	if _, err := d.blob.Get(txn.Blob(), key); err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// AddEventRecord appends an event record to the journal and the metadata
// store. It fails with types.ErrEventRecordExists if the id is already
// journaled.
func (d *Database) AddEventRecord(rec models.EventRecord, txn *Txn) error {
	if txn == nil {
		return d.Transaction(true).Do(func(txn *Txn) error {
			return d.AddEventRecord(rec, txn)
		})
	}
	if txn.Blob() == nil {
		return types.ErrBlobStoreUnavailable
	}
	key, err := journalKey(rec.RecordID())
	if err != nil {
		return err
	}
	entryCbor, err := encodeJournalEntry(rec)
	if err != nil {
		return fmt.Errorf("encode journal entry: %w", err)
	}
	if err := d.blob.Append(txn.Blob(), key, entryCbor); err != nil {
		if errors.Is(err, types.ErrBlobKeyExists) {
			return types.ErrEventRecordExists
		}
		return err
	}
	return d.metadata.AddEventRecord(rec, txn.Metadata())
}

// GetEventRecord returns the event record with the given id
func (d *Database) GetEventRecord(
	id string,
	txn *Txn,
) (models.EventRecord, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	entry, err := d.getJournalEntry(id, txn)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, models.ErrEventRecordNotFound
	}
	ret, err := d.metadata.GetEventRecord(entry.Kind, id, txn.Metadata())
	if err != nil {
		return nil, err
	}
	if ret == nil {
		// Fall back to the journal copy
		return entry.Decode()
	}
	return ret, nil
}
