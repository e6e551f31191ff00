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

package badger

import (
	"bytes"
	"errors"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/blinklabs-io/markstream/database/types"
)

var errTxnFinished = errors.New("transaction already finished")

// txn wraps a badger transaction. Commit and Rollback are idempotent so the
// database layer can release a transaction after committing it.
type txn struct {
	store    *Store
	tx       *badger.Txn
	finished bool
}

// NewTransaction starts a journal transaction
func (s *Store) NewTransaction(readWrite bool) types.Txn {
	return &txn{store: s, tx: s.db.NewTransaction(readWrite)}
}

func (t *txn) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	return t.tx.Commit()
}

func (t *txn) Rollback() error {
	if !t.finished {
		t.finished = true
		t.tx.Discard()
	}
	return nil
}

func (s *Store) activeTxn(t types.Txn) (*txn, error) {
	if t == nil {
		return nil, types.ErrNilTxn
	}
	bt, ok := t.(*txn)
	if !ok {
		return nil, types.ErrTxnWrongType
	}
	if bt.store != s {
		return nil, errors.New("transaction belongs to another store")
	}
	if bt.finished {
		return nil, errTxnFinished
	}
	return bt, nil
}

// Get returns a copy of the value stored under key
func (s *Store) Get(t types.Txn, key []byte) ([]byte, error) {
	bt, err := s.activeTxn(t)
	if err != nil {
		return nil, err
	}
	s.recordRead()
	item, err := bt.tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, types.ErrBlobKeyNotFound
		}
		return nil, err
	}
	return item.ValueCopy(nil)
}

// Append stores val under a new key. It fails with types.ErrBlobKeyExists
// if the key is already present, including writes earlier in the same
// transaction.
func (s *Store) Append(t types.Txn, key, val []byte) error {
	bt, err := s.activeTxn(t)
	if err != nil {
		return err
	}
	if _, err := bt.tx.Get(key); err == nil {
		return types.ErrBlobKeyExists
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}
	if err := bt.tx.Set(key, val); err != nil {
		return err
	}
	s.recordAppend(len(val))
	return nil
}

// put overwrites a key. Only store bookkeeping such as the commit timestamp
// is written this way.
func (s *Store) put(t types.Txn, key, val []byte) error {
	bt, err := s.activeTxn(t)
	if err != nil {
		return err
	}
	return bt.tx.Set(key, val)
}

// Scan returns up to limit entries whose keys start with prefix, in key
// order. A non-nil after resumes strictly past that key.
func (s *Store) Scan(
	t types.Txn,
	prefix []byte,
	after []byte,
	limit int,
) ([]types.BlobEntry, error) {
	bt, err := s.activeTxn(t)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchSize = min(limit, opts.PrefetchSize)
	iter := bt.tx.NewIterator(opts)
	defer iter.Close()

	start := prefix
	if bytes.Compare(after, prefix) > 0 {
		start = after
	}
	ret := make([]types.BlobEntry, 0, limit)
	for iter.Seek(start); iter.ValidForPrefix(prefix) && len(ret) < limit; iter.Next() {
		item := iter.Item()
		if after != nil && bytes.Equal(item.Key(), after) {
			continue
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		ret = append(ret, types.BlobEntry{Key: item.KeyCopy(nil), Value: val})
	}
	s.recordRead()
	return ret, nil
}
