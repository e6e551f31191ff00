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

package indexer_test

import (
	"context"
	"encoding/binary"
	"errors"
	"maps"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/indexer"
)

var errStoreUnavailable = errors.New("store unavailable")

// memStore is an in-memory Store and Transactor. Update works on a copy
// that replaces the committed state only when fn succeeds.
type memStore struct {
	records    map[string]models.EventRecord
	labels     map[string]models.Label
	files      map[string]models.File
	fileLabels map[string]models.FileLabel
	checkpoint *models.Checkpoint
	// failOn makes the named operation fail with errStoreUnavailable
	failOn string
	// failures counts down injected failures when non-zero
	failures int
	commits  int
}

func newMemStore() *memStore {
	return &memStore{
		records:    make(map[string]models.EventRecord),
		labels:     make(map[string]models.Label),
		files:      make(map[string]models.File),
		fileLabels: make(map[string]models.FileLabel),
	}
}

func (m *memStore) clone() *memStore {
	ret := &memStore{
		records:    maps.Clone(m.records),
		labels:     maps.Clone(m.labels),
		files:      maps.Clone(m.files),
		fileLabels: maps.Clone(m.fileLabels),
		failOn:     m.failOn,
		failures:   m.failures,
	}
	if m.checkpoint != nil {
		tmp := *m.checkpoint
		ret.checkpoint = &tmp
	}
	return ret
}

func (m *memStore) Update(
	ctx context.Context,
	fn func(indexer.Store) error,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.clone()
	err := fn(work)
	// Injected failures are consumed even when the transaction rolls back
	m.failures = work.failures
	m.failOn = work.failOn
	if err != nil {
		return err
	}
	m.records = work.records
	m.labels = work.labels
	m.files = work.files
	m.fileLabels = work.fileLabels
	m.checkpoint = work.checkpoint
	m.commits++
	return nil
}

func (m *memStore) fail(op string) error {
	if m.failOn != op {
		return nil
	}
	if m.failures > 0 {
		m.failures--
		if m.failures == 0 {
			m.failOn = ""
		}
	}
	return errStoreUnavailable
}

func (m *memStore) HasEventRecord(id string) (bool, error) {
	if err := m.fail("HasEventRecord"); err != nil {
		return false, err
	}
	_, ok := m.records[id]
	return ok, nil
}

func (m *memStore) AddEventRecord(rec models.EventRecord) error {
	if err := m.fail("AddEventRecord"); err != nil {
		return err
	}
	if _, ok := m.records[rec.RecordID()]; ok {
		return errors.New("event record exists")
	}
	m.records[rec.RecordID()] = rec
	return nil
}

func (m *memStore) GetLabel(id string) (*models.Label, error) {
	if err := m.fail("GetLabel"); err != nil {
		return nil, err
	}
	if v, ok := m.labels[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memStore) SetLabel(label *models.Label) error {
	if err := m.fail("SetLabel"); err != nil {
		return err
	}
	m.labels[label.ID] = *label
	return nil
}

func (m *memStore) GetFile(id string) (*models.File, error) {
	if err := m.fail("GetFile"); err != nil {
		return nil, err
	}
	if v, ok := m.files[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memStore) SetFile(file *models.File) error {
	if err := m.fail("SetFile"); err != nil {
		return err
	}
	m.files[file.ID] = *file
	return nil
}

func (m *memStore) GetFileLabel(id string) (*models.FileLabel, error) {
	if err := m.fail("GetFileLabel"); err != nil {
		return nil, err
	}
	if v, ok := m.fileLabels[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memStore) SetFileLabel(fileLabel *models.FileLabel) error {
	if err := m.fail("SetFileLabel"); err != nil {
		return err
	}
	m.fileLabels[fileLabel.ID] = *fileLabel
	return nil
}

func (m *memStore) GetCheckpoint() (*models.Checkpoint, error) {
	if err := m.fail("GetCheckpoint"); err != nil {
		return nil, err
	}
	if m.checkpoint == nil {
		return nil, nil
	}
	tmp := *m.checkpoint
	return &tmp, nil
}

func (m *memStore) SetCheckpoint(cp *models.Checkpoint) error {
	if err := m.fail("SetCheckpoint"); err != nil {
		return err
	}
	tmp := *cp
	m.checkpoint = &tmp
	return nil
}

func newTestIndexer(t *testing.T, tx indexer.Transactor) *indexer.Indexer {
	t.Helper()
	idx, err := indexer.New(indexer.Config{Transactor: tx})
	require.NoError(t, err)
	return idx
}

// metaAt returns event metadata with a transaction hash unique to the
// position
func metaAt(block uint64, logIndex uint32) contract.Meta {
	var txHash contract.Hash
	binary.BigEndian.PutUint64(txHash[16:24], block)
	binary.BigEndian.PutUint32(txHash[28:], logIndex)
	txHash[0] = 0xab
	return contract.Meta{
		BlockNumber:    block,
		BlockTimestamp: 1700000000 + block*12,
		TxHash:         txHash,
		LogIndex:       logIndex,
	}
}

func testAddress(b byte) contract.Address {
	var ret contract.Address
	ret[contract.AddressLength-1] = b
	return ret
}

func labelAdded(meta contract.Meta, label int64, desc string) contract.LabelAdded {
	return contract.LabelAdded{
		Meta:        meta,
		Contributor: testAddress(1),
		Label:       big.NewInt(label),
		Description: desc,
	}
}

func labelRemoved(meta contract.Meta, label int64) contract.LabelRemoved {
	return contract.LabelRemoved{
		Meta:        meta,
		Contributor: testAddress(1),
		Label:       big.NewInt(label),
	}
}

func upVote(meta contract.Meta, label int64, file int64) contract.LabelUpVoted {
	return contract.LabelUpVoted{
		Meta:        meta,
		Contributor: testAddress(1),
		Label:       big.NewInt(label),
		FileHash:    big.NewInt(file),
	}
}

func downVote(meta contract.Meta, label int64, file int64) contract.LabelDownVoted {
	return contract.LabelDownVoted{
		Meta:        meta,
		Contributor: testAddress(2),
		Label:       big.NewInt(label),
		FileHash:    big.NewInt(file),
	}
}
