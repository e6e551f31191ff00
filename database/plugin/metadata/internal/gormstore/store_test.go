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

package gormstore_test

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/plugin/metadata/internal/gormstore"
	"github.com/blinklabs-io/markstream/database/types"
)

func newTestStore(t *testing.T) *gormstore.Store {
	t.Helper()
	db, err := gorm.Open(
		sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())),
		&gorm.Config{
			Logger:                 gormlogger.Discard,
			SkipDefaultTransaction: true,
		},
	)
	require.NoError(t, err)
	store, err := gormstore.New(db, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestLabelRoundTrip(t *testing.T) {
	store := newTestStore(t)

	label, err := store.GetLabel("1", nil)
	require.NoError(t, err)
	assert.Nil(t, label)

	require.NoError(t, store.SetLabel(&models.Label{
		ID:          "1",
		Creator:     "0x0000000000000000000000000000000000000001",
		Description: "Test Label",
		Status:      models.LabelStatusActive,
		CreationMeta: models.CreationMeta{
			BlockNumber: 10,
			LogIndex:    1,
		},
	}, nil))
	label, err = store.GetLabel("1", nil)
	require.NoError(t, err)
	require.NotNil(t, label)
	assert.Equal(t, models.LabelStatusActive, label.Status)
	assert.Equal(t, types.Uint64(0), label.TotalContributions)

	label.Status = models.LabelStatusDeleted
	require.NoError(t, store.SetLabel(label, nil))
	label, err = store.GetLabel("1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, label.Status)
	assert.Equal(t, "Test Label", label.Description)
}

func TestFileLabelCountersLargeValues(t *testing.T) {
	store := newTestStore(t)
	fl := &models.FileLabel{
		ID:                 "123-1",
		FileID:             "123",
		LabelID:            "1",
		TotalUpVotes:       types.Uint64(1<<63 + 5),
		TotalDownVotes:     1,
		TotalContributions: types.Uint64(1<<63 + 6),
	}
	require.NoError(t, store.SetFileLabel(fl, nil))
	got, err := store.GetFileLabel("123-1", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, fl.TotalUpVotes, got.TotalUpVotes)
	assert.Equal(t, fl.TotalContributions, got.TotalContributions)

	require.NoError(t, store.SetFileLabel(&models.FileLabel{ID: "123-2", FileID: "123", LabelID: "2"}, nil))
	require.NoError(t, store.SetFileLabel(&models.FileLabel{ID: "456-1", FileID: "456", LabelID: "1"}, nil))
	list, err := store.ListFileLabelsByFile("123", 10, 0, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEventRecordAppendOnly(t *testing.T) {
	store := newTestStore(t)
	rec := &models.LabelUpVoted{
		EventMeta: models.EventMeta{
			ID:              "0xaa00000001",
			BlockNumber:     1,
			TransactionHash: "0xaa",
			LogIndex:        1,
		},
		Contributor: "0x01",
		Label:       "1",
		FileHash:    "123",
	}
	require.NoError(t, store.AddEventRecord(rec, nil))
	dup := *rec
	dup.FileHash = "999"
	require.ErrorIs(t, store.AddEventRecord(&dup, nil), types.ErrEventRecordExists)

	got, err := store.GetEventRecord(models.EventKindLabelUpVoted, rec.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "123", got.(*models.LabelUpVoted).FileHash)

	got, err = store.GetEventRecord(models.EventKindLabelDownVoted, rec.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetFile(&models.File{ID: "123", TotalLabels: 1}, txn))
	require.NoError(t, store.SetCheckpoint(&models.Checkpoint{BlockNumber: 5}, txn))
	require.NoError(t, txn.Rollback())

	file, err := store.GetFile("123", nil)
	require.NoError(t, err)
	assert.Nil(t, file)
	cp, err := store.GetCheckpoint(nil)
	require.NoError(t, err)
	assert.Nil(t, cp)

	// Finished transactions cannot be reused
	require.Error(t, store.SetFile(&models.File{ID: "1"}, txn))
}

func TestCheckpointAndCommitTimestamp(t *testing.T) {
	store := newTestStore(t)
	txn := store.Transaction()
	require.NoError(t, store.SetCheckpoint(&models.Checkpoint{BlockNumber: 5, LogIndex: 2, EventID: "0x01"}, txn))
	require.NoError(t, store.SetCommitTimestamp(12345, txn))
	require.NoError(t, txn.Commit())

	cp, err := store.GetCheckpoint(nil)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, uint64(5), cp.BlockNumber)
	assert.Equal(t, uint32(2), cp.LogIndex)

	require.NoError(t, store.SetCheckpoint(&models.Checkpoint{BlockNumber: 6}, nil))
	cp, err = store.GetCheckpoint(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), cp.BlockNumber)

	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(12345), ts)
}
