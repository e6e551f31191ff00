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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
	"github.com/blinklabs-io/markstream/indexer"
)

func TestDatabaseTransactor(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	idx := newTestIndexer(t, indexer.NewDatabaseTransactor(db))
	ctx := context.Background()

	events := []contract.Event{
		labelAdded(metaAt(1, 0), 1, "Test Label"),
		upVote(metaAt(2, 0), 1, 123),
		upVote(metaAt(2, 1), 1, 123),
		downVote(metaAt(3, 0), 2, 123),
		labelRemoved(metaAt(4, 0), 1),
		labelAdded(metaAt(5, 0), 1, "again"),
		contract.OwnerChanged{Meta: metaAt(6, 0), NewOwner: testAddress(9)},
	}
	var ids []string
	for _, evt := range events {
		res, err := idx.Apply(ctx, evt)
		require.NoError(t, err)
		ids = append(ids, res.EventID)
	}
	// Replaying everything is a no-op
	for _, evt := range events {
		res, err := idx.Apply(ctx, evt)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
	}

	label, err := db.GetLabel("1", nil)
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, label.Status)
	assert.Equal(t, "Test Label", label.Description)
	assert.Equal(t, testAddress(1).Hex(), label.Creator)

	file, err := db.GetFile("123", nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(2), file.TotalLabels)
	assert.Equal(t, types.Uint64(3), file.TotalContributions)

	fl, err := db.GetFileLabel("123-1", nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(2), fl.TotalUpVotes)
	assert.Equal(t, types.Uint64(2), fl.TotalContributions)
	fl, err = db.GetFileLabel("123-2", nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(1), fl.TotalDownVotes)

	fileLabels, err := db.ListFileLabelsByFile("123", 10, 0, nil)
	require.NoError(t, err)
	require.Len(t, fileLabels, 2)
	var sum uint64
	for _, fl := range fileLabels {
		sum += uint64(fl.TotalContributions)
	}
	assert.Equal(t, uint64(file.TotalContributions), sum)

	for _, id := range ids {
		rec, err := db.GetEventRecord(id, nil)
		require.NoError(t, err)
		assert.Equal(t, id, rec.RecordID())
	}
	rec, err := db.GetEventRecord(ids[6], nil)
	require.NoError(t, err)
	assert.Equal(t, testAddress(9).Hex(), rec.(*models.OwnerChanged).NewOwner)

	cp, err := db.GetCheckpoint(nil)
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, uint64(6), cp.BlockNumber)
	assert.Equal(t, ids[6], cp.EventID)

	iter := db.JournalRecords()
	defer iter.Close()
	var journaled int
	for {
		rec, err := iter.Next()
		require.NoError(t, err)
		if rec == nil {
			break
		}
		journaled++
	}
	assert.Equal(t, len(events), journaled)
}

func TestDatabaseTransactorRollsBackOnFatalError(t *testing.T) {
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.SetFile(&models.File{ID: "123", TotalLabels: 1, TotalContributions: 1 << 63}, nil))
	require.NoError(t, db.SetFileLabel(&models.FileLabel{
		ID:                 "123-1",
		FileID:             "123",
		LabelID:            "1",
		TotalUpVotes:       1,
		TotalContributions: 1,
	}, nil))
	idx := newTestIndexer(t, indexer.NewDatabaseTransactor(db))
	evt := downVote(metaAt(1, 0), 1, 123)
	_, err = idx.Apply(context.Background(), evt)
	require.NoError(t, err)

	// Push the file counter to the limit and apply again
	file, err := db.GetFile("123", nil)
	require.NoError(t, err)
	file.TotalContributions = ^types.Uint64(0)
	require.NoError(t, db.SetFile(file, nil))
	next := downVote(metaAt(2, 0), 1, 123)
	_, err = idx.Apply(context.Background(), next)
	require.ErrorIs(t, err, indexer.ErrCounterOverflow)

	exists, err := db.HasEventRecord(indexer.EventRecordIDHex(next.Meta), nil)
	require.NoError(t, err)
	assert.False(t, exists)
	fl, err := db.GetFileLabel("123-1", nil)
	require.NoError(t, err)
	assert.Equal(t, types.Uint64(1), fl.TotalDownVotes)
	cp, err := db.GetCheckpoint(nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cp.BlockNumber)
}
