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
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
	"github.com/blinklabs-io/markstream/event"
	"github.com/blinklabs-io/markstream/indexer"
)

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "123", indexer.FileID(big.NewInt(123)))
	assert.Equal(t, "1", indexer.LabelID(big.NewInt(1)))
	assert.Equal(t, "123-1", indexer.FileLabelID("123", "1"))
	assert.Equal(
		t,
		contract.MaxUint256.Text(10),
		indexer.LabelID(contract.MaxUint256),
	)

	meta := metaAt(5, 258)
	id := indexer.EventRecordID(meta.TxHash, meta.LogIndex)
	require.Len(t, id, indexer.EventRecordIDLength)
	assert.Equal(t, meta.TxHash[:], id[:contract.HashLength])
	assert.Equal(t, []byte{0, 0, 1, 2}, id[contract.HashLength:])
	idHex := indexer.EventRecordIDHex(meta)
	assert.Len(t, idHex, 2+2*indexer.EventRecordIDLength)
	assert.Equal(t, "0x", idHex[:2])
	assert.NotEqual(t, idHex, indexer.EventRecordIDHex(metaAt(5, 259)))
}

func TestLabelAddedCreatesActiveLabel(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	evt := labelAdded(metaAt(1, 0), 1, "Test Label")
	res, err := idx.Apply(context.Background(), evt)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)
	assert.Equal(t, contract.KindLabelAdded, res.Kind)

	require.Len(t, store.records, 1)
	rec, ok := store.records[res.EventID].(*models.LabelAdded)
	require.True(t, ok)
	assert.Equal(t, "Test Label", rec.Description)
	assert.Equal(t, testAddress(1).Hex(), rec.Contributor)
	assert.Equal(t, "1", rec.Label)
	assert.Equal(t, evt.TxHash.Hex(), rec.TransactionHash)

	require.Len(t, store.labels, 1)
	label := store.labels["1"]
	assert.Equal(t, models.LabelStatusActive, label.Status)
	assert.Equal(t, testAddress(1).Hex(), label.Creator)
	assert.Equal(t, "Test Label", label.Description)
	assert.Equal(t, types.Uint64(0), label.TotalContributions)
	assert.Equal(t, uint64(1), label.BlockNumber)

	require.NotNil(t, store.checkpoint)
	assert.Equal(t, res.EventID, store.checkpoint.EventID)
}

func TestLabelAddedProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for n := range 50 {
		store := newMemStore()
		idx := newTestIndexer(t, store)
		var labelBytes [32]byte
		for i := range labelBytes {
			labelBytes[i] = byte(rng.IntN(256))
		}
		label := new(big.Int).SetBytes(labelBytes[:])
		var contributor contract.Address
		for i := range contributor {
			contributor[i] = byte(rng.IntN(256))
		}
		evt := contract.LabelAdded{
			Meta:        metaAt(uint64(n+1), uint32(rng.IntN(100))),
			Contributor: contributor,
			Label:       label,
			Description: "desc",
		}
		_, err := idx.Apply(context.Background(), evt)
		require.NoError(t, err)
		require.Len(t, store.records, 1)
		require.Len(t, store.labels, 1)
		got := store.labels[indexer.LabelID(label)]
		assert.Equal(t, models.LabelStatusActive, got.Status)
		assert.Equal(t, types.Uint64(0), got.TotalContributions)
		assert.Equal(t, contributor.Hex(), got.Creator)
	}
}

func TestLabelRemovedNoResurrection(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	_, err := idx.Apply(ctx, labelAdded(metaAt(1, 0), 1, "Test Label"))
	require.NoError(t, err)
	_, err = idx.Apply(ctx, labelRemoved(metaAt(2, 0), 1))
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, store.labels["1"].Status)

	// Re-adding leaves the label deleted and keeps the original description
	_, err = idx.Apply(ctx, labelAdded(metaAt(3, 0), 1, "Other"))
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, store.labels["1"].Status)
	assert.Equal(t, "Test Label", store.labels["1"].Description)

	// Removing again is a no-op beyond the record
	_, err = idx.Apply(ctx, labelRemoved(metaAt(4, 0), 1))
	require.NoError(t, err)
	assert.Equal(t, models.LabelStatusDeleted, store.labels["1"].Status)
	assert.Len(t, store.records, 4)
}

func TestLabelAddedExistingActive(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	_, err := idx.Apply(ctx, labelAdded(metaAt(1, 0), 7, "first"))
	require.NoError(t, err)
	res, err := idx.Apply(ctx, labelAdded(metaAt(1, 1), 7, "second"))
	require.NoError(t, err)
	assert.Equal(t, "first", store.labels["7"].Description)
	assert.Equal(t, uint64(1), store.labels["7"].BlockNumber)
	assert.Len(t, store.records, 2)
	// Only the applied notification for an unchanged label
	require.Len(t, res.Notifications, 1)
	assert.Equal(t, event.EventAppliedEventType, res.Notifications[0].Type)
}

func TestLabelRemovedAbsent(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	_, err := idx.Apply(context.Background(), labelRemoved(metaAt(1, 0), 9))
	require.NoError(t, err)
	assert.Empty(t, store.labels)
	assert.Len(t, store.records, 1)
}

func TestVoteCounters(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()

	_, err := idx.Apply(ctx, upVote(metaAt(1, 0), 1, 123))
	require.NoError(t, err)
	file := store.files["123"]
	assert.Equal(t, types.Uint64(1), file.TotalContributions)
	assert.Equal(t, types.Uint64(1), file.TotalLabels)
	fl := store.fileLabels["123-1"]
	assert.Equal(t, types.Uint64(1), fl.TotalUpVotes)
	assert.Equal(t, types.Uint64(0), fl.TotalDownVotes)
	assert.Equal(t, types.Uint64(1), fl.TotalContributions)
	assert.Equal(t, "123", fl.FileID)
	assert.Equal(t, "1", fl.LabelID)

	_, err = idx.Apply(ctx, upVote(metaAt(2, 0), 1, 123))
	require.NoError(t, err)
	file = store.files["123"]
	assert.Equal(t, types.Uint64(2), store.fileLabels["123-1"].TotalUpVotes)
	assert.Equal(t, types.Uint64(1), file.TotalLabels)
	assert.Equal(t, types.Uint64(2), file.TotalContributions)

	_, err = idx.Apply(ctx, downVote(metaAt(3, 0), 2, 123))
	require.NoError(t, err)
	file = store.files["123"]
	assert.Equal(t, types.Uint64(2), file.TotalLabels)
	assert.Equal(t, types.Uint64(3), file.TotalContributions)
	fl = store.fileLabels["123-2"]
	assert.Equal(t, types.Uint64(1), fl.TotalDownVotes)
	assert.Equal(t, types.Uint64(1), fl.TotalContributions)

	// File keeps its creation metadata
	assert.Equal(t, uint64(1), file.BlockNumber)
	// Votes never touch labels
	assert.Empty(t, store.labels)
	assert.Len(t, store.records, 3)
}

func TestVoteInvariantProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for round := range 20 {
		store := newMemStore()
		idx := newTestIndexer(t, store)
		numFiles := 1 + rng.IntN(3)
		numLabels := 1 + rng.IntN(6)
		numVotes := 1 + rng.IntN(200)
		pairs := make(map[string]map[string]struct{})
		for n := range numVotes {
			file := int64(100 + rng.IntN(numFiles))
			label := int64(1 + rng.IntN(numLabels))
			meta := metaAt(uint64(n/4+1), uint32(n%4))
			var evt contract.Event
			if rng.IntN(2) == 0 {
				evt = upVote(meta, label, file)
			} else {
				evt = downVote(meta, label, file)
			}
			_, err := idx.Apply(context.Background(), evt)
			require.NoError(t, err, "round %d vote %d", round, n)
			fileID := indexer.FileID(big.NewInt(file))
			if pairs[fileID] == nil {
				pairs[fileID] = make(map[string]struct{})
			}
			pairs[fileID][indexer.LabelID(big.NewInt(label))] = struct{}{}
		}
		var total uint64
		for fileID, file := range store.files {
			var sum uint64
			var count uint64
			for _, fl := range store.fileLabels {
				if fl.FileID != fileID {
					continue
				}
				count++
				sum += uint64(fl.TotalContributions)
				assert.Equal(
					t,
					uint64(fl.TotalUpVotes)+uint64(fl.TotalDownVotes),
					uint64(fl.TotalContributions),
				)
			}
			assert.Equal(t, uint64(file.TotalContributions), sum)
			assert.Equal(t, uint64(file.TotalLabels), count)
			assert.Equal(t, uint64(len(pairs[fileID])), count)
			total += sum
		}
		assert.Equal(t, uint64(numVotes), total)
		assert.Len(t, store.records, numVotes)
	}
}

func TestDuplicateDeliveryIsNoop(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	events := []contract.Event{
		labelAdded(metaAt(1, 0), 1, "Test Label"),
		upVote(metaAt(1, 1), 1, 123),
		downVote(metaAt(2, 0), 2, 123),
		labelRemoved(metaAt(3, 0), 1),
		contract.OwnerChanged{Meta: metaAt(4, 0), NewOwner: testAddress(9)},
	}
	for _, evt := range events {
		_, err := idx.Apply(ctx, evt)
		require.NoError(t, err)
	}
	snapshot := store.clone()
	for _, evt := range events {
		res, err := idx.Apply(ctx, evt)
		require.NoError(t, err)
		assert.True(t, res.Duplicate)
		assert.Empty(t, res.Notifications)
	}
	assert.Equal(t, snapshot.files, store.files)
	assert.Equal(t, snapshot.fileLabels, store.fileLabels)
	assert.Equal(t, snapshot.labels, store.labels)
	assert.Equal(t, snapshot.records, store.records)
	assert.Equal(t, snapshot.checkpoint, store.checkpoint)
}

func TestOwnerChangedOnlyRecords(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	evt := contract.OwnerChanged{Meta: metaAt(1, 0), NewOwner: testAddress(9)}
	res, err := idx.Apply(context.Background(), &evt)
	require.NoError(t, err)
	rec, ok := store.records[res.EventID].(*models.OwnerChanged)
	require.True(t, ok)
	assert.Equal(t, testAddress(9).Hex(), rec.NewOwner)
	assert.Empty(t, store.labels)
	assert.Empty(t, store.files)
	assert.Empty(t, store.fileLabels)
}

func TestMalformedEventCommitsNothing(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	bad := []contract.Event{
		nil,
		contract.LabelAdded{Meta: metaAt(1, 0), Contributor: testAddress(1)},
		upVote(metaAt(1, 0), -1, 5),
		contract.LabelUpVoted{
			Meta:     metaAt(1, 0),
			Label:    big.NewInt(1),
			FileHash: new(big.Int).Add(contract.MaxUint256, big.NewInt(1)),
		},
		contract.OwnerChanged{},
	}
	for _, evt := range bad {
		_, err := idx.Apply(ctx, evt)
		require.ErrorIs(t, err, contract.ErrMalformedEvent)
	}
	assert.Zero(t, store.commits)
	assert.Empty(t, store.records)
}

func TestTypedNilEventRejected(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	events := []contract.Event{
		(*contract.LabelAdded)(nil),
		(*contract.LabelRemoved)(nil),
		(*contract.LabelUpVoted)(nil),
		(*contract.LabelDownVoted)(nil),
		(*contract.OwnerChanged)(nil),
	}
	for _, evt := range events {
		require.NotPanics(t, func() {
			_, err := idx.Apply(ctx, evt)
			require.ErrorIs(t, err, contract.ErrMalformedEvent)
		})
	}
	assert.Zero(t, store.commits)
}

func TestStoreFailureIsAtomic(t *testing.T) {
	for _, op := range []string{
		"HasEventRecord",
		"GetCheckpoint",
		"AddEventRecord",
		"GetFile",
		"GetFileLabel",
		"SetFile",
		"SetFileLabel",
		"SetCheckpoint",
	} {
		t.Run(op, func(t *testing.T) {
			store := newMemStore()
			idx := newTestIndexer(t, store)
			ctx := context.Background()
			_, err := idx.Apply(ctx, upVote(metaAt(1, 0), 1, 123))
			require.NoError(t, err)
			before := store.clone()

			store.failOn = op
			store.failures = 1
			evt := upVote(metaAt(2, 0), 1, 123)
			_, err = idx.Apply(ctx, evt)
			require.ErrorIs(t, err, errStoreUnavailable)
			assert.Equal(t, before.records, store.records)
			assert.Equal(t, before.files, store.files)
			assert.Equal(t, before.fileLabels, store.fileLabels)
			assert.Equal(t, before.checkpoint, store.checkpoint)

			// A full retry succeeds once the store recovers
			_, err = idx.Apply(ctx, evt)
			require.NoError(t, err)
			assert.Equal(t, types.Uint64(2), store.files["123"].TotalContributions)
		})
	}
}

func TestOutOfOrderRejected(t *testing.T) {
	store := newMemStore()
	idx := newTestIndexer(t, store)
	ctx := context.Background()
	_, err := idx.Apply(ctx, upVote(metaAt(5, 3), 1, 123))
	require.NoError(t, err)
	for _, meta := range []contract.Meta{metaAt(5, 2), metaAt(4, 9)} {
		_, err = idx.Apply(ctx, upVote(meta, 1, 123))
		require.ErrorIs(t, err, indexer.ErrOutOfOrder)
		assert.True(t, indexer.IsFatal(err))
	}
	// Same position with another transaction hash
	meta := metaAt(5, 3)
	meta.TxHash[1] = 0xff
	_, err = idx.Apply(ctx, upVote(meta, 1, 123))
	require.ErrorIs(t, err, indexer.ErrOutOfOrder)
	assert.Equal(t, types.Uint64(1), store.files["123"].TotalContributions)

	_, err = idx.Apply(ctx, upVote(metaAt(5, 4), 1, 123))
	require.NoError(t, err)
}

func TestCounterOverflow(t *testing.T) {
	store := newMemStore()
	store.files["123"] = models.File{
		ID:                 "123",
		TotalLabels:        1,
		TotalContributions: math.MaxUint64,
	}
	store.fileLabels["123-1"] = models.FileLabel{
		ID:                 "123-1",
		FileID:             "123",
		LabelID:            "1",
		TotalUpVotes:       10,
		TotalContributions: 10,
	}
	idx := newTestIndexer(t, store)
	_, err := idx.Apply(context.Background(), upVote(metaAt(1, 0), 1, 123))
	require.ErrorIs(t, err, indexer.ErrCounterOverflow)
	assert.True(t, indexer.IsFatal(err))
	assert.Empty(t, store.records)
	assert.Equal(t, types.Uint64(10), store.fileLabels["123-1"].TotalUpVotes)
}

func TestInvariantViolationDetected(t *testing.T) {
	store := newMemStore()
	store.files["123"] = models.File{ID: "123", TotalLabels: 1, TotalContributions: 5}
	store.fileLabels["123-1"] = models.FileLabel{
		ID:                 "123-1",
		FileID:             "123",
		LabelID:            "1",
		TotalUpVotes:       2,
		TotalContributions: 5,
	}
	idx := newTestIndexer(t, store)
	_, err := idx.Apply(context.Background(), downVote(metaAt(1, 0), 1, 123))
	require.ErrorIs(t, err, indexer.ErrInvariantViolation)
	assert.Empty(t, store.records)
}

func TestNotificationsPublishedAfterCommit(t *testing.T) {
	store := newMemStore()
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	idx, err := indexer.New(indexer.Config{Transactor: store, EventBus: eb})
	require.NoError(t, err)
	_, fileCh := eb.Subscribe(event.FileLabelUpdatedEventType)
	_, appliedCh := eb.Subscribe(event.EventAppliedEventType)
	_, labelCh := eb.Subscribe(event.LabelCreatedEventType)

	ctx := context.Background()
	_, err = idx.Apply(ctx, labelAdded(metaAt(1, 0), 1, "x"))
	require.NoError(t, err)
	res, err := idx.Apply(ctx, upVote(metaAt(2, 0), 1, 123))
	require.NoError(t, err)

	evt := <-labelCh
	assert.Equal(t, "1", evt.Data.(event.LabelEvent).LabelID)
	evt = <-fileCh
	flEvt := evt.Data.(event.FileLabelUpdatedEvent)
	assert.Equal(t, "123-1", flEvt.FileLabelID)
	assert.True(t, flEvt.Created)
	assert.Equal(t, uint64(1), flEvt.TotalUpVotes)
	<-appliedCh
	evt = <-appliedCh
	assert.Equal(t, res.EventID, evt.Data.(event.EventAppliedEvent).EventID)

	// Failed applies publish nothing
	store.failOn = "SetCheckpoint"
	_, err = idx.Apply(ctx, upVote(metaAt(3, 0), 1, 123))
	require.Error(t, err)
	select {
	case evt := <-fileCh:
		t.Fatalf("unexpected notification after failed apply: %v", evt)
	default:
	}
}
