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

package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/markstream/database/models"
)

func TestNewEventRecord(t *testing.T) {
	testDefs := []struct {
		kind  string
		table string
	}{
		{models.EventKindLabelAdded, "label_added"},
		{models.EventKindLabelRemoved, "label_removed"},
		{models.EventKindLabelUpVoted, "label_up_voted"},
		{models.EventKindLabelDownVoted, "label_down_voted"},
		{models.EventKindOwnerChanged, "owner_changed"},
	}
	tables := make(map[string]struct{})
	for _, testDef := range testDefs {
		rec, err := models.NewEventRecord(testDef.kind)
		require.NoError(t, err)
		assert.Equal(t, testDef.kind, rec.RecordKind())
		assert.Equal(t, testDef.table, rec.TableName())
		tables[rec.TableName()] = struct{}{}
	}
	// Each kind gets its own table
	assert.Len(t, tables, len(testDefs))

	_, err := models.NewEventRecord("Transfer")
	require.Error(t, err)
}

func TestEventMetaPromoted(t *testing.T) {
	rec := &models.LabelUpVoted{
		EventMeta: models.EventMeta{ID: "0xabc", BlockNumber: 5},
		FileHash:  "123",
	}
	var er models.EventRecord = rec
	assert.Equal(t, "0xabc", er.RecordID())
	assert.Equal(t, uint64(5), er.RecordMeta().BlockNumber)
}
