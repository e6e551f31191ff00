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

package types

import "slices"

const (
	EventRecordBlobKeyPrefix = "evt_"
	CommitTimestampBlobKey   = "metadata_commit_timestamp"
)

// EventRecordBlobKey returns the blob store key of the journal entry for the
// given event record id
func EventRecordBlobKey(id []byte) []byte {
	return slices.Concat([]byte(EventRecordBlobKeyPrefix), id)
}

// EventRecordIdFromBlobKey strips the journal prefix from a blob key. It
// returns nil if the key is not a journal key.
func EventRecordIdFromBlobKey(key []byte) []byte {
	prefix := []byte(EventRecordBlobKeyPrefix)
	if len(key) <= len(prefix) || string(key[:len(prefix)]) != EventRecordBlobKeyPrefix {
		return nil
	}
	return slices.Clone(key[len(prefix):])
}
