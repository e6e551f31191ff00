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
	"fmt"
	"time"
)

// CommitTimestampError is returned at startup when the journal and the
// metadata store were last committed at different times. One of them lost
// writes the other kept, and the read-model must be rebuilt from the
// event source.
type CommitTimestampError struct {
	MetadataTimestamp int64
	BlobTimestamp     int64
}

func (e CommitTimestampError) Error() string {
	return fmt.Sprintf(
		"commit timestamp mismatch: metadata %d, journal %d",
		e.MetadataTimestamp,
		e.BlobTimestamp,
	)
}

func (d *Database) checkCommitTimestamp() error {
	metadataTimestamp, err := d.metadata.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read metadata commit timestamp: %w", err)
	}
	blobTimestamp, err := d.blob.GetCommitTimestamp()
	if err != nil {
		return fmt.Errorf("read journal commit timestamp: %w", err)
	}
	d.lastCommitMu.Lock()
	d.lastCommit = max(d.lastCommit, metadataTimestamp, blobTimestamp)
	d.lastCommitMu.Unlock()
	if blobTimestamp != metadataTimestamp {
		return CommitTimestampError{
			MetadataTimestamp: metadataTimestamp,
			BlobTimestamp:     blobTimestamp,
		}
	}
	return nil
}

// nextCommitTimestamp returns the wall clock in milliseconds, bumped past the
// previous stamp when needed. Stamps never repeat, so a journal commit whose
// metadata commit failed always leaves the two stores disagreeing.
func (d *Database) nextCommitTimestamp() int64 {
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	d.lastCommitMu.Lock()
	defer d.lastCommitMu.Unlock()
	d.lastCommit = max(now().UnixMilli(), d.lastCommit+1)
	return d.lastCommit
}

func (d *Database) updateCommitTimestamp(txn *Txn, timestamp int64) error {
	if err := d.metadata.SetCommitTimestamp(timestamp, txn.Metadata()); err != nil {
		return err
	}
	return d.blob.SetCommitTimestamp(timestamp, txn.Blob())
}
