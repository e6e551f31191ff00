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

package blob

import (
	"github.com/blinklabs-io/markstream/database/plugin"
	"github.com/blinklabs-io/markstream/database/types"
)

// BlobStore is the transactional key-value store holding the event journal
// and the commit timestamp. Journal entries are append-only: Append never
// replaces a key and nothing is deleted.
type BlobStore interface {
	plugin.Plugin
	Close() error
	NewTransaction(readWrite bool) types.Txn
	Get(txn types.Txn, key []byte) ([]byte, error)
	Append(txn types.Txn, key, val []byte) error
	// Scan returns up to limit entries under prefix in key order, starting
	// strictly after the given key when it is non-nil
	Scan(txn types.Txn, prefix, after []byte, limit int) ([]types.BlobEntry, error)
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(timestamp int64, txn types.Txn) error
}

// New returns the started blob plugin selected by name
func New(pluginName string, rt plugin.Runtime) (BlobStore, error) {
	return plugin.StartAs[BlobStore](plugin.PluginTypeBlob, pluginName, rt)
}
