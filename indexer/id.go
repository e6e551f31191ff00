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

package indexer

import (
	"encoding/binary"
	"encoding/hex"
	"math/big"

	"github.com/blinklabs-io/markstream/contract"
)

// EventRecordIDLength is the size of an event record id: the transaction
// hash followed by the big-endian log index
const EventRecordIDLength = contract.HashLength + 4

// LabelID returns the canonical id of a label: the decimal text of its
// uint256 value
func LabelID(label *big.Int) string {
	return canonicalID(label)
}

// FileID returns the canonical id of a file: the decimal text of its
// uint256 hash
func FileID(fileHash *big.Int) string {
	return canonicalID(fileHash)
}

func canonicalID(v *big.Int) string {
	return v.Text(10)
}

// FileLabelID returns the composite id of a file label from canonical file
// and label ids
func FileLabelID(fileID string, labelID string) string {
	return fileID + "-" + labelID
}

// EventRecordID returns the 36-byte id of the event record for a log
func EventRecordID(txHash contract.Hash, logIndex uint32) []byte {
	ret := make([]byte, EventRecordIDLength)
	copy(ret, txHash[:])
	binary.BigEndian.PutUint32(ret[contract.HashLength:], logIndex)
	return ret
}

// EventRecordIDHex returns the event record id for an event in the
// 0x-prefixed hex form used as a relational key
func EventRecordIDHex(meta contract.Meta) string {
	return "0x" + hex.EncodeToString(EventRecordID(meta.TxHash, meta.LogIndex))
}
