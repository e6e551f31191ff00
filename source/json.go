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

package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/blinklabs-io/markstream/contract"
)

// Message is the JSON wire form of a contract log
type Message struct {
	Event           string          `json:"event"`
	BlockNumber     uint64          `json:"blockNumber"`
	BlockTimestamp  uint64          `json:"blockTimestamp"`
	TransactionHash string          `json:"transactionHash"`
	LogIndex        uint32          `json:"logIndex"`
	Params          json.RawMessage `json:"params"`
}

type messageParams struct {
	Contributor string   `json:"contributor,omitempty"`
	Label       *Uint256 `json:"label,omitempty"`
	FileHash    *Uint256 `json:"fileHash,omitempty"`
	Description *string  `json:"description,omitempty"`
	NewOwner    string   `json:"newOwner,omitempty"`
}

// Uint256 is a JSON uint256 parameter. It decodes from a JSON number, a
// decimal string or a 0x-prefixed hex string and encodes as a decimal string.
type Uint256 struct {
	big.Int
}

func NewUint256(v *big.Int) *Uint256 {
	if v == nil {
		return nil
	}
	ret := &Uint256{}
	ret.Set(v)
	return ret
}

func (u *Uint256) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	var ok bool
	if rest, isHex := strings.CutPrefix(strings.ToLower(s), "0x"); isHex {
		_, ok = u.SetString(rest, 16)
	} else {
		_, ok = u.SetString(s, 10)
	}
	if !ok || s == "" {
		return fmt.Errorf("invalid uint256 value %s", string(data))
	}
	return nil
}

func (u Uint256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Text(10))
}

func (u *Uint256) bigInt() *big.Int {
	if u == nil {
		return nil
	}
	return &u.Int
}

// Decode parses and validates a single JSON message. All errors wrap
// contract.ErrMalformedEvent.
func Decode(data []byte) (contract.Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrMalformedEvent, err)
	}
	return msg.ToEvent()
}

// ToEvent converts the message to a validated contract event
func (m *Message) ToEvent() (contract.Event, error) {
	kind := contract.Kind(m.Event)
	if !kind.Valid() {
		return nil, fmt.Errorf(
			"%w: unknown event %q",
			contract.ErrMalformedEvent,
			m.Event,
		)
	}
	txHash, err := contract.ParseHash(m.TransactionHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", contract.ErrMalformedEvent, err)
	}
	meta := contract.Meta{
		BlockNumber:    m.BlockNumber,
		BlockTimestamp: m.BlockTimestamp,
		TxHash:         txHash,
		LogIndex:       m.LogIndex,
	}
	var params messageParams
	if len(m.Params) == 0 {
		return nil, fmt.Errorf("%w: missing params", contract.ErrMalformedEvent)
	}
	if err := json.Unmarshal(m.Params, &params); err != nil {
		return nil, fmt.Errorf("%w: params: %w", contract.ErrMalformedEvent, err)
	}
	var evt contract.Event
	switch kind {
	case contract.KindLabelAdded:
		contributor, err := parseAddress("contributor", params.Contributor)
		if err != nil {
			return nil, err
		}
		if params.Description == nil {
			return nil, fmt.Errorf(
				"%w: missing description",
				contract.ErrMalformedEvent,
			)
		}
		evt = contract.LabelAdded{
			Meta:        meta,
			Contributor: contributor,
			Label:       params.Label.bigInt(),
			Description: *params.Description,
		}
	case contract.KindLabelRemoved:
		contributor, err := parseAddress("contributor", params.Contributor)
		if err != nil {
			return nil, err
		}
		evt = contract.LabelRemoved{
			Meta:        meta,
			Contributor: contributor,
			Label:       params.Label.bigInt(),
		}
	case contract.KindLabelUpVoted:
		contributor, err := parseAddress("contributor", params.Contributor)
		if err != nil {
			return nil, err
		}
		evt = contract.LabelUpVoted{
			Meta:        meta,
			Contributor: contributor,
			Label:       params.Label.bigInt(),
			FileHash:    params.FileHash.bigInt(),
		}
	case contract.KindLabelDownVoted:
		contributor, err := parseAddress("contributor", params.Contributor)
		if err != nil {
			return nil, err
		}
		evt = contract.LabelDownVoted{
			Meta:        meta,
			Contributor: contributor,
			Label:       params.Label.bigInt(),
			FileHash:    params.FileHash.bigInt(),
		}
	case contract.KindOwnerChanged:
		newOwner, err := parseAddress("newOwner", params.NewOwner)
		if err != nil {
			return nil, err
		}
		evt = contract.OwnerChanged{
			Meta:     meta,
			NewOwner: newOwner,
		}
	}
	if err := evt.Validate(); err != nil {
		return nil, err
	}
	return evt, nil
}

func parseAddress(name string, s string) (contract.Address, error) {
	if s == "" {
		return contract.Address{}, fmt.Errorf(
			"%w: missing %s",
			contract.ErrMalformedEvent,
			name,
		)
	}
	ret, err := contract.ParseAddress(s)
	if err != nil {
		return ret, fmt.Errorf("%w: %s: %w", contract.ErrMalformedEvent, name, err)
	}
	return ret, nil
}

// Encode returns the JSON wire form of a contract event
func Encode(evt contract.Event) ([]byte, error) {
	meta := evt.Metadata()
	msg := Message{
		Event:           string(evt.Kind()),
		BlockNumber:     meta.BlockNumber,
		BlockTimestamp:  meta.BlockTimestamp,
		TransactionHash: meta.TxHash.Hex(),
		LogIndex:        meta.LogIndex,
	}
	var params messageParams
	switch e := evt.(type) {
	case contract.LabelAdded:
		params = messageParams{
			Contributor: e.Contributor.Hex(),
			Label:       NewUint256(e.Label),
			Description: &e.Description,
		}
	case contract.LabelRemoved:
		params = messageParams{
			Contributor: e.Contributor.Hex(),
			Label:       NewUint256(e.Label),
		}
	case contract.LabelUpVoted:
		params = messageParams{
			Contributor: e.Contributor.Hex(),
			Label:       NewUint256(e.Label),
			FileHash:    NewUint256(e.FileHash),
		}
	case contract.LabelDownVoted:
		params = messageParams{
			Contributor: e.Contributor.Hex(),
			Label:       NewUint256(e.Label),
			FileHash:    NewUint256(e.FileHash),
		}
	case contract.OwnerChanged:
		params = messageParams{
			NewOwner: e.NewOwner.Hex(),
		}
	default:
		return nil, fmt.Errorf("cannot encode event type %T", evt)
	}
	paramsJson, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	msg.Params = paramsJson
	return json.Marshal(msg)
}
