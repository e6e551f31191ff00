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

package contract

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const (
	AddressLength = 20
	HashLength    = 32
)

// MaxUint256 is the largest value a uint256 contract parameter can hold
var MaxUint256 = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 256),
	big.NewInt(1),
)

// ErrMalformedEvent is returned when an event is missing a parameter or a
// parameter is out of range. Events wrapping this error must not be retried.
var ErrMalformedEvent = errors.New("malformed event")

// Address is a 20-byte account address
type Address [AddressLength]byte

// Hex returns the 0x-prefixed lowercase hex form of the address
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether the address is all zero bytes
func (a Address) IsZero() bool {
	return a == Address{}
}

// ParseAddress decodes a hex address with or without the 0x prefix
func ParseAddress(s string) (Address, error) {
	var ret Address
	b, err := decodeHex(s, AddressLength)
	if err != nil {
		return ret, fmt.Errorf("invalid address %q: %w", s, err)
	}
	copy(ret[:], b)
	return ret, nil
}

// Hash is a 32-byte transaction hash
type Hash [HashLength]byte

// Hex returns the 0x-prefixed lowercase hex form of the hash
func (h Hash) Hex() string {
	return "0x" + hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

// IsZero reports whether the hash is all zero bytes
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// ParseHash decodes a hex transaction hash with or without the 0x prefix
func ParseHash(s string) (Hash, error) {
	var ret Hash
	b, err := decodeHex(s, HashLength)
	if err != nil {
		return ret, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	copy(ret[:], b)
	return ret, nil
}

func decodeHex(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != size*2 {
		return nil, fmt.Errorf(
			"expected %d hex characters, got %d",
			size*2,
			len(s),
		)
	}
	return hex.DecodeString(s)
}

// Position is the total order key of a contract log within the chain
type Position struct {
	BlockNumber uint64
	LogIndex    uint32
}

// Less reports whether p sorts strictly before other
func (p Position) Less(other Position) bool {
	if p.BlockNumber != other.BlockNumber {
		return p.BlockNumber < other.BlockNumber
	}
	return p.LogIndex < other.LogIndex
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.BlockNumber, p.LogIndex)
}

// Meta carries the block and transaction context common to every event
type Meta struct {
	BlockNumber    uint64
	BlockTimestamp uint64
	TxHash         Hash
	LogIndex       uint32
}

// Metadata returns the event metadata. It is promoted onto every event type.
func (m Meta) Metadata() Meta {
	return m
}

// Position returns the ordering key of the event
func (m Meta) Position() Position {
	return Position{
		BlockNumber: m.BlockNumber,
		LogIndex:    m.LogIndex,
	}
}

func (m Meta) validate() error {
	if m.TxHash.IsZero() {
		return fmt.Errorf("%w: missing transaction hash", ErrMalformedEvent)
	}
	return nil
}

// validateUint256 checks that v is present and fits in an unsigned 256-bit
// contract parameter
func validateUint256(name string, v *big.Int) error {
	if v == nil {
		return fmt.Errorf("%w: missing %s", ErrMalformedEvent, name)
	}
	if v.Sign() < 0 {
		return fmt.Errorf(
			"%w: %s is negative: %s",
			ErrMalformedEvent,
			name,
			v.String(),
		)
	}
	if v.Cmp(MaxUint256) > 0 {
		return fmt.Errorf(
			"%w: %s exceeds uint256: %s",
			ErrMalformedEvent,
			name,
			v.String(),
		)
	}
	return nil
}
