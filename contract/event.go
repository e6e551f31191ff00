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

// Package contract defines the decoded events emitted by the MarkStreamLabel
// contract. The set of event types is closed: only the types declared here
// implement Event.
package contract

import (
	"fmt"
	"math/big"
	"unicode/utf8"
)

// Kind names a contract event
type Kind string

const (
	KindLabelAdded     Kind = "LabelAdded"
	KindLabelRemoved   Kind = "LabelRemoved"
	KindLabelUpVoted   Kind = "LabelUpVoted"
	KindLabelDownVoted Kind = "LabelDownVoted"
	KindOwnerChanged   Kind = "OwnerChanged"
)

// Kinds lists every event kind in declaration order
var Kinds = []Kind{
	KindLabelAdded,
	KindLabelRemoved,
	KindLabelUpVoted,
	KindLabelDownVoted,
	KindOwnerChanged,
}

// Valid reports whether k names a known event kind
func (k Kind) Valid() bool {
	switch k {
	case KindLabelAdded,
		KindLabelRemoved,
		KindLabelUpVoted,
		KindLabelDownVoted,
		KindOwnerChanged:
		return true
	default:
		return false
	}
}

// Event is a decoded contract log
type Event interface {
	Kind() Kind
	Metadata() Meta
	Position() Position
	Validate() error
	isEvent()
}

// LabelAdded is emitted when a contributor registers a new label
type LabelAdded struct {
	Meta
	Contributor Address
	Label       *big.Int
	Description string
}

func (LabelAdded) Kind() Kind { return KindLabelAdded }
func (LabelAdded) isEvent()   {}

func (e LabelAdded) Validate() error {
	if err := e.validate(); err != nil {
		return err
	}
	if err := validateUint256("label", e.Label); err != nil {
		return err
	}
	if !utf8.ValidString(e.Description) {
		return fmt.Errorf(
			"%w: description is not valid UTF-8",
			ErrMalformedEvent,
		)
	}
	return nil
}

// LabelRemoved is emitted when a label is retired
type LabelRemoved struct {
	Meta
	Contributor Address
	Label       *big.Int
}

func (LabelRemoved) Kind() Kind { return KindLabelRemoved }
func (LabelRemoved) isEvent()   {}

func (e LabelRemoved) Validate() error {
	if err := e.validate(); err != nil {
		return err
	}
	return validateUint256("label", e.Label)
}

// LabelUpVoted is emitted when a contributor votes for a label on a file
type LabelUpVoted struct {
	Meta
	Contributor Address
	Label       *big.Int
	FileHash    *big.Int
}

func (LabelUpVoted) Kind() Kind { return KindLabelUpVoted }
func (LabelUpVoted) isEvent()   {}

func (e LabelUpVoted) Validate() error {
	return validateVote(e.Meta, e.Label, e.FileHash)
}

// LabelDownVoted is emitted when a contributor votes against a label on a file
type LabelDownVoted struct {
	Meta
	Contributor Address
	Label       *big.Int
	FileHash    *big.Int
}

func (LabelDownVoted) Kind() Kind { return KindLabelDownVoted }
func (LabelDownVoted) isEvent()   {}

func (e LabelDownVoted) Validate() error {
	return validateVote(e.Meta, e.Label, e.FileHash)
}

// OwnerChanged is emitted when contract ownership moves to a new address
type OwnerChanged struct {
	Meta
	NewOwner Address
}

func (OwnerChanged) Kind() Kind { return KindOwnerChanged }
func (OwnerChanged) isEvent()   {}

func (e OwnerChanged) Validate() error {
	return e.validate()
}

func validateVote(meta Meta, label, fileHash *big.Int) error {
	if err := meta.validate(); err != nil {
		return err
	}
	if err := validateUint256("label", label); err != nil {
		return err
	}
	return validateUint256("fileHash", fileHash)
}
