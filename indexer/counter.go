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
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
)

var (
	// ErrCounterOverflow is returned when incrementing a counter would wrap.
	// It is fatal for the indexer.
	ErrCounterOverflow = errors.New("counter overflow")
	// ErrInvariantViolation is returned when an aggregate no longer satisfies
	// its counter invariants. It is fatal for the indexer.
	ErrInvariantViolation = errors.New("invariant violation")
)

func increment(name string, id string, counter *types.Uint64) error {
	if uint64(*counter) == math.MaxUint64 {
		return fmt.Errorf("%w: %s of %s", ErrCounterOverflow, name, id)
	}
	*counter++
	return nil
}

func checkFileLabel(fl *models.FileLabel) error {
	sum := uint64(fl.TotalUpVotes) + uint64(fl.TotalDownVotes)
	if sum < uint64(fl.TotalUpVotes) || sum != uint64(fl.TotalContributions) {
		return fmt.Errorf(
			"%w: file label %s has %d contributions but %d up and %d down votes",
			ErrInvariantViolation,
			fl.ID,
			fl.TotalContributions,
			fl.TotalUpVotes,
			fl.TotalDownVotes,
		)
	}
	return nil
}

func checkFile(file *models.File, fl *models.FileLabel) error {
	if file.TotalLabels == 0 ||
		file.TotalContributions < fl.TotalContributions {
		return fmt.Errorf(
			"%w: file %s has %d labels and %d contributions, less than file label %s",
			ErrInvariantViolation,
			file.ID,
			file.TotalLabels,
			file.TotalContributions,
			fl.ID,
		)
	}
	return nil
}
