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
	"math/big"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/event"
)

type vote struct {
	meta     contract.Meta
	label    *big.Int
	fileHash *big.Int
	up       bool
}

func applyLabelUpVoted(
	store Store,
	evt contract.LabelUpVoted,
	eventID string,
) ([]event.Event, error) {
	rec := &models.LabelUpVoted{
		EventMeta:   eventMeta(eventID, evt.Meta),
		Contributor: evt.Contributor.Hex(),
		Label:       LabelID(evt.Label),
		FileHash:    FileID(evt.FileHash),
	}
	if err := store.AddEventRecord(rec); err != nil {
		return nil, err
	}
	return applyVote(
		store,
		vote{
			meta:     evt.Meta,
			label:    evt.Label,
			fileHash: evt.FileHash,
			up:       true,
		},
		eventID,
	)
}

func applyLabelDownVoted(
	store Store,
	evt contract.LabelDownVoted,
	eventID string,
) ([]event.Event, error) {
	rec := &models.LabelDownVoted{
		EventMeta:   eventMeta(eventID, evt.Meta),
		Contributor: evt.Contributor.Hex(),
		Label:       LabelID(evt.Label),
		FileHash:    FileID(evt.FileHash),
	}
	if err := store.AddEventRecord(rec); err != nil {
		return nil, err
	}
	return applyVote(
		store,
		vote{
			meta:     evt.Meta,
			label:    evt.Label,
			fileHash: evt.FileHash,
		},
		eventID,
	)
}

// applyVote updates the file and file label counters for a vote. The label
// itself is neither read nor required to exist.
func applyVote(
	store Store,
	v vote,
	eventID string,
) ([]event.Event, error) {
	fileID := FileID(v.fileHash)
	labelID := LabelID(v.label)
	fileLabelID := FileLabelID(fileID, labelID)

	file, err := store.GetFile(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		file = &models.File{
			ID:           fileID,
			CreationMeta: creationMeta(v.meta),
		}
	}
	fileLabel, err := store.GetFileLabel(fileLabelID)
	if err != nil {
		return nil, err
	}
	created := false
	if fileLabel == nil {
		fileLabel = &models.FileLabel{
			ID:           fileLabelID,
			FileID:       fileID,
			LabelID:      labelID,
			CreationMeta: creationMeta(v.meta),
		}
		if err := increment("totalLabels", file.ID, &file.TotalLabels); err != nil {
			return nil, err
		}
		created = true
	}
	if v.up {
		err = increment("totalUpVotes", fileLabel.ID, &fileLabel.TotalUpVotes)
	} else {
		err = increment("totalDownVotes", fileLabel.ID, &fileLabel.TotalDownVotes)
	}
	if err != nil {
		return nil, err
	}
	if err := increment("totalContributions", fileLabel.ID, &fileLabel.TotalContributions); err != nil {
		return nil, err
	}
	if err := increment("totalContributions", file.ID, &file.TotalContributions); err != nil {
		return nil, err
	}
	if err := checkFileLabel(fileLabel); err != nil {
		return nil, err
	}
	if err := checkFile(file, fileLabel); err != nil {
		return nil, err
	}
	if err := store.SetFile(file); err != nil {
		return nil, err
	}
	if err := store.SetFileLabel(fileLabel); err != nil {
		return nil, err
	}
	return []event.Event{
		event.NewEvent(
			event.FileUpdatedEventType,
			event.FileUpdatedEvent{
				FileID:             file.ID,
				TotalLabels:        uint64(file.TotalLabels),
				TotalContributions: uint64(file.TotalContributions),
				EventID:            eventID,
			},
		),
		event.NewEvent(
			event.FileLabelUpdatedEventType,
			event.FileLabelUpdatedEvent{
				FileLabelID:        fileLabel.ID,
				FileID:             fileLabel.FileID,
				LabelID:            fileLabel.LabelID,
				TotalUpVotes:       uint64(fileLabel.TotalUpVotes),
				TotalDownVotes:     uint64(fileLabel.TotalDownVotes),
				TotalContributions: uint64(fileLabel.TotalContributions),
				Created:            created,
				EventID:            eventID,
			},
		),
	}, nil
}
