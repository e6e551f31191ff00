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

package api

import (
	"strconv"
	"time"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/database/types"
)

// RootResponse is returned by GET /
type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// CreationResponse describes the event that created an entity. Counters and
// block numbers are rendered as decimal strings so clients never lose
// precision.
type CreationResponse struct {
	BlockNumber     string `json:"block_number"`
	BlockTimestamp  string `json:"block_timestamp"`
	TransactionHash string `json:"transaction_hash"`
	LogIndex        uint32 `json:"log_index"`
}

type LabelResponse struct {
	ID                 string `json:"id"`
	Creator            string `json:"creator"`
	Description        string `json:"description"`
	Status             string `json:"status"`
	TotalContributions string `json:"total_contributions"`
	CreationResponse
}

type FileResponse struct {
	ID                 string `json:"id"`
	TotalLabels        string `json:"total_labels"`
	TotalContributions string `json:"total_contributions"`
	CreationResponse
}

type FileLabelResponse struct {
	ID                 string `json:"id"`
	File               string `json:"file"`
	Label              string `json:"label"`
	TotalUpVotes       string `json:"total_up_votes"`
	TotalDownVotes     string `json:"total_down_votes"`
	TotalContributions string `json:"total_contributions"`
	CreationResponse
}

type CheckpointResponse struct {
	BlockNumber string    `json:"block_number"`
	LogIndex    uint32    `json:"log_index"`
	EventID     string    `json:"event_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventRecordResponse struct {
	ID              string            `json:"id"`
	Event           string            `json:"event"`
	BlockNumber     string            `json:"block_number"`
	BlockTimestamp  string            `json:"block_timestamp"`
	TransactionHash string            `json:"transaction_hash"`
	LogIndex        uint32            `json:"log_index"`
	Params          map[string]string `json:"params"`
}

func counterString(v types.Uint64) string {
	return counterString64(uint64(v))
}

func counterString64(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func creationResponse(meta models.CreationMeta) CreationResponse {
	return CreationResponse{
		BlockNumber:     strconv.FormatUint(meta.BlockNumber, 10),
		BlockTimestamp:  strconv.FormatUint(meta.BlockTimestamp, 10),
		TransactionHash: meta.TransactionHash,
		LogIndex:        meta.LogIndex,
	}
}

// NewLabelResponse renders a label for the API
func NewLabelResponse(label *models.Label) LabelResponse {
	return LabelResponse{
		ID:                 label.ID,
		Creator:            label.Creator,
		Description:        label.Description,
		Status:             string(label.Status),
		TotalContributions: counterString(label.TotalContributions),
		CreationResponse:   creationResponse(label.CreationMeta),
	}
}

func NewFileResponse(file *models.File) FileResponse {
	return FileResponse{
		ID:                 file.ID,
		TotalLabels:        counterString(file.TotalLabels),
		TotalContributions: counterString(file.TotalContributions),
		CreationResponse:   creationResponse(file.CreationMeta),
	}
}

func NewFileLabelResponse(fileLabel *models.FileLabel) FileLabelResponse {
	return FileLabelResponse{
		ID:                 fileLabel.ID,
		File:               fileLabel.FileID,
		Label:              fileLabel.LabelID,
		TotalUpVotes:       counterString(fileLabel.TotalUpVotes),
		TotalDownVotes:     counterString(fileLabel.TotalDownVotes),
		TotalContributions: counterString(fileLabel.TotalContributions),
		CreationResponse:   creationResponse(fileLabel.CreationMeta),
	}
}

// NewEventRecordResponse renders a journaled event with its parameters as
// strings
func NewEventRecordResponse(rec models.EventRecord) EventRecordResponse {
	meta := rec.RecordMeta()
	ret := EventRecordResponse{
		ID:              meta.ID,
		Event:           rec.RecordKind(),
		BlockNumber:     strconv.FormatUint(meta.BlockNumber, 10),
		BlockTimestamp:  strconv.FormatUint(meta.BlockTimestamp, 10),
		TransactionHash: meta.TransactionHash,
		LogIndex:        meta.LogIndex,
		Params:          map[string]string{},
	}
	switch r := rec.(type) {
	case *models.LabelAdded:
		ret.Params["contributor"] = r.Contributor
		ret.Params["label"] = r.Label
		ret.Params["description"] = r.Description
	case *models.LabelRemoved:
		ret.Params["contributor"] = r.Contributor
		ret.Params["label"] = r.Label
	case *models.LabelUpVoted:
		ret.Params["contributor"] = r.Contributor
		ret.Params["label"] = r.Label
		ret.Params["fileHash"] = r.FileHash
	case *models.LabelDownVoted:
		ret.Params["contributor"] = r.Contributor
		ret.Params["label"] = r.Label
		ret.Params["fileHash"] = r.FileHash
	case *models.OwnerChanged:
		ret.Params["newOwner"] = r.NewOwner
	}
	return ret
}

func NewCheckpointResponse(cp *models.Checkpoint) CheckpointResponse {
	return CheckpointResponse{
		BlockNumber: counterString64(cp.BlockNumber),
		LogIndex:    cp.LogIndex,
		EventID:     cp.EventID,
		UpdatedAt:   cp.UpdatedAt,
	}
}
