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
	"encoding/json"
	"errors"
	"net/http"
	"regexp"

	"github.com/blinklabs-io/markstream/database/models"
	"github.com/blinklabs-io/markstream/internal/version"
)

var (
	entityIDRegexp    = regexp.MustCompile(`^(0|[1-9][0-9]{0,77})$`)
	fileLabelIDRegexp = regexp.MustCompile(
		`^(0|[1-9][0-9]{0,77})-(0|[1-9][0-9]{0,77})$`,
	)
	eventIDRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{72}$`)
)

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// writeLookupError maps a read-model error to a response. The not-found
// sentinels become a 404, anything else is logged and reported as a 500.
func (a *API) writeLookupError(
	w http.ResponseWriter,
	err error,
	what string,
) {
	switch {
	case errors.Is(err, models.ErrLabelNotFound),
		errors.Is(err, models.ErrFileNotFound),
		errors.Is(err, models.ErrFileLabelNotFound),
		errors.Is(err, models.ErrEventRecordNotFound):
		writeError(w, http.StatusNotFound, what+" not found")
	default:
		a.logger.Error(
			"failed to query read model",
			"entity", what,
			"error", err,
		)
		writeError(
			w,
			http.StatusInternalServerError,
			"failed to retrieve "+what,
		)
	}
}

func (a *API) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "markstream",
		Version: version.GetVersionString(),
	})
}

func (a *API) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleCheckpoint handles GET /api/v0/checkpoint and returns the position
// of the last applied event
func (a *API) handleCheckpoint(
	w http.ResponseWriter,
	_ *http.Request,
) {
	cp, err := a.readModel.GetCheckpoint()
	if err != nil {
		a.writeLookupError(w, err, "checkpoint")
		return
	}
	if cp == nil {
		writeError(w, http.StatusNotFound, "no events applied yet")
		return
	}
	writeJSON(w, http.StatusOK, NewCheckpointResponse(cp))
}

func (a *API) handleLabels(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, ok := parsePagination(w, r)
	if !ok {
		return
	}
	labels, err := a.readModel.ListLabels(params.Count, params.Offset())
	if err != nil {
		a.writeLookupError(w, err, "labels")
		return
	}
	ret := make([]LabelResponse, 0, len(labels))
	for i := range labels {
		ret = append(ret, NewLabelResponse(&labels[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (a *API) handleLabel(
	w http.ResponseWriter,
	r *http.Request,
) {
	id := r.PathValue("id")
	if !entityIDRegexp.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid label id")
		return
	}
	label, err := a.readModel.GetLabel(id)
	if err != nil {
		a.writeLookupError(w, err, "label")
		return
	}
	writeJSON(w, http.StatusOK, NewLabelResponse(label))
}

func (a *API) handleFiles(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, ok := parsePagination(w, r)
	if !ok {
		return
	}
	files, err := a.readModel.ListFiles(params.Count, params.Offset())
	if err != nil {
		a.writeLookupError(w, err, "files")
		return
	}
	ret := make([]FileResponse, 0, len(files))
	for i := range files {
		ret = append(ret, NewFileResponse(&files[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (a *API) handleFile(
	w http.ResponseWriter,
	r *http.Request,
) {
	id := r.PathValue("id")
	if !entityIDRegexp.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	file, err := a.readModel.GetFile(id)
	if err != nil {
		a.writeLookupError(w, err, "file")
		return
	}
	writeJSON(w, http.StatusOK, NewFileResponse(file))
}

// handleFileLabels handles GET /api/v0/files/{id}/labels and returns the
// per-label vote tallies of a file
func (a *API) handleFileLabels(
	w http.ResponseWriter,
	r *http.Request,
) {
	id := r.PathValue("id")
	if !entityIDRegexp.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	params, ok := parsePagination(w, r)
	if !ok {
		return
	}
	if _, err := a.readModel.GetFile(id); err != nil {
		a.writeLookupError(w, err, "file")
		return
	}
	fileLabels, err := a.readModel.ListFileLabelsByFile(
		id,
		params.Count,
		params.Offset(),
	)
	if err != nil {
		a.writeLookupError(w, err, "file labels")
		return
	}
	ret := make([]FileLabelResponse, 0, len(fileLabels))
	for i := range fileLabels {
		ret = append(ret, NewFileLabelResponse(&fileLabels[i]))
	}
	writeJSON(w, http.StatusOK, ret)
}

func (a *API) handleFileLabel(
	w http.ResponseWriter,
	r *http.Request,
) {
	id := r.PathValue("id")
	if !fileLabelIDRegexp.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid file label id")
		return
	}
	fileLabel, err := a.readModel.GetFileLabel(id)
	if err != nil {
		a.writeLookupError(w, err, "file label")
		return
	}
	writeJSON(w, http.StatusOK, NewFileLabelResponse(fileLabel))
}

func (a *API) handleEventRecord(
	w http.ResponseWriter,
	r *http.Request,
) {
	id := r.PathValue("id")
	if !eventIDRegexp.MatchString(id) {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}
	rec, err := a.readModel.GetEventRecord(id)
	if err != nil {
		a.writeLookupError(w, err, "event")
		return
	}
	writeJSON(w, http.StatusOK, NewEventRecordResponse(rec))
}
