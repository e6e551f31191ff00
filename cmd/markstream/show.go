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

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/blinklabs-io/markstream/api"
	"github.com/blinklabs-io/markstream/database"
	"github.com/blinklabs-io/markstream/internal/config"
	"github.com/spf13/cobra"
)

func openDatabase(cfg *config.Config) (*database.Database, error) {
	db, err := database.New(&database.Config{
		DataDir:        cfg.DatabasePath,
		BlobPlugin:     cfg.BlobPlugin,
		MetadataPlugin: cfg.MetadataPlugin,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// showRun wraps a lookup against the database so that each show subcommand
// only needs to produce the value to print
func showRun(
	lookup func(db *database.Database, args []string) (any, error),
) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		cfg := configFromCommand(cmd)
		db, err := openDatabase(cfg)
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
		ret, err := lookup(db, args)
		_ = db.Close()
		if err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
		if err := printJSON(ret); err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
	}
}

func showCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show indexed entities from the local database",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "label <id>",
			Short: "Show a label",
			Args:  cobra.ExactArgs(1),
			Run: showRun(func(db *database.Database, args []string) (any, error) {
				label, err := db.GetLabel(args[0], nil)
				if err != nil {
					return nil, err
				}
				return api.NewLabelResponse(label), nil
			}),
		},
		&cobra.Command{
			Use:   "file <id>",
			Short: "Show a file and its per-label vote tallies",
			Args:  cobra.ExactArgs(1),
			Run: showRun(func(db *database.Database, args []string) (any, error) {
				file, err := db.GetFile(args[0], nil)
				if err != nil {
					return nil, err
				}
				fileLabels, err := db.ListFileLabelsByFile(args[0], -1, 0, nil)
				if err != nil {
					return nil, err
				}
				ret := struct {
					api.FileResponse
					Labels []api.FileLabelResponse `json:"labels"`
				}{
					FileResponse: api.NewFileResponse(file),
					Labels:       make([]api.FileLabelResponse, 0, len(fileLabels)),
				}
				for i := range fileLabels {
					ret.Labels = append(
						ret.Labels,
						api.NewFileLabelResponse(&fileLabels[i]),
					)
				}
				return ret, nil
			}),
		},
		&cobra.Command{
			Use:   "filelabel <id>",
			Short: "Show the vote tallies of a label on a file (<fileId>-<labelId>)",
			Args:  cobra.ExactArgs(1),
			Run: showRun(func(db *database.Database, args []string) (any, error) {
				fileLabel, err := db.GetFileLabel(args[0], nil)
				if err != nil {
					return nil, err
				}
				return api.NewFileLabelResponse(fileLabel), nil
			}),
		},
		&cobra.Command{
			Use:   "event <id>",
			Short: "Show a journaled event record",
			Args:  cobra.ExactArgs(1),
			Run: showRun(func(db *database.Database, args []string) (any, error) {
				rec, err := db.GetEventRecord(args[0], nil)
				if err != nil {
					return nil, err
				}
				return api.NewEventRecordResponse(rec), nil
			}),
		},
		&cobra.Command{
			Use:   "checkpoint",
			Short: "Show the position of the last applied event",
			Args:  cobra.NoArgs,
			Run: showRun(func(db *database.Database, _ []string) (any, error) {
				cp, err := db.GetCheckpoint(nil)
				if err != nil {
					return nil, err
				}
				if cp == nil {
					return nil, fmt.Errorf("no events applied yet")
				}
				return api.NewCheckpointResponse(cp), nil
			}),
		},
	)
	return cmd
}
