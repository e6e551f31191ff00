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
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/markstream/api"
	"github.com/blinklabs-io/markstream/database"
	"github.com/spf13/cobra"
)

// dumpJournal writes every journaled event record to w as JSON lines and
// returns the number written
func dumpJournal(db *database.Database, w io.Writer) (uint64, error) {
	it := db.JournalRecords()
	defer it.Close()
	enc := json.NewEncoder(w)
	for {
		rec, err := it.Next()
		if err != nil {
			return it.Count(), err
		}
		if rec == nil {
			return it.Count(), nil
		}
		if err := enc.Encode(api.NewEventRecordResponse(rec)); err != nil {
			return it.Count(), err
		}
	}
}

func journalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Dump the event journal as newline-delimited JSON, in event id order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			db, err := openDatabase(cfg)
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			count, err := dumpJournal(db, os.Stdout)
			_ = db.Close()
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "%d event records\n", count)
		},
	}
	return cmd
}
