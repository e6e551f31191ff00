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
	"context"
	"log/slog"
	"os"

	"github.com/blinklabs-io/markstream/internal/config"
	"github.com/blinklabs-io/markstream/internal/node"
	"github.com/spf13/cobra"
)

func loadRun(ctx context.Context, args []string, cfg *config.Config) {
	var eventFile string

	// CLI argument takes priority over config
	if len(args) >= 1 {
		eventFile = args[0]
	} else if cfg.EventFile != "" {
		eventFile = cfg.EventFile
	} else {
		slog.Error(
			"path to event file required (via argument or eventFile config)",
		)
		os.Exit(1)
	}

	logger := newLogger()
	if _, err := node.Load(ctx, cfg, logger, eventFile); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func loadCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [event-file]",
		Short: "Index newline-delimited JSON events from a file ('-' for stdin) and exit",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			loadRun(cmd.Context(), args, configFromCommand(cmd))
		},
	}
	return cmd
}
