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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/markstream/contract"
	"github.com/blinklabs-io/markstream/internal/config"
	"github.com/blinklabs-io/markstream/source/jetstream"
	"github.com/blinklabs-io/markstream/source/jsonl"
	"github.com/spf13/cobra"
)

// publishEvents copies every event in a newline-delimited JSON file into the
// JetStream stream the indexer consumes from. Malformed lines are skipped.
func publishEvents(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	eventFile string,
) (int, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	src, err := jsonl.Open(eventFile)
	if err != nil {
		return 0, err
	}
	defer src.Close()
	js, err := jetstream.New(
		ctx,
		jetstream.Config{
			Logger:   logger,
			URL:      cfg.NatsUrl,
			Stream:   cfg.JetStream.Stream,
			Subject:  cfg.JetStream.Subject,
			Consumer: cfg.JetStream.Consumer,
		},
	)
	if err != nil {
		return 0, err
	}
	defer js.Close()
	count := 0
	for {
		d, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return count, nil
			}
			if errors.Is(err, contract.ErrMalformedEvent) {
				logger.Warn("skipping malformed event", "error", err)
				continue
			}
			return count, err
		}
		if err := js.Publish(ctx, d.Event()); err != nil {
			return count, err
		}
		count++
	}
}

func publishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <event-file>",
		Short: "Publish newline-delimited JSON events ('-' for stdin) to the JetStream stream",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configFromCommand(cmd)
			logger := newLogger()
			count, err := publishEvents(cmd.Context(), cfg, logger, args[0])
			if err != nil {
				slog.Error(err.Error())
				os.Exit(1)
			}
			logger.Info(
				fmt.Sprintf("published %d events", count),
				"component", programName,
			)
		},
	}
	return cmd
}
