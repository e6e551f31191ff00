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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blinklabs-io/markstream"
	"github.com/blinklabs-io/markstream/indexer"
	"github.com/blinklabs-io/markstream/internal/config"
)

// LoadStats summarizes a batch import
type LoadStats struct {
	Applied    int
	Duplicates int
	LastBlock  uint64
}

// Load indexes every event in a newline-delimited JSON file, or stdin for
// "-", and returns once the file is exhausted
func Load(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	eventFile string,
) (LoadStats, error) {
	var stats LoadStats
	opts, err := nodeOptions(cfg, logger, nil)
	if err != nil {
		return stats, err
	}
	startTime := time.Now()
	lastLog := startTime
	opts = append(
		opts,
		markstream.WithEventFile(eventFile),
		markstream.WithAppliedFunc(func(res indexer.Result) {
			if res.Duplicate {
				stats.Duplicates++
			} else {
				stats.Applied++
			}
			stats.LastBlock = res.Position.BlockNumber
			if time.Since(lastLog) >= 10*time.Second {
				lastLog = time.Now()
				logger.Info(
					fmt.Sprintf(
						"applied %d events (%d duplicates), block %d",
						stats.Applied,
						stats.Duplicates,
						stats.LastBlock,
					),
					"component", "node",
				)
			}
		}),
	)
	n, err := markstream.New(markstream.NewConfig(opts...))
	if err != nil {
		return stats, err
	}
	runErr := n.Run(ctx)
	if err := n.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return stats, runErr
	}
	logger.Info(
		fmt.Sprintf(
			"finished loading %d events (%d duplicates) in %s",
			stats.Applied,
			stats.Duplicates,
			time.Since(startTime).Round(time.Millisecond),
		),
		"component", "node",
	)
	return stats, nil
}
