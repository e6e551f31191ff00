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

package sqlite

import (
	"sync"
	"time"

	"github.com/blinklabs-io/markstream/database/plugin"
)

const DefaultDataDir = ".markstream"

var (
	cmdlineOptions = struct {
		dataDir        string
		vacuumInterval uint64
	}{
		dataDir:        DefaultDataDir,
		vacuumInterval: uint64(DefaultVacuumInterval / time.Minute),
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Directory holding the SQLite file, empty for in-memory",
					DefaultValue: DefaultDataDir,
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "vacuum-interval",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "Minutes between VACUUM runs on the SQLite file",
					DefaultValue: cmdlineOptions.vacuumInterval,
					Dest:         &(cmdlineOptions.vacuumInterval),
				},
			},
		},
	)
}

func NewFromCmdlineOptions(rt plugin.Runtime) plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	cfg := Config{
		DataDir:        cmdlineOptions.dataDir,
		VacuumInterval: time.Duration(cmdlineOptions.vacuumInterval) * time.Minute, //nolint:gosec
		Logger:         rt.Logger,
		PromRegistry:   rt.PromRegistry,
	}
	cmdlineOptionsMutex.RUnlock()
	return New(cfg)
}
