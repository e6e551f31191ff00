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

package badger

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

type OptionFunc func(*Store)

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) OptionFunc {
	return func(s *Store) {
		s.promRegistry = registry
	}
}

// WithDataDir sets the directory holding the journal. An empty value keeps
// the journal in memory.
func WithDataDir(dataDir string) OptionFunc {
	return func(s *Store) {
		s.dataDir = dataDir
	}
}

func WithBlockCacheSize(size uint64) OptionFunc {
	return func(s *Store) {
		s.blockCacheSize = size
	}
}

func WithIndexCacheSize(size uint64) OptionFunc {
	return func(s *Store) {
		s.indexCacheSize = size
	}
}

// WithGc enables periodic value log GC for on-disk journals
func WithGc(enabled bool) OptionFunc {
	return func(s *Store) {
		s.gcEnabled = enabled
	}
}

// WithSyncWrites controls whether each commit is fsynced before it returns.
// Turning it off trades crash durability of the last few events for
// throughput during bulk loads.
func WithSyncWrites(enabled bool) OptionFunc {
	return func(s *Store) {
		s.syncWrites = enabled
	}
}
