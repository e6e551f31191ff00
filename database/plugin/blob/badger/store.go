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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

// Journal entries are small CBOR records, so values stay in the LSM tree
// unless a label description is unusually long
const (
	DefaultValueThreshold   = 4096
	DefaultMemTableSize     = 32 << 20  // 32MB
	DefaultValueLogFileSize = 128 << 20 // 128MB

	gcInterval     = 5 * time.Minute
	gcDiscardRatio = 0.5
)

// Store keeps the append-only event journal and the commit timestamp in
// badger. Without a data directory everything lives in memory.
type Store struct {
	promRegistry   prometheus.Registerer
	metrics        *journalMetrics
	db             *badger.DB
	logger         *slog.Logger
	gcStopCh       chan struct{}
	gcWg           sync.WaitGroup
	closeOnce      sync.Once
	closeErr       error
	dataDir        string
	blockCacheSize uint64
	indexCacheSize uint64
	gcEnabled      bool
	syncWrites     bool
}

// New opens the journal store
func New(opts ...OptionFunc) (*Store, error) {
	s := &Store{
		gcEnabled:      true,
		syncWrites:     true,
		blockCacheSize: DefaultBlockCacheSize,
		indexCacheSize: DefaultIndexCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	badgerOpts, err := s.badgerOptions()
	if err != nil {
		return nil, err
	}
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open journal store: %w", err)
	}
	s.db = db
	if s.promRegistry != nil {
		s.registerMetrics()
	}
	// In-memory stores have no value log to collect
	if s.gcEnabled && s.dataDir != "" {
		s.gcStopCh = make(chan struct{})
		s.gcWg.Add(1)
		go s.runGC(s.gcStopCh)
	}
	return s, nil
}

func (s *Store) badgerOptions() (badger.Options, error) {
	logger := NewBadgerLogger(s.logger)
	if s.dataDir == "" {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(logger).
			WithLoggingLevel(badger.WARNING), nil
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("create data dir: %w", err)
	}
	return badger.DefaultOptions(filepath.Join(s.dataDir, "journal")).
		WithLogger(logger).
		WithLoggingLevel(badger.WARNING).
		WithSyncWrites(s.syncWrites).
		WithBlockCacheSize(int64(s.blockCacheSize)). //nolint:gosec // bounded by configuration
		WithIndexCacheSize(int64(s.indexCacheSize)). //nolint:gosec // bounded by configuration
		WithValueThreshold(DefaultValueThreshold).
		WithMemTableSize(DefaultMemTableSize).
		WithValueLogFileSize(DefaultValueLogFileSize).
		WithCompression(options.Snappy), nil
}

func (s *Store) runGC(stop <-chan struct{}) {
	defer s.gcWg.Done()
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.collectValueLog()
		}
	}
}

// collectValueLog rewrites value log files until badger has nothing left
// to reclaim
func (s *Store) collectValueLog() {
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			s.recordGC()
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) &&
			!errors.Is(err, badger.ErrRejected) {
			s.logger.Warn(
				"journal value log GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

// Start implements the plugin.Plugin interface. The store is opened by New.
func (s *Store) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (s *Store) Stop() error {
	return s.Close()
}

// Close stops value log GC and closes the underlying database. Later calls
// return the result of the first.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.gcStopCh != nil {
			close(s.gcStopCh)
			s.gcWg.Wait()
		}
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}

// DB returns the underlying badger handle
func (s *Store) DB() *badger.DB {
	return s.db
}
